package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// Sources for cached statistics.
const (
	SourceStrava   = "strava"
	SourceWakaTime = "wakatime"
)

// StatSnapshot is one cached statistic fetched from an external API.
// The (source, stats_type) pair is unique; refreshes replace data wholesale.
type StatSnapshot struct {
	bun.BaseModel `bun:"table:stat_snapshots,alias:ss"`

	ID        int64           `json:"-" bun:",pk,autoincrement"`
	Source    string          `json:"source" bun:",unique:idx_stat_snapshots_source_type,notnull"`
	StatsType string          `json:"type" bun:",unique:idx_stat_snapshots_source_type,notnull"`
	Data      json.RawMessage `json:"data" bun:"data,notnull"`
	FetchedAt time.Time       `json:"fetched_at" bun:",nullzero,notnull,default:current_timestamp"`
}

package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// CalendarDay is one door of the advent calendar. Day numbers are unique;
// re-seeding a day replaces its content through the same atomic upsert used
// for cached stats.
type CalendarDay struct {
	bun.BaseModel `bun:"table:calendar_days,alias:cd"`

	ID        int64           `json:"-" bun:",pk,autoincrement"`
	Day       int             `json:"day" bun:",unique,notnull"`
	Type      string          `json:"type" bun:",notnull"`
	Data      json.RawMessage `json:"data" bun:"data,notnull"`
	CreatedAt time.Time       `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time       `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`
}

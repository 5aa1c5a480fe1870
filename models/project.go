package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Project is a portfolio entry. Slugs are unique and drive the public URLs;
// only published projects are visible without the internal API key.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:pr"`

	ID           int64             `json:"id" bun:",pk,autoincrement"`
	Slug         string            `json:"slug" bun:",unique,notnull"`
	Title        string            `json:"title" bun:",notnull"`
	Description  string            `json:"description" bun:"description"`
	Content      string            `json:"content" bun:"content"`
	ImageURL     string            `json:"image_url" bun:"image_url"`
	Technologies []string          `json:"technologies" bun:"technologies"`
	Links        map[string]string `json:"links" bun:"links"`
	Featured     bool              `json:"featured" bun:"featured"`
	DisplayOrder int               `json:"order" bun:"display_order"`
	Published    bool              `json:"published" bun:"published"`
	CreatedAt    time.Time         `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time         `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`
}

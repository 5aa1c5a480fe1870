package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ProviderCredential holds the OAuth tokens for one external provider in
// single-user mode. The unique constraint on provider makes it a singleton
// row per provider; concurrent token refreshes converge via the atomic
// upsert, last commit wins.
//
// Access and refresh tokens are stored encrypted; the repository treats them
// as opaque strings.
type ProviderCredential struct {
	bun.BaseModel `bun:"table:provider_credentials,alias:pc"`

	ID           int64     `json:"-" bun:",pk,autoincrement"`
	Provider     string    `json:"provider" bun:",unique,notnull"`
	AccountID    string    `json:"account_id" bun:",notnull"`
	AccessToken  string    `json:"-" bun:",notnull"`
	RefreshToken string    `json:"-" bun:",notnull"`
	TokenType    string    `json:"token_type" bun:",nullzero,default:'Bearer'"`
	ExpiresAt    int64     `json:"expires_at" bun:",notnull"`
	UpdatedAt    time.Time `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`
}

// Expired reports whether the access token has passed its expiry.
func (c *ProviderCredential) Expired(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}

// NeedsRefresh reports whether the access token expires within the buffer.
func (c *ProviderCredential) NeedsRefresh(now time.Time, buffer time.Duration) bool {
	return now.Unix() >= c.ExpiresAt-int64(buffer.Seconds())
}

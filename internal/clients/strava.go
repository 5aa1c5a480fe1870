// Package clients contains the thin HTTP clients for the external APIs the
// backend caches data from. OAuth flows go through golang.org/x/oauth2 with
// per-provider endpoints; only the stats fetches are plain GETs.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/vuhnger/backend/models"
)

const defaultStravaBaseURL = "https://www.strava.com"

// TokenGrant is the provider-agnostic result of a code exchange or refresh.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    int64 // unix seconds
	AccountID    string
}

type StravaClient struct {
	httpClient *http.Client
	baseURL    string
	conf       *oauth2.Config
}

func NewStravaClient(cfg models.ProviderConfig) *StravaClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultStravaBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &StravaClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			// Strava scopes are comma-separated within a single parameter.
			Scopes: []string{"read,activity:read_all"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  baseURL + "/oauth/authorize",
				TokenURL: baseURL + "/oauth/token",
				// Strava wants client credentials in the POST body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// AuthorizeURL builds the provider redirect target for the OAuth flow.
func (c *StravaClient) AuthorizeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for tokens.
func (c *StravaClient) ExchangeCode(ctx context.Context, code string) (*TokenGrant, error) {
	token, err := c.conf.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("strava token request failed: %w", err)
	}
	return c.grantFromToken(token), nil
}

// RefreshToken obtains fresh tokens using the stored refresh token.
func (c *StravaClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	source := c.conf.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("strava token request failed: %w", err)
	}
	return c.grantFromToken(token), nil
}

// grantFromToken maps an oauth2 token onto a TokenGrant. Strava reports
// absolute expiry in the non-standard expires_at field and identifies the
// athlete inline in the token response.
func (c *StravaClient) grantFromToken(token *oauth2.Token) *TokenGrant {
	grant := &TokenGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.Type(),
		ExpiresAt:    extraInt64(token, "expires_at"),
	}
	if grant.ExpiresAt == 0 && !token.Expiry.IsZero() {
		grant.ExpiresAt = token.Expiry.Unix()
	}

	if athlete, ok := token.Extra("athlete").(map[string]any); ok {
		if id, ok := athlete["id"].(float64); ok && id != 0 {
			grant.AccountID = strconv.FormatInt(int64(id), 10)
		}
	}
	return grant
}

func (c *StravaClient) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// ActivityTotals mirrors Strava's aggregated totals shape.
type ActivityTotals struct {
	Count         int     `json:"count"`
	Distance      float64 `json:"distance"`
	MovingTime    int64   `json:"moving_time"`
	ElevationGain float64 `json:"elevation_gain"`
}

// AthleteStats is the subset of Strava's athlete stats the frontend uses.
type AthleteStats struct {
	YTDRunTotals  ActivityTotals `json:"ytd_run_totals"`
	YTDRideTotals ActivityTotals `json:"ytd_ride_totals"`
}

// Activity is one entry from the athlete's activity feed.
type Activity struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Distance      float64   `json:"distance"`
	MovingTime    int64     `json:"moving_time"`
	ElevationGain float64   `json:"total_elevation_gain"`
	StartDate     time.Time `json:"start_date"`
}

// AthleteStats fetches year-to-date totals for the athlete.
func (c *StravaClient) AthleteStats(ctx context.Context, accessToken, athleteID string) (*AthleteStats, error) {
	var stats AthleteStats
	if err := c.getJSON(ctx, accessToken, "/api/v3/athletes/"+athleteID+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Activities fetches the athlete's most recent activities. after is
// optional; the zero time fetches from the start of the feed.
func (c *StravaClient) Activities(ctx context.Context, accessToken string, limit int, after time.Time) ([]Activity, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("per_page", strconv.Itoa(limit))
	}
	if !after.IsZero() {
		query.Set("after", strconv.FormatInt(after.Unix(), 10))
	}

	var activities []Activity
	if err := c.getJSON(ctx, accessToken, "/api/v3/athlete/activities", query, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

func (c *StravaClient) getJSON(ctx context.Context, accessToken, path string, query url.Values, dest any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("strava request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("strava returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode strava response: %w", err)
	}
	return nil
}

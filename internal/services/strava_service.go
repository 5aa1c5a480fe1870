package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vuhnger/backend/events"
	"github.com/vuhnger/backend/internal/clients"
	internalevents "github.com/vuhnger/backend/internal/events"
	"github.com/vuhnger/backend/internal/repositories"
	"github.com/vuhnger/backend/models"
)

// ErrNotAuthenticated is returned when no OAuth credential exists for a
// provider yet.
var ErrNotAuthenticated = errors.New("provider not authenticated, complete the OAuth flow first")

// Stats types cached for Strava.
const (
	StravaStatsYTD              = "ytd"
	StravaStatsRecentActivities = "recent_activities"
	StravaStatsMonthly          = "monthly"
)

// tokenRefreshBuffer refreshes access tokens this long before they expire.
const tokenRefreshBuffer = time.Hour

// recentActivityLimit caps the cached activity feed.
const recentActivityLimit = 30

// monthlyWindowMonths is how far back the monthly aggregation reaches.
const monthlyWindowMonths = 12

type StravaService struct {
	client *clients.StravaClient
	stats  repositories.StatRepository
	creds  repositories.CredentialRepository
	cipher *repositories.TokenCipher
	bus    models.PubSub
	logger *slog.Logger
	now    func() time.Time
}

func NewStravaService(
	client *clients.StravaClient,
	stats repositories.StatRepository,
	creds repositories.CredentialRepository,
	cipher *repositories.TokenCipher,
	bus models.PubSub,
	logger *slog.Logger,
) *StravaService {
	return &StravaService{
		client: client,
		stats:  stats,
		creds:  creds,
		cipher: cipher,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// AuthorizeURL builds the provider redirect for the OAuth flow.
func (s *StravaService) AuthorizeURL(state string) string {
	return s.client.AuthorizeURL(state)
}

// HandleCallback exchanges the authorization code and stores the encrypted
// tokens through the singleton upsert. Racing callbacks converge on the last
// committed grant.
func (s *StravaService) HandleCallback(ctx context.Context, code string) error {
	grant, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("strava code exchange failed: %w", err)
	}
	if grant.AccountID == "" {
		return errors.New("strava token response did not include an athlete")
	}

	if err := s.storeGrant(ctx, grant); err != nil {
		return err
	}

	internalevents.Publish(ctx, s.bus, s.logger, events.TopicCredentialsUpdated, internalevents.RefreshEvent{
		Source: models.SourceStrava,
		At:     s.now(),
	})
	return nil
}

func (s *StravaService) storeGrant(ctx context.Context, grant *clients.TokenGrant) error {
	accessToken, err := s.cipher.Encrypt(grant.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refreshToken, err := s.cipher.Encrypt(grant.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	tokenType := grant.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return s.creds.Upsert(ctx, &models.ProviderCredential{
		Provider:     models.SourceStrava,
		AccountID:    grant.AccountID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		ExpiresAt:    grant.ExpiresAt,
	})
}

// validToken returns a usable access token and the athlete ID, refreshing
// through the provider when expiry is near.
func (s *StravaService) validToken(ctx context.Context) (string, string, error) {
	cred, err := s.creds.Get(ctx, models.SourceStrava)
	if err != nil {
		return "", "", err
	}
	if cred == nil {
		return "", "", ErrNotAuthenticated
	}

	if !cred.NeedsRefresh(s.now(), tokenRefreshBuffer) {
		accessToken, err := s.cipher.Decrypt(cred.AccessToken)
		if err != nil {
			return "", "", fmt.Errorf("failed to decrypt access token: %w", err)
		}
		return accessToken, cred.AccountID, nil
	}

	refreshToken, err := s.cipher.Decrypt(cred.RefreshToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	grant, err := s.client.RefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("strava token refresh failed: %w", err)
	}
	if grant.AccountID == "" {
		grant.AccountID = cred.AccountID
	}

	if err := s.storeGrant(ctx, grant); err != nil {
		return "", "", err
	}

	return grant.AccessToken, grant.AccountID, nil
}

// RefreshAll fetches every Strava statistic and caches each through the
// atomic upsert. A failing statistic aborts the cycle; the scheduler retries
// on the next tick.
func (s *StravaService) RefreshAll(ctx context.Context) error {
	accessToken, athleteID, err := s.validToken(ctx)
	if err != nil {
		return err
	}

	if err := s.refreshYTD(ctx, accessToken, athleteID); err != nil {
		return err
	}
	if err := s.refreshRecentActivities(ctx, accessToken); err != nil {
		return err
	}
	if err := s.refreshMonthly(ctx, accessToken); err != nil {
		return err
	}

	internalevents.Publish(ctx, s.bus, s.logger, events.TopicStatsRefreshed, internalevents.RefreshEvent{
		Source: models.SourceStrava,
		At:     s.now(),
	})
	s.logger.Info("strava stats cached", slog.String("athlete_id", athleteID))
	return nil
}

// totalsPayload mirrors the JSON shape the frontend consumes.
type totalsPayload struct {
	Count         int     `json:"count"`
	Distance      float64 `json:"distance"`
	MovingTime    int64   `json:"moving_time"`
	ElevationGain float64 `json:"elevation_gain"`
}

func (s *StravaService) refreshYTD(ctx context.Context, accessToken, athleteID string) error {
	stats, err := s.client.AthleteStats(ctx, accessToken, athleteID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]totalsPayload{
		"run": {
			Count:         stats.YTDRunTotals.Count,
			Distance:      stats.YTDRunTotals.Distance,
			MovingTime:    stats.YTDRunTotals.MovingTime,
			ElevationGain: stats.YTDRunTotals.ElevationGain,
		},
		"ride": {
			Count:         stats.YTDRideTotals.Count,
			Distance:      stats.YTDRideTotals.Distance,
			MovingTime:    stats.YTDRideTotals.MovingTime,
			ElevationGain: stats.YTDRideTotals.ElevationGain,
		},
	})
	if err != nil {
		return err
	}

	return s.stats.Upsert(ctx, models.SourceStrava, StravaStatsYTD, payload)
}

type activityPayload struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Distance      float64 `json:"distance"`
	MovingTime    int64   `json:"moving_time"`
	ElevationGain float64 `json:"elevation_gain"`
	StartDate     string  `json:"start_date"`
}

func (s *StravaService) refreshRecentActivities(ctx context.Context, accessToken string) error {
	activities, err := s.client.Activities(ctx, accessToken, recentActivityLimit, time.Time{})
	if err != nil {
		return err
	}

	entries := make([]activityPayload, 0, len(activities))
	for _, activity := range activities {
		entries = append(entries, activityPayload{
			ID:            activity.ID,
			Name:          activity.Name,
			Type:          activity.Type,
			Distance:      activity.Distance,
			MovingTime:    activity.MovingTime,
			ElevationGain: activity.ElevationGain,
			StartDate:     activity.StartDate.Format(time.RFC3339),
		})
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	return s.stats.Upsert(ctx, models.SourceStrava, StravaStatsRecentActivities, payload)
}

func (s *StravaService) refreshMonthly(ctx context.Context, accessToken string) error {
	after := s.now().AddDate(0, -monthlyWindowMonths, 0)
	activities, err := s.client.Activities(ctx, accessToken, 0, after)
	if err != nil {
		return err
	}

	monthly := make(map[string]*totalsPayload)
	for _, activity := range activities {
		if activity.StartDate.IsZero() {
			continue
		}
		key := activity.StartDate.Format("2006-01")
		bucket, ok := monthly[key]
		if !ok {
			bucket = &totalsPayload{}
			monthly[key] = bucket
		}
		bucket.Count++
		bucket.Distance += activity.Distance
		bucket.MovingTime += activity.MovingTime
		bucket.ElevationGain += activity.ElevationGain
	}

	payload, err := json.Marshal(monthly)
	if err != nil {
		return err
	}

	return s.stats.Upsert(ctx, models.SourceStrava, StravaStatsMonthly, payload)
}

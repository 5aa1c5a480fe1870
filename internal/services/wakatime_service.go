package services

import (
	"context"
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

// Stats types cached for WakaTime.
const (
	WakaTimeStatsToday   = "today"
	WakaTimeStatsLast7   = "last_7_days"
	WakaTimeStatsAllTime = "all_time"
)

type WakaTimeService struct {
	client *clients.WakaTimeClient
	stats  repositories.StatRepository
	creds  repositories.CredentialRepository
	cipher *repositories.TokenCipher
	bus    models.PubSub
	logger *slog.Logger
	now    func() time.Time
}

func NewWakaTimeService(
	client *clients.WakaTimeClient,
	stats repositories.StatRepository,
	creds repositories.CredentialRepository,
	cipher *repositories.TokenCipher,
	bus models.PubSub,
	logger *slog.Logger,
) *WakaTimeService {
	return &WakaTimeService{
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
func (s *WakaTimeService) AuthorizeURL(state string) string {
	return s.client.AuthorizeURL(state)
}

// HandleCallback exchanges the authorization code and stores the encrypted
// tokens through the singleton upsert.
func (s *WakaTimeService) HandleCallback(ctx context.Context, code string) error {
	grant, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("wakatime code exchange failed: %w", err)
	}
	if grant.AccountID == "" {
		return errors.New("wakatime did not return a user id")
	}

	if err := s.storeGrant(ctx, grant); err != nil {
		return err
	}

	internalevents.Publish(ctx, s.bus, s.logger, events.TopicCredentialsUpdated, internalevents.RefreshEvent{
		Source: models.SourceWakaTime,
		At:     s.now(),
	})
	return nil
}

func (s *WakaTimeService) storeGrant(ctx context.Context, grant *clients.TokenGrant) error {
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
		Provider:     models.SourceWakaTime,
		AccountID:    grant.AccountID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		ExpiresAt:    grant.ExpiresAt,
	})
}

func (s *WakaTimeService) validToken(ctx context.Context) (string, error) {
	cred, err := s.creds.Get(ctx, models.SourceWakaTime)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", ErrNotAuthenticated
	}

	if !cred.NeedsRefresh(s.now(), tokenRefreshBuffer) {
		accessToken, err := s.cipher.Decrypt(cred.AccessToken)
		if err != nil {
			return "", fmt.Errorf("failed to decrypt access token: %w", err)
		}
		return accessToken, nil
	}

	refreshToken, err := s.cipher.Decrypt(cred.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	grant, err := s.client.RefreshToken(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("wakatime token refresh failed: %w", err)
	}
	if grant.AccountID == "" {
		grant.AccountID = cred.AccountID
	}

	if err := s.storeGrant(ctx, grant); err != nil {
		return "", err
	}

	return grant.AccessToken, nil
}

// RefreshAll fetches every WakaTime statistic and caches each through the
// atomic upsert.
func (s *WakaTimeService) RefreshAll(ctx context.Context) error {
	accessToken, err := s.validToken(ctx)
	if err != nil {
		return err
	}

	today, err := s.client.TodaySummary(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := s.stats.Upsert(ctx, models.SourceWakaTime, WakaTimeStatsToday, today); err != nil {
		return err
	}

	last7, err := s.client.Stats(ctx, accessToken, WakaTimeStatsLast7)
	if err != nil {
		return err
	}
	if err := s.stats.Upsert(ctx, models.SourceWakaTime, WakaTimeStatsLast7, last7); err != nil {
		return err
	}

	allTime, err := s.client.Stats(ctx, accessToken, WakaTimeStatsAllTime)
	if err != nil {
		return err
	}
	if err := s.stats.Upsert(ctx, models.SourceWakaTime, WakaTimeStatsAllTime, allTime); err != nil {
		return err
	}

	internalevents.Publish(ctx, s.bus, s.logger, events.TopicStatsRefreshed, internalevents.RefreshEvent{
		Source: models.SourceWakaTime,
		At:     s.now(),
	})
	s.logger.Info("wakatime stats cached")
	return nil
}

package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/vuhnger/backend/models"
)

const defaultWakaTimeBaseURL = "https://wakatime.com"

// wakaTimeTokenLifetime is assumed when the token response omits expires_in.
const wakaTimeTokenLifetime = 3600

type WakaTimeClient struct {
	httpClient *http.Client
	baseURL    string
	conf       *oauth2.Config
	now        func() time.Time
}

func NewWakaTimeClient(cfg models.ProviderConfig) *WakaTimeClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultWakaTimeBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &WakaTimeClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		now:        time.Now,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"read_stats,read_summaries"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  baseURL + "/oauth/authorize",
				TokenURL: baseURL + "/oauth/token",
				// WakaTime sometimes answers token requests with
				// application/x-www-form-urlencoded; the oauth2 package
				// parses both encodings.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// AuthorizeURL builds the provider redirect target for the OAuth flow.
func (c *WakaTimeClient) AuthorizeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for tokens and resolves the
// WakaTime user ID behind them.
func (c *WakaTimeClient) ExchangeCode(ctx context.Context, code string) (*TokenGrant, error) {
	token, err := c.conf.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("wakatime token request failed: %w", err)
	}
	grant := c.grantFromToken(token)

	userID, err := c.CurrentUserID(ctx, grant.AccessToken)
	if err != nil {
		return nil, err
	}
	grant.AccountID = userID

	return grant, nil
}

// RefreshToken obtains fresh tokens using the stored refresh token.
func (c *WakaTimeClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	source := c.conf.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("wakatime token request failed: %w", err)
	}
	return c.grantFromToken(token), nil
}

// grantFromToken maps an oauth2 token onto a TokenGrant. Expiry is computed
// from the raw expires_in field against the client clock so it stays
// deterministic under an injected clock.
func (c *WakaTimeClient) grantFromToken(token *oauth2.Token) *TokenGrant {
	expiresIn := extraInt64(token, "expires_in")
	if expiresIn <= 0 {
		expiresIn = wakaTimeTokenLifetime
	}
	return &TokenGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.Type(),
		ExpiresAt:    c.now().Unix() + expiresIn,
	}
}

func (c *WakaTimeClient) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// CurrentUserID resolves the authenticated user's WakaTime ID.
func (c *WakaTimeClient) CurrentUserID(ctx context.Context, accessToken string) (string, error) {
	var response struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, accessToken, "/api/v1/users/current", nil, &response); err != nil {
		return "", err
	}
	return response.Data.ID, nil
}

// Stats fetches aggregate stats for a time range (last_7_days, last_30_days,
// last_6_months, last_year, all_time). The payload is returned verbatim for
// caching.
func (c *WakaTimeClient) Stats(ctx context.Context, accessToken, timeRange string) (json.RawMessage, error) {
	var response struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.getJSON(ctx, accessToken, "/api/v1/users/current/stats/"+timeRange, nil, &response); err != nil {
		return nil, err
	}
	if len(response.Data) == 0 {
		return json.RawMessage("{}"), nil
	}
	return response.Data, nil
}

// TodaySummary fetches the summary for the current day.
func (c *WakaTimeClient) TodaySummary(ctx context.Context, accessToken string) (json.RawMessage, error) {
	today := c.now().Format("2006-01-02")
	query := url.Values{}
	query.Set("start", today)
	query.Set("end", today)

	var response struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := c.getJSON(ctx, accessToken, "/api/v1/users/current/summaries", query, &response); err != nil {
		return nil, err
	}
	if len(response.Data) == 0 {
		return json.RawMessage("{}"), nil
	}
	return response.Data[0], nil
}

func (c *WakaTimeClient) getJSON(ctx context.Context, accessToken, path string, query url.Values, dest any) error {
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
		return fmt.Errorf("wakatime request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wakatime returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode wakatime response: %w", err)
	}
	return nil
}

package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/platinummonkey/janus/pkg/observability"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Config holds the provider connection settings for a single realm
type Config struct {
	// BaseURL is the provider root, e.g. http://localhost:8080
	BaseURL string
	// Realm scopes every endpoint this client talks to
	Realm string
	// ClientID and ClientSecret identify this service to the provider
	ClientID     string
	ClientSecret string
	// Timeout bounds every outbound call
	Timeout time.Duration
}

// TokenURL returns the OAuth2 token endpoint for the realm
func (c Config) TokenURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/realms/" + c.Realm + "/protocol/openid-connect/token"
}

// AdminURL returns the administrative API base for the realm
func (c Config) AdminURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/admin/realms/" + c.Realm
}

// Client talks to the provider's OAuth2 token endpoint
type Client struct {
	cfg        Config
	httpClient *http.Client
	adminToken oauth2.TokenSource
	logger     *observability.Logger
	metrics    *observability.Metrics
}

// NewClient creates a token endpoint client. The admin token source
// reuses tokens until expiry and re-fetches transparently.
func NewClient(cfg Config, logger *observability.Logger, metrics *observability.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL(),
	}
	// The token source keeps the admin token for its validity window
	// and re-checks expiry on every use.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		adminToken: cc.TokenSource(ctx),
		logger:     logger,
		metrics:    metrics,
	}
}

// PasswordGrant exchanges end-user credentials for a token pair. The
// identifier may be a username or an email; the provider accepts both
// as the username parameter. Any remote failure surfaces as
// ErrInvalidCredentials with no detail about which factor was wrong.
func (c *Client) PasswordGrant(ctx context.Context, usernameOrEmail, password string) (*Token, error) {
	start := time.Now()
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("username", usernameOrEmail)
	form.Set("password", password)

	token, err := c.requestToken(ctx, form)
	c.observe("password_grant", start, err)
	if err != nil {
		c.logger.WithError(err).Debug("password grant rejected")
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return token, nil
}

// RefreshGrant exchanges a refresh token for a new token pair
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*Token, error) {
	start := time.Now()
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)

	token, err := c.requestToken(ctx, form)
	c.observe("refresh_grant", start, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefresh, err)
	}
	return token, nil
}

// AdminToken returns a bearer token scoped to administrative
// operations, acquired via the client_credentials grant. The token is
// cached until it expires.
func (c *Client) AdminToken(ctx context.Context) (string, error) {
	start := time.Now()
	token, err := c.adminToken.Token()
	c.observe("client_credentials_grant", start, err)
	if err != nil {
		c.logger.WithError(err).Error("client credentials grant failed")
		return "", fmt.Errorf("%w: %v", ErrAdminAuth, err)
	}
	return token.AccessToken, nil
}

// tokenResponse is the provider's token endpoint wire format
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// requestToken posts a form to the token endpoint and decodes the
// response. Transport errors and non-200 statuses are returned as
// plain errors for the callers to classify.
func (c *Client) requestToken(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("token endpoint returned %d: %s %s", resp.StatusCode, errResp.Error, errResp.Description)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
		TokenType:    tr.TokenType,
	}, nil
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.ObserveIdPCall(operation, start, err)
	}
}

package authenticator

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/blogem/social-auth-dropbox/models"
)

const (
	DropboxAuthURL    = "https://www.dropbox.com/oauth2/authorize"
	DropboxTokenURL   = "https://api.dropboxapi.com/oauth2/token"
	DropboxAPIBaseURL = "https://api.dropboxapi.com"

	currentAccountPath    = "/2/users/get_current_account"
	defaultRequestTimeout = 30 * time.Second
	maxResponseBodyBytes  = 1 << 20 // 1 MiB
)

// DropboxEndpoint is the OAuth2 endpoint pair used by Dropbox
var DropboxEndpoint = oauth2.Endpoint{
	AuthURL:   DropboxAuthURL,
	TokenURL:  DropboxTokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

// DropboxProvider implements the Provider interface for Dropbox
type DropboxProvider struct {
	config     oauth2.Config
	apiBaseURL string
	httpClient *http.Client
	verifier   *IDTokenVerifier
	logger     *zap.Logger
}

// DropboxOption customises a DropboxProvider
type DropboxOption func(*DropboxProvider)

// WithEndpoint overrides the authorization and token URLs
func WithEndpoint(endpoint oauth2.Endpoint) DropboxOption {
	return func(p *DropboxProvider) {
		p.config.Endpoint = endpoint
	}
}

// WithAPIBaseURL overrides the API host used for profile and endpoint calls
func WithAPIBaseURL(baseURL string) DropboxOption {
	return func(p *DropboxProvider) {
		p.apiBaseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the client used for every outbound call
func WithHTTPClient(client *http.Client) DropboxOption {
	return func(p *DropboxProvider) {
		p.httpClient = client
	}
}

// WithIDTokenVerifier enables ID token verification
func WithIDTokenVerifier(verifier *IDTokenVerifier) DropboxOption {
	return func(p *DropboxProvider) {
		p.verifier = verifier
	}
}

// WithLogger sets the provider logger
func WithLogger(logger *zap.Logger) DropboxOption {
	return func(p *DropboxProvider) {
		p.logger = logger
	}
}

// NewDropboxProvider creates a Dropbox provider from the request settings
func NewDropboxProvider(settings models.Settings, opts ...DropboxOption) (*DropboxProvider, error) {
	// Validate required configuration
	if settings.AppKey == "" || settings.AppSecret == "" {
		return nil, ConfigError(errors.New("app key and app secret are required"))
	}
	if settings.RedirectURI == "" {
		return nil, ConfigError(errors.New("redirect URI is required"))
	}

	httpClient, err := newHTTPClient(settings.ProxyURL)
	if err != nil {
		return nil, ConfigError(err)
	}

	p := &DropboxProvider{
		config: oauth2.Config{
			ClientID:     settings.AppKey,
			ClientSecret: settings.AppSecret,
			RedirectURL:  settings.RedirectURI,
			Endpoint:     DropboxEndpoint,
		},
		apiBaseURL: DropboxAPIBaseURL,
		httpClient: httpClient,
		logger:     zap.NewNop(),
	}
	if settings.OpenID {
		p.config.Scopes = []string{"account_info.read", "openid", "email", "profile"}
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// newHTTPClient returns a client routed through proxyURL when one is configured
func newHTTPClient(proxyURL string) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{Timeout: defaultRequestTimeout}, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q", proxyURL)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(u)

	return &http.Client{Timeout: defaultRequestTimeout, Transport: transport}, nil
}

// AuthorizationRequest returns the Dropbox authorization URL and its state
func (p *DropboxProvider) AuthorizationRequest() (string, string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", "", err
	}
	return p.config.AuthCodeURL(state), state, nil
}

// ExchangeCode exchanges an authorization code for tokens
func (p *DropboxProvider) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	if code == "" {
		return nil, OAuthError(errors.New("authorization code is missing"))
	}

	oauth2Token, err := p.config.Exchange(p.clientContext(ctx), code)
	if err != nil {
		return nil, OAuthError(fmt.Errorf("token exchange: %w", err))
	}

	return newToken(oauth2Token), nil
}

// dropboxAccount is the subset of the get_current_account response in use
type dropboxAccount struct {
	AccountID       string          `json:"account_id"`
	ID              string          `json:"id"`
	Name            json.RawMessage `json:"name"`
	Email           string          `json:"email"`
	EmailVerified   bool            `json:"email_verified"`
	ProfilePhotoURL string          `json:"profile_photo_url"`
}

type dropboxName struct {
	DisplayName string `json:"display_name"`
}

// FetchProfile loads the account that owns the token
func (p *DropboxProvider) FetchProfile(ctx context.Context, token *Token) (*Profile, error) {
	body, err := p.CallEndpoint(ctx, token, currentAccountPath)
	if err != nil {
		return nil, err
	}

	var account dropboxAccount
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, OAuthError(fmt.Errorf("decode profile: %w", err))
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, OAuthError(fmt.Errorf("decode profile: %w", err))
	}

	profile := &Profile{
		ExternalID:  strings.TrimSpace(account.AccountID),
		DisplayName: parseDisplayName(account.Name),
		Email:         strings.TrimSpace(account.Email),
		EmailVerified: account.EmailVerified,
		AvatarURL:     strings.TrimSpace(account.ProfilePhotoURL),
		Raw:           raw,
	}
	if profile.ExternalID == "" {
		profile.ExternalID = strings.TrimSpace(account.ID)
	}
	if profile.ExternalID == "" {
		return nil, OAuthError(errors.New("profile has no account id"))
	}

	return profile, nil
}

// parseDisplayName accepts both a plain string and the Dropbox name object
func parseDisplayName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return strings.TrimSpace(name)
	}

	var structured dropboxName
	if err := json.Unmarshal(raw, &structured); err == nil {
		return strings.TrimSpace(structured.DisplayName)
	}

	return ""
}

// CallEndpoint issues an authenticated POST against the Dropbox API
func (p *DropboxProvider) CallEndpoint(ctx context.Context, token *Token, path string) ([]byte, error) {
	if token == nil || token.AccessToken == "" {
		return nil, OAuthError(errors.New("access token is missing"))
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	endpoint := p.apiBaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, OAuthError(fmt.Errorf("build request for %s: %w", path, err))
	}

	client := p.config.Client(p.clientContext(ctx), token.oauth2Token())
	resp, err := client.Do(req)
	if err != nil {
		return nil, OAuthError(fmt.Errorf("call %s: %w", path, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, OAuthError(fmt.Errorf("read %s response: %w", path, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Debug("Dropbox API call failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, OAuthError(fmt.Errorf("call %s: unexpected status %d", path, resp.StatusCode))
	}

	return body, nil
}

// VerifyIDToken verifies the ID token when a verifier is configured
func (p *DropboxProvider) VerifyIDToken(ctx context.Context, token *Token, subject string) error {
	if p.verifier == nil {
		return nil
	}
	if token == nil || token.IDToken == "" {
		return OAuthError(errors.New("no id_token in token"))
	}
	if err := p.verifier.Verify(p.clientContext(ctx), token.IDToken, subject); err != nil {
		return OAuthError(err)
	}
	return nil
}

// clientContext makes x/oauth2 use the provider HTTP client
func (p *DropboxProvider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// GenerateState generates a random state value for CSRF protection
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/url"

	"go.uber.org/zap"

	"github.com/blogem/social-auth-dropbox/authenticator"
	"github.com/blogem/social-auth-dropbox/models"
	"github.com/blogem/social-auth-dropbox/sessionstate"
)

// State is a step of the login flow
type State int

const (
	StateIdle State = iota
	StateAwaitingCallback
	StateValidating
	StateExchanging
	StateFetchingProfile
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCallback:
		return "awaiting_callback"
	case StateValidating:
		return "validating"
	case StateExchanging:
		return "exchanging"
	case StateFetchingProfile:
		return "fetching_profile"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// AbortError is returned when a login attempt ends in the aborted state
type AbortError struct {
	From State
	Err  error
}

func (e *AbortError) Error() string {
	return "login aborted while " + e.From.String() + ": " + e.Err.Error()
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// AbortedFrom returns the state a failed login was in when it aborted
func AbortedFrom(err error) (State, bool) {
	var abort *AbortError
	if errors.As(err, &abort) {
		return abort.From, true
	}
	return StateIdle, false
}

// CallbackParams are the query parameters the provider redirects back with
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// CallbackParamsFromQuery reads the callback parameters from a query string
func CallbackParamsFromQuery(query url.Values) CallbackParams {
	return CallbackParams{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}
}

// LoginService drives the OAuth2 authorization code login
type LoginService interface {
	// Begin stores a fresh CSRF state and returns the provider URL to redirect to
	Begin(ctx context.Context, sess sessionstate.Handler, baseURL string) (string, error)
	// Complete validates the callback and hands the identity to the user service
	Complete(ctx context.Context, sess sessionstate.Handler, baseURL string, params CallbackParams) (*SessionResult, error)
}

// loginService implements LoginService interface
type loginService struct {
	settings  SettingsService
	users     UserService
	providers authenticator.ProviderFactory
	logger    *zap.Logger
}

// NewLoginService creates a new login service
func NewLoginService(settings SettingsService, users UserService, providers authenticator.ProviderFactory, logger *zap.Logger) LoginService {
	return &loginService{
		settings:  settings,
		users:     users,
		providers: providers,
		logger:    logger.With(zap.String("component", "dropbox_login")),
	}
}

// Begin moves the flow from idle to awaiting the callback
func (s *loginService) Begin(ctx context.Context, sess sessionstate.Handler, baseURL string) (string, error) {
	_, provider, err := s.provider(ctx, baseURL)
	if err != nil {
		return "", err
	}

	authURL, state, err := provider.AuthorizationRequest()
	if err != nil {
		return "", authenticator.InternalError(err)
	}

	if err := sess.Put(sessionstate.KeyState, state); err != nil {
		return "", authenticator.InternalError(err)
	}

	s.logger.Debug("Redirecting to Dropbox", zap.Stringer("state", StateAwaitingCallback))
	return authURL, nil
}

// Complete runs validation, token exchange and profile fetch for a callback
func (s *loginService) Complete(ctx context.Context, sess sessionstate.Handler, baseURL string, params CallbackParams) (*SessionResult, error) {
	abort := func(from State, err error) (*SessionResult, error) {
		if clearErr := sess.Clear(sessionstate.KeyState, sessionstate.KeyAccessToken); clearErr != nil {
			s.logger.Error("Failed to clear session keys", zap.Error(clearErr))
		}
		s.logger.Warn("Dropbox login aborted", zap.Stringer("from", from), zap.Error(err))
		return nil, &AbortError{From: from, Err: err}
	}

	// The user denied consent or the provider refused the request
	if params.Error != "" {
		return abort(StateAwaitingCallback, authenticator.UserCancelled(params.Error))
	}

	// Absent state on either side is a mismatch
	stored, ok := sess.Get(sessionstate.KeyState)
	if !ok || params.State == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(params.State)) != 1 {
		return abort(StateValidating, authenticator.CsrfMismatch())
	}
	if err := sess.Clear(sessionstate.KeyState); err != nil {
		return abort(StateValidating, authenticator.InternalError(err))
	}

	settings, provider, err := s.provider(ctx, baseURL)
	if err != nil {
		return abort(StateExchanging, err)
	}

	token, err := provider.ExchangeCode(ctx, params.Code)
	if err != nil {
		return abort(StateExchanging, err)
	}
	if err := sess.Put(sessionstate.KeyAccessToken, token.AccessToken); err != nil {
		return abort(StateExchanging, authenticator.InternalError(err))
	}

	profile, err := provider.FetchProfile(ctx, token)
	if err != nil {
		return abort(StateFetchingProfile, err)
	}
	if profile == nil || profile.ExternalID == "" {
		return abort(StateFetchingProfile, authenticator.OAuthError(errors.New("profile has no account id")))
	}
	if err := provider.VerifyIDToken(ctx, token, profile.ExternalID); err != nil {
		return abort(StateFetchingProfile, err)
	}

	exists, err := s.users.UserExists(ctx, profile.ExternalID)
	if err != nil {
		return abort(StateFetchingProfile, authenticator.InternalError(err))
	}

	var auxData map[string]string
	if !exists {
		auxData = s.extraDetails(ctx, provider, token, settings.Endpoints)
	}

	result, err := s.users.AuthenticateUser(ctx, AuthenticateRequest{
		Name:          profile.DisplayName,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		ExternalID:    profile.ExternalID,
		Token:         token.AccessToken,
		AvatarURL:     profile.AvatarURL,
		AuxData:       auxData,
	})
	if err != nil {
		if !authenticator.IsCode(err, authenticator.ErrorUserBlocked) {
			err = authenticator.InternalError(err)
		}
		return abort(StateFetchingProfile, err)
	}

	s.logger.Info("Dropbox login completed",
		zap.Stringer("state", StateDone),
		zap.Int("user_id", result.UserID),
		zap.Bool("created", result.Created),
	)
	return result, nil
}

// extraDetails calls each configured endpoint in order, skipping failures
func (s *loginService) extraDetails(ctx context.Context, provider authenticator.Provider, token *authenticator.Token, endpoints []models.Endpoint) map[string]string {
	if len(endpoints) == 0 {
		return nil
	}

	data := make(map[string]string, len(endpoints))
	for _, endpoint := range endpoints {
		body, err := provider.CallEndpoint(ctx, token, endpoint.Path)
		if err != nil {
			s.logger.Warn("Extra endpoint call failed",
				zap.String("endpoint", endpoint.Path),
				zap.String("name", endpoint.Name),
				zap.Error(err),
			)
			continue
		}
		data[endpoint.Name] = string(body)
	}
	return data
}

func (s *loginService) provider(ctx context.Context, baseURL string) (models.Settings, authenticator.Provider, error) {
	settings, err := s.settings.Load(ctx, baseURL)
	if err != nil {
		return models.Settings{}, nil, authenticator.InternalError(err)
	}

	if !settings.IsConfigured() {
		s.logger.Error("Define App Key and App Secret on module settings.")
		return settings, nil, authenticator.ConfigError(errors.New("app key and app secret are required"))
	}

	provider, err := s.providers.New(ctx, settings)
	if err != nil {
		s.logger.Error("Failed to create Dropbox client", zap.Error(err))
		return settings, nil, err
	}
	return settings, provider, nil
}

package authenticator

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by login errors
const (
	ErrorConfig        = "DROPBOX_CONFIG_ERROR"
	ErrorUserCancelled = "DROPBOX_USER_CANCELLED"
	ErrorCsrfMismatch  = "DROPBOX_CSRF_MISMATCH"
	ErrorOAuth         = "DROPBOX_OAUTH_ERROR"
	ErrorUserBlocked   = "DROPBOX_USER_BLOCKED"
	ErrorInternal      = "DROPBOX_INTERNAL_ERROR"
)

// User facing messages. Causes are only ever logged.
const (
	MessageConfig        = "Social Auth Dropbox not configured properly. Contact site administrator."
	MessageUserCancelled = "You could not be authenticated."
	MessageCsrfMismatch  = "Dropbox login failed. Invalid OAuth2 State."
	MessageOAuth         = "Dropbox login failed, could not load Dropbox profile. Contact site administrator."
	MessageUserBlocked   = "Your account is blocked. Contact site administrator."
	MessageInternal      = "Dropbox login failed. Contact site administrator."
)

// ConfigError reports missing or invalid client configuration
func ConfigError(cause error) error {
	return wrap(cause, goerrors.CategoryBadInput, MessageConfig, http.StatusInternalServerError, ErrorConfig)
}

// UserCancelled reports an error parameter returned by the provider
func UserCancelled(reason string) error {
	err := goerrors.New(MessageUserCancelled, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ErrorUserCancelled)
	if reason != "" {
		err.WithMetadata(map[string]any{"provider_error": reason})
	}
	return err
}

// CsrfMismatch reports an absent or mismatched callback state
func CsrfMismatch() error {
	return goerrors.New(MessageCsrfMismatch, goerrors.CategoryAuth).
		WithCode(http.StatusForbidden).
		WithTextCode(ErrorCsrfMismatch)
}

// OAuthError reports a failed token exchange or provider API call
func OAuthError(cause error) error {
	return wrap(cause, goerrors.CategoryExternal, MessageOAuth, http.StatusBadGateway, ErrorOAuth)
}

// UserBlocked reports a local account that may not log in
func UserBlocked() error {
	return goerrors.New(MessageUserBlocked, goerrors.CategoryAuthz).
		WithCode(http.StatusForbidden).
		WithTextCode(ErrorUserBlocked)
}

// InternalError reports a local failure such as a storage error
func InternalError(cause error) error {
	return wrap(cause, goerrors.CategoryInternal, MessageInternal, http.StatusInternalServerError, ErrorInternal)
}

// IsCode reports whether err carries the given text code
func IsCode(err error, code string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}

// UserMessage returns the message safe to show to an end user
func UserMessage(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Message != "" {
		return rich.Message
	}
	return MessageOAuth
}

func wrap(cause error, category goerrors.Category, message string, code int, textCode string) error {
	var rich *goerrors.Error
	if cause == nil || goerrors.As(cause, &rich) {
		// Keep our own message instead of the prefixed clone Wrap builds
		err := goerrors.New(message, category).
			WithCode(code).
			WithTextCode(textCode)
		err.Source = cause
		return err
	}
	return goerrors.Wrap(cause, category, message).
		WithCode(code).
		WithTextCode(textCode)
}

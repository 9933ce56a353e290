package authenticator

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/blogem/social-auth-dropbox/models"
)

// Token represents an authentication token
type Token struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	IDToken      string
	AccountID    string
	Expiry       int64
}

func newToken(t *oauth2.Token) *Token {
	token := &Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}
	if !t.Expiry.IsZero() {
		token.Expiry = t.Expiry.Unix()
	}

	// Extract ID token if present
	if idToken, ok := t.Extra("id_token").(string); ok {
		token.IDToken = idToken
	}
	if accountID, ok := t.Extra("account_id").(string); ok {
		token.AccountID = accountID
	}

	return token
}

func (t *Token) oauth2Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}
	if t.Expiry > 0 {
		token.Expiry = time.Unix(t.Expiry, 0)
	}
	return token
}

// Profile is the resource owner as reported by the provider
type Profile struct {
	ExternalID  string
	DisplayName string
	Email       string
	// EmailVerified is set only when Dropbox has confirmed the address
	EmailVerified bool
	AvatarURL     string
	Raw           map[string]any
}

// Provider abstracts the OAuth2 operations needed by the login flow
type Provider interface {
	// AuthorizationRequest returns the provider URL together with the fresh state embedded in it
	AuthorizationRequest() (authURL string, state string, err error)
	ExchangeCode(ctx context.Context, code string) (*Token, error)
	FetchProfile(ctx context.Context, token *Token) (*Profile, error)
	// CallEndpoint issues an authenticated POST to an API path and returns the raw body
	CallEndpoint(ctx context.Context, token *Token, path string) ([]byte, error)
	// VerifyIDToken checks the ID token against the profile subject when OpenID is enabled
	VerifyIDToken(ctx context.Context, token *Token, subject string) error
}

// ProviderFactory builds a Provider for the settings of the current request
type ProviderFactory interface {
	New(ctx context.Context, settings models.Settings) (Provider, error)
}

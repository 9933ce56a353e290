package authenticator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/blogem/social-auth-dropbox/models"
)

// DropboxFactory builds Dropbox providers and caches ID token verifiers per app key
type DropboxFactory struct {
	issuer  string
	options []DropboxOption
	logger  *zap.Logger

	mu        sync.Mutex
	verifiers map[string]*IDTokenVerifier
}

// NewDropboxFactory creates a factory applying opts to every provider it builds
func NewDropboxFactory(logger *zap.Logger, opts ...DropboxOption) *DropboxFactory {
	return &DropboxFactory{
		issuer:    DropboxIssuer,
		options:   opts,
		logger:    logger,
		verifiers: make(map[string]*IDTokenVerifier),
	}
}

// SetVerifier registers a verifier for an app key, skipping discovery
func (f *DropboxFactory) SetVerifier(appKey string, verifier *IDTokenVerifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifiers[appKey] = verifier
}

// New implements ProviderFactory
func (f *DropboxFactory) New(ctx context.Context, settings models.Settings) (Provider, error) {
	opts := append([]DropboxOption{WithLogger(f.logger)}, f.options...)

	provider, err := NewDropboxProvider(settings, opts...)
	if err != nil {
		return nil, err
	}

	if settings.OpenID {
		verifier, err := f.verifier(ctx, settings.AppKey, provider)
		if err != nil {
			return nil, err
		}
		provider.verifier = verifier
	}

	return provider, nil
}

func (f *DropboxFactory) verifier(ctx context.Context, appKey string, provider *DropboxProvider) (*IDTokenVerifier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if verifier, ok := f.verifiers[appKey]; ok {
		return verifier, nil
	}

	// The remote key set keeps this context for later key refreshes
	verifier, err := NewIDTokenVerifier(context.WithoutCancel(ctx), f.issuer, appKey, provider.httpClient)
	if err != nil {
		f.logger.Error("OpenID discovery failed", zap.String("issuer", f.issuer), zap.Error(err))
		return nil, OAuthError(err)
	}
	f.verifiers[appKey] = verifier
	return verifier, nil
}

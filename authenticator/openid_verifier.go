package authenticator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// DropboxIssuer is the OpenID Connect issuer for Dropbox accounts
const DropboxIssuer = "https://www.dropbox.com"

// IDTokenVerifier checks OpenID Connect ID tokens issued by Dropbox
type IDTokenVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewIDTokenVerifier discovers the issuer keys and returns a verifier for clientID
func NewIDTokenVerifier(ctx context.Context, issuer, clientID string, client *http.Client) (*IDTokenVerifier, error) {
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", issuer, err)
	}

	return &IDTokenVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// NewKeySetVerifier returns a verifier using a fixed key set instead of discovery
func NewKeySetVerifier(issuer, clientID string, keySet oidc.KeySet) *IDTokenVerifier {
	return &IDTokenVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: clientID}),
	}
}

// Verify validates the raw ID token and that its subject matches the account
func (v *IDTokenVerifier) Verify(ctx context.Context, rawIDToken, subject string) error {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return fmt.Errorf("verify id_token: %w", err)
	}

	if subject != "" && idToken.Subject != subject {
		return fmt.Errorf("id_token subject %q does not match account %q", idToken.Subject, subject)
	}

	return nil
}

package authenticator

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	jws, err := signer.Sign(payload)
	require.NoError(t, err)

	raw, err := jws.CompactSerialize()
	require.NoError(t, err)
	return raw
}

func idTokenClaims(subject string) map[string]any {
	now := time.Now()
	return map[string]any{
		"iss": DropboxIssuer,
		"aud": "app-key",
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

func newKeySetVerifier(t *testing.T) (*rsa.PrivateKey, *IDTokenVerifier) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return key, NewKeySetVerifier(DropboxIssuer, "app-key", keySet)
}

func TestIDTokenVerifier(t *testing.T) {
	key, verifier := newKeySetVerifier(t)
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		raw := signIDToken(t, key, idTokenClaims("dbid:AAA"))
		assert.NoError(t, verifier.Verify(ctx, raw, "dbid:AAA"))
	})

	t.Run("subject mismatch", func(t *testing.T) {
		raw := signIDToken(t, key, idTokenClaims("dbid:OTHER"))
		assert.ErrorContains(t, verifier.Verify(ctx, raw, "dbid:AAA"), "does not match")
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := idTokenClaims("dbid:AAA")
		claims["aud"] = "someone-else"
		assert.Error(t, verifier.Verify(ctx, signIDToken(t, key, claims), "dbid:AAA"))
	})

	t.Run("expired", func(t *testing.T) {
		claims := idTokenClaims("dbid:AAA")
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		assert.Error(t, verifier.Verify(ctx, signIDToken(t, key, claims), "dbid:AAA"))
	})

	t.Run("unknown key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		assert.Error(t, verifier.Verify(ctx, signIDToken(t, other, idTokenClaims("dbid:AAA")), "dbid:AAA"))
	})
}

func TestDropboxProvider_VerifyIDToken(t *testing.T) {
	key, verifier := newKeySetVerifier(t)
	ctx := context.Background()

	provider, err := NewDropboxProvider(testSettings(), WithIDTokenVerifier(verifier))
	require.NoError(t, err)

	token := &Token{AccessToken: "sl.token", IDToken: signIDToken(t, key, idTokenClaims("dbid:AAA"))}
	assert.NoError(t, provider.VerifyIDToken(ctx, token, "dbid:AAA"))

	err = provider.VerifyIDToken(ctx, token, "dbid:BBB")
	assert.True(t, IsCode(err, ErrorOAuth))

	err = provider.VerifyIDToken(ctx, &Token{AccessToken: "sl.token"}, "dbid:AAA")
	assert.True(t, IsCode(err, ErrorOAuth))
}

func TestDropboxFactory(t *testing.T) {
	var discoveries atomic.Int32
	var issuer string
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		discoveries.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                issuer,
			"authorization_endpoint":                issuer + "/oauth2/authorize",
			"token_endpoint":                        issuer + "/oauth2/token",
			"jwks_uri":                              issuer + "/oauth2/jwks",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	}))
	issuer = "http://" + server.Listener.Addr().String()
	server.Start()
	defer server.Close()

	factory := NewDropboxFactory(zaptest.NewLogger(t))
	factory.issuer = issuer
	ctx := context.Background()

	t.Run("plain OAuth2 has no verifier", func(t *testing.T) {
		provider, err := factory.New(ctx, testSettings())
		require.NoError(t, err)

		assert.Nil(t, provider.(*DropboxProvider).verifier)
		assert.Equal(t, int32(0), discoveries.Load())
	})

	t.Run("OpenID discovers once per app key", func(t *testing.T) {
		settings := testSettings()
		settings.OpenID = true

		first, err := factory.New(ctx, settings)
		require.NoError(t, err)
		second, err := factory.New(ctx, settings)
		require.NoError(t, err)

		assert.NotNil(t, first.(*DropboxProvider).verifier)
		assert.Same(t, first.(*DropboxProvider).verifier, second.(*DropboxProvider).verifier)
		assert.Equal(t, int32(1), discoveries.Load())
	})

	t.Run("registered verifier skips discovery", func(t *testing.T) {
		_, verifier := newKeySetVerifier(t)
		factory.SetVerifier("preset-key", verifier)

		settings := testSettings()
		settings.AppKey = "preset-key"
		settings.OpenID = true

		provider, err := factory.New(ctx, settings)
		require.NoError(t, err)

		assert.Same(t, verifier, provider.(*DropboxProvider).verifier)
		assert.Equal(t, int32(1), discoveries.Load())
	})

	t.Run("configuration errors pass through", func(t *testing.T) {
		settings := testSettings()
		settings.AppSecret = ""

		_, err := factory.New(ctx, settings)
		assert.True(t, IsCode(err, ErrorConfig))
	})
}

func TestDropboxFactory_DiscoveryFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	factory := NewDropboxFactory(zaptest.NewLogger(t))
	factory.issuer = server.URL

	settings := testSettings()
	settings.OpenID = true

	provider, err := factory.New(context.Background(), settings)

	assert.Nil(t, provider)
	assert.True(t, IsCode(err, ErrorOAuth))
}

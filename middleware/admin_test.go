package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseAdminEmails(t *testing.T) {
	assert.Equal(t, []string{"ann@example.com", "ops@example.com"}, ParseAdminEmails(" Ann@Example.com, ,ops@example.com,"))
	assert.Empty(t, ParseAdminEmails(""))
}

// newSessionRouter returns a router behind the memory session middleware
func newSessionRouter(t *testing.T) *chi.Mux {
	sessionHandler, err := session.Sessioner(session.Options{
		Provider:    "memory",
		CookieName:  "admin_test_session",
		Gclifetime:  3600,
		Maxlifetime: 3600,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(sessionHandler)
	return r
}

// serve starts r and returns a client that keeps cookies and does not follow redirects
func serve(t *testing.T, r http.Handler) (*httptest.Server, *http.Client) {
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	client := server.Client()
	client.Jar = newJar(t)
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return server, client
}

func TestRequireAdmin(t *testing.T) {
	r := newSessionRouter(t)
	r.Get("/signin", func(w http.ResponseWriter, r *http.Request) {
		sess := session.GetSession(r)
		sess.Set("user_id", 7)
		sess.Set("user_name", r.URL.Query().Get("name"))
		sess.Set("user_email", r.URL.Query().Get("email"))
	})
	r.With(RequireAdmin([]string{"ann@example.com"}, zaptest.NewLogger(t))).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("admin"))
	})

	server, client := serve(t, r)

	tests := []struct {
		name   string
		query  url.Values
		status int
	}{
		{"no session user", nil, http.StatusForbidden},
		{"other email", url.Values{"name": {"Mallory"}, "email": {"mallory@example.com"}}, http.StatusForbidden},
		{"admin address as display name only", url.Values{"name": {"ann@example.com"}}, http.StatusForbidden},
		{"admin email in another case", url.Values{"name": {"Ann"}, "email": {"ANN@example.com"}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.query != nil {
				getBody(t, client, server.URL+"/signin?"+tt.query.Encode())
			}

			resp, err := client.Get(server.URL + "/admin")
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRequireAdmin_EmptyAllowList(t *testing.T) {
	r := newSessionRouter(t)
	r.Get("/signin", func(w http.ResponseWriter, r *http.Request) {
		session.GetSession(r).Set("user_email", "")
	})
	r.With(RequireAdmin(nil, zaptest.NewLogger(t))).Get("/admin", func(w http.ResponseWriter, r *http.Request) {})

	server, client := serve(t, r)
	getBody(t, client, server.URL+"/signin")

	resp, err := client.Get(server.URL + "/admin")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequireFormToken(t *testing.T) {
	r := newSessionRouter(t)
	r.Get("/form", func(w http.ResponseWriter, r *http.Request) {
		first, err := FormToken(r)
		assert.NoError(t, err)
		second, err := FormToken(r)
		assert.NoError(t, err)
		assert.Equal(t, first, second, "the token is stable within a session")
		w.Write([]byte(first))
	})
	r.Get("/reset", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, ClearFormToken(r))
	})
	r.With(RequireFormToken).Post("/form", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("saved"))
	})

	server, client := serve(t, r)

	post := func(token string) int {
		form := url.Values{FormTokenField: {token}, "app_key": {"k"}}
		resp, err := client.Post(server.URL+"/form", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	// No token issued yet
	assert.Equal(t, http.StatusForbidden, post(""))

	token := getBody(t, client, server.URL+"/form")
	require.NotEmpty(t, token)

	assert.Equal(t, http.StatusForbidden, post("forged"))
	assert.Equal(t, http.StatusForbidden, post(""))
	assert.Equal(t, http.StatusOK, post(token))

	getBody(t, client, server.URL+"/reset")
	assert.Equal(t, http.StatusForbidden, post(token))
	assert.NotEqual(t, token, getBody(t, client, server.URL+"/form"))
}

func TestRequireFormToken_SkipsReads(t *testing.T) {
	handler := RequireFormToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/form", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

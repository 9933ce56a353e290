package middleware

import (
	"crypto/subtle"
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/blogem/social-auth-dropbox/authenticator"
)

// FormTokenField is the hidden form input carrying the session form token
const FormTokenField = "form_token"

const sessionFormToken = "form_token"

// FormToken returns the form token of the current session, creating it on first use
func FormToken(r *http.Request) (string, error) {
	sess := session.GetSession(r)
	if token, _ := sess.Get(sessionFormToken).(string); token != "" {
		return token, nil
	}

	token, err := authenticator.GenerateState()
	if err != nil {
		return "", err
	}
	if err := sess.Set(sessionFormToken, token); err != nil {
		return "", err
	}
	return token, nil
}

// RequireFormToken rejects POST/PUT/DELETE requests whose form token does not match the session
func RequireFormToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete {
			stored, _ := session.GetSession(r).Get(sessionFormToken).(string)
			sent := r.PostFormValue(FormTokenField)

			if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(sent)) != 1 {
				http.Error(w, "Invalid form token. Reload the page and try again.", http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// ClearFormToken drops the session form token so the next form gets a fresh one
func ClearFormToken(r *http.Request) error {
	return session.GetSession(r).Delete(sessionFormToken)
}

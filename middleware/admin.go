package middleware

import (
	"net/http"
	"strings"

	"gitea.com/go-chi/session"
	"go.uber.org/zap"
)

// ParseAdminEmails splits a comma separated allow-list, dropping blanks
func ParseAdminEmails(value string) []string {
	var emails []string
	for _, email := range strings.Split(value, ",") {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

// RequireAdmin lets through only signed in users whose email is on the allow-list.
// It must run after RequireAuth.
func RequireAdmin(adminEmails []string, logger *zap.Logger) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(adminEmails))
	for _, email := range adminEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			allowed[email] = true
		}
	}
	logger = logger.With(zap.String("component", "admin"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.GetSession(r)
			// Only the email stored on the local account counts, never the display name
			email, _ := sess.Get("user_email").(string)

			if !allowed[strings.ToLower(strings.TrimSpace(email))] {
				userID, _ := sess.Get("user_id").(int)
				logger.Warn("Admin page refused",
					zap.Int("user_id", userID),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

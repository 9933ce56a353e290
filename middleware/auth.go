package middleware

import (
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/blogem/social-auth-dropbox/userctx"
)

// RequireAuth ensures the user is authenticated
// If not authenticated, redirects to the login page and stores the intended destination
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.GetSession(r)
		userID, ok := sess.Get("user_id").(int)

		if !ok {
			// Store the intended destination for redirect after login
			sess.Set("redirect_after_login", r.URL.Path)
			http.Redirect(w, r, "/user/login", http.StatusSeeOther)
			return
		}

		// Add user to request context for use in handlers and the audit log
		ctx := userctx.SetUserID(r.Context(), userID)
		if email, _ := sess.Get("user_email").(string); email != "" {
			ctx = userctx.SetUserEmail(ctx, email)
		} else if name, _ := sess.Get("user_name").(string); name != "" {
			ctx = userctx.SetUserEmail(ctx, name)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package controllers

import (
	"net/http"
	"strings"

	"gitea.com/go-chi/session"
	"go.uber.org/zap"

	"github.com/blogem/social-auth-dropbox/authenticator"
	"github.com/blogem/social-auth-dropbox/middleware"
	"github.com/blogem/social-auth-dropbox/services"
	"github.com/blogem/social-auth-dropbox/sessionstate"
)

// LoginPath is where failed logins are sent back to
const LoginPath = "/user/login"

// AuthController handles the Dropbox login routes
type AuthController struct {
	services *services.Services
	logger   *zap.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(services *services.Services, logger *zap.Logger) *AuthController {
	return &AuthController{
		services: services,
		logger:   logger.With(zap.String("component", "auth")),
	}
}

// LoginPage handles GET /user/login
func (ac *AuthController) LoginPage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, "login.html", pageData(r, "Log in", "login", nil))
}

// Login handles GET /user/login/dropbox and redirects the user to Dropbox
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	authURL, err := ac.services.Login.Begin(r.Context(), sessionstate.FromRequest(r), baseURL(r))
	if err != nil {
		requestLogger(ac.logger, r).Error("Failed to start Dropbox login", zap.Error(err))
		ac.fail(w, r, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// Callback handles GET /user/login/dropbox/callback
func (ac *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	params := services.CallbackParamsFromQuery(r.URL.Query())

	result, err := ac.services.Login.Complete(r.Context(), sessionstate.FromRequest(r), baseURL(r), params)
	if err != nil {
		from, _ := services.AbortedFrom(err)
		requestLogger(ac.logger, r).Info("Dropbox callback rejected",
			zap.Stringer("from", from),
			zap.Error(err),
		)
		ac.fail(w, r, err)
		return
	}

	// A signed in user always gets a new session ID
	sess, err := session.RegenerateSession(w, r)
	if err != nil {
		requestLogger(ac.logger, r).Error("Failed to regenerate session", zap.Error(err))
		ac.fail(w, r, authenticator.InternalError(err))
		return
	}

	if err := middleware.ClearFormToken(r); err != nil {
		requestLogger(ac.logger, r).Error("Failed to clear form token", zap.Error(err))
	}

	// Store the user session
	sess.Set(sessionUserID, result.UserID)
	sess.Set(sessionUserName, result.Name)
	sess.Set(sessionUserEmail, result.Email)

	if result.Created {
		setFlash(r, "success", "Welcome, "+result.Name+". Your account has been created.")
	}

	http.Redirect(w, r, popRedirectAfterLogin(sess), http.StatusSeeOther)
}

// Logout handles GET /user/logout
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)
	sess.Delete(sessionUserID)
	sess.Delete(sessionUserName)
	sess.Delete(sessionUserEmail)
	if err := middleware.ClearFormToken(r); err != nil {
		requestLogger(ac.logger, r).Error("Failed to clear form token", zap.Error(err))
	}
	if err := sessionstate.FromRequest(r).Clear(sessionstate.KeyState, sessionstate.KeyAccessToken); err != nil {
		requestLogger(ac.logger, r).Error("Failed to clear session keys", zap.Error(err))
	}

	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// fail shows the user facing message on the login page
func (ac *AuthController) fail(w http.ResponseWriter, r *http.Request, err error) {
	setFlash(r, "error", authenticator.UserMessage(err))
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// popRedirectAfterLogin returns the stored local destination, or the dashboard
func popRedirectAfterLogin(sess session.Store) string {
	target, _ := sess.Get(sessionRedirectAfter).(string)
	sess.Delete(sessionRedirectAfter)

	// Only same-site paths
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}

package controllers

import (
	"html/template"
	"net/http"
	"strings"

	"gitea.com/go-chi/session"
	"go.uber.org/zap"

	"github.com/blogem/social-auth-dropbox/models"
	"github.com/blogem/social-auth-dropbox/services"
	"github.com/blogem/social-auth-dropbox/templates"
)

// Session keys owned by the controllers
const (
	sessionUserID        = "user_id"
	sessionUserName      = "user_name"
	sessionUserEmail     = "user_email"
	sessionFlashType     = "flash_type"
	sessionFlashMessage  = "flash_message"
	sessionRedirectAfter = "redirect_after_login"
)

// renderTemplate creates a template set and renders it with the provided data
func renderTemplate(w http.ResponseWriter, pageTemplate string, data interface{}) error {
	return renderTemplateWithStatus(w, http.StatusOK, pageTemplate, data)
}

// renderTemplateWithStatus creates a template set and renders it with the provided data and status code
func renderTemplateWithStatus(w http.ResponseWriter, statusCode int, pageTemplate string, data interface{}) error {
	// Create a new template set with only the templates we need
	tmpl := template.New(pageTemplate)
	tmpl.Funcs(template.FuncMap{
		"datetime": models.FormatDateTime,
	})

	// Parse layout and page template
	_, err := tmpl.ParseFS(templates.FS, "layout.html", pageTemplate)
	if err != nil {
		http.Error(w, "Failed to parse template: "+err.Error(), http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// Set status code if not OK
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}

	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		http.Error(w, "Failed to render template: "+err.Error(), http.StatusInternalServerError)
		return err
	}

	return nil
}

// pageData builds the common template data for the current session
func pageData(r *http.Request, title, currentPage string, data interface{}) models.PageData {
	sess := session.GetSession(r)
	name, _ := sess.Get(sessionUserName).(string)

	return models.PageData{
		Title:        title,
		CurrentPage:  currentPage,
		UserName:     name,
		FlashMessage: popFlash(r),
		Data:         data,
	}
}

// setFlash stores a message shown on the next rendered page
func setFlash(r *http.Request, flashType, message string) {
	sess := session.GetSession(r)
	sess.Set(sessionFlashType, flashType)
	sess.Set(sessionFlashMessage, message)
}

func popFlash(r *http.Request) *models.FlashMessage {
	sess := session.GetSession(r)
	message, _ := sess.Get(sessionFlashMessage).(string)
	if message == "" {
		return nil
	}
	flashType, _ := sess.Get(sessionFlashType).(string)
	sess.Delete(sessionFlashType)
	sess.Delete(sessionFlashMessage)
	return &models.FlashMessage{Type: flashType, Message: message}
}

// baseURL returns the scheme and host the request was served under
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host
}

// requestLogger attaches the request fields used in every controller log line
func requestLogger(logger *zap.Logger, r *http.Request) *zap.Logger {
	return logger.With(
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("method", r.Method),
		zap.String("url", r.URL.String()),
	)
}

// Controllers holds all controller instances
type Controllers struct {
	Auth      *AuthController
	Dashboard *DashboardController
	Settings  *SettingsController
}

// NewControllers creates and initializes all controller instances
func NewControllers(services *services.Services, logger *zap.Logger) *Controllers {
	return &Controllers{
		Auth:      NewAuthController(services, logger),
		Dashboard: NewDashboardController(services),
		Settings:  NewSettingsController(services, logger),
	}
}

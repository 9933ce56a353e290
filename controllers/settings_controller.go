package controllers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/blogem/social-auth-dropbox/middleware"
	"github.com/blogem/social-auth-dropbox/models"
	"github.com/blogem/social-auth-dropbox/services"
	"github.com/blogem/social-auth-dropbox/userctx"
)

// SettingsPath is the administrator form for the Dropbox client
const SettingsPath = "/admin/config/social-api/dropbox"

const recentChanges = 10

// SettingsController handles the Dropbox settings form
type SettingsController struct {
	services *services.Services
	logger   *zap.Logger
}

// NewSettingsController creates a new settings controller
func NewSettingsController(services *services.Services, logger *zap.Logger) *SettingsController {
	return &SettingsController{
		services: services,
		logger:   logger.With(zap.String("component", "settings")),
	}
}

// settingsView never carries the app secret, only whether one is stored
type settingsView struct {
	Form         models.SettingsForm
	SecretStored bool
	FormToken    string
	RedirectURI  string
	Error        string
	Changes      []models.AuditLogEntry
}

// Index handles GET /admin/config/social-api/dropbox
func (c *SettingsController) Index(w http.ResponseWriter, r *http.Request) {
	form, err := c.services.Settings.GetForm(r.Context())
	if err != nil {
		http.Error(w, "Failed to load settings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	c.render(w, r, http.StatusOK, form, form.AppSecret != "", "")
}

// Update handles POST /admin/config/social-api/dropbox
func (c *SettingsController) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form := &models.SettingsForm{
		AppKey:    r.FormValue("app_key"),
		AppSecret: r.FormValue("app_secret"),
		Endpoints: r.FormValue("endpoints"),
		OpenID:    r.FormValue("openid") == "on",
	}

	if err := c.services.Settings.Save(r.Context(), form); err != nil {
		var secretStored bool
		if stored, loadErr := c.services.Settings.GetForm(r.Context()); loadErr == nil {
			secretStored = stored.AppSecret != ""
		}

		// Reload page with form data and error
		c.render(w, r, http.StatusBadRequest, form, secretStored, err.Error())
		return
	}

	requestLogger(c.logger, r).Info("Dropbox settings saved",
		zap.Int("user_id", userctx.GetUserID(r.Context())),
	)
	setFlash(r, "success", "The configuration options have been saved.")
	http.Redirect(w, r, SettingsPath, http.StatusSeeOther)
}

func (c *SettingsController) render(w http.ResponseWriter, r *http.Request, status int, form *models.SettingsForm, secretStored bool, formError string) {
	token, err := middleware.FormToken(r)
	if err != nil {
		requestLogger(c.logger, r).Error("Failed to create form token", zap.Error(err))
		http.Error(w, "Failed to render settings", http.StatusInternalServerError)
		return
	}

	changes, err := c.services.Audit.Recent(r.Context(), recentChanges)
	if err != nil {
		requestLogger(c.logger, r).Warn("Failed to load audit log", zap.Error(err))
	}

	view := settingsView{
		Form:         *form,
		SecretStored: secretStored,
		FormToken:    token,
		RedirectURI:  c.services.Settings.RedirectURI(baseURL(r)),
		Error:        formError,
		Changes:      changes,
	}
	view.Form.AppSecret = ""

	renderTemplateWithStatus(w, status, "settings.html", pageData(r, "Dropbox settings", "settings", view))
}

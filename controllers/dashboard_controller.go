package controllers

import (
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/blogem/social-auth-dropbox/models"
	"github.com/blogem/social-auth-dropbox/services"
)

// DashboardController handles dashboard-related requests
type DashboardController struct {
	services *services.Services
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(services *services.Services) *DashboardController {
	return &DashboardController{
		services: services,
	}
}

// Index handles GET /
// Shows the signed in user, or the landing page with the login link
func (c *DashboardController) Index(w http.ResponseWriter, r *http.Request) {
	var user *models.User

	if userID, ok := session.GetSession(r).Get(sessionUserID).(int); ok {
		loaded, err := c.services.Users.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "Failed to load user: "+err.Error(), http.StatusInternalServerError)
			return
		}
		user = loaded
	}

	renderTemplate(w, "dashboard.html", pageData(r, "Dashboard", "dashboard", user))
}

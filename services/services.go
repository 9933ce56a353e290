package services

import (
	"go.uber.org/zap"

	"github.com/blogem/social-auth-dropbox/authenticator"
	"github.com/blogem/social-auth-dropbox/models"
	"github.com/blogem/social-auth-dropbox/repositories"
)

// Services holds all service instances
type Services struct {
	Settings SettingsService
	Users    UserService
	Login    LoginService
	Audit    repositories.AuditRepository
}

// NewServices creates and initializes all service instances
func NewServices(repos *repositories.Repositories, site SiteSettings, providers authenticator.ProviderFactory, logger *zap.Logger) *Services {
	settings := NewSettingsService(repos.Settings, site)
	users := NewUserService(repos.Users, models.DropboxPluginID, logger)

	return &Services{
		Settings: settings,
		Users:    users,
		Login:    NewLoginService(settings, users, providers, logger),
		Audit:    repos.Audit,
	}
}

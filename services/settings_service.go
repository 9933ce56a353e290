package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blogem/social-auth-dropbox/models"
	"github.com/blogem/social-auth-dropbox/repositories"
)

// SettingsConfigName groups the Dropbox rows in the settings table
const SettingsConfigName = "social_auth_dropbox.settings"

// SettingsService interface defines access to the Dropbox client configuration
type SettingsService interface {
	// Load returns the settings for a request served under baseURL
	Load(ctx context.Context, baseURL string) (models.Settings, error)
	GetForm(ctx context.Context) (*models.SettingsForm, error)
	// Save stores the form. An empty app secret keeps the stored one.
	Save(ctx context.Context, form *models.SettingsForm) error
	// Seed stores values only for keys that have never been saved
	Seed(ctx context.Context, form *models.SettingsForm) error
	RedirectURI(baseURL string) string
}

// SiteSettings holds deployment level values that are not editable in the form
type SiteSettings struct {
	BaseURL  string
	ProxyURL string
}

// settingsService implements SettingsService interface
type settingsService struct {
	repo repositories.SettingsRepository
	site SiteSettings
}

// NewSettingsService creates a new settings service
func NewSettingsService(repo repositories.SettingsRepository, site SiteSettings) SettingsService {
	site.BaseURL = strings.TrimRight(site.BaseURL, "/")
	return &settingsService{repo: repo, site: site}
}

// Load reads the stored values and derives the redirect URI
func (s *settingsService) Load(ctx context.Context, baseURL string) (models.Settings, error) {
	values, err := s.repo.GetAll(ctx, SettingsConfigName)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	openID, _ := strconv.ParseBool(values[models.SettingOpenID])

	return models.Settings{
		AppKey:      strings.TrimSpace(values[models.SettingAppKey]),
		AppSecret:   strings.TrimSpace(values[models.SettingAppSecret]),
		RedirectURI: s.RedirectURI(baseURL),
		ProxyURL:    s.site.ProxyURL,
		OpenID:      openID,
		Endpoints:   models.ParseEndpoints(values[models.SettingEndpoints]),
	}, nil
}

// GetForm returns the stored values as form data
func (s *settingsService) GetForm(ctx context.Context) (*models.SettingsForm, error) {
	values, err := s.repo.GetAll(ctx, SettingsConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	openID, _ := strconv.ParseBool(values[models.SettingOpenID])

	return &models.SettingsForm{
		AppKey:    values[models.SettingAppKey],
		AppSecret: values[models.SettingAppSecret],
		Endpoints: values[models.SettingEndpoints],
		OpenID:    openID,
	}, nil
}

// Save validates and stores the form
func (s *settingsService) Save(ctx context.Context, form *models.SettingsForm) error {
	values := *form
	if strings.TrimSpace(values.AppSecret) == "" {
		stored, err := s.repo.GetAll(ctx, SettingsConfigName)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		values.AppSecret = stored[models.SettingAppSecret]
	}

	if errors := values.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(errors, ", "))
	}

	if err := s.repo.Set(ctx, SettingsConfigName, formValues(&values)); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Seed writes defaults, usually taken from the environment
func (s *settingsService) Seed(ctx context.Context, form *models.SettingsForm) error {
	values := formValues(form)
	for key, value := range values {
		if value == "" {
			delete(values, key)
		}
	}
	if len(values) == 0 {
		return nil
	}

	if err := s.repo.SetDefaults(ctx, SettingsConfigName, values); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}
	return nil
}

// RedirectURI builds the callback URL, preferring the configured site base URL
func (s *settingsService) RedirectURI(baseURL string) string {
	if s.site.BaseURL != "" {
		baseURL = s.site.BaseURL
	}
	return strings.TrimRight(baseURL, "/") + models.CallbackPath
}

func formValues(form *models.SettingsForm) map[string]string {
	return map[string]string{
		models.SettingAppKey:    strings.TrimSpace(form.AppKey),
		models.SettingAppSecret: strings.TrimSpace(form.AppSecret),
		models.SettingEndpoints: strings.TrimSpace(strings.ReplaceAll(form.Endpoints, "\r\n", "\n")),
		models.SettingOpenID:    strconv.FormatBool(form.OpenID),
	}
}

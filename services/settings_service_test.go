package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blogem/social-auth-dropbox/database"
	"github.com/blogem/social-auth-dropbox/models"
	"github.com/blogem/social-auth-dropbox/repositories"
	"github.com/blogem/social-auth-dropbox/repositories/mocks"
)

func newSettingsRepository(t *testing.T) repositories.SettingsRepository {
	dbPath := filepath.Join(t.TempDir(), "settings.db")
	require.NoError(t, database.InitializeDatabase(dbPath, zap.NewNop()))
	t.Cleanup(func() { database.CloseDB() })

	return repositories.NewSettingsRepository(database.GetDB())
}

func TestSettingsService_SaveAndLoad(t *testing.T) {
	service := NewSettingsService(newSettingsRepository(t), SiteSettings{ProxyURL: "http://proxy.internal:3128"})
	ctx := context.Background()

	err := service.Save(ctx, &models.SettingsForm{
		AppKey:    " app-key ",
		AppSecret: "app-secret",
		Endpoints: "/2/users/get_space_usage|space\r\nbroken line\r\n2/team/get_info|team\r\n",
		OpenID:    true,
	})
	require.Error(t, err, "malformed endpoint lines are rejected")

	err = service.Save(ctx, &models.SettingsForm{
		AppKey:    " app-key ",
		AppSecret: "app-secret",
		Endpoints: "/2/users/get_space_usage|space\r\n2/team/get_info|team\r\n",
		OpenID:    true,
	})
	require.NoError(t, err)

	settings, err := service.Load(ctx, "https://dropbox-login.example.com/")
	require.NoError(t, err)

	assert.Equal(t, models.Settings{
		AppKey:      "app-key",
		AppSecret:   "app-secret",
		RedirectURI: "https://dropbox-login.example.com/user/login/dropbox/callback",
		ProxyURL:    "http://proxy.internal:3128",
		OpenID:      true,
		Endpoints: []models.Endpoint{
			{Path: "/2/users/get_space_usage", Name: "space"},
			{Path: "/2/team/get_info", Name: "team"},
		},
	}, settings)

	form, err := service.GetForm(ctx)
	require.NoError(t, err)
	assert.Equal(t, "app-key", form.AppKey)
	assert.Equal(t, "/2/users/get_space_usage|space\n2/team/get_info|team", form.Endpoints)
	assert.True(t, form.OpenID)
}

func TestSettingsService_SeedKeepsSavedValues(t *testing.T) {
	service := NewSettingsService(newSettingsRepository(t), SiteSettings{})
	ctx := context.Background()

	require.NoError(t, service.Seed(ctx, &models.SettingsForm{AppKey: "env-key", AppSecret: "env-secret"}))

	settings, err := service.Load(ctx, "http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "env-key", settings.AppKey)
	assert.True(t, settings.IsConfigured())

	require.NoError(t, service.Save(ctx, &models.SettingsForm{AppKey: "form-key", AppSecret: "form-secret"}))
	require.NoError(t, service.Seed(ctx, &models.SettingsForm{AppKey: "env-key", AppSecret: "env-secret"}))

	settings, err = service.Load(ctx, "http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "form-key", settings.AppKey)
	assert.Equal(t, "form-secret", settings.AppSecret)
}

func TestSettingsService_Unconfigured(t *testing.T) {
	service := NewSettingsService(newSettingsRepository(t), SiteSettings{})

	settings, err := service.Load(context.Background(), "http://localhost:8080")
	require.NoError(t, err)

	assert.False(t, settings.IsConfigured())
	assert.Empty(t, settings.Endpoints)
	assert.Equal(t, "http://localhost:8080/user/login/dropbox/callback", settings.RedirectURI)
}

func TestSettingsService_RedirectURI(t *testing.T) {
	repo := mocks.NewMockSettingsRepository(t)

	fromRequest := NewSettingsService(repo, SiteSettings{})
	assert.Equal(t, "http://localhost:8080/user/login/dropbox/callback", fromRequest.RedirectURI("http://localhost:8080/"))

	configured := NewSettingsService(repo, SiteSettings{BaseURL: "https://login.example.com/"})
	assert.Equal(t, "https://login.example.com/user/login/dropbox/callback", configured.RedirectURI("http://10.0.0.5:8080"))
}

func TestSettingsService_RepositoryErrors(t *testing.T) {
	repo := mocks.NewMockSettingsRepository(t)
	repo.On("GetAll", mock.Anything, SettingsConfigName).Return(nil, errors.New("database is locked"))
	repo.On("Set", mock.Anything, SettingsConfigName, mock.Anything).Return(errors.New("database is locked")).Once()

	service := NewSettingsService(repo, SiteSettings{})
	ctx := context.Background()

	_, err := service.Load(ctx, "http://localhost")
	assert.ErrorContains(t, err, "failed to load settings")

	_, err = service.GetForm(ctx)
	assert.ErrorContains(t, err, "failed to load settings")

	err = service.Save(ctx, &models.SettingsForm{AppKey: "k", AppSecret: "s"})
	assert.ErrorContains(t, err, "failed to save settings")
}

func TestSettingsService_SeedSkipsEmptyValues(t *testing.T) {
	repo := mocks.NewMockSettingsRepository(t)
	repo.On("SetDefaults", mock.Anything, SettingsConfigName, map[string]string{
		models.SettingAppKey: "env-key",
		models.SettingOpenID: "false",
	}).Return(nil).Once()

	service := NewSettingsService(repo, SiteSettings{})

	require.NoError(t, service.Seed(context.Background(), &models.SettingsForm{AppKey: "env-key"}))
}

func TestSettingsService_SaveKeepsStoredSecret(t *testing.T) {
	service := NewSettingsService(newSettingsRepository(t), SiteSettings{})
	ctx := context.Background()

	err := service.Save(ctx, &models.SettingsForm{AppKey: "app-key"})
	assert.ErrorContains(t, err, "App Secret is required", "nothing stored to keep yet")

	require.NoError(t, service.Save(ctx, &models.SettingsForm{AppKey: "app-key", AppSecret: "app-secret"}))

	form := &models.SettingsForm{AppKey: "rotated-key", AppSecret: "  "}
	require.NoError(t, service.Save(ctx, form))
	assert.Equal(t, "  ", form.AppSecret, "the caller's form is left as posted")

	settings, err := service.Load(ctx, "http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "rotated-key", settings.AppKey)
	assert.Equal(t, "app-secret", settings.AppSecret)
}

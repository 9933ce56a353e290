package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/blogem/social-auth-dropbox/models"
)

// mockSettingsService is a mock implementation of SettingsService
type mockSettingsService struct {
	mock.Mock
}

func newMockSettingsService(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockSettingsService {
	m := &mockSettingsService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockSettingsService) Load(ctx context.Context, baseURL string) (models.Settings, error) {
	args := m.Called(ctx, baseURL)
	return args.Get(0).(models.Settings), args.Error(1)
}

func (m *mockSettingsService) GetForm(ctx context.Context) (*models.SettingsForm, error) {
	args := m.Called(ctx)
	form, _ := args.Get(0).(*models.SettingsForm)
	return form, args.Error(1)
}

func (m *mockSettingsService) Save(ctx context.Context, form *models.SettingsForm) error {
	return m.Called(ctx, form).Error(0)
}

func (m *mockSettingsService) Seed(ctx context.Context, form *models.SettingsForm) error {
	return m.Called(ctx, form).Error(0)
}

func (m *mockSettingsService) RedirectURI(baseURL string) string {
	return m.Called(baseURL).String(0)
}

// mockUserService is a mock implementation of UserService
type mockUserService struct {
	mock.Mock
}

func newMockUserService(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockUserService {
	m := &mockUserService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockUserService) UserExists(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserService) AuthenticateUser(ctx context.Context, req AuthenticateRequest) (*SessionResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*SessionResult)
	return result, args.Error(1)
}

func (m *mockUserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

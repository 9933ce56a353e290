// Package mocks provides testify mocks for the repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/blogem/social-auth-dropbox/models"
	"github.com/blogem/social-auth-dropbox/repositories"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository whose expectations are asserted on cleanup
func NewMockUserRepository(t testingT) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) CreateWithIdentity(ctx context.Context, user *models.User, identity *models.SocialIdentity) error {
	args := m.Called(ctx, user, identity)
	return args.Error(0)
}

func (m *MockUserRepository) FindIdentity(ctx context.Context, pluginID, providerUserID string) (*models.SocialIdentity, error) {
	args := m.Called(ctx, pluginID, providerUserID)
	identity, _ := args.Get(0).(*models.SocialIdentity)
	return identity, args.Error(1)
}

func (m *MockUserRepository) CreateIdentity(ctx context.Context, identity *models.SocialIdentity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateIdentityToken(ctx context.Context, id int, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

// MockSettingsRepository is a mock implementation of repositories.SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

// NewMockSettingsRepository creates a MockSettingsRepository whose expectations are asserted on cleanup
func NewMockSettingsRepository(t testingT) *MockSettingsRepository {
	m := &MockSettingsRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSettingsRepository) GetAll(ctx context.Context, configName string) (map[string]string, error) {
	args := m.Called(ctx, configName)
	values, _ := args.Get(0).(map[string]string)
	return values, args.Error(1)
}

func (m *MockSettingsRepository) Set(ctx context.Context, configName string, values map[string]string) error {
	args := m.Called(ctx, configName, values)
	return args.Error(0)
}

func (m *MockSettingsRepository) SetDefaults(ctx context.Context, configName string, values map[string]string) error {
	args := m.Called(ctx, configName, values)
	return args.Error(0)
}

var (
	_ repositories.UserRepository     = (*MockUserRepository)(nil)
	_ repositories.SettingsRepository = (*MockSettingsRepository)(nil)
)

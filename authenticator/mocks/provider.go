// Package mocks provides testify mocks for the authenticator interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/blogem/social-auth-dropbox/authenticator"
	"github.com/blogem/social-auth-dropbox/models"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockProvider is a mock implementation of authenticator.Provider
type MockProvider struct {
	mock.Mock
}

// NewMockProvider creates a MockProvider whose expectations are asserted on cleanup
func NewMockProvider(t testingT) *MockProvider {
	m := &MockProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProvider) AuthorizationRequest() (string, string, error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockProvider) ExchangeCode(ctx context.Context, code string) (*authenticator.Token, error) {
	args := m.Called(ctx, code)
	token, _ := args.Get(0).(*authenticator.Token)
	return token, args.Error(1)
}

func (m *MockProvider) FetchProfile(ctx context.Context, token *authenticator.Token) (*authenticator.Profile, error) {
	args := m.Called(ctx, token)
	profile, _ := args.Get(0).(*authenticator.Profile)
	return profile, args.Error(1)
}

func (m *MockProvider) CallEndpoint(ctx context.Context, token *authenticator.Token, path string) ([]byte, error) {
	args := m.Called(ctx, token, path)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

func (m *MockProvider) VerifyIDToken(ctx context.Context, token *authenticator.Token, subject string) error {
	args := m.Called(ctx, token, subject)
	return args.Error(0)
}

// MockProviderFactory is a mock implementation of authenticator.ProviderFactory
type MockProviderFactory struct {
	mock.Mock
}

// NewMockProviderFactory creates a MockProviderFactory whose expectations are asserted on cleanup
func NewMockProviderFactory(t testingT) *MockProviderFactory {
	m := &MockProviderFactory{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProviderFactory) New(ctx context.Context, settings models.Settings) (authenticator.Provider, error) {
	args := m.Called(ctx, settings)
	provider, _ := args.Get(0).(authenticator.Provider)
	return provider, args.Error(1)
}

var (
	_ authenticator.Provider        = (*MockProvider)(nil)
	_ authenticator.ProviderFactory = (*MockProviderFactory)(nil)
)

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blogem/social-auth-dropbox/authenticator"
	"github.com/blogem/social-auth-dropbox/models"
	"github.com/blogem/social-auth-dropbox/repositories"
)

// AuthenticateRequest carries the identity handed over after a successful login
type AuthenticateRequest struct {
	Name          string
	Email         string
	EmailVerified bool
	ExternalID    string
	Token         string
	AvatarURL     string
	AuxData       map[string]string
}

// verifiedEmail returns the email only when the provider confirmed it
func (req AuthenticateRequest) verifiedEmail() string {
	if !req.EmailVerified {
		return ""
	}
	return strings.TrimSpace(req.Email)
}

// SessionResult describes the local user that should be logged in
type SessionResult struct {
	UserID  int
	Name    string
	Email   string
	Created bool
}

// UserService interface maps external identities to local users
type UserService interface {
	UserExists(ctx context.Context, externalID string) (bool, error)
	AuthenticateUser(ctx context.Context, req AuthenticateRequest) (*SessionResult, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// userService implements UserService interface
type userService struct {
	userRepo repositories.UserRepository
	pluginID string
	logger   *zap.Logger
}

// NewUserService creates a new user service for identities of pluginID
func NewUserService(userRepo repositories.UserRepository, pluginID string, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		pluginID: pluginID,
		logger:   logger.With(zap.String("component", "users")),
	}
}

// UserExists reports whether the external account is already linked
func (s *userService) UserExists(ctx context.Context, externalID string) (bool, error) {
	_, err := s.userRepo.FindIdentity(ctx, s.pluginID, externalID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AuthenticateUser logs in the linked user, links by verified email, or creates a new user.
// An unverified email is never linked or stored.
func (s *userService) AuthenticateUser(ctx context.Context, req AuthenticateRequest) (*SessionResult, error) {
	if strings.TrimSpace(req.ExternalID) == "" {
		return nil, fmt.Errorf("external id is required")
	}

	identity, err := s.userRepo.FindIdentity(ctx, s.pluginID, req.ExternalID)
	switch {
	case err == nil:
		return s.loginLinked(ctx, identity, req.Token)
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}

	if email := req.verifiedEmail(); email != "" {
		user, err := s.userRepo.GetByEmail(ctx, email)
		if err == nil {
			return s.linkExisting(ctx, user, req)
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	return s.createUser(ctx, req)
}

// GetUser retrieves a user by ID
func (s *userService) GetUser(ctx context.Context, id int) (*models.User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid user ID: %d", id)
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) loginLinked(ctx context.Context, identity *models.SocialIdentity, token string) (*SessionResult, error) {
	user, err := s.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		s.logger.Warn("Blocked user attempted login", zap.Int("user_id", user.ID))
		return nil, authenticator.UserBlocked()
	}

	if err := s.userRepo.UpdateIdentityToken(ctx, identity.ID, token); err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.Int("user_id", user.ID))
	return sessionResult(user, false), nil
}

func (s *userService) linkExisting(ctx context.Context, user *models.User, req AuthenticateRequest) (*SessionResult, error) {
	if !user.Active {
		s.logger.Warn("Blocked user attempted login", zap.Int("user_id", user.ID))
		return nil, authenticator.UserBlocked()
	}

	identity, err := s.newIdentity(req)
	if err != nil {
		return nil, err
	}
	identity.UserID = user.ID

	if err := s.userRepo.CreateIdentity(ctx, identity); err != nil {
		return nil, err
	}

	s.logger.Info("Linked external account to existing user", zap.Int("user_id", user.ID))
	return sessionResult(user, false), nil
}

func (s *userService) createUser(ctx context.Context, req AuthenticateRequest) (*SessionResult, error) {
	identity, err := s.newIdentity(req)
	if err != nil {
		return nil, err
	}

	if req.Email != "" && !req.EmailVerified {
		s.logger.Info("Ignoring unverified email for new user", zap.String("external_id", req.ExternalID))
	}

	email := req.verifiedEmail()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = email
	}
	if name == "" {
		name = req.ExternalID
	}

	user := &models.User{
		Name:    name,
		Email:   email,
		Picture: req.AvatarURL,
		Active:  true,
	}
	if err := s.userRepo.CreateWithIdentity(ctx, user, identity); err != nil {
		return nil, err
	}

	s.logger.Info("Created user", zap.Int("user_id", user.ID))
	return sessionResult(user, true), nil
}

func (s *userService) newIdentity(req AuthenticateRequest) (*models.SocialIdentity, error) {
	identity := &models.SocialIdentity{
		PluginID:       s.pluginID,
		ProviderUserID: req.ExternalID,
		Token:          req.Token,
	}

	if len(req.AuxData) > 0 {
		data, err := json.Marshal(req.AuxData)
		if err != nil {
			return nil, fmt.Errorf("failed to encode additional data: %w", err)
		}
		identity.AdditionalData = string(data)
	}

	return identity, nil
}

func sessionResult(user *models.User, created bool) *SessionResult {
	return &SessionResult{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Created: created,
	}
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blogem/social-auth-dropbox/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// UserRepository interface defines user and social identity database operations
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CreateWithIdentity(ctx context.Context, user *models.User, identity *models.SocialIdentity) error
	FindIdentity(ctx context.Context, pluginID, providerUserID string) (*models.SocialIdentity, error)
	CreateIdentity(ctx context.Context, identity *models.SocialIdentity) error
	UpdateIdentityToken(ctx context.Context, id int, token string) error
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, picture, active, created_at`

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email address, ignoring case
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE ORDER BY id LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// CreateWithIdentity creates a user and its first social identity atomically
func (r *userRepository) CreateWithIdentity(ctx context.Context, user *models.User, identity *models.SocialIdentity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (name, email, picture, active, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.Name,
		nullString(user.Email),
		nullString(user.Picture),
		user.Active,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted ID: %w", err)
	}
	user.ID = int(id)
	identity.UserID = user.ID

	if err := insertIdentity(ctx, tx, identity); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}
	return nil
}

// FindIdentity retrieves the identity linked to an external account
func (r *userRepository) FindIdentity(ctx context.Context, pluginID, providerUserID string) (*models.SocialIdentity, error) {
	query := `
		SELECT id, user_id, plugin_id, provider_user_id, token, additional_data, created_at, modified_at
		FROM social_auth
		WHERE plugin_id = ? AND provider_user_id = ?
	`

	var identity models.SocialIdentity
	var additionalData sql.NullString
	var modifiedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, pluginID, providerUserID).Scan(
		&identity.ID,
		&identity.UserID,
		&identity.PluginID,
		&identity.ProviderUserID,
		&identity.Token,
		&additionalData,
		&identity.CreatedAt,
		&modifiedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("identity %s/%s: %w", pluginID, providerUserID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	if additionalData.Valid {
		identity.AdditionalData = additionalData.String
	}
	if modifiedAt.Valid {
		identity.ModifiedAt = &modifiedAt.Time
	}

	return &identity, nil
}

// CreateIdentity links an external account to an existing user
func (r *userRepository) CreateIdentity(ctx context.Context, identity *models.SocialIdentity) error {
	return insertIdentity(ctx, r.db, identity)
}

// UpdateIdentityToken stores the latest access token for an identity
func (r *userRepository) UpdateIdentityToken(ctx context.Context, id int, token string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE social_auth SET token = ?, modified_at = ? WHERE id = ?`,
		token, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update identity token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("identity with ID %d: %w", id, ErrNotFound)
	}

	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertIdentity(ctx context.Context, db execer, identity *models.SocialIdentity) error {
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO social_auth (user_id, plugin_id, provider_user_id, token, additional_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		identity.UserID,
		identity.PluginID,
		identity.ProviderUserID,
		identity.Token,
		nullString(identity.AdditionalData),
		identity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted ID: %w", err)
	}
	identity.ID = int(id)
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var email, picture sql.NullString

	if err := row.Scan(&user.ID, &user.Name, &email, &picture, &user.Active, &user.CreatedAt); err != nil {
		return nil, err
	}

	// Convert NULL values to empty string
	if email.Valid {
		user.Email = email.String
	}
	if picture.Valid {
		user.Picture = picture.String
	}

	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

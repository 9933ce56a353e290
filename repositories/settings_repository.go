package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SettingsRepository persists key/value configuration grouped by config name
type SettingsRepository interface {
	GetAll(ctx context.Context, configName string) (map[string]string, error)
	Set(ctx context.Context, configName string, values map[string]string) error
	SetDefaults(ctx context.Context, configName string, values map[string]string) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetAll returns every stored value for the config name
func (r *settingsRepository) GetAll(ctx context.Context, configName string) (map[string]string, error) {
	query := `SELECT name, value FROM settings WHERE config_name = ?`

	rows, err := r.db.QueryContext(ctx, query, configName)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		values[name] = value
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}

	return values, nil
}

// Set upserts the given values in a single transaction
func (r *settingsRepository) Set(ctx context.Context, configName string, values map[string]string) error {
	query := `
		INSERT INTO settings (config_name, name, value, modified_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (config_name, name) DO UPDATE SET value = excluded.value, modified_at = excluded.modified_at
	`
	return r.write(ctx, query, configName, values)
}

// SetDefaults inserts values only where no row exists yet
func (r *settingsRepository) SetDefaults(ctx context.Context, configName string, values map[string]string) error {
	query := `
		INSERT INTO settings (config_name, name, value, modified_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (config_name, name) DO NOTHING
	`
	return r.write(ctx, query, configName, values)
}

func (r *settingsRepository) write(ctx context.Context, query, configName string, values map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settings transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for name, value := range values {
		if _, err := tx.ExecContext(ctx, query, configName, name, value, now); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

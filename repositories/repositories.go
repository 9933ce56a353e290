package repositories

import (
	"database/sql"
)

// Repositories struct holds all repository interfaces
type Repositories struct {
	Users    UserRepository
	Settings SettingsRepository
	Audit    AuditRepository
}

// NewRepositories creates and initializes all repositories
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Settings: NewSettingsRepository(db),
		Audit:    NewAuditRepository(db),
	}
}

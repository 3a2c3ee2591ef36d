package repositories

import (
	"database/sql"
)

// Repositories struct holds all repository interfaces
type Repositories struct {
	Accounts AccountRepository
	Audit    AuditRepository
}

// NewRepositories creates and initializes all repositories
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Accounts: NewAccountRepository(db),
		Audit:    NewAuditRepository(db),
	}
}

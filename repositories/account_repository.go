package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/blogem/oauth2-strategy/models"
)

// ErrAccountNotFound is returned when no account matches the lookup
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository interface defines account database operations
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByProviderSubject(ctx context.Context, provider, subject string) (*models.Account, error)
	// Upsert links account to an existing row by provider and subject, refreshing
	// its profile fields and login time, or inserts a new row. It reports whether
	// a row was created.
	Upsert(ctx context.Context, account *models.Account) (bool, error)
}

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, provider, subject, display_name, email, created_at, last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Provider,
		&account.Subject,
		&account.DisplayName,
		&account.Email,
		&account.CreatedAt,
		&account.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &account, nil
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByProviderSubject retrieves an account by its provider identity
func (r *accountRepository) GetByProviderSubject(ctx context.Context, provider, subject string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE provider = ? AND subject = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, provider, subject))
}

// Upsert creates or refreshes an account
func (r *accountRepository) Upsert(ctx context.Context, account *models.Account) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE provider = ? AND subject = ?`
	existing, err := scanAccount(tx.QueryRowContext(ctx, query, account.Provider, account.Subject))

	created := false
	switch {
	case errors.Is(err, ErrAccountNotFound):
		id, err := uuid.NewV7()
		if err != nil {
			return false, fmt.Errorf("failed to generate account ID: %w", err)
		}
		account.ID = id.String()
		account.CreatedAt = now
		account.LastLoginAt = now

		_, err = tx.ExecContext(ctx, `
			INSERT INTO accounts (id, provider, subject, display_name, email, created_at, last_login_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, account.ID, account.Provider, account.Subject, account.DisplayName, account.Email, account.CreatedAt, account.LastLoginAt)
		if err != nil {
			return false, fmt.Errorf("failed to create account: %w", err)
		}
		created = true
	case err != nil:
		return false, err
	default:
		account.ID = existing.ID
		account.CreatedAt = existing.CreatedAt
		account.LastLoginAt = now

		_, err = tx.ExecContext(ctx, `
			UPDATE accounts SET display_name = ?, email = ?, last_login_at = ?
			WHERE id = ?
		`, account.DisplayName, account.Email, account.LastLoginAt, account.ID)
		if err != nil {
			return false, fmt.Errorf("failed to update account: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit account: %w", err)
	}
	return created, nil
}

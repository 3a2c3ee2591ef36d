package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/blogem/oauth2-strategy/models"
)

// AuditRepository handles authentication event persistence
type AuditRepository interface {
	Create(ctx context.Context, event *models.AuthEvent) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]models.AuthEvent, error)
}

type sqliteAuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &sqliteAuditRepository{db: db}
}

// Create inserts a new authentication event
func (r *sqliteAuditRepository) Create(ctx context.Context, event *models.AuthEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO auth_events (timestamp, strategy, outcome, account_id, message, user_agent, ip_address)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(
		ctx,
		query,
		event.Timestamp,
		event.Strategy,
		event.Outcome,
		nullString(event.AccountID),
		event.Message,
		event.UserAgent,
		event.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to create auth event: %w", err)
	}

	event.ID, err = res.LastInsertId()
	return err
}

// ListByAccount returns the most recent events for an account, newest first
func (r *sqliteAuditRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]models.AuthEvent, error) {
	query := `
		SELECT id, timestamp, strategy, outcome, account_id, message, user_agent, ip_address
		FROM auth_events
		WHERE account_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query auth events: %w", err)
	}
	defer rows.Close()

	var events []models.AuthEvent
	for rows.Next() {
		var event models.AuthEvent
		var account, message, userAgent, ip sql.NullString
		if err := rows.Scan(&event.ID, &event.Timestamp, &event.Strategy, &event.Outcome, &account, &message, &userAgent, &ip); err != nil {
			return nil, fmt.Errorf("failed to scan auth event: %w", err)
		}
		event.AccountID = account.String
		event.Message = message.String
		event.UserAgent = userAgent.String
		event.IPAddress = ip.String
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auth events: %w", err)
	}

	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Attempt is one audited pipeline invocation. MaskedCard never contains a
// full card number; the ledger stores display form only.
type Attempt struct {
	ID         string
	Owner      string
	Kind       string // "check" or "donation"
	MaskedCard string
	Approved   bool
	Submitted  bool
	Reason     string
	OccurredAt time.Time
}

// Repository records attempts. A nil Repository (no database configured)
// is valid and makes RecordAttempt a no-op.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// RecordAttempt inserts one ledger row. Idempotent on attempt ID.
func (r *Repository) RecordAttempt(ctx context.Context, a Attempt) error {
	if r == nil {
		return nil
	}
	query := `
		INSERT INTO donation_attempts (id, owner, kind, masked_card, approved, submitted, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, a.ID, a.Owner, a.Kind, a.MaskedCard, a.Approved, a.Submitted, a.Reason, a.OccurredAt); err != nil {
		return fmt.Errorf("insert donation attempt %s: %w", a.ID, err)
	}
	return nil
}

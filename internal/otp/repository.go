package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists one-time codes. Consume must be atomic: concurrent
// attempts against the same row may succeed at most once.
type Repository interface {
	Create(ctx context.Context, code Code) error
	// Consume marks the first unused, unexpired code matching the filters as
	// used and reports whether such a row existed. Empty email/phone filters
	// are ignored, matching the channel semantics of issuance.
	Consume(ctx context.Context, email, phone, code, purpose string, now time.Time) (bool, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed OTP repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new code row.
func (r *PostgresRepository) Create(ctx context.Context, code Code) error {
	codeID, err := uuid.Parse(code.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(code.UserID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO otp_verifications
		(id, user_id, email, phone_number, otp_code, otp_type, is_used, expires_at, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, FALSE, $7, $8)`,
		codeID, userID, code.Email, code.PhoneNumber, code.Code, code.Purpose,
		code.ExpiresAt.UTC(), code.CreatedAt.UTC())
	return err
}

// Consume runs a single conditional update guarded by is_used = FALSE so two
// concurrent verifications of the same code cannot both succeed.
func (r *PostgresRepository) Consume(ctx context.Context, email, phone, code, purpose string, now time.Time) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE otp_verifications SET is_used = TRUE
		WHERE id = (
			SELECT id FROM otp_verifications
			WHERE otp_code = $1
			  AND otp_type = $2
			  AND is_used = FALSE
			  AND expires_at > $3
			  AND ($4 = '' OR email = $4)
			  AND ($5 = '' OR phone_number = $5)
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND is_used = FALSE`,
		code, purpose, now.UTC(), email, phone)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

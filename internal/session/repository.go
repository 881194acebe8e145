package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository tracks sessions per user. ListActive feeds the multi-device
// login gate; Deactivate is idempotent by contract.
type Repository interface {
	Create(ctx context.Context, s Session) error
	ListActive(ctx context.Context, userID string) ([]Session, error)
	Deactivate(ctx context.Context, userID, token string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed session repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new active session row.
func (r *PostgresRepository) Create(ctx context.Context, s Session) error {
	sessionID, err := uuid.Parse(s.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(s.UserID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO user_sessions
		(id, user_id, session_token, device_info, ip_address, user_agent, is_active, created_at, last_used_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), TRUE, $7, $7)`,
		sessionID, userID, s.Token, s.DeviceInfo, s.IPAddress, s.UserAgent, s.CreatedAt.UTC())
	return err
}

// ListActive returns the user's sessions whose active flag is still set.
func (r *PostgresRepository) ListActive(ctx context.Context, userID string) ([]Session, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, user_id, session_token,
		COALESCE(device_info, ''), COALESCE(ip_address, ''), COALESCE(user_agent, ''),
		is_active, created_at, last_used_at
		FROM user_sessions WHERE user_id = $1 AND is_active = TRUE`, uid)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			id  uuid.UUID
			u   uuid.UUID
			s   Session
			cAt time.Time
			lAt time.Time
		)
		if err := rows.Scan(&id, &u, &s.Token, &s.DeviceInfo, &s.IPAddress, &s.UserAgent,
			&s.Active, &cAt, &lAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.ID = id.String()
		s.UserID = u.String()
		s.CreatedAt = cAt.UTC()
		s.LastUsedAt = lAt.UTC()
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Deactivate flips the matching active session to inactive. Missing or
// already-inactive sessions are a no-op.
func (r *PostgresRepository) Deactivate(ctx context.Context, userID, token string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil
	}
	_, err = r.db.Exec(ctx, `UPDATE user_sessions SET is_active = FALSE
		WHERE user_id = $1 AND session_token = $2 AND is_active = TRUE`, uid, token)
	return err
}

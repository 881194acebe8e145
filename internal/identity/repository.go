package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals a lookup miss. Callers treat it as absent, not failure.
	ErrNotFound = errors.New("identity not found")
	// ErrDuplicate signals an email (or phone) collision on create.
	ErrDuplicate = errors.New("identity already exists")
)

// Repository persists users and their linked OAuth accounts.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	MarkVerified(ctx context.Context, id string) error
	RecordLogin(ctx context.Context, id, device string, at time.Time) error
	CreateOAuthAccount(ctx context.Context, account OAuthAccount) error
	FindOAuthAccount(ctx context.Context, provider, providerUserID string) (OAuthAccount, error)
}

const userColumns = `id, email, phone_number, password_hash, first_name, last_name,
	profile_photo_url, is_verified, is_available, auth_method,
	last_login_at, last_login_device, created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. Unique violations on email or phone map to ErrDuplicate.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users
		(id, email, phone_number, password_hash, first_name, last_name,
		 profile_photo_url, is_verified, is_available, auth_method, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $11)`,
		userID, user.Email, user.PhoneNumber, user.PasswordHash, user.FirstName, user.LastName,
		user.ProfilePhotoURL, user.IsVerified, user.IsAvailable, user.AuthMethod, user.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByID fetches a user by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// MarkVerified flips the verification flag after a successful email OTP check.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordLogin stores the most recent login time and device descriptor.
func (r *PostgresRepository) RecordLogin(ctx context.Context, id, device string, at time.Time) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users
		SET last_login_at = $1, last_login_device = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $3`, at.UTC(), device, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateOAuthAccount links a provider identity to a user.
func (r *PostgresRepository) CreateOAuthAccount(ctx context.Context, account OAuthAccount) error {
	accountID, err := uuid.Parse(account.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(account.UserID)
	if err != nil {
		return err
	}
	var expires any
	if !account.ExpiresAt.IsZero() {
		expires = account.ExpiresAt.UTC()
	}
	_, err = r.db.Exec(ctx, `INSERT INTO oauth_accounts
		(id, user_id, provider, provider_user_id, access_token, refresh_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)`,
		accountID, userID, account.Provider, account.ProviderUserID,
		account.AccessToken, account.RefreshToken, expires, account.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// FindOAuthAccount looks up the link for a (provider, provider user id) pair.
func (r *PostgresRepository) FindOAuthAccount(ctx context.Context, provider, providerUserID string) (OAuthAccount, error) {
	row := r.db.QueryRow(ctx, `SELECT id, user_id, provider, provider_user_id,
		COALESCE(access_token, ''), COALESCE(refresh_token, ''), COALESCE(expires_at, 'epoch'::timestamptz), created_at
		FROM oauth_accounts WHERE provider = $1 AND provider_user_id = $2`, provider, providerUserID)

	var (
		id      uuid.UUID
		userID  uuid.UUID
		account OAuthAccount
		expires time.Time
	)
	err := row.Scan(&id, &userID, &account.Provider, &account.ProviderUserID,
		&account.AccessToken, &account.RefreshToken, &expires, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return OAuthAccount{}, ErrNotFound
	}
	if err != nil {
		return OAuthAccount{}, fmt.Errorf("find oauth account: %w", err)
	}
	account.ID = id.String()
	account.UserID = userID.String()
	if expires.Unix() > 0 {
		account.ExpiresAt = expires.UTC()
	}
	account.CreatedAt = account.CreatedAt.UTC()
	return account, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		user      User
		phone     *string
		photo     *string
		lastAt    *time.Time
		lastDev   *string
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&id, &user.Email, &phone, &user.PasswordHash, &user.FirstName, &user.LastName,
		&photo, &user.IsVerified, &user.IsAvailable, &user.AuthMethod,
		&lastAt, &lastDev, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.String()
	if phone != nil {
		user.PhoneNumber = *phone
	}
	if photo != nil {
		user.ProfilePhotoURL = *photo
	}
	if lastAt != nil {
		user.LastLoginAt = lastAt.UTC()
	}
	if lastDev != nil {
		user.LastLoginDevice = *lastDev
	}
	user.CreatedAt = createdAt.UTC()
	user.UpdatedAt = updatedAt.UTC()
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

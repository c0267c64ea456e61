package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/turfease/platform/internal/domain"
)

var (
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")

	// ErrNotFound is returned by writes that target a missing row.
	ErrNotFound = errors.New("not found")

	// ErrStale is returned by conditional writes whose precondition no
	// longer holds, e.g. deciding an owner that is no longer pending.
	ErrStale = errors.New("stale write")
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// AccountRepository provides access to accounts. Finders return (nil, nil)
// when no row matches.
type AccountRepository interface {
	// Create inserts a new account. Duplicate email, username or firebase uid
	// yields ErrConflict.
	Create(ctx context.Context, account *domain.Account) error

	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)

	// FindByUsername matches case-insensitively.
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)

	FindByFirebaseUID(ctx context.Context, uid string) (*domain.Account, error)

	FindByResetTokenHash(ctx context.Context, hash string) (*domain.Account, error)

	// The writers below touch only their own columns so that concurrent
	// transitions on the same account never overwrite each other. Each
	// returns ErrNotFound if the row is gone.

	// MarkVerified sets the email and OTP verification flags.
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error

	// Decide records an approval decision only while the account is a
	// pending owner; otherwise it returns ErrStale.
	Decide(ctx context.Context, id uuid.UUID, d domain.Decision) error

	// UpdateProfile writes the self-editable profile columns of account.
	UpdateProfile(ctx context.Context, account *domain.Account) error

	// RecordLogin stamps the last login time.
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// SetPassword replaces the password hash and clears any reset token.
	SetPassword(ctx context.Context, id uuid.UUID, hash string, at time.Time) error

	// SetResetToken stores a reset token hash and expiry. An empty hash clears it.
	SetResetToken(ctx context.Context, id uuid.UUID, hash string, expiry *time.Time, at time.Time) error

	// BindIdentity attaches a federated subject and avatar, keeping values
	// already present. A uid bound to another account yields ErrConflict.
	BindIdentity(ctx context.Context, id uuid.UUID, uid, avatar string, at time.Time) error

	// PromoteAdmin turns the account into an active, verified admin with a new password.
	PromoteAdmin(ctx context.Context, id uuid.UUID, hash string, at time.Time) error

	// Delete removes an account. Used to roll back a failed registration.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns a page of accounts newest first plus the total match count.
	List(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, int, error)
}

// TurfRepository provides access to turfs.
type TurfRepository interface {
	Create(ctx context.Context, turf *domain.Turf) error

	// FindByID returns a turf by ID, or nil if not found.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Turf, error)

	Update(ctx context.Context, turf *domain.Turf) error

	Delete(ctx context.Context, id uuid.UUID) error

	// List returns a page of turfs newest first plus the total match count.
	List(ctx context.Context, filter domain.TurfFilter) ([]domain.Turf, int, error)

	// Nearby returns approved turfs within maxMeters of the point, closest first.
	Nearby(ctx context.Context, lat, lng, maxMeters float64, limit int) ([]domain.Turf, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event.
	Insert(ctx context.Context, draft domain.OutboxDraft) error

	// FetchUnpublished returns the oldest unpublished events.
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished deletes published events.
	MarkPublished(ctx context.Context, ids []int64) error
}

func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

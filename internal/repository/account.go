package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/turfease/platform/internal/domain"
)

const accountColumns = `id, first_name, last_name, email, username, phone, password_hash, role,
	email_verified, otp_verified, approved_by_admin, approval_status, approval_date, approval_notes,
	firebase_uid, avatar, preferred_sports, skill_level, location,
	business_name, business_address, business_phone, turf_count,
	active, blocked, agree_to_terms, agree_to_marketing,
	last_login, reset_token_hash, reset_token_expiry, created_at, updated_at`

// PgAccountRepository implements AccountRepository using pgx.
type PgAccountRepository struct {
	db DBTX
}

// NewPgAccountRepository creates a new PgAccountRepository.
func NewPgAccountRepository(db DBTX) *PgAccountRepository {
	return &PgAccountRepository{db: db}
}

var _ AccountRepository = (*PgAccountRepository)(nil)

// Create inserts a new account. The unique indexes on lower(email),
// lower(username) and firebase_uid make concurrent duplicates fail here.
func (r *PgAccountRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)`,
		a.ID, a.FirstName, a.LastName, a.Email, a.Username, a.Phone, a.PasswordHash, string(a.Role),
		a.EmailVerified, a.OTPVerified, a.ApprovedByAdmin, string(a.ApprovalStatus), a.ApprovalDate, a.ApprovalNotes,
		a.FirebaseUID, a.Avatar, a.PreferredSports, a.SkillLevel, a.Location,
		a.BusinessName, a.BusinessAddress, a.BusinessPhone, a.TurfCount,
		a.Active, a.Blocked, a.AgreeToTerms, a.AgreeToMarketing,
		a.LastLogin, nullString(a.ResetTokenHash), a.ResetTokenExpiry, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return mapPgErr(err)
	}
	return nil
}

// FindByID returns an account by ID, or nil if not found.
func (r *PgAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// FindByEmail returns an account by email, or nil if not found.
func (r *PgAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email)
}

// FindByUsername returns an account by username, or nil if not found.
func (r *PgAccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(username) = lower($1)`, username)
}

// FindByFirebaseUID returns an account bound to a federated subject, or nil.
func (r *PgAccountRepository) FindByFirebaseUID(ctx context.Context, uid string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE firebase_uid = $1`, uid)
}

// FindByResetTokenHash returns the account holding a password reset token, or nil.
func (r *PgAccountRepository) FindByResetTokenHash(ctx context.Context, hash string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE reset_token_hash = $1`, hash)
}

// MarkVerified sets the email verification flags.
func (r *PgAccountRepository) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts SET email_verified = TRUE, otp_verified = TRUE, updated_at = $2
		WHERE id = $1`, id, at)
}

// Decide writes the decision only while the row is still a pending owner.
// Zero affected rows on an existing account means another decision won.
func (r *PgAccountRepository) Decide(ctx context.Context, id uuid.UUID, d domain.Decision) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts SET
		  approval_status = $2, approved_by_admin = $3, approval_date = $4,
		  approval_notes = $5, updated_at = $4
		WHERE id = $1 AND role = 'owner' AND approval_status = 'pending'`,
		id, string(d.Status), d.Status == domain.ApprovalApproved, d.At, d.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStale
}

// UpdateProfile writes the self-editable profile columns.
func (r *PgAccountRepository) UpdateProfile(ctx context.Context, a *domain.Account) error {
	return r.exec(ctx, `
		UPDATE accounts SET
		  first_name = $2, last_name = $3, phone = $4, preferred_sports = $5,
		  skill_level = $6, location = $7, avatar = $8, updated_at = $9
		WHERE id = $1`,
		a.ID, a.FirstName, a.LastName, a.Phone, a.PreferredSports,
		a.SkillLevel, a.Location, a.Avatar, a.UpdatedAt)
}

// RecordLogin stamps last_login.
func (r *PgAccountRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.exec(ctx, `UPDATE accounts SET last_login = $2 WHERE id = $1`, id, at)
}

// SetPassword replaces the password hash and clears any pending reset token.
func (r *PgAccountRepository) SetPassword(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts SET
		  password_hash = $2, reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = $3
		WHERE id = $1`, id, hash, at)
}

// SetResetToken stores or clears the reset token.
func (r *PgAccountRepository) SetResetToken(ctx context.Context, id uuid.UUID, hash string, expiry *time.Time, at time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts SET reset_token_hash = $2, reset_token_expiry = $3, updated_at = $4
		WHERE id = $1`, id, nullString(hash), expiry, at)
}

// BindIdentity fills firebase_uid and avatar when they are still empty.
func (r *PgAccountRepository) BindIdentity(ctx context.Context, id uuid.UUID, uid, avatar string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts SET
		  firebase_uid = COALESCE(firebase_uid, $2),
		  avatar = CASE WHEN avatar = '' THEN $3 ELSE avatar END,
		  updated_at = $4
		WHERE id = $1`, id, nullString(uid), avatar, at)
}

// PromoteAdmin makes the account an active verified admin.
func (r *PgAccountRepository) PromoteAdmin(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts SET
		  role = 'admin', approval_status = 'approved', approved_by_admin = TRUE,
		  email_verified = TRUE, otp_verified = TRUE, active = TRUE, blocked = FALSE,
		  password_hash = $2, reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = $3
		WHERE id = $1`, id, hash, at)
}

func (r *PgAccountRepository) exec(ctx context.Context, sql string, args ...interface{}) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account.
func (r *PgAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return err
}

// List returns accounts filtered by role and approval status, newest first.
func (r *PgAccountRepository) List(ctx context.Context, f domain.AccountFilter) ([]domain.Account, int, error) {
	const where = `WHERE ($1 = '' OR role = $1) AND ($2 = '' OR approval_status = $2)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts `+where,
		string(f.Role), string(f.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts `+where+`
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		string(f.Role), string(f.Status), f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, total, rows.Err()
}

func (r *PgAccountRepository) findOne(ctx context.Context, sql string, arg interface{}) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	var role, status string
	var resetHash *string
	err := row.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Username, &a.Phone, &a.PasswordHash, &role,
		&a.EmailVerified, &a.OTPVerified, &a.ApprovedByAdmin, &status, &a.ApprovalDate, &a.ApprovalNotes,
		&a.FirebaseUID, &a.Avatar, &a.PreferredSports, &a.SkillLevel, &a.Location,
		&a.BusinessName, &a.BusinessAddress, &a.BusinessPhone, &a.TurfCount,
		&a.Active, &a.Blocked, &a.AgreeToTerms, &a.AgreeToMarketing,
		&a.LastLogin, &resetHash, &a.ResetTokenExpiry, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	a.ApprovalStatus = domain.ApprovalStatus(status)
	if resetHash != nil {
		a.ResetTokenHash = *resetHash
	}
	if a.PreferredSports == nil {
		a.PreferredSports = []string{}
	}
	return a, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

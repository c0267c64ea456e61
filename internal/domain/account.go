package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the account type. It is fixed at creation.
type Role string

const (
	RolePlayer Role = "player"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePlayer, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// ApprovalStatus is the owner approval lifecycle state.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Placeholder phone assigned to federated sign-ups until the profile is completed.
const PlaceholderPhone = "0000000000"

// Allowed values for player and owner profile fields.
var (
	Sports      = []string{"Football", "Cricket", "Basketball", "Tennis", "Badminton", "Volleyball"}
	SkillLevels = []string{"Beginner", "Intermediate", "Advanced", "Professional"}
	TurfCounts  = []string{"1", "2-5", "6-10", "10+"}
)

// Account is a persisted user record.
type Account struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Username  *string   `json:"username,omitempty"`
	Phone     string    `json:"phone"`

	PasswordHash string `json:"-"`
	Role         Role   `json:"userType"`

	EmailVerified bool `json:"isEmailVerified"`
	OTPVerified   bool `json:"isOtpVerified"`

	ApprovedByAdmin bool           `json:"isApprovedByAdmin"`
	ApprovalStatus  ApprovalStatus `json:"adminApprovalStatus"`
	ApprovalDate    *time.Time     `json:"adminApprovalDate,omitempty"`
	ApprovalNotes   string         `json:"adminApprovalNotes,omitempty"`

	FirebaseUID *string `json:"-"`
	Avatar      string  `json:"avatar"`

	// Player profile.
	PreferredSports []string `json:"preferredSports"`
	SkillLevel      string   `json:"skillLevel,omitempty"`
	Location        string   `json:"location,omitempty"`

	// Owner profile.
	BusinessName    string `json:"businessName,omitempty"`
	BusinessAddress string `json:"businessAddress,omitempty"`
	BusinessPhone   string `json:"businessPhone,omitempty"`
	TurfCount       string `json:"turfCount,omitempty"`

	Active  bool `json:"isActive"`
	Blocked bool `json:"isBlocked"`

	AgreeToTerms     bool `json:"agreeToTerms"`
	AgreeToMarketing bool `json:"agreeToMarketing"`

	LastLogin        *time.Time `json:"lastLogin,omitempty"`
	ResetTokenHash   string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AccountParams holds the caller-supplied fields for a new account.
type AccountParams struct {
	FirstName        string
	LastName         string
	Email            string
	Username         string
	Phone            string
	PasswordHash     string
	Role             Role
	FirebaseUID      string
	Avatar           string
	PreferredSports  []string
	SkillLevel       string
	Location         string
	BusinessName     string
	BusinessAddress  string
	BusinessPhone    string
	TurfCount        string
	AgreeToTerms     bool
	AgreeToMarketing bool
	EmailVerified    bool
}

// NewAccount builds a new account with its full initial state derived from
// the role in one place: owners start pending and unapproved, every other
// role starts approved.
func NewAccount(p AccountParams, now time.Time) *Account {
	status, approved := ApprovalApproved, true
	if p.Role == RoleOwner {
		status, approved = ApprovalPending, false
	}

	a := &Account{
		ID:               uuid.New(),
		FirstName:        strings.TrimSpace(p.FirstName),
		LastName:         strings.TrimSpace(p.LastName),
		Email:            NormalizeEmail(p.Email),
		Phone:            p.Phone,
		PasswordHash:     p.PasswordHash,
		Role:             p.Role,
		EmailVerified:    p.EmailVerified,
		OTPVerified:      p.EmailVerified,
		ApprovedByAdmin:  approved,
		ApprovalStatus:   status,
		Avatar:           p.Avatar,
		PreferredSports:  []string{},
		Active:           true,
		AgreeToTerms:     p.AgreeToTerms,
		AgreeToMarketing: p.AgreeToMarketing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if u := strings.TrimSpace(p.Username); u != "" {
		u = strings.ToLower(u)
		a.Username = &u
	}
	if p.FirebaseUID != "" {
		uid := p.FirebaseUID
		a.FirebaseUID = &uid
	}

	switch p.Role {
	case RolePlayer:
		if p.PreferredSports != nil {
			a.PreferredSports = p.PreferredSports
		}
		a.SkillLevel = p.SkillLevel
		a.Location = strings.TrimSpace(p.Location)
	case RoleOwner:
		a.BusinessName = strings.TrimSpace(p.BusinessName)
		a.BusinessAddress = strings.TrimSpace(p.BusinessAddress)
		a.BusinessPhone = p.BusinessPhone
		a.TurfCount = p.TurfCount
	}
	return a
}

// DisplayName is the name used in notifications.
func (a *Account) DisplayName() string {
	if a.FirstName != "" {
		return a.FirstName
	}
	return a.Email
}

// MarkVerified records a successful email verification.
func (a *Account) MarkVerified(now time.Time) {
	a.EmailVerified = true
	a.OTPVerified = true
	a.UpdatedAt = now
}

// Decision is an admin verdict on an owner application.
type Decision struct {
	Status ApprovalStatus
	Notes  string
	At     time.Time
}

// Decide applies an admin decision to an owner account. Decisions are
// terminal: only a pending owner can be decided.
func (a *Account) Decide(decision ApprovalStatus, notes string, now time.Time) error {
	if decision != ApprovalApproved && decision != ApprovalRejected {
		return ErrInvalidDecision(string(decision))
	}
	if a.Role != RoleOwner {
		return ErrNotAnOwner()
	}
	if a.ApprovalStatus != ApprovalPending {
		return ErrAlreadyDecided(a.ApprovalStatus)
	}
	a.ApprovalStatus = decision
	a.ApprovedByAdmin = decision == ApprovalApproved
	a.ApprovalDate = &now
	a.ApprovalNotes = notes
	a.UpdatedAt = now
	return nil
}

// CheckLoginAllowed enforces the activity flags and, for owners, the approval gate.
func (a *Account) CheckLoginAllowed() error {
	if !a.Active {
		return ErrAccountInactive()
	}
	if a.Blocked {
		return ErrAccountBlocked()
	}
	if a.Role != RoleOwner {
		return nil
	}
	if a.ApprovalStatus == ApprovalRejected {
		return ErrAccountRejected()
	}
	if a.ApprovalStatus == ApprovalPending || !a.ApprovedByAdmin {
		return ErrPendingApproval()
	}
	return nil
}

// NeedsProfileCompletion is true for accounts missing a real phone or sports preferences.
func (a *Account) NeedsProfileCompletion() bool {
	return a.Phone == "" || a.Phone == PlaceholderPhone || len(a.PreferredSports) == 0
}

// AccountFilter selects accounts for admin listings.
type AccountFilter struct {
	Role   Role
	Status ApprovalStatus
	Offset int
	Limit  int
}

// Page is a paginated listing result.
type Page[T any] struct {
	Items      []T `json:"data"`
	Count      int `json:"count"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
	Page       int `json:"currentPage"`
	Next       int `json:"nextPage,omitempty"`
	Prev       int `json:"prevPage,omitempty"`
}

// NewPage assembles a Page from one slice of results and the total row count.
func NewPage[T any](items []T, total, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	p := Page[T]{Items: items, Count: len(items), Total: total, TotalPages: pages, Page: page}
	if page < pages {
		p.Next = page + 1
	}
	if page > 1 {
		p.Prev = page - 1
	}
	return p
}

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

// --- Validator Tests ---

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
		errMsg  string
	}{
		{"valid email", "user@example.com", false, ""},
		{"valid email with dots", "first.last@example.co.uk", false, ""},
		{"valid email with plus", "user+tag@example.com", false, ""},
		{"valid email with dash", "user-name@exam-ple.com", false, ""},
		{"empty string", "", true, "email is required"},
		{"no at sign", "userexample.com", true, "invalid email format"},
		{"no domain", "user@", true, "invalid email format"},
		{"no user", "@example.com", true, "invalid email format"},
		{"double at", "user@@example.com", true, "invalid email format"},
		{"no tld", "user@example", true, "invalid email format"},
		{"single char tld", "user@example.c", true, "invalid email format"},
		{"spaces", "user @example.com", true, "invalid email format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestValidateOTPFormat(t *testing.T) {
	assert.NoError(t, ValidateOTPFormat("012345", 6))
	assert.Error(t, ValidateOTPFormat("12345", 6))
	assert.Error(t, ValidateOTPFormat("12a456", 6))
	assert.Error(t, ValidateOTPFormat("", 6))
	assert.NoError(t, ValidateOTPFormat("1234", 4))
}

func TestFieldValidators(t *testing.T) {
	assert.NoError(t, ValidatePhone("+91 98765-43210"))
	assert.Error(t, ValidatePhone(""))
	assert.Error(t, ValidatePhone("call me"))

	assert.NoError(t, ValidatePassword("12345678"))
	assert.Error(t, ValidatePassword("1234567"))

	assert.NoError(t, ValidateName("Al"))
	assert.Error(t, ValidateName(" A "))

	assert.NoError(t, ValidateUsername("turf_fan_01"))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("has space"))

	assert.NoError(t, ValidateCoordinates(18.52, 73.85))
	assert.Error(t, ValidateCoordinates(91, 0))
	assert.Error(t, ValidateCoordinates(0, -181))

	assert.NoError(t, ValidateOneOf("2-5", TurfCounts))
	err := ValidateOneOf("lots", TurfCounts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1, 2-5")
}

// --- AppError Tests ---

func TestAppError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := ErrNotFound("account", "abc-123")
		assert.Equal(t, "NOT_FOUND: account abc-123 not found", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := ErrDependency("mail relay unavailable", cause)
		assert.Contains(t, err.Error(), "DEPENDENCY_FAILURE")
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrInternal("wrapped", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeOTPMismatch, CodeOf(fmt.Errorf("verify: %w", ErrOTPMismatch())))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}

func TestErrorFactories(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"ErrNotFound", ErrNotFound("turf", "123"), CodeNotFound, 404},
		{"ErrConflict", ErrConflict("already exists"), CodeConflict, 409},
		{"ErrValidation", ErrValidation("bad input"), CodeValidation, 400},
		{"ErrUnauthorized", ErrUnauthorized("no token"), CodeUnauthorized, 401},
		{"ErrForbidden", ErrForbidden("not allowed"), CodeForbidden, 403},
		{"ErrExpired", ErrExpired("link expired"), CodeExpired, 410},
		{"ErrDependency", ErrDependency("down", nil), CodeDependency, 502},
		{"ErrAccountLocked", ErrAccountLocked("too many attempts"), CodeAccountLocked, 429},
		{"ErrRateLimited", ErrRateLimited("slow down"), CodeRateLimited, 429},
		{"ErrInternal", ErrInternal("oops", nil), CodeInternal, 500},
		{"ErrAlreadyVerified", ErrAlreadyVerified(), CodeAlreadyVerified, 409},
		{"ErrNoPendingCode", ErrNoPendingCode(), CodeNoPendingCode, 400},
		{"ErrOTPExpired", ErrOTPExpired(), CodeOTPExpired, 410},
		{"ErrOTPMismatch", ErrOTPMismatch(), CodeOTPMismatch, 400},
		{"ErrInvalidDecision", ErrInvalidDecision("maybe"), CodeInvalidDecision, 400},
		{"ErrNotAnOwner", ErrNotAnOwner(), CodeNotAnOwner, 400},
		{"ErrAlreadyDecided", ErrAlreadyDecided(ApprovalApproved), CodeAlreadyDecided, 409},
		{"ErrPendingApproval", ErrPendingApproval(), CodePendingApproval, 403},
		{"ErrAccountRejected", ErrAccountRejected(), CodeAccountRejected, 403},
		{"ErrInvalidCredentials", ErrInvalidCredentials(), CodeInvalidCredentials, 401},
		{"ErrInvalidToken", ErrInvalidToken(nil), CodeInvalidToken, 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.Status)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestAppError_JSONHidesInternals(t *testing.T) {
	b, err := json.Marshal(ErrDependency("mail relay unavailable", errors.New("dial tcp 10.0.0.5:587")))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "10.0.0.5")
	assert.NotContains(t, string(b), "502")
}

// --- Account Tests ---

func ownerParams() AccountParams {
	return AccountParams{
		FirstName: " Omar ", LastName: "Khan", Email: "Omar@Example.com", Phone: "9876543210",
		PasswordHash: "hash", Role: RoleOwner, BusinessName: " Arena ", BusinessAddress: "12 Road",
		BusinessPhone: "9123456780", TurfCount: "1", PreferredSports: []string{"Football"},
	}
}

func TestNewAccount_RoleDerivedState(t *testing.T) {
	t.Run("owner starts pending", func(t *testing.T) {
		a := NewAccount(ownerParams(), testNow)
		assert.Equal(t, ApprovalPending, a.ApprovalStatus)
		assert.False(t, a.ApprovedByAdmin)
		assert.Equal(t, "omar@example.com", a.Email)
		assert.Equal(t, "Omar", a.FirstName)
		assert.Equal(t, "Arena", a.BusinessName)
		assert.Empty(t, a.PreferredSports, "player fields are dropped for owners")
		assert.True(t, a.Active)
		assert.False(t, a.EmailVerified)
	})

	t.Run("player starts approved", func(t *testing.T) {
		p := ownerParams()
		p.Role = RolePlayer
		p.SkillLevel = "Beginner"
		p.Username = "Omar_K"
		a := NewAccount(p, testNow)
		assert.Equal(t, ApprovalApproved, a.ApprovalStatus)
		assert.True(t, a.ApprovedByAdmin)
		assert.Empty(t, a.BusinessName)
		assert.Equal(t, []string{"Football"}, a.PreferredSports)
		require.NotNil(t, a.Username)
		assert.Equal(t, "omar_k", *a.Username)
	})

	t.Run("federated account is pre-verified", func(t *testing.T) {
		p := ownerParams()
		p.Role = RolePlayer
		p.FirebaseUID = "fb-123"
		p.EmailVerified = true
		a := NewAccount(p, testNow)
		assert.True(t, a.EmailVerified)
		assert.True(t, a.OTPVerified)
		require.NotNil(t, a.FirebaseUID)
		assert.Equal(t, "fb-123", *a.FirebaseUID)
	})
}

func TestAccount_Decide(t *testing.T) {
	later := testNow.Add(time.Hour)

	t.Run("approve sets the approval fields", func(t *testing.T) {
		a := NewAccount(ownerParams(), testNow)
		require.NoError(t, a.Decide(ApprovalApproved, "welcome", later))
		assert.Equal(t, ApprovalApproved, a.ApprovalStatus)
		assert.True(t, a.ApprovedByAdmin)
		require.NotNil(t, a.ApprovalDate)
		assert.Equal(t, later, *a.ApprovalDate)
		assert.Equal(t, "welcome", a.ApprovalNotes)
	})

	t.Run("decisions are terminal", func(t *testing.T) {
		a := NewAccount(ownerParams(), testNow)
		require.NoError(t, a.Decide(ApprovalRejected, "missing documents", later))
		err := a.Decide(ApprovalApproved, "", later)
		assert.Equal(t, CodeAlreadyDecided, CodeOf(err))
		assert.Equal(t, ApprovalRejected, a.ApprovalStatus)
		assert.False(t, a.ApprovedByAdmin)
	})

	t.Run("pending is not a decision", func(t *testing.T) {
		a := NewAccount(ownerParams(), testNow)
		assert.Equal(t, CodeInvalidDecision, CodeOf(a.Decide(ApprovalPending, "", later)))
	})

	t.Run("players cannot be decided", func(t *testing.T) {
		p := ownerParams()
		p.Role = RolePlayer
		a := NewAccount(p, testNow)
		assert.Equal(t, CodeNotAnOwner, CodeOf(a.Decide(ApprovalApproved, "", later)))
	})
}

func TestAccount_CheckLoginAllowed(t *testing.T) {
	owner := NewAccount(ownerParams(), testNow)
	assert.Equal(t, CodePendingApproval, CodeOf(owner.CheckLoginAllowed()))

	require.NoError(t, owner.Decide(ApprovalApproved, "", testNow))
	assert.NoError(t, owner.CheckLoginAllowed())

	rejected := NewAccount(ownerParams(), testNow)
	require.NoError(t, rejected.Decide(ApprovalRejected, "", testNow))
	assert.Equal(t, CodeAccountRejected, CodeOf(rejected.CheckLoginAllowed()))

	p := ownerParams()
	p.Role = RolePlayer
	player := NewAccount(p, testNow)
	assert.NoError(t, player.CheckLoginAllowed())

	player.Blocked = true
	assert.Equal(t, CodeAccountBlocked, CodeOf(player.CheckLoginAllowed()))

	player.Active = false
	assert.Equal(t, CodeAccountInactive, CodeOf(player.CheckLoginAllowed()))
}

func TestAccount_JSONOmitsSecrets(t *testing.T) {
	a := NewAccount(ownerParams(), testNow)
	a.PasswordHash = "$2a$10$secret"
	a.ResetTokenHash = "reset-hash"
	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "reset-hash")
}

func TestResponsesUseCamelCaseKeys(t *testing.T) {
	a := NewAccount(ownerParams(), testNow)
	turf := &Turf{ID: uuid.New(), OwnerID: a.ID, Name: "Arena", PricePerHour: 900}
	page := NewPage([]*Turf{turf}, 3, 2, 1)

	for name, v := range map[string]interface{}{"account": a, "turf": turf, "page": page} {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &fields))
		for key := range fields {
			assert.NotContains(t, key, "_", "%s key %q", name, key)
		}
	}

	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"adminApprovalStatus":"pending"`)
	assert.Contains(t, string(b), `"userType":"owner"`)
	b, err = json.Marshal(page)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"currentPage":2`)
	assert.Contains(t, string(b), `"totalPages":3`)
}

func TestAccount_NeedsProfileCompletion(t *testing.T) {
	p := ownerParams()
	p.Role = RolePlayer
	a := NewAccount(p, testNow)
	assert.False(t, a.NeedsProfileCompletion())

	a.Phone = PlaceholderPhone
	assert.True(t, a.NeedsProfileCompletion())
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2}, 5, 1, 2)
	assert.Equal(t, 2, p.Count)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 2, p.Next)
	assert.Zero(t, p.Prev)

	last := NewPage([]int{5}, 5, 3, 2)
	assert.Zero(t, last.Next)
	assert.Equal(t, 2, last.Prev)

	empty := NewPage[int](nil, 0, 1, 10)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}

// --- Turf Tests ---

func TestHaversineMeters(t *testing.T) {
	assert.InDelta(t, 0, HaversineMeters(18.52, 73.85, 18.52, 73.85), 0.001)
	// One degree of latitude is about 111.2 km.
	assert.InDelta(t, 111195, HaversineMeters(0, 0, 1, 0), 50)
	// Pune to Mumbai.
	assert.InDelta(t, 120000, HaversineMeters(18.5204, 73.8567, 19.0760, 72.8777), 5000)
}

func TestTurfFilter_Matches(t *testing.T) {
	owner := uuid.New()
	turf := &Turf{OwnerID: owner, PricePerHour: 1000, Approved: true}
	yes, no := true, false
	low, high := 500.0, 1500.0

	assert.True(t, TurfFilter{}.Matches(turf))
	assert.True(t, TurfFilter{OwnerID: &owner, Approved: &yes, MinPrice: &low, MaxPrice: &high}.Matches(turf))
	assert.False(t, TurfFilter{Approved: &no}.Matches(turf))
	assert.False(t, TurfFilter{MinPrice: &high}.Matches(turf))
	assert.False(t, TurfFilter{MaxPrice: &low}.Matches(turf))

	other := uuid.New()
	assert.False(t, TurfFilter{OwnerID: &other}.Matches(turf))
}

// --- Event Tests ---

func TestNewAccountEvent(t *testing.T) {
	a := NewAccount(ownerParams(), testNow)
	e := NewAccountEvent(a, EventOwnerApproved, testNow)

	assert.Equal(t, "turfease.account.owner.approved", e.Topic())
	assert.Equal(t, a.ID.String(), e.AggregateID)
	assert.NotEqual(t, uuid.Nil, e.EventID)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(e.Payload, &payload))
	assert.Equal(t, "omar@example.com", payload["email"])
	assert.Equal(t, "pending", payload["approvalStatus"])
}

func TestNewTurfEvent(t *testing.T) {
	turf := &Turf{ID: uuid.New(), OwnerID: uuid.New(), Name: "Arena"}
	e := NewTurfEvent(turf, EventTurfApproved, testNow)
	assert.Equal(t, "turfease.turf.approved", e.Topic())
	assert.Equal(t, AggregateTurf, e.AggregateType)
	assert.Equal(t, testNow, e.OccurredAt)
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/turfease/platform/internal/auth"
	"github.com/turfease/platform/internal/dependencies/clock"
	"github.com/turfease/platform/internal/dependencies/random"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/guard"
	"github.com/turfease/platform/internal/notify"
	"github.com/turfease/platform/internal/provider"
	"github.com/turfease/platform/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenBytes = 20

// AuthDeps wires an AuthService.
type AuthDeps struct {
	Accounts     repository.AccountRepository
	Verification *VerificationService
	Identity     provider.IdentityVerifier
	Notifier     notify.Notifier
	JWT          *auth.JWTManager
	Lockout      *guard.Lockout
	Clock        clock.Clock
	Random       random.Random
	Outbox       repository.OutboxRepository
	ResetTTL     time.Duration
	FrontendURL  string
	Timeout      time.Duration
	BcryptCost   int
	Logger       *slog.Logger
}

// AuthService handles registration, login and credential management.
type AuthService struct {
	accounts     repository.AccountRepository
	verification *VerificationService
	identity     provider.IdentityVerifier
	notifier     notify.Notifier
	jwtMgr       *auth.JWTManager
	lockout      *guard.Lockout
	clock        clock.Clock
	rnd          random.Random
	events       eventRecorder
	resetTTL     time.Duration
	frontendURL  string
	timeout      time.Duration
	cost         int
	dummyHash    []byte
	logger       *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(d AuthDeps) *AuthService {
	if d.BcryptCost == 0 {
		d.BcryptCost = bcrypt.DefaultCost
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultExternalTimeout
	}
	if d.ResetTTL <= 0 {
		d.ResetTTL = 30 * time.Minute
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("turfease-no-such-account"), d.BcryptCost)
	return &AuthService{
		accounts:     d.Accounts,
		verification: d.Verification,
		identity:     d.Identity,
		notifier:     d.Notifier,
		jwtMgr:       d.JWT,
		lockout:      d.Lockout,
		clock:        d.Clock,
		rnd:          d.Random,
		events:       eventRecorder{outbox: d.Outbox, logger: d.Logger},
		resetTTL:     d.ResetTTL,
		frontendURL:  strings.TrimRight(d.FrontendURL, "/"),
		timeout:      d.Timeout,
		cost:         d.BcryptCost,
		dummyHash:    dummy,
		logger:       d.Logger,
	}
}

// RegisterInput holds the registration request fields.
type RegisterInput struct {
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	Email            string   `json:"email"`
	Username         string   `json:"username"`
	Phone            string   `json:"phone"`
	Password         string   `json:"password"`
	UserType         string   `json:"userType"`
	PreferredSports  []string `json:"preferredSports"`
	SkillLevel       string   `json:"skillLevel"`
	Location         string   `json:"location"`
	BusinessName     string   `json:"businessName"`
	BusinessAddress  string   `json:"businessAddress"`
	BusinessPhone    string   `json:"businessPhone"`
	TurfCount        string   `json:"turfCount"`
	AgreeToTerms     bool     `json:"agreeToTerms"`
	AgreeToMarketing bool     `json:"agreeToMarketing"`
}

// Validate returns field-level errors, or nil if the input is acceptable.
func (in RegisterInput) Validate() map[string]string {
	fields := map[string]string{}
	check := func(field string, err error) {
		if err != nil {
			fields[field] = err.Error()
		}
	}

	check("firstName", domain.ValidateName(in.FirstName))
	check("lastName", domain.ValidateName(in.LastName))
	check("email", domain.ValidateEmail(domain.NormalizeEmail(in.Email)))
	if in.Username != "" {
		check("username", domain.ValidateUsername(in.Username))
	}
	check("phone", domain.ValidatePhone(in.Phone))
	check("password", domain.ValidatePassword(in.Password))
	if !in.AgreeToTerms {
		fields["agreeToTerms"] = "you must agree to the terms and conditions"
	}

	switch domain.Role(in.UserType) {
	case domain.RolePlayer:
		if len(in.PreferredSports) == 0 {
			fields["preferredSports"] = "select at least one sport"
		}
		for _, sport := range in.PreferredSports {
			if err := domain.ValidateOneOf(sport, domain.Sports); err != nil {
				fields["preferredSports"] = err.Error()
				break
			}
		}
		check("skillLevel", domain.ValidateOneOf(in.SkillLevel, domain.SkillLevels))
		if strings.TrimSpace(in.Location) == "" {
			fields["location"] = "location is required"
		}
	case domain.RoleOwner:
		if strings.TrimSpace(in.BusinessName) == "" {
			fields["businessName"] = "business name is required"
		}
		if strings.TrimSpace(in.BusinessAddress) == "" {
			fields["businessAddress"] = "business address is required"
		}
		check("businessPhone", domain.ValidatePhone(in.BusinessPhone))
		check("turfCount", domain.ValidateOneOf(in.TurfCount, domain.TurfCounts))
	default:
		fields["userType"] = "user type must be player or owner"
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// RegisterResult is returned after a successful registration.
type RegisterResult struct {
	AccountID               uuid.UUID   `json:"userId"`
	Email                   string      `json:"email"`
	UserType                domain.Role `json:"userType"`
	RequiresOTPVerification bool        `json:"requiresOtpVerification"`
}

// Register creates an unverified account and issues its verification code.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if fields := input.Validate(); fields != nil {
		return nil, domain.ErrValidationFields(fields)
	}

	email := domain.NormalizeEmail(input.Email)
	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict("user already exists with this email")
	}
	if input.Username != "" {
		taken, err := s.accounts.FindByUsername(ctx, input.Username)
		if err != nil {
			return nil, domain.ErrInternal("find account", err)
		}
		if taken != nil {
			return nil, domain.ErrConflict("username is already taken")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	a := domain.NewAccount(domain.AccountParams{
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Email:            email,
		Username:         input.Username,
		Phone:            input.Phone,
		PasswordHash:     string(hash),
		Role:             domain.Role(input.UserType),
		PreferredSports:  input.PreferredSports,
		SkillLevel:       input.SkillLevel,
		Location:         input.Location,
		BusinessName:     input.BusinessName,
		BusinessAddress:  input.BusinessAddress,
		BusinessPhone:    input.BusinessPhone,
		TurfCount:        input.TurfCount,
		AgreeToTerms:     input.AgreeToTerms,
		AgreeToMarketing: input.AgreeToMarketing,
	}, s.clock.Now())

	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, storeErr("create account", err)
	}
	if err := s.verification.Issue(ctx, a); err != nil {
		return nil, err
	}

	s.events.record(ctx, domain.NewAccountEvent(a, domain.EventAccountRegistered, a.CreatedAt))
	s.logger.InfoContext(ctx, "account registered", "account_id", a.ID, "role", a.Role)
	return &RegisterResult{
		AccountID:               a.ID,
		Email:                   a.Email,
		UserType:                a.Role,
		RequiresOTPVerification: true,
	}, nil
}

// LoginInput holds the login request fields. Either Email or Username identifies the account.
type LoginInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is returned on successful login.
type AuthResult struct {
	Token                  string          `json:"token"`
	Account                *domain.Account `json:"user"`
	NeedsProfileCompletion bool            `json:"needsProfileCompletion"`
	Created                bool            `json:"-"`
}

// Login authenticates by email or username and password.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	identifier := strings.ToLower(strings.TrimSpace(input.Email))
	if identifier == "" {
		identifier = strings.ToLower(strings.TrimSpace(input.Username))
	}
	if identifier == "" {
		return nil, domain.ErrValidation("please provide email or username")
	}
	if input.Password == "" {
		return nil, domain.ErrValidation("please provide password")
	}

	if s.lockout != nil {
		if err := s.lockout.CheckLocked(identifier); err != nil {
			return nil, err
		}
	}

	var a *domain.Account
	var err error
	if input.Email != "" {
		a, err = s.accounts.FindByEmail(ctx, identifier)
	} else {
		a, err = s.accounts.FindByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}

	hash := s.dummyHash
	if a != nil {
		hash = []byte(a.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(input.Password)); err != nil || a == nil {
		if s.lockout != nil {
			s.lockout.RecordFailure(identifier)
		}
		return nil, domain.ErrInvalidCredentials()
	}

	if err := a.CheckLoginAllowed(); err != nil {
		return nil, err
	}
	if s.lockout != nil {
		s.lockout.Reset(identifier)
	}
	return s.startSession(ctx, a, false)
}

// FirebaseLogin signs in with a federated ID token, creating a verified
// player on first use.
func (s *AuthService) FirebaseLogin(ctx context.Context, idToken string) (*AuthResult, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, domain.ErrValidation("firebase token is required")
	}
	if s.identity == nil {
		return nil, domain.ErrDependency("federated login is not configured", nil)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, s.timeout)
	id, err := s.identity.Verify(verifyCtx, idToken)
	cancel()
	if err != nil {
		return nil, err
	}

	a, err := s.accounts.FindByFirebaseUID(ctx, id.SubjectID)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if a == nil && id.Email != "" {
		if a, err = s.accounts.FindByEmail(ctx, id.Email); err != nil {
			return nil, domain.ErrInternal("find account", err)
		}
	}

	if a != nil {
		if err := s.bindIdentity(ctx, a, id); err != nil {
			return nil, err
		}
		if err := a.CheckLoginAllowed(); err != nil {
			return nil, err
		}
		return s.startSession(ctx, a, false)
	}

	if id.Email == "" {
		return nil, domain.ErrValidation("federated account has no email address")
	}
	a, err = s.createFederatedPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, a, true)
}

// bindIdentity links the federated subject and picture to an existing
// account. It is persisted before the login gates run.
func (s *AuthService) bindIdentity(ctx context.Context, a *domain.Account, id *provider.Identity) error {
	if a.FirebaseUID != nil && (a.Avatar != "" || id.PictureURL == "") {
		return nil
	}
	now := s.clock.Now()
	if err := s.accounts.BindIdentity(ctx, a.ID, id.SubjectID, id.PictureURL, now); err != nil {
		return storeErr("bind federated identity", err)
	}
	if a.FirebaseUID == nil {
		uid := id.SubjectID
		a.FirebaseUID = &uid
	}
	if a.Avatar == "" {
		a.Avatar = id.PictureURL
	}
	a.UpdatedAt = now
	return nil
}

func (s *AuthService) createFederatedPlayer(ctx context.Context, id *provider.Identity) (*domain.Account, error) {
	secret, err := s.rnd.Token(32)
	if err != nil {
		return nil, domain.ErrInternal("generate password", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	first, last, _ := strings.Cut(strings.TrimSpace(id.DisplayName), " ")
	a := domain.NewAccount(domain.AccountParams{
		FirstName:     first,
		LastName:      last,
		Email:         id.Email,
		Phone:         domain.PlaceholderPhone,
		PasswordHash:  string(hash),
		Role:          domain.RolePlayer,
		FirebaseUID:   id.SubjectID,
		Avatar:        id.PictureURL,
		AgreeToTerms:  true,
		EmailVerified: true,
	}, s.clock.Now())

	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, storeErr("create account", err)
	}
	s.events.record(ctx, domain.NewAccountEvent(a, domain.EventAccountRegistered, a.CreatedAt))
	s.logger.InfoContext(ctx, "federated account created", "account_id", a.ID)
	return a, nil
}

// startSession stamps the login time and signs a token.
func (s *AuthService) startSession(ctx context.Context, a *domain.Account, created bool) (*AuthResult, error) {
	now := s.clock.Now()
	a.LastLogin = &now
	if err := s.accounts.RecordLogin(ctx, a.ID, now); err != nil {
		return nil, storeErr("record login", err)
	}

	token, err := s.jwtMgr.GenerateToken(a.ID, a.Role, a.Email)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}
	return &AuthResult{
		Token:                  token,
		Account:                a,
		NeedsProfileCompletion: created || a.NeedsProfileCompletion(),
		Created:                created,
	}, nil
}

// Me returns the account behind a session.
func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	a, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if a == nil {
		return nil, domain.ErrNotFound("account", id.String())
	}
	return a, nil
}

// ProfileInput holds the editable profile fields. Empty values are left unchanged.
type ProfileInput struct {
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Phone           string   `json:"phone"`
	PreferredSports []string `json:"preferredSports"`
	SkillLevel      string   `json:"skillLevel"`
	Location        string   `json:"location"`
	Avatar          string   `json:"avatar"`
}

func (in ProfileInput) validate() map[string]string {
	fields := map[string]string{}
	if in.FirstName != "" {
		if err := domain.ValidateName(in.FirstName); err != nil {
			fields["firstName"] = err.Error()
		}
	}
	if in.LastName != "" {
		if err := domain.ValidateName(in.LastName); err != nil {
			fields["lastName"] = err.Error()
		}
	}
	if in.Phone != "" {
		if err := domain.ValidatePhone(in.Phone); err != nil {
			fields["phone"] = err.Error()
		}
	}
	for _, sport := range in.PreferredSports {
		if err := domain.ValidateOneOf(sport, domain.Sports); err != nil {
			fields["preferredSports"] = err.Error()
			break
		}
	}
	if in.SkillLevel != "" {
		if err := domain.ValidateOneOf(in.SkillLevel, domain.SkillLevels); err != nil {
			fields["skillLevel"] = err.Error()
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// UpdateProfile applies the non-empty profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, input ProfileInput) (*AuthResult, error) {
	if fields := input.validate(); fields != nil {
		return nil, domain.ErrValidationFields(fields)
	}
	a, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != "" {
		a.FirstName = strings.TrimSpace(input.FirstName)
	}
	if input.LastName != "" {
		a.LastName = strings.TrimSpace(input.LastName)
	}
	if input.Phone != "" {
		a.Phone = input.Phone
	}
	if len(input.PreferredSports) > 0 {
		a.PreferredSports = input.PreferredSports
	}
	if input.SkillLevel != "" {
		a.SkillLevel = input.SkillLevel
	}
	if input.Location != "" {
		a.Location = strings.TrimSpace(input.Location)
	}
	if input.Avatar != "" {
		a.Avatar = input.Avatar
	}
	a.UpdatedAt = s.clock.Now()

	if err := s.accounts.UpdateProfile(ctx, a); err != nil {
		return nil, storeErr("update profile", err)
	}
	return &AuthResult{Account: a, NeedsProfileCompletion: a.NeedsProfileCompletion()}, nil
}

// ChangePassword replaces the password after checking the current one and
// returns a fresh token.
func (s *AuthService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) (*AuthResult, error) {
	if err := domain.ValidatePassword(next); err != nil {
		return nil, domain.ErrValidationFields(map[string]string{"newPassword": err.Error()})
	}
	a, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(current)); err != nil {
		return nil, domain.ErrUnauthorized("current password is incorrect")
	}
	if err := s.setPassword(ctx, a, next); err != nil {
		return nil, err
	}
	return s.startSession(ctx, a, false)
}

// ForgotPassword stores a hashed reset token and mails the reset link. If
// the mail cannot be sent the token is cleared again.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return domain.ErrValidationFields(map[string]string{"email": err.Error()})
	}
	a, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return domain.ErrInternal("find account", err)
	}
	if a == nil {
		return domain.ErrNotFound("account", email)
	}

	token, err := s.rnd.Token(resetTokenBytes)
	if err != nil {
		return domain.ErrInternal("generate reset token", err)
	}
	now := s.clock.Now()
	expiry := now.Add(s.resetTTL)
	if err := s.accounts.SetResetToken(ctx, a.ID, HashResetToken(token), &expiry, now); err != nil {
		return storeErr("save reset token", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err = s.notifier.SendPasswordReset(sendCtx, notify.ResetMessage{
		Email:     a.Email,
		Name:      a.DisplayName(),
		Link:      s.frontendURL + "/reset-password/" + token,
		ExpiresIn: s.resetTTL,
	})
	if err != nil {
		clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		if uerr := s.accounts.SetResetToken(clearCtx, a.ID, "", nil, s.clock.Now()); uerr != nil {
			s.logger.ErrorContext(ctx, "clear reset token failed", "account_id", a.ID, "error", uerr)
		}
		return domain.ErrDependency("email could not be sent, please try again later", err)
	}
	return nil
}

// ResetPassword sets a new password using a mailed reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (*AuthResult, error) {
	if err := domain.ValidatePassword(password); err != nil {
		return nil, domain.ErrValidationFields(map[string]string{"password": err.Error()})
	}
	a, err := s.accounts.FindByResetTokenHash(ctx, HashResetToken(token))
	if err != nil {
		return nil, domain.ErrInternal("find account", err)
	}
	if a == nil || token == "" {
		return nil, domain.ErrValidation("invalid reset token")
	}
	if a.ResetTokenExpiry == nil || !s.clock.Now().Before(*a.ResetTokenExpiry) {
		return nil, domain.ErrExpired("reset token has expired, please request a new password reset")
	}

	if err := s.setPassword(ctx, a, password); err != nil {
		return nil, err
	}
	return s.startSession(ctx, a, false)
}

// AdminInput holds the fields for bootstrapping an admin account.
type AdminInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// EnsureAdmin creates a verified admin, or promotes and re-keys an existing
// account with the same email.
func (s *AuthService) EnsureAdmin(ctx context.Context, input AdminInput) (*domain.Account, bool, error) {
	email := domain.NormalizeEmail(input.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, false, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, false, domain.ErrValidation(err.Error())
	}

	a, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, domain.ErrInternal("find account", err)
	}
	if a != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
		if err != nil {
			return nil, false, domain.ErrInternal("hash password", err)
		}
		if err := s.accounts.PromoteAdmin(ctx, a.ID, string(hash), s.clock.Now()); err != nil {
			return nil, false, storeErr("promote admin", err)
		}
		if a, err = s.accounts.FindByID(ctx, a.ID); err != nil {
			return nil, false, domain.ErrInternal("find account", err)
		}
		return a, false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, false, domain.ErrInternal("hash password", err)
	}
	a = domain.NewAccount(domain.AccountParams{
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Email:         email,
		Phone:         domain.PlaceholderPhone,
		PasswordHash:  string(hash),
		Role:          domain.RoleAdmin,
		AgreeToTerms:  true,
		EmailVerified: true,
	}, s.clock.Now())
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, false, storeErr("create admin", err)
	}
	return a, true, nil
}

func (s *AuthService) setPassword(ctx context.Context, a *domain.Account, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.ErrInternal("hash password", err)
	}
	now := s.clock.Now()
	if err := s.accounts.SetPassword(ctx, a.ID, string(hash), now); err != nil {
		return storeErr("save password", err)
	}
	a.PasswordHash = string(hash)
	a.ResetTokenHash = ""
	a.ResetTokenExpiry = nil
	a.UpdatedAt = now
	return nil
}

// HashResetToken returns the stored form of a reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

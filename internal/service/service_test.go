package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/turfease/platform/internal/auth"
	"github.com/turfease/platform/internal/dependencies/mocks"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/guard"
	"github.com/turfease/platform/internal/otp"
	"github.com/turfease/platform/internal/provider"
	"github.com/turfease/platform/internal/repository/memory"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

const testOTPTTL = 10 * time.Minute

// fixture wires every service over in-memory collaborators.
type fixture struct {
	suite.Suite

	ctx      context.Context
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	notifier *mocks.MockNotifier
	accounts *memory.AccountRepository
	turfs    *memory.TurfRepository
	outbox   *memory.OutboxRepository
	codes    *otp.MemoryStore
	identity *fakeIdentity
	jwt      *auth.JWTManager

	verification *VerificationService
	approval     *ApprovalService
	auth         *AuthService
	turf         *TurfService
}

func (f *fixture) SetupTest() {
	f.codes = otp.NewMemoryStore()
	f.build(f.codes)
}

// build wires the services around codes.
func (f *fixture) build(codes otp.Store) {
	f.ctx = context.Background()
	f.clock = mocks.NewMockClock(testNow)
	f.random = mocks.NewMockRandom()
	f.notifier = mocks.NewMockNotifier()
	f.accounts = memory.NewAccountRepository()
	f.turfs = memory.NewTurfRepository()
	f.outbox = memory.NewOutboxRepository()
	f.identity = &fakeIdentity{}
	f.jwt = auth.NewJWTManager("test-secret-key-that-is-long-enough", 168*time.Hour).WithClock(f.clock.Now)
	logger := mocks.NopLogger()

	f.verification = NewVerificationService(VerificationDeps{
		Accounts:  f.accounts,
		Codes:     codes,
		Generator: otp.NewGenerator(f.random, 6, testOTPTTL),
		Notifier:  f.notifier,
		Clock:     f.clock,
		Limiter:   guard.NewRateLimiterWithClock(3, 10*time.Minute, f.clock),
		Outbox:    f.outbox,
		Timeout:   time.Second,
		Logger:    logger,
	})
	f.approval = NewApprovalService(f.accounts, f.notifier, f.clock, f.outbox, time.Second, logger)
	f.auth = NewAuthService(AuthDeps{
		Accounts:     f.accounts,
		Verification: f.verification,
		Identity:     f.identity,
		Notifier:     f.notifier,
		JWT:          f.jwt,
		Lockout:      guard.NewLockout(f.clock),
		Clock:        f.clock,
		Random:       f.random,
		Outbox:       f.outbox,
		ResetTTL:     30 * time.Minute,
		FrontendURL:  "https://turfease.test/",
		Timeout:      time.Second,
		BcryptCost:   bcrypt.MinCost,
		Logger:       logger,
	})
	f.turf = NewTurfService(f.turfs, &fakeMedia{}, f.clock, f.outbox, logger)
}

func (f *fixture) TearDownTest() {
	f.approval.Wait()
}

func playerInput(email string) RegisterInput {
	return RegisterInput{
		FirstName:       "Priya",
		LastName:        "Shah",
		Email:           email,
		Phone:           "9876543210",
		Password:        "password123",
		UserType:        "player",
		PreferredSports: []string{"Football"},
		SkillLevel:      "Intermediate",
		Location:        "Pune",
		AgreeToTerms:    true,
	}
}

func ownerInput(email string) RegisterInput {
	return RegisterInput{
		FirstName:       "Omar",
		LastName:        "Khan",
		Email:           email,
		Phone:           "9876543210",
		Password:        "password123",
		UserType:        "owner",
		BusinessName:    "X",
		BusinessAddress: "12 Stadium Road",
		BusinessPhone:   "9123456780",
		TurfCount:       "2-5",
		AgreeToTerms:    true,
	}
}

// register creates an account with a known code.
func (f *fixture) register(in RegisterInput, code string) *domain.Account {
	f.random.Push(code)
	res, err := f.auth.Register(f.ctx, in)
	f.Require().NoError(err)
	a, err := f.accounts.FindByID(f.ctx, res.AccountID)
	f.Require().NoError(err)
	f.Require().NotNil(a)
	return a
}

// setAccess rewrites the activity flags of a stored account. No service
// exposes them, so the record is replaced directly.
func (f *fixture) setAccess(a *domain.Account, active, blocked bool) {
	stored, err := f.accounts.FindByID(f.ctx, a.ID)
	f.Require().NoError(err)
	f.Require().NotNil(stored)
	stored.Active, stored.Blocked = active, blocked
	f.Require().NoError(f.accounts.Delete(f.ctx, a.ID))
	f.Require().NoError(f.accounts.Create(f.ctx, stored))
}

func (f *fixture) requireCode(err error, code string) {
	f.T().Helper()
	f.Require().Error(err)
	f.Require().Equal(code, domain.CodeOf(err), "got %v", err)
}

type fakeIdentity struct {
	identity *provider.Identity
	err      error
}

func (f *fakeIdentity) Verify(context.Context, string) (*provider.Identity, error) {
	return f.identity, f.err
}

type fakeMedia struct {
	uploads int
	err     error
}

func (m *fakeMedia) Upload(_ context.Context, data []byte, folder, _ string) (*provider.UploadResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.uploads++
	return &provider.UploadResult{
		URL:      "https://media.test/" + folder + "/" + uuid.NewString() + ".jpg",
		PublicID: folder + "/" + uuid.NewString(),
		Size:     len(data),
	}, nil
}

func (m *fakeMedia) UploadMany(ctx context.Context, images [][]byte, folder string) ([]provider.UploadResult, []provider.UploadFailure) {
	var results []provider.UploadResult
	var failures []provider.UploadFailure
	for i, img := range images {
		res, err := m.Upload(ctx, img, folder, "")
		if err != nil {
			failures = append(failures, provider.UploadFailure{Index: i, Error: err.Error()})
			continue
		}
		results = append(results, *res)
	}
	return results, failures
}

func (m *fakeMedia) Delete(context.Context, string) error { return m.err }

func (m *fakeMedia) OptimizedURL(publicID string, t provider.ImageTransform) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "https://media.test/" + t.String() + "/" + publicID, nil
}

package app

import (
	"log/slog"
	"time"

	"github.com/turfease/platform/internal/auth"
	"github.com/turfease/platform/internal/dependencies/clock"
	"github.com/turfease/platform/internal/dependencies/random"
	"github.com/turfease/platform/internal/guard"
	"github.com/turfease/platform/internal/notify"
	"github.com/turfease/platform/internal/otp"
	"github.com/turfease/platform/internal/provider"
	"github.com/turfease/platform/internal/repository"
	"github.com/turfease/platform/internal/service"
)

// reissue limit per account.
const (
	reissueLimit  = 3
	reissueWindow = 10 * time.Minute
)

// ServiceDeps holds the stores, collaborators and settings the services need.
type ServiceDeps struct {
	Accounts repository.AccountRepository
	Turfs    repository.TurfRepository
	Outbox   repository.OutboxRepository
	Codes    otp.Store

	Notifier notify.Notifier
	Identity provider.IdentityVerifier
	Media    service.MediaStore

	JWT    *auth.JWTManager
	Clock  clock.Clock
	Random random.Random

	OTPLength       int
	OTPTTL          time.Duration
	ResetTokenTTL   time.Duration
	FrontendURL     string
	ExternalTimeout time.Duration
	BcryptCost      int

	Logger *slog.Logger
}

// Services bundles every application service.
type Services struct {
	Verification *service.VerificationService
	Approval     *service.ApprovalService
	Auth         *service.AuthService
	Turfs        *service.TurfService
	Uploads      *service.UploadService
}

// NewServices builds the services over d.
func NewServices(d ServiceDeps) *Services {
	verification := service.NewVerificationService(service.VerificationDeps{
		Accounts:  d.Accounts,
		Codes:     d.Codes,
		Generator: otp.NewGenerator(d.Random, d.OTPLength, d.OTPTTL),
		Notifier:  d.Notifier,
		Clock:     d.Clock,
		Limiter:   guard.NewRateLimiterWithClock(reissueLimit, reissueWindow, d.Clock),
		Outbox:    d.Outbox,
		Timeout:   d.ExternalTimeout,
		Logger:    d.Logger,
	})

	return &Services{
		Verification: verification,
		Approval:     service.NewApprovalService(d.Accounts, d.Notifier, d.Clock, d.Outbox, d.ExternalTimeout, d.Logger),
		Auth: service.NewAuthService(service.AuthDeps{
			Accounts:     d.Accounts,
			Verification: verification,
			Identity:     d.Identity,
			Notifier:     d.Notifier,
			JWT:          d.JWT,
			Lockout:      guard.NewLockout(d.Clock),
			Clock:        d.Clock,
			Random:       d.Random,
			Outbox:       d.Outbox,
			ResetTTL:     d.ResetTokenTTL,
			FrontendURL:  d.FrontendURL,
			Timeout:      d.ExternalTimeout,
			BcryptCost:   d.BcryptCost,
			Logger:       d.Logger,
		}),
		Turfs:   service.NewTurfService(d.Turfs, d.Media, d.Clock, d.Outbox, d.Logger),
		Uploads: service.NewUploadService(d.Media),
	}
}

// Wait blocks until background notifications have finished.
func (s *Services) Wait() {
	s.Approval.Wait()
}

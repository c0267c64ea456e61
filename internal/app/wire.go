package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/turfease/platform/internal/auth"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/guard"
	"github.com/turfease/platform/internal/handler"
	adminhandler "github.com/turfease/platform/internal/handler/admin"
	"github.com/turfease/platform/internal/infra"
)

// per-IP limit on /api.
const (
	apiRateLimit  = 100
	apiRateWindow = 15 * time.Minute

	defaultRequestTimeout = 30 * time.Second
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Services       *Services
	JWTMgr         *auth.JWTManager
	Logger         *slog.Logger
	AllowedOrigins []string
	Health         map[string]infra.Pinger

	// RateLimiter overrides the default per-IP limiter.
	RateLimiter *guard.RateLimiter

	// RequestTimeout is the deadline put on every /api request context.
	RequestTimeout time.Duration
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	jwtMgr := deps.JWTMgr
	logger := deps.Logger
	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = guard.NewRateLimiter(apiRateLimit, apiRateWindow)
	}
	requestTimeout := deps.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	// Handlers
	authHandler := handler.NewAuthHandler(deps.Services.Auth, deps.Services.Verification)
	turfHandler := handler.NewTurfHandler(deps.Services.Turfs)
	uploadHandler := handler.NewUploadHandler(deps.Services.Uploads)
	ownerAdmin := adminhandler.NewOwnerAdminHandler(deps.Services.Approval)

	authenticate := auth.Authenticate(jwtMgr)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(deps.AllowedOrigins...))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(deps.Health))

	r.Route("/api", func(r chi.Router) {
		r.Use(handler.RateLimit(limiter))
		r.Use(middleware.Timeout(requestTimeout))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/firebase", authHandler.FirebaseLogin)
			r.Post("/verify-otp", authHandler.VerifyOTP)
			r.Post("/resend-otp", authHandler.ResendOTP)
			r.Post("/forgotpassword", authHandler.ForgotPassword)
			r.Put("/resetpassword/{token}", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/me", authHandler.Me)
				r.Put("/profile", authHandler.UpdateProfile)
				r.Put("/password", authHandler.ChangePassword)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/turfs", func(r chi.Router) {
			r.Get("/", turfHandler.List)
			r.Get("/nearby", turfHandler.Nearby)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.With(auth.RequireRole(auth.ListingRoles()...)).Get("/owner/my", turfHandler.Mine)
				r.With(auth.RequireRole(auth.ListingRoles()...)).Post("/", turfHandler.Create)
				r.With(auth.RequireRole(auth.ListingRoles()...)).Put("/{id}", turfHandler.Update)
				r.With(auth.RequireRole(auth.ListingRoles()...)).Delete("/{id}", turfHandler.Delete)
				r.With(auth.RequireRole(auth.AdminRoles()...)).Put("/{id}/approve", turfHandler.Approve)
			})

			r.Get("/{id}", turfHandler.Get)
		})

		r.Route("/upload", func(r chi.Router) {
			r.Get("/optimize/*", uploadHandler.Optimize)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/image", uploadHandler.UploadImage)
				r.Post("/images", uploadHandler.UploadImages)
				r.Delete("/image/{publicId}", uploadHandler.DeleteImage)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(auth.RequireRole(domain.RoleAdmin))

			r.Get("/users", ownerAdmin.ListUsers)
			r.Get("/owners", ownerAdmin.ListOwners)
			r.Get("/pending-owners", ownerAdmin.ListPendingOwners)
			r.Get("/owners/{id}", ownerAdmin.GetOwner)
			r.Put("/owners/{id}/approval", ownerAdmin.DecideOwner)
		})
	})

	return r
}

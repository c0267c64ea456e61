package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/turfease/platform/internal/auth"
	"github.com/turfease/platform/internal/dependencies/mocks"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/guard"
	"github.com/turfease/platform/internal/otp"
	"github.com/turfease/platform/internal/provider"
	"github.com/turfease/platform/internal/repository/memory"
	"github.com/turfease/platform/internal/service"
	"golang.org/x/crypto/bcrypt"
)

type RouterSuite struct {
	suite.Suite

	clock    *mocks.MockClock
	random   *mocks.MockRandom
	notifier *mocks.MockNotifier
	services *Services
	server   *httptest.Server
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.notifier = mocks.NewMockNotifier()
	logger := mocks.NopLogger()
	jwtMgr := auth.NewJWTManager("router-test-secret-0123456789abcdef", time.Hour).WithClock(s.clock.Now)

	s.services = NewServices(ServiceDeps{
		Accounts:        memory.NewAccountRepository(),
		Turfs:           memory.NewTurfRepository(),
		Outbox:          memory.NewOutboxRepository(),
		Codes:           otp.NewMemoryStore(),
		Notifier:        s.notifier,
		Identity:        provider.NewFirebaseVerifier("", "", time.Second, s.clock, logger),
		Media:           provider.NewCloudinaryClient(provider.CloudinaryConfig{}, s.clock, logger),
		JWT:             jwtMgr,
		Clock:           s.clock,
		Random:          s.random,
		OTPLength:       6,
		OTPTTL:          10 * time.Minute,
		ResetTokenTTL:   30 * time.Minute,
		FrontendURL:     "http://localhost:3000",
		ExternalTimeout: time.Second,
		BcryptCost:      bcrypt.MinCost,
		Logger:          logger,
	})

	s.server = httptest.NewServer(NewRouter(RouterDeps{
		Services:       s.services,
		JWTMgr:         jwtMgr,
		Logger:         logger,
		AllowedOrigins: []string{"*"},
		RateLimiter:    guard.NewRateLimiterWithClock(1000, time.Minute, s.clock),
	}))
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
	s.services.Wait()
}

func (s *RouterSuite) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func ownerRegistration() map[string]interface{} {
	return map[string]interface{}{
		"firstName":       "Omar",
		"lastName":        "Khan",
		"email":           "omar@example.com",
		"phone":           "9876543210",
		"password":        "password123",
		"userType":        "owner",
		"businessName":    "X",
		"businessAddress": "12 Stadium Road",
		"businessPhone":   "9123456780",
		"turfCount":       "1",
		"agreeToTerms":    true,
	}
}

func (s *RouterSuite) adminToken() string {
	_, _, err := s.services.Auth.EnsureAdmin(s.T().Context(), service.AdminInput{
		Email: "admin@example.com", Password: "admin-password", FirstName: "Site", LastName: "Admin",
	})
	s.Require().NoError(err)
	status, body := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "admin-password",
	})
	s.Require().Equal(http.StatusOK, status, body)
	return body["token"].(string)
}

func (s *RouterSuite) TestOwnerOnboardingFlow() {
	s.random.Push("482913")
	status, body := s.do(http.MethodPost, "/api/auth/register", "", ownerRegistration())
	s.Require().Equal(http.StatusCreated, status, body)
	s.Equal("owner", body["userType"])
	s.Equal(true, body["requiresOtpVerification"])
	userID := body["userId"].(string)

	status, body = s.do(http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"userId": userID, "otp": "000000"})
	s.Equal(http.StatusBadRequest, status)
	s.Equal("OTP_MISMATCH", body["code"])

	status, body = s.do(http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"userId": userID, "otp": "482913"})
	s.Require().Equal(http.StatusOK, status, body)
	s.Contains(body["message"], "pending admin approval")

	login := map[string]string{"email": "omar@example.com", "password": "password123"}
	status, body = s.do(http.MethodPost, "/api/auth/login", "", login)
	s.Equal(http.StatusForbidden, status)
	s.Equal("PENDING_APPROVAL", body["code"])

	admin := s.adminToken()
	status, body = s.do(http.MethodGet, "/api/admin/pending-owners", admin, nil)
	s.Require().Equal(http.StatusOK, status, body)
	s.Equal(float64(1), body["total"])

	status, body = s.do(http.MethodPut, "/api/admin/owners/"+userID+"/approval", admin,
		map[string]string{"status": "approved", "notes": "welcome"})
	s.Require().Equal(http.StatusOK, status, body)

	status, body = s.do(http.MethodPut, "/api/admin/owners/"+userID+"/approval", admin,
		map[string]string{"status": "rejected"})
	s.Equal(http.StatusConflict, status)
	s.Equal("ALREADY_DECIDED", body["code"])

	status, body = s.do(http.MethodPost, "/api/auth/login", "", login)
	s.Require().Equal(http.StatusOK, status, body)
	ownerToken := body["token"].(string)

	status, body = s.do(http.MethodPost, "/api/turfs", ownerToken, map[string]interface{}{
		"name":         "Arena",
		"location":     map[string]interface{}{"address": "1 Ground Lane", "coordinates": map[string]float64{"lat": 18.52, "lng": 73.85}},
		"pricePerHour": 1200,
		"images":       []string{"https://img.test/a.jpg"},
	})
	s.Require().Equal(http.StatusCreated, status, body)
	turfID := body["id"].(string)

	status, _ = s.do(http.MethodPut, "/api/turfs/"+turfID+"/approve", ownerToken, nil)
	s.Equal(http.StatusForbidden, status)

	status, _ = s.do(http.MethodPut, "/api/turfs/"+turfID+"/approve", admin, nil)
	s.Equal(http.StatusOK, status)

	status, body = s.do(http.MethodGet, "/api/turfs/nearby?lat=18.52&lng=73.85", "", nil)
	s.Require().Equal(http.StatusOK, status, body)
	s.Equal(float64(1), body["count"])

	status, body = s.do(http.MethodGet, "/api/turfs/owner/my", ownerToken, nil)
	s.Require().Equal(http.StatusOK, status, body)
	s.Equal(float64(1), body["count"])
}

func (s *RouterSuite) TestRegisterValidationReturnsFields() {
	in := ownerRegistration()
	in["email"] = "bad"
	status, body := s.do(http.MethodPost, "/api/auth/register", "", in)
	s.Equal(http.StatusBadRequest, status)
	s.Equal("VALIDATION_ERROR", body["code"])
	fields, ok := body["fields"].(map[string]interface{})
	s.Require().True(ok)
	s.Contains(fields, "email")
}

func (s *RouterSuite) TestVerifyRejectsMalformedCode() {
	status, body := s.do(http.MethodPost, "/api/auth/verify-otp", "",
		map[string]string{"userId": "9b2f8f6e-4d0f-4f43-9d55-8c1f7e0f0a11", "otp": "12ab"})
	s.Equal(http.StatusBadRequest, status)
	s.Equal("VALIDATION_ERROR", body["code"])
}

func (s *RouterSuite) TestProtectedRoutesRequireToken() {
	status, _ := s.do(http.MethodGet, "/api/auth/me", "", nil)
	s.Equal(http.StatusUnauthorized, status)

	status, _ = s.do(http.MethodGet, "/api/admin/users", "garbage", nil)
	s.Equal(http.StatusUnauthorized, status)
}

func (s *RouterSuite) TestOptimizeIsPublicButUploadsAreNot() {
	status, body := s.do(http.MethodGet, "/api/upload/optimize/turfs/abc?width=400", "", nil)
	s.Require().Equal(http.StatusOK, status, body)
	s.Equal("turfs/abc", body["publicId"])
	s.NotEmpty(body["url"])

	status, _ = s.do(http.MethodDelete, "/api/upload/image/abc", "", nil)
	s.Equal(http.StatusUnauthorized, status)
}

func (s *RouterSuite) TestPlayerCannotUseAdminRoutes() {
	s.random.Push("111111")
	in := ownerRegistration()
	in["userType"] = "player"
	in["preferredSports"] = []string{"Football"}
	in["skillLevel"] = "Beginner"
	in["location"] = "Pune"
	status, body := s.do(http.MethodPost, "/api/auth/register", "", in)
	s.Require().Equal(http.StatusCreated, status, body)

	status, body = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "omar@example.com", "password": "password123",
	})
	s.Require().Equal(http.StatusOK, status, body)
	token := body["token"].(string)

	status, body = s.do(http.MethodGet, "/api/admin/users", token, nil)
	s.Equal(http.StatusForbidden, status)
	s.Equal("FORBIDDEN", body["code"])

	status, _ = s.do(http.MethodPost, "/api/turfs", token, map[string]string{})
	s.Equal(http.StatusForbidden, status)

	status, body = s.do(http.MethodGet, "/api/auth/me", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(false, body["needsProfileCompletion"])
}

func (s *RouterSuite) TestHealth() {
	status, body := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("healthy", body["status"])
}

func TestRouter_RateLimitsPerIP(t *testing.T) {
	clk := mocks.NewMockClock(time.Now())
	logger := mocks.NopLogger()
	services := NewServices(ServiceDeps{
		Accounts: memory.NewAccountRepository(),
		Turfs:    memory.NewTurfRepository(),
		Codes:    otp.NewMemoryStore(),
		Notifier: mocks.NewMockNotifier(),
		Media:    provider.NewCloudinaryClient(provider.CloudinaryConfig{}, clk, logger),
		JWT:      auth.NewJWTManager("router-test-secret-0123456789abcdef", time.Hour),
		Clock:    clk,
		Random:   mocks.NewMockRandom(),
		Logger:   logger,
	})
	router := NewRouter(RouterDeps{
		Services:    services,
		JWTMgr:      auth.NewJWTManager("router-test-secret-0123456789abcdef", time.Hour),
		Logger:      logger,
		RateLimiter: guard.NewRateLimiterWithClock(2, time.Minute, clk),
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/turfs", nil)
		req.RemoteAddr = "10.1.1.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.1.1.1:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

// deadlineAccounts records whether lookups ran under a deadline.
type deadlineAccounts struct {
	*memory.AccountRepository
	sawDeadline chan bool
}

func (r *deadlineAccounts) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	_, ok := ctx.Deadline()
	r.sawDeadline <- ok
	return r.AccountRepository.FindByEmail(ctx, email)
}

func TestRouter_APIRequestsCarryDeadline(t *testing.T) {
	clk := mocks.NewMockClock(time.Now())
	logger := mocks.NopLogger()
	accounts := &deadlineAccounts{AccountRepository: memory.NewAccountRepository(), sawDeadline: make(chan bool, 1)}
	jwtMgr := auth.NewJWTManager("router-test-secret-0123456789abcdef", time.Hour)
	services := NewServices(ServiceDeps{
		Accounts: accounts,
		Turfs:    memory.NewTurfRepository(),
		Codes:    otp.NewMemoryStore(),
		Notifier: mocks.NewMockNotifier(),
		Media:    provider.NewCloudinaryClient(provider.CloudinaryConfig{}, clk, logger),
		JWT:      jwtMgr,
		Clock:    clk,
		Random:   mocks.NewMockRandom(),
		Logger:   logger,
	})
	router := NewRouter(RouterDeps{
		Services:       services,
		JWTMgr:         jwtMgr,
		Logger:         logger,
		RequestTimeout: 2 * time.Second,
	})

	body := bytes.NewBufferString(`{"email":"nobody@example.com","password":"password123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	select {
	case ok := <-accounts.sawDeadline:
		assert.True(t, ok, "repository call must be bounded")
	default:
		t.Fatal("login never reached the account store")
	}
}

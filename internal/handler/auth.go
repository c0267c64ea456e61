package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/turfease/platform/internal/auth"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/service"
)

// AuthHandler handles registration, verification, login and account endpoints.
type AuthHandler struct {
	authSvc   *service.AuthService
	verifySvc *service.VerificationService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, verifySvc *service.VerificationService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, verifySvc: verifySvc}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}

	result, err := h.authSvc.Register(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":                 "Registration successful. Please check your email for the verification code.",
		"userId":                  result.AccountID,
		"email":                   result.Email,
		"userType":                result.UserType,
		"requiresOtpVerification": result.RequiresOTPVerification,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}

	result, err := h.authSvc.Login(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// FirebaseLogin handles POST /api/auth/firebase.
func (h *AuthHandler) FirebaseLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IDToken string `json:"idToken"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}

	result, err := h.authSvc.FirebaseLogin(r.Context(), input.IDToken)
	if err != nil {
		RespondError(w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	RespondJSON(w, status, result)
}

type verifyRequest struct {
	UserID uuid.UUID `json:"userId"`
	OTP    string    `json:"otp"`
}

// VerifyOTP handles POST /api/auth/verify-otp.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var input verifyRequest
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}
	if input.UserID == uuid.Nil {
		RespondError(w, domain.ErrValidationFields(map[string]string{"userId": "user id is required"}))
		return
	}
	if err := domain.ValidateOTPFormat(input.OTP, h.verifySvc.CodeLength()); err != nil {
		RespondError(w, domain.ErrValidationFields(map[string]string{"otp": err.Error()}))
		return
	}

	a, err := h.verifySvc.Verify(r.Context(), input.UserID, input.OTP)
	if err != nil {
		RespondError(w, err)
		return
	}

	message := "Email verified successfully! You can now login to your account."
	if a.Role == domain.RoleOwner {
		message = "Email verified successfully! Your account is pending admin approval. You will be notified once approved."
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":  message,
		"userType": a.Role,
		"user":     a,
	})
}

// ResendOTP handles POST /api/auth/resend-otp.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var input verifyRequest
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}
	if input.UserID == uuid.Nil {
		RespondError(w, domain.ErrValidationFields(map[string]string{"userId": "user id is required"}))
		return
	}

	a, err := h.verifySvc.Reissue(r.Context(), input.UserID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "A new verification code has been sent to your email.",
		"email":   a.Email,
	})
}

// ForgotPassword handles POST /api/auth/forgotpassword.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}
	if err := h.authSvc.ForgotPassword(r.Context(), input.Email); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"message": "Email sent"})
}

// ResetPassword handles PUT /api/auth/resetpassword/{token}.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password string `json:"password"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}

	result, err := h.authSvc.ResetPassword(r.Context(), chi.URLParam(r, "token"), input.Password)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	a, err := h.authSvc.Me(r.Context(), auth.AccountIDFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"user":                   a,
		"needsProfileCompletion": a.NeedsProfileCompletion(),
	})
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input service.ProfileInput
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}

	result, err := h.authSvc.UpdateProfile(r.Context(), auth.AccountIDFromContext(r.Context()), input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		respondBadBody(w)
		return
	}

	result, err := h.authSvc.ChangePassword(r.Context(), auth.AccountIDFromContext(r.Context()),
		input.CurrentPassword, input.NewPassword)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Logout handles POST /api/auth/logout. Sessions are stateless, so the
// client simply discards its token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

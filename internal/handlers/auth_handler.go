package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"driverhire/internal/middleware"
	"driverhire/internal/models"
	"driverhire/internal/services"
	"driverhire/internal/utils"
	"driverhire/pkg/logger"
)

// FlowSignOut removes a revoked session from live booking flows.
type FlowSignOut interface {
	RevokeSession(sessionID string) int
}

type AuthHandler struct {
	otp    services.OTPService
	auth   services.AuthService
	flows  FlowSignOut
	logger *logger.Logger
}

func NewAuthHandler(otp services.OTPService, auth services.AuthService, flows FlowSignOut, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		otp:    otp,
		auth:   auth,
		flows:  flows,
		logger: log,
	}
}

type SendOTPRequest struct {
	MobileNumber string `json:"mobileno" validate:"required,mobile10"`
	Purpose      string `json:"purpose" validate:"omitempty,oneof=booking signup"`
}

type VerifyOTPRequest struct {
	MobileNumber string `json:"mobileno" validate:"required,mobile10"`
	OTP          string `json:"otp" validate:"required,numeric_code"`
	Purpose      string `json:"purpose" validate:"omitempty,oneof=booking signup"`
}

// SendOTP issues a code for the booking login or the signup flow.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var request SendOTPRequest
	if !bindAndValidate(c, &request) {
		return
	}

	result, err := h.otp.SendCode(c.Request.Context(), request.MobileNumber, purposeOf(request.Purpose))
	if err != nil {
		respondAuthError(c, err)
		return
	}

	utils.SuccessResponse(c, "OTP sent successfully", result)
}

// VerifyOTP verifies a code. Booking codes mint a session; signup codes
// only confirm ownership and are consumed again by Signup.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var request VerifyOTPRequest
	if !bindAndValidate(c, &request) {
		return
	}

	ctx := c.Request.Context()
	if purposeOf(request.Purpose) == models.OTPPurposeSignup {
		if err := h.otp.Verify(ctx, request.MobileNumber, request.OTP, models.OTPPurposeSignup); err != nil {
			respondAuthError(c, err)
			return
		}
		utils.SuccessResponse(c, "OTP verified successfully", gin.H{"verified": true})
		return
	}

	session, err := h.otp.VerifyCode(ctx, request.MobileNumber, request.OTP)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	utils.SuccessResponse(c, "OTP verified successfully", gin.H{
		"verified":   true,
		"session":    session,
		"token_type": "Bearer",
	})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var request services.SignupRequest
	if !bindAndValidate(c, &request) {
		return
	}

	response, err := h.auth.Signup(c.Request.Context(), &request)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	utils.CreatedResponse(c, "Account created successfully", response)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var request services.LoginRequest
	if !bindAndValidate(c, &request) {
		return
	}

	response, err := h.auth.Login(c.Request.Context(), &request)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	utils.SuccessResponse(c, "Login successful", response)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := middleware.SessionFrom(c)
	if session == nil {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), session.ID); err != nil {
		h.logger.WithError(err).Error("Failed to revoke session")
		utils.InternalServerErrorResponse(c)
		return
	}
	if h.flows != nil {
		h.flows.RevokeSession(session.ID)
	}

	utils.SuccessResponse(c, "Logged out successfully", nil)
}

func purposeOf(value string) models.OTPPurpose {
	if models.OTPPurpose(value) == models.OTPPurposeSignup {
		return models.OTPPurposeSignup
	}
	return models.OTPPurposeBooking
}

// respondAuthError renders authentication failures as field-level
// messages. Raw error strings never reach the client.
func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidMobile):
		utils.ValidationErrorResponse(c, map[string]string{"mobileno": services.OTPErrorMessage(err)})
	case errors.Is(err, services.ErrWeakPassword):
		utils.ValidationErrorResponse(c, map[string]string{"password": "Password is too short."})
	case errors.Is(err, services.ErrUserExists):
		utils.ErrorResponse(c, http.StatusConflict, "USER_EXISTS", "An account already exists for this number.")
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Mobile number or password is incorrect.")
	case errors.Is(err, services.ErrOTPDelivery):
		utils.ErrorResponse(c, http.StatusBadGateway, "OTP_DELIVERY_FAILED", services.OTPErrorMessage(err))
	case errors.Is(err, services.ErrOTPUnavailable):
		utils.ErrorResponse(c, http.StatusBadGateway, "OTP_UNAVAILABLE", services.OTPErrorMessage(err))
	case errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrOTPMismatch),
		errors.Is(err, services.ErrOTPAlreadyUsed),
		errors.Is(err, services.ErrOTPAttemptsExhausted),
		errors.Is(err, services.ErrOTPNotFound):
		utils.ErrorResponseWithDetails(c, http.StatusUnauthorized, "OTP_INVALID", services.OTPErrorMessage(err),
			map[string]string{"otp": services.OTPErrorMessage(err)})
	default:
		utils.InternalServerErrorResponse(c)
	}
}

func bindAndValidate(c *gin.Context, request interface{}) bool {
	if err := c.ShouldBindJSON(request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return false
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.ValidationErrorResponse(c, utils.ValidationErrorsToMap(err))
		return false
	}
	return true
}

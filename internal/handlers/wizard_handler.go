package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"driverhire/internal/middleware"
	"driverhire/internal/models"
	"driverhire/internal/services"
	"driverhire/internal/utils"
	"driverhire/internal/wizard"
	"driverhire/pkg/logger"
	"driverhire/pkg/websocket"
)

// WizardHandler exposes server-held booking flows. The same handler
// serves the multi-step wizard and the daily form.
type WizardHandler struct {
	registry      *wizard.Registry
	ws            *websocket.Handler
	submitTimeout time.Duration
	logger        *logger.Logger
}

// NewWizardHandler bounds each booking submission by submitTimeout rather
// than by the client connection.
func NewWizardHandler(registry *wizard.Registry, ws *websocket.Handler, submitTimeout time.Duration, log *logger.Logger) *WizardHandler {
	if submitTimeout <= 0 {
		submitTimeout = 15 * time.Second
	}
	return &WizardHandler{
		registry:      registry,
		ws:            ws,
		submitTimeout: submitTimeout,
		logger:        log,
	}
}

type CreateFlowRequest struct {
	TripType string `json:"tripType" validate:"required,oneof=one-way round-trip outstation"`
}

type FlowOTPRequest struct {
	MobileNumber string `json:"mobileno"`
}

type FlowVerifyRequest struct {
	OTP string `json:"otp" validate:"required,numeric_code"`
}

func (h *WizardHandler) CreateWizard(c *gin.Context) {
	var request CreateFlowRequest
	if !bindAndValidate(c, &request) {
		return
	}
	tripType, err := models.ParseTripType(request.TripType)
	if err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"tripType": "Unsupported trip type."})
		return
	}
	h.create(c, tripType)
}

func (h *WizardHandler) CreateDaily(c *gin.Context) {
	h.create(c, models.TripTypeDaily)
}

func (h *WizardHandler) create(c *gin.Context, tripType models.TripType) {
	flow, _, err := h.registry.CreateWizard(tripType, middleware.SessionFrom(c))
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	utils.CreatedResponse(c, "Booking started", flow.State())
}

func (h *WizardHandler) GetState(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, "Booking state", flow.State())
}

func (h *WizardHandler) Update(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	var patch wizard.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	state, err := flow.Update(&patch)
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	utils.SuccessResponse(c, "Booking updated", state)
}

func (h *WizardHandler) Next(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	state, err := w.Next()
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	utils.SuccessResponse(c, "Step completed", state)
}

func (h *WizardHandler) Back(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, "Step changed", w.Back())
}

func (h *WizardHandler) SendOTP(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	var request FlowOTPRequest
	// The body is optional; the draft's phone number is used when absent.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			utils.BadRequestResponse(c, "Invalid request body")
			return
		}
	}
	result, err := flow.SendOTP(c.Request.Context(), request.MobileNumber)
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	utils.SuccessResponse(c, "OTP sent successfully", result)
}

func (h *WizardHandler) VerifyOTP(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	var request FlowVerifyRequest
	if !bindAndValidate(c, &request) {
		return
	}
	state, err := flow.VerifyOTP(c.Request.Context(), request.OTP)
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	utils.SuccessResponse(c, "OTP verified successfully", state)
}

func (h *WizardHandler) Submit(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	// Submission cannot be retried, so a client disconnect must not abort
	// a booking the legacy API may already have created.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.submitTimeout)
	defer cancel()
	result, state, err := flow.Submit(ctx)
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	if !result.Success {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "BOOKING_REJECTED", result.Message)
		return
	}
	utils.SuccessResponse(c, "Booking confirmed", gin.H{
		"result": result,
		"state":  state,
	})
}

func (h *WizardHandler) Cancel(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, "Booking cancelled", flow.Cancel())
}

func (h *WizardHandler) Close(c *gin.Context) {
	if _, ok := h.flow(c); !ok {
		return
	}
	h.registry.Remove(c.Param("id"))
	utils.SuccessResponse(c, "Booking closed", nil)
}

// FareStream pushes fare updates for the flow over a websocket. The
// current estimate is sent first.
func (h *WizardHandler) FareStream(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	fare := flow.State().Fare
	h.ws.Subscribe(c, c.Param("id"), &websocket.Message{
		Type: "fare_update",
		Data: map[string]interface{}{
			"seq":     fare.Seq,
			"fare":    fare.Fare,
			"notice":  fare.Notice,
			"pending": fare.Pending,
		},
	})
}

// flow looks up the flow and attaches the caller's session when the
// request carries one.
func (h *WizardHandler) flow(c *gin.Context) (wizard.Flow, bool) {
	flow, err := h.registry.Get(c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, "Booking")
		return nil, false
	}
	if session := middleware.SessionFrom(c); session != nil {
		flow.Authenticate(session)
	}
	return flow, true
}

func (h *WizardHandler) wizard(c *gin.Context) (*wizard.Wizard, bool) {
	flow, ok := h.flow(c)
	if !ok {
		return nil, false
	}
	w, isWizard := flow.(*wizard.Wizard)
	if !isWizard {
		utils.ErrorResponse(c, http.StatusConflict, "WRONG_STEP", "The daily booking has a single screen.")
		return nil, false
	}
	return w, true
}

func (h *WizardHandler) respondFlowError(c *gin.Context, err error) {
	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		utils.ValidationErrorResponse(c, verrs)
	case errors.Is(err, wizard.ErrInvalidPatch):
		utils.BadRequestResponse(c, "One or more fields could not be updated.")
	case errors.Is(err, wizard.ErrWrongStep):
		utils.ErrorResponse(c, http.StatusConflict, "WRONG_STEP", "This action is not available at the current step.")
	case errors.Is(err, wizard.ErrBusy):
		utils.ErrorResponse(c, http.StatusConflict, "BUSY", "A booking is already being submitted.")
	case errors.Is(err, wizard.ErrFlowNotFound):
		utils.NotFoundResponse(c, "Booking")
	case errors.Is(err, services.ErrInvalidMobile),
		errors.Is(err, services.ErrOTPDelivery),
		errors.Is(err, services.ErrOTPUnavailable),
		errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrOTPMismatch),
		errors.Is(err, services.ErrOTPAlreadyUsed),
		errors.Is(err, services.ErrOTPAttemptsExhausted),
		errors.Is(err, services.ErrOTPNotFound):
		respondAuthError(c, err)
	default:
		h.logger.WithError(err).Error("Booking flow request failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "BOOKING_FAILED", utils.ErrBookingFailed)
	}
}

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

type BookingHandler struct {
	bookings services.BookingService
	logger   *logger.Logger
}

func NewBookingHandler(bookings services.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		logger:   log,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// History lists upcoming and past trips for the authenticated customer.
func (h *BookingHandler) History(c *gin.Context) {
	session := middleware.SessionFrom(c)
	if session == nil {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	history, err := h.bookings.History(c.Request.Context(), session.MobileNumber, params)
	if err != nil {
		h.logger.WithError(err).WithField("mobile", utils.MaskPhone(session.MobileNumber)).Warn("Booking history failed")
		utils.BadGatewayResponse(c, utils.ErrUpstreamFailed)
		return
	}

	utils.SuccessResponseWithMeta(c, "Booking history retrieved", history, &utils.Meta{
		Page:     params.Page,
		PageSize: params.PageSize,
		Count:    len(history.Upcoming) + len(history.Past),
	})
}

func (h *BookingHandler) Get(c *gin.Context) {
	record, err := h.bookings.Get(c.Request.Context(), middleware.SessionFrom(c), c.Param("ref"))
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			utils.NotFoundResponse(c, "Booking")
			return
		}
		utils.InternalServerErrorResponse(c)
		return
	}
	utils.SuccessResponse(c, "Booking retrieved", record)
}

// UpdateStatus advances the mirrored booking. Status never moves backwards.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var request UpdateStatusRequest
	if !bindAndValidate(c, &request) {
		return
	}
	target, err := models.ParseBookingStatus(request.Status)
	if err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"status": "Unknown booking status."})
		return
	}

	record, err := h.bookings.UpdateStatus(c.Request.Context(), middleware.SessionFrom(c), c.Param("ref"), target)
	switch {
	case err == nil:
		utils.SuccessResponse(c, "Booking status updated", record)
	case errors.Is(err, services.ErrBookingNotFound):
		utils.NotFoundResponse(c, "Booking")
	case errors.Is(err, services.ErrInvalidStatusTransition):
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_TRANSITION", "Booking cannot move to that status.")
	default:
		h.logger.WithError(err).Error("Booking status update failed")
		utils.InternalServerErrorResponse(c)
	}
}

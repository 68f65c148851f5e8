package reservations

import (
	"net/http"

	"reservio/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Controller interface {
	CreateReservation(c *gin.Context)
	GetReservation(c *gin.Context)
	GetHolderReservations(c *gin.Context)
	CancelReservation(c *gin.Context)
	AdminCancelReservation(c *gin.Context)
	AdminConfirmReservation(c *gin.Context)
}

type controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) Controller {
	return &controller{
		service:   service,
		validator: validator.New(),
	}
}

func (ctrl *controller) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := ctrl.validator.Struct(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	reservation, err := ctrl.service.CreateReservation(req)
	if err != nil {
		response.RespondError(c, "Failed to create reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Reservation created successfully", reservation, nil)
}

func (ctrl *controller) GetReservation(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("reservationId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	reservation, err := ctrl.service.GetReservationByID(reservationID)
	if err != nil {
		response.RespondError(c, "Failed to retrieve reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation retrieved successfully", reservation, nil)
}

func (ctrl *controller) GetHolderReservations(c *gin.Context) {
	var query ReservationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	if err := ctrl.validator.Struct(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	reservations, err := ctrl.service.GetHolderReservations(query)
	if err != nil {
		response.RespondError(c, "Failed to list reservations", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservations retrieved successfully", reservations, nil)
}

func (ctrl *controller) CancelReservation(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("reservationId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	var req CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	reservation, err := ctrl.service.CancelReservation(reservationID, req.Reason)
	if err != nil {
		response.RespondError(c, "Failed to cancel reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation cancelled successfully", reservation, nil)
}

func (ctrl *controller) AdminCancelReservation(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("reservationId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	var req CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	reservation, err := ctrl.service.AdminCancelReservation(reservationID, req.Reason)
	if err != nil {
		response.RespondError(c, "Failed to cancel reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation cancelled successfully", reservation, nil)
}

// AdminConfirmReservation applies a payment out of band, for support tooling
// when the payment event stream is delayed.
func (ctrl *controller) AdminConfirmReservation(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("reservationId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	var req ConfirmReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := ctrl.validator.Struct(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	reservation, err := ctrl.service.ConfirmReservation(c.Request.Context(), reservationID, req.PaymentReference)
	if err != nil {
		response.RespondError(c, "Failed to confirm reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation confirmed successfully", reservation, nil)
}

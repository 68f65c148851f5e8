package availability

import (
	"net/http"
	"time"

	"reservio/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	GetSlotAvailability(c *gin.Context)
	GetRangeCalendar(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) GetSlotAvailability(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("slotId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid slot ID", nil, err.Error())
		return
	}

	availability, err := ctrl.service.GetSlotAvailability(slotID)
	if err != nil {
		response.RespondError(c, "Failed to retrieve slot availability", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Slot availability retrieved successfully", availability, nil)
}

func (ctrl *controller) GetRangeCalendar(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("resourceId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid resource ID", nil, err.Error())
		return
	}

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid or missing 'from' date (YYYY-MM-DD)", nil, err.Error())
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid or missing 'to' date (YYYY-MM-DD)", nil, err.Error())
		return
	}

	calendar, err := ctrl.service.GetRangeCalendar(resourceID, from, to)
	if err != nil {
		response.RespondError(c, "Failed to retrieve availability calendar", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Availability calendar retrieved successfully", calendar, nil)
}

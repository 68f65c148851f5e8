package availability

import (
	"github.com/gin-gonic/gin"
)

func SetupAvailabilityRoutes(router *gin.RouterGroup, controller Controller) {
	availability := router.Group("/availability")
	{
		availability.GET("/slots/:slotId", controller.GetSlotAvailability)        // GET /api/v1/availability/slots/:slotId
		availability.GET("/resources/:resourceId", controller.GetRangeCalendar)   // GET /api/v1/availability/resources/:resourceId?from=&to=
	}
}

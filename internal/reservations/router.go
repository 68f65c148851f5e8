package reservations

import (
	"github.com/gin-gonic/gin"
)

func SetupReservationRoutes(router *gin.RouterGroup, controller Controller) {
	reservations := router.Group("/reservations")
	{
		reservations.POST("", controller.CreateReservation)                        // POST /api/v1/reservations
		reservations.GET("", controller.GetHolderReservations)                     // GET /api/v1/reservations?holder_ref=X
		reservations.GET("/:reservationId", controller.GetReservation)             // GET /api/v1/reservations/:reservationId
		reservations.POST("/:reservationId/cancel", controller.CancelReservation)  // POST /api/v1/reservations/:reservationId/cancel
	}

	adminReservations := router.Group("/admin/reservations")
	{
		adminReservations.POST("/:reservationId/cancel", controller.AdminCancelReservation)   // POST /api/v1/admin/reservations/:reservationId/cancel
		adminReservations.POST("/:reservationId/confirm", controller.AdminConfirmReservation) // POST /api/v1/admin/reservations/:reservationId/confirm
	}
}

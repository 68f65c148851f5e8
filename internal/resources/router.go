package resources

import (
	"github.com/gin-gonic/gin"
)

func SetupResourceRoutes(router *gin.RouterGroup, controller Controller) {
	// Public routes - anyone can browse the catalog
	publicResources := router.Group("/resources")
	{
		publicResources.GET("", controller.GetAllResources)             // GET /api/v1/resources
		publicResources.GET("/:resourceId", controller.GetResource)     // GET /api/v1/resources/:resourceId
		publicResources.GET("/:resourceId/slots", controller.GetSlots)  // GET /api/v1/resources/:resourceId/slots
	}

	// Admin routes - catalog and capacity management
	adminResources := router.Group("/admin/resources")
	{
		adminResources.POST("", controller.CreateResource)                       // POST /api/v1/admin/resources
		adminResources.PUT("/:resourceId", controller.UpdateResource)            // PUT /api/v1/admin/resources/:resourceId
		adminResources.PUT("/:resourceId/capacity", controller.UpdateCapacity)   // PUT /api/v1/admin/resources/:resourceId/capacity
		adminResources.PUT("/:resourceId/units", controller.UpdateUnitCount)     // PUT /api/v1/admin/resources/:resourceId/units
		adminResources.POST("/:resourceId/slots", controller.CreateSlot)         // POST /api/v1/admin/resources/:resourceId/slots
	}
}

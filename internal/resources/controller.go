package resources

import (
	"net/http"

	"reservio/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateResource(c *gin.Context)
	GetResource(c *gin.Context)
	GetAllResources(c *gin.Context)
	UpdateResource(c *gin.Context)
	UpdateCapacity(c *gin.Context)
	UpdateUnitCount(c *gin.Context)
	CreateSlot(c *gin.Context)
	GetSlots(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CreateResource(c *gin.Context) {
	var req CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resource, err := ctrl.service.CreateResource(req)
	if err != nil {
		response.RespondError(c, "Failed to create resource", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Resource created successfully", resource, nil)
}

func (ctrl *controller) GetResource(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("resourceId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid resource ID", nil, err.Error())
		return
	}

	resource, err := ctrl.service.GetResourceByID(resourceID)
	if err != nil {
		response.RespondError(c, "Failed to retrieve resource", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Resource retrieved successfully", resource, nil)
}

func (ctrl *controller) GetAllResources(c *gin.Context) {
	var query ResourceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	resources, err := ctrl.service.GetAllResources(query)
	if err != nil {
		response.RespondError(c, "Failed to list resources", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Resources retrieved successfully", resources, nil)
}

func (ctrl *controller) UpdateResource(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("resourceId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid resource ID", nil, err.Error())
		return
	}

	var req UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resource, err := ctrl.service.UpdateResource(resourceID, req)
	if err != nil {
		response.RespondError(c, "Failed to update resource", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Resource updated successfully", resource, nil)
}

func (ctrl *controller) UpdateCapacity(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("resourceId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid resource ID", nil, err.Error())
		return
	}

	var req UpdateCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resource, err := ctrl.service.UpdateCapacity(resourceID, req)
	if err != nil {
		response.RespondError(c, "Failed to update capacity", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Capacity updated successfully", resource, nil)
}

func (ctrl *controller) UpdateUnitCount(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("resourceId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid resource ID", nil, err.Error())
		return
	}

	var req UpdateUnitCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	resource, err := ctrl.service.UpdateUnitCount(resourceID, req)
	if err != nil {
		response.RespondError(c, "Failed to update unit count", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Unit count updated successfully", resource, nil)
}

func (ctrl *controller) CreateSlot(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("resourceId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid resource ID", nil, err.Error())
		return
	}

	var req CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	slot, err := ctrl.service.CreateSlot(resourceID, req)
	if err != nil {
		response.RespondError(c, "Failed to create slot", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Slot created successfully", slot, nil)
}

func (ctrl *controller) GetSlots(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("resourceId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid resource ID", nil, err.Error())
		return
	}

	slots, err := ctrl.service.GetSlots(resourceID)
	if err != nil {
		response.RespondError(c, "Failed to list slots", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Slots retrieved successfully", slots, nil)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"requestdesk/internal/middleware"
	"requestdesk/internal/model"
	"requestdesk/internal/service"
	"requestdesk/pkg/response"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	manage := middleware.RequireRole(model.RoleReviewer)

	router.GET("/venues", h.ListVenues)
	router.GET("/vehicles", h.ListVehicles)
	router.GET("/supply-items", h.ListSupplyItems)

	router.POST("/venues", manage, h.CreateVenue)
	router.POST("/vehicles", manage, h.CreateVehicle)
	router.POST("/supply-items", manage, h.CreateSupplyItem)
}

// ListVenues handles GET /api/venues
// @Summary      List venues
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        department_id  query     string  false  "Department ID"
// @Success      200            {object}  response.Response{data=[]service.VenueResponse}
// @Router       /api/venues [get]
func (h *CatalogHandler) ListVenues(c *gin.Context) {
	departmentID, ok := optionalID(c, "department_id")
	if !ok {
		return
	}
	venues, err := h.catalogService.ListVenues(c.Request.Context(), departmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if venues == nil {
		venues = []service.VenueResponse{}
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, venues))
}

// CreateVenue handles POST /api/venues
// @Summary      Add a venue
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateVenueRequest  true  "Venue"
// @Success      201      {object}  response.Response{data=service.VenueResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/venues [post]
func (h *CatalogHandler) CreateVenue(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	venue, err := h.catalogService.CreateVenue(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, venue))
}

// ListVehicles handles GET /api/vehicles
// @Summary      List vehicles
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        department_id  query     string  false  "Department ID"
// @Success      200            {object}  response.Response{data=[]service.VehicleResponse}
// @Router       /api/vehicles [get]
func (h *CatalogHandler) ListVehicles(c *gin.Context) {
	departmentID, ok := optionalID(c, "department_id")
	if !ok {
		return
	}
	vehicles, err := h.catalogService.ListVehicles(c.Request.Context(), departmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if vehicles == nil {
		vehicles = []service.VehicleResponse{}
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicles))
}

// CreateVehicle handles POST /api/vehicles
// @Summary      Add a vehicle
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateVehicleRequest  true  "Vehicle"
// @Success      201      {object}  response.Response{data=service.VehicleResponse}
// @Router       /api/vehicles [post]
func (h *CatalogHandler) CreateVehicle(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	vehicle, err := h.catalogService.CreateVehicle(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vehicle))
}

// ListSupplyItems handles GET /api/supply-items
// @Summary      List supply items
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        department_id  query     string  false  "Department ID"
// @Param        returnable     query     bool    false  "Only returnable (true) or consumable (false) items"
// @Success      200            {object}  response.Response{data=[]service.SupplyItemResponse}
// @Router       /api/supply-items [get]
func (h *CatalogHandler) ListSupplyItems(c *gin.Context) {
	departmentID, ok := optionalID(c, "department_id")
	if !ok {
		return
	}
	var returnable *bool
	if raw := c.Query("returnable"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid returnable"))
			return
		}
		returnable = &v
	}

	items, err := h.catalogService.ListSupplyItems(c.Request.Context(), departmentID, returnable)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []service.SupplyItemResponse{}
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// CreateSupplyItem handles POST /api/supply-items
// @Summary      Add a supply item
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateSupplyItemRequest  true  "Supply item"
// @Success      201      {object}  response.Response{data=service.SupplyItemResponse}
// @Router       /api/supply-items [post]
func (h *CatalogHandler) CreateSupplyItem(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.CreateSupplyItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.catalogService.CreateSupplyItem(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

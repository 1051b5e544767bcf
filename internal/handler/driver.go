package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/service"
)

// DriverHandler handles HTTP requests for driver location ingest and ride
// pings.
type DriverHandler struct {
	locationService *service.LocationService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(locationService *service.LocationService) *DriverHandler {
	return &DriverHandler{locationService: locationService}
}

// UpdateLocationRequest is the HTTP request body for a driver location
// report.
type UpdateLocationRequest struct {
	CellIndex string `json:"cell_index"`
}

// UpdateLocation handles PUT /v1/drivers/:id/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.locationService.UpdateDriverLocation(c.Request.Context(), c.Param("id"), req.CellIndex); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RidePingRequest is the HTTP request body for a per-ride driver ping.
type RidePingRequest struct {
	DriverID       string  `json:"driver_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	HeadingTowards string  `json:"heading_towards,omitempty"`
	CellIndex      string  `json:"cell_index,omitempty"`
	SpeedKmh       float64 `json:"speed_kmh,omitempty"`
}

// LogRidePing handles POST /v1/rides/:id/pings
func (h *DriverHandler) LogRidePing(c *gin.Context) {
	var req RidePingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.locationService.LogRidePing(c.Request.Context(), service.LogRidePingRequest{
		RideID:         c.Param("id"),
		DriverID:       req.DriverID,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		HeadingTowards: req.HeadingTowards,
		CellIndex:      req.CellIndex,
		SpeedKmh:       req.SpeedKmh,
	}); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

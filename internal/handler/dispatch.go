package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// DispatchHandler handles HTTP requests for the driver-side dispatch
// flow: candidate search, accept, reject, cancel and status updates.
type DispatchHandler struct {
	dispatchService *service.DispatchService
	matchingService service.MatchingServiceInterface
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(dispatchService *service.DispatchService, matchingService service.MatchingServiceInterface) *DispatchHandler {
	return &DispatchHandler{
		dispatchService: dispatchService,
		matchingService: matchingService,
	}
}

// CandidateResponse is one open booking offered to a driver.
type CandidateResponse struct {
	RideID    string  `json:"ride_id"`
	FromCell  string  `json:"from_cell"`
	ToCell    string  `json:"to_cell"`
	Fare      float64 `json:"fare"`
	CreatedAt string  `json:"created_at"`
}

// GetCandidates handles GET /v1/drivers/:id/candidates?k=1
func (h *DispatchHandler) GetCandidates(c *gin.Context) {
	radius := 0
	if raw := c.Query("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid ring radius"})
			return
		}
		radius = parsed
	}

	candidates, err := h.matchingService.Candidates(c.Request.Context(), service.CandidatesRequest{
		DriverID:   c.Param("id"),
		RingRadius: radius,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]CandidateResponse, 0, len(candidates))
	for _, details := range candidates {
		response = append(response, CandidateResponse{
			RideID:    details.RideID,
			FromCell:  details.FromCell,
			ToCell:    details.ToCell,
			Fare:      details.Fare,
			CreatedAt: details.CreatedAt.Format(time.RFC3339),
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// AcceptRideRequest is the HTTP request body for accepting a ride.
type AcceptRideRequest struct {
	DriverID string `json:"driver_id"`
	OTP      int    `json:"otp"`
}

// AcceptRideResponse is the HTTP response for accepting a ride.
type AcceptRideResponse struct {
	RideID    string `json:"ride_id"`
	DriverID  string `json:"driver_id"`
	VehicleID string `json:"vehicle_id,omitempty"`
	Status    string `json:"status"`
}

// AcceptRide handles POST /v1/rides/:id/accept
func (h *DispatchHandler) AcceptRide(c *gin.Context) {
	var req AcceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.dispatchService.AcceptRide(c.Request.Context(), service.AcceptRideRequest{
		RideID:   c.Param("id"),
		DriverID: req.DriverID,
		OTP:      req.OTP,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AcceptRideResponse{
		RideID:    result.Details.RideID,
		DriverID:  req.DriverID,
		VehicleID: result.VehicleID,
		Status:    string(result.Details.Status),
	})
}

// RejectRideRequest is the HTTP request body for rejecting a ride.
type RejectRideRequest struct {
	DriverID string `json:"driver_id"`
}

// RejectRide handles POST /v1/rides/:id/reject
func (h *DispatchHandler) RejectRide(c *gin.Context) {
	var req RejectRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.dispatchService.RejectRide(c.Request.Context(), c.Param("id"), req.DriverID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	RiderID  string `json:"rider_id,omitempty"`
	DriverID string `json:"driver_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *DispatchHandler) CancelRide(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.dispatchService.CancelRide(c.Request.Context(), service.CancelRideRequest{
		RideID:   c.Param("id"),
		RiderID:  req.RiderID,
		DriverID: req.DriverID,
		Reason:   req.Reason,
	}); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateStatusRequest is the HTTP request body for advancing a ride.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateRideStatus handles POST /v1/rides/:id/status
func (h *DispatchHandler) UpdateRideStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	status, ok := domain.ParseRideStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown ride status"})
		return
	}

	if err := h.dispatchService.UpdateRideStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

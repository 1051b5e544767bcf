package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// RideHandler handles HTTP requests for booking and reading rides.
type RideHandler struct {
	bookingService *service.BookingService
	rideService    *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(bookingService *service.BookingService, rideService *service.RideService) *RideHandler {
	return &RideHandler{
		bookingService: bookingService,
		rideService:    rideService,
	}
}

// BookRideRequest is the HTTP request body for booking a ride.
type BookRideRequest struct {
	RiderID       string  `json:"rider_id"`
	RegionCode    string  `json:"region_code"`
	FromCell      string  `json:"from_cell"`
	ToCell        string  `json:"to_cell"`
	EstimatedFare float64 `json:"estimated_fare,omitempty"`
	ETASeconds    int     `json:"eta_seconds,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	RideID     string  `json:"ride_id"`
	RiderID    string  `json:"rider_id"`
	DriverID   string  `json:"driver_id,omitempty"`
	VehicleID  string  `json:"vehicle_id,omitempty"`
	RegionCode string  `json:"region_code"`
	Currency   string  `json:"currency"`
	FromCell   string  `json:"from_cell"`
	ToCell     string  `json:"to_cell"`
	Fare       float64 `json:"fare"`
	Status     string  `json:"status"`
	Verified   bool    `json:"verified"`
	CreatedAt  string  `json:"created_at"`
	StartedAt  string  `json:"started_at,omitempty"`
	EndedAt    string  `json:"ended_at,omitempty"`
}

// BookRideResponse is the HTTP response for booking a ride. The OTP is
// returned only here; reads never expose it.
type BookRideResponse struct {
	RideResponse
	OTP int `json:"otp"`
}

func rideResponse(ride *domain.Ride, details *domain.RideDetails) RideResponse {
	resp := RideResponse{
		RideID:     details.RideID,
		RiderID:    details.RiderID,
		FromCell:   details.FromCell,
		ToCell:     details.ToCell,
		Fare:       details.Fare,
		Status:     string(details.Status),
		Verified:   details.Verified,
		CreatedAt:  details.CreatedAt.Format(time.RFC3339),
	}
	if ride != nil {
		resp.DriverID = ride.DriverID
		resp.VehicleID = ride.VehicleID
		resp.RegionCode = ride.RegionCode
		resp.Currency = ride.CurrencyCode
		if !ride.StartedAt.IsZero() {
			resp.StartedAt = ride.StartedAt.Format(time.RFC3339)
		}
		if !ride.EndedAt.IsZero() {
			resp.EndedAt = ride.EndedAt.Format(time.RFC3339)
		}
	}
	return resp
}

// BookRide handles POST /v1/rides
func (h *RideHandler) BookRide(c *gin.Context) {
	var req BookRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.bookingService.BookRide(c.Request.Context(), service.BookRideRequest{
		RiderID:       req.RiderID,
		RegionCode:    req.RegionCode,
		FromCell:      req.FromCell,
		ToCell:        req.ToCell,
		EstimatedFare: req.EstimatedFare,
		ETASeconds:    req.ETASeconds,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, BookRideResponse{
		RideResponse: rideResponse(result.Ride, result.Details),
		OTP:          result.Details.OTP,
	})
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	view, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponse(view.Ride, view.Details))
}

// RideEventResponse is one audit entry in the HTTP response.
type RideEventResponse struct {
	EventID   string  `json:"event_id"`
	Status    string  `json:"status"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	EventTime string  `json:"event_time"`
}

// GetRideEvents handles GET /v1/rides/:id/events
func (h *RideHandler) GetRideEvents(c *gin.Context) {
	events, err := h.rideService.RideEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideEventResponse, 0, len(events))
	for _, e := range events {
		entry := RideEventResponse{
			EventID:   e.EventID,
			Status:    string(e.Status),
			EventTime: e.EventTime.Format(time.RFC3339),
		}
		if e.HasCoords {
			entry.Latitude = e.Latitude
			entry.Longitude = e.Longitude
		}
		response = append(response, entry)
	}

	respondJSON(c, http.StatusOK, response)
}

// ListRiderRides handles GET /v1/riders/:id/rides
func (h *RideHandler) ListRiderRides(c *gin.Context) {
	rides, err := h.bookingService.ListPreviousRides(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, details := range rides {
		response = append(response, rideResponse(nil, details))
	}

	respondJSON(c, http.StatusOK, response)
}

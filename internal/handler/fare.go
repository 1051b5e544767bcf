package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// FareHandler handles HTTP requests for fare quotes, pricing and surge
// administration.
type FareHandler struct {
	fareService *service.FareService
}

// NewFareHandler creates a new FareHandler.
func NewFareHandler(fareService *service.FareService) *FareHandler {
	return &FareHandler{fareService: fareService}
}

// FareQuoteRequest is the HTTP request body for a fare quote.
type FareQuoteRequest struct {
	RegionCode    string  `json:"region_code"`
	VehicleTypeID int16   `json:"vehicle_type_id"`
	DistanceKm    float64 `json:"distance_km"`
	DurationMin   float64 `json:"duration_min"`
}

// FareBreakdownResponse is the HTTP representation of a fare breakdown.
type FareBreakdownResponse struct {
	BaseFare        float64 `json:"base_fare"`
	DistanceFare    float64 `json:"distance_fare"`
	TimeFare        float64 `json:"time_fare"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	TaxAmount       float64 `json:"tax_amount"`
	FinalFare       float64 `json:"final_fare"`
	Currency        string  `json:"currency"`
	ComputedAt      string  `json:"computed_at"`
}

func fareResponse(b *service.FareBreakdown) FareBreakdownResponse {
	return FareBreakdownResponse{
		BaseFare:        b.BaseFare,
		DistanceFare:    b.DistanceFare,
		TimeFare:        b.TimeFare,
		SurgeMultiplier: b.SurgeMultiplier,
		TaxAmount:       b.TaxAmount,
		FinalFare:       b.FinalFare,
		Currency:        b.Currency,
		ComputedAt:      b.ComputedAt.Format(time.RFC3339),
	}
}

// QuoteFare handles POST /v1/fares/quote
func (h *FareHandler) QuoteFare(c *gin.Context) {
	var req FareQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	breakdown, err := h.fareService.Quote(c.Request.Context(), service.FareRequest{
		RegionCode:    req.RegionCode,
		VehicleTypeID: req.VehicleTypeID,
		DistanceKm:    req.DistanceKm,
		DurationMin:   req.DurationMin,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, fareResponse(breakdown))
}

// FinalizeFareRequest is the HTTP request body for finalizing a ride's
// fare.
type FinalizeFareRequest struct {
	RiderID       string  `json:"rider_id"`
	RegionCode    string  `json:"region_code"`
	VehicleTypeID int16   `json:"vehicle_type_id"`
	DistanceKm    float64 `json:"distance_km"`
	DurationMin   float64 `json:"duration_min"`
}

// FinalizeFare handles POST /v1/rides/:id/fare
func (h *FareHandler) FinalizeFare(c *gin.Context) {
	var req FinalizeFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	breakdown, err := h.fareService.ComputeAndSnapshot(c.Request.Context(), c.Param("id"), req.RiderID, service.FareRequest{
		RegionCode:    req.RegionCode,
		VehicleTypeID: req.VehicleTypeID,
		DistanceKm:    req.DistanceKm,
		DurationMin:   req.DurationMin,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, fareResponse(breakdown))
}

// SetPricingRequest is the HTTP request body for upserting a pricing row.
type SetPricingRequest struct {
	TenantID      string  `json:"tenant_id"`
	RegionCode    string  `json:"region_code"`
	VehicleTypeID int16   `json:"vehicle_type_id"`
	BaseFare      float64 `json:"base_fare"`
	RatePerKm     float64 `json:"rate_per_km"`
	RatePerMin    float64 `json:"rate_per_min"`
}

// SetPricing handles PUT /v1/pricing
func (h *FareHandler) SetPricing(c *gin.Context) {
	var req SetPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.fareService.SetPricing(c.Request.Context(), &domain.PricingConfig{
		TenantID:      req.TenantID,
		RegionCode:    req.RegionCode,
		VehicleTypeID: req.VehicleTypeID,
		BaseFare:      req.BaseFare,
		RatePerKm:     req.RatePerKm,
		RatePerMin:    req.RatePerMin,
	}); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddSurgeRequest is the HTTP request body for appending a surge window.
type AddSurgeRequest struct {
	RegionCode    string  `json:"region_code"`
	Multiplier    float64 `json:"multiplier"`
	EffectiveFrom string  `json:"effective_from"` // RFC 3339
	ExpiresAt     string  `json:"expires_at"`     // RFC 3339
}

// AddSurge handles POST /v1/surge
func (h *FareHandler) AddSurge(c *gin.Context) {
	var req AddSurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	from, err := time.Parse(time.RFC3339, req.EffectiveFrom)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid effective_from"})
		return
	}
	until, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid expires_at"})
		return
	}

	if err := h.fareService.AddSurgeWindow(c.Request.Context(), &domain.SurgePricing{
		RegionCode:    req.RegionCode,
		Multiplier:    req.Multiplier,
		EffectiveFrom: from,
		ExpiresAt:     until,
	}); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

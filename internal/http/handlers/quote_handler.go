// README: Quote handlers for package and ride pricing.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"relay/internal/modules/quote"
)

type QuoteHandler struct {
	quotes *quote.Service
}

func NewQuoteHandler(svc *quote.Service) *QuoteHandler {
	return &QuoteHandler{quotes: svc}
}

type packageQuoteReq struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	WeightKg    float64 `json:"weight_kg"`
	Dimensions  string  `json:"dimensions"`
}

type rideQuoteReq struct {
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	VehicleClass string `json:"vehicle_class"`
}

func (h *QuoteHandler) Package(c *gin.Context) {
	var req packageQuoteReq
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		writeError(c, http.StatusBadRequest, "validation_error", "origin and destination are required")
		return
	}
	res := h.quotes.QuotePackage(c.Request.Context(), quote.PackageCommand{
		Origin:      req.Origin,
		Destination: req.Destination,
		WeightKg:    req.WeightKg,
		Dimensions:  req.Dimensions,
	})
	writeJSON(c, http.StatusOK, res)
}

func (h *QuoteHandler) Ride(c *gin.Context) {
	var req rideQuoteReq
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		writeError(c, http.StatusBadRequest, "validation_error", "origin and destination are required")
		return
	}
	res := h.quotes.QuoteRide(c.Request.Context(), quote.RideCommand{
		Origin:       req.Origin,
		Destination:  req.Destination,
		VehicleClass: req.VehicleClass,
	})
	writeJSON(c, http.StatusOK, res)
}

// README: Geocoding lookup handler (address suggestions for clients).
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"relay/internal/maps"
)

type GeocodeHandler struct {
	geocoder *maps.Geocoder
}

func NewGeocodeHandler(g *maps.Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: g}
}

func (h *GeocodeHandler) Lookup(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		writeError(c, http.StatusBadRequest, "validation_error", "missing q")
		return
	}
	places, err := h.geocoder.Lookup(c.Request.Context(), q)
	if errors.Is(err, maps.ErrDisabled) {
		writeError(c, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusBadGateway, "upstream_error", "geocoding failed")
		return
	}
	if places == nil {
		places = []maps.Place{}
	}
	writeJSON(c, http.StatusOK, gin.H{"results": places})
}

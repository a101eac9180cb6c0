// README: Resource handlers for publishing, reading and closing listings, and proposing against them.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"relay/internal/http/middleware"
	"relay/internal/modules/matching"
)

type ResourceHandler struct {
	matching *matching.Service
}

func NewResourceHandler(svc *matching.Service) *ResourceHandler {
	return &ResourceHandler{matching: svc}
}

type publishReq struct {
	Kind         string  `json:"kind"`
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	Seats        int     `json:"seats"`
	VehicleClass string  `json:"vehicle_class"`
	WeightKg     float64 `json:"weight_kg"`
	Dimensions   string  `json:"dimensions"`
}

type proposeReq struct {
	Units   int    `json:"units"`
	Message string `json:"message"`
}

func (h *ResourceHandler) Publish(c *gin.Context) {
	var req publishReq
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.matching.Publish(c.Request.Context(), matching.PublishCommand{
		OwnerID:      middleware.CallerUID(c),
		Kind:         matching.Kind(strings.ToUpper(strings.TrimSpace(req.Kind))),
		Origin:       req.Origin,
		Destination:  req.Destination,
		Seats:        req.Seats,
		VehicleClass: req.VehicleClass,
		WeightKg:     req.WeightKg,
		Dimensions:   req.Dimensions,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}

func (h *ResourceHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.matching.GetResource(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *ResourceHandler) Close(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.matching.Close(c.Request.Context(), matching.CloseCommand{ResourceID: id, ActorID: middleware.CallerUID(c)})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *ResourceHandler) ListRequests(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	reqs, err := h.matching.ListRequests(c.Request.Context(), id, middleware.CallerUID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if reqs == nil {
		reqs = []*matching.Request{}
	}
	writeJSON(c, http.StatusOK, gin.H{"requests": reqs})
}

func (h *ResourceHandler) Propose(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req proposeReq
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.matching.Propose(c.Request.Context(), matching.ProposeCommand{
		ResourceID:  id,
		RequesterID: middleware.CallerUID(c),
		Units:       req.Units,
		Message:     req.Message,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, res)
}

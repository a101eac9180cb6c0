// README: Capacity request handlers for reading and driving a request through accept, reject or cancel.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"relay/internal/http/middleware"
	"relay/internal/modules/matching"
)

type RequestHandler struct {
	matching *matching.Service
}

func NewRequestHandler(svc *matching.Service) *RequestHandler {
	return &RequestHandler{matching: svc}
}

type transitionReq struct {
	Reason string `json:"reason"`
}

func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, err := h.matching.GetRequest(c.Request.Context(), id, middleware.CallerUID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, req)
}

func (h *RequestHandler) Accept(c *gin.Context) { h.transition(c, matching.ActionAccept) }
func (h *RequestHandler) Reject(c *gin.Context) { h.transition(c, matching.ActionReject) }
func (h *RequestHandler) Cancel(c *gin.Context) { h.transition(c, matching.ActionCancel) }

func (h *RequestHandler) transition(c *gin.Context, action matching.Action) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	// The body is optional; it only carries a reason.
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	res, err := h.matching.Transition(c.Request.Context(), matching.TransitionCommand{
		RequestID: id,
		ActorID:   middleware.CallerUID(c),
		Action:    action,
		Reason:    req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

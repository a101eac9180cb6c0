// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"relay/internal/http/middleware"
	"relay/internal/types"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, code, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, Code: code, RequestID: middleware.GetRequestID(c)})
}

// writeDomainError maps the domain error taxonomy to HTTP statuses.
func writeDomainError(c *gin.Context, err error) {
	var capErr types.CapacityError
	switch {
	case types.IsValidation(err):
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
	case types.IsNotFound(err):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &capErr):
		available := capErr.Available
		writeJSON(c, http.StatusConflict, errorResponse{
			Error:     err.Error(),
			Code:      "insufficient_capacity",
			RequestID: middleware.GetRequestID(c),
			Available: &available,
		})
	case types.IsConflict(err):
		writeError(c, http.StatusConflict, "conflict", err.Error())
	case types.IsUnauthorized(err):
		writeError(c, http.StatusForbidden, "forbidden", err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (types.ID, bool) {
	id := c.Param(name)
	if id == "" {
		writeError(c, http.StatusBadRequest, "validation_error", "missing "+name)
		return "", false
	}
	return types.ID(id), true
}

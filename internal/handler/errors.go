package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thala/backend/internal/model"
	"github.com/thala/backend/internal/service"
)

// writeError maps service errors onto HTTP statuses. Untagged errors are
// logged and answered with a generic 500.
func writeError(c *gin.Context, err error) {
	detail := service.Detail(err)
	switch {
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidIdentity):
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: orDefault(detail, "Could not validate credentials")})
	case errors.Is(err, service.ErrMissingClaim), errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: orDefault(detail, "invalid request")})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, model.ErrorResponse{Error: orDefault(detail, "forbidden")})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: orDefault(detail, "not found")})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, model.ErrorResponse{Error: orDefault(detail, "already exists")})
	case errors.Is(err, service.ErrMisconfigured):
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: orDefault(detail, "server error")})
	default:
		log.Printf("[Handler] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
	}
}

func writeBadRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: detail})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// authOutcome is the metrics label for an authentication result.
func authOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, service.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, service.ErrInvalidIdentity):
		return "invalid_identity"
	case errors.Is(err, service.ErrMissingClaim):
		return "missing_claim"
	case errors.Is(err, service.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/middleware"
)

// respondError maps service errors onto status codes and the APIError body.
func (s *Server) respondError(c *gin.Context, err error) {
	status, code, message := classifyError(err)
	requestID := c.GetString(middleware.RequestIDKey)

	details := ""
	if status < http.StatusInternalServerError {
		details = err.Error()
	} else {
		s.logger.WithError(err).WithField("request_id", requestID).Error("Request failed")
	}

	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, requestID))
}

func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, domain.CodeValidation, "request failed validation"
	case errors.Is(err, domain.ErrUnknownDisease):
		return http.StatusBadRequest, domain.CodeInvalidInput, "unknown disease"
	case errors.Is(err, domain.ErrNoData):
		return http.StatusBadRequest, domain.CodeNoData, "patient has no assessments to predict on"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.CodeNotFound, "resource not found"
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict, domain.CodeConflict, "resource already exists"
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, domain.CodePersistence, "prediction could not be saved"
	default:
		return http.StatusInternalServerError, domain.CodeInternalServer, "internal server error"
	}
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewAPIError(
		domain.CodeInvalidInput, "invalid request", err.Error(), c.GetString(middleware.RequestIDKey)))
}

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pilotpredict/internal/training"
	"pilotpredict/internal/validation"
)

var (
	ErrInputValidation = errors.New("input validation failed")
	ErrUnknownKind     = errors.New("unknown model kind")
)

type errorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusOf maps an error onto its HTTP status and error code.
func statusOf(err error) (int, string) {
	var verr *validation.Error
	switch {
	case errors.Is(err, ErrInputValidation), errors.As(err, &verr):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrUnknownKind):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, training.ErrTrainingData):
		return http.StatusInternalServerError, "training_data_error"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return 499, "canceled"
	}
	return http.StatusInternalServerError, "internal_error"
}

func (s *Server) fail(c *gin.Context, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if code == "internal_error" {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, errorResponse{Status: "error", Error: code, Message: msg})
}

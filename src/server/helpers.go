package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"nday-analyzer/src/helpers"
	"nday-analyzer/src/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 500
	maxBatchSize     = 50
)

// -----------------------------------------------------------------------------

// writeError maps the error taxonomy to HTTP status codes.
func (s *HTTPServer) writeError(c *gin.Context, err error) {
	var (
		vErr  *helpers.ValidationError
		dsErr *helpers.DataSourceError
		nErr  *helpers.NetworkError
		dbErr *helpers.DatabaseError
	)

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "fields": validationFields(vErr)})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.As(err, &dsErr), errors.As(err, &nErr):
		s.Logger.Warning("Upstream failure: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &dbErr):
		s.Logger.Error("Storage failure: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
	default:
		s.Logger.Error("Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// -----------------------------------------------------------------------------

func validationFields(vErr *helpers.ValidationError) []helpers.FieldError {
	if fields := helpers.FieldErrors(vErr); len(fields) > 0 {
		return fields
	}
	return []helpers.FieldError{{Code: "ERR_INVALID", Field: vErr.Field, Message: vErr.Message}}
}

// -----------------------------------------------------------------------------

func badBody(err error) error {
	vErr := helpers.NewValidationError("body", "%v", err)
	vErr.Cause = err
	return vErr
}

// -----------------------------------------------------------------------------

func validateBatch(ctx context.Context, batch *models.MBatchRequest) error {
	if len(batch.Requests) == 0 {
		return helpers.NewValidationError("requests", "at least one request is required")
	}
	if len(batch.Requests) > maxBatchSize {
		return helpers.NewValidationError("requests", "at most %d requests are allowed, got %d", maxBatchSize, len(batch.Requests))
	}
	for i := range batch.Requests {
		if err := helpers.ApplyDefaultsAndValidate(ctx, &batch.Requests[i]); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultRunsLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxRunsLimit {
		return 0, helpers.NewValidationError("limit", "must be an integer in [1, %d], got %q", maxRunsLimit, raw)
	}
	return limit, nil
}

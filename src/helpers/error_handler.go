package helpers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nday-analyzer/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type AnalyzerError struct {
	Message string
	Cause   error
}

func (e *AnalyzerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AnalyzerError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As checks
type ConfigurationError struct{ AnalyzerError }
type NetworkError struct{ AnalyzerError }
type DataSourceError struct{ AnalyzerError }
type DatabaseError struct{ AnalyzerError }

// ValidationError rejects a request before any processing starts.
type ValidationError struct {
	AnalyzerError
	Field string
}

// NewValidationError builds a ValidationError for one field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		AnalyzerError: AnalyzerError{Message: fmt.Sprintf("invalid %s: %s", field, fmt.Sprintf(format, args...))},
		Field:         field,
	}
}

// NewConfigurationError reports an invalid or unreadable configuration.
func NewConfigurationError(cause error, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{AnalyzerError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

// NewDataSourceError wraps a collaborator failure.
func NewDataSourceError(source, symbol string, cause error) *DataSourceError {
	return &DataSourceError{AnalyzerError{Message: fmt.Sprintf("source %s failed for %s", source, symbol), Cause: cause}}
}

// NewDatabaseError wraps a storage failure.
func NewDatabaseError(operation string, cause error) *DatabaseError {
	return &DatabaseError{AnalyzerError{Message: fmt.Sprintf("database %s failed", operation), Cause: cause}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to maxRetries times with exponential backoff.
// The wait between attempts is interrupted by ctx.
func RetryWithBackoff[T any](ctx context.Context, operation string, maxRetries int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	if maxRetries < 1 {
		maxRetries = 1
	}

	log := logger.NewLogger(nil, "Retry")
	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 || !IsRetryable(err) {
			break
		}

		delay := baseDelay * (1 << attempt)
		log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}

// -----------------------------------------------------------------------------

// IsRetryable reports whether err is worth another attempt. Validation and
// "not found" style failures are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") || strings.Contains(msg, "no data") {
		return false
	}
	return true
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/apotek/internal/apperror"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable,omitempty"`
	Errors    []ValidationError `json:"errors,omitempty"`
	Details   map[string]any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "invalid request",
		}
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	}

	kind := apperror.KindOf(err)
	switch kind {
	case apperror.KindInvalidQuantity, apperror.KindInvalidInput:
		payload := errorPayload{
			Type:    string(kind),
			Message: err.Error(),
		}
		var fieldErr *apperror.ValidationError
		if errors.As(err, &fieldErr) {
			payload.Errors = []ValidationError{{
				Field:   fieldErr.Field,
				Code:    string(kind),
				Message: fieldErr.Reason,
			}}
		}
		return http.StatusBadRequest, payload
	case apperror.KindNotFound:
		return http.StatusNotFound, errorPayload{
			Type:    string(kind),
			Message: err.Error(),
		}
	case apperror.KindInsufficientStock:
		payload := errorPayload{
			Type:    string(kind),
			Message: err.Error(),
		}
		var stockErr *apperror.InsufficientStockError
		if errors.As(err, &stockErr) {
			payload.Details = map[string]any{
				"medicine_id": stockErr.MedicineID,
				"available":   stockErr.Available,
				"requested":   stockErr.Requested,
			}
		}
		return http.StatusUnprocessableEntity, payload
	case apperror.KindReturnExceedsSale:
		payload := errorPayload{
			Type:    string(kind),
			Message: err.Error(),
		}
		var returnErr *apperror.ReturnExceedsSaleError
		if errors.As(err, &returnErr) {
			payload.Details = map[string]any{
				"sale_id":     returnErr.SaleID,
				"medicine_id": returnErr.MedicineID,
				"sold":        returnErr.Sold,
				"returned":    returnErr.Returned,
				"remaining":   returnErr.Remaining(),
				"requested":   returnErr.Requested,
			}
		}
		return http.StatusUnprocessableEntity, payload
	case apperror.KindConflict:
		return http.StatusConflict, errorPayload{
			Type:      string(kind),
			Message:   "the record was modified concurrently, retry the operation",
			Retryable: true,
		}
	case apperror.KindTimeout:
		return http.StatusGatewayTimeout, errorPayload{
			Type:      string(kind),
			Message:   "store timeout",
			Retryable: true,
		}
	case apperror.KindStoreUnavailable:
		return http.StatusServiceUnavailable, errorPayload{
			Type:    string(kind),
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request log line. It never inspects
// error messages, which may carry customer data.
func classifyErrorForLog(err error) (string, string) {
	if asValidationErrors(err) != nil || errors.Is(err, ErrInvalidRequest) {
		return "validation_error", "invalid_request"
	}
	if errors.Is(err, ErrNotFound) {
		return "not_found", "route"
	}
	kind := apperror.KindOf(err)
	switch kind {
	case apperror.KindInvalidQuantity, apperror.KindInvalidInput:
		return "validation_error", string(kind)
	case apperror.KindNotFound, apperror.KindInsufficientStock, apperror.KindReturnExceedsSale:
		return "business_error", string(kind)
	case apperror.KindConflict:
		return "conflict", string(kind)
	case apperror.KindTimeout, apperror.KindStoreUnavailable:
		return "dependency_error", string(kind)
	default:
		return "internal_error", "internal"
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

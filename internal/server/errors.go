package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/gift-recommender/internal/pipeline"
)

// ErrVaultNotFound indicates the vault does not exist or belongs to another user
type ErrVaultNotFound struct {
	VaultID uuid.UUID
}

func (e *ErrVaultNotFound) Error() string {
	return fmt.Sprintf("vault not found: %s", e.VaultID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var notFound *ErrVaultNotFound
	var validation *ErrValidation
	switch {
	case errors.As(err, &notFound), errors.Is(err, pipeline.ErrMilestoneNotFound):
		return http.StatusNotFound
	case errors.As(err, &validation),
		errors.Is(err, pipeline.ErrUnknownOccasion),
		errors.Is(err, pipeline.ErrInvalidRefreshReason):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrInvalidProfile),
		errors.Is(err, pipeline.ErrInvalidBudget),
		errors.Is(err, pipeline.ErrBudgetNotFound):
		// The request is fine; the stored vault cannot be scored.
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// statusClientClosedRequest is the de facto status for requests the client abandoned.
const statusClientClosedRequest = 499

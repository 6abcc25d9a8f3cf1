package services

import (
	"context"
	"errors"

	"github.com/kabeba2027/donations-backend/internal/models"
)

// ErrArchiveDisabled is returned by archive-backed operations when the
// deployment runs without MongoDB.
var ErrArchiveDisabled = errors.New("donation archive is not configured")

// ValidationError rejects donor input before any gateway contact.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// InitiateResult is returned to the front-end after an accepted push.
type InitiateResult struct {
	CheckoutRequestID string
	CustomerMessage   string
}

// PaymentService defines the interface for donation payment operations
type PaymentService interface {
	// InitiateDonation validates donor input, sends the STK push and
	// registers a pending transaction. Validation failures return a
	// *ValidationError without touching the gateway.
	InitiateDonation(ctx context.Context, req *models.InitiateRequest) (*InitiateResult, error)

	// ProcessCallback applies the provider's asynchronous result to the
	// matching transaction. Unknown checkout IDs and duplicate terminal
	// callbacks are logged, not errors — the caller acknowledges the
	// provider regardless.
	ProcessCallback(ctx context.Context, callback *models.STKCallback)

	// GetStatus returns the current transaction state, or
	// repositories.ErrNotFound for unknown and expired checkout IDs.
	GetStatus(ctx context.Context, checkoutRequestID string) (*models.Transaction, error)

	// QueryGateway asks the provider directly for the state of a push
	// and returns the raw payload.
	QueryGateway(ctx context.Context, checkoutRequestID string) (map[string]interface{}, error)

	// ActiveCount returns the number of in-flight transactions.
	ActiveCount() int

	// ListDonations pages through the archived donation history.
	ListDonations(ctx context.Context, page, limit int) ([]*models.Transaction, int64, error)
}

// AuthService defines the interface for admin authentication
type AuthService interface {
	// Login verifies admin credentials and returns a signed JWT.
	Login(ctx context.Context, req *models.LoginRequest) (string, error)
}

package repositories

import (
	"context"
	"errors"

	"github.com/kabeba2027/donations-backend/internal/models"
)

// ErrNotFound is returned when a transaction is unknown or its
// retention window has elapsed.
var ErrNotFound = errors.New("transaction not found")

// ErrAlreadyFinal is returned when an update targets a transaction that
// has already reached a terminal status.
var ErrAlreadyFinal = errors.New("transaction already in terminal state")

// TransactionRegistry tracks in-flight STK push transactions keyed by
// checkout request ID. Records past their expiry are treated as absent.
type TransactionRegistry interface {
	// Put inserts a pending transaction. An existing record under the
	// same key is overwritten; checkout IDs are provider-unique.
	Put(txn *models.Transaction) error

	// Get returns the transaction or ErrNotFound for unknown and
	// expired keys.
	Get(checkoutRequestID string) (*models.Transaction, error)

	// Update applies mutate to the stored record under lock. Returns
	// ErrNotFound for unknown/expired keys and ErrAlreadyFinal when the
	// record is terminal; terminal statuses never regress.
	Update(checkoutRequestID string, mutate func(*models.Transaction)) (*models.Transaction, error)

	// Count returns the number of live, non-expired records.
	Count() int
}

// DonationArchive persists terminal transactions for audit. The
// registry forgets records after the retention window; the archive is
// the durable history behind the admin endpoints.
type DonationArchive interface {
	Save(ctx context.Context, txn *models.Transaction) error
	FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*models.Transaction, error)
	FindRecent(ctx context.Context, page, limit int) ([]*models.Transaction, error)
	Count(ctx context.Context) (int64, error)
}

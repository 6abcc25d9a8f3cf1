package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabeba2027/donations-backend/internal/models"
	"github.com/kabeba2027/donations-backend/internal/repositories"
)

func newTestRegistry(ttl time.Duration) (*TransactionRegistry, *time.Time) {
	registry := NewTransactionRegistry(ttl)
	current := time.Date(2027, 3, 15, 12, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return current }
	return registry, &current
}

func pendingTransaction(id string) *models.Transaction {
	return &models.Transaction{
		CheckoutRequestID: id,
		PhoneNumber:       "254712345678",
		Amount:            500,
		Status:            models.StatusPending,
	}
}

func TestPutAndGet(t *testing.T) {
	registry, _ := newTestRegistry(15 * time.Minute)

	require.NoError(t, registry.Put(pendingTransaction("ws_CO_1234")))

	txn, err := registry.Get("ws_CO_1234")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, txn.Status)
	assert.Equal(t, float64(500), txn.Amount)
	assert.False(t, txn.ExpiresAt.IsZero())
}

func TestGetUnknownReturnsNotFound(t *testing.T) {
	registry, _ := newTestRegistry(15 * time.Minute)

	_, err := registry.Get("ws_CO_9999")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	registry, _ := newTestRegistry(15 * time.Minute)
	require.NoError(t, registry.Put(pendingTransaction("ws_CO_1234")))

	txn, err := registry.Get("ws_CO_1234")
	require.NoError(t, err)
	txn.Status = models.StatusFailed

	stored, err := registry.Get("ws_CO_1234")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestUpdateTransition(t *testing.T) {
	registry, _ := newTestRegistry(15 * time.Minute)
	require.NoError(t, registry.Put(pendingTransaction("ws_CO_1234")))

	updated, err := registry.Update("ws_CO_1234", func(txn *models.Transaction) {
		txn.Status = models.StatusCompleted
		txn.ReceiptNumber = "QGR7XXXX"
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, "QGR7XXXX", updated.ReceiptNumber)
}

func TestUpdateTerminalIsRejected(t *testing.T) {
	registry, _ := newTestRegistry(15 * time.Minute)
	require.NoError(t, registry.Put(pendingTransaction("ws_CO_1234")))

	_, err := registry.Update("ws_CO_1234", func(txn *models.Transaction) {
		txn.Status = models.StatusCompleted
		txn.ReceiptNumber = "QGR7XXXX"
	})
	require.NoError(t, err)

	// A second callback for the same checkout ID must not regress or
	// overwrite the terminal state.
	_, err = registry.Update("ws_CO_1234", func(txn *models.Transaction) {
		txn.Status = models.StatusFailed
	})
	assert.ErrorIs(t, err, repositories.ErrAlreadyFinal)

	txn, err := registry.Get("ws_CO_1234")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, txn.Status)
	assert.Equal(t, "QGR7XXXX", txn.ReceiptNumber)
}

func TestExpiredRecordIsAbsent(t *testing.T) {
	registry, current := newTestRegistry(15 * time.Minute)
	require.NoError(t, registry.Put(pendingTransaction("ws_CO_1234")))

	*current = current.Add(16 * time.Minute)

	_, err := registry.Get("ws_CO_1234")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = registry.Update("ws_CO_1234", func(txn *models.Transaction) {
		txn.Status = models.StatusCompleted
	})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCountExcludesExpired(t *testing.T) {
	registry, current := newTestRegistry(15 * time.Minute)
	require.NoError(t, registry.Put(pendingTransaction("ws_CO_1")))

	*current = current.Add(10 * time.Minute)
	require.NoError(t, registry.Put(pendingTransaction("ws_CO_2")))
	assert.Equal(t, 2, registry.Count())

	*current = current.Add(10 * time.Minute)
	assert.Equal(t, 1, registry.Count())
}

func TestSweepReclaimsExpired(t *testing.T) {
	registry, current := newTestRegistry(15 * time.Minute)
	require.NoError(t, registry.Put(pendingTransaction("ws_CO_1234")))

	*current = current.Add(16 * time.Minute)
	registry.sweep()

	registry.mu.RLock()
	defer registry.mu.RUnlock()
	assert.Empty(t, registry.transactions)
}

package memory

import (
	"sync"
	"time"

	"github.com/kabeba2027/donations-backend/internal/models"
	"github.com/kabeba2027/donations-backend/internal/repositories"
)

// Compile-time check to ensure TransactionRegistry implements the
// repositories.TransactionRegistry interface.
var _ repositories.TransactionRegistry = (*TransactionRegistry)(nil)

// TransactionRegistry is the in-memory transaction store. Expiry is an
// ExpiresAt timestamp checked lazily on every read; the optional
// background sweep only reclaims memory. All in-flight transactions are
// lost on restart — a known limitation of the in-memory design.
type TransactionRegistry struct {
	mu           sync.RWMutex
	transactions map[string]*models.Transaction
	ttl          time.Duration
	now          func() time.Time
	stopSweep    chan struct{}
	stopOnce     sync.Once
}

// NewTransactionRegistry creates a registry whose records live for ttl
// after insertion.
func NewTransactionRegistry(ttl time.Duration) *TransactionRegistry {
	return &TransactionRegistry{
		transactions: make(map[string]*models.Transaction),
		ttl:          ttl,
		now:          time.Now,
		stopSweep:    make(chan struct{}),
	}
}

// StartSweeper launches a goroutine that periodically drops expired
// records. Correctness does not depend on it; reads already ignore
// expired entries.
func (r *TransactionRegistry) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweep()
			case <-r.stopSweep:
				return
			}
		}
	}()
}

// Close stops the background sweeper if one is running.
func (r *TransactionRegistry) Close() {
	r.stopOnce.Do(func() { close(r.stopSweep) })
}

// Put inserts a pending transaction, stamping CreatedAt and ExpiresAt
// when the caller has not. Last write wins on key clashes.
func (r *TransactionRegistry) Put(txn *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = r.now()
	}
	if txn.ExpiresAt.IsZero() {
		txn.ExpiresAt = txn.CreatedAt.Add(r.ttl)
	}
	r.transactions[txn.CheckoutRequestID] = txn
	return nil
}

// Get returns a copy of the stored transaction, or ErrNotFound when the
// key is unknown or the record has expired.
func (r *TransactionRegistry) Get(checkoutRequestID string) (*models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	txn, ok := r.transactions[checkoutRequestID]
	if !ok || r.expired(txn) {
		return nil, repositories.ErrNotFound
	}
	copied := *txn
	return &copied, nil
}

// Update applies mutate under the write lock. Expired records are
// treated as absent; terminal records are never mutated again.
func (r *TransactionRegistry) Update(checkoutRequestID string, mutate func(*models.Transaction)) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.transactions[checkoutRequestID]
	if !ok || r.expired(txn) {
		return nil, repositories.ErrNotFound
	}
	if txn.IsTerminal() {
		return nil, repositories.ErrAlreadyFinal
	}

	mutate(txn)
	copied := *txn
	return &copied, nil
}

// Count returns the number of live records.
func (r *TransactionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, txn := range r.transactions {
		if !r.expired(txn) {
			count++
		}
	}
	return count
}

func (r *TransactionRegistry) expired(txn *models.Transaction) bool {
	return r.now().After(txn.ExpiresAt)
}

func (r *TransactionRegistry) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, txn := range r.transactions {
		if r.expired(txn) {
			delete(r.transactions, id)
		}
	}
}

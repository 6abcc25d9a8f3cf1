package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kabeba2027/donations-backend/internal/models"
	"github.com/kabeba2027/donations-backend/internal/repositories"
	"github.com/kabeba2027/donations-backend/internal/utils"
	"github.com/kabeba2027/donations-backend/pkg/daraja"
)

// Provider-enforced bounds for a single CustomerPayBillOnline push.
const (
	MinDonationAmount = 1
	MaxDonationAmount = 150000
)

// DefaultAccountReference tags donations for reconciliation when the
// donor did not supply one.
const DefaultAccountReference = "Kabeba Campaign"

// Compile-time check to ensure PaymentServiceImpl implements PaymentService
var _ PaymentService = (*PaymentServiceImpl)(nil)

// PaymentServiceImpl drives the donation flow: validate, push, track,
// settle. The archive is optional; when nil, terminal transactions live
// only in the registry until their retention window lapses.
type PaymentServiceImpl struct {
	gateway  daraja.Gateway
	registry repositories.TransactionRegistry
	archive  repositories.DonationArchive
	ttl      time.Duration
	log      *logrus.Logger
}

// NewPaymentService creates a new PaymentServiceImpl
func NewPaymentService(gateway daraja.Gateway, registry repositories.TransactionRegistry, archive repositories.DonationArchive, ttl time.Duration, log *logrus.Logger) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		gateway:  gateway,
		registry: registry,
		archive:  archive,
		ttl:      ttl,
		log:      log,
	}
}

// InitiateDonation validates and normalizes donor input, submits the
// STK push and registers the pending transaction. No transaction is
// created when the gateway rejects or fails the initiation.
func (s *PaymentServiceImpl) InitiateDonation(ctx context.Context, req *models.InitiateRequest) (*InitiateResult, error) {
	if req.Amount == 0 || req.PhoneNumber == "" {
		return nil, &ValidationError{Message: "Amount and phone number are required"}
	}
	if req.Amount < MinDonationAmount || req.Amount > MaxDonationAmount {
		return nil, &ValidationError{Message: "Amount must be between KSh 1 and KSh 150,000"}
	}

	phone, err := utils.NormalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, &ValidationError{Message: "Invalid Kenyan phone number format"}
	}

	donorName := req.DonorName
	if donorName == "" {
		donorName = "Anonymous"
	}
	accountRef := req.AccountReference
	if accountRef == "" {
		accountRef = DefaultAccountReference
	}

	s.log.WithFields(logrus.Fields{
		"phoneNumber":      phone,
		"amount":           req.Amount,
		"accountReference": accountRef,
	}).Info("Initiating STK push")

	resp, err := s.gateway.InitiateSTKPush(ctx, &daraja.STKPushRequest{
		PhoneNumber:      phone,
		Amount:           req.Amount,
		AccountReference: accountRef,
		Description:      fmt.Sprintf("Donation - %s", donorName),
	})
	if err != nil {
		s.log.WithError(err).Error("STK push initiation failed")
		return nil, err
	}

	now := time.Now()
	txn := &models.Transaction{
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		PhoneNumber:       phone,
		Amount:            req.Amount,
		DonorName:         donorName,
		DonorEmail:        req.DonorEmail,
		AccountReference:  accountRef,
		Status:            models.StatusPending,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.ttl),
	}
	if err := s.registry.Put(txn); err != nil {
		// The push is already on its way to the phone; the callback
		// will find no record but must still be acknowledged.
		s.log.WithError(err).WithField("checkoutRequestId", resp.CheckoutRequestID).
			Error("Failed to register pending transaction")
	}

	message := resp.CustomerMessage
	if message == "" {
		message = "STK Push sent successfully. Check your phone for the payment prompt."
	}
	return &InitiateResult{
		CheckoutRequestID: resp.CheckoutRequestID,
		CustomerMessage:   message,
	}, nil
}

// ProcessCallback transitions the matching transaction to its terminal
// state. The transition happens at most once per checkout ID.
func (s *PaymentServiceImpl) ProcessCallback(ctx context.Context, callback *models.STKCallback) {
	log := s.log.WithFields(logrus.Fields{
		"checkoutRequestId": callback.CheckoutRequestID,
		"resultCode":        callback.ResultCode,
	})

	now := time.Now()
	var updated *models.Transaction
	var err error
	if callback.ResultCode == 0 {
		result := models.ParseCallbackMetadata(callback.CallbackMetadata)
		updated, err = s.registry.Update(callback.CheckoutRequestID, func(txn *models.Transaction) {
			txn.Status = models.StatusCompleted
			txn.ReceiptNumber = result.ReceiptNumber
			txn.CompletedAt = &now
		})
		if err == nil {
			log.WithField("mpesaReceiptNumber", result.ReceiptNumber).Info("Payment completed")
		}
	} else {
		updated, err = s.registry.Update(callback.CheckoutRequestID, func(txn *models.Transaction) {
			txn.Status = models.StatusFailed
			txn.FailureReason = callback.ResultDesc
			txn.FailedAt = &now
		})
		if err == nil {
			log.WithField("resultDesc", callback.ResultDesc).Info("Payment failed")
		}
	}

	switch {
	case err == nil:
		s.archiveTransaction(ctx, updated)
	case err == repositories.ErrNotFound:
		log.Warn("Callback for unknown or expired transaction")
	case err == repositories.ErrAlreadyFinal:
		log.Warn("Duplicate callback ignored; transaction already terminal")
	default:
		log.WithError(err).Error("Failed to apply callback")
	}
}

// archiveTransaction mirrors a terminal transaction into the durable
// archive. Best effort: archive failures are logged, never surfaced to
// the provider.
func (s *PaymentServiceImpl) archiveTransaction(ctx context.Context, txn *models.Transaction) {
	if s.archive == nil || txn == nil {
		return
	}
	if err := s.archive.Save(ctx, txn); err != nil {
		s.log.WithError(err).WithField("checkoutRequestId", txn.CheckoutRequestID).
			Error("Failed to archive donation")
	}
}

// GetStatus returns the registry's view of a transaction.
func (s *PaymentServiceImpl) GetStatus(ctx context.Context, checkoutRequestID string) (*models.Transaction, error) {
	return s.registry.Get(checkoutRequestID)
}

// QueryGateway passes a status query through to the provider.
func (s *PaymentServiceImpl) QueryGateway(ctx context.Context, checkoutRequestID string) (map[string]interface{}, error) {
	return s.gateway.QuerySTKPush(ctx, checkoutRequestID)
}

// ActiveCount returns the number of live in-flight transactions.
func (s *PaymentServiceImpl) ActiveCount() int {
	return s.registry.Count()
}

// ListDonations pages through the archived donation history.
func (s *PaymentServiceImpl) ListDonations(ctx context.Context, page, limit int) ([]*models.Transaction, int64, error) {
	if s.archive == nil {
		return nil, 0, ErrArchiveDisabled
	}
	donations, err := s.archive.FindRecent(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list donations: %w", err)
	}
	total, err := s.archive.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count donations: %w", err)
	}
	return donations, total, nil
}

package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// Transaction statuses. A transaction starts pending and moves to
// exactly one terminal status; terminal statuses never change again.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Transaction represents an in-flight or settled STK push donation,
// keyed by the provider-issued CheckoutRequestID.
type Transaction struct {
	CheckoutRequestID string     `bson:"checkoutRequestId" json:"checkoutRequestId"`
	MerchantRequestID string     `bson:"merchantRequestId,omitempty" json:"merchantRequestId,omitempty"`
	PhoneNumber       string     `bson:"phoneNumber" json:"phoneNumber"`
	Amount            float64    `bson:"amount" json:"amount"`
	DonorName         string     `bson:"donorName,omitempty" json:"donorName,omitempty"`
	DonorEmail        string     `bson:"donorEmail,omitempty" json:"donorEmail,omitempty"`
	AccountReference  string     `bson:"accountReference" json:"accountReference"`
	Status            string     `bson:"status" json:"status"`
	CreatedAt         time.Time  `bson:"createdAt" json:"createdAt"`
	ExpiresAt         time.Time  `bson:"expiresAt" json:"-"`
	CompletedAt       *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	FailedAt          *time.Time `bson:"failedAt,omitempty" json:"failedAt,omitempty"`
	ReceiptNumber     string     `bson:"mpesaReceiptNumber,omitempty" json:"mpesaReceiptNumber,omitempty"`
	FailureReason     string     `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
}

// IsTerminal reports whether the transaction has reached a final status.
func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// InitiateRequest is the donor-facing payment initiation body.
type InitiateRequest struct {
	Amount           float64 `json:"amount"`
	PhoneNumber      string  `json:"phoneNumber"`
	DonorName        string  `json:"donorName"`
	DonorEmail       string  `json:"donorEmail"`
	AccountReference string  `json:"accountReference"`
}

// QueryRequest asks the provider directly for the state of a push.
type QueryRequest struct {
	CheckoutRequestID string `json:"checkoutRequestId"`
}

// CallbackEnvelope mirrors the provider's nested callback body.
type CallbackEnvelope struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// STKCallback is the result of a previously initiated STK push.
type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// CallbackMetadata carries the provider's tagged result items.
type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem is a single Name/Value pair from the callback metadata.
// Values arrive untyped: receipts are strings, amounts and dates numbers.
type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// CallbackResult is the structured view of the callback metadata.
// Fields are zero-valued when the corresponding item is missing.
type CallbackResult struct {
	Amount          float64
	ReceiptNumber   string
	Balance         float64
	TransactionDate int64
	PhoneNumber     string
}

// ParseCallbackMetadata extracts the named items from the provider's
// array-of-tagged-values structure. Missing or mistyped items are
// skipped; the callback must never fail over absent metadata.
func ParseCallbackMetadata(meta *CallbackMetadata) CallbackResult {
	var result CallbackResult
	if meta == nil {
		return result
	}
	for _, item := range meta.Item {
		switch item.Name {
		case "Amount":
			var v float64
			if json.Unmarshal(item.Value, &v) == nil {
				result.Amount = v
			}
		case "MpesaReceiptNumber":
			var v string
			if json.Unmarshal(item.Value, &v) == nil {
				result.ReceiptNumber = v
			}
		case "Balance":
			var v float64
			if json.Unmarshal(item.Value, &v) == nil {
				result.Balance = v
			}
		case "TransactionDate":
			var v int64
			if json.Unmarshal(item.Value, &v) == nil {
				result.TransactionDate = v
			}
		case "PhoneNumber":
			// The provider sends phone numbers as numbers on some
			// shortcodes and strings on others.
			var s string
			if json.Unmarshal(item.Value, &s) == nil {
				result.PhoneNumber = s
				continue
			}
			var n int64
			if json.Unmarshal(item.Value, &n) == nil {
				result.PhoneNumber = strconv.FormatInt(n, 10)
			}
		}
	}
	return result
}

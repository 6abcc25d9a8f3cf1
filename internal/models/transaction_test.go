package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallbackMetadata(t *testing.T) {
	meta := &CallbackMetadata{
		Item: []MetadataItem{
			{Name: "Amount", Value: []byte(`500`)},
			{Name: "MpesaReceiptNumber", Value: []byte(`"QGR7XXXX"`)},
			{Name: "Balance", Value: []byte(`0`)},
			{Name: "TransactionDate", Value: []byte(`20270315143045`)},
			{Name: "PhoneNumber", Value: []byte(`254712345678`)},
		},
	}

	result := ParseCallbackMetadata(meta)
	assert.Equal(t, float64(500), result.Amount)
	assert.Equal(t, "QGR7XXXX", result.ReceiptNumber)
	assert.Equal(t, int64(20270315143045), result.TransactionDate)
	assert.Equal(t, "254712345678", result.PhoneNumber)
}

func TestParseCallbackMetadataNil(t *testing.T) {
	result := ParseCallbackMetadata(nil)
	assert.Zero(t, result.Amount)
	assert.Empty(t, result.ReceiptNumber)
}

func TestParseCallbackMetadataMissingItems(t *testing.T) {
	meta := &CallbackMetadata{
		Item: []MetadataItem{
			{Name: "Amount", Value: []byte(`100`)},
		},
	}

	result := ParseCallbackMetadata(meta)
	assert.Equal(t, float64(100), result.Amount)
	assert.Empty(t, result.ReceiptNumber)
	assert.Empty(t, result.PhoneNumber)
}

func TestParseCallbackMetadataMistypedItems(t *testing.T) {
	meta := &CallbackMetadata{
		Item: []MetadataItem{
			{Name: "Amount", Value: []byte(`"not-a-number"`)},
			{Name: "MpesaReceiptNumber", Value: []byte(`12345`)},
		},
	}

	// Mistyped items are skipped, never a failure.
	result := ParseCallbackMetadata(meta)
	assert.Zero(t, result.Amount)
	assert.Empty(t, result.ReceiptNumber)
}

func TestParseCallbackMetadataStringPhoneNumber(t *testing.T) {
	meta := &CallbackMetadata{
		Item: []MetadataItem{
			{Name: "PhoneNumber", Value: []byte(`"254712345678"`)},
		},
	}

	result := ParseCallbackMetadata(meta)
	assert.Equal(t, "254712345678", result.PhoneNumber)
}

func TestCallbackEnvelopeDecoding(t *testing.T) {
	raw := `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_1234",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 500},
						{"Name": "MpesaReceiptNumber", "Value": "QGR7XXXX"}
					]
				}
			}
		}
	}`

	var envelope CallbackEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))

	callback := envelope.Body.STKCallback
	assert.Equal(t, "ws_CO_1234", callback.CheckoutRequestID)
	assert.Equal(t, 0, callback.ResultCode)

	result := ParseCallbackMetadata(callback.CallbackMetadata)
	assert.Equal(t, "QGR7XXXX", result.ReceiptNumber)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, (&Transaction{Status: StatusPending}).IsTerminal())
	assert.True(t, (&Transaction{Status: StatusCompleted}).IsTerminal())
	assert.True(t, (&Transaction{Status: StatusFailed}).IsTerminal())
}

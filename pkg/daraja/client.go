package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Gateway is the STK push surface of the Daraja API.
type Gateway interface {
	InitiateSTKPush(ctx context.Context, req *STKPushRequest) (*STKPushResponse, error)
	QuerySTKPush(ctx context.Context, checkoutRequestID string) (map[string]interface{}, error)
}

// AuthError indicates the provider rejected our credentials or was
// unreachable during token acquisition.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("daraja authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// GatewayError indicates the provider rejected or failed an initiation
// or query call after successful authentication.
type GatewayError struct {
	// Description is the provider's own message when one was returned.
	Description string
	Err         error
}

func (e *GatewayError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("daraja request failed: %s", e.Description)
	}
	return fmt.Sprintf("daraja request failed: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// STKPushRequest carries the caller-supplied fields of an initiation.
// The phone number must already be normalized to 254XXXXXXXXX form.
type STKPushRequest struct {
	PhoneNumber      string
	Amount           float64
	AccountReference string
	Description      string
}

// STKPushResponse is the accepted-initiation result.
type STKPushResponse struct {
	MerchantRequestID   string
	CheckoutRequestID   string
	ResponseDescription string
	CustomerMessage     string
}

// Client talks to the Daraja API. Every call acquires a fresh OAuth
// token and derives a fresh password/timestamp pair; the signing
// credential is minute-sensitive and must never be reused.
type Client struct {
	BaseURL        string
	Shortcode      string
	Passkey        string
	ConsumerKey    string
	ConsumerSecret string
	CallbackURL    string
	client         *http.Client
	now            func() time.Time
}

var _ Gateway = (*Client)(nil)

// NewClient creates a new Daraja API client
func NewClient(baseURL, shortcode, passkey, consumerKey, consumerSecret, callbackURL string) *Client {
	return &Client{
		BaseURL:        baseURL,
		Shortcode:      shortcode,
		Passkey:        passkey,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		CallbackURL:    callbackURL,
		client:         &http.Client{Timeout: 10 * time.Second},
		now:            time.Now,
	}
}

// Authenticate obtains a short-lived bearer token via the client
// credentials grant. Tokens are not cached; each initiation and query
// re-authenticates.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/oauth/v1/generate?grant_type=client_credentials", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &AuthError{Err: err}
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.ConsumerKey + ":" + c.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{Err: fmt.Errorf("token request returned status %d: %s", resp.StatusCode, string(body))}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", &AuthError{Err: fmt.Errorf("failed to parse token response: %w", err)}
	}
	if tokenResp.AccessToken == "" {
		return "", &AuthError{Err: fmt.Errorf("token response contained no access_token")}
	}
	return tokenResp.AccessToken, nil
}

// password derives the request-signing credential:
// base64(shortcode + passkey + timestamp), timestamp YYYYMMDDHHmmss.
func (c *Client) password() (password, timestamp string) {
	timestamp = c.now().Format("20060102150405")
	password = base64.StdEncoding.EncodeToString([]byte(c.Shortcode + c.Passkey + timestamp))
	return password, timestamp
}

// InitiateSTKPush submits a CustomerPayBillOnline push to the
// subscriber's phone. ResponseCode "0" means the push was accepted and
// the final outcome will arrive on the callback URL.
func (c *Client) InitiateSTKPush(ctx context.Context, req *STKPushRequest) (*STKPushResponse, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := c.password()
	payload := map[string]interface{}{
		"BusinessShortCode": c.Shortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            req.Amount,
		"PartyA":            req.PhoneNumber,
		"PartyB":            c.Shortcode,
		"PhoneNumber":       req.PhoneNumber,
		"CallBackURL":       c.CallbackURL,
		"AccountReference":  req.AccountReference,
		"TransactionDesc":   req.Description,
	}

	var result struct {
		MerchantRequestID   string `json:"MerchantRequestID"`
		CheckoutRequestID   string `json:"CheckoutRequestID"`
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
		CustomerMessage     string `json:"CustomerMessage"`
		ErrorMessage        string `json:"errorMessage"`
	}
	if err := c.post(ctx, "/mpesa/stkpush/v1/processrequest", token, payload, &result); err != nil {
		return nil, err
	}

	if result.ResponseCode != "0" {
		desc := result.ResponseDescription
		if desc == "" {
			desc = result.ErrorMessage
		}
		return nil, &GatewayError{
			Description: desc,
			Err:         fmt.Errorf("initiation rejected with response code %q", result.ResponseCode),
		}
	}

	return &STKPushResponse{
		MerchantRequestID:   result.MerchantRequestID,
		CheckoutRequestID:   result.CheckoutRequestID,
		ResponseDescription: result.ResponseDescription,
		CustomerMessage:     result.CustomerMessage,
	}, nil
}

// QuerySTKPush asks the provider for the current state of a push. The
// raw provider payload is returned for the caller to interpret.
func (c *Client) QuerySTKPush(ctx context.Context, checkoutRequestID string) (map[string]interface{}, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := c.password()
	payload := map[string]interface{}{
		"BusinessShortCode": c.Shortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutRequestID,
	}

	var result map[string]interface{}
	if err := c.post(ctx, "/mpesa/stkpushquery/v1/query", token, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, path, token string, payload, result interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return &GatewayError{Err: fmt.Errorf("failed to marshal request body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return &GatewayError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GatewayError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Daraja reports rejections as JSON with an errorMessage field.
		var errResp struct {
			ErrorMessage string `json:"errorMessage"`
		}
		_ = json.Unmarshal(body, &errResp)
		return &GatewayError{
			Description: errResp.ErrorMessage,
			Err:         fmt.Errorf("request to %s returned status %d", path, resp.StatusCode),
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &GatewayError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}

package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const transfersPath = "/v1/transfers"

// Client talks to the external payout provider's REST API. Requests are
// HMAC-signed; the reference passed to CreateTransfer doubles as the
// provider-side idempotency key so a retried submission cannot double-pay.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	secret     string
}

func NewClient(baseURL, apiKey, secret string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		secret:  secret,
	}
}

type transferRequest struct {
	DestinationAccount string `json:"destination_account"`
	Amount             string `json:"amount"`
	Currency           string `json:"currency"`
	Reference          string `json:"reference"`
}

type transferResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
}

// signRequest creates an HMAC signature for authenticated requests
func (c *Client) signRequest(timestamp, method, path, body string) string {
	message := timestamp + method + path + body
	h := hmac.New(sha256.New, []byte(c.secret))
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// addAuthHeaders adds authentication headers to the request
func (c *Client) addAuthHeaders(req *http.Request, method, path, body, idempotencyKey string) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := c.signRequest(timestamp, method, path, body)

	req.Header.Set("PAY-API-KEY", c.apiKey)
	req.Header.Set("PAY-SIGNATURE", signature)
	req.Header.Set("PAY-TIMESTAMP", timestamp)
	req.Header.Set("Idempotency-Key", idempotencyKey)
	req.Header.Set("Content-Type", "application/json")
}

// CreateTransfer moves an amount to a registered payout destination and
// returns the provider-side transfer identifier
func (c *Client) CreateTransfer(ctx context.Context, destination string, amount decimal.Decimal, currency, reference string) (string, error) {
	payload := transferRequest{
		DestinationAccount: destination,
		Amount:             amount.StringFixed(2),
		Currency:           currency,
		Reference:          reference,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+transfersPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	c.addAuthHeaders(req, "POST", transfersPath, string(body), reference)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit transfer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("payments API error: %d - %s", resp.StatusCode, string(respBody))
	}

	var result transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode transfer response: %w", err)
	}

	if result.TransferID == "" {
		return "", fmt.Errorf("payments API returned no transfer id")
	}

	return result.TransferID, nil
}

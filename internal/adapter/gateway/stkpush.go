package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// StkPush calls the mobile-money provider's STK push endpoint.
type StkPush struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewStkPush(baseURL, apiKey string, timeout time.Duration) *StkPush {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StkPush{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type stkRequest struct {
	PhoneNumber string `json:"phone_number"`
	Amount      string `json:"amount"`
	Reference   string `json:"account_reference"`
	Description string `json:"transaction_desc"`
}

type stkResponse struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	ResponseCode      string `json:"response_code"`
	ResponseMessage   string `json:"response_description"`
}

// StatusError is a non-2xx answer from the provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway: status %d: %s", e.Code, e.Body)
}

func (g *StkPush) InitiateStkPush(ctx context.Context, phone string, amount decimal.Decimal, reference, description string) (string, error) {
	body, err := json.Marshal(stkRequest{
		PhoneNumber: phone,
		Amount:      amount.StringFixed(0),
		Reference:   reference,
		Description: description,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/stkpush", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{Code: resp.StatusCode, Body: string(b)}
	}

	var out stkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gateway: decode response: %w", err)
	}
	if out.ResponseCode != "" && out.ResponseCode != "0" {
		return "", fmt.Errorf("gateway: rejected (%s): %s", out.ResponseCode, out.ResponseMessage)
	}
	return out.CheckoutRequestID, nil
}

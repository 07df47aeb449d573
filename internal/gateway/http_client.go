package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// restClient talks to the gateway's REST API with JSON bodies and
// basic-auth style credentials in the Authorization header.
type restClient struct {
	cfg        Config
	httpClient *http.Client
}

// New creates the HTTP gateway client
func New(cfg Config) Client {
	return &restClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *restClient) TestConnection(ctx context.Context) error {
	var result struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := c.call(ctx, http.MethodGet, "/payment/test", nil, &result); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if result.Status != StatusSuccess {
		return fmt.Errorf("%w: %s", ErrAuthentication, result.ErrorMessage)
	}
	return nil
}

func (c *restClient) Charge(ctx context.Context, req *PaymentRequest) (*ChargeResult, error) {
	var result ChargeResult
	if err := c.call(ctx, http.MethodPost, "/payment/auth", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *restClient) InitThreeds(ctx context.Context, req *PaymentRequest) (*ThreedsInit, error) {
	if req.CallbackURL == "" {
		req.CallbackURL = c.cfg.CallbackURL
	}
	var result ThreedsInit
	if err := c.call(ctx, http.MethodPost, "/payment/3dsecure/initialize", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *restClient) ConfirmThreeds(ctx context.Context, paymentID, conversationData, conversationID string) (*ChargeResult, error) {
	body := map[string]string{
		"paymentId":        paymentID,
		"conversationData": conversationData,
		"conversationId":   conversationID,
		"locale":           c.cfg.Locale,
	}
	var result ChargeResult
	if err := c.call(ctx, http.MethodPost, "/payment/3dsecure/auth", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *restClient) Cancel(ctx context.Context, paymentID string) (*CancelResult, error) {
	body := map[string]string{
		"paymentId": paymentID,
		"locale":    c.cfg.Locale,
	}
	var result CancelResult
	if err := c.call(ctx, http.MethodPost, "/payment/cancel", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *restClient) StoreCard(ctx context.Context, req *StoreCardRequest) (*StoreCardResult, error) {
	var result StoreCardResult
	if err := c.call(ctx, http.MethodPost, "/cardstorage/card", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *restClient) DeleteCard(ctx context.Context, userKey, token string) error {
	body := map[string]string{
		"cardUserKey": userKey,
		"cardToken":   token,
	}
	var result struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := c.call(ctx, http.MethodDelete, "/cardstorage/card", body, &result); err != nil {
		return err
	}
	if result.Status != StatusSuccess {
		return fmt.Errorf("gateway: card delete failed: %s", result.ErrorMessage)
	}
	return nil
}

func (c *restClient) call(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	auth := base64.StdEncoding.EncodeToString([]byte(c.cfg.APIKey + ":" + c.cfg.SecretKey))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gateway: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("gateway: %s %s: status %d", method, path, resp.StatusCode)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}

package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"loanpay/internal/usecase/interfaces"

	"github.com/google/uuid"
)

const (
	pathRequestToken         = "/api/Auth/RequestToken"
	pathSubmitOrderRequest   = "/api/Transactions/SubmitOrderRequest"
	pathGetTransactionStatus = "/api/Transactions/GetTransactionStatus"

	defaultHTTPTimeout = 30 * time.Second
	defaultTokenTTL    = 20 * time.Minute
)

// PesapalConfig carries the gateway credentials and endpoints.
//
// Env mapping (see NewPesapalClientFromEnv):
//   - GATEWAY_BASE_URL
//   - GATEWAY_CONSUMER_KEY / GATEWAY_CONSUMER_SECRET
//   - GATEWAY_CALLBACK_URL  (redirect target registered with the gateway)
//   - GATEWAY_NOTIFICATION_ID (IPN registration id)

type PesapalConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	CallbackURL    string
	NotificationID string
}

// PesapalClient is the real gateway transport.
//
// Authentication is two-phase: the legacy auth endpoint takes a
// signed-parameter request (Signer.SignedParams); every transactional call
// takes the cached bearer token. The token cache lives here because the
// credential is a property of this transport, not of any caller.

type PesapalClient struct {
	httpClient *http.Client
	signer     *Signer
	cfg        PesapalConfig
	tokens     *TokenCache
}

var _ interfaces.IPaymentGateway = (*PesapalClient)(nil)

func NewPesapalClient(cfg PesapalConfig) *PesapalClient {
	c := &PesapalClient{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		signer:     NewSigner(cfg.ConsumerKey, cfg.ConsumerSecret),
		cfg:        cfg,
	}
	c.tokens = NewTokenCache(c)
	return c
}

// Tokens exposes the credential cache so the retry controller can invalidate
// it after a 401.
func (c *PesapalClient) Tokens() *TokenCache { return c.tokens }

// RequestToken performs the legacy signed-parameter credential exchange.
func (c *PesapalClient) RequestToken(ctx context.Context) (string, time.Time, error) {
	endpoint := c.cfg.BaseURL + pathRequestToken
	params := map[string]string{
		"consumer_key": c.cfg.ConsumerKey,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"nonce":        uuid.NewString(),
	}

	body, err := json.Marshal(params)
	if err != nil {
		return "", time.Time{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.signer.SignedParams(http.MethodPost, endpoint, params))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("request token: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", time.Time{}, fmt.Errorf("request token status %d: %w", resp.StatusCode, ErrAuth)
	}
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed struct {
		Token      string `json:"token"`
		ExpiryDate string `json:"expiryDate"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", time.Time{}, fmt.Errorf("request token decode: %w", err)
	}
	if parsed.Token == "" {
		return "", time.Time{}, fmt.Errorf("request token: empty token: %w", ErrAuth)
	}

	expiresAt := time.Now().Add(defaultTokenTTL)
	if parsed.ExpiryDate != "" {
		if t, perr := time.Parse(time.RFC3339, parsed.ExpiryDate); perr == nil {
			expiresAt = t
		}
	}
	return parsed.Token, expiresAt, nil
}

type submitOrderBody struct {
	ID             string                    `json:"id"`
	Currency       string                    `json:"currency"`
	Amount         json.Number               `json:"amount"`
	Description    string                    `json:"description"`
	CallbackURL    string                    `json:"callback_url"`
	NotificationID string                    `json:"notification_id"`
	BillingAddress interfaces.BillingAddress `json:"billing_address"`
}

type gatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *PesapalClient) SubmitOrder(ctx context.Context, req interfaces.OrderRequest) (interfaces.OrderResponse, error) {
	billing := req.Billing
	if billing.PhoneNumber == "" {
		billing.PhoneNumber = req.PhoneNumber
	}

	body := submitOrderBody{
		ID:             req.MerchantReference,
		Currency:       req.Currency,
		Amount:         json.Number(req.Amount.String()),
		Description:    req.Description,
		CallbackURL:    req.CallbackURL,
		NotificationID: req.NotificationID,
		BillingAddress: billing,
	}
	if body.CallbackURL == "" {
		body.CallbackURL = c.cfg.CallbackURL
	}
	if body.NotificationID == "" {
		body.NotificationID = c.cfg.NotificationID
	}

	raw, err := c.doJSON(ctx, http.MethodPost, c.cfg.BaseURL+pathSubmitOrderRequest, body)
	if err != nil {
		return interfaces.OrderResponse{}, err
	}

	var parsed struct {
		OrderTrackingID string        `json:"order_tracking_id"`
		Status          string        `json:"status"`
		RedirectURL     string        `json:"redirect_url"`
		Error           *gatewayError `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return interfaces.OrderResponse{}, fmt.Errorf("submit order decode: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Code != "" {
		return interfaces.OrderResponse{}, fmt.Errorf("submit order rejected code=%s: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if parsed.OrderTrackingID == "" {
		return interfaces.OrderResponse{}, fmt.Errorf("submit order: missing order_tracking_id")
	}

	log.Printf("[payment][gateway] submit success merchant_reference=%s order_tracking_id=%s status=%s",
		req.MerchantReference, parsed.OrderTrackingID, parsed.Status)
	return interfaces.OrderResponse{
		OrderTrackingID: parsed.OrderTrackingID,
		Status:          parsed.Status,
		RedirectURL:     parsed.RedirectURL,
		Raw:             raw,
	}, nil
}

func (c *PesapalClient) GetTransactionStatus(ctx context.Context, orderTrackingID string) (interfaces.TransactionStatus, error) {
	endpoint := c.cfg.BaseURL + pathGetTransactionStatus + "?orderTrackingId=" + url.QueryEscape(orderTrackingID)

	raw, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return interfaces.TransactionStatus{}, err
	}

	var parsed struct {
		PaymentStatusDescription string `json:"payment_status_description"`
		MerchantReference        string `json:"merchant_reference"`
		PaymentAccount           string `json:"payment_account"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return interfaces.TransactionStatus{}, fmt.Errorf("transaction status decode: %w", err)
	}

	return interfaces.TransactionStatus{
		OrderTrackingID:   orderTrackingID,
		MerchantReference: parsed.MerchantReference,
		StatusDescription: parsed.PaymentStatusDescription,
		PaymentAccount:    parsed.PaymentAccount,
		Raw:               raw,
	}, nil
}

// doJSON performs a bearer-authenticated call and classifies non-2xx answers.
func (c *PesapalClient) doJSON(ctx context.Context, method, endpoint string, body interface{}) (json.RawMessage, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", Bearer(token))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("gateway call status 401: %w", ErrAuth)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

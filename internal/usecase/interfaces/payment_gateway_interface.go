package interfaces

import (
	"context"
	"encoding/json"

	"loanpay/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// BillingAddress is the payer detail block the gateway requires on every order.

type BillingAddress struct {
	Email       string `json:"email_address,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// OrderRequest is a gateway order submission. MerchantReference is generated
// locally before the call and is the idempotency key the gateway deduplicates on.

type OrderRequest struct {
	MerchantReference string
	Currency          string
	Amount            decimal.Decimal
	Description       string
	CallbackURL       string
	NotificationID    string
	PaymentMethod     entities.PaymentMethod
	PhoneNumber       string
	Billing           BillingAddress
}

// OrderResponse is the gateway's answer to an accepted order. Degraded marks
// results produced by the fallback transport rather than the real gateway.

type OrderResponse struct {
	OrderTrackingID string
	Status          string
	RedirectURL     string
	Degraded        bool
	Raw             json.RawMessage
}

// TransactionStatus is one status-query or notification result, normalized to
// the shape reconciliation consumes.

type TransactionStatus struct {
	OrderTrackingID   string
	MerchantReference string
	StatusDescription string
	PaymentAccount    string
	Degraded          bool
	Raw               json.RawMessage
}

// IPaymentGateway abstracts the external payment gateway transport.
//
// Implementations: the real HTTP client, the in-process sandbox simulator, and
// the retry/fallback controller that decorates either.

type IPaymentGateway interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResponse, error)
	GetTransactionStatus(ctx context.Context, orderTrackingID string) (TransactionStatus, error)
}

package entities

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle of a repayment attempt.
//
// A payment starts pending and moves to exactly one terminal state.
// Terminal states never transition again; duplicate gateway callbacks
// for a settled payment must be no-ops.

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusExpired   PaymentStatus = "expired"
)

// IsTerminal reports whether no further status transition is allowed.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusExpired:
		return true
	}
	return false
}

// PaymentMethod enumerates the channels the gateway accepts.

type PaymentMethod string

const (
	PaymentMethodMpesa      PaymentMethod = "mpesa"
	PaymentMethodAirtel     PaymentMethod = "airtel_money"
	PaymentMethodTigoPesa   PaymentMethod = "tigo_pesa"
	PaymentMethodVisa       PaymentMethod = "visa"
	PaymentMethodMastercard PaymentMethod = "mastercard"
)

// IsMobileMoney reports whether the method requires a subscriber phone number.
func (m PaymentMethod) IsMobileMoney() bool {
	switch m {
	case PaymentMethodMpesa, PaymentMethodAirtel, PaymentMethodTigoPesa:
		return true
	}
	return false
}

// IsValid reports whether the method is one the gateway supports.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodMpesa, PaymentMethodAirtel, PaymentMethodTigoPesa, PaymentMethodVisa, PaymentMethodMastercard:
		return true
	}
	return false
}

// Payment is a single repayment attempt against a loan.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (merchant_reference-index): merchant_reference
//   - GSI2 (loan_id-index): loan_id
//
// MerchantReference is generated locally before the gateway is contacted and is
// the idempotency key the gateway sees; it is never reused, even when a retry
// creates a fresh Payment for the same loan. GatewayOrderID is assigned by the
// gateway once the order is accepted and is the key for status queries.
//
// RawCallbackPayload keeps the last gateway notification body (JSON) verbatim
// for traceability/audit; GatewayStatusText keeps the last status description.

type Payment struct {
	ID                string          `json:"id"`
	LoanID            string          `json:"loan_id"`
	UserID            string          `json:"user_id"`
	MerchantReference string          `json:"merchant_reference"`
	GatewayOrderID    string          `json:"gateway_order_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	PaymentMethod     PaymentMethod   `json:"payment_method"`
	PhoneNumber       string          `json:"phone_number,omitempty"`
	Status            PaymentStatus   `json:"status"`
	Description       string          `json:"description,omitempty"`
	Degraded          bool            `json:"degraded,omitempty"`

	GatewayStatusText  string          `json:"gateway_status_text,omitempty"`
	RawCallbackPayload json.RawMessage `json:"raw_callback_payload,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
}

package request

import (
	"strings"

	"loanpay/internal/domain/entities"
	"loanpay/internal/usecase"

	"github.com/shopspring/decimal"
)

// InitiatePaymentRequest is the payload for POST /v1/payments.
//
// Amount accepts either a JSON number or a string; it is parsed as an exact
// decimal, never a float.

type InitiatePaymentRequest struct {
	LoanID        string          `json:"loan_id" binding:"required"`
	UserID        string          `json:"user_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	PhoneNumber   string          `json:"phone_number"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
	Description   string          `json:"description"`
}

func (r InitiatePaymentRequest) ToParams() usecase.InitiateParams {
	return usecase.InitiateParams{
		LoanID:      strings.TrimSpace(r.LoanID),
		UserID:      strings.TrimSpace(r.UserID),
		Amount:      r.Amount,
		PhoneNumber: strings.TrimSpace(r.PhoneNumber),
		Method:      entities.PaymentMethod(strings.TrimSpace(r.PaymentMethod)),
		Description: strings.TrimSpace(r.Description),
	}
}

// GatewayNotification is the shape the gateway pushes on both webhook
// channels: query parameters on the synchronous redirect callback, a JSON
// body on the asynchronous IPN call. Field names are the gateway's, not ours.

type GatewayNotification struct {
	OrderTrackingID        string `json:"OrderTrackingId" form:"OrderTrackingId"`
	OrderMerchantReference string `json:"OrderMerchantReference" form:"OrderMerchantReference"`
	OrderNotificationType  string `json:"OrderNotificationType" form:"OrderNotificationType"`
}

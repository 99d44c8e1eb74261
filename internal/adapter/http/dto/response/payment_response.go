package response

import (
	"time"

	"loanpay/internal/domain/entities"
)

type PaymentResponse struct {
	PaymentID         string `json:"payment_id"`
	LoanID            string `json:"loan_id"`
	UserID            string `json:"user_id"`
	MerchantReference string `json:"merchant_reference"`
	GatewayOrderID    string `json:"gateway_order_id,omitempty"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	PaymentMethod     string `json:"payment_method"`
	PhoneNumber       string `json:"phone_number,omitempty"`
	Status            string `json:"status"`
	GatewayStatusText string `json:"gateway_status_text,omitempty"`
	Degraded          bool   `json:"degraded,omitempty"`
	RedirectURL       string `json:"redirect_url,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func FromPayment(p entities.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:         p.ID,
		LoanID:            p.LoanID,
		UserID:            p.UserID,
		MerchantReference: p.MerchantReference,
		GatewayOrderID:    p.GatewayOrderID,
		Amount:            p.Amount.String(),
		Currency:          p.Currency,
		PaymentMethod:     string(p.PaymentMethod),
		PhoneNumber:       p.PhoneNumber,
		Status:            string(p.Status),
		GatewayStatusText: p.GatewayStatusText,
		Degraded:          p.Degraded,
		CreatedAt:         p.CreatedAt,
		PaidAt:            p.PaidAt,
		ExpiresAt:         p.ExpiresAt,
	}
}

func FromInitiation(p entities.Payment, redirectURL string) PaymentResponse {
	res := FromPayment(p)
	res.RedirectURL = redirectURL
	return res
}

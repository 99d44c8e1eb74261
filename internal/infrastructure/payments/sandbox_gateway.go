package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"loanpay/internal/usecase/interfaces"

	"github.com/google/uuid"
)

// SandboxGateway is the in-process simulator.
//
// It serves two roles: primary transport in mock mode (PAYMENT_GATEWAY_MOCK,
// same convention the rest of the service uses for local runs) and fallback
// transport behind the retry controller, so a user-facing repayment flow never
// dead-ends on gateway downtime. Every result it produces is marked Degraded.
//
// Orders are accepted unconditionally; status queries report COMPLETED.

type SandboxGateway struct {
	mu     sync.Mutex
	orders map[string]string // order_tracking_id -> merchant_reference
}

var _ interfaces.IPaymentGateway = (*SandboxGateway)(nil)

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{orders: make(map[string]string)}
}

func (g *SandboxGateway) SubmitOrder(_ context.Context, req interfaces.OrderRequest) (interfaces.OrderResponse, error) {
	trackingID := uuid.NewString()

	g.mu.Lock()
	g.orders[trackingID] = req.MerchantReference
	g.mu.Unlock()

	raw, _ := json.Marshal(map[string]string{
		"order_tracking_id":  trackingID,
		"merchant_reference": req.MerchantReference,
		"status":             "200",
	})

	log.Printf("[payment][sandbox] order accepted merchant_reference=%s order_tracking_id=%s", req.MerchantReference, trackingID)
	return interfaces.OrderResponse{
		OrderTrackingID: trackingID,
		Status:          "200",
		RedirectURL:     fmt.Sprintf("https://sandbox.invalid/checkout/%s", trackingID),
		Degraded:        true,
		Raw:             raw,
	}, nil
}

func (g *SandboxGateway) GetTransactionStatus(_ context.Context, orderTrackingID string) (interfaces.TransactionStatus, error) {
	g.mu.Lock()
	merchantReference := g.orders[orderTrackingID]
	g.mu.Unlock()

	raw, _ := json.Marshal(map[string]string{
		"order_tracking_id":          orderTrackingID,
		"merchant_reference":         merchantReference,
		"payment_status_description": "COMPLETED",
		"payment_account":            "SANDBOX",
	})

	return interfaces.TransactionStatus{
		OrderTrackingID:   orderTrackingID,
		MerchantReference: merchantReference,
		StatusDescription: "COMPLETED",
		PaymentAccount:    "SANDBOX",
		Degraded:          true,
		Raw:               raw,
	}, nil
}

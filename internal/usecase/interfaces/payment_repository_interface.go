package interfaces

import (
	"context"
	"encoding/json"

	"loanpay/internal/domain/entities"
)

// IPaymentRepository abstracts DynamoDB persistence for Payment.
//
// Reads return the zero value (empty ID) for missing rows; callers decide
// whether that is an error. Create must refuse to overwrite an existing row
// so merchant references are never silently recycled.

type IPaymentRepository interface {
	Create(ctx context.Context, p entities.Payment) (entities.Payment, error)
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	GetByMerchantReference(ctx context.Context, merchantReference string) (entities.Payment, error)
	ListByLoanID(ctx context.Context, loanID string) ([]entities.Payment, error)

	// SetGatewayOrder records the tracking id the gateway assigned at
	// submission time, plus the status text it reported.
	SetGatewayOrder(ctx context.Context, id, gatewayOrderID, statusText string, degraded bool) (entities.Payment, error)

	// MarkFailed moves a pending payment to failed after exhausted submission
	// retries. Terminal rows are left untouched.
	MarkFailed(ctx context.Context, id, statusText string) (entities.Payment, error)

	// UpdateAudit stores the latest gateway status text and raw notification
	// payload without touching the payment status. Runs even when
	// reconciliation decides no transition applies.
	UpdateAudit(ctx context.Context, id, statusText string, rawPayload json.RawMessage) (entities.Payment, error)
}

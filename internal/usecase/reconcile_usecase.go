package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"loanpay/internal/domain/entities"
	"loanpay/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
)

// ErrReconcileConflict marks ledger lock contention. Reconcile retries it
// internally after a reload; it surfaces only when every retry lost and the
// payment is still pending, so the webhook answers non-2xx and the gateway
// redelivers, and the poller picks the payment up on its next tick.
var ErrReconcileConflict = errors.New("reconciliation conflict")

const maxConflictRetries = 3

// IReconcileUseCase is the single entry point both ingestion paths (polling
// and webhook/IPN) funnel into. Whichever path resolves a payment first wins;
// the other becomes a no-op.

type IReconcileUseCase interface {
	Reconcile(ctx context.Context, merchantReference, gatewayStatusText string, rawPayload json.RawMessage) (entities.Payment, error)
	ProcessNotification(ctx context.Context, orderTrackingID, merchantReference string) (entities.Payment, error)
}

type ReconcileUseCase struct {
	payments interfaces.IPaymentRepository
	loans    interfaces.ILoanRepository
	ledger   interfaces.ILedgerRepository
	gateway  interfaces.IPaymentGateway
}

var _ IReconcileUseCase = (*ReconcileUseCase)(nil)

func NewReconcileUseCase(
	payments interfaces.IPaymentRepository,
	loans interfaces.ILoanRepository,
	ledger interfaces.ILedgerRepository,
	gateway interfaces.IPaymentGateway,
) *ReconcileUseCase {
	return &ReconcileUseCase{payments: payments, loans: loans, ledger: ledger, gateway: gateway}
}

// ProcessNotification handles one gateway-pushed notification (redirect
// callback or IPN). The notification only carries identifiers, so the
// authoritative status is fetched from the gateway by tracking id before
// reconciling. Unknown references surface ErrPaymentNotFound so the webhook
// answers non-2xx and the gateway retries delivery.
func (u *ReconcileUseCase) ProcessNotification(ctx context.Context, orderTrackingID, merchantReference string) (entities.Payment, error) {
	merchantReference = strings.TrimSpace(merchantReference)
	orderTrackingID = strings.TrimSpace(orderTrackingID)
	if merchantReference == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}

	p, err := u.payments.GetByMerchantReference(ctx, merchantReference)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.ID == "" {
		log.Printf("[payment][reconcile] notification for unknown merchant_reference=%s order_tracking_id=%s",
			merchantReference, orderTrackingID)
		return entities.Payment{}, ErrPaymentNotFound
	}
	if orderTrackingID == "" {
		orderTrackingID = p.GatewayOrderID
	}

	st, err := u.gateway.GetTransactionStatus(ctx, orderTrackingID)
	if err != nil {
		return entities.Payment{}, err
	}
	return u.Reconcile(ctx, merchantReference, st.StatusDescription, st.Raw)
}

// mapGatewayStatus translates the gateway's status description into the
// internal payment status. Unknown strings leave the payment pending; a
// pending payment is never regressed and a terminal one never changed.
func mapGatewayStatus(text string) entities.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "COMPLETED":
		return entities.PaymentStatusCompleted
	case "FAILED", "INVALID":
		return entities.PaymentStatusFailed
	case "CANCELLED":
		return entities.PaymentStatusCancelled
	case "EXPIRED":
		return entities.PaymentStatusExpired
	default:
		return entities.PaymentStatusPending
	}
}

// Reconcile applies one gateway-reported outcome to the Payment/Loan pair,
// exactly once. Already-terminal payments are an idempotent no-op; this is
// the anti-double-credit guarantee. Lock contention (the other ingestion path
// committing between our read and our write) is retried after a reload.
func (u *ReconcileUseCase) Reconcile(ctx context.Context, merchantReference, gatewayStatusText string, rawPayload json.RawMessage) (entities.Payment, error) {
	merchantReference = strings.TrimSpace(merchantReference)
	if merchantReference == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}

	var lastErr error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		p, err := u.payments.GetByMerchantReference(ctx, merchantReference)
		if err != nil {
			return entities.Payment{}, err
		}
		if p.ID == "" {
			log.Printf("[payment][reconcile] unknown merchant_reference=%s status_text=%q", merchantReference, gatewayStatusText)
			return entities.Payment{}, ErrPaymentNotFound
		}
		if p.Status.IsTerminal() {
			log.Printf("[payment][reconcile] already terminal payment_id=%s status=%s (no-op)", p.ID, p.Status)
			return p, nil
		}

		mapped := mapGatewayStatus(gatewayStatusText)
		if mapped == entities.PaymentStatusPending {
			// No transition, but the audit trail still records what the
			// gateway said.
			updated, aerr := u.payments.UpdateAudit(ctx, p.ID, gatewayStatusText, rawPayload)
			if aerr != nil {
				return entities.Payment{}, aerr
			}
			if updated.ID == "" {
				updated = p
			}
			log.Printf("[payment][reconcile] non-terminal status payment_id=%s status_text=%q (left pending)", p.ID, gatewayStatusText)
			return updated, nil
		}

		commit, result, err := u.buildCommit(ctx, p, mapped, gatewayStatusText, rawPayload)
		if err != nil {
			return entities.Payment{}, err
		}

		err = u.ledger.CommitOutcome(ctx, commit)
		if err == nil {
			log.Printf("[payment][reconcile] committed payment_id=%s status=%s loan_id=%s", p.ID, mapped, p.LoanID)
			return result, nil
		}
		if errors.Is(err, interfaces.ErrConditionFailed) {
			lastErr = fmt.Errorf("%w: %v", ErrReconcileConflict, err)
			log.Printf("[payment][reconcile] conflict payment_id=%s attempt=%d, reloading", p.ID, attempt+1)
			continue
		}
		return entities.Payment{}, err
	}

	// The row kept moving under us; if the winner already settled it we are
	// still a clean no-op.
	p, err := u.payments.GetByMerchantReference(ctx, merchantReference)
	if err == nil && p.ID != "" && p.Status.IsTerminal() {
		return p, nil
	}
	return entities.Payment{}, lastErr
}

func (u *ReconcileUseCase) buildCommit(
	ctx context.Context,
	p entities.Payment,
	mapped entities.PaymentStatus,
	gatewayStatusText string,
	rawPayload json.RawMessage,
) (interfaces.LedgerCommit, entities.Payment, error) {
	now := time.Now().UTC()
	commit := interfaces.LedgerCommit{
		PaymentID:          p.ID,
		NewPaymentStatus:   mapped,
		GatewayStatusText:  gatewayStatusText,
		RawCallbackPayload: rawPayload,
	}

	result := p
	result.Status = mapped
	result.GatewayStatusText = gatewayStatusText
	result.RawCallbackPayload = rawPayload

	if mapped != entities.PaymentStatusCompleted {
		// failed/cancelled/expired: the loan is untouched.
		return commit, result, nil
	}

	loan, err := u.loans.GetByID(ctx, p.LoanID)
	if err != nil {
		return interfaces.LedgerCommit{}, entities.Payment{}, err
	}
	if loan.ID == "" {
		return interfaces.LedgerCommit{}, entities.Payment{}, ErrLoanNotFound
	}

	newOutstanding := loan.OutstandingBalance.Sub(p.Amount)
	if newOutstanding.IsNegative() {
		newOutstanding = decimal.Zero
	}

	commit.PaidAt = &now
	commit.TouchLoan = true
	commit.LoanID = loan.ID
	commit.LoanVersion = loan.Version
	commit.NewOutstanding = newOutstanding
	commit.NewAmountPaid = loan.AmountPaid.Add(p.Amount)
	commit.NewLoanStatus = loan.Status
	if newOutstanding.IsZero() && loan.Status != entities.LoanStatusRepaid {
		commit.NewLoanStatus = entities.LoanStatusRepaid
		commit.RepaidAt = &now
	}

	result.PaidAt = &now
	return commit, result, nil
}

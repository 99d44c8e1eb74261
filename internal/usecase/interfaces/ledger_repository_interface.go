package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"loanpay/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// ErrConditionFailed is returned by CommitOutcome when the transaction's
// preconditions no longer hold: the payment left pending, or the loan version
// moved. The caller reloads and decides whether to retry or no-op.
var ErrConditionFailed = errors.New("ledger commit condition failed")

// LedgerCommit carries one fully computed reconciliation outcome.
//
// The reconciler loads Payment and Loan, computes the new balances, and hands
// the result here; the repository's only job is to apply it atomically,
// conditioned on the payment still being pending and the loan still being at
// LoanVersion.

type LedgerCommit struct {
	PaymentID          string
	NewPaymentStatus   entities.PaymentStatus
	GatewayStatusText  string
	RawCallbackPayload json.RawMessage
	PaidAt             *time.Time

	// TouchLoan is false for failed/cancelled outcomes; the loan keys below
	// are then ignored and only the payment row is written.
	TouchLoan      bool
	LoanID         string
	LoanVersion    int64
	NewOutstanding decimal.Decimal
	NewAmountPaid  decimal.Decimal
	NewLoanStatus  entities.LoanStatus
	RepaidAt       *time.Time
}

// ILedgerRepository applies a reconciliation outcome to the Payment/Loan pair
// as one atomic unit (DynamoDB TransactWriteItems).

type ILedgerRepository interface {
	CommitOutcome(ctx context.Context, c LedgerCommit) error
}

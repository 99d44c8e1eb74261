package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus represents the lifecycle of a loan.

type LoanStatus string

const (
	LoanStatusPending           LoanStatus = "pending"
	LoanStatusProcessingFeePaid LoanStatus = "processing_fee_paid"
	LoanStatusApproved          LoanStatus = "approved"
	LoanStatusDisbursed         LoanStatus = "disbursed"
	LoanStatusRepaid            LoanStatus = "repaid"
	LoanStatusOverdue           LoanStatus = "overdue"
	LoanStatusRejected          LoanStatus = "rejected"
)

// IsPayable reports whether the loan can currently accept a repayment.
func (s LoanStatus) IsPayable() bool {
	switch s {
	case LoanStatusApproved, LoanStatusDisbursed, LoanStatusOverdue:
		return true
	}
	return false
}

// Loan is the ledger view of a loan. Only the fields the repayment core
// touches live here; application intake and underwriting own the rest.
//
// Storage model (DynamoDB):
//   - PK: id
//
// Invariants:
//   - OutstandingBalance never goes negative; overpayment floors it at zero.
//   - AmountPaid is monotonically non-decreasing.
//   - Status becomes repaid exactly when a completed payment drives
//     OutstandingBalance to zero; RepaidAt is set once.
//
// Version is a plain counter bumped on every ledger mutation; the ledger
// commit conditions on it so concurrent reconciliations cannot interleave.

type Loan struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Principal          decimal.Decimal `json:"principal"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	Currency           string          `json:"currency"`
	Status             LoanStatus      `json:"status"`
	Version            int64           `json:"version"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	RepaidAt  *time.Time `json:"repaid_at,omitempty"`
}

package response

import (
	"time"

	"loanpay/internal/domain/entities"
)

// LoanResponse is the ledger view the repayment UI consumes.

type LoanResponse struct {
	LoanID             string     `json:"loan_id"`
	UserID             string     `json:"user_id"`
	Principal          string     `json:"principal"`
	OutstandingBalance string     `json:"outstanding_balance"`
	AmountPaid         string     `json:"amount_paid"`
	Currency           string     `json:"currency"`
	Status             string     `json:"status"`
	RepaidAt           *time.Time `json:"repaid_at,omitempty"`
}

func FromLoan(l entities.Loan) LoanResponse {
	return LoanResponse{
		LoanID:             l.ID,
		UserID:             l.UserID,
		Principal:          l.Principal.String(),
		OutstandingBalance: l.OutstandingBalance.String(),
		AmountPaid:         l.AmountPaid.String(),
		Currency:           l.Currency,
		Status:             string(l.Status),
		RepaidAt:           l.RepaidAt,
	}
}

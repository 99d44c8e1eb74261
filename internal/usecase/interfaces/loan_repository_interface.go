package interfaces

import (
	"context"

	"loanpay/internal/domain/entities"
)

// ILoanRepository abstracts DynamoDB persistence for the ledger view of a Loan.
//
// Balance mutations do NOT go through this interface; they are committed
// atomically together with the payment transition via ILedgerRepository.

type ILoanRepository interface {
	Create(ctx context.Context, l entities.Loan) (entities.Loan, error)
	GetByID(ctx context.Context, id string) (entities.Loan, error)
}

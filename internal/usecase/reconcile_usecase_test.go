package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"loanpay/internal/domain/entities"
	"loanpay/internal/usecase/interfaces"
	mock_interfaces "loanpay/internal/usecase/interfaces/mocks"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

func pendingPayment() entities.Payment {
	return entities.Payment{
		ID:                "pay-1",
		LoanID:            "loan-1",
		UserID:            "user-1",
		MerchantReference: "REPAY-1-AB",
		GatewayOrderID:    "otid-1",
		Amount:            decimal.NewFromInt(400),
		Currency:          "KES",
		Status:            entities.PaymentStatusPending,
	}
}

func TestReconcileUseCase_Reconcile_Guards(t *testing.T) {
	t.Run("empty merchant reference", func(t *testing.T) {
		uc := NewReconcileUseCase(nil, nil, nil, nil)
		_, err := uc.Reconcile(context.Background(), "  ", "COMPLETED", nil)
		if !errors.Is(err, ErrPaymentNotFound) {
			t.Fatalf("expected ErrPaymentNotFound, got %v", err)
		}
	})

	t.Run("unknown merchant reference", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-X").Return(entities.Payment{}, nil)
		uc := NewReconcileUseCase(payments, nil, nil, nil)

		_, err := uc.Reconcile(context.Background(), "REPAY-X", "COMPLETED", nil)
		if !errors.Is(err, ErrPaymentNotFound) {
			t.Fatalf("expected ErrPaymentNotFound, got %v", err)
		}
	})

	t.Run("already terminal is a no-op", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		ledger := mock_interfaces.NewMockILedgerRepository(ctrl)
		settled := pendingPayment()
		settled.Status = entities.PaymentStatusCompleted
		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(settled, nil)
		uc := NewReconcileUseCase(payments, nil, ledger, nil)

		// A duplicate COMPLETED callback must not reach the ledger.
		p, err := uc.Reconcile(context.Background(), "REPAY-1-AB", "COMPLETED", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Status != entities.PaymentStatusCompleted {
			t.Fatalf("expected completed, got %s", p.Status)
		}
	})

	t.Run("unknown status text leaves payment pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		ledger := mock_interfaces.NewMockILedgerRepository(ctrl)
		p := pendingPayment()
		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(p, nil)
		payments.EXPECT().UpdateAudit(gomock.Any(), "pay-1", "PROCESSING", gomock.Any()).DoAndReturn(
			func(_ context.Context, id, statusText string, _ json.RawMessage) (entities.Payment, error) {
				out := p
				out.GatewayStatusText = statusText
				return out, nil
			})
		uc := NewReconcileUseCase(payments, nil, ledger, nil)

		got, err := uc.Reconcile(context.Background(), "REPAY-1-AB", "PROCESSING", json.RawMessage(`{"s":"PROCESSING"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != entities.PaymentStatusPending {
			t.Fatalf("expected still pending, got %s", got.Status)
		}
		if got.GatewayStatusText != "PROCESSING" {
			t.Fatalf("audit text not recorded, got %q", got.GatewayStatusText)
		}
	})
}

func TestReconcileUseCase_Reconcile_Completed(t *testing.T) {
	t.Run("partial repayment reduces outstanding", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		loans := mock_interfaces.NewMockILoanRepository(ctrl)
		ledger := mock_interfaces.NewMockILedgerRepository(ctrl)

		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(pendingPayment(), nil)
		loans.EXPECT().GetByID(gomock.Any(), "loan-1").Return(payableLoan(), nil)
		ledger.EXPECT().CommitOutcome(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, c interfaces.LedgerCommit) error {
				if c.NewPaymentStatus != entities.PaymentStatusCompleted {
					t.Fatalf("unexpected payment status %s", c.NewPaymentStatus)
				}
				if !c.TouchLoan {
					t.Fatal("completed outcome must touch the loan")
				}
				if c.LoanVersion != 1 {
					t.Fatalf("commit must condition on the loaded version, got %d", c.LoanVersion)
				}
				if !c.NewOutstanding.Equal(decimal.NewFromInt(600)) {
					t.Fatalf("expected outstanding 600, got %s", c.NewOutstanding)
				}
				if !c.NewAmountPaid.Equal(decimal.NewFromInt(400)) {
					t.Fatalf("expected amount paid 400, got %s", c.NewAmountPaid)
				}
				if c.NewLoanStatus != entities.LoanStatusDisbursed {
					t.Fatalf("partial repayment must not change loan status, got %s", c.NewLoanStatus)
				}
				if c.PaidAt == nil {
					t.Fatal("expected PaidAt set")
				}
				if c.RepaidAt != nil {
					t.Fatal("RepaidAt must stay nil on a partial repayment")
				}
				return nil
			})

		uc := NewReconcileUseCase(payments, loans, ledger, nil)
		p, err := uc.Reconcile(context.Background(), "REPAY-1-AB", "COMPLETED", json.RawMessage(`{}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Status != entities.PaymentStatusCompleted {
			t.Fatalf("expected completed, got %s", p.Status)
		}
		if p.PaidAt == nil {
			t.Fatal("expected PaidAt on the returned payment")
		}
	})

	t.Run("final installment marks the loan repaid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		loans := mock_interfaces.NewMockILoanRepository(ctrl)
		ledger := mock_interfaces.NewMockILedgerRepository(ctrl)

		loan := payableLoan()
		loan.OutstandingBalance = decimal.NewFromInt(400)
		loan.AmountPaid = decimal.NewFromInt(600)
		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(pendingPayment(), nil)
		loans.EXPECT().GetByID(gomock.Any(), "loan-1").Return(loan, nil)
		ledger.EXPECT().CommitOutcome(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, c interfaces.LedgerCommit) error {
				if !c.NewOutstanding.IsZero() {
					t.Fatalf("expected zero outstanding, got %s", c.NewOutstanding)
				}
				if c.NewLoanStatus != entities.LoanStatusRepaid {
					t.Fatalf("expected loan repaid, got %s", c.NewLoanStatus)
				}
				if c.RepaidAt == nil {
					t.Fatal("expected RepaidAt set")
				}
				return nil
			})

		uc := NewReconcileUseCase(payments, loans, ledger, nil)
		if _, err := uc.Reconcile(context.Background(), "REPAY-1-AB", "COMPLETED", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("overpayment floors the balance at zero", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		loans := mock_interfaces.NewMockILoanRepository(ctrl)
		ledger := mock_interfaces.NewMockILedgerRepository(ctrl)

		loan := payableLoan()
		loan.OutstandingBalance = decimal.NewFromInt(300)
		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(pendingPayment(), nil)
		loans.EXPECT().GetByID(gomock.Any(), "loan-1").Return(loan, nil)
		ledger.EXPECT().CommitOutcome(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, c interfaces.LedgerCommit) error {
				if c.NewOutstanding.IsNegative() {
					t.Fatalf("outstanding went negative: %s", c.NewOutstanding)
				}
				if !c.NewOutstanding.IsZero() {
					t.Fatalf("expected floor at zero, got %s", c.NewOutstanding)
				}
				if c.NewLoanStatus != entities.LoanStatusRepaid {
					t.Fatalf("expected loan repaid, got %s", c.NewLoanStatus)
				}
				return nil
			})

		uc := NewReconcileUseCase(payments, loans, ledger, nil)
		if _, err := uc.Reconcile(context.Background(), "REPAY-1-AB", "COMPLETED", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("loan missing for a completed payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		loans := mock_interfaces.NewMockILoanRepository(ctrl)
		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(pendingPayment(), nil)
		loans.EXPECT().GetByID(gomock.Any(), "loan-1").Return(entities.Loan{}, nil)

		uc := NewReconcileUseCase(payments, loans, nil, nil)
		_, err := uc.Reconcile(context.Background(), "REPAY-1-AB", "COMPLETED", nil)
		if !errors.Is(err, ErrLoanNotFound) {
			t.Fatalf("expected ErrLoanNotFound, got %v", err)
		}
	})
}

func TestReconcileUseCase_Reconcile_TerminalWithoutCredit(t *testing.T) {
	for _, tc := range []struct {
		statusText string
		want       entities.PaymentStatus
	}{
		{"FAILED", entities.PaymentStatusFailed},
		{"INVALID", entities.PaymentStatusFailed},
		{"CANCELLED", entities.PaymentStatusCancelled},
		{"EXPIRED", entities.PaymentStatusExpired},
	} {
		t.Run(tc.statusText, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
			ledger := mock_interfaces.NewMockILedgerRepository(ctrl)
			payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(pendingPayment(), nil)
			ledger.EXPECT().CommitOutcome(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, c interfaces.LedgerCommit) error {
					if c.NewPaymentStatus != tc.want {
						t.Fatalf("expected %s, got %s", tc.want, c.NewPaymentStatus)
					}
					if c.TouchLoan {
						t.Fatal("a non-completed outcome must not touch the loan")
					}
					return nil
				})

			// loans repo is nil: buildCommit must not consult it on this path.
			uc := NewReconcileUseCase(payments, nil, ledger, nil)
			p, err := uc.Reconcile(context.Background(), "REPAY-1-AB", tc.statusText, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, p.Status)
			}
		})
	}
}

func TestReconcileUseCase_Reconcile_Conflicts(t *testing.T) {
	conflict := fmt.Errorf("transaction cancelled: %w", interfaces.ErrConditionFailed)

	t.Run("conflict retried after reload", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		loans := mock_interfaces.NewMockILoanRepository(ctrl)
		ledger := mock_interfaces.NewMockILedgerRepository(ctrl)

		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(pendingPayment(), nil).Times(2)
		loans.EXPECT().GetByID(gomock.Any(), "loan-1").Return(payableLoan(), nil).Times(2)
		gomock.InOrder(
			ledger.EXPECT().CommitOutcome(gomock.Any(), gomock.Any()).Return(conflict),
			ledger.EXPECT().CommitOutcome(gomock.Any(), gomock.Any()).Return(nil),
		)

		uc := NewReconcileUseCase(payments, loans, ledger, nil)
		p, err := uc.Reconcile(context.Background(), "REPAY-1-AB", "COMPLETED", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Status != entities.PaymentStatusCompleted {
			t.Fatalf("expected completed after retry, got %s", p.Status)
		}
	})

	t.Run("losing the race to the other ingestion path is a no-op", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		loans := mock_interfaces.NewMockILoanRepository(ctrl)
		ledger := mock_interfaces.NewMockILedgerRepository(ctrl)

		settled := pendingPayment()
		settled.Status = entities.PaymentStatusCompleted
		gomock.InOrder(
			payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(pendingPayment(), nil),
			payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(settled, nil),
		)
		loans.EXPECT().GetByID(gomock.Any(), "loan-1").Return(payableLoan(), nil)
		// The webhook path committed between our read and our write.
		ledger.EXPECT().CommitOutcome(gomock.Any(), gomock.Any()).Return(conflict)

		uc := NewReconcileUseCase(payments, loans, ledger, nil)
		p, err := uc.Reconcile(context.Background(), "REPAY-1-AB", "COMPLETED", nil)
		if err != nil {
			t.Fatalf("expected clean no-op, got %v", err)
		}
		if p.Status != entities.PaymentStatusCompleted {
			t.Fatalf("expected the winner's terminal state, got %s", p.Status)
		}
	})

	t.Run("persistent conflict surfaces after exhausted retries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		loans := mock_interfaces.NewMockILoanRepository(ctrl)
		ledger := mock_interfaces.NewMockILedgerRepository(ctrl)

		// 4 loop iterations plus the final reload.
		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(pendingPayment(), nil).Times(5)
		loans.EXPECT().GetByID(gomock.Any(), "loan-1").Return(payableLoan(), nil).Times(4)
		ledger.EXPECT().CommitOutcome(gomock.Any(), gomock.Any()).Return(conflict).Times(4)

		uc := NewReconcileUseCase(payments, loans, ledger, nil)
		_, err := uc.Reconcile(context.Background(), "REPAY-1-AB", "COMPLETED", nil)
		if !errors.Is(err, ErrReconcileConflict) {
			t.Fatalf("expected ErrReconcileConflict, got %v", err)
		}
	})

	t.Run("non-conflict ledger error is not retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		loans := mock_interfaces.NewMockILoanRepository(ctrl)
		ledger := mock_interfaces.NewMockILedgerRepository(ctrl)

		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(pendingPayment(), nil)
		loans.EXPECT().GetByID(gomock.Any(), "loan-1").Return(payableLoan(), nil)
		ledger.EXPECT().CommitOutcome(gomock.Any(), gomock.Any()).Return(errors.New("throttled"))

		uc := NewReconcileUseCase(payments, loans, ledger, nil)
		_, err := uc.Reconcile(context.Background(), "REPAY-1-AB", "COMPLETED", nil)
		if err == nil || err.Error() != "throttled" {
			t.Fatalf("expected throttled error, got %v", err)
		}
	})
}

// conditionalStore is a mutex-guarded in-memory stand-in for the DynamoDB
// repositories that mimics the ledger transaction's conditions: the payment
// write requires the row still pending, the loan write requires the version
// loaded by the committer. storePayments/storeLoans/storeLedger expose the
// three repository interfaces over the same shared state.
type conditionalStore struct {
	mu      sync.Mutex
	payment entities.Payment
	loan    entities.Loan
	commits int
}

type storePayments struct{ s *conditionalStore }

func (r storePayments) Create(_ context.Context, p entities.Payment) (entities.Payment, error) {
	return p, nil
}

func (r storePayments) GetByID(_ context.Context, id string) (entities.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.payment.ID != id {
		return entities.Payment{}, nil
	}
	return r.s.payment, nil
}

func (r storePayments) GetByMerchantReference(_ context.Context, ref string) (entities.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.payment.MerchantReference != ref {
		return entities.Payment{}, nil
	}
	return r.s.payment, nil
}

func (r storePayments) ListByLoanID(_ context.Context, _ string) ([]entities.Payment, error) {
	return nil, nil
}

func (r storePayments) SetGatewayOrder(_ context.Context, _, _, _ string, _ bool) (entities.Payment, error) {
	return entities.Payment{}, nil
}

func (r storePayments) MarkFailed(_ context.Context, _, _ string) (entities.Payment, error) {
	return entities.Payment{}, nil
}

func (r storePayments) UpdateAudit(_ context.Context, id, statusText string, rawPayload json.RawMessage) (entities.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.payment.ID != id {
		return entities.Payment{}, nil
	}
	r.s.payment.GatewayStatusText = statusText
	r.s.payment.RawCallbackPayload = rawPayload
	return r.s.payment, nil
}

type storeLoans struct{ s *conditionalStore }

func (r storeLoans) Create(_ context.Context, l entities.Loan) (entities.Loan, error) {
	return l, nil
}

func (r storeLoans) GetByID(_ context.Context, id string) (entities.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.loan.ID != id {
		return entities.Loan{}, nil
	}
	return r.s.loan, nil
}

type storeLedger struct{ s *conditionalStore }

func (r storeLedger) CommitOutcome(_ context.Context, c interfaces.LedgerCommit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.payment.ID != c.PaymentID || r.s.payment.Status != entities.PaymentStatusPending {
		return fmt.Errorf("transaction cancelled: %w", interfaces.ErrConditionFailed)
	}
	if c.TouchLoan {
		if r.s.loan.ID != c.LoanID || r.s.loan.Version != c.LoanVersion {
			return fmt.Errorf("transaction cancelled: %w", interfaces.ErrConditionFailed)
		}
		r.s.loan.OutstandingBalance = c.NewOutstanding
		r.s.loan.AmountPaid = c.NewAmountPaid
		r.s.loan.Status = c.NewLoanStatus
		r.s.loan.RepaidAt = c.RepaidAt
		r.s.loan.Version++
	}
	r.s.payment.Status = c.NewPaymentStatus
	r.s.payment.GatewayStatusText = c.GatewayStatusText
	r.s.payment.RawCallbackPayload = c.RawCallbackPayload
	r.s.payment.PaidAt = c.PaidAt
	r.s.commits++
	return nil
}

// Poller and webhook can resolve the same payment at the same time; whoever
// commits first wins and every other caller must settle into the idempotent
// no-op, crediting the loan exactly once.
func TestReconcileUseCase_Reconcile_ConcurrentIngestion(t *testing.T) {
	store := &conditionalStore{payment: pendingPayment(), loan: payableLoan()}
	uc := NewReconcileUseCase(storePayments{store}, storeLoans{store}, storeLedger{store}, nil)

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Reconcile(context.Background(), "REPAY-1-AB", "COMPLETED", json.RawMessage(`{"s":"COMPLETED"}`))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: unexpected error: %v", i, err)
		}
	}
	if store.commits != 1 {
		t.Fatalf("expected exactly one ledger commit, got %d", store.commits)
	}
	if store.payment.Status != entities.PaymentStatusCompleted {
		t.Fatalf("expected completed, got %s", store.payment.Status)
	}
	if !store.loan.AmountPaid.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("loan must be credited exactly once, amount_paid=%s", store.loan.AmountPaid)
	}
	if !store.loan.OutstandingBalance.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("expected outstanding 600, got %s", store.loan.OutstandingBalance)
	}
	if store.loan.Version != 2 {
		t.Fatalf("expected a single version bump, got %d", store.loan.Version)
	}
}

func TestReconcileUseCase_ProcessNotification(t *testing.T) {
	t.Run("empty merchant reference", func(t *testing.T) {
		uc := NewReconcileUseCase(nil, nil, nil, nil)
		_, err := uc.ProcessNotification(context.Background(), "otid-1", " ")
		if !errors.Is(err, ErrPaymentNotFound) {
			t.Fatalf("expected ErrPaymentNotFound, got %v", err)
		}
	})

	t.Run("unknown merchant reference", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-X").Return(entities.Payment{}, nil)
		uc := NewReconcileUseCase(payments, nil, nil, nil)

		_, err := uc.ProcessNotification(context.Background(), "otid-1", "REPAY-X")
		if !errors.Is(err, ErrPaymentNotFound) {
			t.Fatalf("expected ErrPaymentNotFound, got %v", err)
		}
	})

	t.Run("missing tracking id falls back to the stored one", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		loans := mock_interfaces.NewMockILoanRepository(ctrl)
		ledger := mock_interfaces.NewMockILedgerRepository(ctrl)
		gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)

		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(pendingPayment(), nil).Times(2)
		gateway.EXPECT().GetTransactionStatus(gomock.Any(), "otid-1").Return(interfaces.TransactionStatus{
			OrderTrackingID:   "otid-1",
			MerchantReference: "REPAY-1-AB",
			StatusDescription: "COMPLETED",
		}, nil)
		loans.EXPECT().GetByID(gomock.Any(), "loan-1").Return(payableLoan(), nil)
		ledger.EXPECT().CommitOutcome(gomock.Any(), gomock.Any()).Return(nil)

		uc := NewReconcileUseCase(payments, loans, ledger, gateway)
		p, err := uc.ProcessNotification(context.Background(), "", "REPAY-1-AB")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Status != entities.PaymentStatusCompleted {
			t.Fatalf("expected completed, got %s", p.Status)
		}
	})

	t.Run("gateway status query failure propagates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		payments := mock_interfaces.NewMockIPaymentRepository(ctrl)
		gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)

		payments.EXPECT().GetByMerchantReference(gomock.Any(), "REPAY-1-AB").Return(pendingPayment(), nil)
		gateway.EXPECT().GetTransactionStatus(gomock.Any(), "otid-9").Return(interfaces.TransactionStatus{}, errors.New("timeout"))

		uc := NewReconcileUseCase(payments, nil, nil, gateway)
		_, err := uc.ProcessNotification(context.Background(), "otid-9", "REPAY-1-AB")
		if err == nil || err.Error() != "timeout" {
			t.Fatalf("expected timeout error, got %v", err)
		}
	})
}

func TestMapGatewayStatus(t *testing.T) {
	cases := map[string]entities.PaymentStatus{
		"COMPLETED":  entities.PaymentStatusCompleted,
		"completed":  entities.PaymentStatusCompleted,
		" Completed": entities.PaymentStatusCompleted,
		"FAILED":     entities.PaymentStatusFailed,
		"INVALID":    entities.PaymentStatusFailed,
		"CANCELLED":  entities.PaymentStatusCancelled,
		"EXPIRED":    entities.PaymentStatusExpired,
		"expired":    entities.PaymentStatusExpired,
		"PENDING":    entities.PaymentStatusPending,
		"REVERSED":   entities.PaymentStatusPending,
		"":           entities.PaymentStatusPending,
	}
	for in, want := range cases {
		if got := mapGatewayStatus(in); got != want {
			t.Errorf("mapGatewayStatus(%q) = %s, want %s", in, got, want)
		}
	}
}

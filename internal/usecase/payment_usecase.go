package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"loanpay/internal/domain/entities"
	"loanpay/internal/usecase/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrInvalidLoanID      = errors.New("invalid loan_id")
	ErrInvalidUserID      = errors.New("invalid user_id")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrInvalidPhone       = errors.New("phone number required for mobile money")
	ErrInvalidLoanState   = errors.New("loan not payable")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

const (
	referencePrefixRepay = "REPAY"
	referencePrefixRetry = "RETRY"

	defaultPaymentExpiry = time.Hour
)

// InitiateParams is one repayment request as the caller hands it in.

type InitiateParams struct {
	LoanID      string
	UserID      string
	Amount      decimal.Decimal
	PhoneNumber string
	Method      entities.PaymentMethod
	Description string
}

// InitiationResult is what the caller gets back from Initiate: the persisted
// payment plus the gateway redirect URL when the channel needs one.

type InitiationResult struct {
	Payment     entities.Payment
	RedirectURL string
}

// IPaymentUseCase covers the caller-facing payment operations.
//
// Initiate always leaves a Payment row behind, even when the gateway is down:
// the row is marked failed and ErrGatewayUnavailable is returned, so a later
// status check still resolves to a definite outcome.

type IPaymentUseCase interface {
	Initiate(ctx context.Context, params InitiateParams) (InitiationResult, error)
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	ListByLoanID(ctx context.Context, loanID string) ([]entities.Payment, error)
	Retry(ctx context.Context, paymentID string) (InitiationResult, error)
	GetLoan(ctx context.Context, loanID string) (entities.Loan, error)
}

type PaymentUseCase struct {
	payments   interfaces.IPaymentRepository
	loans      interfaces.ILoanRepository
	gateway    interfaces.IPaymentGateway
	refs       interfaces.IReferenceGenerator
	reconciler IReconcileUseCase
	poller     *StatusPoller
}

var _ IPaymentUseCase = (*PaymentUseCase)(nil)

func NewPaymentUseCase(
	payments interfaces.IPaymentRepository,
	loans interfaces.ILoanRepository,
	gateway interfaces.IPaymentGateway,
	refs interfaces.IReferenceGenerator,
	reconciler IReconcileUseCase,
	poller *StatusPoller,
) *PaymentUseCase {
	return &PaymentUseCase{
		payments:   payments,
		loans:      loans,
		gateway:    gateway,
		refs:       refs,
		reconciler: reconciler,
		poller:     poller,
	}
}

func (u *PaymentUseCase) Initiate(ctx context.Context, params InitiateParams) (InitiationResult, error) {
	return u.initiate(ctx, params, referencePrefixRepay)
}

func (u *PaymentUseCase) initiate(ctx context.Context, params InitiateParams, refPrefix string) (InitiationResult, error) {
	log.Printf("[payment][usecase] initiate start loan_id=%s user_id=%s amount=%s method=%s",
		params.LoanID, params.UserID, params.Amount, params.Method)

	params.LoanID = strings.TrimSpace(params.LoanID)
	params.UserID = strings.TrimSpace(params.UserID)
	params.PhoneNumber = strings.TrimSpace(params.PhoneNumber)
	if params.LoanID == "" {
		return InitiationResult{}, ErrInvalidLoanID
	}
	if params.UserID == "" {
		return InitiationResult{}, ErrInvalidUserID
	}
	if !params.Amount.IsPositive() {
		return InitiationResult{}, ErrInvalidAmount
	}
	if !params.Method.IsValid() {
		return InitiationResult{}, ErrInvalidMethod
	}
	if params.Method.IsMobileMoney() && params.PhoneNumber == "" {
		return InitiationResult{}, ErrInvalidPhone
	}

	// Preconditions checked before any network call; violations create no row.
	loan, err := u.loans.GetByID(ctx, params.LoanID)
	if err != nil {
		return InitiationResult{}, err
	}
	if loan.ID == "" {
		log.Printf("[payment][usecase] loan not found loan_id=%s", params.LoanID)
		return InitiationResult{}, ErrLoanNotFound
	}
	if !loan.Status.IsPayable() {
		log.Printf("[payment][usecase] loan not payable loan_id=%s status=%s", loan.ID, loan.Status)
		return InitiationResult{}, ErrInvalidLoanState
	}
	if params.Amount.GreaterThan(loan.OutstandingBalance) {
		log.Printf("[payment][usecase] amount exceeds outstanding loan_id=%s amount=%s outstanding=%s",
			loan.ID, params.Amount, loan.OutstandingBalance)
		return InitiationResult{}, ErrInvalidLoanState
	}

	// The merchant reference is generated and persisted before the gateway is
	// contacted: a crash between the local write and the remote submit leaves
	// a recoverable orphaned pending row, never a silently lost payment.
	now := time.Now().UTC()
	p := entities.Payment{
		ID:                uuid.NewString(),
		LoanID:            loan.ID,
		UserID:            params.UserID,
		MerchantReference: u.refs.NewReference(refPrefix),
		Amount:            params.Amount,
		Currency:          loan.Currency,
		PaymentMethod:     params.Method,
		PhoneNumber:       params.PhoneNumber,
		Status:            entities.PaymentStatusPending,
		Description:       params.Description,
		CreatedAt:         now,
		ExpiresAt:         now.Add(defaultPaymentExpiry),
	}
	if p.Description == "" {
		p.Description = fmt.Sprintf("Loan %s repayment", loan.ID)
	}

	if _, err := u.payments.Create(ctx, p); err != nil {
		log.Printf("[payment][usecase] payment create failed loan_id=%s err=%v", loan.ID, err)
		return InitiationResult{}, err
	}
	log.Printf("[payment][usecase] payment persisted payment_id=%s merchant_reference=%s", p.ID, p.MerchantReference)

	order, err := u.gateway.SubmitOrder(ctx, interfaces.OrderRequest{
		MerchantReference: p.MerchantReference,
		Currency:          p.Currency,
		Amount:            p.Amount,
		Description:       p.Description,
		PaymentMethod:     p.PaymentMethod,
		PhoneNumber:       p.PhoneNumber,
	})
	if err != nil {
		log.Printf("[payment][usecase] gateway submit failed payment_id=%s err=%v", p.ID, err)
		failed, markErr := u.payments.MarkFailed(ctx, p.ID, "SUBMIT_FAILED")
		if markErr != nil {
			log.Printf("[payment][usecase] mark-failed failed payment_id=%s err=%v", p.ID, markErr)
			failed = p
		}
		return InitiationResult{Payment: failed}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	updated, err := u.payments.SetGatewayOrder(ctx, p.ID, order.OrderTrackingID, order.Status, order.Degraded)
	if err != nil {
		return InitiationResult{}, err
	}
	log.Printf("[payment][usecase] initiate success payment_id=%s order_tracking_id=%s degraded=%t",
		updated.ID, updated.GatewayOrderID, updated.Degraded)

	if u.poller != nil {
		// Poll outcome in the background; the webhook path races it and
		// whichever reconciles first wins.
		go u.poller.Watch(context.Background(), updated)
	}
	return InitiationResult{Payment: updated, RedirectURL: order.RedirectURL}, nil
}

// GetByID returns the current payment snapshot, refreshing pending payments
// against the gateway on demand. Refresh failures are absorbed: the stored
// snapshot is still returned and the webhook/poll paths may resolve it later.
func (u *PaymentUseCase) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}

	p, err := u.payments.GetByID(ctx, id)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.ID == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}
	if !p.Status.IsTerminal() && p.GatewayOrderID != "" && u.reconciler != nil {
		st, gerr := u.gateway.GetTransactionStatus(ctx, p.GatewayOrderID)
		if gerr != nil {
			log.Printf("[payment][usecase] on-demand refresh failed payment_id=%s err=%v", p.ID, gerr)
			return p, nil
		}
		refreshed, rerr := u.reconciler.Reconcile(ctx, p.MerchantReference, st.StatusDescription, st.Raw)
		if rerr != nil {
			log.Printf("[payment][usecase] on-demand reconcile failed payment_id=%s err=%v", p.ID, rerr)
			return p, nil
		}
		return refreshed, nil
	}
	return p, nil
}

func (u *PaymentUseCase) ListByLoanID(ctx context.Context, loanID string) ([]entities.Payment, error) {
	loanID = strings.TrimSpace(loanID)
	if loanID == "" {
		return nil, ErrInvalidLoanID
	}
	return u.payments.ListByLoanID(ctx, loanID)
}

// Retry creates a fresh Payment for the same loan with a new merchant
// reference. The original row is never mutated; completed payments cannot be
// retried.
func (u *PaymentUseCase) Retry(ctx context.Context, paymentID string) (InitiationResult, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return InitiationResult{}, ErrPaymentNotFound
	}

	original, err := u.payments.GetByID(ctx, paymentID)
	if err != nil {
		return InitiationResult{}, err
	}
	if original.ID == "" {
		return InitiationResult{}, ErrPaymentNotFound
	}
	if original.Status == entities.PaymentStatusCompleted {
		return InitiationResult{}, ErrInvalidLoanState
	}

	log.Printf("[payment][usecase] retry start original_payment_id=%s loan_id=%s", original.ID, original.LoanID)
	return u.initiate(ctx, InitiateParams{
		LoanID:      original.LoanID,
		UserID:      original.UserID,
		Amount:      original.Amount,
		PhoneNumber: original.PhoneNumber,
		Method:      original.PaymentMethod,
		Description: original.Description,
	}, referencePrefixRetry)
}

func (u *PaymentUseCase) GetLoan(ctx context.Context, loanID string) (entities.Loan, error) {
	loanID = strings.TrimSpace(loanID)
	if loanID == "" {
		return entities.Loan{}, ErrLoanNotFound
	}
	loan, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return entities.Loan{}, err
	}
	if loan.ID == "" {
		return entities.Loan{}, ErrLoanNotFound
	}
	return loan, nil
}

package handlers

import (
	"errors"
	"log"
	"net/http"

	request "loanpay/internal/adapter/http/dto/request"
	response "loanpay/internal/adapter/http/dto/response"
	"loanpay/internal/usecase"
	"loanpay/pkg"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles the caller-facing repayment endpoints.

type PaymentHandler struct {
	usecase usecase.IPaymentUseCase
}

func NewPaymentHandler(uc usecase.IPaymentUseCase) *PaymentHandler {
	return &PaymentHandler{usecase: uc}
}

// InitiatePayment starts a repayment for a loan.
//
// The response always carries a payment id, even when the gateway is down:
// the row then exists with status failed and GET /payments/:id resolves it.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var payload request.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("[payment][handler] initiate invalid payload err=%v", err)
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	result, err := h.usecase.Initiate(c.Request.Context(), payload.ToParams())
	if err != nil {
		log.Printf("[payment][handler] initiate failed loan_id=%s err=%v", payload.LoanID, err)
		if errors.Is(err, usecase.ErrGatewayUnavailable) && result.Payment.ID != "" {
			// The record exists and is queryable; tell the caller both things.
			c.JSON(http.StatusBadGateway, gin.H{
				"code":       "GATEWAY_UNAVAILABLE",
				"message":    "Payment gateway unavailable, payment recorded as failed",
				"payment_id": result.Payment.ID,
			})
			return
		}
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	log.Printf("[payment][handler] initiate success payment_id=%s merchant_reference=%s",
		result.Payment.ID, result.Payment.MerchantReference)
	c.JSON(http.StatusCreated, response.FromInitiation(result.Payment, result.RedirectURL))
}

// GetPayment returns the current snapshot, refreshing pending payments on demand.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id := c.Param("id")

	p, err := h.usecase.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[payment][handler] get failed payment_id=%s err=%v", id, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromPayment(p))
}

// ListPaymentsByLoan returns the repayment history for a loan.
func (h *PaymentHandler) ListPaymentsByLoan(c *gin.Context) {
	loanID := c.Param("loan_id")

	items, err := h.usecase.ListByLoanID(c.Request.Context(), loanID)
	if err != nil {
		log.Printf("[payment][handler] list failed loan_id=%s err=%v", loanID, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	out := make([]response.PaymentResponse, 0, len(items))
	for _, p := range items {
		out = append(out, response.FromPayment(p))
	}
	c.JSON(http.StatusOK, out)
}

// RetryPayment creates a fresh payment for the same loan. The original row is
// never mutated.
func (h *PaymentHandler) RetryPayment(c *gin.Context) {
	id := c.Param("id")
	log.Printf("[payment][handler] retry start payment_id=%s", id)

	result, err := h.usecase.Retry(c.Request.Context(), id)
	if err != nil {
		log.Printf("[payment][handler] retry failed payment_id=%s err=%v", id, err)
		if errors.Is(err, usecase.ErrGatewayUnavailable) && result.Payment.ID != "" {
			c.JSON(http.StatusBadGateway, gin.H{
				"code":       "GATEWAY_UNAVAILABLE",
				"message":    "Payment gateway unavailable, payment recorded as failed",
				"payment_id": result.Payment.ID,
			})
			return
		}
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.FromInitiation(result.Payment, result.RedirectURL))
}

// GetLoan returns the ledger view of a loan.
func (h *PaymentHandler) GetLoan(c *gin.Context) {
	loanID := c.Param("loan_id")

	loan, err := h.usecase.GetLoan(c.Request.Context(), loanID)
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromLoan(loan))
}

func mapPaymentError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidLoanID),
		errors.Is(err, usecase.ErrInvalidUserID),
		errors.Is(err, usecase.ErrInvalidAmount),
		errors.Is(err, usecase.ErrInvalidMethod),
		errors.Is(err, usecase.ErrInvalidPhone):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidLoanState):
		return pkg.NewDomainErrorSimple("INVALID_LOAN_STATE", "Loan cannot accept this payment", http.StatusConflict)
	case errors.Is(err, usecase.ErrLoanNotFound):
		return pkg.NewDomainErrorSimple("LOAN_NOT_FOUND", "Loan not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrPaymentNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrGatewayUnavailable):
		return pkg.NewDomainErrorSimple("GATEWAY_UNAVAILABLE", "Payment gateway unavailable", http.StatusBadGateway)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}

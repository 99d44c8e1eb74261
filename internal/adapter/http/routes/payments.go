package routes

import (
	"loanpay/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathPayments = "/payments"
	PathLoans    = "/loans"
)

func addPaymentRoutes(rg *gin.RouterGroup, paymentHandler *handlers.PaymentHandler, webhookHandler *handlers.WebhookHandler) {
	payments := rg.Group(PathPayments)
	{
		// Gateway-facing endpoints; registered before /:id so the literal
		// segments are not captured as payment ids.
		payments.GET("/callback", webhookHandler.Callback)
		payments.POST("/ipn", webhookHandler.IPN)

		payments.POST("", paymentHandler.InitiatePayment)
		payments.GET("/loan/:loan_id", paymentHandler.ListPaymentsByLoan)
		payments.GET("/:id", paymentHandler.GetPayment)
		payments.POST("/:id/retry", paymentHandler.RetryPayment)
	}

	loans := rg.Group(PathLoans)
	{
		loans.GET("/:loan_id", paymentHandler.GetLoan)
	}
}

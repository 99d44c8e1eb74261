package handlers

import (
	"errors"
	"log"
	"net/http"

	request "loanpay/internal/adapter/http/dto/request"
	"loanpay/internal/usecase"
	"loanpay/pkg"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives the gateway's pushed notifications: the synchronous
// redirect-style callback (query parameters) and the asynchronous IPN call
// (JSON body). Both acknowledge with a minimal body; the caller-visible state
// lives behind GET /payments/:id.
//
// Unknown merchant references answer non-2xx so the gateway retries delivery;
// they are never silently accepted.

type WebhookHandler struct {
	reconciler usecase.IReconcileUseCase
}

func NewWebhookHandler(reconciler usecase.IReconcileUseCase) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// Callback handles GET /v1/payments/callback, the redirect the payer's
// browser follows back from the gateway's checkout page.
func (h *WebhookHandler) Callback(c *gin.Context) {
	var n request.GatewayNotification
	if err := c.ShouldBindQuery(&n); err != nil || n.OrderMerchantReference == "" {
		log.Printf("[payment][webhook] callback missing reference tracking_id=%q", n.OrderTrackingID)
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[payment][webhook] callback received merchant_reference=%s tracking_id=%s type=%s",
		n.OrderMerchantReference, n.OrderTrackingID, n.OrderNotificationType)

	h.process(c, n)
}

// IPN handles POST /v1/payments/ipn, the out-of-band notification the gateway
// pushes regardless of whether the payer ever returns to the site.
func (h *WebhookHandler) IPN(c *gin.Context) {
	var n request.GatewayNotification
	if err := c.ShouldBindJSON(&n); err != nil || n.OrderMerchantReference == "" {
		log.Printf("[payment][webhook] ipn invalid payload err=%v", err)
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[payment][webhook] ipn received merchant_reference=%s tracking_id=%s type=%s",
		n.OrderMerchantReference, n.OrderTrackingID, n.OrderNotificationType)

	h.process(c, n)
}

func (h *WebhookHandler) process(c *gin.Context, n request.GatewayNotification) {
	p, err := h.reconciler.ProcessNotification(c.Request.Context(), n.OrderTrackingID, n.OrderMerchantReference)
	if err != nil {
		if errors.Is(err, usecase.ErrPaymentNotFound) {
			log.Printf("[payment][webhook] unknown merchant_reference=%s rejected", n.OrderMerchantReference)
			appErr := pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Unknown merchant reference", http.StatusNotFound)
			c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		log.Printf("[payment][webhook] processing failed merchant_reference=%s err=%v", n.OrderMerchantReference, err)
		appErr := pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	// Acknowledgment only; the gateway ignores anything beyond the status code.
	c.JSON(http.StatusOK, gin.H{
		"status":             "received",
		"merchant_reference": p.MerchantReference,
	})
}

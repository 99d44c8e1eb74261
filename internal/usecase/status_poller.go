package usecase

import (
	"context"
	"log"
	"os"
	"time"

	"loanpay/internal/domain/entities"
	"loanpay/internal/usecase/interfaces"
)

const (
	defaultPollInterval = 15 * time.Second
	defaultPollTimeout  = 5 * time.Minute
)

// StatusPoller is the active ingestion path: one background loop per in-flight
// payment, querying the gateway at a fixed interval until a terminal status or
// the wall-clock deadline.
//
// Every poll response goes straight into the reconciler so callers see
// progressive updates. Hitting the deadline is not a failure: the payment
// stays pending and the webhook path (or a manual status check) may still
// resolve it later.

type StatusPoller struct {
	gateway    interfaces.IPaymentGateway
	reconciler IReconcileUseCase
	interval   time.Duration
	timeout    time.Duration
}

func NewStatusPoller(gateway interfaces.IPaymentGateway, reconciler IReconcileUseCase) *StatusPoller {
	return &StatusPoller{
		gateway:    gateway,
		reconciler: reconciler,
		interval:   durationFromEnv("GATEWAY_POLL_INTERVAL", defaultPollInterval),
		timeout:    durationFromEnv("GATEWAY_POLL_TIMEOUT", defaultPollTimeout),
	}
}

// Watch blocks until the payment reaches a terminal state, the deadline
// passes, or ctx is cancelled. Run it on its own goroutine. No lock is held
// while sleeping between polls.
func (s *StatusPoller) Watch(ctx context.Context, p entities.Payment) {
	if p.GatewayOrderID == "" {
		return
	}
	deadline := time.Now().Add(s.timeout)
	log.Printf("[payment][poller] watch start payment_id=%s order_tracking_id=%s interval=%s timeout=%s",
		p.ID, p.GatewayOrderID, s.interval, s.timeout)

	for {
		st, err := s.gateway.GetTransactionStatus(ctx, p.GatewayOrderID)
		if err != nil {
			// Gateway flakiness mid-poll is absorbed; the loop continues or
			// times out, it never propagates.
			log.Printf("[payment][poller] status query failed payment_id=%s err=%v", p.ID, err)
		} else {
			updated, rerr := s.reconciler.Reconcile(ctx, p.MerchantReference, st.StatusDescription, st.Raw)
			if rerr != nil {
				log.Printf("[payment][poller] reconcile failed payment_id=%s err=%v", p.ID, rerr)
			} else if updated.Status.IsTerminal() {
				log.Printf("[payment][poller] watch done payment_id=%s status=%s", p.ID, updated.Status)
				return
			}
		}

		if time.Now().After(deadline) {
			// Unknown, timed out. Deliberately not an error.
			log.Printf("[payment][poller] watch timeout payment_id=%s (still pending)", p.ID)
			return
		}

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("[payment][poller] watch cancelled payment_id=%s", p.ID)
			return
		case <-timer.C:
		}
	}
}

func durationFromEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

package payments

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"loanpay/internal/usecase/interfaces"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
)

// TokenInvalidator clears a cached credential. Implemented by TokenCache.

type TokenInvalidator interface {
	Invalidate()
}

// RetryController decorates a gateway transport with bounded retries,
// exponential backoff, and an optional fallback transport.
//
// Policy:
//   - network errors and 5xx answers: retried up to maxAttempts with doubling backoff
//   - 401 auth failures: one token-cache invalidation and a single extra attempt
//   - other 4xx: fail fast, the request will not get better
//   - all attempts exhausted + fallback configured: switch to the fallback and
//     mark the result Degraded so callers and logs can tell simulated outcomes
//     from real ones

type RetryController struct {
	primary     interfaces.IPaymentGateway
	fallback    interfaces.IPaymentGateway
	invalidator TokenInvalidator
	maxAttempts int
	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

var _ interfaces.IPaymentGateway = (*RetryController)(nil)

func NewRetryController(primary, fallback interfaces.IPaymentGateway, invalidator TokenInvalidator) *RetryController {
	return &RetryController{
		primary:     primary,
		fallback:    fallback,
		invalidator: invalidator,
		maxAttempts: intFromEnv("GATEWAY_MAX_ATTEMPTS", defaultMaxAttempts),
		backoffBase: defaultBackoffBase,
		sleep:       sleepCtx,
	}
}

func (r *RetryController) SubmitOrder(ctx context.Context, req interfaces.OrderRequest) (interfaces.OrderResponse, error) {
	var out interfaces.OrderResponse
	err := r.execute(ctx, "submit-order", func(ctx context.Context) error {
		var callErr error
		out, callErr = r.primary.SubmitOrder(ctx, req)
		return callErr
	})
	if err == nil {
		return out, nil
	}
	if r.fallback == nil {
		return interfaces.OrderResponse{}, err
	}

	log.Printf("[payment][retry] submit-order exhausted, switching to fallback merchant_reference=%s err=%v", req.MerchantReference, err)
	out, ferr := r.fallback.SubmitOrder(ctx, req)
	if ferr != nil {
		return interfaces.OrderResponse{}, err
	}
	out.Degraded = true
	return out, nil
}

func (r *RetryController) GetTransactionStatus(ctx context.Context, orderTrackingID string) (interfaces.TransactionStatus, error) {
	var out interfaces.TransactionStatus
	err := r.execute(ctx, "transaction-status", func(ctx context.Context) error {
		var callErr error
		out, callErr = r.primary.GetTransactionStatus(ctx, orderTrackingID)
		return callErr
	})
	if err == nil {
		return out, nil
	}
	if r.fallback == nil {
		return interfaces.TransactionStatus{}, err
	}

	log.Printf("[payment][retry] transaction-status exhausted, switching to fallback order_tracking_id=%s err=%v", orderTrackingID, err)
	out, ferr := r.fallback.GetTransactionStatus(ctx, orderTrackingID)
	if ferr != nil {
		return interfaces.TransactionStatus{}, err
	}
	out.Degraded = true
	return out, nil
}

type errClass int

const (
	classRetryable errClass = iota
	classAuth
	classFatal
)

func classify(err error) errClass {
	if errors.Is(err, ErrAuth) {
		return classAuth
	}
	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= 500 {
			return classRetryable
		}
		return classFatal
	}
	// Transport-level failure (timeout, connection refused, DNS).
	return classRetryable
}

func (r *RetryController) execute(ctx context.Context, op string, call func(ctx context.Context) error) error {
	backoff := r.backoffBase
	authRetried := false
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; {
		lastErr = call(ctx)
		if lastErr == nil {
			return nil
		}

		switch classify(lastErr) {
		case classAuth:
			if authRetried {
				return lastErr
			}
			authRetried = true
			if r.invalidator != nil {
				r.invalidator.Invalidate()
			}
			log.Printf("[payment][retry] %s auth failure, token invalidated, retrying once", op)
		case classRetryable:
			attempt++
			if attempt > r.maxAttempts {
				return lastErr
			}
			log.Printf("[payment][retry] %s attempt %d/%d failed, backing off %s err=%v", op, attempt-1, r.maxAttempts, backoff, lastErr)
			if err := r.sleep(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
		default:
			return lastErr
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

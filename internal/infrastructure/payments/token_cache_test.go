package payments

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stubRequester struct {
	calls   atomic.Int64
	delay   time.Duration
	token   string
	expires time.Time
	err     error
}

func (s *stubRequester) RequestToken(_ context.Context) (string, time.Time, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return s.token, s.expires, nil
}

func TestTokenCache_Token(t *testing.T) {
	t.Run("caches until expiry", func(t *testing.T) {
		req := &stubRequester{token: "tok-1", expires: time.Now().Add(time.Hour)}
		cache := NewTokenCache(req)

		for i := 0; i < 5; i++ {
			tok, err := cache.Token(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tok != "tok-1" {
				t.Fatalf("unexpected token %q", tok)
			}
		}
		if n := req.calls.Load(); n != 1 {
			t.Fatalf("expected one credential exchange, got %d", n)
		}
	})

	t.Run("refreshes inside the skew window", func(t *testing.T) {
		// Expires within the proactive-refresh window, so every call refreshes.
		req := &stubRequester{token: "tok-1", expires: time.Now().Add(time.Minute)}
		cache := NewTokenCache(req)

		if _, err := cache.Token(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := cache.Token(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := req.calls.Load(); n != 2 {
			t.Fatalf("expected a refresh per call near expiry, got %d", n)
		}
	})

	t.Run("invalidate forces a refresh", func(t *testing.T) {
		req := &stubRequester{token: "tok-1", expires: time.Now().Add(time.Hour)}
		cache := NewTokenCache(req)

		if _, err := cache.Token(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cache.Invalidate()
		if _, err := cache.Token(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := req.calls.Load(); n != 2 {
			t.Fatalf("expected refresh after invalidation, got %d calls", n)
		}
	})

	t.Run("exchange failure propagates and is not cached", func(t *testing.T) {
		req := &stubRequester{err: errors.New("auth endpoint down")}
		cache := NewTokenCache(req)

		if _, err := cache.Token(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		req.err = nil
		req.token = "tok-2"
		req.expires = time.Now().Add(time.Hour)
		tok, err := cache.Token(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok != "tok-2" {
			t.Fatalf("unexpected token %q", tok)
		}
	})

	t.Run("concurrent callers share one refresh", func(t *testing.T) {
		req := &stubRequester{token: "tok-1", expires: time.Now().Add(time.Hour), delay: 20 * time.Millisecond}
		cache := NewTokenCache(req)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tok, err := cache.Token(context.Background())
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if tok != "tok-1" {
					t.Errorf("unexpected token %q", tok)
				}
			}()
		}
		wg.Wait()
		if n := req.calls.Load(); n != 1 {
			t.Fatalf("expected a single in-flight exchange, got %d", n)
		}
	})
}

package payments

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultTokenSkew = 5 * time.Minute

// tokenRequester performs one credential exchange against the gateway's
// auth endpoint. Implemented by PesapalClient.

type tokenRequester interface {
	RequestToken(ctx context.Context) (token string, expiresAt time.Time, err error)
}

// TokenCache holds the short-lived bearer credential for the gateway.
//
// The token is fetched lazily on first use and refreshed proactively once
// fewer than skew minutes of validity remain. Concurrent callers share a
// single in-flight refresh (singleflight) instead of issuing duplicates.
// Invalidate clears the cache after a 401 so the next call retries cleanly.

type TokenCache struct {
	requester tokenRequester
	skew      time.Duration

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

func NewTokenCache(requester tokenRequester) *TokenCache {
	return &TokenCache{requester: requester, skew: defaultTokenSkew}
}

// Token returns the cached credential, refreshing it when stale.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.expiresAt.Add(-c.skew)) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("token", func() (interface{}, error) {
		// Another caller may have finished a refresh while we queued.
		c.mu.Lock()
		if c.token != "" && time.Now().Before(c.expiresAt.Add(-c.skew)) {
			token := c.token
			c.mu.Unlock()
			return token, nil
		}
		c.mu.Unlock()

		log.Printf("[payment][token] refreshing gateway credential")
		token, expiresAt, err := c.requester.RequestToken(ctx)
		if err != nil {
			if errors.Is(err, ErrAuth) {
				c.Invalidate()
			}
			log.Printf("[payment][token] refresh failed err=%v", err)
			return "", err
		}

		c.mu.Lock()
		c.token = token
		c.expiresAt = expiresAt
		c.mu.Unlock()
		log.Printf("[payment][token] refresh success expires_at=%s", expiresAt.UTC().Format(time.RFC3339))
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token. Called after the gateway answers 401.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

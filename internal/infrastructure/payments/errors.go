package payments

import (
	"errors"
	"fmt"
)

// ErrAuth marks credential/token failures. The token cache clears itself and
// the retry controller grants exactly one extra attempt after invalidation.
var ErrAuth = errors.New("gateway rejected credentials")

// HTTPStatusError is a non-2xx gateway response. The retry controller
// classifies on StatusCode: 5xx retry, 401 invalidate-and-retry-once,
// other 4xx fail fast.

type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}

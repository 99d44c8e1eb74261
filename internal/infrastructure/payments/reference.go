package payments

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"loanpay/internal/usecase/interfaces"

	"github.com/google/uuid"
)

const defaultReferencePrefix = "REPAY"

// ReferenceGenerator produces merchant references of the form
// PREFIX-<unix-millis>-<8 hex chars>. A process-wide monotonic guard keeps the
// millisecond component strictly increasing, so two calls in the same
// millisecond still differ even before the random suffix is considered.

type ReferenceGenerator struct {
	mu   sync.Mutex
	last int64
}

var _ interfaces.IReferenceGenerator = (*ReferenceGenerator)(nil)

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{}
}

func (g *ReferenceGenerator) NewReference(prefix string) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = defaultReferencePrefix
	}

	g.mu.Lock()
	now := time.Now().UnixMilli()
	if now <= g.last {
		now = g.last + 1
	}
	g.last = now
	g.mu.Unlock()

	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("%s-%d-%s", prefix, now, suffix)
}

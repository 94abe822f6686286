package ledger

import (
	"context"
	"sync"

	"github.com/easyvisa/visaflow/internal/application/domain"
	paymentdomain "github.com/easyvisa/visaflow/internal/payment/domain"
)

// MemoryLedger keeps paid applications in process memory. Useful for
// tests and single-node setups that accept losing the ledger on restart.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]paymentdomain.PaidApplication
}

func NewMemory() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]paymentdomain.PaidApplication)}
}

func (l *MemoryLedger) MarkPaid(ctx context.Context, entry paymentdomain.PaidApplication) error {
	entry.AppNumber = domain.NormalizeAppNumber(entry.AppNumber)
	if entry.AppNumber == "" {
		return paymentdomain.ErrInvalidEvent
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[entry.AppNumber]; ok {
		return nil
	}
	l.entries[entry.AppNumber] = entry
	return nil
}

func (l *MemoryLedger) IsPaid(ctx context.Context, appNumber string) (bool, error) {
	appNumber = domain.NormalizeAppNumber(appNumber)

	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[appNumber]
	return ok, nil
}

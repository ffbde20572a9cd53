package factory

import (
	"sort"
	"strings"
	"sync"
)

// paymentLedger remembers payment references that already funded a provisioning job.
type paymentLedger struct {
	mu    sync.Mutex
	spent map[string]struct{}
}

func newPaymentLedger() *paymentLedger {
	return &paymentLedger{spent: make(map[string]struct{})}
}

// claim marks ref as spent. It returns false if ref was spent before.
func (l *paymentLedger) claim(ref string) bool {
	ref = strings.ToLower(ref)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.spent[ref]; ok {
		return false
	}
	l.spent[ref] = struct{}{}
	return true
}

func (l *paymentLedger) release(ref string) {
	l.mu.Lock()
	delete(l.spent, strings.ToLower(ref))
	l.mu.Unlock()
}

func (l *paymentLedger) list() []string {
	l.mu.Lock()
	out := make([]string, 0, len(l.spent))
	for ref := range l.spent {
		out = append(out, ref)
	}
	l.mu.Unlock()

	sort.Strings(out)
	return out
}

func (l *paymentLedger) restore(refs []string) {
	spent := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		spent[strings.ToLower(ref)] = struct{}{}
	}

	l.mu.Lock()
	l.spent = spent
	l.mu.Unlock()
}

package provisioning

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// Context is the state carried across the issuance suspension point.
//
// Subsystem and AssetForwarded record how far a resumption got before it failed,
// so that a redelivered callback continues from there instead of deploying again.
type Context struct {
	JobID         string             `json:"job_id"`
	Caller        interfaces.Address `json:"caller"`
	DisplayName   string             `json:"display_name"`
	Ticker        string             `json:"ticker"`
	CorrelationID string             `json:"db_id"`
	BuyIn         bool               `json:"buy_in"`
	Funds         interfaces.Payment `json:"funds"`
	PaymentTx     string             `json:"payment_tx,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`

	Subsystem      interfaces.Address `json:"subsystem"`
	AssetForwarded bool               `json:"asset_forwarded,omitempty"`
}

// PendingStore holds the contexts of provisioning jobs awaiting their issuance callback.
// Each context is taken at most once.
type PendingStore struct {
	mu   sync.Mutex
	jobs map[string]Context
}

func NewPendingStore() *PendingStore {
	return &PendingStore{jobs: make(map[string]Context)}
}

// Put stores a new context. Job ids must be unique.
func (s *PendingStore) Put(c Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[c.JobID]; exists {
		return fmt.Errorf("%w: job %s already pending", interfaces.ErrInvalidArgument, c.JobID)
	}
	s.jobs[c.JobID] = c
	return nil
}

// Take removes and returns the context for jobID.
func (s *PendingStore) Take(jobID string) (Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.jobs[jobID]
	if ok {
		delete(s.jobs, jobID)
	}
	return c, ok
}

// List returns the pending contexts, oldest first.
func (s *PendingStore) List() []Context {
	s.mu.Lock()
	out := make([]Context, 0, len(s.jobs))
	for _, c := range s.jobs {
		out = append(out, c)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].JobID < out[j].JobID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Restore replaces the pending set with the given contexts.
func (s *PendingStore) Restore(contexts []Context) {
	jobs := make(map[string]Context, len(contexts))
	for _, c := range contexts {
		jobs[c.JobID] = c
	}

	s.mu.Lock()
	s.jobs = jobs
	s.mu.Unlock()
}

func (s *PendingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

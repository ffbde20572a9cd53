package registry

import (
	"fmt"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// Snapshot is the serialisable form of the registry.
type Snapshot struct {
	Config Config      `json:"config"`
	Pairs  []PairEntry `json:"pairs"`
}

// Export returns a consistent copy of the whole registry.
func (r *Registry) Export() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pairs := make([]PairEntry, 0, len(r.order))
	for _, key := range r.order {
		pairs = append(pairs, PairEntry{Key: key, Address: r.pairToAddress[key]})
	}
	return Snapshot{Config: r.config.Clone(), Pairs: pairs}
}

// Restore replaces the registry contents with s.
// Duplicate keys or addresses in s are rejected and the registry is left unchanged.
func (r *Registry) Restore(s Snapshot) error {
	pairToAddress := make(map[interfaces.PairKey]interfaces.Address, len(s.Pairs))
	addressToPair := make(map[interfaces.Address]interfaces.PairKey, len(s.Pairs))
	order := make([]interfaces.PairKey, 0, len(s.Pairs))

	for _, entry := range s.Pairs {
		if _, ok := pairToAddress[entry.Key]; ok {
			return fmt.Errorf("%w: pair %s appears twice in snapshot", interfaces.ErrDuplicatePair, entry.Key)
		}
		if _, ok := addressToPair[entry.Address]; ok {
			return fmt.Errorf("%w: address %s appears twice in snapshot", interfaces.ErrDuplicatePair, entry.Address)
		}
		pairToAddress[entry.Key] = entry.Address
		addressToPair[entry.Address] = entry.Key
		order = append(order, entry.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pairToAddress = pairToAddress
	r.addressToPair = addressToPair
	r.order = order
	r.config = s.Config.Clone()
	return nil
}

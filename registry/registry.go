// Package registry holds the factory's durable state: the bidirectional
// pair <-> sub-system index and the single-valued configuration.
package registry

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// Registry is the process-wide shared state of the factory.
//
// The two indexes, pairToAddress and addressToPair, form one logical bidirectional
// index: every mutation writes both under the same lock, so no reader ever observes
// one without the other.
type Registry struct {
	mu            sync.RWMutex
	pairToAddress map[interfaces.PairKey]interfaces.Address
	addressToPair map[interfaces.Address]interfaces.PairKey
	order         []interfaces.PairKey
	config        Config
}

// PairEntry is one registered pair and the sub-system bound to it.
type PairEntry struct {
	Key     interfaces.PairKey `json:"key"`
	Address interfaces.Address `json:"address"`
}

// NewRegistry creates an empty, uninitialized registry.
func NewRegistry() *Registry {
	return &Registry{
		pairToAddress: make(map[interfaces.PairKey]interfaces.Address),
		addressToPair: make(map[interfaces.Address]interfaces.PairKey),
	}
}

// IsPairSubsystem reports whether addr is a registered sub-system.
func (r *Registry) IsPairSubsystem(addr interfaces.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.addressToPair[addr]
	return ok
}

// InsertPair binds key to addr in both indexes.
// It fails with ErrDuplicatePair, leaving both indexes untouched, if either side is already bound.
func (r *Registry) InsertPair(key interfaces.PairKey, addr interfaces.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pairToAddress[key]; ok {
		return fmt.Errorf("%w: pair %s is bound to %s", interfaces.ErrDuplicatePair, key, existing)
	}
	if existing, ok := r.addressToPair[addr]; ok {
		return fmt.Errorf("%w: address %s is bound to %s", interfaces.ErrDuplicatePair, addr, existing)
	}

	r.pairToAddress[key] = addr
	r.addressToPair[addr] = key
	r.order = append(r.order, key)
	return nil
}

// RemovePair unbinds key from addr in both indexes. It fails with ErrPairNotFound,
// leaving both indexes untouched, unless key is bound to exactly addr.
func (r *Registry) RemovePair(key interfaces.PairKey, addr interfaces.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pairToAddress[key]; !ok || existing != addr {
		return fmt.Errorf("%w: pair %s is not bound to %s", interfaces.ErrPairNotFound, key, addr)
	}

	delete(r.pairToAddress, key)
	delete(r.addressToPair, addr)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ResolvePair looks up (a, b) and then (b, a).
func (r *Registry) ResolvePair(a, b interfaces.AssetID) (interfaces.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := interfaces.PairKey{First: a, Second: b}
	if addr, ok := r.pairToAddress[key]; ok {
		return addr, true
	}
	addr, ok := r.pairToAddress[key.Reversed()]
	return addr, ok
}

// ListPairs returns every registered pair in insertion order.
func (r *Registry) ListPairs() []PairEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]PairEntry, 0, len(r.order))
	for _, key := range r.order {
		addr, ok := r.pairToAddress[key]
		if !ok {
			continue
		}
		entries = append(entries, PairEntry{Key: key, Address: addr})
	}
	return entries
}

// Len returns the sizes of the pair index and the address index.
func (r *Registry) Len() (pairs int, addresses int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.pairToAddress), len(r.addressToPair)
}

// Consistent reports whether both indexes hold the same number of entries.
func (r *Registry) Consistent() bool {
	pairs, addresses := r.Len()
	return pairs == addresses
}

// Config returns a deep copy of the current configuration.
func (r *Registry) Config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.config.Clone()
}

// IsActive reports the global active flag.
func (r *Registry) IsActive() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.config.Active
}

// Initialize validates params and stores each value only if still unset.
// The active flag and the owner are set on the first initialization only.
func (r *Registry) Initialize(owner interfaces.Address, params *InitParams) error {
	if params == nil {
		return invalid("missing init params")
	}
	if err := params.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := &r.config
	if !c.Initialized {
		c.Active = true
		c.Initialized = true
	}
	setAddrIfAbsent(&c.Owner, owner)
	setAddrIfAbsent(&c.TemplateAddress, params.TemplateAddress)
	setIntIfAbsent(&c.TokenSupply, params.TokenSupply)
	setIntIfAbsent(&c.NewAssetFee, params.NewAssetFee)
	setAddrIfAbsent(&c.FeesCollector, params.FeesCollector)
	setIntIfAbsent(&c.InitialVirtualLiquidity, params.InitialVirtualLiquidity)
	if c.AllowedQuoteAsset == "" {
		c.AllowedQuoteAsset = params.AllowedQuoteAsset
	}
	setAddrIfAbsent(&c.OracleAddress, params.OracleAddress)
	setIntIfAbsent(&c.MaxMarketCap, params.MaxMarketCap)
	setAddrIfAbsent(&c.RouterAddress, params.RouterAddress)
	setIntIfAbsent(&c.IssuanceCost, params.IssuanceCost)
	setAddrIfAbsent(&c.UnwrapHelper, params.UnwrapHelper)
	setIntIfAbsent(&c.FeeThreshold, params.FeeThreshold)
	return nil
}

// SetActive overwrites the global active flag.
func (r *Registry) SetActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.config.Active = active
}

// SetRouterAddress overwrites the router address.
func (r *Registry) SetRouterAddress(addr interfaces.Address) error {
	if addr.IsZero() {
		return invalid("router address cannot be zero")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.config.RouterAddress = addr
	return nil
}

// SetFeesCollector overwrites the address receiving the fee remainder.
func (r *Registry) SetFeesCollector(addr interfaces.Address) error {
	if addr.IsZero() {
		return invalid("fees collector cannot be zero address")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.config.FeesCollector = addr
	return nil
}

// SetTemplateAddress overwrites the template new sub-systems are deployed from.
func (r *Registry) SetTemplateAddress(addr interfaces.Address) error {
	if addr.IsZero() {
		return invalid("template cannot be zero")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.config.TemplateAddress = addr
	return nil
}

// SetInitialVirtualLiquidity overwrites the virtual liquidity new curves start with.
func (r *Registry) SetInitialVirtualLiquidity(v *big.Int) error {
	return r.setPositive(&r.config.InitialVirtualLiquidity, v, "initial virtual liquidity cannot be zero")
}

// SetTokenSupply overwrites the supply of newly issued assets.
func (r *Registry) SetTokenSupply(v *big.Int) error {
	return r.setPositive(&r.config.TokenSupply, v, "token supply cannot be zero")
}

// SetNewAssetFee overwrites the fee a provisioning request must attach.
func (r *Registry) SetNewAssetFee(v *big.Int) error {
	return r.setPositive(&r.config.NewAssetFee, v, "new asset fee cannot be zero")
}

// SetMaxMarketCap overwrites the market cap at which a curve completes.
func (r *Registry) SetMaxMarketCap(v *big.Int) error {
	return r.setPositive(&r.config.MaxMarketCap, v, "max market cap cannot be zero")
}

func (r *Registry) setPositive(dst **big.Int, v *big.Int, msg string) error {
	if !positive(v) {
		return invalid(msg)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	*dst = cloneInt(v)
	return nil
}

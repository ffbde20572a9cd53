// Package interfaces defines the core interfaces and types for the asset factory.
// It provides the contract between different components without implementation details.
package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// Address represents a 20-byte account or contract address.
// The zero address means "unset".
type Address [20]byte

// NewAddressFromBytes creates a new address from a byte slice.
func NewAddressFromBytes(addr []byte) (Address, error) {
	if len(addr) != 20 {
		return Address{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res Address
	copy(res[:], addr)
	return res, nil
}

// NewAddressFromHex creates a new address from a hex string, with or without 0x prefix.
func NewAddressFromHex(addr string) (Address, error) {
	clean := strings.TrimPrefix(addr, "0x")
	if len(clean) != 40 {
		return Address{}, errors.New("invalid address length: hex string must be 40 characters")
	}

	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return Address{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewAddressFromBytes(addrBytes)
}

// String returns the 0x-prefixed hex representation of the address.
func (addr Address) String() string {
	return "0x" + hex.EncodeToString(addr[:])
}

// Bytes returns the raw 20-byte address.
func (addr Address) Bytes() []byte {
	return addr[:]
}

// IsZero reports whether the address is unset.
func (addr Address) IsZero() bool {
	return addr == Address{}
}

func (addr Address) MarshalText() ([]byte, error) {
	return []byte(addr.String()), nil
}

func (addr *Address) UnmarshalText(text []byte) error {
	parsed, err := NewAddressFromHex(string(text))
	if err != nil {
		return err
	}
	*addr = parsed
	return nil
}

// AssetID identifies a fungible asset.
type AssetID string

// NativeAsset is the native, refundable currency of the execution environment.
const NativeAsset AssetID = "NATIVE"

var assetIDRegex = regexp.MustCompile(`^[A-Z0-9]{3,10}-[0-9a-f]{6}$`)

// IsValid reports whether the id has the shape of an issued asset identifier: TICKER-hhhhhh.
func (id AssetID) IsValid() bool {
	return assetIDRegex.MatchString(string(id))
}

// IsNative reports whether the id denotes the native currency.
func (id AssetID) IsNative() bool {
	return id == NativeAsset
}

func (id AssetID) String() string {
	return string(id)
}

// PairKey is an ordered (first, second) asset pair. Equality is order-sensitive.
type PairKey struct {
	First  AssetID `json:"first_asset_id"`
	Second AssetID `json:"second_asset_id"`
}

// Reversed returns the key with the two assets swapped.
func (k PairKey) Reversed() PairKey {
	return PairKey{First: k.Second, Second: k.First}
}

func (k PairKey) String() string {
	return fmt.Sprintf("%s/%s", k.First, k.Second)
}

// Payment is an amount of one asset moving along with a call.
type Payment struct {
	Asset  AssetID  `json:"asset_id"`
	Amount *big.Int `json:"amount"`
}

// IsNative reports whether the payment is in the refundable native currency.
func (p Payment) IsNative() bool {
	return p.Asset.IsNative()
}

// IsZero reports whether the payment carries no value.
func (p Payment) IsZero() bool {
	return p.Amount == nil || p.Amount.Sign() == 0
}

// LifecycleState is the trading state reported by a bonding sub-system.
type LifecycleState uint8

const (
	StateInactive LifecycleState = iota
	StateActive
	StatePartialActive
)

func (s LifecycleState) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StatePartialActive:
		return "partial_active"
	default:
		return "unknown"
	}
}

func (s LifecycleState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PairData is the read-only view a bonding sub-system reports about itself.
type PairData struct {
	FirstAssetID  AssetID        `json:"first_asset_id"`
	SecondAssetID AssetID        `json:"second_asset_id"`
	FirstReserve  *big.Int       `json:"first_reserve"`
	SecondReserve *big.Int       `json:"second_reserve"`
	FeePercent    uint64         `json:"fee_percent"`
	MarketCap     *big.Int       `json:"market_cap"`
	CorrelationID string         `json:"db_id"`
	State         LifecycleState `json:"state"`
}

// PairMetadata is a registry entry as reported to callers.
type PairMetadata struct {
	FirstAssetID  AssetID `json:"first_asset_id"`
	SecondAssetID AssetID `json:"second_asset_id"`
	Address       Address `json:"address"`
}

// PairContractData combines a sub-system address with the data it reports.
type PairContractData struct {
	Address Address `json:"address"`
	PairData
}

// InitArgs are the arguments every sub-system is initialized (or upgraded) with.
type InitArgs struct {
	AllowedQuoteAsset       AssetID
	FeesCollector           Address
	InitialVirtualLiquidity *big.Int
	OracleAddress           Address
	MaxMarketCap            *big.Int
	RouterAddress           Address
	IssuanceCost            *big.Int
	UnwrapHelper            Address
	FeeThreshold            *big.Int
	// CorrelationID is empty for upgrades.
	CorrelationID string
}

package interfaces

import (
	"context"
	"math/big"
)

// IssuanceGasLimit is the execution budget forwarded with every issuance request.
const IssuanceGasLimit uint64 = 150_000_000

// AssetDecimals is the number of decimals every issued asset is created with.
const AssetDecimals = 18

// AssetProperties are the capabilities requested for a newly issued asset.
type AssetProperties struct {
	NumDecimals        int  `json:"num_decimals"`
	CanFreeze          bool `json:"can_freeze"`
	CanWipe            bool `json:"can_wipe"`
	CanPause           bool `json:"can_pause"`
	CanMint            bool `json:"can_mint"`
	CanBurn            bool `json:"can_burn"`
	CanChangeOwner     bool `json:"can_change_owner"`
	CanUpgrade         bool `json:"can_upgrade"`
	CanAddSpecialRoles bool `json:"can_add_special_roles"`
}

// FixedSupplyProperties returns the properties assets are issued with: fixed supply,
// no administrative capabilities.
func FixedSupplyProperties() AssetProperties {
	return AssetProperties{NumDecimals: AssetDecimals}
}

// IssuanceRequest asks the issuing authority to mint a new asset.
type IssuanceRequest struct {
	// JobID correlates the asynchronous result with the pending provisioning context.
	JobID       string          `json:"job_id"`
	Cost        *big.Int        `json:"cost"`
	DisplayName string          `json:"display_name"`
	Ticker      string          `json:"ticker"`
	Supply      *big.Int        `json:"supply"`
	Properties  AssetProperties `json:"properties"`
	GasLimit    uint64          `json:"gas_limit"`
}

// IssuanceResult is delivered by the issuing authority once the issuance settles.
// On success Returned carries the minted supply; on failure it carries whatever
// the authority sent back to the caller of record.
type IssuanceResult struct {
	JobID    string  `json:"job_id"`
	Success  bool    `json:"success"`
	Returned Payment `json:"returned"`
	Reason   string  `json:"reason,omitempty"`
}

// PaymentVerifier resolves a payment reference to the funds it moved.
type PaymentVerifier interface {
	// VerifyPayment checks that ref names a settled transfer from payer to the factory's
	// treasury and returns the transferred funds. It fails with ErrPaymentNotVerified otherwise.
	VerifyPayment(ctx context.Context, ref string, payer Address) (Payment, error)
}

// IssuingAuthority mints new assets asynchronously.
type IssuingAuthority interface {
	// RequestIssuance sends the request. The result arrives later through the factory's
	// issuance callback, keyed by the request's JobID.
	// Errors wrapping ErrIssuanceRejected mean the authority refused the request; any
	// other error leaves it unknown whether the request was received.
	RequestIssuance(ctx context.Context, req IssuanceRequest) error
}

// Subsystem is a deployed bonding-curve trading instance.
type Subsystem interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	SetRouter(ctx context.Context, router Address) error

	// SetAssetIdentifier hands the minted asset over to the sub-system.
	SetAssetIdentifier(ctx context.Context, payment Payment, buyIn bool, caller Address) error

	// GetPairData is a read-only query.
	GetPairData(ctx context.Context) (*PairData, error)
}

// SubsystemFactory creates Subsystem clients.
type SubsystemFactory interface {
	SubsystemFor(Address) (Subsystem, error)
}

// Router is the external router sub-system.
type Router interface {
	// SetPendingPair registers a freshly deployed sub-system as a pending pair.
	SetPendingPair(ctx context.Context, pair Address) error
}

// RouterFactory creates Router clients.
type RouterFactory interface {
	RouterFor(Address) (Router, error)
}

// TemplateBackend creates and upgrades sub-system instances from a template.
type TemplateBackend interface {
	// DeployFromTemplate creates a new instance and returns its address.
	DeployFromTemplate(ctx context.Context, template Address, args *InitArgs) (Address, error)

	// UpgradeFromTemplate re-initializes an existing instance in place.
	UpgradeFromTemplate(ctx context.Context, target Address, template Address, args *InitArgs) error
}

// Treasury moves native currency held by the factory.
type Treasury interface {
	Send(ctx context.Context, to Address, amount *big.Int) error
}

package registry

import (
	"fmt"
	"math/big"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// Config holds the factory's single-valued settings. A nil amount or zero address is unset.
type Config struct {
	Owner                   interfaces.Address `json:"owner"`
	Active                  bool               `json:"active"`
	Initialized             bool               `json:"initialized"`
	FeesCollector           interfaces.Address `json:"fees_collector"`
	InitialVirtualLiquidity *big.Int           `json:"initial_virtual_liquidity"`
	OracleAddress           interfaces.Address `json:"oracle_address"`
	MaxMarketCap            *big.Int           `json:"max_market_cap"`
	RouterAddress           interfaces.Address `json:"router_address"`
	IssuanceCost            *big.Int           `json:"issuance_cost"`
	UnwrapHelper            interfaces.Address `json:"unwrap_helper"`
	FeeThreshold            *big.Int           `json:"fee_threshold"`
	TemplateAddress         interfaces.Address `json:"template_address"`
	TokenSupply             *big.Int           `json:"token_supply"`
	NewAssetFee             *big.Int           `json:"new_asset_fee"`
	AllowedQuoteAsset       interfaces.AssetID `json:"allowed_quote_asset"`
}

// Clone returns a deep copy, so snapshots never alias the registry's amounts.
func (c Config) Clone() Config {
	c.InitialVirtualLiquidity = cloneInt(c.InitialVirtualLiquidity)
	c.MaxMarketCap = cloneInt(c.MaxMarketCap)
	c.IssuanceCost = cloneInt(c.IssuanceCost)
	c.FeeThreshold = cloneInt(c.FeeThreshold)
	c.TokenSupply = cloneInt(c.TokenSupply)
	c.NewAssetFee = cloneInt(c.NewAssetFee)
	return c
}

// InitParams are the values supplied when the factory is initialized.
type InitParams struct {
	TemplateAddress         interfaces.Address `json:"template_address"`
	TokenSupply             *big.Int           `json:"token_supply"`
	FeesCollector           interfaces.Address `json:"fees_collector"`
	NewAssetFee             *big.Int           `json:"new_asset_fee"`
	InitialVirtualLiquidity *big.Int           `json:"initial_virtual_liquidity"`
	AllowedQuoteAsset       interfaces.AssetID `json:"allowed_quote_asset"`
	OracleAddress           interfaces.Address `json:"oracle_address"`
	MaxMarketCap            *big.Int           `json:"max_market_cap"`
	RouterAddress           interfaces.Address `json:"router_address"`
	IssuanceCost            *big.Int           `json:"issuance_cost"`
	UnwrapHelper            interfaces.Address `json:"unwrap_helper"`
	FeeThreshold            *big.Int           `json:"fee_threshold"`
}

// Validate checks every initialization precondition.
func (p *InitParams) Validate() error {
	switch {
	case p.TemplateAddress.IsZero():
		return invalid("template cannot be zero")
	case !positive(p.TokenSupply):
		return invalid("token supply cannot be zero")
	case !positive(p.NewAssetFee):
		return invalid("new asset fee cannot be zero")
	case !positive(p.InitialVirtualLiquidity):
		return invalid("initial virtual liquidity cannot be zero")
	case p.OracleAddress.IsZero():
		return invalid("oracle cannot be zero")
	case !positive(p.MaxMarketCap):
		return invalid("max market cap cannot be zero")
	case !positive(p.IssuanceCost):
		return invalid("issuance cost cannot be zero")
	case p.UnwrapHelper.IsZero():
		return invalid("unwrap helper cannot be zero")
	case p.RouterAddress.IsZero():
		return invalid("router address cannot be zero")
	case !positive(p.FeeThreshold):
		return invalid("fee threshold cannot be zero")
	case p.AllowedQuoteAsset == "":
		return invalid("allowed quote asset cannot be empty")
	case !p.AllowedQuoteAsset.IsValid():
		return invalid(fmt.Sprintf("allowed quote asset %q is not a valid asset identifier", p.AllowedQuoteAsset))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", interfaces.ErrInvalidArgument, msg)
}

func positive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func setAddrIfAbsent(dst *interfaces.Address, v interfaces.Address) {
	if dst.IsZero() {
		*dst = v
	}
}

func setIntIfAbsent(dst **big.Int, v *big.Int) {
	if *dst == nil {
		*dst = cloneInt(v)
	}
}

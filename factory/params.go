package factory

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/ruteri/bonding-factory-backend/registry"
)

// RawInitParams is the textual form of the initialization parameters, as read from a
// TOML file or a JSON request. Amounts are decimal strings so values beyond 64 bits
// can be expressed.
type RawInitParams struct {
	TemplateAddress         string `toml:"template_address" json:"template_address"`
	TokenSupply             string `toml:"token_supply" json:"token_supply"`
	FeesCollector           string `toml:"fees_collector" json:"fees_collector"`
	NewAssetFee             string `toml:"new_asset_fee" json:"new_asset_fee"`
	InitialVirtualLiquidity string `toml:"initial_virtual_liquidity" json:"initial_virtual_liquidity"`
	AllowedQuoteAsset       string `toml:"allowed_quote_asset" json:"allowed_quote_asset"`
	OracleAddress           string `toml:"oracle_address" json:"oracle_address"`
	MaxMarketCap            string `toml:"max_market_cap" json:"max_market_cap"`
	RouterAddress           string `toml:"router_address" json:"router_address"`
	IssuanceCost            string `toml:"issuance_cost" json:"issuance_cost"`
	UnwrapHelper            string `toml:"unwrap_helper" json:"unwrap_helper"`
	FeeThreshold            string `toml:"fee_threshold" json:"fee_threshold"`
}

// LoadInitParams reads initialization parameters from a TOML file. Unknown keys are rejected.
func LoadInitParams(path string) (*registry.InitParams, error) {
	raw, err := LoadRawInitParams(path)
	if err != nil {
		return nil, err
	}
	return raw.Parse()
}

// LoadRawInitParams reads the textual parameters from a TOML file without converting them.
func LoadRawInitParams(path string) (RawInitParams, error) {
	var raw RawInitParams
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return raw, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return raw, fmt.Errorf("%w: unknown keys in %s: %s", interfaces.ErrInvalidArgument, path, strings.Join(keys, ", "))
	}
	return raw, nil
}

// Parse converts the textual parameters. Empty values stay unset and are left to
// registry validation.
func (raw RawInitParams) Parse() (*registry.InitParams, error) {
	p := &parser{}
	params := &registry.InitParams{
		TemplateAddress:         p.address("template_address", raw.TemplateAddress),
		TokenSupply:             p.amount("token_supply", raw.TokenSupply),
		FeesCollector:           p.address("fees_collector", raw.FeesCollector),
		NewAssetFee:             p.amount("new_asset_fee", raw.NewAssetFee),
		InitialVirtualLiquidity: p.amount("initial_virtual_liquidity", raw.InitialVirtualLiquidity),
		AllowedQuoteAsset:       interfaces.AssetID(raw.AllowedQuoteAsset),
		OracleAddress:           p.address("oracle_address", raw.OracleAddress),
		MaxMarketCap:            p.amount("max_market_cap", raw.MaxMarketCap),
		RouterAddress:           p.address("router_address", raw.RouterAddress),
		IssuanceCost:            p.amount("issuance_cost", raw.IssuanceCost),
		UnwrapHelper:            p.address("unwrap_helper", raw.UnwrapHelper),
		FeeThreshold:            p.amount("fee_threshold", raw.FeeThreshold),
	}
	if p.err != nil {
		return nil, p.err
	}
	return params, nil
}

// parser keeps the first conversion error.
type parser struct {
	err error
}

func (p *parser) address(key, value string) interfaces.Address {
	if p.err != nil || value == "" {
		return interfaces.Address{}
	}
	addr, err := interfaces.NewAddressFromHex(value)
	if err != nil {
		p.err = fmt.Errorf("%w: %s: %v", interfaces.ErrInvalidArgument, key, err)
	}
	return addr
}

func (p *parser) amount(key, value string) *big.Int {
	if p.err != nil || value == "" {
		return nil
	}
	v, ok := ParseAmount(value)
	if !ok {
		p.err = fmt.Errorf("%w: %s: %q is not a non-negative integer", interfaces.ErrInvalidArgument, key, value)
	}
	return v
}

// ParseAmount parses a non-negative decimal integer.
func ParseAmount(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

// Package chain implements the factory's external collaborators on top of an
// EVM chain: bonding sub-systems, the router, the template factory contract and
// the native currency treasury.
package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const bondingABIJSON = `[
	{"type":"function","name":"pause","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"resume","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"setRouter","inputs":[{"name":"router","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"setAssetIdentifier","inputs":[
		{"name":"assetId","type":"string"},
		{"name":"amount","type":"uint256"},
		{"name":"buyIn","type":"bool"},
		{"name":"caller","type":"address"}
	],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"getPairData","inputs":[],"outputs":[{"name":"","type":"tuple","components":[
		{"name":"firstAssetId","type":"string"},
		{"name":"secondAssetId","type":"string"},
		{"name":"firstReserve","type":"uint256"},
		{"name":"secondReserve","type":"uint256"},
		{"name":"feePercent","type":"uint64"},
		{"name":"marketCap","type":"uint256"},
		{"name":"dbId","type":"string"},
		{"name":"state","type":"uint8"}
	]}],"stateMutability":"view"}
]`

const routerABIJSON = `[
	{"type":"function","name":"setPendingPair","inputs":[{"name":"pair","type":"address"}],"outputs":[],"stateMutability":"nonpayable"}
]`

const templateFactoryABIJSON = `[
	{"type":"function","name":"deployFromTemplate","inputs":[
		{"name":"template","type":"address"},
		{"name":"initArgs","type":"bytes"}
	],"outputs":[{"name":"","type":"address"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"upgradeFromTemplate","inputs":[
		{"name":"target","type":"address"},
		{"name":"template","type":"address"},
		{"name":"initArgs","type":"bytes"}
	],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"event","name":"SubsystemDeployed","anonymous":false,"inputs":[
		{"name":"template","type":"address","indexed":true},
		{"name":"subsystem","type":"address","indexed":false}
	]}
]`

var (
	bondingABI         = mustParseABI(bondingABIJSON)
	routerABI          = mustParseABI(routerABIJSON)
	templateFactoryABI = mustParseABI(templateFactoryABIJSON)

	initArgsLayout = mustArguments(
		"string",  // allowed quote asset
		"address", // fees collector
		"uint256", // initial virtual liquidity
		"address", // oracle
		"uint256", // max market cap
		"address", // router
		"uint256", // issuance cost
		"address", // unwrap helper
		"uint256", // fee threshold
		"string",  // correlation id
	)
)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return parsed
}

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}

package strategy

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// Built-in token table. Symbols are unique; ERC-20 tokens carry an
// address per chain they are deployed on.
var tokens = []entity.Token{
	{Name: "ETH", Decimals: 18, IsNative: true},
	{Name: "BNB", Decimals: 18, IsNative: true},
	{Name: "CELO", Decimals: 18, IsNative: true},
	{
		Name: "USDC", Decimals: 6,
		Chains: map[uint64]common.Address{
			1:     common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
			137:   common.HexToAddress("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"),
			8453:  common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
			42161: common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
			42220: common.HexToAddress("0xcebA9300f2b948710d2653dD7B07f33A8B32118C"),
		},
	},
	{
		Name: "WETH", Decimals: 18,
		Chains: map[uint64]common.Address{
			1:     common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
			8453:  common.HexToAddress("0x4200000000000000000000000000000000000006"),
			42161: common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
		},
	},
	{
		Name: "wstETH", Decimals: 18,
		Chains: map[uint64]common.Address{
			1: common.HexToAddress("0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0"),
		},
	},
	{
		Name: "wbETH", Decimals: 18,
		Chains: map[uint64]common.Address{
			56: common.HexToAddress("0xa2E3356610840701BDf5611a53974510Ae27E2e1"),
		},
	},
	{
		Name: "cUSD", Decimals: 18,
		Chains: map[uint64]common.Address{
			42220: common.HexToAddress("0x765DE816845861e75A25fCA122bb6898B8B1282a"),
		},
	},
	{
		Name: "stCELO", Decimals: 18,
		Chains: map[uint64]common.Address{
			42220: common.HexToAddress("0xC668583dcbDc9ae6FA3CE46462758188adfdfC24"),
		},
	},
}

// TokenByName looks up a token by its unique symbol.
func TokenByName(name string) (entity.Token, error) {
	for _, t := range tokens {
		if t.Name == name {
			return t, nil
		}
	}
	return entity.Token{}, fmt.Errorf("token %s not found", name)
}

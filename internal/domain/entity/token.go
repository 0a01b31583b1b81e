package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Token is a semantic asset descriptor. A native token has no contract
// addresses; an ERC-20 token must carry an address for every chain a
// strategy using it runs on.
type Token struct {
	Name     string                    `json:"name" yaml:"name"`
	Decimals uint8                     `json:"decimals" yaml:"decimals"`
	IsNative bool                      `json:"isNative" yaml:"isNative"`
	Chains   map[uint64]common.Address `json:"chains,omitempty" yaml:"chains,omitempty"`
}

// AddressOn returns the token contract address on the given chain.
// Native tokens have no address; callers must branch on IsNative first.
func (t Token) AddressOn(chainID uint64) (common.Address, error) {
	if t.IsNative {
		return common.Address{}, fmt.Errorf("token %s is native and has no contract address: %w", t.Name, ErrUnsupportedChain)
	}
	addr, ok := t.Chains[chainID]
	if !ok {
		return common.Address{}, fmt.Errorf("token %s has no address on chain %d: %w", t.Name, chainID, ErrUnsupportedChain)
	}
	return addr, nil
}

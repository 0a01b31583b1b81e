package strategy

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Helpers to pull typed values out of unpacked eth_call outputs.

func outAddress(out []interface{}, i int) (common.Address, error) {
	if i >= len(out) {
		return common.Address{}, fmt.Errorf("contract read returned %d values, want index %d", len(out), i)
	}
	addr, ok := out[i].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("contract read output %d is %T, want address", i, out[i])
	}
	return addr, nil
}

func outBigInt(out []interface{}, i int) (*big.Int, error) {
	if i >= len(out) {
		return nil, fmt.Errorf("contract read returned %d values, want index %d", len(out), i)
	}
	v, ok := out[i].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("contract read output %d is %T, want *big.Int", i, out[i])
	}
	return v, nil
}

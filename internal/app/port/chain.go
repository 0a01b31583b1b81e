package port

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ChainReader reads contract state from a blockchain network. It is the
// only suspension point strategies hit while building calls: receipt
// token balances, NFT position data and market parameters all come
// through here.
type ChainReader interface {
	// ReadContract performs an eth_call against the given contract and
	// returns the unpacked output values of the method.
	ReadContract(ctx context.Context, chainID uint64, contract common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error)
}

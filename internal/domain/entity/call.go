package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Call is a single atomic instruction inside an on-chain batch.
// Order within a batch is significant: an ERC-20 approve must precede
// the call that spends the allowance.
type Call struct {
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data,omitempty"`
	Value *big.Int       `json:"value,omitempty"`
}

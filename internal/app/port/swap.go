package port

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// SwapQuote is a priced, executable swap route. Calls carry the
// prebuilt approve + router calldata in execution order.
type SwapQuote struct {
	Calls        []entity.Call
	InputAmount  *big.Int
	OutputAmount *big.Int
}

// SwapQuoteProvider resolves a swap route for a token pair. Token names
// are the unique symbols of the token table, not addresses.
type SwapQuoteProvider interface {
	Quote(ctx context.Context, chainID uint64, tokenIn, tokenOut string, amountIn *big.Int, recipient common.Address) (SwapQuote, error)
}

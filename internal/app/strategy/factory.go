package strategy

import (
	"fmt"

	"github.com/dynavest/strategy-engine/internal/app/port"
)

// Protocol identifiers accepted by the factory.
const (
	ProtocolAaveV3Supply          = "AaveV3Supply"
	ProtocolMorphoSupply          = "MorphoSupply"
	ProtocolStCeloStaking         = "StCeloStaking"
	ProtocolUniswapV3AddLiquidity = "UniswapV3AddLiquidity"
	ProtocolUniswapV3SwapLST      = "UniswapV3SwapLST"
)

// Protocols lists every protocol id the factory can construct.
func Protocols() []string {
	return []string{
		ProtocolAaveV3Supply,
		ProtocolMorphoSupply,
		ProtocolStCeloStaking,
		ProtocolUniswapV3AddLiquidity,
		ProtocolUniswapV3SwapLST,
	}
}

// Deps are the external collaborators strategies consume while building
// calls.
type Deps struct {
	Reader port.ChainReader
	Quotes port.SwapQuoteProvider
}

// New constructs the strategy for a protocol id bound to one chain.
// Chain support is validated here, once; an unsupported pair fails with
// ErrUnsupportedChain before any call is built.
func New(protocolID string, chainID uint64, deps Deps) (Strategy, error) {
	switch protocolID {
	case ProtocolAaveV3Supply:
		return NewAaveV3Supply(chainID, deps.Reader)
	case ProtocolMorphoSupply:
		return NewMorphoSupply(chainID, deps.Reader)
	case ProtocolStCeloStaking:
		return NewStCeloStaking(chainID, deps.Reader)
	case ProtocolUniswapV3AddLiquidity:
		return NewUniswapV3AddLiquidity(chainID, deps.Reader, deps.Quotes)
	case ProtocolUniswapV3SwapLST:
		lstName := "wstETH"
		if chainID == 56 {
			lstName = "wbETH"
		}
		lst, err := TokenByName(lstName)
		if err != nil {
			return nil, err
		}
		return NewUniswapV3SwapLST(chainID, lst, deps.Reader)
	default:
		return nil, fmt.Errorf("unknown protocol %q", protocolID)
	}
}

package strategy

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/app/port"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// swapLSTFeeTier is the pool tier used for asset/LST swaps.
const swapLSTFeeTier = 500

// swapLSTProfitRate is a stubbed linear multiplier carried over until
// LST exchange-rate accounting lands.
const swapLSTProfitRate = 2.8

// exactInputSingleParams mirrors the router's ExactInputSingleParams
// tuple.
type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// UniswapV3SwapLST swaps an ERC-20 asset into a liquid-staking
// derivative through the V3 router (ETH chains: wstETH, BSC: wbETH).
//
// No slippage floor is applied: amountOutMinimum is zero on both legs.
// That is a known weaker guarantee than the liquidity strategy gives,
// kept deliberately until product signs off on a floor.
type UniswapV3SwapLST struct {
	base
	reader port.ChainReader
	lst    entity.Token
}

func NewUniswapV3SwapLST(chainID uint64, lst entity.Token, reader port.ChainReader) (*UniswapV3SwapLST, error) {
	b, err := newBase("UniswapV3SwapLST", chainID, UniswapContracts)
	if err != nil {
		return nil, err
	}
	if _, err := lst.AddressOn(chainID); err != nil {
		return nil, fmt.Errorf("UniswapV3SwapLST: %w", err)
	}
	return &UniswapV3SwapLST{base: b, reader: reader, lst: lst}, nil
}

// InvestCalls returns [approve(asset -> router), exactInputSingle(asset -> LST)].
func (s *UniswapV3SwapLST) InvestCalls(_ context.Context, p InvestParams) ([]entity.Call, error) {
	if p.Asset == nil {
		return nil, fmt.Errorf("UniswapV3SwapLST: native input not supported yet: %w", entity.ErrMissingAsset)
	}

	router, err := s.address(RoleSwapRouter)
	if err != nil {
		return nil, err
	}
	lstAddr, err := s.lst.AddressOn(s.chainID)
	if err != nil {
		return nil, err
	}

	return s.swapCalls(router, *p.Asset, lstAddr, p.Amount, p.User)
}

// RedeemCalls swaps the user's full live LST balance back into the
// asset.
func (s *UniswapV3SwapLST) RedeemCalls(ctx context.Context, p RedeemParams) ([]entity.Call, error) {
	if p.Asset == nil {
		return nil, fmt.Errorf("UniswapV3SwapLST: native input not supported yet: %w", entity.ErrMissingAsset)
	}

	router, err := s.address(RoleSwapRouter)
	if err != nil {
		return nil, err
	}
	lstAddr, err := s.lst.AddressOn(s.chainID)
	if err != nil {
		return nil, err
	}

	out, err := s.reader.ReadContract(ctx, s.chainID, lstAddr, erc20ABI, "balanceOf", p.User)
	if err != nil {
		return nil, fmt.Errorf("UniswapV3SwapLST: failed to read %s balance: %w", s.lst.Name, err)
	}
	balance, err := outBigInt(out, 0)
	if err != nil {
		return nil, err
	}

	return s.swapCalls(router, lstAddr, *p.Asset, balance, p.User)
}

// Profit applies the stubbed linear rate to the recorded amount.
func (s *UniswapV3SwapLST) Profit(_ context.Context, pos entity.Position) (float64, error) {
	return pos.Amount * swapLSTProfitRate, nil
}

func (s *UniswapV3SwapLST) swapCalls(router, tokenIn, tokenOut common.Address, amountIn *big.Int, recipient common.Address) ([]entity.Call, error) {
	approve, err := approveCall(tokenIn, router, amountIn)
	if err != nil {
		return nil, err
	}

	swapData, err := encodeCall(swapRouterABI, "exactInputSingle", exactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               big.NewInt(swapLSTFeeTier),
		Recipient:         recipient,
		AmountIn:          amountIn,
		AmountOutMinimum:  big.NewInt(0),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, err
	}

	return []entity.Call{
		approve,
		{To: router, Data: swapData},
	}, nil
}

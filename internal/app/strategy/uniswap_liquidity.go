package strategy

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/app/port"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// Defaults for concentrated-liquidity positions. The tick bounds are
// the full usable range for tick spacing 60.
const (
	DefaultTickLower       = -887220
	DefaultTickUpper       = 887220
	DefaultFeeTier         = 3000
	DefaultSlippageBps     = 50
	DefaultDeadlineSeconds = 20 * 60
)

// liquidityEstimatedAPY drives the profit approximation. It is a fixed
// estimate, not an on-chain valuation.
const liquidityEstimatedAPY = 0.15

// supportedFeeTiers are the pool tiers Uniswap V3 deploys.
var supportedFeeTiers = map[uint32]struct{}{100: {}, 500: {}, 3000: {}, 10000: {}}

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// LiquidityInvestParams configure one swap-and-mint. Zero values fall
// back to the defaults above.
type LiquidityInvestParams struct {
	AssetName       string
	PairTokenName   string
	FeeTier         uint32
	TickLower       int32
	TickUpper       int32
	SlippageBps     uint32
	DeadlineSeconds int64
}

// LiquidityRedeemParams identify the position being unwound. Liquidity
// may be left nil to remove everything currently in the position; the
// expected amounts scale the slippage-protected minimums and may be
// omitted at the cost of no price floor.
type LiquidityRedeemParams struct {
	TokenID         *big.Int
	Token0          common.Address
	Token1          common.Address
	Liquidity       *big.Int
	Amount0Expected *big.Int
	Amount1Expected *big.Int
	SlippageBps     uint32
	CollectFees     bool
	BurnNFT         bool
	DeadlineSeconds int64
}

type mintParams struct {
	Token0         common.Address
	Token1         common.Address
	Fee            *big.Int
	TickLower      *big.Int
	TickUpper      *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

type decreaseLiquidityParams struct {
	TokenId    *big.Int
	Liquidity  *big.Int
	Amount0Min *big.Int
	Amount1Min *big.Int
	Deadline   *big.Int
}

type collectParams struct {
	TokenId    *big.Int
	Recipient  common.Address
	Amount0Max *big.Int
	Amount1Max *big.Int
}

// CompareAddresses orders two addresses lexicographically on their
// lowercase hex form, the canonical V3 pool ordering.
func CompareAddresses(a, b common.Address) int {
	return strings.Compare(strings.ToLower(a.Hex()), strings.ToLower(b.Hex()))
}

// SortAddresses returns the pair in ascending canonical order.
func SortAddresses(a, b common.Address) (common.Address, common.Address) {
	if CompareAddresses(a, b) < 0 {
		return a, b
	}
	return b, a
}

// UniswapV3AddLiquidity swaps half of the input into the pair token and
// mints a concentrated-liquidity position over a configurable tick
// range.
type UniswapV3AddLiquidity struct {
	base
	reader port.ChainReader
	quotes port.SwapQuoteProvider
	now    func() time.Time
}

func NewUniswapV3AddLiquidity(chainID uint64, reader port.ChainReader, quotes port.SwapQuoteProvider) (*UniswapV3AddLiquidity, error) {
	b, err := newBase("UniswapV3AddLiquidity", chainID, UniswapContracts)
	if err != nil {
		return nil, err
	}
	return &UniswapV3AddLiquidity{base: b, reader: reader, quotes: quotes, now: time.Now}, nil
}

// InvestCalls builds, in order: the quoted swap of half the input into
// the pair token, approvals of both sides to the position manager, and
// the mint.
func (s *UniswapV3AddLiquidity) InvestCalls(ctx context.Context, p InvestParams) ([]entity.Call, error) {
	if p.Asset == nil || p.Liquidity == nil {
		return nil, fmt.Errorf("UniswapV3AddLiquidity: asset and liquidity parameters are required: %w", entity.ErrMissingAsset)
	}
	lp := *p.Liquidity

	feeTier := lp.FeeTier
	if feeTier == 0 {
		feeTier = DefaultFeeTier
	}
	if _, ok := supportedFeeTiers[feeTier]; !ok {
		return nil, fmt.Errorf("UniswapV3AddLiquidity: unsupported fee tier %d", feeTier)
	}
	tickLower, tickUpper := lp.TickLower, lp.TickUpper
	if tickLower == 0 && tickUpper == 0 {
		tickLower, tickUpper = DefaultTickLower, DefaultTickUpper
	}
	if tickLower >= tickUpper {
		return nil, fmt.Errorf("UniswapV3AddLiquidity: invalid tick range [%d, %d]", tickLower, tickUpper)
	}
	slippageBps := lp.SlippageBps
	if slippageBps == 0 {
		slippageBps = DefaultSlippageBps
	}
	deadlineSeconds := lp.DeadlineSeconds
	if deadlineSeconds == 0 {
		deadlineSeconds = DefaultDeadlineSeconds
	}

	nftManager, err := s.address(RoleNFTManager)
	if err != nil {
		return nil, err
	}

	pairToken, err := TokenByName(lp.PairTokenName)
	if err != nil {
		return nil, err
	}
	pairAddr, err := pairToken.AddressOn(s.chainID)
	if err != nil {
		return nil, err
	}

	// Half goes through the router; the remainder stays as the input
	// side of the mint.
	half := new(big.Int).Div(p.Amount, big.NewInt(2))
	remainder := new(big.Int).Sub(p.Amount, half)

	quote, err := s.quotes.Quote(ctx, s.chainID, lp.AssetName, lp.PairTokenName, half, p.User)
	if err != nil {
		return nil, fmt.Errorf("UniswapV3AddLiquidity: %w", err)
	}
	if len(quote.Calls) == 0 || quote.OutputAmount == nil || quote.OutputAmount.Sign() == 0 {
		return nil, fmt.Errorf("UniswapV3AddLiquidity: route returned no executable calldata: %w", entity.ErrQuoteUnavailable)
	}

	token0, token1 := SortAddresses(*p.Asset, pairAddr)
	amount0Desired, amount1Desired := remainder, quote.OutputAmount
	if token0 != *p.Asset {
		amount0Desired, amount1Desired = amount1Desired, amount0Desired
	}

	calls := make([]entity.Call, 0, len(quote.Calls)+3)
	calls = append(calls, quote.Calls...)

	approve0, err := approveCall(token0, nftManager, amount0Desired)
	if err != nil {
		return nil, err
	}
	approve1, err := approveCall(token1, nftManager, amount1Desired)
	if err != nil {
		return nil, err
	}
	calls = append(calls, approve0, approve1)

	deadline := big.NewInt(s.now().Unix() + deadlineSeconds)
	mintData, err := encodeCall(nftManagerABI, "mint", mintParams{
		Token0:         token0,
		Token1:         token1,
		Fee:            big.NewInt(int64(feeTier)),
		TickLower:      big.NewInt(int64(tickLower)),
		TickUpper:      big.NewInt(int64(tickUpper)),
		Amount0Desired: amount0Desired,
		Amount1Desired: amount1Desired,
		Amount0Min:     applySlippage(amount0Desired, slippageBps),
		Amount1Min:     applySlippage(amount1Desired, slippageBps),
		Recipient:      p.User,
		Deadline:       deadline,
	})
	if err != nil {
		return nil, err
	}

	return append(calls, entity.Call{To: nftManager, Data: mintData}), nil
}

// RedeemCalls unwinds a position: decrease-liquidity with proportional
// slippage floors, optionally collect accrued fees, optionally burn the
// NFT when all liquidity leaves. Swapping the removed pair back into a
// single token is an unimplemented extension point; the caller receives
// both sides.
func (s *UniswapV3AddLiquidity) RedeemCalls(ctx context.Context, p RedeemParams) ([]entity.Call, error) {
	if p.Liquidity == nil || p.Liquidity.TokenID == nil {
		return nil, fmt.Errorf("UniswapV3AddLiquidity: redeem requires the position tokenId and pair: %w", entity.ErrMissingAsset)
	}
	lp := *p.Liquidity

	nftManager, err := s.address(RoleNFTManager)
	if err != nil {
		return nil, err
	}

	removal := lp.Liquidity
	var total *big.Int
	if removal == nil {
		// Liquidity not supplied: read the live position and make sure
		// it actually holds the pair the caller asked for.
		onChainToken0, onChainToken1, onChainLiquidity, err := s.readPosition(ctx, nftManager, lp.TokenID)
		if err != nil {
			return nil, err
		}
		want0, want1 := SortAddresses(lp.Token0, lp.Token1)
		if onChainToken0 != want0 || onChainToken1 != want1 {
			return nil, fmt.Errorf("UniswapV3AddLiquidity: position %s holds %s/%s, requested %s/%s: %w",
				lp.TokenID, onChainToken0.Hex(), onChainToken1.Hex(), want0.Hex(), want1.Hex(), entity.ErrPositionMismatch)
		}
		removal = onChainLiquidity
		total = onChainLiquidity
	}
	if removal.Sign() == 0 {
		return nil, fmt.Errorf("UniswapV3AddLiquidity: position %s has no liquidity to remove", lp.TokenID)
	}

	slippageBps := lp.SlippageBps
	if slippageBps == 0 {
		slippageBps = DefaultSlippageBps
	}
	deadlineSeconds := lp.DeadlineSeconds
	if deadlineSeconds == 0 {
		deadlineSeconds = DefaultDeadlineSeconds
	}
	deadline := big.NewInt(s.now().Unix() + deadlineSeconds)

	decreaseData, err := encodeCall(nftManagerABI, "decreaseLiquidity", decreaseLiquidityParams{
		TokenId:    lp.TokenID,
		Liquidity:  removal,
		Amount0Min: proportionalMin(lp.Amount0Expected, removal, total, slippageBps),
		Amount1Min: proportionalMin(lp.Amount1Expected, removal, total, slippageBps),
		Deadline:   deadline,
	})
	if err != nil {
		return nil, err
	}
	calls := []entity.Call{{To: nftManager, Data: decreaseData}}

	if lp.CollectFees {
		collectData, err := encodeCall(nftManagerABI, "collect", collectParams{
			TokenId:    lp.TokenID,
			Recipient:  p.User,
			Amount0Max: maxUint128,
			Amount1Max: maxUint128,
		})
		if err != nil {
			return nil, err
		}
		calls = append(calls, entity.Call{To: nftManager, Data: collectData})
	}

	// Burn only when everything left the position; a burn with residual
	// liquidity reverts on-chain.
	fullRemoval := total != nil && removal.Cmp(total) == 0
	if lp.BurnNFT && (fullRemoval || total == nil) {
		burnData, err := encodeCall(nftManagerABI, "burn", lp.TokenID)
		if err != nil {
			return nil, err
		}
		calls = append(calls, entity.Call{To: nftManager, Data: burnData})
	}

	return calls, nil
}

// Profit compounds the fixed estimated APY over the days the position
// has been open. Real profit needs on-chain position valuation; this is
// an approximation the product currently accepts.
func (s *UniswapV3AddLiquidity) Profit(_ context.Context, pos entity.Position) (float64, error) {
	days := s.now().Sub(pos.CreatedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	growth := math.Pow(1+liquidityEstimatedAPY/365, days)
	return pos.Amount * (growth - 1), nil
}

// readPosition fetches (token0, token1, liquidity) of a live position.
func (s *UniswapV3AddLiquidity) readPosition(ctx context.Context, nftManager common.Address, tokenID *big.Int) (common.Address, common.Address, *big.Int, error) {
	out, err := s.reader.ReadContract(ctx, s.chainID, nftManager, nftManagerABI, "positions", tokenID)
	if err != nil {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("UniswapV3AddLiquidity: failed to read position %s: %w", tokenID, err)
	}
	token0, err := outAddress(out, 2)
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	token1, err := outAddress(out, 3)
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	liquidity, err := outBigInt(out, 7)
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	return token0, token1, liquidity, nil
}

// applySlippage lowers amount by slippageBps basis points.
func applySlippage(amount *big.Int, slippageBps uint32) *big.Int {
	factor := big.NewInt(int64(10000 - slippageBps))
	return new(big.Int).Div(new(big.Int).Mul(amount, factor), big.NewInt(10000))
}

// proportionalMin scales an expected output by the share of liquidity
// being removed and applies the slippage floor. Without an expectation
// there is nothing to protect against, so the minimum is zero.
func proportionalMin(expected, removal, total *big.Int, slippageBps uint32) *big.Int {
	if expected == nil {
		return big.NewInt(0)
	}
	scaled := expected
	if total != nil && total.Sign() > 0 {
		scaled = new(big.Int).Div(new(big.Int).Mul(expected, removal), total)
	}
	return applySlippage(scaled, slippageBps)
}

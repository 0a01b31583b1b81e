package strategy

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/app/port"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
	"github.com/dynavest/strategy-engine/internal/pkg/utils"
)

// AaveV3Supply lends an ERC-20 asset to the Aave V3 pool. The user
// receives aTokens that accrue interest; redeeming withdraws the whole
// live aToken balance, not the amount the caller passes.
type AaveV3Supply struct {
	base
	reader port.ChainReader
}

// NewAaveV3Supply builds the strategy for one chain. Fails fast with
// ErrUnsupportedChain when Aave is not deployed there.
func NewAaveV3Supply(chainID uint64, reader port.ChainReader) (*AaveV3Supply, error) {
	b, err := newBase("AaveV3Supply", chainID, AaveContracts)
	if err != nil {
		return nil, err
	}
	return &AaveV3Supply{base: b, reader: reader}, nil
}

// InvestCalls returns [approve(asset -> pool), supply(asset, amount, user, 0)].
func (s *AaveV3Supply) InvestCalls(_ context.Context, p InvestParams) ([]entity.Call, error) {
	if p.Asset == nil {
		return nil, fmt.Errorf("AaveV3Supply: %w", entity.ErrMissingAsset)
	}

	pool, err := s.address(RolePool)
	if err != nil {
		return nil, err
	}

	approve, err := approveCall(*p.Asset, pool, p.Amount)
	if err != nil {
		return nil, err
	}

	supplyData, err := encodeCall(aavePoolABI, "supply", *p.Asset, p.Amount, p.User, uint16(0))
	if err != nil {
		return nil, err
	}

	return []entity.Call{
		approve,
		{To: pool, Data: supplyData},
	}, nil
}

// RedeemCalls withdraws the full aToken balance currently held by the
// user. The passed amount is deliberately ignored: aTokens rebase, so
// "everything currently held" is the only redemption the pool supports
// losslessly.
func (s *AaveV3Supply) RedeemCalls(ctx context.Context, p RedeemParams) ([]entity.Call, error) {
	if p.Asset == nil {
		return nil, fmt.Errorf("AaveV3Supply: %w", entity.ErrMissingAsset)
	}

	pool, err := s.address(RolePool)
	if err != nil {
		return nil, err
	}

	balance, err := s.aTokenBalance(ctx, pool, *p.Asset, p.User)
	if err != nil {
		return nil, err
	}

	withdrawData, err := encodeCall(aavePoolABI, "withdraw", *p.Asset, balance, p.User)
	if err != nil {
		return nil, err
	}

	return []entity.Call{{To: pool, Data: withdrawData}}, nil
}

// Profit is the live aToken balance minus the originally invested
// amount, in the position token's units.
func (s *AaveV3Supply) Profit(ctx context.Context, pos entity.Position) (float64, error) {
	token, err := TokenByName(pos.TokenName)
	if err != nil {
		return 0, err
	}
	asset, err := token.AddressOn(s.chainID)
	if err != nil {
		return 0, err
	}
	pool, err := s.address(RolePool)
	if err != nil {
		return 0, err
	}

	balance, err := s.aTokenBalance(ctx, pool, asset, common.HexToAddress(pos.Owner))
	if err != nil {
		return 0, err
	}

	invested := utils.FromFloat(pos.Amount, token.Decimals)
	profit := new(big.Int).Sub(balance, invested)
	return utils.ToFloat(profit, token.Decimals), nil
}

// aTokenBalance resolves the reserve's aToken and reads the user's
// balance on it.
func (s *AaveV3Supply) aTokenBalance(ctx context.Context, pool, asset, user common.Address) (*big.Int, error) {
	out, err := s.reader.ReadContract(ctx, s.chainID, pool, aavePoolABI, "getReserveAToken", asset)
	if err != nil {
		return nil, fmt.Errorf("AaveV3Supply: failed to resolve aToken for %s: %w", asset.Hex(), err)
	}
	aToken, err := outAddress(out, 0)
	if err != nil {
		return nil, err
	}

	out, err = s.reader.ReadContract(ctx, s.chainID, aToken, erc20ABI, "balanceOf", user)
	if err != nil {
		return nil, fmt.Errorf("AaveV3Supply: failed to read aToken balance: %w", err)
	}
	return outBigInt(out, 0)
}

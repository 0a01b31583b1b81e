package strategy

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/app/port"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// wethUSDCMarketID is the only Morpho market the strategy supplies to:
// USDC loan token, WETH collateral, on Base.
var wethUSDCMarketID = common.HexToHash("0x8793cf302b8ffd655ab97bd1c695dbd967807e8367a65cb2f4edaf1380ba1bda")

// morphoMarketParams mirrors the MarketParams tuple of the Morpho Blue
// singleton.
type morphoMarketParams struct {
	LoanToken       common.Address
	CollateralToken common.Address
	Oracle          common.Address
	Irm             common.Address
	Lltv            *big.Int
}

// MorphoSupply supplies an ERC-20 asset to a fixed Morpho Blue market.
type MorphoSupply struct {
	base
	reader port.ChainReader
}

func NewMorphoSupply(chainID uint64, reader port.ChainReader) (*MorphoSupply, error) {
	b, err := newBase("MorphoSupply", chainID, MorphoContracts)
	if err != nil {
		return nil, err
	}
	return &MorphoSupply{base: b, reader: reader}, nil
}

// InvestCalls returns [approve(asset -> morpho), supply(market, amount, 0, user, "")].
func (s *MorphoSupply) InvestCalls(ctx context.Context, p InvestParams) ([]entity.Call, error) {
	if p.Asset == nil {
		return nil, fmt.Errorf("MorphoSupply: %w", entity.ErrMissingAsset)
	}

	morpho, err := s.address(RoleMorpho)
	if err != nil {
		return nil, err
	}
	market, err := s.marketParams(ctx, morpho, wethUSDCMarketID)
	if err != nil {
		return nil, err
	}

	approve, err := approveCall(*p.Asset, morpho, p.Amount)
	if err != nil {
		return nil, err
	}
	supplyData, err := encodeCall(morphoABI, "supply", market, p.Amount, big.NewInt(0), p.User, []byte{})
	if err != nil {
		return nil, err
	}

	return []entity.Call{
		approve,
		{To: morpho, Data: supplyData},
	}, nil
}

// RedeemCalls withdraws the requested asset amount from the market back
// to the user.
func (s *MorphoSupply) RedeemCalls(ctx context.Context, p RedeemParams) ([]entity.Call, error) {
	morpho, err := s.address(RoleMorpho)
	if err != nil {
		return nil, err
	}
	market, err := s.marketParams(ctx, morpho, wethUSDCMarketID)
	if err != nil {
		return nil, err
	}

	withdrawData, err := encodeCall(morphoABI, "withdraw", market, p.Amount, big.NewInt(0), p.User, p.User)
	if err != nil {
		return nil, err
	}

	return []entity.Call{{To: morpho, Data: withdrawData}}, nil
}

// Profit is a linear multiplier stand-in pending real share-price
// accounting against the market's supply index.
func (s *MorphoSupply) Profit(_ context.Context, pos entity.Position) (float64, error) {
	return pos.Amount * 4.75, nil
}

func (s *MorphoSupply) marketParams(ctx context.Context, morpho common.Address, id common.Hash) (morphoMarketParams, error) {
	out, err := s.reader.ReadContract(ctx, s.chainID, morpho, morphoABI, "idToMarketParams", id)
	if err != nil {
		return morphoMarketParams{}, fmt.Errorf("MorphoSupply: failed to read market %s: %w", id.Hex(), err)
	}

	var params morphoMarketParams
	if params.LoanToken, err = outAddress(out, 0); err != nil {
		return morphoMarketParams{}, err
	}
	if params.CollateralToken, err = outAddress(out, 1); err != nil {
		return morphoMarketParams{}, err
	}
	if params.Oracle, err = outAddress(out, 2); err != nil {
		return morphoMarketParams{}, err
	}
	if params.Irm, err = outAddress(out, 3); err != nil {
		return morphoMarketParams{}, err
	}
	if params.Lltv, err = outBigInt(out, 4); err != nil {
		return morphoMarketParams{}, err
	}
	return params, nil
}

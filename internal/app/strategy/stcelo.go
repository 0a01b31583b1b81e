package strategy

import (
	"context"
	"fmt"

	"github.com/dynavest/strategy-engine/internal/app/port"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// stCeloProfitRate is a stubbed linear multiplier, not a real exchange
// rate; accurate profit needs the manager's CELO/stCELO ratio.
const stCeloProfitRate = 0.045

// StCeloStaking stakes native CELO into the stCELO manager. It is the
// one native-only strategy: passing an ERC-20 asset is a caller error.
type StCeloStaking struct {
	base
	reader port.ChainReader
}

func NewStCeloStaking(chainID uint64, reader port.ChainReader) (*StCeloStaking, error) {
	b, err := newBase("StCeloStaking", chainID, StCeloContracts)
	if err != nil {
		return nil, err
	}
	return &StCeloStaking{base: b, reader: reader}, nil
}

// InvestCalls stakes by calling deposit() on the manager with the
// amount attached as call value.
func (s *StCeloStaking) InvestCalls(_ context.Context, p InvestParams) ([]entity.Call, error) {
	if p.Asset != nil {
		return nil, fmt.Errorf("StCeloStaking: native-only strategy invoked with an ERC-20 asset: %w", entity.ErrMissingAsset)
	}

	manager, err := s.address(RoleManager)
	if err != nil {
		return nil, err
	}
	depositData, err := encodeCall(stCeloManagerABI, "deposit")
	if err != nil {
		return nil, err
	}

	return []entity.Call{{To: manager, Data: depositData, Value: p.Amount}}, nil
}

// RedeemCalls unstakes the user's full live stCELO balance through the
// manager.
func (s *StCeloStaking) RedeemCalls(ctx context.Context, p RedeemParams) ([]entity.Call, error) {
	if p.Asset != nil {
		return nil, fmt.Errorf("StCeloStaking: native-only strategy invoked with an ERC-20 asset: %w", entity.ErrMissingAsset)
	}

	manager, err := s.address(RoleManager)
	if err != nil {
		return nil, err
	}

	stCelo, err := TokenByName("stCELO")
	if err != nil {
		return nil, err
	}
	stCeloAddr, err := stCelo.AddressOn(s.chainID)
	if err != nil {
		return nil, err
	}

	out, err := s.reader.ReadContract(ctx, s.chainID, stCeloAddr, erc20ABI, "balanceOf", p.User)
	if err != nil {
		return nil, fmt.Errorf("StCeloStaking: failed to read stCELO balance: %w", err)
	}
	balance, err := outBigInt(out, 0)
	if err != nil {
		return nil, err
	}

	withdrawData, err := encodeCall(stCeloManagerABI, "withdraw", balance)
	if err != nil {
		return nil, err
	}

	return []entity.Call{{To: manager, Data: withdrawData}}, nil
}

// Profit applies the stubbed linear rate to the recorded amount.
func (s *StCeloStaking) Profit(_ context.Context, pos entity.Position) (float64, error) {
	return pos.Amount * stCeloProfitRate, nil
}

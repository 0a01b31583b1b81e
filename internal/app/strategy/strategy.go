package strategy

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// InvestParams are the inputs of one invest call build. Asset is nil
// for native-token strategies. Liquidity is only consulted by the
// concentrated-liquidity strategy.
type InvestParams struct {
	Amount    *big.Int
	User      common.Address
	Asset     *common.Address
	Liquidity *LiquidityInvestParams
}

// RedeemParams are the inputs of one redeem call build.
type RedeemParams struct {
	Amount    *big.Int
	User      common.Address
	Asset     *common.Address
	Liquidity *LiquidityRedeemParams
}

// Strategy turns an amount and user into an ordered batch of on-chain
// calls for one protocol on one chain, and reports profit for a
// position it owns. Implementations are bound to a single chain id at
// construction and are immutable afterwards; chain validation happens
// once, in the constructor, never per call.
type Strategy interface {
	Name() string
	ChainID() uint64
	InvestCalls(ctx context.Context, p InvestParams) ([]entity.Call, error)
	RedeemCalls(ctx context.Context, p RedeemParams) ([]entity.Call, error)
	Profit(ctx context.Context, pos entity.Position) (float64, error)
}

// base carries the identity and contract table shared by all strategy
// implementations.
type base struct {
	name      string
	chainID   uint64
	contracts Contracts
}

func newBase(name string, chainID uint64, contracts Contracts) (base, error) {
	if !contracts.IsChainSupported(chainID) {
		return base{}, fmt.Errorf("%s: chain %d: %w", name, chainID, entity.ErrUnsupportedChain)
	}
	return base{name: name, chainID: chainID, contracts: contracts}, nil
}

func (b base) Name() string    { return b.name }
func (b base) ChainID() uint64 { return b.chainID }

func (b base) address(role string) (common.Address, error) {
	return b.contracts.Address(b.chainID, role)
}

// encodeCall packs a method call against the given ABI into calldata.
func encodeCall(contractABI abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	return data, nil
}

// approveCall builds the ERC-20 approve that must precede any call
// spending the allowance.
func approveCall(token, spender common.Address, amount *big.Int) (entity.Call, error) {
	data, err := encodeCall(erc20ABI, "approve", spender, amount)
	if err != nil {
		return entity.Call{}, err
	}
	return entity.Call{To: token, Data: data}, nil
}

// TransferCall builds a plain ERC-20 transfer. Exported for the fee
// layer, which routes the platform fee with it.
func TransferCall(token, to common.Address, amount *big.Int) (entity.Call, error) {
	data, err := encodeCall(erc20ABI, "transfer", to, amount)
	if err != nil {
		return entity.Call{}, err
	}
	return entity.Call{To: token, Data: data}, nil
}

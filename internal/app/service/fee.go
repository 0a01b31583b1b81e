package service

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/app/strategy"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// DefaultFeeBps is the platform fee taken from every invest and redeem:
// 10 basis points, 0.1%.
const DefaultFeeBps = 10

// FeeCalculator splits gross amounts into platform fee and net amount
// and builds the fee-transfer call appended to every batch.
type FeeCalculator struct {
	bps  int64
	sink common.Address
}

func NewFeeCalculator(bps int64, sink common.Address) *FeeCalculator {
	if bps <= 0 {
		bps = DefaultFeeBps
	}
	return &FeeCalculator{bps: bps, sink: sink}
}

// CalculateFee derives the fee by basis points. Fee + NetAmount equals
// the gross amount exactly; the strategy only ever sees NetAmount.
func (f *FeeCalculator) CalculateFee(gross *big.Int) entity.FeeResult {
	fee := new(big.Int).Div(new(big.Int).Mul(gross, big.NewInt(f.bps)), big.NewInt(10000))
	net := new(big.Int).Sub(gross, fee)
	return entity.FeeResult{Fee: fee, NetAmount: net}
}

// BuildFeeCall routes the fee to the platform sink: a plain value
// transfer for native tokens, an ERC-20 transfer otherwise. The call
// must be the last element of the batch — earlier calls spend only the
// net amount, so the fee is still in the wallet when it runs.
func (f *FeeCalculator) BuildFeeCall(tokenAddress common.Address, isNative bool, fee *big.Int) (entity.Call, error) {
	if isNative {
		return entity.Call{To: f.sink, Value: fee}, nil
	}
	return strategy.TransferCall(tokenAddress, f.sink, fee)
}

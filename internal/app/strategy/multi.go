package strategy

import (
	"context"
	"fmt"
	"math/big"

	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// Allocation pairs a member strategy with its integer percentage of the
// input amount.
type Allocation struct {
	Strategy Strategy
	Percent  int
}

// MultiStrategy composes several weighted strategies into one unit. The
// input amount is split by integer percentage per member (fractional
// remainders are dropped) and the members' calls are concatenated in
// member order.
//
// Allocations do not have to sum to 100: sums below 100 deploy only
// part of the input, which is allowed. Sums above 100 would spend more
// than the caller provided and are rejected at construction.
type MultiStrategy struct {
	members []Allocation
}

func NewMultiStrategy(members []Allocation) (*MultiStrategy, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("multi strategy needs at least one member")
	}
	sum := 0
	for _, m := range members {
		if m.Strategy == nil {
			return nil, fmt.Errorf("multi strategy member has nil strategy")
		}
		if m.Percent < 0 || m.Percent > 100 {
			return nil, fmt.Errorf("allocation %d%% for %s out of range [0, 100]", m.Percent, m.Strategy.Name())
		}
		sum += m.Percent
	}
	if sum > 100 {
		return nil, fmt.Errorf("allocations sum to %d%%, cannot exceed 100%%", sum)
	}
	return &MultiStrategy{members: members}, nil
}

// Members returns the composed allocations in order.
func (m *MultiStrategy) Members() []Allocation {
	return m.members
}

// HasLiquidityMint reports whether any member needs swap-route
// parameters before calls can be built. Capability query only; it does
// not change behavior.
func (m *MultiStrategy) HasLiquidityMint() bool {
	for _, member := range m.members {
		if _, ok := member.Strategy.(*UniswapV3AddLiquidity); ok {
			return true
		}
	}
	return false
}

// InvestCalls forwards each member its integer share of the amount and
// concatenates the resulting calls in member order.
func (m *MultiStrategy) InvestCalls(ctx context.Context, p InvestParams) ([]entity.Call, error) {
	var all []entity.Call
	for _, member := range m.members {
		memberParams := p
		memberParams.Amount = SplitAmount(p.Amount, member.Percent)
		calls, err := member.Strategy.InvestCalls(ctx, memberParams)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", member.Strategy.Name(), err)
		}
		all = append(all, calls...)
	}
	return all, nil
}

// RedeemCalls mirrors InvestCalls for redemption.
func (m *MultiStrategy) RedeemCalls(ctx context.Context, p RedeemParams) ([]entity.Call, error) {
	var all []entity.Call
	for _, member := range m.members {
		memberParams := p
		memberParams.Amount = SplitAmount(p.Amount, member.Percent)
		calls, err := member.Strategy.RedeemCalls(ctx, memberParams)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", member.Strategy.Name(), err)
		}
		all = append(all, calls...)
	}
	return all, nil
}

// SplitAmount is amount x percent / 100 in integer arithmetic. The
// dropped remainder is dust the caller keeps.
func SplitAmount(amount *big.Int, percent int) *big.Int {
	return new(big.Int).Div(new(big.Int).Mul(amount, big.NewInt(int64(percent))), big.NewInt(100))
}

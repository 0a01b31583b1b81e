package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/dynavest/strategy-engine/internal/app/port"
	"github.com/dynavest/strategy-engine/internal/app/strategy"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
	"github.com/dynavest/strategy-engine/internal/pkg/metrics"
	"github.com/dynavest/strategy-engine/internal/pkg/utils"
)

// InvestRequest describes one invest into a single protocol.
type InvestRequest struct {
	Protocol  string
	ChainID   uint64
	TokenName string
	Amount    *big.Int
	User      common.Address
	Liquidity *strategy.LiquidityInvestParams
}

// RedeemRequest describes one redeem out of a single protocol.
type RedeemRequest struct {
	Protocol   string
	ChainID    uint64
	TokenName  string
	Amount     *big.Int
	User       common.Address
	PositionID string
	Liquidity  *strategy.LiquidityRedeemParams
}

// ProtocolAllocation is one member of a multi-protocol invest.
type ProtocolAllocation struct {
	Protocol string
	Percent  int
}

// MultiInvestRequest splits one amount across several protocols on the
// same chain.
type MultiInvestRequest struct {
	Allocations []ProtocolAllocation
	ChainID     uint64
	TokenName   string
	Amount      *big.Int
	User        common.Address
	Liquidity   *strategy.LiquidityInvestParams
}

// PositionProfit pairs a stored position with its current profit.
type PositionProfit struct {
	Position entity.Position `json:"position"`
	Profit   float64         `json:"profit"`
}

// Executor drives the full invest/redeem control flow: registry lookup,
// fee split, call building, atomic submission and position
// reconciliation. Call building itself is pure given its inputs; every
// suspension point sits behind a port.
type Executor struct {
	deps       strategy.Deps
	fees       *FeeCalculator
	accounting *PositionAccounting
	submitter  port.TransactionSubmitter
	logger     port.Logger
}

func NewExecutor(deps strategy.Deps, fees *FeeCalculator, accounting *PositionAccounting, submitter port.TransactionSubmitter, logger port.Logger) *Executor {
	return &Executor{
		deps:       deps,
		fees:       fees,
		accounting: accounting,
		submitter:  submitter,
		logger:     logger,
	}
}

// Invest builds and submits one invest batch, then records the net
// amount into the user's position. Returns the transaction hash.
func (e *Executor) Invest(ctx context.Context, req InvestRequest) (string, error) {
	started := time.Now()

	strat, err := strategy.New(req.Protocol, req.ChainID, e.deps)
	if err != nil {
		return e.fail("invest", err)
	}
	token, asset, err := e.resolveToken(req.TokenName, req.ChainID)
	if err != nil {
		return e.fail("invest", err)
	}

	feeRes := e.fees.CalculateFee(req.Amount)
	calls, err := strat.InvestCalls(ctx, strategy.InvestParams{
		Amount:    feeRes.NetAmount,
		User:      req.User,
		Asset:     asset,
		Liquidity: req.Liquidity,
	})
	if err != nil {
		return e.fail("invest", err)
	}
	calls, err = e.appendFeeCall(calls, token, req.ChainID, feeRes.Fee, strat.Name(), "invest")
	if err != nil {
		return e.fail("invest", err)
	}

	txHash, err := e.submitter.Submit(ctx, req.ChainID, calls)
	if err != nil {
		return e.fail("invest", fmt.Errorf("submission failed: %w", err))
	}

	netHuman := utils.ToFloat(feeRes.NetAmount, token.Decimals)
	if _, err := e.accounting.ReconcileInvest(ctx, req.User.Hex(), strat.Name(), req.ChainID, token.Name, netHuman, nil); err != nil {
		// The batch already landed; reconciliation failure must surface
		// but cannot undo the chain state.
		e.logger.Error("Invest submitted but position reconciliation failed",
			"tx_hash", txHash, "user", req.User.Hex(), "error", err)
		return txHash, err
	}

	e.observe("invest", started)
	e.logger.Info("Invest executed",
		"protocol", strat.Name(), "chain_id", req.ChainID, "token", token.Name,
		"net_amount", netHuman, "tx_hash", txHash)
	return txHash, nil
}

// Redeem builds and submits one redeem batch and closes the position.
func (e *Executor) Redeem(ctx context.Context, req RedeemRequest) (string, error) {
	started := time.Now()

	strat, err := strategy.New(req.Protocol, req.ChainID, e.deps)
	if err != nil {
		return e.fail("redeem", err)
	}
	token, asset, err := e.resolveToken(req.TokenName, req.ChainID)
	if err != nil {
		return e.fail("redeem", err)
	}

	feeRes := e.fees.CalculateFee(req.Amount)
	calls, err := strat.RedeemCalls(ctx, strategy.RedeemParams{
		Amount:    feeRes.NetAmount,
		User:      req.User,
		Asset:     asset,
		Liquidity: req.Liquidity,
	})
	if err != nil {
		return e.fail("redeem", err)
	}
	calls, err = e.appendFeeCall(calls, token, req.ChainID, feeRes.Fee, strat.Name(), "redeem")
	if err != nil {
		return e.fail("redeem", err)
	}

	txHash, err := e.submitter.Submit(ctx, req.ChainID, calls)
	if err != nil {
		return e.fail("redeem", fmt.Errorf("submission failed: %w", err))
	}

	if err := e.accounting.ReconcileRedeem(ctx, req.User.Hex(), req.PositionID); err != nil {
		e.logger.Error("Redeem submitted but position reconciliation failed",
			"tx_hash", txHash, "position_id", req.PositionID, "error", err)
		return txHash, err
	}

	e.observe("redeem", started)
	e.logger.Info("Redeem executed",
		"protocol", strat.Name(), "chain_id", req.ChainID, "position_id", req.PositionID, "tx_hash", txHash)
	return txHash, nil
}

// MultiInvest splits one amount across several protocols by percentage
// allocation, submits the concatenated batch and records one position
// per member.
func (e *Executor) MultiInvest(ctx context.Context, req MultiInvestRequest) (string, error) {
	started := time.Now()

	members := make([]strategy.Allocation, 0, len(req.Allocations))
	for _, alloc := range req.Allocations {
		strat, err := strategy.New(alloc.Protocol, req.ChainID, e.deps)
		if err != nil {
			return e.fail("multi_invest", err)
		}
		members = append(members, strategy.Allocation{Strategy: strat, Percent: alloc.Percent})
	}
	multi, err := strategy.NewMultiStrategy(members)
	if err != nil {
		return e.fail("multi_invest", err)
	}
	if multi.HasLiquidityMint() && req.Liquidity == nil {
		return e.fail("multi_invest", fmt.Errorf("multi strategy contains a liquidity mint, swap parameters are required: %w", entity.ErrMissingAsset))
	}

	token, asset, err := e.resolveToken(req.TokenName, req.ChainID)
	if err != nil {
		return e.fail("multi_invest", err)
	}

	feeRes := e.fees.CalculateFee(req.Amount)
	calls, err := multi.InvestCalls(ctx, strategy.InvestParams{
		Amount:    feeRes.NetAmount,
		User:      req.User,
		Asset:     asset,
		Liquidity: req.Liquidity,
	})
	if err != nil {
		return e.fail("multi_invest", err)
	}
	calls, err = e.appendFeeCall(calls, token, req.ChainID, feeRes.Fee, "MultiStrategy", "invest")
	if err != nil {
		return e.fail("multi_invest", err)
	}

	txHash, err := e.submitter.Submit(ctx, req.ChainID, calls)
	if err != nil {
		return e.fail("multi_invest", fmt.Errorf("submission failed: %w", err))
	}

	// One position per member, each holding its integer share of the
	// net amount.
	for _, member := range multi.Members() {
		share := strategy.SplitAmount(feeRes.NetAmount, member.Percent)
		shareHuman := utils.ToFloat(share, token.Decimals)
		if _, err := e.accounting.ReconcileInvest(ctx, req.User.Hex(), member.Strategy.Name(), req.ChainID, token.Name, shareHuman, nil); err != nil {
			e.logger.Error("Multi invest submitted but member reconciliation failed",
				"tx_hash", txHash, "strategy", member.Strategy.Name(), "error", err)
			return txHash, err
		}
	}

	e.observe("multi_invest", started)
	e.logger.Info("Multi invest executed",
		"members", len(req.Allocations), "chain_id", req.ChainID, "token", token.Name, "tx_hash", txHash)
	return txHash, nil
}

// ProfitByOwner computes the current profit of every open position the
// owner holds, fanning out across positions concurrently.
func (e *Executor) ProfitByOwner(ctx context.Context, owner string) ([]PositionProfit, error) {
	positions, err := e.accounting.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions for %s: %w", owner, err)
	}

	var (
		mu      sync.Mutex
		profits []PositionProfit
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, pos := range positions {
		if !pos.IsOpen() {
			continue
		}
		g.Go(func() error {
			strat, err := strategy.New(pos.Strategy, pos.ChainID, e.deps)
			if err != nil {
				return fmt.Errorf("position %s: %w", pos.ID, err)
			}
			profit, err := e.accounting.GetProfit(gctx, strat, pos)
			if err != nil {
				return fmt.Errorf("position %s: %w", pos.ID, err)
			}
			mu.Lock()
			profits = append(profits, PositionProfit{Position: pos, Profit: profit})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profits, nil
}

// resolveToken looks up the token and its chain address. Native tokens
// resolve to a nil asset pointer.
func (e *Executor) resolveToken(name string, chainID uint64) (entity.Token, *common.Address, error) {
	token, err := strategy.TokenByName(name)
	if err != nil {
		return entity.Token{}, nil, err
	}
	if token.IsNative {
		return token, nil, nil
	}
	addr, err := token.AddressOn(chainID)
	if err != nil {
		return entity.Token{}, nil, err
	}
	return token, &addr, nil
}

// appendFeeCall enforces the two batch invariants: a batch is never
// empty, and the fee transfer is always its last element.
func (e *Executor) appendFeeCall(calls []entity.Call, token entity.Token, chainID uint64, fee *big.Int, protocol, operation string) ([]entity.Call, error) {
	if len(calls) == 0 {
		return nil, fmt.Errorf("%s %s on chain %d: %w", protocol, operation, chainID, entity.ErrNoCalls)
	}

	var tokenAddr common.Address
	if !token.IsNative {
		addr, err := token.AddressOn(chainID)
		if err != nil {
			return nil, err
		}
		tokenAddr = addr
	}
	feeCall, err := e.fees.BuildFeeCall(tokenAddr, token.IsNative, fee)
	if err != nil {
		return nil, err
	}

	metrics.CallsBuilt.WithLabelValues(protocol, operation).Add(float64(len(calls) + 1))
	return append(calls, feeCall), nil
}

func (e *Executor) fail(operation string, err error) (string, error) {
	metrics.ExecutionsTotal.WithLabelValues(operation, "error").Inc()
	return "", err
}

func (e *Executor) observe(operation string, started time.Time) {
	metrics.ExecutionsTotal.WithLabelValues(operation, "success").Inc()
	metrics.ExecutionDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dynavest/strategy-engine/internal/app/port"
	"github.com/dynavest/strategy-engine/internal/app/strategy"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// PositionAccounting reconciles stored positions against executed
// invests and redeems and answers profit queries by dispatching to the
// owning strategy. Storage itself lives behind the PositionStore port;
// this layer only computes the values written into it.
type PositionAccounting struct {
	store  port.PositionStore
	logger port.Logger
}

func NewPositionAccounting(store port.PositionStore, logger port.Logger) *PositionAccounting {
	return &PositionAccounting{store: store, logger: logger}
}

// GetProfit asks the strategy owning the position for its current
// profit, in the position token's human units.
func (a *PositionAccounting) GetProfit(ctx context.Context, strat strategy.Strategy, pos entity.Position) (float64, error) {
	return strat.Profit(ctx, pos)
}

// ReconcileInvest records a successful invest of netAmount (human
// units, fee already deducted). An open position for the same
// (owner, strategy, chain) tuple accumulates; otherwise a new one is
// created.
func (a *PositionAccounting) ReconcileInvest(ctx context.Context, owner, strategyName string, chainID uint64, tokenName string, netAmount float64, meta *entity.PositionMetadata) (entity.Position, error) {
	positions, err := a.store.ListByOwner(ctx, owner)
	if err != nil {
		return entity.Position{}, fmt.Errorf("failed to list positions for %s: %w", owner, err)
	}

	for _, pos := range positions {
		if pos.Strategy == strategyName && pos.ChainID == chainID && pos.IsOpen() {
			newAmount := pos.Amount + netAmount
			if err := a.store.UpdateAmount(ctx, pos.ID, newAmount); err != nil {
				return entity.Position{}, fmt.Errorf("failed to update position %s: %w", pos.ID, err)
			}
			a.logger.Debug("Accumulated invest into open position",
				"position_id", pos.ID, "strategy", strategyName, "chain_id", chainID, "amount", newAmount)
			pos.Amount = newAmount
			return pos, nil
		}
	}

	created, err := a.store.Create(ctx, entity.Position{
		Owner:     owner,
		Strategy:  strategyName,
		TokenName: tokenName,
		ChainID:   chainID,
		Amount:    netAmount,
		Status:    entity.PositionOpen,
		CreatedAt: time.Now().UTC(),
		Metadata:  meta,
	})
	if err != nil {
		return entity.Position{}, fmt.Errorf("failed to create position for %s: %w", owner, err)
	}
	a.logger.Debug("Created position",
		"position_id", created.ID, "strategy", strategyName, "chain_id", chainID, "amount", netAmount)
	return created, nil
}

// ReconcileRedeem closes the position after a successful full redeem.
// The record is kept with closed status, never deleted. Redeeming a
// missing or already closed position is an error.
func (a *PositionAccounting) ReconcileRedeem(ctx context.Context, owner, positionID string) error {
	positions, err := a.store.ListByOwner(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to list positions for %s: %w", owner, err)
	}

	for _, pos := range positions {
		if pos.ID != positionID {
			continue
		}
		if !pos.IsOpen() {
			return fmt.Errorf("position %s: %w", positionID, entity.ErrPositionClosed)
		}
		if err := a.store.Close(ctx, positionID); err != nil {
			return fmt.Errorf("failed to close position %s: %w", positionID, err)
		}
		a.logger.Debug("Closed position", "position_id", positionID, "owner", owner)
		return nil
	}
	return fmt.Errorf("position %s for %s: %w", positionID, owner, entity.ErrPositionNotFound)
}

package service

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/app/strategy"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

var user = common.HexToAddress("0x1111111111111111111111111111111111111111")

func morphoReader() *fakeReader {
	return &fakeReader{outputs: map[string][]interface{}{
		"idToMarketParams": {
			common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
			common.HexToAddress("0x4200000000000000000000000000000000000006"),
			common.HexToAddress("0x4444444444444444444444444444444444444444"),
			common.HexToAddress("0x5555555555555555555555555555555555555555"),
			big.NewInt(860000000000000000),
		},
	}}
}

func newTestExecutor(store *fakeStore, submitter *fakeSubmitter, reader *fakeReader) *Executor {
	deps := strategy.Deps{Reader: reader}
	fees := NewFeeCalculator(10, feeSink)
	accounting := NewPositionAccounting(store, nopLogger{})
	return NewExecutor(deps, fees, accounting, submitter, nopLogger{})
}

func TestInvestAppendsFeeCallLast(t *testing.T) {
	store := newFakeStore()
	submitter := &fakeSubmitter{}
	e := newTestExecutor(store, submitter, &fakeReader{})

	txHash, err := e.Invest(context.Background(), InvestRequest{
		Protocol:  strategy.ProtocolAaveV3Supply,
		ChainID:   8453,
		TokenName: "USDC",
		Amount:    big.NewInt(1_000_000),
		User:      user,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txHash != "0xhash" {
		t.Errorf("expected tx hash from submitter, got %s", txHash)
	}

	// approve + supply + fee transfer
	if len(submitter.calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(submitter.calls))
	}

	usdc := common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	expectedFee, err := strategy.TransferCall(usdc, feeSink, big.NewInt(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := submitter.calls[len(submitter.calls)-1]
	if last.To != usdc || !bytes.Equal(last.Data, expectedFee.Data) {
		t.Error("last call is not the 10 bps fee transfer")
	}

	// The recorded position holds the net amount in human units.
	if len(store.positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(store.positions))
	}
	if store.positions[0].Amount != 0.999 {
		t.Errorf("expected recorded amount 0.999, got %v", store.positions[0].Amount)
	}
}

func TestInvestSubmitFailureCreatesNoPosition(t *testing.T) {
	store := newFakeStore()
	submitter := &fakeSubmitter{err: errors.New("relay down")}
	e := newTestExecutor(store, submitter, &fakeReader{})

	_, err := e.Invest(context.Background(), InvestRequest{
		Protocol:  strategy.ProtocolAaveV3Supply,
		ChainID:   8453,
		TokenName: "USDC",
		Amount:    big.NewInt(1_000_000),
		User:      user,
	})
	if err == nil {
		t.Fatal("expected submission error")
	}
	if len(store.positions) != 0 {
		t.Error("failed submission must not record a position")
	}
}

func TestRedeemClosesPositionAndAppendsFee(t *testing.T) {
	store := newFakeStore(entity.Position{
		ID:       "pos-1",
		Owner:    user.Hex(),
		Strategy: "AaveV3Supply",
		ChainID:  8453,
		Status:   entity.PositionOpen,
	})
	submitter := &fakeSubmitter{}
	reader := &fakeReader{outputs: map[string][]interface{}{
		"getReserveAToken": {common.HexToAddress("0x3333333333333333333333333333333333333333")},
		"balanceOf":        {big.NewInt(2_000_000)},
	}}
	e := newTestExecutor(store, submitter, reader)

	_, err := e.Redeem(context.Background(), RedeemRequest{
		Protocol:   strategy.ProtocolAaveV3Supply,
		ChainID:    8453,
		TokenName:  "USDC",
		Amount:     big.NewInt(1_000_000),
		User:       user,
		PositionID: "pos-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// withdraw + fee transfer
	if len(submitter.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(submitter.calls))
	}
	if len(store.closed) != 1 || store.closed[0] != "pos-1" {
		t.Errorf("expected pos-1 closed, got %v", store.closed)
	}
}

func TestMultiInvestRecordsOnePositionPerMember(t *testing.T) {
	store := newFakeStore()
	submitter := &fakeSubmitter{}
	e := newTestExecutor(store, submitter, morphoReader())

	_, err := e.MultiInvest(context.Background(), MultiInvestRequest{
		Allocations: []ProtocolAllocation{
			{Protocol: strategy.ProtocolAaveV3Supply, Percent: 30},
			{Protocol: strategy.ProtocolMorphoSupply, Percent: 70},
		},
		ChainID:   8453,
		TokenName: "USDC",
		Amount:    big.NewInt(1_000_000),
		User:      user,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (approve+supply) x2 members + fee transfer
	if len(submitter.calls) != 5 {
		t.Fatalf("expected 5 calls, got %d", len(submitter.calls))
	}

	if len(store.positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(store.positions))
	}
	// Shares split the net amount 999000: 30% -> 299700, 70% -> 699300.
	if store.positions[0].Amount != 0.2997 {
		t.Errorf("expected first share 0.2997, got %v", store.positions[0].Amount)
	}
	if store.positions[1].Amount != 0.6993 {
		t.Errorf("expected second share 0.6993, got %v", store.positions[1].Amount)
	}
}

func TestMultiInvestRejectsOverAllocation(t *testing.T) {
	e := newTestExecutor(newFakeStore(), &fakeSubmitter{}, morphoReader())

	_, err := e.MultiInvest(context.Background(), MultiInvestRequest{
		Allocations: []ProtocolAllocation{
			{Protocol: strategy.ProtocolAaveV3Supply, Percent: 60},
			{Protocol: strategy.ProtocolMorphoSupply, Percent: 70},
		},
		ChainID:   8453,
		TokenName: "USDC",
		Amount:    big.NewInt(1_000_000),
		User:      user,
	})
	if err == nil {
		t.Fatal("expected error for allocations above 100%")
	}
}

func TestAppendFeeCallRejectsEmptyBatch(t *testing.T) {
	e := newTestExecutor(newFakeStore(), &fakeSubmitter{}, &fakeReader{})

	token, err := strategy.TokenByName("USDC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.appendFeeCall(nil, token, 8453, big.NewInt(1000), "AaveV3Supply", "invest"); !errors.Is(err, entity.ErrNoCalls) {
		t.Errorf("expected ErrNoCalls, got %v", err)
	}
}

func TestProfitByOwnerSkipsClosedPositions(t *testing.T) {
	store := newFakeStore(
		entity.Position{ID: "pos-1", Owner: user.Hex(), Strategy: "MorphoSupply", ChainID: 8453, Amount: 100, Status: entity.PositionOpen},
		entity.Position{ID: "pos-2", Owner: user.Hex(), Strategy: "MorphoSupply", ChainID: 8453, Amount: 50, Status: entity.PositionClosed},
	)
	e := newTestExecutor(store, &fakeSubmitter{}, morphoReader())

	profits, err := e.ProfitByOwner(context.Background(), user.Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profits) != 1 {
		t.Fatalf("expected 1 profit entry, got %d", len(profits))
	}
	if profits[0].Position.ID != "pos-1" {
		t.Errorf("expected pos-1, got %s", profits[0].Position.ID)
	}
	if profits[0].Profit != 475 {
		t.Errorf("expected profit 475, got %v", profits[0].Profit)
	}
}

package strategy

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

func TestAaveInvestCallOrdering(t *testing.T) {
	s, err := NewAaveV3Supply(8453, &fakeReader{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	asset := addrOf("USDC", 8453)
	user := common.HexToAddress("0x1111111111111111111111111111111111111111")
	amount := big.NewInt(1_000_000)

	calls, err := s.InvestCalls(context.Background(), InvestParams{Amount: amount, User: user, Asset: &asset})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}

	pool, _ := AaveContracts.Address(8453, RolePool)
	if calls[0].To != asset {
		t.Errorf("first call: expected token %s, got %s", asset.Hex(), calls[0].To.Hex())
	}
	if !bytes.Equal(calls[0].Data, mustEncode(erc20ABI, "approve", pool, amount)) {
		t.Error("first call is not approve(pool, amount)")
	}
	if calls[1].To != pool {
		t.Errorf("second call: expected pool %s, got %s", pool.Hex(), calls[1].To.Hex())
	}
	if !bytes.Equal(calls[1].Data, mustEncode(aavePoolABI, "supply", asset, amount, user, uint16(0))) {
		t.Error("second call is not supply(asset, amount, user, 0)")
	}
}

func TestAaveInvestRequiresAsset(t *testing.T) {
	s, err := NewAaveV3Supply(8453, &fakeReader{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.InvestCalls(context.Background(), InvestParams{Amount: big.NewInt(1)}); !errors.Is(err, entity.ErrMissingAsset) {
		t.Errorf("expected ErrMissingAsset, got %v", err)
	}
}

func TestAaveRedeemWithdrawsLiveBalance(t *testing.T) {
	asset := addrOf("USDC", 8453)
	user := common.HexToAddress("0x2222222222222222222222222222222222222222")
	aToken := common.HexToAddress("0x3333333333333333333333333333333333333333")
	liveBalance := big.NewInt(5_250_000)

	reader := &fakeReader{outputs: map[string][]interface{}{
		"getReserveAToken": {aToken},
		"balanceOf":        {liveBalance},
	}}
	s, err := NewAaveV3Supply(8453, reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The requested amount must be ignored in favor of the live balance.
	calls, err := s.RedeemCalls(context.Background(), RedeemParams{
		Amount: big.NewInt(1_000_000),
		User:   user,
		Asset:  &asset,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if !bytes.Equal(calls[0].Data, mustEncode(aavePoolABI, "withdraw", asset, liveBalance, user)) {
		t.Error("withdraw does not use the live aToken balance")
	}
}

func TestAaveProfitIsBalanceMinusInvested(t *testing.T) {
	aToken := common.HexToAddress("0x3333333333333333333333333333333333333333")
	reader := &fakeReader{outputs: map[string][]interface{}{
		"getReserveAToken": {aToken},
		"balanceOf":        {big.NewInt(1_500_000)}, // 1.5 USDC
	}}
	s, err := NewAaveV3Supply(8453, reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	profit, err := s.Profit(context.Background(), entity.Position{
		Owner:     "0x2222222222222222222222222222222222222222",
		TokenName: "USDC",
		Amount:    1.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profit != 0.5 {
		t.Errorf("expected profit 0.5, got %v", profit)
	}
}

func TestAaveUnsupportedChain(t *testing.T) {
	if _, err := NewAaveV3Supply(999, &fakeReader{}); !errors.Is(err, entity.ErrUnsupportedChain) {
		t.Errorf("expected ErrUnsupportedChain, got %v", err)
	}
}

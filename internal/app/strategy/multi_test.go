package strategy

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSplitAmount(t *testing.T) {
	cases := []struct {
		amount   int64
		percent  int
		expected int64
	}{
		{1000, 30, 300},
		{1000, 70, 700},
		{99, 33, 32}, // remainder dropped
		{100, 0, 0},
		{1, 100, 1},
	}
	for _, c := range cases {
		got := SplitAmount(big.NewInt(c.amount), c.percent)
		if got.Int64() != c.expected {
			t.Errorf("SplitAmount(%d, %d): expected %d, got %s", c.amount, c.percent, c.expected, got)
		}
	}
}

func TestNewMultiStrategyValidation(t *testing.T) {
	if _, err := NewMultiStrategy(nil); err == nil {
		t.Error("expected error for empty member list")
	}

	if _, err := NewMultiStrategy([]Allocation{
		{Strategy: &stubStrategy{name: "a"}, Percent: 101},
	}); err == nil {
		t.Error("expected error for percent above 100")
	}

	if _, err := NewMultiStrategy([]Allocation{
		{Strategy: &stubStrategy{name: "a"}, Percent: -1},
	}); err == nil {
		t.Error("expected error for negative percent")
	}

	if _, err := NewMultiStrategy([]Allocation{
		{Strategy: &stubStrategy{name: "a"}, Percent: 60},
		{Strategy: &stubStrategy{name: "b"}, Percent: 70},
	}); err == nil {
		t.Error("expected error for allocations summing above 100")
	}

	// Partial deployment is allowed.
	if _, err := NewMultiStrategy([]Allocation{
		{Strategy: &stubStrategy{name: "a"}, Percent: 30},
		{Strategy: &stubStrategy{name: "b"}, Percent: 60},
	}); err != nil {
		t.Errorf("expected sum below 100 to be accepted, got %v", err)
	}
}

func TestMultiStrategyInvestSplitsAndConcatenates(t *testing.T) {
	a := &stubStrategy{name: "a"}
	b := &stubStrategy{name: "b"}
	multi, err := NewMultiStrategy([]Allocation{
		{Strategy: a, Percent: 30},
		{Strategy: b, Percent: 70},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls, err := multi.InvestCalls(context.Background(), InvestParams{
		Amount: big.NewInt(1000),
		User:   common.HexToAddress("0xAb"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if !bytes.Equal(calls[0].Data, []byte("a")) || !bytes.Equal(calls[1].Data, []byte("b")) {
		t.Error("calls not concatenated in member order")
	}
	if a.investAmounts[0].Int64() != 300 {
		t.Errorf("member a: expected 300, got %s", a.investAmounts[0])
	}
	if b.investAmounts[0].Int64() != 700 {
		t.Errorf("member b: expected 700, got %s", b.investAmounts[0])
	}
}

func TestMultiStrategyMemberErrorPropagates(t *testing.T) {
	failing := &failingStrategy{}
	multi, err := NewMultiStrategy([]Allocation{
		{Strategy: &stubStrategy{name: "a"}, Percent: 50},
		{Strategy: failing, Percent: 50},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := multi.InvestCalls(context.Background(), InvestParams{Amount: big.NewInt(100)}); !errors.Is(err, errBoom) {
		t.Errorf("expected member error to propagate, got %v", err)
	}
}

func TestHasLiquidityMint(t *testing.T) {
	liquidity, err := NewUniswapV3AddLiquidity(8453, &fakeReader{}, &fakeQuotes{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	with, err := NewMultiStrategy([]Allocation{
		{Strategy: &stubStrategy{name: "a"}, Percent: 50},
		{Strategy: liquidity, Percent: 50},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !with.HasLiquidityMint() {
		t.Error("expected HasLiquidityMint to be true")
	}

	without, err := NewMultiStrategy([]Allocation{
		{Strategy: &stubStrategy{name: "a"}, Percent: 100},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if without.HasLiquidityMint() {
		t.Error("expected HasLiquidityMint to be false")
	}
}

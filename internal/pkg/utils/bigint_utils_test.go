package utils

import (
	"math/big"
	"testing"
)

func TestFormatBigInt(t *testing.T) {
	cases := []struct {
		amount   string
		decimals uint8
		expected string
	}{
		{"1234500000000000000", 18, "1.2345"},
		{"1000000", 6, "1"},
		{"1", 6, "0.000001"},
		{"0", 18, "0"},
		{"123", 0, "123"},
	}
	for _, c := range cases {
		amount, _ := new(big.Int).SetString(c.amount, 10)
		got, err := FormatBigInt(amount, c.decimals)
		if err != nil {
			t.Errorf("FormatBigInt(%s, %d): unexpected error: %v", c.amount, c.decimals, err)
			continue
		}
		if got != c.expected {
			t.Errorf("FormatBigInt(%s, %d): expected %s, got %s", c.amount, c.decimals, c.expected, got)
		}
	}

	if got, err := FormatBigInt(nil, 18); err != nil || got != "0" {
		t.Errorf("nil amount: expected \"0\", got %q (%v)", got, err)
	}
}

func TestToFloat(t *testing.T) {
	if got := ToFloat(big.NewInt(999_000), 6); got != 0.999 {
		t.Errorf("expected 0.999, got %v", got)
	}
	if got := ToFloat(nil, 18); got != 0 {
		t.Errorf("expected 0 for nil, got %v", got)
	}
}

func TestFromFloat(t *testing.T) {
	if got := FromFloat(1.5, 6); got.Int64() != 1_500_000 {
		t.Errorf("expected 1500000, got %s", got)
	}
	if got := FromFloat(0, 18); got.Sign() != 0 {
		t.Errorf("expected 0, got %s", got)
	}
}

func TestFromFloatToFloatRoundTrip(t *testing.T) {
	for _, v := range []float64{0.5, 1, 2.25, 1234.5} {
		if got := ToFloat(FromFloat(v, 6), 6); got != v {
			t.Errorf("round trip of %v: got %v", v, got)
		}
	}
}

func TestParseBigInt(t *testing.T) {
	v, err := ParseBigInt("1000000")
	if err != nil || v.Int64() != 1_000_000 {
		t.Errorf("expected 1000000, got %v (%v)", v, err)
	}
	if _, err := ParseBigInt("0x10"); err == nil {
		t.Error("expected error for non-decimal input")
	}
	if _, err := ParseBigInt("abc"); err == nil {
		t.Error("expected error for garbage input")
	}
}

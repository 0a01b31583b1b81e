package strategy

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/app/port"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// fakeReader serves canned outputs keyed by method name and records the
// methods it was asked for.
type fakeReader struct {
	outputs map[string][]interface{}
	err     error
	methods []string
}

func (f *fakeReader) ReadContract(_ context.Context, _ uint64, _ common.Address, _ abi.ABI, method string, _ ...interface{}) ([]interface{}, error) {
	f.methods = append(f.methods, method)
	if f.err != nil {
		return nil, f.err
	}
	out, ok := f.outputs[method]
	if !ok {
		return nil, nil
	}
	return out, nil
}

// fakeQuotes returns a fixed quote for every request.
type fakeQuotes struct {
	quote port.SwapQuote
	err   error
}

func (f *fakeQuotes) Quote(_ context.Context, _ uint64, _, _ string, _ *big.Int, _ common.Address) (port.SwapQuote, error) {
	if f.err != nil {
		return port.SwapQuote{}, f.err
	}
	return f.quote, nil
}

// stubStrategy records the amounts it was invoked with and emits one
// recognizable call per operation.
type stubStrategy struct {
	name          string
	investAmounts []*big.Int
	redeemAmounts []*big.Int
}

func (s *stubStrategy) Name() string    { return s.name }
func (s *stubStrategy) ChainID() uint64 { return 1 }

func (s *stubStrategy) InvestCalls(_ context.Context, p InvestParams) ([]entity.Call, error) {
	s.investAmounts = append(s.investAmounts, p.Amount)
	return []entity.Call{{To: common.HexToAddress("0x1"), Data: []byte(s.name)}}, nil
}

func (s *stubStrategy) RedeemCalls(_ context.Context, p RedeemParams) ([]entity.Call, error) {
	s.redeemAmounts = append(s.redeemAmounts, p.Amount)
	return []entity.Call{{To: common.HexToAddress("0x2"), Data: []byte(s.name)}}, nil
}

func (s *stubStrategy) Profit(_ context.Context, _ entity.Position) (float64, error) {
	return 0, nil
}

var errBoom = errors.New("boom")

// failingStrategy fails every call build.
type failingStrategy struct{}

func (s *failingStrategy) Name() string    { return "failing" }
func (s *failingStrategy) ChainID() uint64 { return 1 }

func (s *failingStrategy) InvestCalls(_ context.Context, _ InvestParams) ([]entity.Call, error) {
	return nil, errBoom
}

func (s *failingStrategy) RedeemCalls(_ context.Context, _ RedeemParams) ([]entity.Call, error) {
	return nil, errBoom
}

func (s *failingStrategy) Profit(_ context.Context, _ entity.Position) (float64, error) {
	return 0, errBoom
}

func mustEncode(contractABI abi.ABI, method string, args ...interface{}) []byte {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		panic(err)
	}
	return data
}

func addrOf(name string, chainID uint64) common.Address {
	token, err := TokenByName(name)
	if err != nil {
		panic(err)
	}
	addr, err := token.AddressOn(chainID)
	if err != nil {
		panic(err)
	}
	return addr
}

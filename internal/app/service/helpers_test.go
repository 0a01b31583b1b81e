package service

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// fakeStore is an in-memory port.PositionStore.
type fakeStore struct {
	positions []entity.Position
	nextID    int
	updates   map[string]float64
	closed    []string
	listErr   error
}

func newFakeStore(seed ...entity.Position) *fakeStore {
	return &fakeStore{positions: seed, updates: map[string]float64{}}
}

func (f *fakeStore) ListByOwner(_ context.Context, owner string) ([]entity.Position, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []entity.Position
	for _, p := range f.positions {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, p entity.Position) (entity.Position, error) {
	f.nextID++
	p.ID = fmt.Sprintf("pos-%d", f.nextID)
	f.positions = append(f.positions, p)
	return p, nil
}

func (f *fakeStore) UpdateAmount(_ context.Context, id string, amount float64) error {
	f.updates[id] = amount
	for i := range f.positions {
		if f.positions[i].ID == id {
			f.positions[i].Amount = amount
		}
	}
	return nil
}

func (f *fakeStore) Close(_ context.Context, id string) error {
	f.closed = append(f.closed, id)
	for i := range f.positions {
		if f.positions[i].ID == id {
			f.positions[i].Status = entity.PositionClosed
		}
	}
	return nil
}

// fakeSubmitter records the last submitted batch.
type fakeSubmitter struct {
	chainID uint64
	calls   []entity.Call
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, chainID uint64, calls []entity.Call) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.chainID = chainID
	f.calls = calls
	return "0xhash", nil
}

// fakeReader serves canned outputs keyed by method name.
type fakeReader struct {
	outputs map[string][]interface{}
}

func (f *fakeReader) ReadContract(_ context.Context, _ uint64, _ common.Address, _ abi.ABI, method string, _ ...interface{}) ([]interface{}, error) {
	out, ok := f.outputs[method]
	if !ok {
		return nil, fmt.Errorf("no fake output for %s", method)
	}
	return out, nil
}

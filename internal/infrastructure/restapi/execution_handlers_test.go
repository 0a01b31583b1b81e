package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/dynavest/strategy-engine/internal/app/service"
	"github.com/dynavest/strategy-engine/internal/app/strategy"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type memStore struct {
	positions []entity.Position
	nextID    int
}

func (m *memStore) ListByOwner(_ context.Context, owner string) ([]entity.Position, error) {
	var out []entity.Position
	for _, p := range m.positions {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, p entity.Position) (entity.Position, error) {
	m.nextID++
	p.ID = fmt.Sprintf("pos-%d", m.nextID)
	m.positions = append(m.positions, p)
	return p, nil
}

func (m *memStore) UpdateAmount(_ context.Context, id string, amount float64) error {
	for i := range m.positions {
		if m.positions[i].ID == id {
			m.positions[i].Amount = amount
		}
	}
	return nil
}

func (m *memStore) Close(_ context.Context, id string) error {
	for i := range m.positions {
		if m.positions[i].ID == id {
			m.positions[i].Status = entity.PositionClosed
		}
	}
	return nil
}

type okSubmitter struct{}

func (okSubmitter) Submit(_ context.Context, _ uint64, calls []entity.Call) (string, error) {
	if len(calls) == 0 {
		return "", entity.ErrNoCalls
	}
	return "0xhash", nil
}

func newTestRouter(store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	fees := service.NewFeeCalculator(10, common.HexToAddress("0x9999999999999999999999999999999999999999"))
	accounting := service.NewPositionAccounting(store, nopLogger{})
	executor := service.NewExecutor(strategy.Deps{}, fees, accounting, okSubmitter{}, nopLogger{})
	return SetupRouter(NewExecutionHandler(executor, store, nopLogger{}))
}

func TestInvestEndpoint(t *testing.T) {
	store := &memStore{}
	router := newTestRouter(store)

	body := `{
		"protocol": "AaveV3Supply",
		"chain_id": 8453,
		"token": "USDC",
		"amount": "1000000",
		"user": "0x1111111111111111111111111111111111111111"
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invest", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp executionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TxHash != "0xhash" {
		t.Errorf("expected tx hash 0xhash, got %s", resp.TxHash)
	}
	if len(store.positions) != 1 {
		t.Errorf("expected 1 recorded position, got %d", len(store.positions))
	}
}

func TestInvestEndpointRejectsBadAmount(t *testing.T) {
	router := newTestRouter(&memStore{})

	body := `{
		"protocol": "AaveV3Supply",
		"chain_id": 8453,
		"token": "USDC",
		"amount": "-5",
		"user": "0x1111111111111111111111111111111111111111"
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invest", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestInvestEndpointUnsupportedChain(t *testing.T) {
	router := newTestRouter(&memStore{})

	body := `{
		"protocol": "AaveV3Supply",
		"chain_id": 10,
		"token": "USDC",
		"amount": "1000000",
		"user": "0x1111111111111111111111111111111111111111"
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invest", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported chain, got %d", w.Code)
	}
}

func TestPositionsEndpointValidatesAddress(t *testing.T) {
	router := newTestRouter(&memStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions/not-an-address", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestProtocolsEndpoint(t *testing.T) {
	router := newTestRouter(&memStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/protocols", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Protocols []string `json:"protocols"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Protocols) != 5 {
		t.Errorf("expected 5 protocols, got %d", len(resp.Protocols))
	}
}

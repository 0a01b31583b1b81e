package positionstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPStore implements port.PositionStore against the positions REST
// service. The service owns persistence and concurrency control; this
// client is plain request/response.
type HTTPStore struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

func NewHTTPStore(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPStore {
	return &HTTPStore{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("PositionStore"),
	}
}

// ListByOwner fetches all positions for the address, open and closed.
func (s *HTTPStore) ListByOwner(ctx context.Context, owner string) ([]entity.Position, error) {
	body, err := s.do(ctx, fasthttp.MethodGet, fmt.Sprintf("/positions/%s", owner), nil)
	if err != nil {
		return nil, err
	}

	var positions []entity.Position
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal positions for %s: %w", owner, err)
	}
	return positions, nil
}

// Create persists a new position and returns it with the server-issued
// id filled in.
func (s *HTTPStore) Create(ctx context.Context, p entity.Position) (entity.Position, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return entity.Position{}, fmt.Errorf("failed to marshal position: %w", err)
	}

	body, err := s.do(ctx, fasthttp.MethodPost, "/position", payload)
	if err != nil {
		return entity.Position{}, err
	}

	var created entity.Position
	if err := json.Unmarshal(body, &created); err != nil {
		return entity.Position{}, fmt.Errorf("failed to unmarshal created position: %w", err)
	}
	return created, nil
}

// UpdateAmount sets the position's amount, in human units.
func (s *HTTPStore) UpdateAmount(ctx context.Context, id string, amount float64) error {
	payload, err := json.Marshal(map[string]float64{"amount": amount})
	if err != nil {
		return fmt.Errorf("failed to marshal amount update: %w", err)
	}
	_, err = s.do(ctx, fasthttp.MethodPatch, fmt.Sprintf("/positions/%s", id), payload)
	return err
}

// Close marks the position closed. The record is retained.
func (s *HTTPStore) Close(ctx context.Context, id string) error {
	payload, err := json.Marshal(map[string]string{"status": entity.PositionClosed})
	if err != nil {
		return fmt.Errorf("failed to marshal status update: %w", err)
	}
	_, err = s.do(ctx, fasthttp.MethodPatch, fmt.Sprintf("/positions/%s", id), payload)
	return err
}

func (s *HTTPStore) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	requestURL := s.baseURL + path

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(method)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	if payload != nil {
		req.SetBody(payload)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := s.client.DoDeadline(req, resp, deadline); err != nil {
			s.logger.Error("Position store request failed", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := s.client.DoTimeout(req, resp, s.timeout); err != nil {
			s.logger.Error("Position store request failed (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	status := resp.StatusCode()
	body := resp.Body()
	if status == fasthttp.StatusNotFound {
		return nil, fmt.Errorf("%s %s: %w", method, requestURL, entity.ErrPositionNotFound)
	}
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		s.logger.Error("Position store returned error status",
			zap.String("url", requestURL), zap.Int("statusCode", status), zap.ByteString("responseBody", body))
		return nil, fmt.Errorf("position store request to %s failed with status %d: %s", requestURL, status, string(body))
	}

	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

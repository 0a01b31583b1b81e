package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultPollInterval = 2 * time.Second
	defaultConfirmWait  = 2 * time.Minute
)

// batch statuses reported by the relay.
const (
	statusPending   = "pending"
	statusConfirmed = "confirmed"
	statusFailed    = "failed"
)

type batchCall struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value,omitempty"`
}

type submitRequest struct {
	ChainID uint64      `json:"chainId"`
	Calls   []batchCall `json:"calls"`
}

type submitResponse struct {
	BatchID string `json:"batchId"`
}

type batchStatus struct {
	Status string `json:"status"`
	TxHash string `json:"txHash,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Submitter implements port.TransactionSubmitter against the relay
// service, which executes a call batch atomically in one transaction.
// Submit blocks until the relay confirms or rejects the batch, so a nil
// error means the batch landed on chain.
type Submitter struct {
	client       *fasthttp.Client
	baseURL      string
	timeout      time.Duration
	pollInterval time.Duration
	confirmWait  time.Duration
	logger       *zap.Logger
}

func NewSubmitter(baseURL string, timeout time.Duration, logger *zap.Logger) *Submitter {
	return &Submitter{
		client:       &fasthttp.Client{},
		baseURL:      strings.TrimRight(baseURL, "/"),
		timeout:      timeout,
		pollInterval: defaultPollInterval,
		confirmWait:  defaultConfirmWait,
		logger:       logger.Named("RelaySubmitter"),
	}
}

// Submit posts the batch and waits for confirmation. Returns the
// transaction hash of the confirmed batch.
func (s *Submitter) Submit(ctx context.Context, chainID uint64, calls []entity.Call) (string, error) {
	if len(calls) == 0 {
		return "", entity.ErrNoCalls
	}

	reqBody := submitRequest{ChainID: chainID, Calls: make([]batchCall, 0, len(calls))}
	for _, call := range calls {
		bc := batchCall{To: call.To.Hex(), Data: hexutil.Encode(call.Data)}
		if call.Value != nil && call.Value.Sign() > 0 {
			bc.Value = call.Value.String()
		}
		reqBody.Calls = append(reqBody.Calls, bc)
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch: %w", err)
	}

	body, err := s.do(ctx, fasthttp.MethodPost, "/v1/batch", payload)
	if err != nil {
		return "", err
	}
	var submitted submitResponse
	if err := json.Unmarshal(body, &submitted); err != nil {
		return "", fmt.Errorf("failed to unmarshal submit response: %w", err)
	}
	if submitted.BatchID == "" {
		return "", fmt.Errorf("relay accepted batch but returned no batch id")
	}

	s.logger.Debug("Batch submitted, awaiting confirmation",
		zap.String("batchId", submitted.BatchID), zap.Uint64("chainId", chainID), zap.Int("callCount", len(calls)))
	return s.awaitConfirmation(ctx, submitted.BatchID)
}

// awaitConfirmation polls the relay until the batch confirms, fails or
// the wait budget runs out.
func (s *Submitter) awaitConfirmation(ctx context.Context, batchID string) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.confirmWait)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		body, err := s.do(waitCtx, fasthttp.MethodGet, fmt.Sprintf("/v1/batch/%s", batchID), nil)
		if err != nil {
			return "", err
		}
		var status batchStatus
		if err := json.Unmarshal(body, &status); err != nil {
			return "", fmt.Errorf("failed to unmarshal batch status: %w", err)
		}

		switch status.Status {
		case statusConfirmed:
			s.logger.Info("Batch confirmed", zap.String("batchId", batchID), zap.String("txHash", status.TxHash))
			return status.TxHash, nil
		case statusFailed:
			return "", fmt.Errorf("batch %s reverted: %s", batchID, status.Reason)
		case statusPending:
		default:
			s.logger.Warn("Unknown batch status, still polling",
				zap.String("batchId", batchID), zap.String("status", status.Status))
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			return "", fmt.Errorf("batch %s not confirmed in time: %w", batchID, waitCtx.Err())
		}
	}
}

func (s *Submitter) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
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
			s.logger.Error("Relay request failed", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := s.client.DoTimeout(req, resp, s.timeout); err != nil {
			s.logger.Error("Relay request failed (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	status := resp.StatusCode()
	body := resp.Body()
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		s.logger.Error("Relay returned error status",
			zap.String("url", requestURL), zap.Int("statusCode", status), zap.ByteString("responseBody", body))
		return nil, fmt.Errorf("relay request to %s failed with status %d: %s", requestURL, status, string(body))
	}

	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

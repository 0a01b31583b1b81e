package quote

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
	gocache "github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dynavest/strategy-engine/internal/app/port"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
	"github.com/dynavest/strategy-engine/internal/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultQuoteTTL      = 15 * time.Second
	cacheCleanupInterval = time.Minute
)

// quoteResponse mirrors the aggregator's quote payload: executable
// calldata plus the priced amounts.
type quoteResponse struct {
	InputAmount  string `json:"inputAmount"`
	OutputAmount string `json:"outputAmount"`
	Calls        []struct {
		To    string `json:"to"`
		Data  string `json:"data"`
		Value string `json:"value,omitempty"`
	} `json:"calls"`
}

// Client implements port.SwapQuoteProvider against the swap aggregator
// HTTP API. Routes are cached briefly so that the two quotes of one
// liquidity build (token0 side, token1 side) and quick retries do not
// each hit the aggregator.
type Client struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	cache   *gocache.Cache
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		cache:   gocache.New(defaultQuoteTTL, cacheCleanupInterval),
		logger:  logger.Named("QuoteClient"),
	}
}

// Quote resolves a swap route for the pair. An OK response with no
// calldata or a zero output amount means the aggregator found no route,
// reported as ErrQuoteUnavailable.
func (c *Client) Quote(ctx context.Context, chainID uint64, tokenIn, tokenOut string, amountIn *big.Int, recipient common.Address) (port.SwapQuote, error) {
	cacheKey := fmt.Sprintf("%d:%s:%s:%s:%s", chainID, tokenIn, tokenOut, amountIn.String(), recipient.Hex())
	if cached, found := c.cache.Get(cacheKey); found {
		c.logger.Debug("Returning cached swap quote", zap.String("key", cacheKey))
		return cached.(port.SwapQuote), nil
	}

	requestURL := fmt.Sprintf("%s/v1/quote?chainId=%d&tokenIn=%s&tokenOut=%s&amount=%s&recipient=%s",
		c.baseURL, chainID, tokenIn, tokenOut, amountIn.String(), recipient.Hex())

	c.logger.Debug("Requesting swap quote", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute quote request", zap.String("url", requestURL), zap.Error(err))
			return port.SwapQuote{}, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute quote request (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return port.SwapQuote{}, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Quote API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return port.SwapQuote{}, fmt.Errorf("quote API request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	var payload quoteResponse
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		c.logger.Error("Failed to unmarshal quote response",
			zap.String("url", requestURL), zap.ByteString("responseBody", rawBody), zap.Error(err))
		return port.SwapQuote{}, fmt.Errorf("failed to unmarshal quote response from %s: %w", requestURL, err)
	}

	result, err := c.toSwapQuote(payload, tokenIn, tokenOut)
	if err != nil {
		return port.SwapQuote{}, err
	}

	c.cache.Set(cacheKey, result, gocache.DefaultExpiration)
	c.logger.Debug("Resolved swap quote",
		zap.String("tokenIn", tokenIn), zap.String("tokenOut", tokenOut),
		zap.Int("callCount", len(result.Calls)), zap.String("outputAmount", result.OutputAmount.String()))
	return result, nil
}

func (c *Client) toSwapQuote(payload quoteResponse, tokenIn, tokenOut string) (port.SwapQuote, error) {
	if len(payload.Calls) == 0 {
		return port.SwapQuote{}, fmt.Errorf("no route for %s -> %s: %w", tokenIn, tokenOut, entity.ErrQuoteUnavailable)
	}

	inputAmount, err := utils.ParseBigInt(payload.InputAmount)
	if err != nil {
		return port.SwapQuote{}, fmt.Errorf("invalid input amount %q: %w", payload.InputAmount, err)
	}
	outputAmount, err := utils.ParseBigInt(payload.OutputAmount)
	if err != nil {
		return port.SwapQuote{}, fmt.Errorf("invalid output amount %q: %w", payload.OutputAmount, err)
	}
	if outputAmount.Sign() <= 0 {
		return port.SwapQuote{}, fmt.Errorf("zero output for %s -> %s: %w", tokenIn, tokenOut, entity.ErrQuoteUnavailable)
	}

	calls := make([]entity.Call, 0, len(payload.Calls))
	for i, raw := range payload.Calls {
		if !common.IsHexAddress(raw.To) {
			return port.SwapQuote{}, fmt.Errorf("call %d: invalid target address %q", i, raw.To)
		}
		data, err := hexutil.Decode(raw.Data)
		if err != nil {
			return port.SwapQuote{}, fmt.Errorf("call %d: invalid calldata: %w", i, err)
		}
		call := entity.Call{To: common.HexToAddress(raw.To), Data: data}
		if raw.Value != "" {
			value, err := utils.ParseBigInt(raw.Value)
			if err != nil {
				return port.SwapQuote{}, fmt.Errorf("call %d: invalid value %q: %w", i, raw.Value, err)
			}
			call.Value = value
		}
		calls = append(calls, call)
	}

	return port.SwapQuote{Calls: calls, InputAmount: inputAmount, OutputAmount: outputAmount}, nil
}

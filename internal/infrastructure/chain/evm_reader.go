package chain

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	"github.com/dynavest/strategy-engine/internal/app/port"
	"github.com/dynavest/strategy-engine/internal/pkg/metrics"
)

// NetworkConfig describes one RPC endpoint set for a chain.
type NetworkConfig struct {
	ChainID         uint64
	Name            string
	PrimaryRPCURL   string
	FallbackRPCURLs []string
}

const (
	defaultConnectionTimeout = 10 * time.Second
	defaultCallTimeout       = 15 * time.Second
	defaultReadAttempts      = 3
	retryBaseDelay           = 200 * time.Millisecond
)

// EVMReader implements port.ChainReader over go-ethereum. Clients are
// dialed lazily, once per chain, trying the primary RPC URL first and
// falling back in order. All reads share one rate limiter so a burst of
// strategy builds cannot exhaust the RPC quota.
type EVMReader struct {
	mu       sync.Mutex
	clients  map[uint64]*ethclient.Client
	networks map[uint64]NetworkConfig

	limiter           *rate.Limiter
	connectionTimeout time.Duration
	callTimeout       time.Duration
	logger            port.Logger
}

// NewEVMReader builds a reader over the given networks. readsPerSecond
// bounds the aggregate eth_call rate across all chains; zero or
// negative disables the limit.
func NewEVMReader(networks []NetworkConfig, readsPerSecond int, logger port.Logger) *EVMReader {
	limit := rate.Inf
	burst := 1
	if readsPerSecond > 0 {
		limit = rate.Limit(readsPerSecond)
		burst = readsPerSecond
	}

	networkMap := make(map[uint64]NetworkConfig, len(networks))
	for _, n := range networks {
		networkMap[n.ChainID] = n
	}

	return &EVMReader{
		clients:           make(map[uint64]*ethclient.Client),
		networks:          networkMap,
		limiter:           rate.NewLimiter(limit, burst),
		connectionTimeout: defaultConnectionTimeout,
		callTimeout:       defaultCallTimeout,
		logger:            logger,
	}
}

// ReadContract performs a read-only eth_call against the contract and
// returns the unpacked outputs. Transient RPC failures are retried with
// doubling delays; ABI encode/decode failures are not, they never heal
// on retry.
func (r *EVMReader) ReadContract(ctx context.Context, chainID uint64, contract common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	client, err := r.client(ctx, chainID)
	if err != nil {
		metrics.RPCReads.WithLabelValues(strconv.FormatUint(chainID, 10), "error").Inc()
		return nil, err
	}

	msg := ethereum.CallMsg{To: &contract, Data: data}

	var raw []byte
	delay := retryBaseDelay
	for attempt := 1; ; attempt++ {
		if err = r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		raw, err = client.CallContract(callCtx, msg, nil)
		cancel()
		if err == nil {
			break
		}
		if attempt >= defaultReadAttempts || ctx.Err() != nil {
			metrics.RPCReads.WithLabelValues(strconv.FormatUint(chainID, 10), "error").Inc()
			return nil, fmt.Errorf("eth_call %s on chain %d failed after %d attempts: %w", method, chainID, attempt, err)
		}

		r.logger.Warn("Contract read failed, retrying",
			"chain_id", chainID, "method", method, "attempt", attempt, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
	}

	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		metrics.RPCReads.WithLabelValues(strconv.FormatUint(chainID, 10), "error").Inc()
		return nil, fmt.Errorf("failed to decode %s result on chain %d: %w", method, chainID, err)
	}

	metrics.RPCReads.WithLabelValues(strconv.FormatUint(chainID, 10), "success").Inc()
	return out, nil
}

// client returns the cached client for the chain, dialing on first use.
func (r *EVMReader) client(ctx context.Context, chainID uint64) (*ethclient.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[chainID]; ok {
		return client, nil
	}

	netCfg, ok := r.networks[chainID]
	if !ok {
		return nil, fmt.Errorf("no RPC endpoints configured for chain %d", chainID)
	}

	rpcURLs := append([]string{netCfg.PrimaryRPCURL}, netCfg.FallbackRPCURLs...)
	var lastErr error
	for _, rpcURL := range rpcURLs {
		dialCtx, cancel := context.WithTimeout(ctx, r.connectionTimeout)
		client, err := ethclient.DialContext(dialCtx, rpcURL)
		cancel()
		if err == nil {
			r.logger.Info("Connected to RPC", "network", netCfg.Name, "chain_id", chainID)
			r.clients[chainID] = client
			return client, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
		r.logger.Warn("RPC connection attempt failed", "network", netCfg.Name, "url", rpcURL, "error", err)
	}

	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", netCfg.Name, lastErr)
}

// Close disconnects every dialed client.
func (r *EVMReader) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for chainID, client := range r.clients {
		client.Close()
		delete(r.clients, chainID)
	}
}

package restapi

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/dynavest/strategy-engine/internal/app/port"
	"github.com/dynavest/strategy-engine/internal/app/service"
	"github.com/dynavest/strategy-engine/internal/app/strategy"
	"github.com/dynavest/strategy-engine/internal/domain/entity"
	"github.com/dynavest/strategy-engine/internal/pkg/utils"
)

// liquidityInvestDTO mirrors strategy.LiquidityInvestParams on the
// wire. Omitted fields fall back to the strategy defaults.
type liquidityInvestDTO struct {
	Asset           string `json:"asset"`
	PairToken       string `json:"pair_token"`
	FeeTier         uint32 `json:"fee_tier"`
	TickLower       int32  `json:"tick_lower"`
	TickUpper       int32  `json:"tick_upper"`
	SlippageBps     uint32 `json:"slippage_bps"`
	DeadlineSeconds int64  `json:"deadline_seconds"`
}

type liquidityRedeemDTO struct {
	TokenID         string `json:"token_id"`
	Token0          string `json:"token0"`
	Token1          string `json:"token1"`
	Liquidity       string `json:"liquidity,omitempty"`
	Amount0Expected string `json:"amount0_expected,omitempty"`
	Amount1Expected string `json:"amount1_expected,omitempty"`
	SlippageBps     uint32 `json:"slippage_bps"`
	CollectFees     bool   `json:"collect_fees"`
	BurnNFT         bool   `json:"burn_nft"`
	DeadlineSeconds int64  `json:"deadline_seconds"`
}

type investRequestDTO struct {
	Protocol  string              `json:"protocol" binding:"required"`
	ChainID   uint64              `json:"chain_id" binding:"required"`
	Token     string              `json:"token" binding:"required"`
	Amount    string              `json:"amount" binding:"required"`
	User      string              `json:"user" binding:"required"`
	Liquidity *liquidityInvestDTO `json:"liquidity,omitempty"`
}

type redeemRequestDTO struct {
	Protocol   string              `json:"protocol" binding:"required"`
	ChainID    uint64              `json:"chain_id" binding:"required"`
	Token      string              `json:"token" binding:"required"`
	Amount     string              `json:"amount" binding:"required"`
	User       string              `json:"user" binding:"required"`
	PositionID string              `json:"position_id" binding:"required"`
	Liquidity  *liquidityRedeemDTO `json:"liquidity,omitempty"`
}

type allocationDTO struct {
	Protocol string `json:"protocol" binding:"required"`
	Percent  int    `json:"percent" binding:"required"`
}

type multiInvestRequestDTO struct {
	Allocations []allocationDTO     `json:"allocations" binding:"required"`
	ChainID     uint64              `json:"chain_id" binding:"required"`
	Token       string              `json:"token" binding:"required"`
	Amount      string              `json:"amount" binding:"required"`
	User        string              `json:"user" binding:"required"`
	Liquidity   *liquidityInvestDTO `json:"liquidity,omitempty"`
}

type executionResponse struct {
	TxHash string `json:"tx_hash"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ExecutionHandler serves the invest/redeem/position endpoints.
type ExecutionHandler struct {
	executor *service.Executor
	store    port.PositionStore
	logger   port.Logger
}

func NewExecutionHandler(executor *service.Executor, store port.PositionStore, logger port.Logger) *ExecutionHandler {
	return &ExecutionHandler{executor: executor, store: store, logger: logger}
}

// InvestHandler handles a single-protocol invest.
func (h *ExecutionHandler) InvestHandler(c *gin.Context) {
	var dto investRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, user, ok := h.parseAmountAndUser(c, dto.Amount, dto.User)
	if !ok {
		return
	}

	txHash, err := h.executor.Invest(c.Request.Context(), service.InvestRequest{
		Protocol:  dto.Protocol,
		ChainID:   dto.ChainID,
		TokenName: dto.Token,
		Amount:    amount,
		User:      user,
		Liquidity: dto.Liquidity.toParams(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, executionResponse{TxHash: txHash})
}

// RedeemHandler handles a single-protocol redeem.
func (h *ExecutionHandler) RedeemHandler(c *gin.Context) {
	var dto redeemRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, user, ok := h.parseAmountAndUser(c, dto.Amount, dto.User)
	if !ok {
		return
	}
	liquidity, err := dto.Liquidity.toParams()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	txHash, err := h.executor.Redeem(c.Request.Context(), service.RedeemRequest{
		Protocol:   dto.Protocol,
		ChainID:    dto.ChainID,
		TokenName:  dto.Token,
		Amount:     amount,
		User:       user,
		PositionID: dto.PositionID,
		Liquidity:  liquidity,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, executionResponse{TxHash: txHash})
}

// MultiInvestHandler handles a percentage-split invest across several
// protocols on one chain.
func (h *ExecutionHandler) MultiInvestHandler(c *gin.Context) {
	var dto multiInvestRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, user, ok := h.parseAmountAndUser(c, dto.Amount, dto.User)
	if !ok {
		return
	}

	allocations := make([]service.ProtocolAllocation, 0, len(dto.Allocations))
	for _, a := range dto.Allocations {
		allocations = append(allocations, service.ProtocolAllocation{Protocol: a.Protocol, Percent: a.Percent})
	}

	txHash, err := h.executor.MultiInvest(c.Request.Context(), service.MultiInvestRequest{
		Allocations: allocations,
		ChainID:     dto.ChainID,
		TokenName:   dto.Token,
		Amount:      amount,
		User:        user,
		Liquidity:   dto.Liquidity.toParams(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, executionResponse{TxHash: txHash})
}

// GetPositionsHandler lists all positions of an address.
func (h *ExecutionHandler) GetPositionsHandler(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid address"})
		return
	}

	positions, err := h.store.ListByOwner(c.Request.Context(), address)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

// GetProfitsHandler reports the current profit of every open position
// of an address.
func (h *ExecutionHandler) GetProfitsHandler(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid address"})
		return
	}

	profits, err := h.executor.ProfitByOwner(c.Request.Context(), address)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profits": profits})
}

// GetProtocolsHandler lists the protocol identifiers the engine can
// execute.
func (h *ExecutionHandler) GetProtocolsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"protocols": strategy.Protocols()})
}

func (h *ExecutionHandler) parseAmountAndUser(c *gin.Context, amountStr, userStr string) (*big.Int, common.Address, bool) {
	amount, err := utils.ParseBigInt(amountStr)
	if err != nil || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "amount must be a positive base-unit integer"})
		return nil, common.Address{}, false
	}
	if !common.IsHexAddress(userStr) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid user address"})
		return nil, common.Address{}, false
	}
	return amount, common.HexToAddress(userStr), true
}

// writeError maps domain errors onto HTTP statuses.
func (h *ExecutionHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrUnsupportedChain),
		errors.Is(err, entity.ErrContractNotFound),
		errors.Is(err, entity.ErrMissingAsset):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrPositionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrPositionClosed),
		errors.Is(err, entity.ErrPositionMismatch):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrNoCalls),
		errors.Is(err, entity.ErrQuoteUnavailable):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err)
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

func (dto *liquidityInvestDTO) toParams() *strategy.LiquidityInvestParams {
	if dto == nil {
		return nil
	}
	return &strategy.LiquidityInvestParams{
		AssetName:       dto.Asset,
		PairTokenName:   dto.PairToken,
		FeeTier:         dto.FeeTier,
		TickLower:       dto.TickLower,
		TickUpper:       dto.TickUpper,
		SlippageBps:     dto.SlippageBps,
		DeadlineSeconds: dto.DeadlineSeconds,
	}
}

func (dto *liquidityRedeemDTO) toParams() (*strategy.LiquidityRedeemParams, error) {
	if dto == nil {
		return nil, nil
	}
	tokenID, err := utils.ParseBigInt(dto.TokenID)
	if err != nil {
		return nil, err
	}
	params := &strategy.LiquidityRedeemParams{
		TokenID:         tokenID,
		Token0:          common.HexToAddress(dto.Token0),
		Token1:          common.HexToAddress(dto.Token1),
		SlippageBps:     dto.SlippageBps,
		CollectFees:     dto.CollectFees,
		BurnNFT:         dto.BurnNFT,
		DeadlineSeconds: dto.DeadlineSeconds,
	}
	if dto.Liquidity != "" {
		if params.Liquidity, err = utils.ParseBigInt(dto.Liquidity); err != nil {
			return nil, err
		}
	}
	if dto.Amount0Expected != "" {
		if params.Amount0Expected, err = utils.ParseBigInt(dto.Amount0Expected); err != nil {
			return nil, err
		}
	}
	if dto.Amount1Expected != "" {
		if params.Amount1Expected, err = utils.ParseBigInt(dto.Amount1Expected); err != nil {
			return nil, err
		}
	}
	return params, nil
}

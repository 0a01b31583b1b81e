package entity

import "time"

// Position status values. A fully redeemed position is closed, never
// deleted.
const (
	PositionOpen   = "open"
	PositionClosed = "closed"
)

// PositionMetadata carries strategy-specific state. Only concentrated
// liquidity positions use it today.
type PositionMetadata struct {
	NFTTokenID string `json:"nftTokenId,omitempty"`
	Token0     string `json:"token0,omitempty"`
	Token1     string `json:"token1,omitempty"`
	FeeTier    uint32 `json:"feeTier,omitempty"`
	TickLower  int32  `json:"tickLower,omitempty"`
	TickUpper  int32  `json:"tickUpper,omitempty"`
	Liquidity  string `json:"liquidity,omitempty"`
}

// Position is a user's outstanding stake in one strategy on one chain.
// Amount is kept in human units; the position store owns persistence,
// the core only computes the values written into it.
type Position struct {
	ID        string            `json:"id"`
	Owner     string            `json:"address"`
	Strategy  string            `json:"strategy"`
	TokenName string            `json:"token_name"`
	ChainID   uint64            `json:"chain_id"`
	Amount    float64           `json:"amount"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  *PositionMetadata `json:"metadata,omitempty"`
}

// IsOpen reports whether the position can still accumulate invests or
// be redeemed.
func (p Position) IsOpen() bool {
	return p.Status == PositionOpen
}

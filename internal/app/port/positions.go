package port

import (
	"context"

	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// PositionStore is the external persistence boundary for Position
// records. It is plain request/response with no transactional coupling
// to chain submission; the storage layer provides whatever mutual
// exclusion it needs.
type PositionStore interface {
	ListByOwner(ctx context.Context, owner string) ([]entity.Position, error)
	Create(ctx context.Context, p entity.Position) (entity.Position, error)
	UpdateAmount(ctx context.Context, id string, amount float64) error
	Close(ctx context.Context, id string) error
}

package port

import (
	"context"

	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// TransactionSubmitter executes a batch of calls atomically: either
// every call succeeds or the whole batch reverts. Submit blocks until a
// terminal receipt and returns the transaction hash on success.
type TransactionSubmitter interface {
	Submit(ctx context.Context, chainID uint64, calls []entity.Call) (string, error)
}

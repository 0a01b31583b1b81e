package entity

import "errors"

// Typed failure modes of the call-building core. All of them are
// propagated to the caller wrapped with protocol/chain context; the
// surrounding API layer decides user-facing messaging.
var (
	// ErrUnsupportedChain is returned at strategy construction time when
	// the requested chain id is not a key of the protocol contract table.
	ErrUnsupportedChain = errors.New("chain not supported")

	// ErrContractNotFound signals a misconfigured contract table: a role
	// is missing for a chain the protocol claims to support.
	ErrContractNotFound = errors.New("contract not found")

	// ErrMissingAsset is a caller error: an ERC-20 strategy invoked
	// without an asset, or a native-only strategy invoked with one.
	ErrMissingAsset = errors.New("required asset missing")

	// ErrNoCalls marks an invariant violation: every invest or redeem
	// must yield at least one call.
	ErrNoCalls = errors.New("no calls produced")

	// ErrPositionMismatch is returned when redeem parameters reference a
	// token pair that does not match the live on-chain position.
	ErrPositionMismatch = errors.New("position does not match requested token pair")

	// ErrQuoteUnavailable is returned when the swap-route source failed
	// or returned no executable calldata.
	ErrQuoteUnavailable = errors.New("swap quote unavailable")

	// ErrPositionNotFound is returned by position reconciliation when a
	// redeem references a position that does not exist.
	ErrPositionNotFound = errors.New("position not found")

	// ErrPositionClosed is returned when a redeem targets an already
	// closed position.
	ErrPositionClosed = errors.New("position already closed")
)

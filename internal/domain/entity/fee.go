package entity

import "math/big"

// FeeResult is the split of a gross amount into the platform fee and
// the net amount that flows into strategy calls. Fee + NetAmount always
// equals the gross amount exactly.
type FeeResult struct {
	Fee       *big.Int
	NetAmount *big.Int
}

package market

import (
	"errors"

	nativecommon "assetmarket/native/common"
)

var (
	// ErrPaused is returned by mutating operations while the market switch
	// is engaged. It aliases the shared guard error so callers can match
	// either sentinel.
	ErrPaused = nativecommon.ErrModulePaused

	ErrUnauthorized      = errors.New("market: unauthorized caller")
	ErrListingNotFound   = errors.New("market: listing not found")
	ErrAlreadyListed     = errors.New("market: asset already listed")
	ErrIncorrectFee      = errors.New("market: incorrect listing fee paid")
	ErrNotApproved       = errors.New("market: engine not approved for asset")
	ErrInvalidPrice      = errors.New("market: listing price must be positive")
	ErrInsufficientFunds = errors.New("market: insufficient funds")
	ErrNothingToWithdraw = errors.New("market: nothing to withdraw")
	ErrUnknownRegistry   = errors.New("market: unknown asset registry")

	// ErrExternalTransfer wraps failures reported by an asset registry's
	// custody transfer. The enclosing operation is rolled back before it
	// is returned.
	ErrExternalTransfer = errors.New("market: external custody transfer failed")

	errNilState = errors.New("market engine: state not configured")
)

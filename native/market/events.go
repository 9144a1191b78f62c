package market

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"assetmarket/core/types"
)

const (
	EventTypeListed        = "market.listed"
	EventTypeSold          = "market.sold"
	EventTypeCancelled     = "market.cancelled"
	EventTypeFeeUpdated    = "market.fee_updated"
	EventTypeFeesWithdrawn = "market.fees_withdrawn"
	EventTypePaused        = "market.paused"
	EventTypeUnpaused      = "market.unpaused"
)

// NewListedEvent returns the canonical payload for a newly escrowed listing.
func NewListedEvent(l *Listing, fee *big.Int) *types.Event {
	evt := newListingEvent(EventTypeListed, l)
	if fee != nil {
		evt.Attributes["fee"] = fee.String()
	}
	return evt
}

// NewSoldEvent returns the canonical payload for a completed sale. Both the
// listed price and the value actually paid are carried so indexers can
// account for retained overpayment.
func NewSoldEvent(l *Listing, buyer [20]byte, paid *big.Int) *types.Event {
	evt := newListingEvent(EventTypeSold, l)
	evt.Attributes["buyer"] = hex.EncodeToString(buyer[:])
	if paid != nil {
		evt.Attributes["paid"] = paid.String()
	}
	return evt
}

// NewCancelledEvent returns the canonical payload for a cancelled listing.
func NewCancelledEvent(l *Listing) *types.Event {
	return newListingEvent(EventTypeCancelled, l)
}

// NewFeeUpdatedEvent returns the payload emitted when the owner changes the
// listing fee.
func NewFeeUpdatedEvent(previous, current *big.Int) *types.Event {
	attrs := make(map[string]string)
	if previous != nil {
		attrs["previousFee"] = previous.String()
	}
	if current != nil {
		attrs["fee"] = current.String()
	}
	return &types.Event{Type: EventTypeFeeUpdated, Attributes: attrs}
}

// NewFeesWithdrawnEvent returns the payload emitted when accumulated revenue
// is swept to the owner.
func NewFeesWithdrawnEvent(to [20]byte, amount *big.Int) *types.Event {
	attrs := map[string]string{
		"to": hex.EncodeToString(to[:]),
	}
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	return &types.Event{Type: EventTypeFeesWithdrawn, Attributes: attrs}
}

// NewPausedEvent returns the payload emitted when the market is paused.
func NewPausedEvent(by [20]byte) *types.Event {
	return &types.Event{Type: EventTypePaused, Attributes: map[string]string{
		"by": hex.EncodeToString(by[:]),
	}}
}

// NewUnpausedEvent returns the payload emitted when the market is unpaused.
func NewUnpausedEvent(by [20]byte) *types.Event {
	return &types.Event{Type: EventTypeUnpaused, Attributes: map[string]string{
		"by": hex.EncodeToString(by[:]),
	}}
}

func newListingEvent(eventType string, l *Listing) *types.Event {
	attrs := make(map[string]string)
	if l == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["registry"] = hex.EncodeToString(l.Registry[:])
	attrs["assetId"] = strconv.FormatUint(l.AssetID, 10)
	attrs["seller"] = hex.EncodeToString(l.Seller[:])
	if l.Price != nil {
		attrs["price"] = l.Price.String()
	}
	if l.CreatedAt > 0 {
		attrs["createdAt"] = strconv.FormatInt(l.CreatedAt, 10)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

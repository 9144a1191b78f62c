package market

import (
	"fmt"
	"math/big"
)

// ModuleName identifies the market module for pause gating.
const ModuleName = "market"

// ListingKey uniquely identifies an asset across all known registries.
type ListingKey struct {
	Registry [20]byte
	AssetID  uint64
}

// Listing captures one asset currently held in custody for sale. The record
// is immutable while active; re-pricing requires cancel and re-list.
type Listing struct {
	Registry  [20]byte
	AssetID   uint64
	Seller    [20]byte
	Price     *big.Int
	CreatedAt int64
}

// Key returns the registry-scoped identifier of the listing.
func (l *Listing) Key() ListingKey {
	if l == nil {
		return ListingKey{}
	}
	return ListingKey{Registry: l.Registry, AssetID: l.AssetID}
}

// Clone returns a deep copy of the listing so callers can safely mutate the
// copy without affecting the stored instance.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Price != nil {
		clone.Price = new(big.Int).Set(l.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}

// SanitizeListing validates the supplied listing and returns a cloned
// instance with a non-nil price. The function does not mutate the original.
func SanitizeListing(l *Listing) (*Listing, error) {
	if l == nil {
		return nil, fmt.Errorf("market: nil listing")
	}
	clone := l.Clone()
	if clone.Registry == ([20]byte{}) {
		return nil, fmt.Errorf("market: listing registry required")
	}
	if clone.Seller == ([20]byte{}) {
		return nil, fmt.Errorf("market: listing seller required")
	}
	if clone.Price.Sign() <= 0 {
		return nil, fmt.Errorf("market: listing price must be positive")
	}
	return clone, nil
}

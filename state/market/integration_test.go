package market

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"assetmarket/core/events"
	"assetmarket/core/types"
	marketnative "assetmarket/native/market"
	"assetmarket/observability/logging"
	"assetmarket/storage"
)

type kvRegistry struct {
	owners   map[uint64][20]byte
	approved map[uint64][20]byte
}

func (r *kvRegistry) OwnerOf(assetID uint64) ([20]byte, error) {
	holder, ok := r.owners[assetID]
	if !ok {
		return [20]byte{}, errors.New("registry: unknown asset")
	}
	return holder, nil
}

func (r *kvRegistry) IsApprovedForTransfer(assetID uint64, operator [20]byte) (bool, error) {
	return r.approved[assetID] == operator, nil
}

func (r *kvRegistry) TransferCustody(assetID uint64, from, to [20]byte) error {
	if r.owners[assetID] != from {
		return errors.New("registry: transferor does not hold asset")
	}
	r.owners[assetID] = to
	return nil
}

// The engine runs unchanged over the persistent state manager: a listing
// written through one manager is visible to a second manager bound to the
// same database, and settlement removes it for both.
func TestEngineOverPersistentState(t *testing.T) {
	owner := testAddress(0x01)
	vault := testAddress(0xEE)
	seller := testAddress(0xA1)
	buyer := testAddress(0xB2)
	registry := testAddress(0x5D)

	db := storage.NewMemDB()
	manager := NewManager(db)
	reg := &kvRegistry{
		owners:   map[uint64][20]byte{7: seller},
		approved: map[uint64][20]byte{7: vault},
	}

	var logBuf bytes.Buffer
	logger := logging.Setup(&logBuf, "assetmarketd", "test")

	engine := marketnative.NewEngine(owner, vault, big.NewInt(10))
	engine.SetState(manager)
	engine.SetRegistries(marketnative.StaticRegistries{registry: reg})
	engine.SetEmitter(events.NewLogEmitter(logger, nil))

	require.NoError(t, manager.PutAccount(seller, &types.Account{Balance: big.NewInt(10)}))
	require.NoError(t, manager.PutAccount(buyer, &types.Account{Balance: big.NewInt(1000)}))

	_, err := engine.List(registry, 7, big.NewInt(1000), big.NewInt(10), seller)
	require.NoError(t, err)

	reopened := NewManager(db)
	listing, ok := reopened.ListingGet(marketnative.ListingKey{Registry: registry, AssetID: 7})
	require.True(t, ok)
	require.Equal(t, seller, listing.Seller)

	require.NoError(t, engine.Buy(registry, 7, big.NewInt(1000), buyer))
	_, ok = reopened.ListingGet(marketnative.ListingKey{Registry: registry, AssetID: 7})
	require.False(t, ok)

	sellerAcc, err := reopened.GetAccount(seller)
	require.NoError(t, err)
	require.Zero(t, sellerAcc.Balance.Cmp(big.NewInt(1000)))
	require.Equal(t, buyer, reg.owners[7])

	require.Contains(t, logBuf.String(), marketnative.EventTypeListed)
	require.Contains(t, logBuf.String(), marketnative.EventTypeSold)
}

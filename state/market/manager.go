package market

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"assetmarket/core/types"
	marketnative "assetmarket/native/market"
	"assetmarket/storage"
)

var (
	listingPrefix = []byte("market/listing/")
	accountPrefix = []byte("market/account/")
)

// Manager persists listings and accounts in a key-value store, implementing
// the state backend consumed by the market engine. Listing keys are the
// keccak256 hash of the registry address and big-endian asset identifier so
// record locations stay uniform regardless of key shape.
type Manager struct {
	db storage.Database
}

// NewManager binds a manager to the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

type storedListing struct {
	Registry  [20]byte
	AssetID   uint64
	Seller    [20]byte
	Price     *big.Int
	CreatedAt uint64
}

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

func listingStorageKey(key marketnative.ListingKey) []byte {
	var assetID [8]byte
	binary.BigEndian.PutUint64(assetID[:], key.AssetID)
	hash := ethcrypto.Keccak256Hash(listingPrefix, key.Registry[:], assetID[:])
	return append(append([]byte(nil), listingPrefix...), hash[:]...)
}

func accountStorageKey(addr [20]byte) []byte {
	return append(append([]byte(nil), accountPrefix...), addr[:]...)
}

// ListingPut sanitizes and stores the listing under its derived key.
func (m *Manager) ListingPut(l *marketnative.Listing) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("market state: database not configured")
	}
	sanitized, err := marketnative.SanitizeListing(l)
	if err != nil {
		return err
	}
	record := storedListing{
		Registry:  sanitized.Registry,
		AssetID:   sanitized.AssetID,
		Seller:    sanitized.Seller,
		Price:     sanitized.Price,
		CreatedAt: uint64(sanitized.CreatedAt),
	}
	encoded, err := rlp.EncodeToBytes(&record)
	if err != nil {
		return fmt.Errorf("market state: encode listing: %w", err)
	}
	return m.db.Put(listingStorageKey(sanitized.Key()), encoded)
}

// ListingGet loads the active listing for the key, if present.
func (m *Manager) ListingGet(key marketnative.ListingKey) (*marketnative.Listing, bool) {
	if m == nil || m.db == nil {
		return nil, false
	}
	encoded, err := m.db.Get(listingStorageKey(key))
	if err != nil {
		return nil, false
	}
	var record storedListing
	if err := rlp.DecodeBytes(encoded, &record); err != nil {
		return nil, false
	}
	return &marketnative.Listing{
		Registry:  record.Registry,
		AssetID:   record.AssetID,
		Seller:    record.Seller,
		Price:     record.Price,
		CreatedAt: int64(record.CreatedAt),
	}, true
}

// ListingDelete removes the listing record for the key. Deleting an absent
// key is a no-op.
func (m *Manager) ListingDelete(key marketnative.ListingKey) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("market state: database not configured")
	}
	return m.db.Delete(listingStorageKey(key))
}

// GetAccount loads the account for the address, returning a zeroed account
// when none has been stored yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("market state: database not configured")
	}
	encoded, err := m.db.Get(accountStorageKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if err != nil {
		return nil, err
	}
	var record storedAccount
	if err := rlp.DecodeBytes(encoded, &record); err != nil {
		return nil, fmt.Errorf("market state: decode account: %w", err)
	}
	return &types.Account{Nonce: record.Nonce, Balance: record.Balance}, nil
}

// PutAccount stores the account under the address.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("market state: database not configured")
	}
	account = types.EnsureAccount(account)
	if account.Balance.Sign() < 0 {
		return fmt.Errorf("market state: negative account balance")
	}
	encoded, err := rlp.EncodeToBytes(&storedAccount{Nonce: account.Nonce, Balance: account.Balance})
	if err != nil {
		return fmt.Errorf("market state: encode account: %w", err)
	}
	return m.db.Put(accountStorageKey(addr), encoded)
}

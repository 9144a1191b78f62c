package market

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"assetmarket/core/events"
	"assetmarket/core/types"
	nativecommon "assetmarket/native/common"
)

type engineState interface {
	ListingPut(*Listing) error
	ListingGet(key ListingKey) (*Listing, bool)
	ListingDelete(key ListingKey) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

type marketEvent struct {
	evt *types.Event
}

func (e marketEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e marketEvent) Event() *types.Event { return e.evt }

// Engine orchestrates the escrow/settlement state machine: listing an asset
// locks it in the engine's custody, buying settles funds and custody
// atomically, cancelling returns the asset to its seller. All value amounts
// are non-negative integers in the smallest unit of the value system.
//
// The engine is logically single-threaded per call; the only concurrency
// hazard is reentrancy through an untrusted registry's TransferCustody, which
// is mitigated by completing or rolling back state mutations around every
// external call.
type Engine struct {
	state      engineState
	registries RegistryResolver
	emitter    events.Emitter
	pauses     *nativecommon.Switch
	owner      [20]byte
	vault      [20]byte
	listingFee *big.Int
	collected  *big.Int
	nowFn      func() int64
}

// NewEngine creates a market engine owned by owner, holding custody and fee
// revenue under the vault address, charging listingFee per listing. The
// owner identity is fixed for the engine's lifetime.
func NewEngine(owner, vault [20]byte, listingFee *big.Int) *Engine {
	return &Engine{
		emitter:    events.NoopEmitter{},
		pauses:     nativecommon.NewSwitch(),
		owner:      owner,
		vault:      vault,
		listingFee: cloneBigInt(listingFee),
		collected:  big.NewInt(0),
		nowFn:      func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistries configures the resolver used to reach external asset
// registries.
func (e *Engine) SetRegistries(resolver RegistryResolver) { e.registries = resolver }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses replaces the pause switch, letting deployments share one switch
// across modules. Passing nil resets to a private unpaused switch.
func (e *Engine) SetPauses(pauses *nativecommon.Switch) {
	if pauses == nil {
		e.pauses = nativecommon.NewSwitch()
		return
	}
	e.pauses = pauses
}

// SetNowFunc overrides the time source used by the engine. Primarily
// intended for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(marketEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// Owner returns the fixed operator identity.
func (e *Engine) Owner() [20]byte { return e.owner }

// Vault returns the address holding custody and accumulated fees.
func (e *Engine) Vault() [20]byte { return e.vault }

// ListingFee returns the fee charged on future listings.
func (e *Engine) ListingFee() *big.Int { return cloneBigInt(e.listingFee) }

// CollectedFees returns the accumulated, not-yet-withdrawn fee revenue.
func (e *Engine) CollectedFees() *big.Int { return cloneBigInt(e.collected) }

// Paused reports whether the market module is currently paused.
func (e *Engine) Paused() bool {
	if e == nil {
		return false
	}
	return e.pauses.IsPaused(ModuleName)
}

// GetListing returns the active listing for the key, if any.
func (e *Engine) GetListing(registry [20]byte, assetID uint64) (*Listing, bool) {
	if e == nil || e.state == nil {
		return nil, false
	}
	listing, ok := e.state.ListingGet(ListingKey{Registry: registry, AssetID: assetID})
	if !ok {
		return nil, false
	}
	return listing.Clone(), true
}

// Balance returns the total fungible value custodied under the vault.
func (e *Engine) Balance() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acc, err := e.state.GetAccount(e.vault)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(types.EnsureAccount(acc).Balance), nil
}

func (e *Engine) requireOwner(caller [20]byte) error {
	if caller != e.owner {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) resolveRegistry(registry [20]byte) (AssetRegistry, error) {
	if e.registries == nil {
		return nil, ErrUnknownRegistry
	}
	reg, ok := e.registries.Resolve(registry)
	if !ok {
		return nil, ErrUnknownRegistry
	}
	return reg, nil
}

func (e *Engine) accountBalance(addr [20]byte) (*big.Int, error) {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return types.EnsureAccount(acc).Balance, nil
}

func (e *Engine) transferValue(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("market: negative transfer amount")
	}
	fromAcc, err := e.state.GetAccount(from)
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to)
	if err != nil {
		return err
	}
	fromAcc = types.EnsureAccount(fromAcc)
	toAcc = types.EnsureAccount(toAcc)
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAcc)
}

// List escrows the caller's asset under the engine and records it for sale
// at price. The exact configured listing fee must accompany the call; the
// fee is collected into the vault and attributed to the operator balance
// only once custody has moved.
func (e *Engine) List(registry [20]byte, assetID uint64, price, paidFee *big.Int, caller [20]byte) (*Listing, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	if cloneBigInt(paidFee).Cmp(e.listingFee) != 0 {
		return nil, ErrIncorrectFee
	}
	key := ListingKey{Registry: registry, AssetID: assetID}
	if _, ok := e.state.ListingGet(key); ok {
		return nil, ErrAlreadyListed
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	reg, err := e.resolveRegistry(registry)
	if err != nil {
		return nil, err
	}
	holder, err := reg.OwnerOf(assetID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalTransfer, err)
	}
	if holder != caller {
		return nil, ErrUnauthorized
	}
	approved, err := reg.IsApprovedForTransfer(assetID, e.vault)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalTransfer, err)
	}
	if !approved {
		return nil, ErrNotApproved
	}
	// The fee balance is checked before custody moves so the internal debit
	// after the external call cannot fail for lack of funds.
	balance, err := e.accountBalance(caller)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(e.listingFee) < 0 {
		return nil, ErrInsufficientFunds
	}
	// Custody transfer happens while no listing exists for the key, so a
	// reentrant list, buy, or cancel on the same key cannot observe a
	// half-created record.
	if err := reg.TransferCustody(assetID, caller, e.vault); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalTransfer, err)
	}
	if err := e.transferValue(caller, e.vault, e.listingFee); err != nil {
		return nil, errors.Join(err, reg.TransferCustody(assetID, e.vault, caller))
	}
	listing := &Listing{
		Registry:  registry,
		AssetID:   assetID,
		Seller:    caller,
		Price:     cloneBigInt(price),
		CreatedAt: e.now(),
	}
	if err := e.state.ListingPut(listing); err != nil {
		return nil, errors.Join(err,
			e.transferValue(e.vault, caller, e.listingFee),
			reg.TransferCustody(assetID, e.vault, caller))
	}
	e.collected = new(big.Int).Add(e.collected, e.listingFee)
	e.emit(NewListedEvent(listing, e.listingFee))
	return listing.Clone(), nil
}

// Buy exchanges paidValue for the listed asset. The listing is deleted and
// the buyer's funds are locked in the vault before custody moves; the seller
// is credited only after the registry confirms the transfer, so a registry
// that re-enters mid-transfer finds the listing gone and no spendable
// proceeds anywhere. Overpayment is retained by the engine as operator
// revenue, not refunded.
func (e *Engine) Buy(registry [20]byte, assetID uint64, paidValue *big.Int, caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return err
	}
	key := ListingKey{Registry: registry, AssetID: assetID}
	listing, ok := e.state.ListingGet(key)
	if !ok {
		return ErrListingNotFound
	}
	paid := cloneBigInt(paidValue)
	seller := listing.Seller
	price := cloneBigInt(listing.Price)
	if paid.Cmp(price) < 0 {
		return ErrInsufficientFunds
	}
	reg, err := e.resolveRegistry(registry)
	if err != nil {
		return err
	}
	if err := e.state.ListingDelete(key); err != nil {
		return err
	}
	if err := e.transferValue(caller, e.vault, paid); err != nil {
		return errors.Join(err, e.restoreListing(listing))
	}
	// A reentrant buy or cancel for this key fails with ErrListingNotFound,
	// and because the price is still locked in the vault the only rollback a
	// transfer failure ever needs is vault->buyer of the amount just
	// debited.
	if err := reg.TransferCustody(assetID, e.vault, caller); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrExternalTransfer, err)
		return errors.Join(wrapped,
			e.transferValue(e.vault, caller, paid),
			e.restoreListing(listing))
	}
	if err := e.transferValue(e.vault, seller, price); err != nil {
		return err
	}
	e.emit(NewSoldEvent(listing, caller, paid))
	return nil
}

// Cancel returns a listed asset to its seller and removes the listing. Only
// the seller may cancel; the listing fee is not refunded.
func (e *Engine) Cancel(registry [20]byte, assetID uint64, caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return err
	}
	key := ListingKey{Registry: registry, AssetID: assetID}
	listing, ok := e.state.ListingGet(key)
	if !ok {
		return ErrListingNotFound
	}
	if caller != listing.Seller {
		return ErrUnauthorized
	}
	reg, err := e.resolveRegistry(registry)
	if err != nil {
		return err
	}
	if err := e.state.ListingDelete(key); err != nil {
		return err
	}
	if err := reg.TransferCustody(assetID, e.vault, listing.Seller); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrExternalTransfer, err)
		return errors.Join(wrapped, e.restoreListing(listing))
	}
	e.emit(NewCancelledEvent(listing))
	return nil
}

func (e *Engine) restoreListing(listing *Listing) error {
	return e.state.ListingPut(listing)
}

// UpdateListingFee sets the fee charged on future listings. Active listings
// keep the fee paid at creation. Owner-only; available while paused.
func (e *Engine) UpdateListingFee(newFee *big.Int, caller [20]byte) error {
	if e == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if newFee != nil && newFee.Sign() < 0 {
		return fmt.Errorf("market: listing fee must be non-negative")
	}
	previous := e.listingFee
	e.listingFee = cloneBigInt(newFee)
	e.emit(NewFeeUpdatedEvent(previous, e.listingFee))
	return nil
}

// WithdrawFees sweeps the engine's entire vault balance to the owner. The
// vault never holds buyer funds across a completed operation, so the sweep
// is fee revenue plus any retained overpayment. Owner-only; available while
// paused.
func (e *Engine) WithdrawFees(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	balance, err := e.Balance()
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	if err := e.transferValue(e.vault, e.owner, balance); err != nil {
		return nil, err
	}
	e.collected = big.NewInt(0)
	e.emit(NewFeesWithdrawnEvent(e.owner, balance))
	return balance, nil
}

// Pause engages the market switch, rejecting list, buy, and cancel until
// Unpause. Owner-only and idempotent.
func (e *Engine) Pause(caller [20]byte) error {
	if e == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	already := e.pauses.IsPaused(ModuleName)
	e.pauses.SetPaused(ModuleName, true)
	if !already {
		e.emit(NewPausedEvent(e.owner))
	}
	return nil
}

// Unpause releases the market switch. Owner-only and idempotent.
func (e *Engine) Unpause(caller [20]byte) error {
	if e == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	already := e.pauses.IsPaused(ModuleName)
	e.pauses.SetPaused(ModuleName, false)
	if already {
		e.emit(NewUnpausedEvent(e.owner))
	}
	return nil
}

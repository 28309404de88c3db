package host

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"basketvault/core/events"
	"basketvault/core/types"
	"basketvault/native/vault"
	"basketvault/storage"
)

var (
	// ErrInsufficientFunds aborts a transaction whose queued transfer or swap
	// exceeds the payer's balance.
	ErrInsufficientFunds = errors.New("host: insufficient funds")
	// ErrNoVenue indicates no swap rate or pair is registered for a route.
	ErrNoVenue = errors.New("host: no venue for swap route")
)

// Host is a single-threaded execution environment for the vault contract. It
// owns the contract's key-value namespace, a native bank ledger, the claim
// token ledger and the swap venues, and it executes queued outbound messages
// strictly in emission order after the handler returns. A transaction is
// all-or-nothing: if any queued message fails, every effect including the
// handler's own state writes is rolled back.
type Host struct {
	db       storage.Database
	journal  *journalDB
	engine   *vault.Engine
	contract vault.Address

	bank   map[vault.Address]map[string]*big.Int
	tokens map[vault.Address]map[vault.Address]*big.Int
	rates  map[string]*big.Rat
	pairs  map[string]vault.Address

	tokenSeq uint64
	staged   []*types.Event
}

// New constructs a host around the supplied database with the vault deployed
// at the given address.
func New(db storage.Database, contract vault.Address) *Host {
	h := &Host{
		db:       db,
		contract: contract,
		bank:     make(map[vault.Address]map[string]*big.Int),
		tokens:   make(map[vault.Address]map[vault.Address]*big.Int),
		rates:    make(map[string]*big.Rat),
		pairs:    make(map[string]vault.Address),
	}
	h.journal = &journalDB{db: db}
	engine := vault.NewEngine()
	engine.SetState(vault.NewStore(storage.NewKVStore(h.journal)))
	engine.SetQuerier(h)
	engine.SetEmitter(h)
	h.engine = engine
	return h
}

// Engine exposes the wired vault engine, primarily so callers can override
// the clock in tests.
func (h *Host) Engine() *vault.Engine { return h.engine }

// ContractAddress returns the vault's own address.
func (h *Host) ContractAddress() vault.Address { return h.contract }

// SetRate registers the quote for one swap direction: units of askDenom
// received per one unit of offerDenom.
func (h *Host) SetRate(offerDenom, askDenom string, rate *big.Rat) {
	if rate == nil || rate.Sign() <= 0 {
		delete(h.rates, routeKey(offerDenom, askDenom))
		return
	}
	h.rates[routeKey(offerDenom, askDenom)] = new(big.Rat).Set(rate)
}

// RegisterPair binds a dex pair address to a denom route (both directions).
func (h *Host) RegisterPair(denomA, denomB string, pair vault.Address) {
	h.pairs[routeKey(denomA, denomB)] = pair
	h.pairs[routeKey(denomB, denomA)] = pair
}

// FundAccount credits the account with native funds.
func (h *Host) FundAccount(addr vault.Address, denom string, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	h.credit(addr, denom, amount)
}

// BankBalance reports the native balance of an account. It also serves as the
// engine's balance-oracle collaborator.
func (h *Host) BankBalance(addr vault.Address, denom string) (*big.Int, error) {
	return new(big.Int).Set(h.balance(addr, denom)), nil
}

// TokenBalance reports a holder's claim-token balance.
func (h *Host) TokenBalance(token, holder vault.Address) (*big.Int, error) {
	holders, ok := h.tokens[token]
	if !ok {
		return big.NewInt(0), nil
	}
	bal, ok := holders[holder]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

// TokenSend moves claim tokens between holders outside a vault transaction.
// Redeemers use it to place their claims with the vault before burning.
func (h *Host) TokenSend(token, from, to vault.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("host: token send amount must be positive")
	}
	if err := h.tokenDebit(token, from, amount); err != nil {
		return err
	}
	h.tokenCredit(token, to, amount)
	return nil
}

// SwapRate quotes units of askDenom per one unit of offerDenom.
func (h *Host) SwapRate(offerDenom, askDenom string) (*big.Rat, error) {
	rate, ok := h.rates[routeKey(offerDenom, askDenom)]
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoVenue, offerDenom, askDenom)
	}
	return new(big.Rat).Set(rate), nil
}

// PairAddress resolves the dex pair trading the two denoms.
func (h *Host) PairAddress(_ vault.Address, offerDenom, askDenom string) (vault.Address, error) {
	pair, ok := h.pairs[routeKey(offerDenom, askDenom)]
	if !ok {
		return vault.Address{}, fmt.Errorf("%w: %s/%s", ErrNoVenue, offerDenom, askDenom)
	}
	return pair, nil
}

// Emit implements events.Emitter. Events are staged and only surface when the
// transaction commits.
func (h *Host) Emit(evt events.Event) {
	carrier, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	if e := carrier.Event(); e != nil {
		h.staged = append(h.staged, e)
	}
}

// Instantiate deploys the vault: it runs the instantiation handler and then
// the queued companion-token bootstrap, including the registration hook the
// new token fires back at the vault.
func (h *Host) Instantiate(caller vault.Address, params vault.InstantiateParams) ([]*types.Event, error) {
	return h.transact(func() ([]vault.Msg, error) {
		resp, err := h.engine.Instantiate(h.callContext(caller, nil), params)
		if err != nil {
			return nil, err
		}
		return resp.Messages, nil
	})
}

// Execute submits one transaction to the vault: funds move from the caller to
// the contract, the handler runs, and the queued messages execute in order.
func (h *Host) Execute(caller vault.Address, funds []vault.Coin, msg vault.ExecuteMsg) ([]*types.Event, error) {
	return h.transact(func() ([]vault.Msg, error) {
		for _, coin := range funds {
			if err := h.transfer(caller, h.contract, coin.Denom, coin.Amount); err != nil {
				return nil, err
			}
		}
		resp, err := h.engine.Execute(h.callContext(caller, funds), msg)
		if err != nil {
			return nil, err
		}
		return resp.Messages, nil
	})
}

// Query resolves a read-only request. Queries never mutate state.
func (h *Host) Query(msg vault.QueryMsg) ([]byte, error) {
	return h.engine.Query(msg)
}

func (h *Host) callContext(caller vault.Address, funds []vault.Coin) vault.CallContext {
	return vault.CallContext{Contract: h.contract, Caller: caller, Funds: funds}
}

// transact runs the handler and its message queue atomically.
func (h *Host) transact(handler func() ([]vault.Msg, error)) ([]*types.Event, error) {
	bankSnap := snapshotLedger(h.bank)
	tokenSnap := snapshotTokens(h.tokens)
	h.journal.begin()
	h.staged = nil

	rollback := func() {
		h.journal.revert()
		h.bank = bankSnap
		h.tokens = tokenSnap
		h.staged = nil
	}

	queue, err := handler()
	if err != nil {
		rollback()
		return nil, err
	}
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		followups, err := h.dispatch(msg)
		if err != nil {
			rollback()
			return nil, err
		}
		queue = append(queue, followups...)
	}

	h.journal.commit()
	emitted := h.staged
	h.staged = nil
	return emitted, nil
}

// dispatch executes one queued message. Returned messages join the back of
// the queue.
func (h *Host) dispatch(msg vault.Msg) ([]vault.Msg, error) {
	switch m := msg.(type) {
	case vault.MsgSwapMarket:
		return nil, h.swap(m.Trader, m.Offer, m.AskDenom)
	case vault.MsgSwapPair:
		return nil, h.swap(m.Trader, m.Offer, m.AskDenom)
	case vault.MsgTokenInstantiate:
		return h.instantiateToken(m)
	case vault.MsgTokenMint:
		h.tokenCredit(m.Token, m.Recipient, m.Amount)
		return nil, nil
	case vault.MsgTokenBurn:
		return nil, h.tokenDebit(m.Token, h.contract, m.Amount)
	case vault.MsgBankSend:
		return nil, h.transfer(h.contract, m.Recipient, m.Amount.Denom, m.Amount.Amount)
	case vault.MsgExecuteSelf:
		resp, err := h.engine.Execute(h.callContext(h.contract, nil), m.Msg)
		if err != nil {
			return nil, err
		}
		return resp.Messages, nil
	default:
		return nil, fmt.Errorf("host: unsupported message %q", msg.MsgType())
	}
}

// instantiateToken creates the companion token ledger at a fresh address and
// fires the registration hook back at the vault, mirroring the post-creation
// callback of the real token contract.
func (h *Host) instantiateToken(m vault.MsgTokenInstantiate) ([]vault.Msg, error) {
	h.tokenSeq++
	var token vault.Address
	copy(token[:], []byte("token-contract--"))
	binary.BigEndian.PutUint32(token[16:], uint32(h.tokenSeq))
	h.tokens[token] = make(map[vault.Address]*big.Int)

	resp, err := h.engine.Execute(
		vault.CallContext{Contract: m.RegisterWith, Caller: token},
		vault.ExecuteMsg{RegisterCompanionToken: &vault.RegisterCompanionTokenMsg{}},
	)
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// swap converts the trader's offer into the ask denom at the registered rate,
// flooring the proceeds.
func (h *Host) swap(trader vault.Address, offer vault.Coin, askDenom string) error {
	rate, ok := h.rates[routeKey(offer.Denom, askDenom)]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrNoVenue, offer.Denom, askDenom)
	}
	if err := h.transfer(trader, vault.Address{}, offer.Denom, offer.Amount); err != nil {
		return err
	}
	proceeds := new(big.Int).Mul(offer.Amount, rate.Num())
	proceeds.Quo(proceeds, rate.Denom())
	h.credit(trader, askDenom, proceeds)
	return nil
}

func (h *Host) transfer(from, to vault.Address, denom string, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("host: negative transfer amount")
	}
	bal := h.balance(from, denom)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s needs %s %s", ErrInsufficientFunds, from.Hex(), amount, denom)
	}
	bal.Sub(bal, amount)
	h.credit(to, denom, amount)
	return nil
}

func (h *Host) credit(addr vault.Address, denom string, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	balances, ok := h.bank[addr]
	if !ok {
		balances = make(map[string]*big.Int)
		h.bank[addr] = balances
	}
	bal, ok := balances[denom]
	if !ok {
		bal = big.NewInt(0)
		balances[denom] = bal
	}
	bal.Add(bal, amount)
}

func (h *Host) balance(addr vault.Address, denom string) *big.Int {
	balances, ok := h.bank[addr]
	if !ok {
		balances = make(map[string]*big.Int)
		h.bank[addr] = balances
	}
	bal, ok := balances[denom]
	if !ok {
		bal = big.NewInt(0)
		balances[denom] = bal
	}
	return bal
}

func (h *Host) tokenCredit(token, holder vault.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	holders, ok := h.tokens[token]
	if !ok {
		holders = make(map[vault.Address]*big.Int)
		h.tokens[token] = holders
	}
	bal, ok := holders[holder]
	if !ok {
		bal = big.NewInt(0)
		holders[holder] = bal
	}
	bal.Add(bal, amount)
}

func (h *Host) tokenDebit(token, holder vault.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	holders := h.tokens[token]
	bal, ok := holders[holder]
	if !ok || bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: token balance of %s", ErrInsufficientFunds, holder.Hex())
	}
	bal.Sub(bal, amount)
	return nil
}

func routeKey(offerDenom, askDenom string) string {
	return strings.TrimSpace(offerDenom) + "/" + strings.TrimSpace(askDenom)
}

func snapshotLedger(ledger map[vault.Address]map[string]*big.Int) map[vault.Address]map[string]*big.Int {
	clone := make(map[vault.Address]map[string]*big.Int, len(ledger))
	for addr, balances := range ledger {
		inner := make(map[string]*big.Int, len(balances))
		for denom, bal := range balances {
			inner[denom] = new(big.Int).Set(bal)
		}
		clone[addr] = inner
	}
	return clone
}

func snapshotTokens(ledger map[vault.Address]map[vault.Address]*big.Int) map[vault.Address]map[vault.Address]*big.Int {
	clone := make(map[vault.Address]map[vault.Address]*big.Int, len(ledger))
	for token, holders := range ledger {
		inner := make(map[vault.Address]*big.Int, len(holders))
		for holder, bal := range holders {
			inner[holder] = new(big.Int).Set(bal)
		}
		clone[token] = inner
	}
	return clone
}

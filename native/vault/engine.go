package vault

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"basketvault/core/events"
)

var (
	errNilState   = errors.New("vault engine: state not configured")
	errNilQuerier = errors.New("vault engine: querier not configured")

	// ErrUnauthorized covers registration replays and foreign callers on the
	// self-call-only finalization entry point.
	ErrUnauthorized = errors.New("vault engine: unauthorized")
	// ErrNotInstantiated indicates the config singleton is missing.
	ErrNotInstantiated = errors.New("vault engine: vault not instantiated")
	// ErrAlreadyInstantiated guards against double instantiation.
	ErrAlreadyInstantiated = errors.New("vault engine: vault already instantiated")
	// ErrTokenNotRegistered rejects mint/burn while the companion token is
	// still unbound.
	ErrTokenNotRegistered = errors.New("vault engine: companion token not registered")
	// ErrRedemptionPending rejects a burn while the requester already has an
	// unfinalized redemption in flight.
	ErrRedemptionPending = errors.New("vault engine: redemption already pending")
	// ErrUnknownRedemption indicates the finalization callback found no
	// pending intent for the requester.
	ErrUnknownRedemption = errors.New("vault engine: no pending redemption")
)

type engineState interface {
	LoadConfig() (*Config, bool, error)
	SaveConfig(*Config) error
	LoadState() (*State, bool, error)
	SaveState(*State) error
	PendingGet(requester Address) (*PendingRedemption, bool, error)
	PendingPut(*PendingRedemption) error
	PendingDelete(requester Address) error
}

// Querier exposes the external read-only collaborators the engine trusts
// as-is: point-in-time swap rates, the claim-token ledger, native balances
// and the exchange factory's pair directory.
type Querier interface {
	// SwapRate quotes units of askDenom received per one unit of offerDenom.
	SwapRate(offerDenom, askDenom string) (*big.Rat, error)
	TokenBalance(token, holder Address) (*big.Int, error)
	BankBalance(addr Address, denom string) (*big.Int, error)
	PairAddress(factory Address, offerDenom, askDenom string) (Address, error)
}

// Engine sequences the vault's state transitions and assembles the ordered
// outbound batches. State is mutated and saved before any message is handed
// back for dispatch; the host's all-or-nothing execution makes that safe.
type Engine struct {
	state   engineState
	querier Querier
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a vault engine with a no-op emitter. Callers wire the
// state backend and querier before use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetQuerier configures the external query collaborators.
func (e *Engine) SetQuerier(querier Querier) { e.querier = querier }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// InstantiateParams carries the caller-supplied parameters for vault creation.
type InstantiateParams struct {
	BaseDenom       string
	ReserveDenoms   [numReserves]string
	AllocWeightsBps [numReserves]uint64
	MintStrategy    MintStrategy
	ExchangeFactory Address
	TokenCodeID     uint64
	TokenName       string
	TokenSymbol     string
	TokenDecimals   uint8
}

// Instantiate creates the two singleton records with zeroed state and queues
// the companion-token instantiation, whose post-creation hook drives the
// one-shot registration handshake.
func (e *Engine) Instantiate(ctx CallContext, params InstantiateParams) (*Response, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.LoadConfig(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInstantiated
	}
	cfg := &Config{
		Owner:           ctx.Caller,
		BaseDenom:       params.BaseDenom,
		ExchangeFactory: params.ExchangeFactory,
		ReserveDenoms:   params.ReserveDenoms,
		AllocWeightsBps: params.AllocWeightsBps,
		MintStrategy:    params.MintStrategy,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := e.state.SaveConfig(cfg); err != nil {
		return nil, err
	}
	if err := e.state.SaveState(NewState()); err != nil {
		return nil, err
	}
	return &Response{Messages: []Msg{
		MsgTokenInstantiate{
			CodeID:       params.TokenCodeID,
			Name:         params.TokenName,
			Symbol:       params.TokenSymbol,
			Decimals:     params.TokenDecimals,
			Minter:       ctx.Contract,
			RegisterWith: ctx.Contract,
		},
	}}, nil
}

// Execute dispatches one tagged request to the matching handler.
func (e *Engine) Execute(ctx CallContext, msg ExecuteMsg) (*Response, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case msg.Mint != nil:
		return e.mint(ctx)
	case msg.RegisterCompanionToken != nil:
		return e.registerCompanionToken(ctx)
	case msg.Burn != nil:
		return e.burn(ctx)
	default:
		return e.finalizeRedemption(ctx, msg.FinalizeRedemption.Requester)
	}
}

// registerCompanionToken binds the claim-token address exactly once. The
// caller is the freshly instantiated token contract itself; any attempt after
// the first is rejected.
func (e *Engine) registerCompanionToken(ctx CallContext) (*Response, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.CompanionToken.IsZero() {
		return nil, ErrUnauthorized
	}
	cfg.CompanionToken = ctx.Caller
	if err := e.state.SaveConfig(cfg); err != nil {
		return nil, err
	}
	e.emit(NewTokenRegisteredEvent(ctx.Caller))
	return &Response{}, nil
}

// mint accepts a base-denom deposit, commits the accounting synchronously and
// queues the asset purchases plus the claim mint. Batch order: pair swap into
// asset A, pair swap into asset B, market swap into the native asset, then
// the token mint to the depositor.
func (e *Engine) mint(ctx CallContext) (*Response, error) {
	if e.querier == nil {
		return nil, errNilQuerier
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.CompanionToken.IsZero() {
		return nil, ErrTokenNotRegistered
	}
	deposit := ctx.fundsAmount(cfg.BaseDenom)
	if deposit.Sign() == 0 {
		return nil, ErrZeroDeposit
	}
	st, err := e.loadState()
	if err != nil {
		return nil, err
	}
	rates, err := e.quoteRates(cfg)
	if err != nil {
		return nil, err
	}
	alloc, err := ComputeAllocation(cfg, st, deposit, rates)
	if err != nil {
		return nil, err
	}

	for _, asset := range reserveAssets {
		st.Reserves[asset].Add(st.Reserves[asset], alloc.Purchases[asset])
	}
	st.TotalSupply.Add(st.TotalSupply, alloc.MintAmount)
	if err := e.state.SaveState(st); err != nil {
		return nil, err
	}

	msgs := make([]Msg, 0, numReserves+1)
	for _, asset := range reserveAssets {
		msg, err := e.swapMsg(cfg, ctx.Contract, asset, Coin{Denom: cfg.BaseDenom, Amount: alloc.Targets[asset]}, cfg.ReserveDenoms[asset])
		if err != nil {
			return nil, err
		}
		if msg != nil {
			msgs = append(msgs, msg)
		}
	}
	msgs = append(msgs, MsgTokenMint{
		Token:     cfg.CompanionToken,
		Recipient: ctx.Caller,
		Amount:    alloc.MintAmount,
	})
	e.emit(NewMintedEvent(ctx.Caller, deposit, alloc))
	return &Response{Messages: msgs}, nil
}

// burn redeems the vault's entire claim-token holding for the caller. The
// accounting commit and the pending intent land synchronously; the swaps,
// the token burn and the self-invoked finalization run in later turns. Batch
// order: pair swap A back to base, pair swap B back to base, market swap of
// the native slice, token burn, self-execute finalize.
func (e *Engine) burn(ctx CallContext) (*Response, error) {
	if e.querier == nil {
		return nil, errNilQuerier
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.CompanionToken.IsZero() {
		return nil, ErrTokenNotRegistered
	}
	if _, ok, err := e.state.PendingGet(ctx.Caller); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrRedemptionPending
	}
	available, err := e.querier.TokenBalance(cfg.CompanionToken, ctx.Contract)
	if err != nil {
		return nil, err
	}
	st, err := e.loadState()
	if err != nil {
		return nil, err
	}
	rates, err := e.quoteRates(cfg)
	if err != nil {
		return nil, err
	}
	redemption, err := ComputeRedemption(cfg, st, available, rates)
	if err != nil {
		return nil, err
	}

	for _, asset := range reserveAssets {
		st.Reserves[asset].Sub(st.Reserves[asset], redemption.Slices[asset])
	}
	st.TotalSupply.Sub(st.TotalSupply, redemption.BurnAmount)
	if err := e.state.SaveState(st); err != nil {
		return nil, err
	}
	if err := e.state.PendingPut(&PendingRedemption{
		Requester:        ctx.Caller,
		BurnAmount:       redemption.BurnAmount,
		ExpectedProceeds: redemption.ExpectedProceeds,
		CreatedAt:        e.now(),
	}); err != nil {
		return nil, err
	}

	msgs := make([]Msg, 0, numReserves+2)
	for _, asset := range reserveAssets {
		msg, err := e.swapMsg(cfg, ctx.Contract, asset, Coin{Denom: cfg.ReserveDenoms[asset], Amount: redemption.Slices[asset]}, cfg.BaseDenom)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			msgs = append(msgs, msg)
		}
	}
	msgs = append(msgs,
		MsgTokenBurn{Token: cfg.CompanionToken, Amount: redemption.BurnAmount},
		MsgExecuteSelf{
			Contract: ctx.Contract,
			Msg:      ExecuteMsg{FinalizeRedemption: &FinalizeRedemptionMsg{Requester: ctx.Caller}},
		},
	)
	e.emit(NewBurnedEvent(ctx.Caller, redemption))
	return &Response{Messages: msgs}, nil
}

// finalizeRedemption is the deferred second phase of a redemption. Only the
// vault itself may invoke it. It consumes the pending intent, reads the
// settled base balance and pays out at most the proceeds expected at burn
// time, leaving unrelated balance untouched.
func (e *Engine) finalizeRedemption(ctx CallContext, requester Address) (*Response, error) {
	if ctx.Caller != ctx.Contract {
		return nil, ErrUnauthorized
	}
	if e.querier == nil {
		return nil, errNilQuerier
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	pending, ok, err := e.state.PendingGet(requester)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: requester %s", ErrUnknownRedemption, requester.Hex())
	}
	balance, err := e.querier.BankBalance(ctx.Contract, cfg.BaseDenom)
	if err != nil {
		return nil, err
	}
	payout := cloneBigInt(pending.ExpectedProceeds)
	if balance == nil {
		balance = big.NewInt(0)
	}
	if payout.Cmp(balance) > 0 {
		payout.Set(balance)
	}
	if err := e.state.PendingDelete(requester); err != nil {
		return nil, err
	}
	resp := &Response{}
	if payout.Sign() > 0 {
		resp.Messages = append(resp.Messages, MsgBankSend{
			Recipient: requester,
			Amount:    Coin{Denom: cfg.BaseDenom, Amount: payout},
		})
	}
	e.emit(NewRedemptionFinalizedEvent(requester, payout, pending))
	return resp, nil
}

// swapMsg builds the venue-appropriate conversion for one asset: a dex pair
// swap for the two pair-traded assets, a market swap for the native one. A
// zero offer produces no message.
func (e *Engine) swapMsg(cfg *Config, trader Address, asset ReserveAsset, offer Coin, askDenom string) (Msg, error) {
	if offer.Amount == nil || offer.Amount.Sign() == 0 {
		return nil, nil
	}
	if asset == ReserveNative {
		return MsgSwapMarket{Trader: trader, Offer: offer, AskDenom: askDenom}, nil
	}
	pair, err := e.querier.PairAddress(cfg.ExchangeFactory, offer.Denom, askDenom)
	if err != nil {
		return nil, fmt.Errorf("vault engine: resolve pair %s/%s: %w", offer.Denom, askDenom, err)
	}
	return MsgSwapPair{Pair: pair, Trader: trader, Offer: offer, AskDenom: askDenom}, nil
}

// quoteRates fetches the base-unit value of one unit of every reserve asset.
func (e *Engine) quoteRates(cfg *Config) ([numReserves]*big.Rat, error) {
	var rates [numReserves]*big.Rat
	for _, asset := range reserveAssets {
		rate, err := e.querier.SwapRate(cfg.ReserveDenoms[asset], cfg.BaseDenom)
		if err != nil {
			return rates, fmt.Errorf("%w: %s: %v", ErrRateUnavailable, asset, err)
		}
		if rate == nil || rate.Sign() <= 0 {
			return rates, fmt.Errorf("%w: %s", ErrRateUnavailable, asset)
		}
		rates[asset] = rate
	}
	return rates, nil
}

func (e *Engine) loadConfig() (*Config, error) {
	cfg, ok, err := e.state.LoadConfig()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInstantiated
	}
	return cfg, nil
}

func (e *Engine) loadState() (*State, error) {
	st, ok, err := e.state.LoadState()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInstantiated
	}
	st.Normalize()
	return st, nil
}

func (e *Engine) emit(event *vaultEvent) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

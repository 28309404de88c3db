package vault

import (
	"fmt"
	"math/big"
	"strings"
)

// Storage abstracts the subset of key-value functionality required by the
// vault store. storage.KVStore satisfies it.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

var (
	configKey     = []byte("vault/config")
	stateKey      = []byte("vault/state")
	pendingPrefix = []byte("vault/pending/")
)

type storedConfig struct {
	Owner           [20]byte
	BaseDenom       string
	CompanionToken  [20]byte
	ExchangeFactory [20]byte
	ReserveDenoms   [numReserves]string
	AllocWeightsBps [numReserves]uint64
	MintStrategy    uint8
}

type storedState struct {
	TotalSupply string
	Reserves    [numReserves]string
}

type storedPendingRedemption struct {
	Requester        [20]byte
	BurnAmount       string
	ExpectedProceeds string
	CreatedAt        uint64
}

// Store persists the two singleton records and the pending-redemption intents
// in the vault's private key-value namespace.
type Store struct {
	store Storage
}

// NewStore constructs a store bound to the provided storage backend.
func NewStore(store Storage) *Store {
	return &Store{store: store}
}

// LoadConfig retrieves the config singleton. The boolean reports presence.
func (s *Store) LoadConfig() (*Config, bool, error) {
	if s == nil || s.store == nil {
		return nil, false, fmt.Errorf("vault store not initialised")
	}
	var stored storedConfig
	ok, err := s.store.KVGet(configKey, &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg := &Config{
		Owner:           stored.Owner,
		BaseDenom:       stored.BaseDenom,
		CompanionToken:  stored.CompanionToken,
		ExchangeFactory: stored.ExchangeFactory,
		ReserveDenoms:   stored.ReserveDenoms,
		AllocWeightsBps: stored.AllocWeightsBps,
		MintStrategy:    MintStrategy(stored.MintStrategy),
	}
	return cfg, true, nil
}

// SaveConfig writes the config singleton.
func (s *Store) SaveConfig(cfg *Config) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("vault store not initialised")
	}
	if cfg == nil {
		return fmt.Errorf("vault store: config must not be nil")
	}
	stored := storedConfig{
		Owner:           cfg.Owner,
		BaseDenom:       strings.TrimSpace(cfg.BaseDenom),
		CompanionToken:  cfg.CompanionToken,
		ExchangeFactory: cfg.ExchangeFactory,
		MintStrategy:    uint8(cfg.MintStrategy),
	}
	for i := range cfg.ReserveDenoms {
		stored.ReserveDenoms[i] = strings.TrimSpace(cfg.ReserveDenoms[i])
	}
	stored.AllocWeightsBps = cfg.AllocWeightsBps
	return s.store.KVPut(configKey, stored)
}

// LoadState retrieves the vault state singleton. The boolean reports presence.
func (s *Store) LoadState() (*State, bool, error) {
	if s == nil || s.store == nil {
		return nil, false, fmt.Errorf("vault store not initialised")
	}
	var stored storedState
	ok, err := s.store.KVGet(stateKey, &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	st := NewState()
	supply, err := parseAmount(stored.TotalSupply)
	if err != nil {
		return nil, false, fmt.Errorf("vault store: total supply: %w", err)
	}
	st.TotalSupply = supply
	for i := range stored.Reserves {
		reserve, err := parseAmount(stored.Reserves[i])
		if err != nil {
			return nil, false, fmt.Errorf("vault store: reserve %d: %w", i, err)
		}
		st.Reserves[i] = reserve
	}
	return st, true, nil
}

// SaveState writes the vault state singleton.
func (s *Store) SaveState(st *State) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("vault store not initialised")
	}
	if st == nil {
		return fmt.Errorf("vault store: state must not be nil")
	}
	if st.TotalSupply != nil && st.TotalSupply.Sign() < 0 {
		return fmt.Errorf("vault store: total supply must not be negative")
	}
	stored := storedState{TotalSupply: formatAmount(st.TotalSupply)}
	for i := range st.Reserves {
		if st.Reserves[i] != nil && st.Reserves[i].Sign() < 0 {
			return fmt.Errorf("vault store: reserve %d must not be negative", i)
		}
		stored.Reserves[i] = formatAmount(st.Reserves[i])
	}
	return s.store.KVPut(stateKey, stored)
}

// PendingGet retrieves the pending redemption for the requester, if any.
func (s *Store) PendingGet(requester Address) (*PendingRedemption, bool, error) {
	if s == nil || s.store == nil {
		return nil, false, fmt.Errorf("vault store not initialised")
	}
	var stored storedPendingRedemption
	ok, err := s.store.KVGet(pendingKey(requester), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	burn, err := parseAmount(stored.BurnAmount)
	if err != nil {
		return nil, false, fmt.Errorf("vault store: pending burn amount: %w", err)
	}
	expected, err := parseAmount(stored.ExpectedProceeds)
	if err != nil {
		return nil, false, fmt.Errorf("vault store: pending proceeds: %w", err)
	}
	record := &PendingRedemption{
		Requester:        stored.Requester,
		BurnAmount:       burn,
		ExpectedProceeds: expected,
		CreatedAt:        int64(stored.CreatedAt),
	}
	return record, true, nil
}

// PendingPut stores the pending redemption keyed by its requester.
func (s *Store) PendingPut(record *PendingRedemption) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("vault store not initialised")
	}
	if record == nil {
		return fmt.Errorf("vault store: pending record must not be nil")
	}
	if record.Requester.IsZero() {
		return fmt.Errorf("vault store: pending requester required")
	}
	stored := storedPendingRedemption{
		Requester:        record.Requester,
		BurnAmount:       formatAmount(record.BurnAmount),
		ExpectedProceeds: formatAmount(record.ExpectedProceeds),
	}
	if record.CreatedAt > 0 {
		stored.CreatedAt = uint64(record.CreatedAt)
	}
	return s.store.KVPut(pendingKey(record.Requester), stored)
}

// PendingDelete removes the pending redemption for the requester.
func (s *Store) PendingDelete(requester Address) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("vault store not initialised")
	}
	return s.store.KVDelete(pendingKey(requester))
}

func pendingKey(requester Address) []byte {
	buf := make([]byte, len(pendingPrefix)+len(requester))
	copy(buf, pendingPrefix)
	copy(buf[len(pendingPrefix):], requester[:])
	return buf
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", value)
	}
	return amount, nil
}

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

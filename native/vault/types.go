package vault

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Address identifies an account or contract on the host chain.
type Address [20]byte

// IsZero reports whether the address is the empty sentinel.
func (a Address) IsZero() bool { return a == (Address{}) }

// Hex renders the address as a lowercase hex string without prefix.
func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// MarshalText renders the address as hex for JSON payloads.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText parses a hex address from JSON payloads.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress decodes a 20-byte hex address, tolerating an optional 0x prefix.
func ParseAddress(value string) (Address, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return Address{}, fmt.Errorf("vault: invalid address %q: %w", value, err)
	}
	if len(raw) != 20 {
		return Address{}, fmt.Errorf("vault: invalid address length %d", len(raw))
	}
	var addr Address
	copy(addr[:], raw)
	return addr, nil
}

// ReserveAsset indexes one of the three assets backing the vault.
type ReserveAsset uint8

const (
	// ReserveNative is swapped against the base denom on the native market.
	ReserveNative ReserveAsset = iota
	// ReserveAssetA is swapped through a factory-resolved dex pair.
	ReserveAssetA
	// ReserveAssetB is swapped through a factory-resolved dex pair.
	ReserveAssetB

	numReserves = 3
)

// reserveAssets lists every asset in the canonical allocation order: the two
// pair-traded assets first, then the native one. Mint and burn batches follow
// this order so the two paths stay inverse of each other.
var reserveAssets = [numReserves]ReserveAsset{ReserveAssetA, ReserveAssetB, ReserveNative}

// Valid reports whether the value is within the supported range.
func (a ReserveAsset) Valid() bool { return a < numReserves }

func (a ReserveAsset) String() string {
	switch a {
	case ReserveNative:
		return "native"
	case ReserveAssetA:
		return "asset_a"
	case ReserveAssetB:
		return "asset_b"
	default:
		return fmt.Sprintf("reserve(%d)", uint8(a))
	}
}

// MintStrategy selects how claim amounts are priced on deposit.
type MintStrategy uint8

const (
	// MintDirect mints claims 1:1 against the deposited base amount.
	MintDirect MintStrategy = iota
	// MintProRata prices claims against the current pool value.
	MintProRata
)

// Valid reports whether the strategy value is supported.
func (s MintStrategy) Valid() bool {
	switch s {
	case MintDirect, MintProRata:
		return true
	default:
		return false
	}
}

func (s MintStrategy) String() string {
	switch s {
	case MintDirect:
		return "direct"
	case MintProRata:
		return "pro_rata"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// ParseMintStrategy resolves the canonical string form of a strategy.
func ParseMintStrategy(value string) (MintStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "direct":
		return MintDirect, nil
	case "pro_rata", "prorata":
		return MintProRata, nil
	default:
		return 0, fmt.Errorf("vault: unknown mint strategy %q", value)
	}
}

// Config captures the write-once parameters of the vault. CompanionToken
// starts as the zero sentinel and is bound exactly once through the
// registration handshake.
type Config struct {
	Owner           Address
	BaseDenom       string
	CompanionToken  Address
	ExchangeFactory Address
	ReserveDenoms   [numReserves]string
	// AllocWeightsBps holds the basis-point split per reserve asset and must
	// sum to exactly 10,000.
	AllocWeightsBps [numReserves]uint64
	MintStrategy    MintStrategy
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Validate checks the configuration invariants before it is persisted.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("vault: nil config")
	}
	if c.Owner.IsZero() {
		return fmt.Errorf("vault: owner required")
	}
	if strings.TrimSpace(c.BaseDenom) == "" {
		return fmt.Errorf("vault: base denom required")
	}
	var sum uint64
	for _, asset := range reserveAssets {
		denom := strings.TrimSpace(c.ReserveDenoms[asset])
		if denom == "" {
			return fmt.Errorf("vault: reserve denom for %s required", asset)
		}
		if denom == c.BaseDenom {
			return fmt.Errorf("vault: reserve denom %s conflicts with base denom", denom)
		}
		sum += c.AllocWeightsBps[asset]
	}
	if sum != totalWeightBps {
		return fmt.Errorf("vault: allocation weights sum to %d, want %d", sum, totalWeightBps)
	}
	if !c.MintStrategy.Valid() {
		return fmt.Errorf("vault: invalid mint strategy: %d", c.MintStrategy)
	}
	return nil
}

// State tracks the vault's own bookkeeping: outstanding claim supply and the
// believed reserve holdings, each denominated in the reserve asset's own unit.
// Holdings are not re-marked between operations; they move only on mint and
// burn at the rates quoted at call time.
type State struct {
	TotalSupply *big.Int
	Reserves    [numReserves]*big.Int
}

// NewState returns a zeroed vault state.
func NewState() *State {
	st := &State{TotalSupply: big.NewInt(0)}
	for i := range st.Reserves {
		st.Reserves[i] = big.NewInt(0)
	}
	return st
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := &State{TotalSupply: cloneBigInt(s.TotalSupply)}
	for i := range s.Reserves {
		clone.Reserves[i] = cloneBigInt(s.Reserves[i])
	}
	return clone
}

// Normalize replaces nil amounts with zero so arithmetic never sees nil.
func (s *State) Normalize() {
	if s == nil {
		return
	}
	if s.TotalSupply == nil {
		s.TotalSupply = big.NewInt(0)
	}
	for i := range s.Reserves {
		if s.Reserves[i] == nil {
			s.Reserves[i] = big.NewInt(0)
		}
	}
}

// PendingRedemption is the intent record persisted between the burn phase and
// the self-invoked finalization phase of a redemption saga.
type PendingRedemption struct {
	Requester Address
	// BurnAmount is the claim amount burned when the intent was created.
	BurnAmount *big.Int
	// ExpectedProceeds caps the payout in base units, quoted at burn time, so
	// unrelated vault balance never leaks to the redeemer.
	ExpectedProceeds *big.Int
	CreatedAt        int64
}

// Clone returns a deep copy of the pending record.
func (p *PendingRedemption) Clone() *PendingRedemption {
	if p == nil {
		return nil
	}
	clone := *p
	clone.BurnAmount = cloneBigInt(p.BurnAmount)
	clone.ExpectedProceeds = cloneBigInt(p.ExpectedProceeds)
	return &clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

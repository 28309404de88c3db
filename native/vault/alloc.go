package vault

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrZeroDeposit indicates the call attached no base-denom funds.
	ErrZeroDeposit = errors.New("vault: deposit amount must be positive")
	// ErrRateUnavailable indicates a swap rate was missing or zero.
	ErrRateUnavailable = errors.New("vault: swap rate unavailable")
)

// AllocationResult carries the outcome of pricing a deposit against the
// configured weights and the point-in-time swap rates.
type AllocationResult struct {
	// Targets is the base-unit amount routed to each reserve asset,
	// floor(deposit * weight / 10_000).
	Targets [numReserves]*big.Int
	// Purchases is the reserve-asset quantity obtainable for each target at
	// the quoted rate, floor(target / rate).
	Purchases [numReserves]*big.Int
	// PoolValue is the pre-deposit reserve valuation in base units.
	PoolValue *big.Int
	// MintAmount is the claim amount to mint for the depositor.
	MintAmount *big.Int
}

// ComputeAllocation splits a base-denom deposit across the reserve assets and
// prices the claim mint. rates[asset] is the base-unit value of one unit of
// the asset; every rate must be present and positive. The function is pure:
// callers apply the resulting purchases and mint amount to state themselves.
func ComputeAllocation(cfg *Config, st *State, deposit *big.Int, rates [numReserves]*big.Rat) (*AllocationResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("vault: nil config")
	}
	if st == nil {
		return nil, fmt.Errorf("vault: nil state")
	}
	if deposit == nil || deposit.Sign() <= 0 {
		return nil, ErrZeroDeposit
	}
	for _, asset := range reserveAssets {
		if rates[asset] == nil || rates[asset].Sign() <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrRateUnavailable, asset)
		}
	}

	result := &AllocationResult{}
	for _, asset := range reserveAssets {
		target := applyBps(deposit, cfg.AllocWeightsBps[asset])
		result.Targets[asset] = target
		result.Purchases[asset] = divRatFloor(target, rates[asset])
	}

	result.PoolValue = poolValue(st, rates)

	switch cfg.MintStrategy {
	case MintProRata:
		divisor := result.PoolValue
		if divisor.Sign() == 0 {
			divisor = nominalPoolDivisor
		}
		supply := st.TotalSupply
		if supply == nil || supply.Sign() == 0 {
			supply = big.NewInt(1)
		}
		result.MintAmount = mulDivFloor(supply, deposit, divisor)
	default:
		// Direct pricing: first-come 1:1 against the base unit.
		result.MintAmount = new(big.Int).Set(deposit)
	}
	return result, nil
}

// poolValue sums the reserve holdings valued at the quoted rates, flooring per
// asset. Dust lost to flooring stays with the vault.
func poolValue(st *State, rates [numReserves]*big.Rat) *big.Int {
	value := big.NewInt(0)
	if st == nil {
		return value
	}
	for _, asset := range reserveAssets {
		value.Add(value, mulRatFloor(st.Reserves[asset], rates[asset]))
	}
	return value
}

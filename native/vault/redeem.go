package vault

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrZeroSupply indicates a redemption was attempted with no claims
	// outstanding.
	ErrZeroSupply = errors.New("vault: no outstanding claim supply")
	// ErrNothingToRedeem indicates the vault holds no claim tokens to redeem.
	ErrNothingToRedeem = errors.New("vault: no claim tokens to redeem")
	// ErrRedeemExceedsSupply indicates the redeemable amount is larger than
	// the tracked supply, which would underflow on burn.
	ErrRedeemExceedsSupply = errors.New("vault: redemption exceeds total supply")
)

// RedemptionResult carries the proportional liquidation of a claim redemption.
type RedemptionResult struct {
	// Slices is the reserve-asset quantity liquidated per asset,
	// floor(floor(reserve * available / supply) * weight / 10_000).
	Slices [numReserves]*big.Int
	// BurnAmount is the claim amount burned, always the full available amount.
	BurnAmount *big.Int
	// ExpectedProceeds values the slices in base units at the quoted rates.
	// It caps the later payout so unrelated balance never leaks.
	ExpectedProceeds *big.Int
}

// ComputeRedemption derives the proportional slice of each reserve asset for
// the claim amount available to redeem. Flooring mirrors the allocation path
// step for step so mint and redeem stay inverse up to rounding loss. The
// function is pure; callers apply the slices and burn to state themselves.
func ComputeRedemption(cfg *Config, st *State, available *big.Int, rates [numReserves]*big.Rat) (*RedemptionResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("vault: nil config")
	}
	if st == nil {
		return nil, fmt.Errorf("vault: nil state")
	}
	if available == nil || available.Sign() == 0 {
		return nil, ErrNothingToRedeem
	}
	if available.Sign() < 0 {
		return nil, ErrRedeemExceedsSupply
	}
	if st.TotalSupply == nil || st.TotalSupply.Sign() == 0 {
		return nil, ErrZeroSupply
	}
	if available.Cmp(st.TotalSupply) > 0 {
		return nil, ErrRedeemExceedsSupply
	}
	for _, asset := range reserveAssets {
		if rates[asset] == nil || rates[asset].Sign() <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrRateUnavailable, asset)
		}
	}

	result := &RedemptionResult{
		BurnAmount:       new(big.Int).Set(available),
		ExpectedProceeds: big.NewInt(0),
	}
	for _, asset := range reserveAssets {
		share := mulDivFloor(st.Reserves[asset], available, st.TotalSupply)
		slice := applyBps(share, cfg.AllocWeightsBps[asset])
		if slice.Cmp(st.Reserves[asset]) > 0 {
			slice = new(big.Int).Set(st.Reserves[asset])
		}
		result.Slices[asset] = slice
		result.ExpectedProceeds.Add(result.ExpectedProceeds, mulRatFloor(slice, rates[asset]))
	}
	return result, nil
}

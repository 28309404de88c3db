package vault

import (
	"errors"
	"math/big"
	"testing"
)

func testConfig(strategy MintStrategy) *Config {
	cfg := &Config{
		Owner:        Address{0xaa},
		BaseDenom:    "uusd",
		MintStrategy: strategy,
	}
	cfg.ReserveDenoms[ReserveNative] = "uluna"
	cfg.ReserveDenoms[ReserveAssetA] = "uanc"
	cfg.ReserveDenoms[ReserveAssetB] = "umir"
	cfg.AllocWeightsBps[ReserveNative] = 5_000
	cfg.AllocWeightsBps[ReserveAssetA] = 2_500
	cfg.AllocWeightsBps[ReserveAssetB] = 2_500
	return cfg
}

func testRates() [numReserves]*big.Rat {
	var rates [numReserves]*big.Rat
	rates[ReserveNative] = big.NewRat(98_760, 100_000)
	rates[ReserveAssetA] = big.NewRat(6_068, 1)
	rates[ReserveAssetB] = big.NewRat(131_045, 1)
	return rates
}

func unitRates() [numReserves]*big.Rat {
	var rates [numReserves]*big.Rat
	for i := range rates {
		rates[i] = big.NewRat(1, 1)
	}
	return rates
}

func TestComputeAllocationSplitsDeposit(t *testing.T) {
	cfg := testConfig(MintDirect)
	alloc, err := ComputeAllocation(cfg, NewState(), big.NewInt(100_000), testRates())
	if err != nil {
		t.Fatalf("compute allocation: %v", err)
	}
	if got := alloc.Targets[ReserveNative]; got.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("native target = %s, want 50000", got)
	}
	if got := alloc.Targets[ReserveAssetA]; got.Cmp(big.NewInt(25_000)) != 0 {
		t.Fatalf("asset a target = %s, want 25000", got)
	}
	if got := alloc.Targets[ReserveAssetB]; got.Cmp(big.NewInt(25_000)) != 0 {
		t.Fatalf("asset b target = %s, want 25000", got)
	}
	// floor(50000 * 100000 / 98760), floor(25000 / 6068), floor(25000 / 131045)
	if got := alloc.Purchases[ReserveNative]; got.Cmp(big.NewInt(50_627)) != 0 {
		t.Fatalf("native purchase = %s, want 50627", got)
	}
	if got := alloc.Purchases[ReserveAssetA]; got.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("asset a purchase = %s, want 4", got)
	}
	if got := alloc.Purchases[ReserveAssetB]; got.Sign() != 0 {
		t.Fatalf("asset b purchase = %s, want 0", got)
	}
	if got := alloc.MintAmount; got.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("mint amount = %s, want 100000", got)
	}
}

func TestComputeAllocationTargetsNeverExceedDeposit(t *testing.T) {
	weightSets := [][numReserves]uint64{
		{ReserveNative: 5_000, ReserveAssetA: 2_500, ReserveAssetB: 2_500},
		{ReserveNative: 9_998, ReserveAssetA: 1, ReserveAssetB: 1},
		{ReserveNative: 3_333, ReserveAssetA: 3_333, ReserveAssetB: 3_334},
	}
	deposits := []int64{1, 2, 3, 7, 99, 10_001, 999_983}
	for _, weights := range weightSets {
		cfg := testConfig(MintDirect)
		cfg.AllocWeightsBps = weights
		for _, deposit := range deposits {
			alloc, err := ComputeAllocation(cfg, NewState(), big.NewInt(deposit), unitRates())
			if err != nil {
				t.Fatalf("weights %v deposit %d: %v", weights, deposit, err)
			}
			sum := big.NewInt(0)
			for _, asset := range reserveAssets {
				sum.Add(sum, alloc.Targets[asset])
			}
			if sum.Cmp(big.NewInt(deposit)) > 0 {
				t.Fatalf("weights %v deposit %d: targets sum %s exceeds deposit", weights, deposit, sum)
			}
		}
	}
}

func TestComputeAllocationRejectsZeroDeposit(t *testing.T) {
	cfg := testConfig(MintDirect)
	if _, err := ComputeAllocation(cfg, NewState(), big.NewInt(0), unitRates()); !errors.Is(err, ErrZeroDeposit) {
		t.Fatalf("zero deposit: got %v, want ErrZeroDeposit", err)
	}
	if _, err := ComputeAllocation(cfg, NewState(), nil, unitRates()); !errors.Is(err, ErrZeroDeposit) {
		t.Fatalf("nil deposit: got %v, want ErrZeroDeposit", err)
	}
}

func TestComputeAllocationRejectsMissingRate(t *testing.T) {
	cfg := testConfig(MintDirect)
	rates := unitRates()
	rates[ReserveAssetB] = nil
	if _, err := ComputeAllocation(cfg, NewState(), big.NewInt(1_000), rates); !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("missing rate: got %v, want ErrRateUnavailable", err)
	}
	rates[ReserveAssetB] = big.NewRat(0, 1)
	if _, err := ComputeAllocation(cfg, NewState(), big.NewInt(1_000), rates); !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("zero rate: got %v, want ErrRateUnavailable", err)
	}
}

func TestComputeAllocationProRataEmptyPool(t *testing.T) {
	cfg := testConfig(MintProRata)
	alloc, err := ComputeAllocation(cfg, NewState(), big.NewInt(1_000_000), unitRates())
	if err != nil {
		t.Fatalf("compute allocation: %v", err)
	}
	if alloc.PoolValue.Sign() != 0 {
		t.Fatalf("pool value = %s, want 0", alloc.PoolValue)
	}
	// Empty pool: effective supply 1, divisor substitutes the nominal 100000.
	if got := alloc.MintAmount; got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("mint amount = %s, want 10", got)
	}
}

func TestComputeAllocationProRataTracksPoolValue(t *testing.T) {
	cfg := testConfig(MintProRata)
	st := NewState()
	st.TotalSupply = big.NewInt(20_000)
	st.Reserves[ReserveNative] = big.NewInt(5_000)
	st.Reserves[ReserveAssetA] = big.NewInt(2_500)
	st.Reserves[ReserveAssetB] = big.NewInt(2_500)
	alloc, err := ComputeAllocation(cfg, st, big.NewInt(1_000), unitRates())
	if err != nil {
		t.Fatalf("compute allocation: %v", err)
	}
	if got := alloc.PoolValue; got.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("pool value = %s, want 10000", got)
	}
	// floor(20000 * 1000 / 10000)
	if got := alloc.MintAmount; got.Cmp(big.NewInt(2_000)) != 0 {
		t.Fatalf("mint amount = %s, want 2000", got)
	}
}

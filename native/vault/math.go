package vault

import "math/big"

// totalWeightBps is the fixed sum every allocation weight set must reach.
const totalWeightBps = 10_000

// nominalPoolDivisor substitutes for the pool value in pro-rata pricing while
// the pool is empty, so the very first deposit never divides by zero.
var nominalPoolDivisor = big.NewInt(100_000)

var basisPoints = big.NewInt(totalWeightBps)

// applyBps returns floor(amount * bps / 10_000).
func applyBps(amount *big.Int, bps uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return out.Quo(out, basisPoints)
}

// mulRatFloor returns floor(amount * rate).
func mulRatFloor(amount *big.Int, rate *big.Rat) *big.Int {
	if amount == nil || amount.Sign() <= 0 || rate == nil || rate.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, rate.Num())
	return out.Quo(out, rate.Denom())
}

// divRatFloor returns floor(amount / rate).
func divRatFloor(amount *big.Int, rate *big.Rat) *big.Int {
	if amount == nil || amount.Sign() <= 0 || rate == nil || rate.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, rate.Denom())
	return out.Quo(out, rate.Num())
}

// mulDivFloor returns floor(a * b / c). The caller guarantees c != 0.
func mulDivFloor(a, b, c *big.Int) *big.Int {
	if a == nil || b == nil || a.Sign() <= 0 || b.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(a, b)
	return out.Quo(out, c)
}

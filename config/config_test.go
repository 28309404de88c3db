package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"basketvault/native/vault"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.NoError(t, cfg.Validate())
	require.Equal(t, ":8661", cfg.ListenAddress)
	require.Equal(t, "uusd", cfg.BaseDenom)

	// A second load reads the file just written.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	seed, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, seed)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(raw, []byte("\nBogusKey = true\n")...), 0o644))

	_, err = Load(path)
	require.ErrorContains(t, err, "unknown key")
}

func TestValidateWeightSum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.AllocNativeBps = 5_001
	require.ErrorContains(t, cfg.Validate(), "weights sum")
}

func TestValidateRequiresRates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Rates = cfg.Rates[:2]
	require.ErrorContains(t, cfg.Validate(), "missing rate")

	cfg, err = Load(path)
	require.NoError(t, err)
	cfg.Rates[0].Denominator = 0
	require.ErrorContains(t, cfg.Validate(), "must be positive")
}

func TestRateFor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	cfg, err := Load(path)
	require.NoError(t, err)

	rate, ok := cfg.RateFor("uanc")
	require.True(t, ok)
	require.Zero(t, rate.Cmp(big.NewRat(6_068, 1)))

	_, ok = cfg.RateFor("ukrw")
	require.False(t, ok)
}

func TestInstantiateParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	cfg, err := Load(path)
	require.NoError(t, err)

	params, err := cfg.InstantiateParams()
	require.NoError(t, err)
	require.Equal(t, "uusd", params.BaseDenom)
	require.Equal(t, vault.MintDirect, params.MintStrategy)
	require.Equal(t, "uluna", params.ReserveDenoms[vault.ReserveNative])
	require.Equal(t, "uanc", params.ReserveDenoms[vault.ReserveAssetA])
	require.Equal(t, "umir", params.ReserveDenoms[vault.ReserveAssetB])
	require.Equal(t, uint64(5_000), params.AllocWeightsBps[vault.ReserveNative])
	require.Equal(t, uint8(6), params.TokenDecimals)

	cfg.MintStrategy = "pro_rata"
	params, err = cfg.InstantiateParams()
	require.NoError(t, err)
	require.Equal(t, vault.MintProRata, params.MintStrategy)

	cfg.MintStrategy = "bogus"
	_, err = cfg.InstantiateParams()
	require.Error(t, err)
}

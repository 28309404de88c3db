package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"basketvault/native/vault"
)

// Rate quotes the base-unit value of one unit of a reserve denom as a
// rational, e.g. Numerator=6068, Denominator=1 for an asset worth 6068 base
// units.
type Rate struct {
	Denom       string `toml:"Denom"`
	Numerator   uint64 `toml:"Numerator"`
	Denominator uint64 `toml:"Denominator"`
}

// Config carries the vaultd service configuration.
type Config struct {
	ListenAddress  string `toml:"ListenAddress"`
	DataDir        string `toml:"DataDir"`
	Environment    string `toml:"Environment"`
	Operator       string `toml:"Operator"`
	BaseDenom      string `toml:"BaseDenom"`
	NativeDenom    string `toml:"NativeDenom"`
	AssetADenom    string `toml:"AssetADenom"`
	AssetBDenom    string `toml:"AssetBDenom"`
	AllocNativeBps uint64 `toml:"AllocNativeBps"`
	AllocAssetABps uint64 `toml:"AllocAssetABps"`
	AllocAssetBBps uint64 `toml:"AllocAssetBBps"`
	MintStrategy   string `toml:"MintStrategy"`
	TokenCodeID    uint64 `toml:"TokenCodeID"`
	TokenName      string `toml:"TokenName"`
	TokenSymbol    string `toml:"TokenSymbol"`
	TokenDecimals  uint8  `toml:"TokenDecimals"`
	Rates          []Rate `toml:"Rates"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	for _, undecoded := range meta.Undecoded() {
		return nil, fmt.Errorf("config: unknown key %q in %s", undecoded.String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the service configuration before the vault is deployed.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if _, err := vault.ParseAddress(c.Operator); err != nil {
		return fmt.Errorf("config: Operator: %w", err)
	}
	if strings.TrimSpace(c.BaseDenom) == "" {
		return fmt.Errorf("config: BaseDenom required")
	}
	denoms := map[string]string{
		"NativeDenom": c.NativeDenom,
		"AssetADenom": c.AssetADenom,
		"AssetBDenom": c.AssetBDenom,
	}
	for field, denom := range denoms {
		if strings.TrimSpace(denom) == "" {
			return fmt.Errorf("config: %s required", field)
		}
	}
	if sum := c.AllocNativeBps + c.AllocAssetABps + c.AllocAssetBBps; sum != 10_000 {
		return fmt.Errorf("config: allocation weights sum to %d, want 10000", sum)
	}
	if _, err := vault.ParseMintStrategy(c.MintStrategy); err != nil {
		return fmt.Errorf("config: MintStrategy: %w", err)
	}
	seen := make(map[string]bool, len(c.Rates))
	for _, rate := range c.Rates {
		denom := strings.TrimSpace(rate.Denom)
		if denom == "" {
			return fmt.Errorf("config: rate denom required")
		}
		if seen[denom] {
			return fmt.Errorf("config: duplicate rate for %s", denom)
		}
		seen[denom] = true
		if rate.Numerator == 0 || rate.Denominator == 0 {
			return fmt.Errorf("config: rate for %s must be positive", denom)
		}
	}
	for _, denom := range []string{c.NativeDenom, c.AssetADenom, c.AssetBDenom} {
		if !seen[strings.TrimSpace(denom)] {
			return fmt.Errorf("config: missing rate for %s", denom)
		}
	}
	return nil
}

// RateFor returns the configured base-per-unit rate for the denom.
func (c *Config) RateFor(denom string) (*big.Rat, bool) {
	for _, rate := range c.Rates {
		if strings.TrimSpace(rate.Denom) == strings.TrimSpace(denom) {
			if rate.Numerator == 0 || rate.Denominator == 0 {
				return nil, false
			}
			return new(big.Rat).SetFrac(
				new(big.Int).SetUint64(rate.Numerator),
				new(big.Int).SetUint64(rate.Denominator),
			), true
		}
	}
	return nil, false
}

// InstantiateParams assembles the vault creation parameters from the config.
func (c *Config) InstantiateParams() (vault.InstantiateParams, error) {
	strategy, err := vault.ParseMintStrategy(c.MintStrategy)
	if err != nil {
		return vault.InstantiateParams{}, err
	}
	params := vault.InstantiateParams{
		BaseDenom:     strings.TrimSpace(c.BaseDenom),
		MintStrategy:  strategy,
		TokenCodeID:   c.TokenCodeID,
		TokenName:     c.TokenName,
		TokenSymbol:   c.TokenSymbol,
		TokenDecimals: c.TokenDecimals,
	}
	params.ReserveDenoms[vault.ReserveNative] = strings.TrimSpace(c.NativeDenom)
	params.ReserveDenoms[vault.ReserveAssetA] = strings.TrimSpace(c.AssetADenom)
	params.ReserveDenoms[vault.ReserveAssetB] = strings.TrimSpace(c.AssetBDenom)
	params.AllocWeightsBps[vault.ReserveNative] = c.AllocNativeBps
	params.AllocWeightsBps[vault.ReserveAssetA] = c.AllocAssetABps
	params.AllocWeightsBps[vault.ReserveAssetB] = c.AllocAssetBBps
	return params, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:  ":8661",
		DataDir:        "./vaultd-data",
		Environment:    "dev",
		Operator:       "00000000000000000000000000000000000000aa",
		BaseDenom:      "uusd",
		NativeDenom:    "uluna",
		AssetADenom:    "uanc",
		AssetBDenom:    "umir",
		AllocNativeBps: 5_000,
		AllocAssetABps: 2_500,
		AllocAssetBBps: 2_500,
		MintStrategy:   "direct",
		TokenCodeID:    1,
		TokenName:      "Basket Vault Share",
		TokenSymbol:    "BVS",
		TokenDecimals:  6,
		Rates: []Rate{
			{Denom: "uluna", Numerator: 98_760, Denominator: 100_000},
			{Denom: "uanc", Numerator: 6_068, Denominator: 1},
			{Denom: "umir", Numerator: 131_045, Denominator: 1},
		},
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

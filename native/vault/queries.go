package vault

import "encoding/json"

// ConfigResponse is the read-only projection of the vault config.
type ConfigResponse struct {
	Owner           string `json:"owner"`
	BaseDenom       string `json:"base_denom"`
	CompanionToken  string `json:"companion_token"`
	ExchangeFactory string `json:"exchange_factory"`
	NativeDenom     string `json:"native_denom"`
	AssetADenom     string `json:"asset_a_denom"`
	AssetBDenom     string `json:"asset_b_denom"`
	AllocNativeBps  uint64 `json:"alloc_native_bps"`
	AllocAssetABps  uint64 `json:"alloc_asset_a_bps"`
	AllocAssetBBps  uint64 `json:"alloc_asset_b_bps"`
	MintStrategy    string `json:"mint_strategy"`
}

// StateResponse is the read-only projection of the vault state. Amounts are
// decimal strings to survive JSON number precision.
type StateResponse struct {
	TotalSupply   string `json:"total_supply"`
	ReserveNative string `json:"reserve_native"`
	ReserveAssetA string `json:"reserve_asset_a"`
	ReserveAssetB string `json:"reserve_asset_b"`
}

// Query resolves one tagged read-only request against the current records.
func (e *Engine) Query(msg QueryMsg) ([]byte, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case msg.GetConfig != nil:
		cfg, err := e.loadConfig()
		if err != nil {
			return nil, err
		}
		companion := ""
		if !cfg.CompanionToken.IsZero() {
			companion = cfg.CompanionToken.Hex()
		}
		return json.Marshal(ConfigResponse{
			Owner:           cfg.Owner.Hex(),
			BaseDenom:       cfg.BaseDenom,
			CompanionToken:  companion,
			ExchangeFactory: cfg.ExchangeFactory.Hex(),
			NativeDenom:     cfg.ReserveDenoms[ReserveNative],
			AssetADenom:     cfg.ReserveDenoms[ReserveAssetA],
			AssetBDenom:     cfg.ReserveDenoms[ReserveAssetB],
			AllocNativeBps:  cfg.AllocWeightsBps[ReserveNative],
			AllocAssetABps:  cfg.AllocWeightsBps[ReserveAssetA],
			AllocAssetBBps:  cfg.AllocWeightsBps[ReserveAssetB],
			MintStrategy:    cfg.MintStrategy.String(),
		})
	default:
		st, err := e.loadState()
		if err != nil {
			return nil, err
		}
		return json.Marshal(StateResponse{
			TotalSupply:   formatAmount(st.TotalSupply),
			ReserveNative: formatAmount(st.Reserves[ReserveNative]),
			ReserveAssetA: formatAmount(st.Reserves[ReserveAssetA]),
			ReserveAssetB: formatAmount(st.Reserves[ReserveAssetB]),
		})
	}
}

package vault

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"
)

func TestQueryConfigProjection(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	if _, err := engine.Query(QueryMsg{GetConfig: &GetConfigMsg{}}); !errors.Is(err, ErrNotInstantiated) {
		t.Fatalf("query before instantiate: got %v, want ErrNotInstantiated", err)
	}
	instantiate(t, engine)

	payload, err := engine.Query(QueryMsg{GetConfig: &GetConfigMsg{}})
	if err != nil {
		t.Fatalf("query config: %v", err)
	}
	var cfg ConfigResponse
	if err := json.Unmarshal(payload, &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Owner != ownerAddr.Hex() || cfg.BaseDenom != "uusd" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.CompanionToken != "" {
		t.Fatalf("companion token bound prematurely: %q", cfg.CompanionToken)
	}
	if cfg.NativeDenom != "uluna" || cfg.AssetADenom != "uanc" || cfg.AssetBDenom != "umir" {
		t.Fatalf("unexpected denoms: %+v", cfg)
	}
	if cfg.AllocNativeBps != 5_000 || cfg.AllocAssetABps != 2_500 || cfg.AllocAssetBBps != 2_500 {
		t.Fatalf("unexpected weights: %+v", cfg)
	}
	if cfg.MintStrategy != "direct" {
		t.Fatalf("unexpected strategy: %q", cfg.MintStrategy)
	}

	registerToken(t, engine)
	payload, err = engine.Query(QueryMsg{GetConfig: &GetConfigMsg{}})
	if err != nil {
		t.Fatalf("query config: %v", err)
	}
	if err := json.Unmarshal(payload, &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.CompanionToken != tokenAddr.Hex() {
		t.Fatalf("companion token = %q, want %s", cfg.CompanionToken, tokenAddr.Hex())
	}
}

func TestQueryStateProjection(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	instantiate(t, engine)
	st := NewState()
	st.TotalSupply = big.NewInt(20_000)
	st.Reserves[ReserveNative] = big.NewInt(40_000)
	st.Reserves[ReserveAssetA] = big.NewInt(8_000)
	if err := store.SaveState(st); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	payload, err := engine.Query(QueryMsg{GetState: &GetStateMsg{}})
	if err != nil {
		t.Fatalf("query state: %v", err)
	}
	var resp StateResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if resp.TotalSupply != "20000" || resp.ReserveNative != "40000" {
		t.Fatalf("unexpected state: %+v", resp)
	}
	if resp.ReserveAssetA != "8000" || resp.ReserveAssetB != "0" {
		t.Fatalf("unexpected reserves: %+v", resp)
	}
}

func TestQueryRejectsMalformedUnion(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	instantiate(t, engine)
	if _, err := engine.Query(QueryMsg{}); err == nil {
		t.Fatal("empty query union accepted")
	}
	if _, err := engine.Query(QueryMsg{GetConfig: &GetConfigMsg{}, GetState: &GetStateMsg{}}); err == nil {
		t.Fatal("double-tagged query union accepted")
	}
}

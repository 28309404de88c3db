package vault

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
)

type mockStorage struct {
	kv map[string][]byte
}

func newMockStorage() *mockStorage {
	return &mockStorage{kv: make(map[string][]byte)}
}

func (m *mockStorage) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.kv[string(key)] = encoded
	return nil
}

func (m *mockStorage) KVGet(key []byte, out interface{}) (bool, error) {
	encoded, ok := m.kv[string(key)]
	if !ok {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(encoded, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockStorage) KVDelete(key []byte) error {
	delete(m.kv, string(key))
	return nil
}

func TestStoreConfigRoundTrip(t *testing.T) {
	store := NewStore(newMockStorage())
	if _, ok, err := store.LoadConfig(); err != nil || ok {
		t.Fatalf("empty load: ok=%v err=%v", ok, err)
	}
	cfg := testConfig(MintProRata)
	cfg.CompanionToken = Address{0x01}
	cfg.ExchangeFactory = Address{0x02}
	if err := store.SaveConfig(cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	loaded, ok, err := store.LoadConfig()
	if err != nil || !ok {
		t.Fatalf("load config: ok=%v err=%v", ok, err)
	}
	if loaded.Owner != cfg.Owner || loaded.CompanionToken != cfg.CompanionToken {
		t.Fatalf("addresses lost: %+v", loaded)
	}
	if loaded.BaseDenom != "uusd" || loaded.ReserveDenoms != cfg.ReserveDenoms {
		t.Fatalf("denoms lost: %+v", loaded)
	}
	if loaded.AllocWeightsBps != cfg.AllocWeightsBps || loaded.MintStrategy != MintProRata {
		t.Fatalf("parameters lost: %+v", loaded)
	}
}

func TestStoreStateRoundTrip(t *testing.T) {
	store := NewStore(newMockStorage())
	st := NewState()
	st.TotalSupply = big.NewInt(123_456)
	st.Reserves[ReserveNative] = big.NewInt(42)
	st.Reserves[ReserveAssetB] = big.NewInt(7)
	if err := store.SaveState(st); err != nil {
		t.Fatalf("save state: %v", err)
	}
	loaded, ok, err := store.LoadState()
	if err != nil || !ok {
		t.Fatalf("load state: ok=%v err=%v", ok, err)
	}
	if loaded.TotalSupply.Cmp(st.TotalSupply) != 0 {
		t.Fatalf("supply = %s, want %s", loaded.TotalSupply, st.TotalSupply)
	}
	for _, asset := range reserveAssets {
		if loaded.Reserves[asset].Cmp(st.Reserves[asset]) != 0 {
			t.Fatalf("%s reserve = %s, want %s", asset, loaded.Reserves[asset], st.Reserves[asset])
		}
	}
}

func TestStoreRejectsNegativeState(t *testing.T) {
	store := NewStore(newMockStorage())
	st := NewState()
	st.TotalSupply = big.NewInt(-1)
	if err := store.SaveState(st); err == nil {
		t.Fatal("negative supply accepted")
	}
	st = NewState()
	st.Reserves[ReserveAssetA] = big.NewInt(-5)
	if err := store.SaveState(st); err == nil {
		t.Fatal("negative reserve accepted")
	}
}

func TestStorePendingLifecycle(t *testing.T) {
	store := NewStore(newMockStorage())
	requester := Address{0x0b}
	if _, ok, err := store.PendingGet(requester); err != nil || ok {
		t.Fatalf("empty pending: ok=%v err=%v", ok, err)
	}
	record := &PendingRedemption{
		Requester:        requester,
		BurnAmount:       big.NewInt(5_000),
		ExpectedProceeds: big.NewInt(5_750),
		CreatedAt:        1_700_000_000,
	}
	if err := store.PendingPut(record); err != nil {
		t.Fatalf("pending put: %v", err)
	}
	loaded, ok, err := store.PendingGet(requester)
	if err != nil || !ok {
		t.Fatalf("pending get: ok=%v err=%v", ok, err)
	}
	if loaded.Requester != requester || loaded.CreatedAt != record.CreatedAt {
		t.Fatalf("pending identity lost: %+v", loaded)
	}
	if loaded.BurnAmount.Cmp(record.BurnAmount) != 0 || loaded.ExpectedProceeds.Cmp(record.ExpectedProceeds) != 0 {
		t.Fatalf("pending amounts lost: %+v", loaded)
	}
	if err := store.PendingDelete(requester); err != nil {
		t.Fatalf("pending delete: %v", err)
	}
	if _, ok, _ := store.PendingGet(requester); ok {
		t.Fatal("pending survived delete")
	}
}

func TestStorePendingRequiresRequester(t *testing.T) {
	store := NewStore(newMockStorage())
	err := store.PendingPut(&PendingRedemption{BurnAmount: big.NewInt(1)})
	if err == nil {
		t.Fatal("zero requester accepted")
	}
}

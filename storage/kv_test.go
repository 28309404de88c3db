package storage

import (
	"bytes"
	"errors"
	"testing"
)

func TestMemDBNotFound(t *testing.T) {
	db := NewMemDB()
	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: got %v, want ErrNotFound", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get([]byte("k"))
	if err != nil || !bytes.Equal(got, []byte("v")) {
		t.Fatalf("get = %q (%v)", got, err)
	}
	if err := db.Delete([]byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get([]byte("k")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get deleted: got %v, want ErrNotFound", err)
	}
}

type kvRecord struct {
	Label   string
	Amount  string
	Weights [3]uint64
}

func TestKVStoreRoundTrip(t *testing.T) {
	store := NewKVStore(NewMemDB())
	key := []byte("records/1")

	var out kvRecord
	ok, err := store.KVGet(key, &out)
	if err != nil || ok {
		t.Fatalf("get missing: ok=%v err=%v", ok, err)
	}

	in := kvRecord{Label: "alpha", Amount: "123456789", Weights: [3]uint64{5_000, 2_500, 2_500}}
	if err := store.KVPut(key, in); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err = store.KVGet(key, &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}

	if err := store.KVDelete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := store.KVGet(key, nil); ok {
		t.Fatal("record survived delete")
	}
}

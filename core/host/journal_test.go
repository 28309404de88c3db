package host

import (
	"bytes"
	"errors"
	"testing"

	"basketvault/storage"
)

func TestJournalRevertRestoresPreImages(t *testing.T) {
	db := storage.NewMemDB()
	if err := db.Put([]byte("keep"), []byte("original")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	j := &journalDB{db: db}
	j.begin()
	if err := j.Put([]byte("keep"), []byte("changed")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := j.Put([]byte("fresh"), []byte("value")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := j.Delete([]byte("keep")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	j.revert()

	got, err := db.Get([]byte("keep"))
	if err != nil || !bytes.Equal(got, []byte("original")) {
		t.Fatalf("keep = %q (%v), want original", got, err)
	}
	if _, err := db.Get([]byte("fresh")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("fresh survived revert: %v", err)
	}
}

func TestJournalCommitKeepsWrites(t *testing.T) {
	db := storage.NewMemDB()
	j := &journalDB{db: db}
	j.begin()
	if err := j.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	j.commit()

	got, err := db.Get([]byte("a"))
	if err != nil || !bytes.Equal(got, []byte("1")) {
		t.Fatalf("a = %q (%v), want 1", got, err)
	}
	// Writes outside a transaction are not journaled and survive a revert.
	if err := j.Put([]byte("b"), []byte("2")); err != nil {
		t.Fatalf("put: %v", err)
	}
	j.revert()
	if _, err := db.Get([]byte("b")); err != nil {
		t.Fatalf("b lost outside transaction: %v", err)
	}
}

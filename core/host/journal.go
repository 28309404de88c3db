package host

import (
	"errors"

	"basketvault/storage"
)

// journalDB wraps a Database and records pre-images for every write inside a
// transaction so the host can revert the contract namespace on abort. It
// works over any backend, persistent or in-memory.
type journalDB struct {
	db      storage.Database
	entries []journalEntry
	active  bool
}

type journalEntry struct {
	key     []byte
	value   []byte
	existed bool
}

func (j *journalDB) begin() {
	j.entries = j.entries[:0]
	j.active = true
}

func (j *journalDB) commit() {
	j.entries = j.entries[:0]
	j.active = false
}

// revert undoes the journaled writes in reverse order.
func (j *journalDB) revert() {
	for i := len(j.entries) - 1; i >= 0; i-- {
		entry := j.entries[i]
		if entry.existed {
			_ = j.db.Put(entry.key, entry.value)
		} else {
			_ = j.db.Delete(entry.key)
		}
	}
	j.entries = j.entries[:0]
	j.active = false
}

func (j *journalDB) record(key []byte) error {
	if !j.active {
		return nil
	}
	prev, err := j.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		j.entries = append(j.entries, journalEntry{key: append([]byte(nil), key...)})
		return nil
	}
	if err != nil {
		return err
	}
	j.entries = append(j.entries, journalEntry{
		key:     append([]byte(nil), key...),
		value:   append([]byte(nil), prev...),
		existed: true,
	})
	return nil
}

func (j *journalDB) Put(key []byte, value []byte) error {
	if err := j.record(key); err != nil {
		return err
	}
	return j.db.Put(key, value)
}

func (j *journalDB) Get(key []byte) ([]byte, error) {
	return j.db.Get(key)
}

func (j *journalDB) Delete(key []byte) error {
	if err := j.record(key); err != nil {
		return err
	}
	return j.db.Delete(key)
}

func (j *journalDB) Close() {
	j.db.Close()
}

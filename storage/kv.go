package storage

import (
	"errors"

	"github.com/ethereum/go-ethereum/rlp"
)

// KVStore layers an RLP codec over a raw Database so callers can persist
// structured records without handling encoding themselves. It satisfies the
// storage surface the vault store consumes.
type KVStore struct {
	db Database
}

// NewKVStore wraps the supplied database.
func NewKVStore(db Database) *KVStore {
	return &KVStore{db: db}
}

// KVGet decodes the value stored under key into out. The boolean reports
// whether the key was present.
func (s *KVStore) KVGet(key []byte, out interface{}) (bool, error) {
	encoded, err := s.db.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(encoded, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVPut encodes value with RLP and stores it under key.
func (s *KVStore) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return s.db.Put(key, encoded)
}

// KVDelete removes the key if present.
func (s *KVStore) KVDelete(key []byte) error {
	return s.db.Delete(key)
}

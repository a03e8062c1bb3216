package docstore

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrymomot/vaultcore/pkg/kvstore"
)

// DefaultKVPrefix namespaces documents kept in a key-value store.
const DefaultKVPrefix = "ledgy-doc:"

// KVStore keeps documents in a kvstore.Store under a key prefix, so a single
// local backend can hold both the auth record and sealed items.
type KVStore struct {
	kv     kvstore.Store
	prefix string
}

// NewKVStore wraps kv. An empty prefix uses DefaultKVPrefix.
func NewKVStore(kv kvstore.Store, prefix string) *KVStore {
	if prefix == "" {
		prefix = DefaultKVPrefix
	}
	return &KVStore{kv: kv, prefix: prefix}
}

func (s *KVStore) Put(ctx context.Context, id string, data []byte) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.prefix+id, data); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *KVStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	data, err := s.kv.Get(ctx, s.prefix+id)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return data, nil
}

func (s *KVStore) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, s.prefix+id); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

// List returns the stored document ids in lexical order.
func (s *KVStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, s.prefix)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, s.prefix))
	}
	return ids, nil
}

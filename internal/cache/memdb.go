package cache

import (
	"context"
	"sync/atomic"

	memdb "github.com/hashicorp/go-memdb"
)

const memTable = "entries"

type memEntry struct {
	Key   string
	Value []byte
}

func memSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			memTable: {
				Name: memTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
}

// MemStore is an in-process Store. Entries do not outlive the process; it
// serves tests and runs that opt out of persistence.
type MemStore struct {
	db     *memdb.MemDB
	closed atomic.Bool
}

// NewMemStore returns an empty MemStore.
func NewMemStore() (*MemStore, error) {
	db, err := memdb.NewMemDB(memSchema())
	if err != nil {
		return nil, err
	}
	return &MemStore{db: db}, nil
}

func (m *MemStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.closed.Load() {
		return nil, false, ErrClosed
	}
	txn := m.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(memTable, "id", key)
	if err != nil || raw == nil {
		return nil, false, err
	}
	return raw.(*memEntry).Value, true, nil
}

func (m *MemStore) Put(_ context.Context, key string, val []byte) error {
	if m.closed.Load() {
		return ErrClosed
	}
	txn := m.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(memTable, &memEntry{Key: key, Value: append([]byte(nil), val...)}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (m *MemStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	txn := m.db.Txn(true)
	defer txn.Abort()

	n, err := txn.DeleteAll(memTable, "id_prefix", prefix)
	if err != nil {
		return 0, err
	}
	txn.Commit()
	return n, nil
}

func (m *MemStore) Count(_ context.Context, prefix string) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	txn := m.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(memTable, "id_prefix", prefix)
	if err != nil {
		return 0, err
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n, nil
}

func (m *MemStore) Close() error {
	m.closed.Store(true)
	return nil
}

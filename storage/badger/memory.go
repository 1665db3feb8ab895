package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/storage"
)

// MemoryRepository implements storage.MemoryRepository for BadgerDB.
type MemoryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.MemoryRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository(backend *Backend) (*MemoryRepository, error) {
	idSeq, err := backend.GetSequence(memoryIDSeq)
	if err != nil {
		return nil, err
	}
	return &MemoryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *MemoryRepository) Close() error {
	return r.idSeq.Release()
}

// AddEntries adds one or more memory entries to storage.
func (r *MemoryRepository) AddEntries(ctx context.Context, entries ...*core.MemoryEntry) ([]*core.MemoryEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, e := range entries {
			var err error
			if e.Id, err = nextID(r.idSeq); err != nil {
				return err
			}
			e.CreatedAt = now()
			e.UpdatedAt = e.CreatedAt
			if err := tx.Set(makeKey(memoryPrefix, e.Id), storage.MarshalMemoryEntry(e)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return entries, err
}

// UpdateEntries updates existing memory entries.
func (r *MemoryRepository) UpdateEntries(ctx context.Context, entries ...*core.MemoryEntry) ([]*core.MemoryEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, e := range entries {
			key := makeKey(memoryPrefix, e.Id)
			old, err := readRecord(tx, key, storage.UnmarshalMemoryEntry)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}
			e.CreatedAt = old.CreatedAt
			e.UpdatedAt = now()
			if err := tx.Set(key, storage.MarshalMemoryEntry(e)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return entries, err
}

// DeleteEntries removes memory entries by their IDs.
func (r *MemoryRepository) DeleteEntries(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeKey(memoryPrefix, id)
			if _, err := tx.Get(key); err != nil {
				if err == badger.ErrKeyNotFound {
					return storage.ErrNotFound
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a single memory entry by ID.
func (r *MemoryRepository) GetEntry(ctx context.Context, id core.ID) (*core.MemoryEntry, error) {
	var result *core.MemoryEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeKey(memoryPrefix, id), storage.UnmarshalMemoryEntry)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListEntries returns every memory entry in ID order.
func (r *MemoryRepository) ListEntries(ctx context.Context) ([]*core.MemoryEntry, error) {
	var results []*core.MemoryEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, makePrefix(memoryPrefix), nil, storage.UnmarshalMemoryEntry,
			func(e *core.MemoryEntry) (bool, error) {
				results = append(results, e)
				return true, ctx.Err()
			})
	}, false)
	return results, err
}

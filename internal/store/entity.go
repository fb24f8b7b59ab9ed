package store

import (
	"context"
	"encoding/json/v2"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/chapterdapp/chapterd/internal/errors"
)

// Entity provides typed CRUD over one key prefix of the store.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []index[T]
}

// index is a unique secondary index. keyGen returns the index values for a
// record; returning an empty slice removes the record from the index, which
// lets an index cover only records in a particular state.
type index[T any] struct {
	name   string
	keyGen func(*T) []string
}

// NewEntity creates an entity bound to a key prefix such as "job:".
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// WithIndex adds a unique secondary index.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen})
	return e
}

func (e *Entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *Entity[T]) indexKey(name, value string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value)
}

// Create stores a new record. It fails with ErrAlreadyExists when the ID or
// any index value is already taken.
func (e *Entity[T]) Create(ctx context.Context, id string, record *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(e.key(id)); err == nil {
			return errors.ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return errors.Wrap(err, "check existing key")
		}

		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(record) {
				if _, err := txn.Get(e.indexKey(idx.name, value)); err == nil {
					return errors.AlreadyExistsf("%s %q is already taken", idx.name, value)
				} else if !errors.Is(err, badger.ErrKeyNotFound) {
					return errors.Wrap(err, "check index key")
				}
			}
		}

		if err := txn.Set(e.key(id), data); err != nil {
			return err
		}
		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(record) {
				if err := txn.Set(e.indexKey(idx.name, value), []byte(id)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Get retrieves a record by ID.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record T
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(e.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByIndex retrieves a record through a secondary index value.
func (e *Entity[T]) GetByIndex(ctx context.Context, name, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var id string
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(e.indexKey(name, value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return e.Get(ctx, id)
}

// Update replaces an existing record, maintaining its index entries.
func (e *Entity[T]) Update(ctx context.Context, id string, record *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		var old T
		item, err := txn.Get(e.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &old)
		}); err != nil {
			return errors.Wrap(err, "unmarshal old record")
		}

		for _, idx := range e.indexes {
			oldValues := map[string]bool{}
			for _, value := range idx.keyGen(&old) {
				oldValues[value] = true
				if err := txn.Delete(e.indexKey(idx.name, value)); err != nil {
					return err
				}
			}
			for _, value := range idx.keyGen(record) {
				if !oldValues[value] {
					if _, err := txn.Get(e.indexKey(idx.name, value)); err == nil {
						return errors.AlreadyExistsf("%s %q is already taken", idx.name, value)
					} else if !errors.Is(err, badger.ErrKeyNotFound) {
						return err
					}
				}
			}
		}

		if err := txn.Set(e.key(id), data); err != nil {
			return err
		}
		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(record) {
				if err := txn.Set(e.indexKey(idx.name, value), []byte(id)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Delete removes a record and its index entries. Deleting a missing record
// is not an error.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		var record T
		item, err := txn.Get(e.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return errors.Wrap(err, "unmarshal record")
		}

		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(&record) {
				if err := txn.Delete(e.indexKey(idx.name, value)); err != nil {
					return err
				}
			}
		}
		return txn.Delete(e.key(id))
	})
}

// List iterates all records under the prefix in key order.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				// Index entries share the prefix; skip them.
				if strings.HasPrefix(string(it.Item().Key())[len(e.prefix):], "idx:") {
					continue
				}

				var record T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &record)
				})
				if err != nil {
					yield(nil, err)
					return err
				}
				if !yield(&record, nil) {
					return nil
				}
			}
			return nil
		})
	}
}

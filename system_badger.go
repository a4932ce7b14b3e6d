package kv_benchmark

import (
	"github.com/boreq/errors"
	"github.com/dgraph-io/badger/v4"
	"github.com/kochelmonster/kv_benchmark/row"
)

// BadgerDatabaseSystem stores one record per badger key. Compression is
// configured through badger's own options instead of a value codec, the
// option hook in the constructor exists for that.
type BadgerDatabaseSystem struct {
	db    *badger.DB
	merge *row.Builder
}

func NewBadgerDatabaseSystem(dir string, fn func(*badger.Options)) (*BadgerDatabaseSystem, error) {
	opt := badger.
		DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)

	if fn != nil {
		fn(&opt)
	}

	db, err := badger.Open(opt)
	if err != nil {
		return nil, errors.Wrap(err, "error opening the database")
	}

	return &BadgerDatabaseSystem{
		db:    db,
		merge: row.NewBuilder(),
	}, nil
}

func (b *BadgerDatabaseSystem) Insert(key string, values row.View) error {
	return b.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), values.Bytes())
	})
}

func (b *BadgerDatabaseSystem) Read(key string, fields map[string]struct{}, result *row.Builder) error {
	return b.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return errors.Wrap(err, "error calling get")
		}

		return item.Value(func(data []byte) error {
			return loadInto(data, fields, result)
		})
	})
}

func (b *BadgerDatabaseSystem) Update(key string, patch row.View) error {
	return b.db.Update(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return errors.Wrap(err, "error calling get")
		}

		var merged []byte
		if err := item.Value(func(data []byte) error {
			var mergeErr error
			merged, mergeErr = mergeInto(b.merge, data, patch)
			return mergeErr
		}); err != nil {
			return errors.Wrap(err, "error merging the record")
		}

		// merged points into the merge builder's scratch buffer which is
		// not touched again before the transaction commits
		return tx.Set([]byte(key), merged)
	})
}

func (b *BadgerDatabaseSystem) Scan(startKey string, count int, fields map[string]struct{}, fn func(key string, r row.View) error) error {
	return b.db.View(func(tx *badger.Txn) error {
		projected := row.NewBuilder()

		it := tx.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		n := 0
		for it.Seek([]byte(startKey)); it.Valid() && n < count; it.Next() {
			item := it.Item()

			if err := item.Value(func(data []byte) error {
				v, err := row.NewView(data)
				if err != nil {
					return errors.Wrap(err, "error decoding the record")
				}

				if fields != nil {
					v.Project(projected, fields)
					v = projected.View()
				}

				return fn(string(item.Key()), v)
			}); err != nil {
				return errors.Wrap(err, "error reading the value")
			}

			n++
		}

		return nil
	})
}

func (b *BadgerDatabaseSystem) Delete(key string) error {
	return b.db.Update(func(tx *badger.Txn) error {
		if _, err := tx.Get([]byte(key)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return errors.Wrap(err, "error calling get")
		}

		return tx.Delete([]byte(key))
	})
}

func (b *BadgerDatabaseSystem) Sync() error {
	return b.db.Sync()
}

func (b *BadgerDatabaseSystem) Close() error {
	return b.db.Close()
}

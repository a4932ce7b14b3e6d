package kv_benchmark

import (
	"path"

	"github.com/boreq/errors"
	"github.com/kochelmonster/kv_benchmark/row"
	"go.etcd.io/bbolt"
)

var boltBucketName = []byte("records")

type BoltDatabaseSystem struct {
	db    *bbolt.DB
	codec Codec
	merge *row.Builder
}

func NewBoltDatabaseSystem(dir string, fn func(*bbolt.Options), codec Codec) (*BoltDatabaseSystem, error) {
	opt := *bbolt.DefaultOptions

	if fn != nil {
		fn(&opt)
	}

	f := path.Join(dir, "database.bolt")
	db, err := bbolt.Open(f, 0600, &opt)
	if err != nil {
		return nil, errors.Wrap(err, "error opening the database")
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucketName)
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "error creating the bucket")
	}

	return &BoltDatabaseSystem{
		db:    db,
		codec: codec,
		merge: row.NewBuilder(),
	}, nil
}

func (b *BoltDatabaseSystem) Insert(key string, values row.View) error {
	encoded, err := b.codec.Encode(values.Bytes())
	if err != nil {
		return errors.Wrap(err, "error encoding the record")
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucketName).Put([]byte(key), encoded)
	})
}

func (b *BoltDatabaseSystem) Read(key string, fields map[string]struct{}, result *row.Builder) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(boltBucketName).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}

		decoded, err := b.codec.Decode(data)
		if err != nil {
			return errors.Wrap(err, "error decoding the record")
		}

		return loadInto(decoded, fields, result)
	})
}

func (b *BoltDatabaseSystem) Update(key string, patch row.View) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucketName)

		data := bucket.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}

		decoded, err := b.codec.Decode(data)
		if err != nil {
			return errors.Wrap(err, "error decoding the record")
		}

		merged, err := mergeInto(b.merge, decoded, patch)
		if err != nil {
			return errors.Wrap(err, "error merging the record")
		}

		encoded, err := b.codec.Encode(merged)
		if err != nil {
			return errors.Wrap(err, "error encoding the record")
		}

		return bucket.Put([]byte(key), encoded)
	})
}

func (b *BoltDatabaseSystem) Scan(startKey string, count int, fields map[string]struct{}, fn func(key string, r row.View) error) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		projected := row.NewBuilder()

		cursor := tx.Bucket(boltBucketName).Cursor()

		n := 0
		for k, data := cursor.Seek([]byte(startKey)); k != nil && n < count; k, data = cursor.Next() {
			decoded, err := b.codec.Decode(data)
			if err != nil {
				return errors.Wrap(err, "error decoding the record")
			}

			v, err := row.NewView(decoded)
			if err != nil {
				return errors.Wrap(err, "error decoding the record")
			}

			if fields != nil {
				v.Project(projected, fields)
				v = projected.View()
			}

			if err := fn(string(k), v); err != nil {
				return errors.Wrap(err, "error calling fn")
			}

			n++
		}

		return nil
	})
}

func (b *BoltDatabaseSystem) Delete(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucketName)

		if bucket.Get([]byte(key)) == nil {
			return ErrNotFound
		}

		return bucket.Delete([]byte(key))
	})
}

func (b *BoltDatabaseSystem) Sync() error {
	return b.db.Sync()
}

func (b *BoltDatabaseSystem) Close() error {
	return b.db.Close()
}

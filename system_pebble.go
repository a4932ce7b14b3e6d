package kv_benchmark

import (
	"github.com/boreq/errors"
	"github.com/cockroachdb/pebble"
	"github.com/kochelmonster/kv_benchmark/row"
)

type PebbleDatabaseSystem struct {
	db    *pebble.DB
	codec Codec
	merge *row.Builder
}

func NewPebbleDatabaseSystem(dir string, codec Codec) (*PebbleDatabaseSystem, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "error opening the database")
	}

	return &PebbleDatabaseSystem{
		db:    db,
		codec: codec,
		merge: row.NewBuilder(),
	}, nil
}

func (p *PebbleDatabaseSystem) Insert(key string, values row.View) error {
	encoded, err := p.codec.Encode(values.Bytes())
	if err != nil {
		return errors.Wrap(err, "error encoding the record")
	}

	if err := p.db.Set([]byte(key), encoded, pebble.NoSync); err != nil {
		return errors.Wrap(err, "error calling set")
	}

	return nil
}

func (p *PebbleDatabaseSystem) Read(key string, fields map[string]struct{}, result *row.Builder) error {
	data, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "error calling get")
	}
	defer closer.Close()

	decoded, err := p.codec.Decode(data)
	if err != nil {
		return errors.Wrap(err, "error decoding the record")
	}

	return loadInto(decoded, fields, result)
}

func (p *PebbleDatabaseSystem) Update(key string, patch row.View) error {
	data, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "error calling get")
	}
	defer closer.Close()

	decoded, err := p.codec.Decode(data)
	if err != nil {
		return errors.Wrap(err, "error decoding the record")
	}

	merged, err := mergeInto(p.merge, decoded, patch)
	if err != nil {
		return errors.Wrap(err, "error merging the record")
	}

	encoded, err := p.codec.Encode(merged)
	if err != nil {
		return errors.Wrap(err, "error encoding the record")
	}

	if err := p.db.Set([]byte(key), encoded, pebble.NoSync); err != nil {
		return errors.Wrap(err, "error calling set")
	}

	return nil
}

func (p *PebbleDatabaseSystem) Scan(startKey string, count int, fields map[string]struct{}, fn func(key string, r row.View) error) error {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(startKey),
	})
	if err != nil {
		return errors.Wrap(err, "error creating an iterator")
	}
	defer iter.Close()

	projected := row.NewBuilder()

	n := 0
	for valid := iter.First(); valid && n < count; valid = iter.Next() {
		decoded, err := p.codec.Decode(iter.Value())
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

		if err := fn(string(iter.Key()), v); err != nil {
			return errors.Wrap(err, "error calling fn")
		}

		n++
	}

	if err := iter.Error(); err != nil {
		return errors.Wrap(err, "iterator error")
	}

	return nil
}

func (p *PebbleDatabaseSystem) Delete(key string) error {
	_, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "error calling get")
	}
	if err := closer.Close(); err != nil {
		return errors.Wrap(err, "error closing the value")
	}

	if err := p.db.Delete([]byte(key), pebble.NoSync); err != nil {
		return errors.Wrap(err, "error calling delete")
	}

	return nil
}

func (p *PebbleDatabaseSystem) Sync() error {
	return p.db.Flush()
}

func (p *PebbleDatabaseSystem) Close() error {
	return p.db.Close()
}

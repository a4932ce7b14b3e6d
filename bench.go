package kv_benchmark

import (
	"github.com/boreq/errors"
	"github.com/kochelmonster/kv_benchmark/row"
)

// ErrNotFound is returned by Read, Update and Delete when no record is
// stored under the given key.
var ErrNotFound = errors.New("record not found")

// DatabaseSystem is the contract every storage engine adapter
// implements. Adapters are thin: they move encoded rows in and out of
// the engine, all record semantics live in the row package. A single
// instance must not be used from multiple goroutines at once; the
// benchmark creates one instance per worker.
type DatabaseSystem interface {
	// Insert stores the encoded row under the key, replacing any
	// previous record.
	Insert(key string, values row.View) error

	// Read loads the record stored under the key into result. A nil
	// fields set loads the whole record; a non-nil set projects only
	// the named fields, so an empty set yields an empty row.
	Read(key string, fields map[string]struct{}, result *row.Builder) error

	// Update merges the patch into the stored record and writes the
	// merged bytes back. Names already present in the stored record
	// keep their stored values, names absent from it are appended.
	Update(key string, patch row.View) error

	// Scan visits up to count records in key order starting at
	// startKey. The view handed to fn is only valid during the call;
	// fn must copy the bytes out to keep them.
	Scan(startKey string, count int, fields map[string]struct{}, fn func(key string, r row.View) error) error

	// Delete removes the record stored under the key.
	Delete(key string) error

	// Sync flushes any buffered writes to stable storage.
	Sync() error

	Close() error
}

// loadInto decodes a stored blob into result, honoring the projection
// set as described on DatabaseSystem.Read.
func loadInto(data []byte, fields map[string]struct{}, result *row.Builder) error {
	v, err := row.NewView(data)
	if err != nil {
		return errors.Wrap(err, "error decoding the record")
	}

	if fields == nil {
		result.Assign(v)
	} else {
		v.Project(result, fields)
	}

	return nil
}

// mergeInto loads the stored blob into the scratch builder and merges
// the patch into it per the non-overwrite-on-overlap rule. The returned
// bytes live in the builder's scratch buffer and stay valid until the
// builder's next mutating call.
func mergeInto(scratch *row.Builder, data []byte, patch row.View) ([]byte, error) {
	current, err := row.NewView(data)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding the record")
	}

	scratch.Assign(current)
	return scratch.Update(patch).Bytes(), nil
}

package kv_benchmark

import (
	"sort"
	"sync"

	"github.com/boreq/errors"
	"github.com/kochelmonster/kv_benchmark/row"
)

// MemoryDatabaseSystem keeps records in a plain map guarded by a mutex.
// It is the reference implementation of the DatabaseSystem contract and
// the baseline the real engines are compared against.
type MemoryDatabaseSystem struct {
	mutex   sync.Mutex
	records map[string][]byte
	merge   *row.Builder
}

func NewMemoryDatabaseSystem() *MemoryDatabaseSystem {
	return &MemoryDatabaseSystem{
		records: make(map[string][]byte),
		merge:   row.NewBuilder(),
	}
}

func (m *MemoryDatabaseSystem) Insert(key string, values row.View) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.records[key] = append([]byte(nil), values.Bytes()...)
	return nil
}

func (m *MemoryDatabaseSystem) Read(key string, fields map[string]struct{}, result *row.Builder) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	data, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}

	return loadInto(data, fields, result)
}

func (m *MemoryDatabaseSystem) Update(key string, patch row.View) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	data, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}

	merged, err := mergeInto(m.merge, data, patch)
	if err != nil {
		return errors.Wrap(err, "error merging the record")
	}

	m.records[key] = append([]byte(nil), merged...)
	return nil
}

func (m *MemoryDatabaseSystem) Scan(startKey string, count int, fields map[string]struct{}, fn func(key string, r row.View) error) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var keys []string
	for key := range m.records {
		if key >= startKey {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	if len(keys) > count {
		keys = keys[:count]
	}

	projected := row.NewBuilder()

	for _, key := range keys {
		v, err := row.NewView(m.records[key])
		if err != nil {
			return errors.Wrap(err, "error decoding the record")
		}

		if fields != nil {
			v.Project(projected, fields)
			v = projected.View()
		}

		if err := fn(key, v); err != nil {
			return errors.Wrap(err, "error calling fn")
		}
	}

	return nil
}

func (m *MemoryDatabaseSystem) Delete(key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.records[key]; !ok {
		return ErrNotFound
	}

	delete(m.records, key)
	return nil
}

func (m *MemoryDatabaseSystem) Sync() error {
	return nil
}

func (m *MemoryDatabaseSystem) Close() error {
	return nil
}

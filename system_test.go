package kv_benchmark

import (
	"testing"

	"github.com/boreq/errors"
	"github.com/kochelmonster/kv_benchmark/fixtures"
	"github.com/kochelmonster/kv_benchmark/row"
	"github.com/stretchr/testify/require"
)

func TestDatabaseSystems(t *testing.T) {
	for _, system := range getTestedSystems() {
		system := system
		t.Run(system.name, func(t *testing.T) {
			for _, test := range getContractTests() {
				test := test
				t.Run(test.name, func(t *testing.T) {
					s := system.constructor(t)
					test.fn(t, s)
				})
			}
		})
	}
}

type testedSystem struct {
	name        string
	constructor func(t *testing.T) DatabaseSystem
}

func getTestedSystems() []testedSystem {
	return []testedSystem{
		{
			name: "memory",
			constructor: func(t *testing.T) DatabaseSystem {
				s := NewMemoryDatabaseSystem()
				closeOnCleanup(t, s)
				return s
			},
		},
		{
			name: "bbolt",
			constructor: func(t *testing.T) DatabaseSystem {
				s, err := NewBoltDatabaseSystem(fixtures.Directory(t, ""), nil, NewNoopCodec())
				require.NoError(t, err)
				closeOnCleanup(t, s)
				return s
			},
		},
		{
			name: "bbolt_snappy",
			constructor: func(t *testing.T) DatabaseSystem {
				s, err := NewBoltDatabaseSystem(fixtures.Directory(t, ""), nil, NewSnappyCodec())
				require.NoError(t, err)
				closeOnCleanup(t, s)
				return s
			},
		},
		{
			name: "bbolt_zstd",
			constructor: func(t *testing.T) DatabaseSystem {
				s, err := NewBoltDatabaseSystem(fixtures.Directory(t, ""), nil, NewZSTDCodec())
				require.NoError(t, err)
				closeOnCleanup(t, s)
				return s
			},
		},
		{
			name: "badger",
			constructor: func(t *testing.T) DatabaseSystem {
				s, err := NewBadgerDatabaseSystem(fixtures.Directory(t, ""), nil)
				require.NoError(t, err)
				closeOnCleanup(t, s)
				return s
			},
		},
		{
			name: "pebble",
			constructor: func(t *testing.T) DatabaseSystem {
				s, err := NewPebbleDatabaseSystem(fixtures.Directory(t, ""), NewNoopCodec())
				require.NoError(t, err)
				closeOnCleanup(t, s)
				return s
			},
		},
		{
			name: "pebble_zstd",
			constructor: func(t *testing.T) DatabaseSystem {
				s, err := NewPebbleDatabaseSystem(fixtures.Directory(t, ""), NewZSTDCodec())
				require.NoError(t, err)
				closeOnCleanup(t, s)
				return s
			},
		},
		{
			name: "margaret",
			constructor: func(t *testing.T) DatabaseSystem {
				s, err := NewMargaretDatabaseSystem(fixtures.Directory(t, ""), NewNoopCodec())
				require.NoError(t, err)
				closeOnCleanup(t, s)
				return s
			},
		},
		{
			name: "margaret_snappy",
			constructor: func(t *testing.T) DatabaseSystem {
				s, err := NewMargaretDatabaseSystem(fixtures.Directory(t, ""), NewSnappyCodec())
				require.NoError(t, err)
				closeOnCleanup(t, s)
				return s
			},
		},
	}
}

type contractTest struct {
	name string
	fn   func(t *testing.T, s DatabaseSystem)
}

func getContractTests() []contractTest {
	return []contractTest{
		{
			name: "insert_and_read_round_trip",
			fn: func(t *testing.T, s DatabaseSystem) {
				values := someRow(
					[2]string{"field0", "value0"},
					[2]string{"field1", "value1"},
				)

				require.NoError(t, s.Insert("key1", values.View()))

				result := row.NewBuilder()
				require.NoError(t, s.Read("key1", nil, result))
				require.Equal(t, values.Bytes(), result.Bytes())
			},
		},
		{
			name: "read_missing_key",
			fn: func(t *testing.T, s DatabaseSystem) {
				result := row.NewBuilder()
				err := s.Read("missing", nil, result)
				require.ErrorIs(t, err, ErrNotFound)
			},
		},
		{
			name: "insert_replaces_existing_record",
			fn: func(t *testing.T, s DatabaseSystem) {
				require.NoError(t, s.Insert("key1", someRow([2]string{"a", "1"}).View()))

				replacement := someRow([2]string{"b", "2"})
				require.NoError(t, s.Insert("key1", replacement.View()))

				result := row.NewBuilder()
				require.NoError(t, s.Read("key1", nil, result))
				require.Equal(t, replacement.Bytes(), result.Bytes())
			},
		},
		{
			name: "read_with_projection",
			fn: func(t *testing.T, s DatabaseSystem) {
				values := someRow(
					[2]string{"field0", "value0"},
					[2]string{"field1", "value1"},
					[2]string{"field2", "value2"},
				)
				require.NoError(t, s.Insert("key1", values.View()))

				result := row.NewBuilder()
				require.NoError(t, s.Read("key1", set("field1"), result))
				requireRow(t, [][2]string{{"field1", "value1"}}, result.View())
			},
		},
		{
			name: "read_with_empty_projection_set",
			fn: func(t *testing.T, s DatabaseSystem) {
				require.NoError(t, s.Insert("key1", someRow([2]string{"a", "1"}).View()))

				result := row.NewBuilder()
				require.NoError(t, s.Read("key1", map[string]struct{}{}, result))
				require.EqualValues(t, 0, result.Size())
			},
		},
		{
			name: "update_merges_without_overwriting",
			fn: func(t *testing.T, s DatabaseSystem) {
				values := someRow(
					[2]string{"f0", "v0"},
					[2]string{"f1", "v1"},
					[2]string{"f2", "v2"},
				)
				require.NoError(t, s.Insert("key1", values.View()))

				patch := someRow(
					[2]string{"f1", "new1"},
					[2]string{"f3", "v3"},
				)
				require.NoError(t, s.Update("key1", patch.View()))

				result := row.NewBuilder()
				require.NoError(t, s.Read("key1", nil, result))
				requireRow(t,
					[][2]string{
						{"f0", "v0"},
						{"f1", "v1"},
						{"f2", "v2"},
						{"f3", "v3"},
					},
					result.View(),
				)
			},
		},
		{
			name: "update_missing_key",
			fn: func(t *testing.T, s DatabaseSystem) {
				patch := someRow([2]string{"a", "1"})
				err := s.Update("missing", patch.View())
				require.ErrorIs(t, err, ErrNotFound)
			},
		},
		{
			name: "delete",
			fn: func(t *testing.T, s DatabaseSystem) {
				require.NoError(t, s.Insert("key1", someRow([2]string{"a", "1"}).View()))
				require.NoError(t, s.Delete("key1"))

				result := row.NewBuilder()
				require.ErrorIs(t, s.Read("key1", nil, result), ErrNotFound)
				require.ErrorIs(t, s.Delete("key1"), ErrNotFound)
			},
		},
		{
			name: "scan_in_key_order",
			fn: func(t *testing.T, s DatabaseSystem) {
				for _, key := range []string{"user003", "user001", "user005", "user002", "user004"} {
					require.NoError(t, s.Insert(key, someRow([2]string{"field0", key}).View()))
				}

				var visited []string
				require.NoError(t, s.Scan("user002", 3, nil, func(key string, r row.View) error {
					value, ok := r.Field([]byte("field0"))
					if !ok {
						return errors.New("missing field0")
					}
					if string(value) != key {
						return errors.New("value does not match the key")
					}
					visited = append(visited, key)
					return nil
				}))

				require.Equal(t, []string{"user002", "user003", "user004"}, visited)
			},
		},
		{
			name: "scan_with_projection",
			fn: func(t *testing.T, s DatabaseSystem) {
				values := someRow(
					[2]string{"field0", "value0"},
					[2]string{"field1", "value1"},
				)
				require.NoError(t, s.Insert("user001", values.View()))

				require.NoError(t, s.Scan("user001", 1, set("field1"), func(key string, r row.View) error {
					requireRow(t, [][2]string{{"field1", "value1"}}, r)
					return nil
				}))
			},
		},
		{
			name: "sync",
			fn: func(t *testing.T, s DatabaseSystem) {
				require.NoError(t, s.Insert("key1", someRow([2]string{"a", "1"}).View()))
				require.NoError(t, s.Sync())
			},
		},
	}
}

func closeOnCleanup(t *testing.T, s DatabaseSystem) {
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
}

func someRow(fields ...[2]string) *row.Builder {
	b := row.NewBuilder()
	for _, f := range fields {
		b.AppendString(f[0], f[1])
	}
	return b
}

func requireRow(t *testing.T, expected [][2]string, v row.View) {
	t.Helper()

	var got [][2]string
	for it := v.Iter(); it.Next(); {
		got = append(got, [2]string{string(it.Name()), string(it.Value())})
	}
	require.Equal(t, expected, got)
}

func set(names ...string) map[string]struct{} {
	s := make(map[string]struct{})
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

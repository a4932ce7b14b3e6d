package kv_benchmark

import (
	"io"
	"sort"
	"sync"

	"github.com/boreq/errors"
	"github.com/kochelmonster/kv_benchmark/row"
	"go.cryptoscope.co/margaret"
	"go.cryptoscope.co/margaret/offset2"
)

// MargaretDatabaseSystem is the log-structured system: records are
// appended to a margaret offset log and a key points at the sequence of
// its newest version. Updates append a new version and repoint the key,
// old versions stay in the log. The index lives in memory only, so a
// reopened system starts empty even though the log file persists.
type MargaretDatabaseSystem struct {
	log   *offset2.OffsetLog
	codec Codec
	mutex sync.Mutex
	index map[string]int64
	merge *row.Builder
}

func NewMargaretDatabaseSystem(dir string, codec Codec) (*MargaretDatabaseSystem, error) {
	log, err := offset2.Open(dir, newBlobCodec())
	if err != nil {
		return nil, errors.Wrap(err, "error calling open")
	}

	return &MargaretDatabaseSystem{
		log:   log,
		codec: codec,
		index: make(map[string]int64),
		merge: row.NewBuilder(),
	}, nil
}

func (m *MargaretDatabaseSystem) Insert(key string, values row.View) error {
	encoded, err := m.codec.Encode(values.Bytes())
	if err != nil {
		return errors.Wrap(err, "error encoding the record")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	seq, err := m.log.Append(encoded)
	if err != nil {
		return errors.Wrap(err, "error calling append")
	}

	m.index[key] = seq
	return nil
}

func (m *MargaretDatabaseSystem) Read(key string, fields map[string]struct{}, result *row.Builder) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	seq, ok := m.index[key]
	if !ok {
		return ErrNotFound
	}

	decoded, err := m.get(seq)
	if err != nil {
		return errors.Wrap(err, "error getting the record")
	}

	return loadInto(decoded, fields, result)
}

func (m *MargaretDatabaseSystem) Update(key string, patch row.View) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	seq, ok := m.index[key]
	if !ok {
		return ErrNotFound
	}

	decoded, err := m.get(seq)
	if err != nil {
		return errors.Wrap(err, "error getting the record")
	}

	merged, err := mergeInto(m.merge, decoded, patch)
	if err != nil {
		return errors.Wrap(err, "error merging the record")
	}

	encoded, err := m.codec.Encode(merged)
	if err != nil {
		return errors.Wrap(err, "error encoding the record")
	}

	newSeq, err := m.log.Append(encoded)
	if err != nil {
		return errors.Wrap(err, "error calling append")
	}

	m.index[key] = newSeq
	return nil
}

func (m *MargaretDatabaseSystem) Scan(startKey string, count int, fields map[string]struct{}, fn func(key string, r row.View) error) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var keys []string
	for key := range m.index {
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
		decoded, err := m.get(m.index[key])
		if err != nil {
			return errors.Wrap(err, "error getting the record")
		}

		v, err := row.NewView(decoded)
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

func (m *MargaretDatabaseSystem) Delete(key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.index[key]; !ok {
		return ErrNotFound
	}

	// the log keeps the dead versions, only the key goes away
	delete(m.index, key)
	return nil
}

func (m *MargaretDatabaseSystem) Sync() error {
	return nil
}

func (m *MargaretDatabaseSystem) Close() error {
	return m.log.Close()
}

func (m *MargaretDatabaseSystem) get(seq int64) ([]byte, error) {
	v, err := m.log.Get(seq)
	if err != nil {
		return nil, errors.Wrap(err, "error calling get")
	}

	decoded, err := m.codec.Decode(v.([]byte))
	if err != nil {
		return nil, errors.Wrap(err, "error decoding the record")
	}

	return decoded, nil
}

// blobCodec passes values through the offset log as raw bytes.
type blobCodec struct {
}

func newBlobCodec() *blobCodec {
	return &blobCodec{}
}

func (c blobCodec) Marshal(value interface{}) ([]byte, error) {
	return value.([]byte), nil
}

func (c blobCodec) Unmarshal(data []byte) (interface{}, error) {
	return data, nil
}

func (c blobCodec) NewDecoder(reader io.Reader) margaret.Decoder {
	return blobDecoder{r: reader}
}

func (c blobCodec) NewEncoder(writer io.Writer) margaret.Encoder {
	return blobEncoder{w: writer}
}

type blobEncoder struct{ w io.Writer }

func (enc blobEncoder) Encode(v interface{}) error {
	_, err := enc.w.Write(v.([]byte))
	return err
}

type blobDecoder struct{ r io.Reader }

func (dec blobDecoder) Decode() (interface{}, error) {
	b, err := io.ReadAll(dec.r)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Package row implements the record encoding shared by all storage
// systems in this benchmark. A row is an ordered collection of
// (name, value) byte-string fields laid out in one contiguous buffer:
//
//	[field_count: u32][ (name_len: u32, value_len: u32, name, value) ]*
//
// All integers are little-endian. The format is a process-local
// intermediate representation, not a durable or wire format; each
// storage system stores the buffer as an opaque blob.
package row

import (
	"encoding/binary"

	"github.com/boreq/errors"
)

// ErrMalformedRecord is returned when a buffer's declared field count or
// field lengths are inconsistent with the buffer's size.
var ErrMalformedRecord = errors.New("malformed record")

const (
	countSize       = 4
	fieldHeaderSize = 8
)

// View is a read-only cursor over an encoded row. It does not own the
// underlying buffer and is valid only for as long as that buffer is
// neither mutated nor freed.
type View struct {
	data []byte
}

// NewView wraps the given buffer without copying it. The declared field
// count and every field length are checked against the buffer size in a
// single pass so that iteration can never read past the end; an
// inconsistent buffer fails with ErrMalformedRecord. A buffer shorter
// than the count prefix is treated as an empty row.
func NewView(data []byte) (View, error) {
	if err := validate(data); err != nil {
		return View{}, err
	}
	return View{data: data}, nil
}

func validate(data []byte) error {
	if len(data) < countSize {
		return nil
	}

	count := binary.LittleEndian.Uint32(data)
	off := countSize

	for i := uint32(0); i < count; i++ {
		if len(data)-off < fieldHeaderSize {
			return errors.Wrap(ErrMalformedRecord, "field header past the end of the buffer")
		}

		nameLen := int(binary.LittleEndian.Uint32(data[off:]))
		valueLen := int(binary.LittleEndian.Uint32(data[off+4:]))
		off += fieldHeaderSize

		if len(data)-off < nameLen+valueLen {
			return errors.Wrap(ErrMalformedRecord, "field data past the end of the buffer")
		}
		off += nameLen + valueLen
	}

	if off != len(data) {
		return errors.Wrap(ErrMalformedRecord, "trailing bytes after the last field")
	}

	return nil
}

// Size returns the stored field count. A buffer shorter than the count
// prefix reports zero fields.
func (v View) Size() uint32 {
	if len(v.data) < countSize {
		return 0
	}
	return binary.LittleEndian.Uint32(v.data)
}

// Bytes returns the underlying buffer. The caller must not modify it.
func (v View) Bytes() []byte {
	return v.data
}

// Iter returns a fresh iterator positioned before the first field. Every
// call restarts from the beginning; iterators are independent of each
// other.
func (v View) Iter() Iterator {
	return Iterator{
		data:      v.data,
		off:       countSize,
		remaining: v.Size(),
	}
}

// Field returns the value of the first field with the given name in
// storage order. Lookup is a linear scan, rows are small.
func (v View) Field(name []byte) ([]byte, bool) {
	for it := v.Iter(); it.Next(); {
		if string(it.Name()) == string(name) {
			return it.Value(), true
		}
	}
	return nil, false
}

// Project clears dest and appends every field of v whose name is in
// wanted, preserving storage order. An empty set produces an empty row:
// "no fields requested" is not the same thing as "all fields requested"
// and callers must distinguish the two before calling.
func (v View) Project(dest *Builder, wanted map[string]struct{}) {
	dest.Clear()

	if len(wanted) == 0 {
		return
	}

	for it := v.Iter(); it.Next(); {
		if _, ok := wanted[string(it.Name())]; ok {
			dest.Append(it.Name(), it.Value())
		}
	}
}

// Iterator walks the fields of a view in storage order. The name and
// value slices point into the view's buffer and share its lifetime.
type Iterator struct {
	data      []byte
	off       int
	remaining uint32
	name      []byte
	value     []byte
}

// Next advances to the next field, returning false once the row is
// exhausted. The view was validated on construction so Next never reads
// past the buffer.
func (it *Iterator) Next() bool {
	if it.remaining == 0 {
		return false
	}

	nameLen := int(binary.LittleEndian.Uint32(it.data[it.off:]))
	valueLen := int(binary.LittleEndian.Uint32(it.data[it.off+4:]))
	it.off += fieldHeaderSize

	it.name = it.data[it.off : it.off+nameLen]
	it.off += nameLen
	it.value = it.data[it.off : it.off+valueLen]
	it.off += valueLen

	it.remaining--
	return true
}

// Name returns the name of the current field.
func (it *Iterator) Name() []byte {
	return it.name
}

// Value returns the value of the current field.
func (it *Iterator) Value() []byte {
	return it.value
}

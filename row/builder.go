package row

import (
	"encoding/binary"
)

const initialCapacity = 1024

// Builder owns one growable encoded row plus a scratch buffer used only
// by Update. It exposes the same read interface as View through the
// View method. A builder must not be shared between goroutines; the
// benchmark gives every worker its own instance.
type Builder struct {
	buf     []byte
	scratch []byte
}

// NewBuilder returns an empty builder (field count zero) with a small
// preallocated capacity.
func NewBuilder() *Builder {
	return &Builder{
		buf: make([]byte, countSize, initialCapacity),
	}
}

// Append adds one field to the current row and bumps the stored count.
// Names are not checked against existing fields, duplicates accumulate;
// deduplication is the caller's job.
func (b *Builder) Append(name, value []byte) {
	b.buf = appendField(b.buf, name, value)
	b.setCount(b.Size() + 1)
}

// AppendString is Append for string arguments.
func (b *Builder) AppendString(name, value string) {
	b.Append([]byte(name), []byte(value))
}

// Clear resets the builder to an empty row while keeping the allocated
// capacity.
func (b *Builder) Clear() {
	b.buf = b.buf[:countSize]
	b.setCount(0)
}

// Assign replaces the current row with a byte-for-byte copy of the
// given view's buffer.
func (b *Builder) Assign(v View) {
	src := v.Bytes()
	if len(src) < countSize {
		b.Clear()
		return
	}
	b.buf = append(b.buf[:0], src...)
}

// Update merges patch into the current row without modifying it. A name
// already present in the current row keeps its current value even when
// the patch carries a different one; only names absent from the current
// row are appended, in patch order. The returned view points into a
// scratch buffer owned by the builder and is invalidated by the next
// Append, Clear, Assign or Update call; callers must copy the bytes out
// before mutating the builder again.
func (b *Builder) Update(patch View) View {
	b.scratch = append(b.scratch[:0], b.buf...)

	count := b.Size()
	current := b.View()

	for it := patch.Iter(); it.Next(); {
		if _, exists := current.Field(it.Name()); exists {
			continue
		}
		b.scratch = appendField(b.scratch, it.Name(), it.Value())
		count++
	}

	binary.LittleEndian.PutUint32(b.scratch, count)

	return View{data: b.scratch}
}

// View returns a read-only view over the current row. It is invalidated
// by any mutating call on the builder.
func (b *Builder) View() View {
	return View{data: b.buf}
}

// Bytes returns the current row's encoded bytes. The caller must not
// modify them.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Size returns the current field count.
func (b *Builder) Size() uint32 {
	return binary.LittleEndian.Uint32(b.buf)
}

func (b *Builder) setCount(count uint32) {
	binary.LittleEndian.PutUint32(b.buf, count)
}

func appendField(buf []byte, name, value []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(name)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(value)))
	buf = append(buf, name...)
	buf = append(buf, value...)
	return buf
}

package fixtures

import (
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/kochelmonster/kv_benchmark/row"
)

func Directory(t testing.TB, dir string) string {
	name, err := os.MkdirTemp(dir, "kv-bench")
	if err != nil {
		t.Fatal(err)
	}

	cleanup := func() {
		err := os.RemoveAll(name)
		if err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(cleanup)

	return name
}

func RandomBytes(n int) []byte {
	r := make([]byte, n)
	_, err := rand.Read(r)
	if err != nil {
		panic(err)
	}
	return r
}

// SomeRow builds a row with fieldCount fields named field0, field1, ...
// each holding valueLen random bytes.
func SomeRow(fieldCount, valueLen int) *row.Builder {
	b := row.NewBuilder()
	for i := 0; i < fieldCount; i++ {
		b.Append([]byte(FieldName(i)), RandomBytes(valueLen))
	}
	return b
}

func FieldName(i int) string {
	return fmt.Sprintf("field%d", i)
}

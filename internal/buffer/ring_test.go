package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func identity(v interface{}) interface{} {
	return v
}

func TestRing_Push(t *testing.T) {
	size := 10

	ring := NewRing(size)

	for i := 0; i < 1000; i++ {
		ring.Push(i)
		if i > size-1 {
			assert.Equal(t, size, ring.Size())
		} else {
			assert.Equal(t, i+1, ring.Size())
		}
	}
}

func TestRing_Get(t *testing.T) {
	size := 3
	type bb struct {
		index int
	}

	ring := NewRing(size)

	for i := 0; i < 100; i++ {
		ring.Push(bb{index: i})

		values := ring.Get(func(v interface{}) interface{} {
			return v.(bb).index
		})

		if i > size-1 {
			assert.Equal(t, []interface{}{i - 2, i - 1, i}, values)
		} else {
			assert.Equal(t, i+1, len(values))
			assert.Equal(t, 0, values[0])
			assert.Equal(t, i, values[i])
		}
	}
}

func TestRing_Clear(t *testing.T) {
	ring := NewRing(2)
	ring.Push(1)
	ring.Push(2)
	ring.Push(3)

	ring.Clear()
	assert.Equal(t, 0, ring.Size())
	assert.Empty(t, ring.Get(identity))

	// the element type is reset as well
	ring.Push("a")
	assert.Equal(t, []interface{}{"a"}, ring.Get(identity))
}

func TestRing_MixedTypes(t *testing.T) {
	ring := NewRing(2)
	ring.Push(1)
	assert.Panics(t, func() {
		ring.Push("1")
	})
}

func TestRing_MinimumSize(t *testing.T) {
	ring := NewRing(0)
	ring.Push(1)
	ring.Push(2)
	assert.Equal(t, []interface{}{2}, ring.Get(identity))
}

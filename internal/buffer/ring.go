package buffer

import (
	"fmt"
	"reflect"
)

// Transform maps a stored element to the value returned by Get.
type Transform func(v interface{}) interface{}

// Ring is a ring buffer keeping the last x elements.
// All elements must be of the same type.
type Ring struct {
	index  int
	count  int
	values []interface{}
	t      reflect.Type
}

// NewRing creates a new ring with the given buffer size.
func NewRing(size int) *Ring {
	if size < 1 {
		size = 1
	}
	return &Ring{
		values: make([]interface{}, size),
	}
}

// Size returns the number of elements within the ring.
func (r *Ring) Size() int {
	if r.count < len(r.values) {
		return r.count
	}
	return len(r.values)
}

// Push adds an element to the ring, overwriting the oldest one when full.
func (r *Ring) Push(v interface{}) {
	tv := reflect.TypeOf(v)
	if r.t == nil {
		r.t = tv
	}
	if r.t != tv {
		panic(fmt.Sprintf("unexpected type added to ring %v vs %v", r.t, tv))
	}

	r.values[r.index] = v
	r.index = (r.index + 1) % len(r.values)
	r.count++
}

// Get returns the elements oldest first.
func (r *Ring) Get(transform Transform) []interface{} {
	l := r.Size()
	start := 0
	if r.count > len(r.values) {
		start = r.index
	}
	v := make([]interface{}, l)
	for i := 0; i < l; i++ {
		v[i] = transform(r.values[(start+i)%len(r.values)])
	}
	return v
}

// Clear drops all elements.
func (r *Ring) Clear() {
	r.index = 0
	r.count = 0
	r.t = nil
	for i := range r.values {
		r.values[i] = nil
	}
}

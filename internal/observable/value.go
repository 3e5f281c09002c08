// Package observable provides a single-goroutine reactive value that can
// mirror another value ("backing") and fan updates out to listeners.
package observable

import (
	"errors"
	"slices"

	"gopkg.in/yaml.v3"
)

var (
	ErrBackingCycle = errors.New("observable: backing would create a cycle")
	ErrNotDecodable = errors.New("observable: values cannot be decoded from encoded state")
)

// Listener receives the current value; ok is false when the value is empty.
type Listener[T any] func(v T, ok bool)

// Registration is the handle returned by Listen.
type Registration struct {
	owner   any
	removed bool
	detach  func()
}

// Remove deregisters the listener. Calling it more than once is a no-op.
func (r *Registration) Remove() {
	if r == nil || r.removed {
		return
	}
	r.removed = true
	if r.detach != nil {
		r.detach()
	}
}

func (r *Registration) Active() bool {
	return r != nil && !r.removed
}

type entry[T any] struct {
	reg *Registration
	fn  Listener[T]
}

// Value holds an optional value of type T. It is not safe for concurrent
// use: every call for one Value must come from the same goroutine.
type Value[T any] struct {
	value   T
	ok      bool
	entries []*entry[T]
	source  *Value[T]
	link    *Registration
}

func New[T any]() *Value[T] {
	return &Value[T]{}
}

// Of returns a value that already holds v.
func Of[T any](v T) *Value[T] {
	return &Value[T]{value: v, ok: true}
}

func (v *Value[T]) Current() (T, bool) {
	return v.value, v.ok
}

// Set replaces the value and notifies every listener in registration order,
// even when the new value equals the old one. While the value is backed, the
// next change on the source overwrites whatever was set here.
func (v *Value[T]) Set(x T) {
	v.value, v.ok = x, true
	v.notify()
}

// Clear empties the value and notifies listeners.
func (v *Value[T]) Clear() {
	var zero T
	v.value, v.ok = zero, false
	v.notify()
}

// Listen registers fn under owner and immediately calls it once with the
// current value. owner must be comparable.
func (v *Value[T]) Listen(owner any, fn Listener[T]) *Registration {
	reg := &Registration{owner: owner}
	e := &entry[T]{reg: reg, fn: fn}
	reg.detach = func() { v.drop(e) }
	v.entries = append(v.entries, e)
	fn(v.value, v.ok)
	return reg
}

// RemoveOwner drops every listener registered under owner.
func (v *Value[T]) RemoveOwner(owner any) {
	for _, e := range slices.Clone(v.entries) {
		if e.reg.owner == owner {
			e.reg.Remove()
		}
	}
}

func (v *Value[T]) ListenerCount() int {
	n := 0
	for _, e := range v.entries {
		if !e.reg.removed {
			n++
		}
	}
	return n
}

// BackWith makes v mirror source. Any previous source is detached first, and
// the source's current value (or empty) is delivered right away. A nil source
// detaches and clears. Backing v with itself, directly or through a chain of
// sources, returns ErrBackingCycle and leaves v unchanged.
func (v *Value[T]) BackWith(source *Value[T]) error {
	for s := source; s != nil; s = s.activeSource() {
		if s == v {
			return ErrBackingCycle
		}
	}
	v.Detach()
	if source == nil {
		v.Clear()
		return nil
	}
	v.source = source
	v.link = source.Listen(v, func(x T, ok bool) {
		if ok {
			v.Set(x)
		} else {
			v.Clear()
		}
	})
	return nil
}

// Detach stops forwarding from the current source. The value and listeners
// are left as they are.
func (v *Value[T]) Detach() {
	if v.link != nil {
		v.link.Remove()
	}
	v.link = nil
	v.source = nil
}

func (v *Value[T]) Source() *Value[T] {
	return v.activeSource()
}

func (v *Value[T]) Backed() bool {
	return v.activeSource() != nil
}

// activeSource drops a source whose forwarding link was severed from the
// source side, e.g. by the source's Reset.
func (v *Value[T]) activeSource() *Value[T] {
	if v.source != nil && !v.link.Active() {
		v.source, v.link = nil, nil
	}
	return v.source
}

// Reset empties the value, drops every listener and detaches the source.
func (v *Value[T]) Reset() {
	v.Detach()
	for _, e := range v.entries {
		e.reg.removed = true
	}
	v.entries = nil
	var zero T
	v.value, v.ok = zero, false
}

func (v *Value[T]) notify() {
	value, ok := v.value, v.ok
	for _, e := range slices.Clone(v.entries) {
		if e.reg.removed {
			continue
		}
		e.fn(value, ok)
	}
}

func (v *Value[T]) drop(e *entry[T]) {
	v.entries = slices.DeleteFunc(v.entries, func(x *entry[T]) bool { return x == e })
}

func (v *Value[T]) UnmarshalJSON([]byte) error {
	return ErrNotDecodable
}

func (v *Value[T]) UnmarshalYAML(*yaml.Node) error {
	return ErrNotDecodable
}

func (v *Value[T]) GobDecode([]byte) error {
	return ErrNotDecodable
}

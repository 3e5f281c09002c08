package observable

import (
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

type recorder struct {
	values []int
	oks    []bool
}

func (r *recorder) listen(v int, ok bool) {
	r.values = append(r.values, v)
	r.oks = append(r.oks, ok)
}

func (r *recorder) last() (int, bool) {
	if len(r.values) == 0 {
		return 0, false
	}
	return r.values[len(r.values)-1], r.oks[len(r.oks)-1]
}

func TestListen_DeliversCurrentImmediately(t *testing.T) {
	empty := New[int]()
	var rec recorder
	empty.Listen("owner", rec.listen)
	if len(rec.values) != 1 || rec.oks[0] {
		t.Errorf("Listen() on empty value delivered %v/%v, expected one empty call", rec.values, rec.oks)
	}

	full := Of(7)
	var rec2 recorder
	full.Listen("owner", rec2.listen)
	if v, ok := rec2.last(); len(rec2.values) != 1 || !ok || v != 7 {
		t.Errorf("Listen() on full value delivered %v/%v, expected [7]", rec2.values, rec2.oks)
	}
}

func TestSet_NotifiesInOrderWithoutDedup(t *testing.T) {
	v := New[int]()
	var order []string
	v.Listen("a", func(int, bool) { order = append(order, "a") })
	v.Listen("b", func(int, bool) { order = append(order, "b") })
	order = nil

	v.Set(1)
	v.Set(1)

	expected := []string{"a", "b", "a", "b"}
	if len(order) != len(expected) {
		t.Fatalf("Set() notified %v, expected %v", order, expected)
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Errorf("notification %d = %s, expected %s", i, order[i], expected[i])
		}
	}
}

func TestRegistration_Remove(t *testing.T) {
	v := New[int]()
	var rec recorder
	reg := v.Listen("owner", rec.listen)
	reg.Remove()
	reg.Remove()
	v.Set(3)

	if len(rec.values) != 1 {
		t.Errorf("Expected no calls after Remove(), got %v", rec.values)
	}
	if reg.Active() {
		t.Error("Expected registration to be inactive")
	}
	if v.ListenerCount() != 0 {
		t.Errorf("ListenerCount() = %d, expected 0", v.ListenerCount())
	}
}

func TestRemoveOwner(t *testing.T) {
	v := New[int]()
	var a, b recorder
	v.Listen("a", a.listen)
	v.Listen("a", a.listen)
	v.Listen("b", b.listen)
	v.RemoveOwner("a")
	v.Set(9)

	if len(a.values) != 2 {
		t.Errorf("Owner a received %d calls, expected 2 (initial only)", len(a.values))
	}
	if got, _ := b.last(); got != 9 {
		t.Errorf("Owner b last value = %d, expected 9", got)
	}
}

func TestRemoveDuringNotification(t *testing.T) {
	v := New[int]()
	var second recorder
	var reg2 *Registration
	v.Listen("first", func(x int, ok bool) {
		if ok && reg2 != nil {
			reg2.Remove()
		}
	})
	reg2 = v.Listen("second", second.listen)
	v.Set(1)

	if len(second.values) != 1 {
		t.Errorf("Removed listener got %v, expected only the initial call", second.values)
	}
}

func TestBackWith_ForwardsCurrentAndFuture(t *testing.T) {
	source := Of(1)
	v := New[int]()
	var rec recorder
	v.Listen("owner", rec.listen)

	if err := v.BackWith(source); err != nil {
		t.Fatalf("BackWith() error = %v", err)
	}
	if got, ok := rec.last(); !ok || got != 1 {
		t.Errorf("After BackWith() last = %d/%v, expected 1", got, ok)
	}

	source.Set(2)
	if got, _ := rec.last(); got != 2 {
		t.Errorf("After source.Set(2) last = %d, expected 2", got)
	}
	if cur, _ := v.Current(); cur != 2 {
		t.Errorf("Current() = %d, expected 2", cur)
	}
}

func TestBackWith_EmptySourceDeliversEmpty(t *testing.T) {
	v := Of(5)
	var rec recorder
	v.Listen("owner", rec.listen)
	if err := v.BackWith(New[int]()); err != nil {
		t.Fatalf("BackWith() error = %v", err)
	}
	if _, ok := rec.last(); ok {
		t.Error("Expected empty delivery after backing with empty source")
	}
}

func TestBackWith_DirectSetOverwrittenBySource(t *testing.T) {
	source := Of(1)
	v := New[int]()
	if err := v.BackWith(source); err != nil {
		t.Fatal(err)
	}

	v.Set(100)
	if cur, _ := v.Current(); cur != 100 {
		t.Errorf("Current() after direct Set = %d, expected 100", cur)
	}
	source.Set(2)
	if cur, _ := v.Current(); cur != 2 {
		t.Errorf("Current() after source change = %d, expected source value 2", cur)
	}
}

func TestBackWith_RebackIgnoresFirstSource(t *testing.T) {
	first := Of(1)
	second := Of(10)
	v := New[int]()
	var rec recorder
	v.Listen("owner", rec.listen)

	_ = v.BackWith(first)
	_ = v.BackWith(second)
	rec.values, rec.oks = nil, nil

	first.Set(2)
	second.Set(20)

	if len(rec.values) != 1 || rec.values[0] != 20 {
		t.Errorf("Listener saw %v, expected only [20]", rec.values)
	}
	if first.ListenerCount() != 0 {
		t.Errorf("first.ListenerCount() = %d, expected 0", first.ListenerCount())
	}
}

func TestBackWith_Transitive(t *testing.T) {
	producer := Of(1)
	middle := New[int]()
	v := New[int]()
	_ = middle.BackWith(producer)
	_ = v.BackWith(middle)

	producer.Set(2)
	if cur, _ := v.Current(); cur != 2 {
		t.Errorf("Current() = %d, expected 2 through middle", cur)
	}

	other := Of(50)
	_ = middle.BackWith(other)
	if cur, _ := v.Current(); cur != 50 {
		t.Errorf("Current() after middle re-backed = %d, expected 50", cur)
	}

	producer.Set(3)
	if cur, _ := v.Current(); cur != 50 {
		t.Errorf("Current() = %d, expected old producer to be ignored", cur)
	}

	middle.Source().Clear()
	if _, ok := v.Current(); ok {
		t.Error("Expected clearing the resolved source to empty v")
	}
}

func TestBackWith_Cycle(t *testing.T) {
	a := New[int]()
	b := New[int]()
	if err := a.BackWith(a); !errors.Is(err, ErrBackingCycle) {
		t.Errorf("a.BackWith(a) error = %v, expected ErrBackingCycle", err)
	}
	_ = b.BackWith(a)
	if err := a.BackWith(b); !errors.Is(err, ErrBackingCycle) {
		t.Errorf("a.BackWith(b) error = %v, expected ErrBackingCycle", err)
	}
	if a.Backed() {
		t.Error("Expected a to stay unbacked after rejected cycle")
	}
}

func TestBackWith_Nil(t *testing.T) {
	source := Of(4)
	v := New[int]()
	_ = v.BackWith(source)
	if err := v.BackWith(nil); err != nil {
		t.Fatalf("BackWith(nil) error = %v", err)
	}
	if v.Backed() {
		t.Error("Expected BackWith(nil) to detach")
	}
	if _, ok := v.Current(); ok {
		t.Error("Expected BackWith(nil) to clear the value")
	}
}

func TestReset(t *testing.T) {
	source := Of(1)
	v := New[int]()
	var rec recorder
	v.Listen("owner", rec.listen)
	_ = v.BackWith(source)
	calls := len(rec.values)

	v.Reset()
	source.Set(2)

	if _, ok := v.Current(); ok {
		t.Error("Expected empty value after Reset()")
	}
	if v.ListenerCount() != 0 {
		t.Errorf("ListenerCount() = %d, expected 0", v.ListenerCount())
	}
	if v.Backed() {
		t.Error("Expected no source after Reset()")
	}
	if len(rec.values) != calls {
		t.Errorf("Listener called %d times after Reset(), expected none", len(rec.values)-calls)
	}
	if source.ListenerCount() != 0 {
		t.Errorf("source.ListenerCount() = %d, expected 0", source.ListenerCount())
	}
}

func TestReset_SourceSeversDownstream(t *testing.T) {
	source := Of(1)
	v := New[int]()
	if err := v.BackWith(source); err != nil {
		t.Fatalf("BackWith() error = %v", err)
	}

	source.Reset()
	source.Set(5)

	if got, _ := v.Current(); got != 1 {
		t.Errorf("Current() = %d, expected last forwarded value 1", got)
	}
	if v.Backed() {
		t.Error("Expected Backed() = false after the source was reset")
	}
	if v.Source() != nil {
		t.Error("Expected Source() = nil after the source was reset")
	}
	if err := source.BackWith(v); err != nil {
		t.Errorf("source.BackWith(v) error = %v, expected nil", err)
	}
	if got, _ := source.Current(); got != 1 {
		t.Errorf("source.Current() = %d, expected 1", got)
	}
}

func TestDecodeRejected(t *testing.T) {
	var v Value[int]
	if err := json.Unmarshal([]byte(`{"value":1}`), &v); !errors.Is(err, ErrNotDecodable) {
		t.Errorf("json.Unmarshal() error = %v, expected ErrNotDecodable", err)
	}
	if err := yaml.Unmarshal([]byte("value: 1\n"), &v); !errors.Is(err, ErrNotDecodable) {
		t.Errorf("yaml.Unmarshal() error = %v, expected ErrNotDecodable", err)
	}
	if err := v.GobDecode(nil); !errors.Is(err, ErrNotDecodable) {
		t.Errorf("GobDecode() error = %v, expected ErrNotDecodable", err)
	}
}

package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Iron-Ham/modhost/internal/component"
	"github.com/Iron-Ham/modhost/internal/testutil"
)

func newDesc(id string, opts ...component.Option) *component.Descriptor {
	return component.NewDescriptor(id, testutil.NewFake(id, nil), opts...)
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()
	d := newDesc("db")

	actual, existed := r.Register(d)
	if existed || actual != d {
		t.Fatalf("Register() = (%p, %v), want (%p, false)", actual, existed, d)
	}

	got, ok := r.Lookup("db")
	if !ok || got != d {
		t.Errorf("Lookup(db) = (%p, %v), want (%p, true)", got, ok, d)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup(missing) should report not found")
	}
}

func TestRegistry_RegisterKeepsOneDescriptorPerType(t *testing.T) {
	r := New()
	first := newDesc("db")
	second := newDesc("db")

	r.Register(first)
	actual, existed := r.Register(second)

	if !existed {
		t.Error("second Register should report existed=true")
	}
	if actual != first {
		t.Error("second Register should hand back the stored descriptor")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := New()
	d := newDesc("db")
	r.Register(d)

	if r.Remove(newDesc("db")) {
		t.Error("Remove with a different descriptor of the same type must be a no-op")
	}
	if !r.Remove(d) {
		t.Error("Remove(d) should succeed")
	}
	if r.Remove(d) {
		t.Error("second Remove(d) should report false")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_ListOrder(t *testing.T) {
	r := New()
	for _, id := range []string{"c", "a", "b"} {
		r.Register(newDesc(id))
	}
	r.Remove(r.Descriptors()[1])

	var got []string
	for _, snap := range r.List() {
		got = append(got, snap.TypeID)
	}
	want := []string{"c", "b"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("List() order = %v, want %v", got, want)
	}
}

func TestRegistry_FindByReloadKey(t *testing.T) {
	r := New()
	r.Register(newDesc("plain"))
	kv := newDesc("kv", component.WithReloadKey("store"))
	r.Register(kv)

	got, ok := r.FindByReloadKey("store")
	if !ok || got != kv {
		t.Errorf("FindByReloadKey(store) = (%v, %v), want kv", got, ok)
	}
	if _, ok := r.FindByReloadKey(""); ok {
		t.Error("empty key must never match")
	}
	if _, ok := r.FindByReloadKey("nope"); ok {
		t.Error("unknown key must not match")
	}
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.Register(newDesc(fmt.Sprintf("c%d", i)))
		}(i)
		go func() {
			defer wg.Done()
			for _, snap := range r.List() {
				if snap.TypeID == "" {
					t.Error("snapshot with empty type id")
				}
			}
		}()
	}
	wg.Wait()

	if r.Len() != 8 {
		t.Errorf("Len() = %d, want 8", r.Len())
	}
}

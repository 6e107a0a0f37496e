package ecs

import (
	"errors"
	"testing"

	"github.com/milk9111/motionwarp/ecs/component"
)

func TestEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, CreateEntity(w))
			}
			if len(Entities(w)) != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, len(Entities(w)))
			}
			if c.destroyIndex < 0 {
				return
			}
			if !DestroyEntity(w, ents[c.destroyIndex]) {
				t.Fatalf("DestroyEntity should return true for alive entity")
			}
			if IsAlive(w, ents[c.destroyIndex]) {
				t.Fatalf("entity should not be alive after destruction")
			}
			if DestroyEntity(w, ents[c.destroyIndex]) {
				t.Fatalf("second destroy should report false")
			}
			if len(Entities(w)) != c.create-1 {
				t.Fatalf("expected %d entities after destroy, got %d", c.create-1, len(Entities(w)))
			}
		})
	}
}

func TestRecycledSlotGetsNewGeneration(t *testing.T) {
	w := NewWorld()
	kind := component.NewComponentKind[int]()

	old := CreateEntity(w)
	if err := Add(w, old, kind, intPtr(1)); err != nil {
		t.Fatalf("add: %v", err)
	}
	DestroyEntity(w, old)

	fresh := CreateEntity(w)
	if fresh.id() != old.id() {
		t.Fatalf("expected slot %d to be reused, got %d", old.id(), fresh.id())
	}
	if fresh == old {
		t.Fatalf("recycled entity must differ from the stale handle")
	}
	if Has(w, fresh, kind) {
		t.Fatalf("components of the destroyed entity leaked into the new one")
	}
	if err := Add(w, old, kind, intPtr(2)); !errors.Is(err, ErrEntityNotAlive) {
		t.Fatalf("expected ErrEntityNotAlive for stale handle, got %v", err)
	}
}

func TestComponents(t *testing.T) {
	w := NewWorld()

	h1 := component.NewComponent[int]()
	h2 := component.NewComponent[string]()

	e1 := CreateEntity(w)
	e2 := CreateEntity(w)

	tests := []struct {
		name     string
		setup    func() error
		check    func(t *testing.T)
		teardown func() bool
	}{
		{
			name:  "add_int_to_e1",
			setup: func() error { return Add(w, e1, h1.Kind(), intPtr(10)) },
			check: func(t *testing.T) {
				v, ok := Get(w, e1, h1.Kind())
				if !ok || *v != 10 {
					t.Fatalf("expected 10, got %v ok=%v", v, ok)
				}
			},
			teardown: func() bool { return Remove(w, e1, h1.Kind()) },
		},
		{
			name: "add_str_to_both",
			setup: func() error {
				if err := Add(w, e1, h2.Kind(), stringPtr("a")); err != nil {
					return err
				}
				return Add(w, e2, h2.Kind(), stringPtr("b"))
			},
			check: func(t *testing.T) {
				if !Has(w, e1, h2.Kind()) || !Has(w, e2, h2.Kind()) {
					t.Fatalf("expected both entities to have string component")
				}
				if e, v, ok := First(w, h2.Kind()); !ok || e != e1 || *v != "a" {
					t.Fatalf("expected e1 first, got %v %v", e, ok)
				}
			},
			teardown: func() bool { return Remove(w, e1, h2.Kind()) },
		},
		{
			name: "replace_keeps_single_entry",
			setup: func() error {
				if err := Add(w, e2, h1.Kind(), intPtr(1)); err != nil {
					return err
				}
				return Add(w, e2, h1.Kind(), intPtr(2))
			},
			check: func(t *testing.T) {
				count := 0
				ForEach(w, h1.Kind(), func(_ Entity, v *int) {
					count++
					if *v != 2 {
						t.Fatalf("expected replaced value 2, got %d", *v)
					}
				})
				if count != 1 {
					t.Fatalf("expected one entry, got %d", count)
				}
			},
			teardown: func() bool { return Remove(w, e2, h1.Kind()) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.setup(); err != nil {
				t.Fatalf("setup failed: %v", err)
			}
			tc.check(t)
			if !tc.teardown() {
				t.Fatalf("teardown failed for %s", tc.name)
			}
		})
	}

	if err := Add[int](w, e1, h1.Kind(), nil); !errors.Is(err, ErrNilComponent) {
		t.Fatalf("expected ErrNilComponent, got %v", err)
	}
	if err := Add(w, e1, component.ComponentKind[int]{}, intPtr(1)); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestForEachRemovingDuringIteration(t *testing.T) {
	w := NewWorld()
	kind := component.NewComponentKind[int]()
	for i := 0; i < 5; i++ {
		if err := Add(w, CreateEntity(w), kind, intPtr(i)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	visited := 0
	ForEach(w, kind, func(e Entity, _ *int) {
		visited++
		Remove(w, e, kind)
	})
	if visited != 5 {
		t.Fatalf("expected to visit 5 entities, got %d", visited)
	}
	if _, _, ok := First(w, kind); ok {
		t.Fatalf("expected store to be empty")
	}
}

func TestJoins(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "three_way_intersection",
			run: func(t *testing.T) {
				w := NewWorld()
				e1, e2, e3 := CreateEntity(w), CreateEntity(w), CreateEntity(w)
				ka := component.NewComponentKind[int]()
				kb := component.NewComponentKind[int]()
				kc := component.NewComponentKind[int]()

				mustAdd(t, w, e1, ka, 1)
				mustAdd(t, w, e2, ka, 2)
				mustAdd(t, w, e2, kb, 3)
				mustAdd(t, w, e2, kc, 5)
				mustAdd(t, w, e3, kb, 4)

				var res []Entity
				ForEach3(w, ka, kb, kc, func(e Entity, _, _, _ *int) { res = append(res, e) })
				if len(res) != 1 || res[0] != e2 {
					t.Fatalf("expected only e2, got %v", res)
				}
			},
		},
		{
			name: "four_way_ignores_dead",
			run: func(t *testing.T) {
				w := NewWorld()
				e := CreateEntity(w)
				ka := component.NewComponentKind[int]()
				kb := component.NewComponentKind[int]()
				kc := component.NewComponentKind[int]()
				kd := component.NewComponentKind[int]()
				for i, k := range []component.ComponentKind[int]{ka, kb, kc, kd} {
					mustAdd(t, w, e, k, i)
				}
				DestroyEntity(w, e)

				var res []Entity
				ForEach4(w, ka, kb, kc, kd, func(e Entity, _, _, _, _ *int) { res = append(res, e) })
				if len(res) != 0 {
					t.Fatalf("expected empty result after destroy, got %v", res)
				}
			},
		},
		{
			name: "missing_store",
			run: func(t *testing.T) {
				w := NewWorld()
				e := CreateEntity(w)
				ka := component.NewComponentKind[int]()
				kb := component.NewComponentKind[string]()
				mustAdd(t, w, e, ka, 1)

				called := false
				ForEach2(w, ka, kb, func(Entity, *int, *string) { called = true })
				if called {
					t.Fatalf("expected no visits when a store is missing")
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, tc.run)
	}
}

type countingSystem struct {
	seen []uint64
}

func (s *countingSystem) Update(w *World) {
	s.seen = append(s.seen, w.Tick())
	w.Events().Push(Event{Kind: EventApproach, Tick: w.Tick()})
}

func TestSchedulerAdvancesTick(t *testing.T) {
	w := NewWorld()
	a, b := &countingSystem{}, &countingSystem{}
	s := NewScheduler(a, nil, b)
	if len(s.Systems()) != 2 {
		t.Fatalf("nil systems should be skipped")
	}
	for i := 0; i < 3; i++ {
		s.Update(w)
	}
	if w.Tick() != 3 {
		t.Fatalf("expected tick 3, got %d", w.Tick())
	}
	if len(a.seen) != 3 || a.seen[2] != 2 || b.seen[0] != 0 {
		t.Fatalf("unexpected ticks %v %v", a.seen, b.seen)
	}
	if evts := w.Events().Drain(); len(evts) != 6 {
		t.Fatalf("expected 6 events, got %d", len(evts))
	}
	if w.Events().Drain() != nil {
		t.Fatalf("drain should empty the queue")
	}
}

func mustAdd(t *testing.T, w *World, e Entity, k component.ComponentKind[int], v int) {
	t.Helper()
	if err := Add(w, e, k, &v); err != nil {
		t.Fatal(err)
	}
}

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}

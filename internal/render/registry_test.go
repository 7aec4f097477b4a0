package render

import "testing"

func TestRegistryRegister(t *testing.T) {
	var r Registry

	if err := r.Register(Technique{Name: "a", New: func() Renderer { return &listRenderer{} }}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(Technique{Name: "a", New: func() Renderer { return &listRenderer{} }}); err == nil {
		t.Error("duplicate name must be rejected")
	}
	if err := r.Register(Technique{New: func() Renderer { return &listRenderer{} }}); err == nil {
		t.Error("empty name must be rejected")
	}
	if err := r.Register(Technique{Name: "b"}); err == nil {
		t.Error("nil factory must be rejected")
	}
}

func TestRegistryLookup(t *testing.T) {
	var r Registry
	if err := RegisterBuiltin(&r); err != nil {
		t.Fatal(err)
	}

	tq, ok := r.Lookup("per-tri-id")
	if !ok || tq.Name != "per-tri-id" {
		t.Errorf("lookup per-tri-id: %v %v", tq, ok)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("lookup of unknown name must fail")
	}
}

func TestRegistryAvailableOrder(t *testing.T) {
	var r Registry
	factory := func() Renderer { return &listRenderer{} }
	no := func() bool { return false }

	r.Register(Technique{Name: "zeta", Priority: 5, New: factory})
	r.Register(Technique{Name: "alpha", Priority: 5, New: factory})
	r.Register(Technique{Name: "first", Priority: 1, New: factory})
	r.Register(Technique{Name: "hidden", Priority: 0, Available: no, New: factory})

	got := r.Available()
	want := []string{"first", "alpha", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("available: got %d techniques, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("available[%d]: got %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestBuiltinTechniques(t *testing.T) {
	var r Registry
	if err := RegisterBuiltin(&r); err != nil {
		t.Fatal(err)
	}

	s := testScene([3]int32{0, 0, 0})
	for _, tc := range []struct {
		name  string
		items int
	}{
		{"per-draw", 3},    // one item per part
		{"per-tri-id", 1},  // unbounded combining merges all three
		{"part-search", 2}, // search batch of 2 splits after two parts
	} {
		tq, ok := r.Lookup(tc.name)
		if !ok {
			t.Fatalf("%s not registered", tc.name)
		}
		rd := tq.New()
		var stats Stats
		cfg := Config{ObjectNum: uint32(len(s.Objects)), SearchBatch: 2}
		if err := rd.Init(s, cfg, &stats); err != nil {
			t.Fatalf("%s init: %v", tc.name, err)
		}
		if got := len(rd.DrawItems()); got != tc.items {
			t.Errorf("%s: got %d items, want %d", tc.name, got, tc.items)
		}
	}
}

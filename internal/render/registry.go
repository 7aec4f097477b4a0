package render

import (
	"fmt"
	"sort"

	"github.com/Faultbox/cadbatch/internal/scene"
)

// Mode selects how draw items are generated for a technique.
type Mode int

const (
	// ModePerDraw issues one draw per part (no combining).
	ModePerDraw Mode = iota
	// ModePerTriID combines without bound; per-triangle id lookup
	// resolves parts downstream.
	ModePerTriID
	// ModePartSearch combines up to the configured search batch; the
	// shader searches the part table within each batch.
	ModePartSearch
)

// MaxCombineForMode maps a technique mode to the combine limit passed
// to FillDrawItems.
func MaxCombineForMode(mode Mode, cfg Config) uint32 {
	switch mode {
	case ModePerTriID:
		return CombineUnbounded
	case ModePartSearch:
		return cfg.SearchBatch
	default:
		return 0
	}
}

// Renderer prepares draw data for one technique. Actual command
// submission belongs to the display layer; a Renderer only turns the
// scene into the item list that layer consumes.
type Renderer interface {
	Init(s *scene.Scene, cfg Config, stats *Stats) error
	DrawItems() []DrawItem
}

// Technique describes one registered render technique.
type Technique struct {
	Name      string
	Priority  int
	Available func() bool
	New       func() Renderer
}

// Registry maps technique names to descriptors. It is populated by an
// explicit registration call, never by package init side effects, so
// startup ordering stays deterministic.
type Registry struct {
	techniques []Technique
}

// Register adds a technique. Duplicate names are rejected.
func (r *Registry) Register(t Technique) error {
	if t.Name == "" || t.New == nil {
		return fmt.Errorf("technique needs a name and a factory")
	}
	for i := range r.techniques {
		if r.techniques[i].Name == t.Name {
			return fmt.Errorf("technique %q already registered", t.Name)
		}
	}
	r.techniques = append(r.techniques, t)
	return nil
}

// Lookup returns the named technique.
func (r *Registry) Lookup(name string) (Technique, bool) {
	for i := range r.techniques {
		if r.techniques[i].Name == name {
			return r.techniques[i], true
		}
	}
	return Technique{}, false
}

// Available returns the usable techniques sorted by ascending
// priority, name-ordered within equal priority.
func (r *Registry) Available() []Technique {
	var out []Technique
	for _, t := range r.techniques {
		if t.Available == nil || t.Available() {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Priority != out[b].Priority {
			return out[a].Priority < out[b].Priority
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// listRenderer is the built-in technique implementation: it fills the
// draw-item list for its mode and hands it to the caller.
type listRenderer struct {
	mode  Mode
	items []DrawItem
}

func (l *listRenderer) Init(s *scene.Scene, cfg Config, stats *Stats) error {
	l.items = FillDrawItems(s, cfg, MaxCombineForMode(l.mode, cfg), stats)
	return nil
}

func (l *listRenderer) DrawItems() []DrawItem {
	return l.items
}

// RegisterBuiltin populates a registry with the built-in techniques.
func RegisterBuiltin(r *Registry) error {
	builtin := []Technique{
		{Name: "per-draw", Priority: 10, New: func() Renderer { return &listRenderer{mode: ModePerDraw} }},
		{Name: "per-tri-id", Priority: 20, New: func() Renderer { return &listRenderer{mode: ModePerTriID} }},
		{Name: "part-search", Priority: 30, New: func() Renderer { return &listRenderer{mode: ModePartSearch} }},
	}
	for _, t := range builtin {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

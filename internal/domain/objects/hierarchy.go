package objects

import (
	"sync"

	"github.com/google/uuid"
)

// Hierarchy owns a tree of objects and the current selection. One hierarchy
// exists per open analysis session. The engine reads selection and kind tags;
// it never mutates the tree itself.
type Hierarchy struct {
	root *Object

	mu       sync.RWMutex
	selOrder []uuid.UUID
	selected map[uuid.UUID]*Object
}

// NewHierarchy creates a hierarchy with a fresh root object.
func NewHierarchy(name string) *Hierarchy {
	return &Hierarchy{
		root:     NewObject(KindRoot, name),
		selected: make(map[uuid.UUID]*Object),
	}
}

// Root returns the hierarchy's root object.
func (h *Hierarchy) Root() *Object { return h.root }

// Select adds objects to the current selection. Selecting an already
// selected object is a no-op that keeps its original position.
func (h *Hierarchy) Select(objs ...*Object) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, o := range objs {
		if _, ok := h.selected[o.ID()]; ok {
			continue
		}
		h.selected[o.ID()] = o
		h.selOrder = append(h.selOrder, o.ID())
	}
}

// ClearSelection empties the current selection.
func (h *Hierarchy) ClearSelection() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selOrder = nil
	h.selected = make(map[uuid.UUID]*Object)
}

// SelectedObjects returns the current selection in selection order.
func (h *Hierarchy) SelectedObjects() []*Object {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Object, 0, len(h.selOrder))
	for _, id := range h.selOrder {
		out = append(out, h.selected[id])
	}
	return out
}

// AllObjects returns every object in the tree in depth-first order,
// excluding the root.
func (h *Hierarchy) AllObjects() []*Object {
	var out []*Object
	h.root.walk(func(o *Object) bool {
		if o != h.root {
			out = append(out, o)
		}
		return true
	})
	return out
}

// ObjectsMatching returns every object in the tree, excluding the root,
// whose kind satisfies pred.
func (h *Hierarchy) ObjectsMatching(pred KindPredicate) []*Object {
	var out []*Object
	h.root.walk(func(o *Object) bool {
		if o != h.root && pred(o.Kind()) {
			out = append(out, o)
		}
		return true
	})
	return out
}

// ContainsMatching reports whether any object in the tree, excluding the
// root, satisfies pred.
func (h *Hierarchy) ContainsMatching(pred KindPredicate) bool {
	found := false
	h.root.walk(func(o *Object) bool {
		if o != h.root && pred(o.Kind()) {
			found = true
			return false
		}
		return true
	})
	return found
}

// FilterByKind returns the members of objs whose kind satisfies pred,
// preserving order.
func FilterByKind(objs []*Object, pred KindPredicate) []*Object {
	var out []*Object
	for _, o := range objs {
		if pred(o.Kind()) {
			out = append(out, o)
		}
	}
	return out
}

// Package objects provides the hierarchical object model that analysis
// operations act on. The engine reads selection state and kind tags from a
// hierarchy; work units may mutate individual objects as a side effect.
package objects

import (
	"sync"

	"github.com/google/uuid"
)

// Kind tags an object with its role in the hierarchy. Plugins declare the
// kinds they can operate on via a KindPredicate.
type Kind string

const (
	// KindRoot is the single object at the top of a hierarchy.
	KindRoot Kind = "ROOT"

	// KindAnnotation is a user-drawn region of interest.
	KindAnnotation Kind = "ANNOTATION"

	// KindDetection is an automatically detected object, e.g. a nucleus.
	KindDetection Kind = "DETECTION"

	// KindCell is a detection with cell-level measurements.
	KindCell Kind = "CELL"

	// KindTile is a rectangular region produced by tiling a larger one.
	KindTile Kind = "TILE"
)

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// KindPredicate decides whether objects of a given kind are eligible
// operands for an operation.
type KindPredicate func(Kind) bool

// AnyKind matches every object kind.
func AnyKind(Kind) bool { return true }

// KindIn builds a predicate matching any of the provided kinds.
func KindIn(kinds ...Kind) KindPredicate {
	set := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return func(k Kind) bool {
		_, ok := set[k]
		return ok
	}
}

// Object is a single node in the hierarchy. Its measurement map and
// classification are mutable and guarded, so two work units touching
// different objects never contend; work units in one batch are expected to
// operate on disjoint operands.
type Object struct {
	id   uuid.UUID
	kind Kind
	name string

	mu             sync.RWMutex
	parent         *Object
	children       []*Object
	measurements   map[string]float64
	classification string
}

// NewObject creates an object of the given kind.
func NewObject(kind Kind, name string) *Object {
	return &Object{
		id:           uuid.New(),
		kind:         kind,
		name:         name,
		measurements: make(map[string]float64),
	}
}

// ID returns the object's unique identifier.
func (o *Object) ID() uuid.UUID { return o.id }

// Kind returns the object's kind tag.
func (o *Object) Kind() Kind { return o.kind }

// Name returns the object's display name.
func (o *Object) Name() string { return o.name }

// Parent returns the object's parent, or nil for a root.
func (o *Object) Parent() *Object {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.parent
}

// AddChild attaches a child object.
func (o *Object) AddChild(child *Object) {
	o.mu.Lock()
	defer o.mu.Unlock()
	child.parent = o
	o.children = append(o.children, child)
}

// Children returns a copy of the object's direct children.
func (o *Object) Children() []*Object {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*Object, len(o.children))
	copy(out, o.children)
	return out
}

// RemoveChildrenIf detaches every direct child for which remove returns true
// and reports how many were removed.
func (o *Object) RemoveChildrenIf(remove func(*Object) bool) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	kept := o.children[:0]
	removed := 0
	for _, c := range o.children {
		if remove(c) {
			c.parent = nil
			removed++
			continue
		}
		kept = append(kept, c)
	}
	o.children = kept
	return removed
}

// Measurement returns a named measurement value.
func (o *Object) Measurement(name string) (float64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.measurements[name]
	return v, ok
}

// SetMeasurement stores a named measurement value.
func (o *Object) SetMeasurement(name string, value float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.measurements[name] = value
}

// MeasurementNames returns the names of all stored measurements.
func (o *Object) MeasurementNames() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.measurements))
	for name := range o.measurements {
		names = append(names, name)
	}
	return names
}

// Classification returns the object's classification label.
func (o *Object) Classification() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.classification
}

// SetClassification assigns the object's classification label.
func (o *Object) SetClassification(label string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.classification = label
}

// walk visits the object and every descendant in depth-first order until
// visit returns false.
func (o *Object) walk(visit func(*Object) bool) bool {
	if !visit(o) {
		return false
	}
	for _, c := range o.Children() {
		if !c.walk(visit) {
			return false
		}
	}
	return true
}

// Package params provides the ordered, typed parameter registry that analysis
// operations are configured with. A registry is built once per invocation,
// optionally adjusted by a prompt collaborator, then frozen and serialized so
// a recorded workflow step can reconstruct the exact same values on replay.
package params

import (
	"errors"
	"fmt"
	"slices"
)

// Type identifies the declared type of a parameter value.
type Type string

const (
	// TypeBool is a boolean parameter.
	TypeBool Type = "BOOL"

	// TypeInt is an integer parameter, optionally bounded.
	TypeInt Type = "INT"

	// TypeDouble is a floating point parameter, optionally bounded.
	TypeDouble Type = "DOUBLE"

	// TypeString is a free-text parameter.
	TypeString Type = "STRING"

	// TypeChoice is a string parameter restricted to a declared option set.
	TypeChoice Type = "CHOICE"
)

// String returns the string representation of the Type.
func (t Type) String() string { return string(t) }

// A set of errors returned by registry operations.
var (
	// ErrTypeMismatch is returned when a value's type disagrees with the
	// type previously declared for the same name.
	ErrTypeMismatch = errors.New("parameter type mismatch")

	// ErrNotFound is returned when the named parameter is absent.
	ErrNotFound = errors.New("parameter not found")

	// ErrInvalidChoice is returned when a choice value is not a member of
	// the declared option set. Membership is validated at set time.
	ErrInvalidChoice = errors.New("value not in choice options")

	// ErrOutOfBounds is returned when a numeric value falls outside the
	// bounds declared for the parameter.
	ErrOutOfBounds = errors.New("value out of declared bounds")
)

// parameter holds one typed value. Exactly one of the value fields is
// meaningful, selected by typ.
type parameter struct {
	name string
	typ  Type

	boolValue   bool
	intValue    int64
	doubleValue float64
	strValue    string

	options []string // declared option set for TypeChoice

	bounded   bool
	minDouble float64 // also bounds intValue for TypeInt
	maxDouble float64
}

// List is an ordered registry of named, typed parameters. Names are unique
// within one list; insertion order is preserved through serialization.
//
// A List is not safe for concurrent mutation. The engine freezes a list with
// Snapshot before execution starts and only the frozen copy is shared.
type List struct {
	order  []string
	params map[string]*parameter
}

// NewList creates an empty parameter list.
func NewList() *List {
	return &List{params: make(map[string]*parameter)}
}

// Len returns the number of parameters in the list.
func (l *List) Len() int { return len(l.order) }

// Names returns the parameter names in insertion order.
func (l *List) Names() []string { return slices.Clone(l.order) }

// Contains reports whether the named parameter exists.
func (l *List) Contains(name string) bool {
	_, ok := l.params[name]
	return ok
}

// TypeOf returns the declared type for the named parameter.
func (l *List) TypeOf(name string) (Type, error) {
	p, ok := l.params[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p.typ, nil
}

// SetBool sets a boolean parameter.
func (l *List) SetBool(name string, value bool) error {
	p, err := l.upsert(name, TypeBool)
	if err != nil {
		return err
	}
	p.boolValue = value
	return nil
}

// SetInt sets an integer parameter.
func (l *List) SetInt(name string, value int64) error {
	p, err := l.upsert(name, TypeInt)
	if err != nil {
		return err
	}
	if p.bounded && (float64(value) < p.minDouble || float64(value) > p.maxDouble) {
		return fmt.Errorf("%w: %s=%d not in [%g, %g]", ErrOutOfBounds, name, value, p.minDouble, p.maxDouble)
	}
	p.intValue = value
	return nil
}

// SetIntBounded sets an integer parameter and declares inclusive bounds that
// all subsequent sets of the same name must satisfy.
func (l *List) SetIntBounded(name string, value, min, max int64) error {
	p, err := l.upsert(name, TypeInt)
	if err != nil {
		return err
	}
	if value < min || value > max {
		return fmt.Errorf("%w: %s=%d not in [%d, %d]", ErrOutOfBounds, name, value, min, max)
	}
	p.bounded = true
	p.minDouble, p.maxDouble = float64(min), float64(max)
	p.intValue = value
	return nil
}

// SetDouble sets a floating point parameter.
func (l *List) SetDouble(name string, value float64) error {
	p, err := l.upsert(name, TypeDouble)
	if err != nil {
		return err
	}
	if p.bounded && (value < p.minDouble || value > p.maxDouble) {
		return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfBounds, name, value, p.minDouble, p.maxDouble)
	}
	p.doubleValue = value
	return nil
}

// SetDoubleBounded sets a floating point parameter and declares inclusive
// bounds that all subsequent sets of the same name must satisfy.
func (l *List) SetDoubleBounded(name string, value, min, max float64) error {
	p, err := l.upsert(name, TypeDouble)
	if err != nil {
		return err
	}
	if value < min || value > max {
		return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfBounds, name, value, min, max)
	}
	p.bounded = true
	p.minDouble, p.maxDouble = min, max
	p.doubleValue = value
	return nil
}

// SetString sets a free-text parameter.
func (l *List) SetString(name, value string) error {
	p, err := l.upsert(name, TypeString)
	if err != nil {
		return err
	}
	p.strValue = value
	return nil
}

// SetChoice sets a choice parameter. The option set is declared on first set
// and the value must be a member; membership is checked here, not at use time.
func (l *List) SetChoice(name, value string, options []string) error {
	p, err := l.upsert(name, TypeChoice)
	if err != nil {
		return err
	}
	if p.options == nil {
		p.options = slices.Clone(options)
	}
	if !slices.Contains(p.options, value) {
		return fmt.Errorf("%w: %s=%q options=%v", ErrInvalidChoice, name, value, p.options)
	}
	p.strValue = value
	return nil
}

// GetBool returns a boolean parameter value.
func (l *List) GetBool(name string) (bool, error) {
	p, err := l.lookup(name, TypeBool)
	if err != nil {
		return false, err
	}
	return p.boolValue, nil
}

// GetInt returns an integer parameter value.
func (l *List) GetInt(name string) (int64, error) {
	p, err := l.lookup(name, TypeInt)
	if err != nil {
		return 0, err
	}
	return p.intValue, nil
}

// GetDouble returns a floating point parameter value.
func (l *List) GetDouble(name string) (float64, error) {
	p, err := l.lookup(name, TypeDouble)
	if err != nil {
		return 0, err
	}
	return p.doubleValue, nil
}

// GetString returns a free-text parameter value.
func (l *List) GetString(name string) (string, error) {
	p, err := l.lookup(name, TypeString)
	if err != nil {
		return "", err
	}
	return p.strValue, nil
}

// GetChoice returns the selected value of a choice parameter.
func (l *List) GetChoice(name string) (string, error) {
	p, err := l.lookup(name, TypeChoice)
	if err != nil {
		return "", err
	}
	return p.strValue, nil
}

// ChoiceOptions returns the declared option set of a choice parameter.
func (l *List) ChoiceOptions(name string) ([]string, error) {
	p, err := l.lookup(name, TypeChoice)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.options), nil
}

// Snapshot returns a deep copy of the list. The engine records the snapshot
// taken at the moment execution starts, not the live list.
func (l *List) Snapshot() *List {
	cp := NewList()
	cp.order = slices.Clone(l.order)
	for name, p := range l.params {
		dup := *p
		dup.options = slices.Clone(p.options)
		cp.params[name] = &dup
	}
	return cp
}

// Equal reports whether two lists declare the same names, in the same order,
// with the same types and values.
func (l *List) Equal(other *List) bool {
	if other == nil || len(l.order) != len(other.order) {
		return false
	}
	for i, name := range l.order {
		if other.order[i] != name {
			return false
		}
		a, b := l.params[name], other.params[name]
		if a.typ != b.typ || a.boolValue != b.boolValue || a.intValue != b.intValue ||
			a.doubleValue != b.doubleValue || a.strValue != b.strValue ||
			a.bounded != b.bounded || a.minDouble != b.minDouble || a.maxDouble != b.maxDouble ||
			!slices.Equal(a.options, b.options) {
			return false
		}
	}
	return true
}

// upsert returns the existing parameter for name after verifying its declared
// type, or inserts a new one at the end of the order.
func (l *List) upsert(name string, typ Type) (*parameter, error) {
	if p, ok := l.params[name]; ok {
		if p.typ != typ {
			return nil, fmt.Errorf("%w: %s declared %s, got %s", ErrTypeMismatch, name, p.typ, typ)
		}
		return p, nil
	}
	p := &parameter{name: name, typ: typ}
	l.params[name] = p
	l.order = append(l.order, name)
	return p, nil
}

func (l *List) lookup(name string, typ Type) (*parameter, error) {
	p, ok := l.params[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if p.typ != typ {
		return nil, fmt.Errorf("%w: %s declared %s, requested %s", ErrTypeMismatch, name, p.typ, typ)
	}
	return p, nil
}

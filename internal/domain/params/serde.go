package params

import (
	"encoding/json"
	"fmt"
)

// entry is the self-describing wire form of a single parameter. A serialized
// list is a JSON array of entries in insertion order, embeddable as an opaque
// blob inside a workflow step record.
type entry struct {
	Name    string          `json:"name"`
	Type    Type            `json:"type"`
	Value   json.RawMessage `json:"value"`
	Options []string        `json:"options,omitempty"`
	Min     *float64        `json:"min,omitempty"`
	Max     *float64        `json:"max,omitempty"`
}

// MarshalJSON serializes the list losslessly: names, declared types, values,
// choice options and numeric bounds all survive the round trip.
func (l *List) MarshalJSON() ([]byte, error) {
	entries := make([]entry, 0, len(l.order))
	for _, name := range l.order {
		p := l.params[name]

		var raw json.RawMessage
		var err error
		switch p.typ {
		case TypeBool:
			raw, err = json.Marshal(p.boolValue)
		case TypeInt:
			raw, err = json.Marshal(p.intValue)
		case TypeDouble:
			raw, err = json.Marshal(p.doubleValue)
		case TypeString, TypeChoice:
			raw, err = json.Marshal(p.strValue)
		default:
			err = fmt.Errorf("unknown parameter type %q", p.typ)
		}
		if err != nil {
			return nil, fmt.Errorf("marshaling parameter %q: %w", name, err)
		}

		e := entry{Name: name, Type: p.typ, Value: raw, Options: p.options}
		if p.bounded {
			min, max := p.minDouble, p.maxDouble
			e.Min, e.Max = &min, &max
		}
		entries = append(entries, e)
	}
	return json.Marshal(entries)
}

// UnmarshalJSON reconstructs a list from its serialized form. Values pass
// through the same validation as the original sets, so a tampered blob with
// an out-of-range or non-member value fails here rather than at use time.
func (l *List) UnmarshalJSON(data []byte) error {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing parameter list: %w", err)
	}

	l.order = nil
	l.params = make(map[string]*parameter, len(entries))

	for _, e := range entries {
		var err error
		switch e.Type {
		case TypeBool:
			var v bool
			if err = json.Unmarshal(e.Value, &v); err == nil {
				err = l.SetBool(e.Name, v)
			}
		case TypeInt:
			var v int64
			if err = json.Unmarshal(e.Value, &v); err == nil {
				if e.Min != nil && e.Max != nil {
					err = l.SetIntBounded(e.Name, v, int64(*e.Min), int64(*e.Max))
				} else {
					err = l.SetInt(e.Name, v)
				}
			}
		case TypeDouble:
			var v float64
			if err = json.Unmarshal(e.Value, &v); err == nil {
				if e.Min != nil && e.Max != nil {
					err = l.SetDoubleBounded(e.Name, v, *e.Min, *e.Max)
				} else {
					err = l.SetDouble(e.Name, v)
				}
			}
		case TypeString:
			var v string
			if err = json.Unmarshal(e.Value, &v); err == nil {
				err = l.SetString(e.Name, v)
			}
		case TypeChoice:
			var v string
			if err = json.Unmarshal(e.Value, &v); err == nil {
				err = l.SetChoice(e.Name, v, e.Options)
			}
		default:
			err = fmt.Errorf("unknown parameter type %q", e.Type)
		}
		if err != nil {
			return fmt.Errorf("restoring parameter %q: %w", e.Name, err)
		}
	}
	return nil
}

// Serialize returns the list's opaque textual form for embedding in a
// workflow step.
func (l *List) Serialize() (string, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Deserialize reconstructs a list from the textual form produced by Serialize.
func Deserialize(blob string) (*List, error) {
	l := NewList()
	if err := json.Unmarshal([]byte(blob), l); err != nil {
		return nil, err
	}
	return l, nil
}

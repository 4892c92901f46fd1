package replay

import (
	"encoding/json"
	"fmt"

	"github.com/pathmorph/pathmorph/internal/domain/objects"
)

// objectRecord is the external representation of one object subtree.
type objectRecord struct {
	Kind           objects.Kind       `json:"kind"`
	Name           string             `json:"name,omitempty"`
	Classification string             `json:"classification,omitempty"`
	Measurements   map[string]float64 `json:"measurements,omitempty"`
	Children       []objectRecord     `json:"children,omitempty"`
}

type hierarchyDocument struct {
	Version int          `json:"version"`
	Name    string       `json:"name"`
	Root    objectRecord `json:"root"`
}

// EncodeHierarchy renders a hierarchy as a versioned JSON document.
func EncodeHierarchy(h *objects.Hierarchy) ([]byte, error) {
	doc := hierarchyDocument{
		Version: documentVersion,
		Name:    h.Root().Name(),
		Root:    encodeObject(h.Root()),
	}
	return json.MarshalIndent(doc, "", "  ")
}

func encodeObject(o *objects.Object) objectRecord {
	rec := objectRecord{
		Kind:           o.Kind(),
		Name:           o.Name(),
		Classification: o.Classification(),
	}
	if names := o.MeasurementNames(); len(names) > 0 {
		rec.Measurements = make(map[string]float64, len(names))
		for _, name := range names {
			value, _ := o.Measurement(name)
			rec.Measurements[name] = value
		}
	}
	for _, child := range o.Children() {
		rec.Children = append(rec.Children, encodeObject(child))
	}
	return rec
}

// DecodeHierarchy parses a hierarchy document into a fresh hierarchy with
// an empty selection. Object identifiers are regenerated; replay resolves
// operands by kind, never by identifier.
func DecodeHierarchy(data []byte) (*objects.Hierarchy, error) {
	var doc hierarchyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing hierarchy document: %w", err)
	}
	if doc.Version != documentVersion {
		return nil, fmt.Errorf("unsupported hierarchy document version %d", doc.Version)
	}
	if doc.Root.Kind != objects.KindRoot {
		return nil, fmt.Errorf("hierarchy root has kind %q", doc.Root.Kind)
	}

	h := objects.NewHierarchy(doc.Name)
	applyRecord(h.Root(), doc.Root)
	for _, childRec := range doc.Root.Children {
		child, err := decodeObject(childRec)
		if err != nil {
			return nil, err
		}
		h.Root().AddChild(child)
	}
	return h, nil
}

func decodeObject(rec objectRecord) (*objects.Object, error) {
	if rec.Kind == objects.KindRoot {
		return nil, fmt.Errorf("root object nested below the root")
	}
	o := objects.NewObject(rec.Kind, rec.Name)
	applyRecord(o, rec)
	for _, childRec := range rec.Children {
		child, err := decodeObject(childRec)
		if err != nil {
			return nil, err
		}
		o.AddChild(child)
	}
	return o, nil
}

func applyRecord(o *objects.Object, rec objectRecord) {
	if rec.Classification != "" {
		o.SetClassification(rec.Classification)
	}
	for name, value := range rec.Measurements {
		o.SetMeasurement(name, value)
	}
}

package objects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestHierarchy(t *testing.T) (*Hierarchy, *Object, []*Object) {
	t.Helper()

	h := NewHierarchy("slide-1")
	annotation := NewObject(KindAnnotation, "tumor region")
	h.Root().AddChild(annotation)

	detections := make([]*Object, 0, 3)
	for _, name := range []string{"d1", "d2", "d3"} {
		d := NewObject(KindDetection, name)
		annotation.AddChild(d)
		detections = append(detections, d)
	}
	return h, annotation, detections
}

func TestHierarchy_SelectionOrderAndIdempotence(t *testing.T) {
	t.Parallel()

	h, annotation, detections := buildTestHierarchy(t)

	h.Select(detections[1], annotation)
	h.Select(detections[1]) // re-selecting must not duplicate

	sel := h.SelectedObjects()
	require.Len(t, sel, 2)
	assert.Same(t, detections[1], sel[0])
	assert.Same(t, annotation, sel[1])

	h.ClearSelection()
	assert.Empty(t, h.SelectedObjects())
}

func TestHierarchy_ObjectsMatching(t *testing.T) {
	t.Parallel()

	h, annotation, detections := buildTestHierarchy(t)

	matched := h.ObjectsMatching(KindIn(KindDetection))
	assert.Len(t, matched, len(detections))

	assert.True(t, h.ContainsMatching(KindIn(KindAnnotation)))
	assert.False(t, h.ContainsMatching(KindIn(KindTile)))

	filtered := FilterByKind([]*Object{annotation, detections[0]}, KindIn(KindAnnotation))
	require.Len(t, filtered, 1)
	assert.Same(t, annotation, filtered[0])
}

func TestObject_RemoveChildrenIf(t *testing.T) {
	t.Parallel()

	_, annotation, detections := buildTestHierarchy(t)
	detections[0].SetMeasurement("area", 4)
	detections[1].SetMeasurement("area", 40)
	detections[2].SetMeasurement("area", 400)

	removed := annotation.RemoveChildrenIf(func(o *Object) bool {
		area, ok := o.Measurement("area")
		return ok && area < 10
	})

	assert.Equal(t, 1, removed)
	assert.Len(t, annotation.Children(), 2)
	assert.Nil(t, detections[0].Parent())
}

package plugins

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/pathmorph/pathmorph/internal/app/plugin"
	"github.com/pathmorph/pathmorph/internal/domain/execution"
	"github.com/pathmorph/pathmorph/internal/domain/objects"
	"github.com/pathmorph/pathmorph/internal/domain/params"
)

// MeasurementFilterID is the stable operation identifier recorded in
// workflow steps.
const MeasurementFilterID = "pathmorph.measurement_filter"

// MeasurementFilter deletes the detection children of each chosen
// annotation whose measurement falls below a bound. Deletion is
// destructive and scoped to whatever the user picks, so the operation
// always prompts even when the current selection is eligible.
type MeasurementFilter struct {
	removed atomic.Int64
}

// NewMeasurementFilter creates the operation.
func NewMeasurementFilter() *MeasurementFilter { return new(MeasurementFilter) }

// ID implements plugin.Plugin.
func (p *MeasurementFilter) ID() string { return MeasurementFilterID }

// Name implements plugin.Plugin.
func (p *MeasurementFilter) Name() string { return "Measurement filter" }

// SupportedObjectKinds implements plugin.Plugin.
func (p *MeasurementFilter) SupportedObjectKinds() objects.KindPredicate {
	return objects.KindIn(objects.KindAnnotation)
}

// AlwaysPromptForObjects implements plugin.Plugin. The result depends
// qualitatively on which annotations are chosen.
func (p *MeasurementFilter) AlwaysPromptForObjects() bool { return true }

// DefaultParams implements plugin.Plugin.
func (p *MeasurementFilter) DefaultParams() *params.List {
	l := params.NewList()
	_ = l.SetString("measurement", "area")
	_ = l.SetDouble("min_value", 10)
	return l
}

// BuildWorkUnits implements plugin.Plugin.
func (p *MeasurementFilter) BuildWorkUnits(
	operands []*objects.Object, list *params.List,
) ([]execution.WorkUnit, error) {
	measurement, err := list.GetString("measurement")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plugin.ErrInvalidParameters, err)
	}
	if measurement == "" {
		return nil, fmt.Errorf("%w: measurement name must not be empty", plugin.ErrInvalidParameters)
	}
	minValue, err := list.GetDouble("min_value")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plugin.ErrInvalidParameters, err)
	}

	p.removed.Store(0)
	units := make([]execution.WorkUnit, 0, len(operands))
	for _, op := range operands {
		units = append(units, &filterUnit{
			parent:      op,
			measurement: measurement,
			minValue:    minValue,
			removed:     &p.removed,
		})
	}
	return units, nil
}

// Succeeded implements plugin.Plugin.
func (p *MeasurementFilter) Succeeded(outcomes []execution.Outcome) bool {
	_, failed, _ := execution.CountOutcomes(outcomes)
	return failed == 0
}

// LastResultsDescription implements plugin.Plugin.
func (p *MeasurementFilter) LastResultsDescription(outcomes []execution.Outcome) string {
	succeeded, failed, _ := execution.CountOutcomes(outcomes)
	return fmt.Sprintf("%d detections removed across %d annotations, %d failed",
		p.removed.Load(), succeeded, failed)
}

// filterUnit prunes the detection children of one annotation.
type filterUnit struct {
	parent      *objects.Object
	measurement string
	minValue    float64
	removed     *atomic.Int64
}

func (u *filterUnit) Describe() string {
	return fmt.Sprintf("filter %q", u.parent.Name())
}

func (u *filterUnit) Execute(_ context.Context, cancel *execution.CancelFlag) error {
	if cancel.IsCancelled() {
		return nil
	}
	n := u.parent.RemoveChildrenIf(func(child *objects.Object) bool {
		if child.Kind() != objects.KindDetection {
			return false
		}
		value, ok := child.Measurement(u.measurement)
		return ok && value < u.minValue
	})
	u.removed.Add(int64(n))
	return nil
}

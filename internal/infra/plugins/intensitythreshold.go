// Package plugins holds the built-in analysis operations. Each operation
// implements the plugin capability contract and decomposes its work into
// independent per-operand units, so the runner can execute them in
// parallel without coordination.
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

// IntensityThresholdID is the stable operation identifier recorded in
// workflow steps.
const IntensityThresholdID = "pathmorph.intensity_threshold"

// IntensityThreshold classifies the detection children of each selected
// annotation by comparing one of their measurements against a threshold.
// After all units finish, each unit writes the per-annotation class counts
// back onto its parent as measurements.
type IntensityThreshold struct{}

// NewIntensityThreshold creates the operation.
func NewIntensityThreshold() *IntensityThreshold { return new(IntensityThreshold) }

// ID implements plugin.Plugin.
func (p *IntensityThreshold) ID() string { return IntensityThresholdID }

// Name implements plugin.Plugin.
func (p *IntensityThreshold) Name() string { return "Intensity threshold classification" }

// SupportedObjectKinds implements plugin.Plugin. Units are built per
// annotation so sibling subtrees stay disjoint across workers.
func (p *IntensityThreshold) SupportedObjectKinds() objects.KindPredicate {
	return objects.KindIn(objects.KindAnnotation)
}

// AlwaysPromptForObjects implements plugin.Plugin.
func (p *IntensityThreshold) AlwaysPromptForObjects() bool { return false }

// DefaultParams implements plugin.Plugin.
func (p *IntensityThreshold) DefaultParams() *params.List {
	l := params.NewList()
	// The list is fresh, so none of these can fail.
	_ = l.SetString("measurement", "mean_intensity")
	_ = l.SetDoubleBounded("threshold", 100, 0, 65535)
	_ = l.SetString("above_class", "Positive")
	_ = l.SetString("below_class", "Negative")
	return l
}

// BuildWorkUnits implements plugin.Plugin.
func (p *IntensityThreshold) BuildWorkUnits(
	operands []*objects.Object, list *params.List,
) ([]execution.WorkUnit, error) {
	measurement, err := list.GetString("measurement")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plugin.ErrInvalidParameters, err)
	}
	if measurement == "" {
		return nil, fmt.Errorf("%w: measurement name must not be empty", plugin.ErrInvalidParameters)
	}
	threshold, err := list.GetDouble("threshold")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plugin.ErrInvalidParameters, err)
	}
	aboveClass, err := list.GetString("above_class")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plugin.ErrInvalidParameters, err)
	}
	belowClass, err := list.GetString("below_class")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plugin.ErrInvalidParameters, err)
	}

	units := make([]execution.WorkUnit, 0, len(operands))
	for _, op := range operands {
		units = append(units, &thresholdUnit{
			parent:      op,
			measurement: measurement,
			threshold:   threshold,
			aboveClass:  aboveClass,
			belowClass:  belowClass,
		})
	}
	return units, nil
}

// Succeeded implements plugin.Plugin. A run counts as successful when no
// unit failed; cancelled units leave their subtree untouched but do not
// poison the rest.
func (p *IntensityThreshold) Succeeded(outcomes []execution.Outcome) bool {
	_, failed, _ := execution.CountOutcomes(outcomes)
	return failed == 0
}

// LastResultsDescription implements plugin.Plugin.
func (p *IntensityThreshold) LastResultsDescription(outcomes []execution.Outcome) string {
	succeeded, failed, cancelled := execution.CountOutcomes(outcomes)
	return fmt.Sprintf("%d annotations classified, %d failed, %d cancelled",
		succeeded, failed, cancelled)
}

// thresholdUnit classifies the detection children of one annotation. It
// owns that subtree exclusively for the duration of the batch.
type thresholdUnit struct {
	parent      *objects.Object
	measurement string
	threshold   float64
	aboveClass  string
	belowClass  string

	above atomic.Int64
	below atomic.Int64
}

func (u *thresholdUnit) Describe() string {
	return fmt.Sprintf("threshold %q", u.parent.Name())
}

func (u *thresholdUnit) Execute(_ context.Context, cancel *execution.CancelFlag) error {
	for _, child := range u.parent.Children() {
		if cancel.IsCancelled() {
			return nil
		}
		if child.Kind() != objects.KindDetection {
			continue
		}
		value, ok := child.Measurement(u.measurement)
		if !ok {
			return fmt.Errorf("detection %q lacks measurement %q", child.Name(), u.measurement)
		}
		if value >= u.threshold {
			child.SetClassification(u.aboveClass)
			u.above.Add(1)
		} else {
			child.SetClassification(u.belowClass)
			u.below.Add(1)
		}
	}
	return nil
}

// PostProcess writes the per-annotation class counts onto the parent. It
// runs after the join barrier, so the counters are final.
func (u *thresholdUnit) PostProcess(context.Context) error {
	u.parent.SetMeasurement("count_"+u.aboveClass, float64(u.above.Load()))
	u.parent.SetMeasurement("count_"+u.belowClass, float64(u.below.Load()))
	return nil
}

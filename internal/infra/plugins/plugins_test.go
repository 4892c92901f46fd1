package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathmorph/pathmorph/internal/app/plugin"
	"github.com/pathmorph/pathmorph/internal/domain/execution"
	"github.com/pathmorph/pathmorph/internal/domain/objects"
)

// annotationWithDetections builds one annotation holding detections with
// the given values for the named measurement.
func annotationWithDetections(name, measurement string, values ...float64) *objects.Object {
	ann := objects.NewObject(objects.KindAnnotation, name)
	for _, v := range values {
		det := objects.NewObject(objects.KindDetection, name+"-det")
		det.SetMeasurement(measurement, v)
		ann.AddChild(det)
	}
	return ann
}

func runUnits(t *testing.T, units []execution.WorkUnit) []execution.Outcome {
	t.Helper()

	flag := execution.NewCancelFlag()
	outcomes := make([]execution.Outcome, 0, len(units))
	for _, u := range units {
		err := u.Execute(context.Background(), flag)
		outcomes = append(outcomes, execution.Outcome{Unit: u.Describe(), Err: err})
	}
	for _, u := range units {
		if pp, ok := u.(execution.PostProcessor); ok {
			require.NoError(t, pp.PostProcess(context.Background()))
		}
	}
	return outcomes
}

func TestIntensityThreshold_ClassifiesAndCounts(t *testing.T) {
	t.Parallel()

	p := NewIntensityThreshold()
	ann := annotationWithDetections("tumor", "mean_intensity", 50, 150, 200)

	list := p.DefaultParams()
	require.NoError(t, list.SetDoubleBounded("threshold", 100, 0, 65535))

	units, err := p.BuildWorkUnits([]*objects.Object{ann}, list)
	require.NoError(t, err)
	require.Len(t, units, 1)

	outcomes := runUnits(t, units)
	assert.True(t, p.Succeeded(outcomes))

	var positive, negative int
	for _, det := range ann.Children() {
		switch det.Classification() {
		case "Positive":
			positive++
		case "Negative":
			negative++
		}
	}
	assert.Equal(t, 2, positive)
	assert.Equal(t, 1, negative)

	count, ok := ann.Measurement("count_Positive")
	require.True(t, ok)
	assert.Equal(t, 2.0, count)
	count, ok = ann.Measurement("count_Negative")
	require.True(t, ok)
	assert.Equal(t, 1.0, count)
}

func TestIntensityThreshold_MissingMeasurementFailsUnit(t *testing.T) {
	t.Parallel()

	p := NewIntensityThreshold()
	ann := objects.NewObject(objects.KindAnnotation, "stroma")
	ann.AddChild(objects.NewObject(objects.KindDetection, "bare"))

	units, err := p.BuildWorkUnits([]*objects.Object{ann}, p.DefaultParams())
	require.NoError(t, err)
	require.Len(t, units, 1)

	flag := execution.NewCancelFlag()
	execErr := units[0].Execute(context.Background(), flag)
	require.Error(t, execErr)
	assert.False(t, p.Succeeded([]execution.Outcome{{Unit: units[0].Describe(), Err: execErr}}))
}

func TestIntensityThreshold_InvalidParameters(t *testing.T) {
	t.Parallel()

	p := NewIntensityThreshold()
	list := p.DefaultParams()
	require.NoError(t, list.SetString("measurement", ""))

	_, err := p.BuildWorkUnits(nil, list)
	assert.ErrorIs(t, err, plugin.ErrInvalidParameters)
}

func TestIntensityThreshold_CancelledUnitLeavesSubtreeUntouched(t *testing.T) {
	t.Parallel()

	p := NewIntensityThreshold()
	ann := annotationWithDetections("tumor", "mean_intensity", 150)

	units, err := p.BuildWorkUnits([]*objects.Object{ann}, p.DefaultParams())
	require.NoError(t, err)

	flag := execution.NewCancelFlag()
	flag.Cancel()
	require.NoError(t, units[0].Execute(context.Background(), flag))
	assert.Empty(t, ann.Children()[0].Classification())
}

func TestMeasurementFilter_RemovesBelowBound(t *testing.T) {
	t.Parallel()

	p := NewMeasurementFilter()
	assert.True(t, p.AlwaysPromptForObjects())

	ann := annotationWithDetections("region", "area", 5, 15, 3)

	list := p.DefaultParams()
	require.NoError(t, list.SetDouble("min_value", 10))

	units, err := p.BuildWorkUnits([]*objects.Object{ann}, list)
	require.NoError(t, err)

	outcomes := runUnits(t, units)
	assert.True(t, p.Succeeded(outcomes))
	assert.Len(t, ann.Children(), 1)

	area, ok := ann.Children()[0].Measurement("area")
	require.True(t, ok)
	assert.Equal(t, 15.0, area)
	assert.Contains(t, p.LastResultsDescription(outcomes), "2 detections removed")
}

func TestMeasurementFilter_KeepsDetectionsWithoutMeasurement(t *testing.T) {
	t.Parallel()

	p := NewMeasurementFilter()
	ann := objects.NewObject(objects.KindAnnotation, "region")
	ann.AddChild(objects.NewObject(objects.KindDetection, "unmeasured"))

	units, err := p.BuildWorkUnits([]*objects.Object{ann}, p.DefaultParams())
	require.NoError(t, err)

	runUnits(t, units)
	assert.Len(t, ann.Children(), 1)
}

func TestMetadataSet(t *testing.T) {
	t.Parallel()

	p := NewMetadataSet()
	assert.True(t, plugin.IsParameterOnly(p))

	list := p.DefaultParams()
	require.NoError(t, list.SetString("key", "stain"))
	require.NoError(t, list.SetString("value", "H&E"))

	units, err := p.BuildWorkUnits(nil, list)
	require.NoError(t, err)
	assert.Empty(t, units)
	assert.True(t, p.Succeeded(nil))

	_, err = p.BuildWorkUnits(nil, p.DefaultParams())
	assert.ErrorIs(t, err, plugin.ErrInvalidParameters)
}

func TestRegisterAll(t *testing.T) {
	t.Parallel()

	r := plugin.NewRegistry()
	require.NoError(t, RegisterAll(r))
	assert.Equal(t, []string{IntensityThresholdID, MeasurementFilterID, MetadataSetID}, r.IDs())
}

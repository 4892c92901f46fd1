package plugin

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/pathmorph/pathmorph/internal/domain/objects"
	"github.com/pathmorph/pathmorph/pkg/common/logger"
)

// Mock implementations.
type mockPrompter struct{ mock.Mock }

func (m *mockPrompter) PromptForObjects(ctx context.Context, req PromptRequest) ([]*objects.Object, error) {
	args := m.Called(ctx, req)
	if objs := args.Get(0); objs != nil {
		return objs.([]*objects.Object), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestSelector(t *testing.T) *Selector {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelDebug, "selector-test", nil)
	return NewSelector(log, noop.NewTracerProvider().Tracer("test"))
}

func selectorHierarchy(t *testing.T) (*objects.Hierarchy, *objects.Object, []*objects.Object) {
	t.Helper()

	h := objects.NewHierarchy("slide")
	annotation := objects.NewObject(objects.KindAnnotation, "region")
	h.Root().AddChild(annotation)

	var detections []*objects.Object
	for i := 0; i < 3; i++ {
		d := objects.NewObject(objects.KindDetection, "d")
		annotation.AddChild(d)
		detections = append(detections, d)
	}
	return h, annotation, detections
}

func TestSelector_UsesSelectionWithoutPrompting(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)
	h, _, detections := selectorHierarchy(t)
	h.Select(detections[0], detections[2])

	prompter := new(mockPrompter)

	operands, err := s.ResolveOperands(
		context.Background(), h, "Test op", objects.KindIn(objects.KindDetection), false, prompter)
	require.NoError(t, err)

	assert.Equal(t, []*objects.Object{detections[0], detections[2]}, operands)
	prompter.AssertNotCalled(t, "PromptForObjects", mock.Anything, mock.Anything)
}

func TestSelector_PromptsWhenSelectionHasNoEligibleObjects(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)
	h, annotation, detections := selectorHierarchy(t)
	h.Select(annotation) // selected, but not a detection

	prompter := new(mockPrompter)
	prompter.On("PromptForObjects", mock.Anything, mock.MatchedBy(func(req PromptRequest) bool {
		return !req.IncludeSelection
	})).Return([]*objects.Object{detections[1]}, nil)

	operands, err := s.ResolveOperands(
		context.Background(), h, "Test op", objects.KindIn(objects.KindDetection), false, prompter)
	require.NoError(t, err)

	assert.Equal(t, []*objects.Object{detections[1]}, operands)
	prompter.AssertExpectations(t)
}

func TestSelector_AlwaysPromptOverridesSelection(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)
	h, _, detections := selectorHierarchy(t)
	h.Select(detections[0])

	prompter := new(mockPrompter)
	prompter.On("PromptForObjects", mock.Anything, mock.MatchedBy(func(req PromptRequest) bool {
		// The eligible selection is offered as the default choice.
		return req.IncludeSelection
	})).Return([]*objects.Object{detections[0], detections[1]}, nil)

	operands, err := s.ResolveOperands(
		context.Background(), h, "Test op", objects.KindIn(objects.KindDetection), true, prompter)
	require.NoError(t, err)

	assert.Len(t, operands, 2)
	prompter.AssertExpectations(t)
}

func TestSelector_PromptCancellationAbortsInvocation(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)
	h, _, _ := selectorHierarchy(t)

	prompter := new(mockPrompter)
	prompter.On("PromptForObjects", mock.Anything, mock.Anything).Return(nil, ErrPromptCancelled)

	_, err := s.ResolveOperands(
		context.Background(), h, "Test op", objects.KindIn(objects.KindDetection), false, prompter)
	assert.ErrorIs(t, err, ErrPromptCancelled)
}

func TestSelector_EmptyChoiceIsCancellation(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)
	h, _, _ := selectorHierarchy(t)

	prompter := new(mockPrompter)
	prompter.On("PromptForObjects", mock.Anything, mock.Anything).Return([]*objects.Object{}, nil)

	_, err := s.ResolveOperands(
		context.Background(), h, "Test op", objects.KindIn(objects.KindDetection), false, prompter)
	assert.ErrorIs(t, err, ErrPromptCancelled)
}

func TestSelector_NoEligibleOperandsAnywhere(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)
	h, _, _ := selectorHierarchy(t)

	prompter := new(mockPrompter)

	// No tiles exist anywhere in the hierarchy; the prompter must not be
	// consulted for an impossible choice.
	_, err := s.ResolveOperands(
		context.Background(), h, "Test op", objects.KindIn(objects.KindTile), false, prompter)
	assert.ErrorIs(t, err, ErrNoEligibleOperands)
	prompter.AssertNotCalled(t, "PromptForObjects", mock.Anything, mock.Anything)
}

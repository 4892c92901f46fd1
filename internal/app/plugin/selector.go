package plugin

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pathmorph/pathmorph/internal/domain/objects"
	"github.com/pathmorph/pathmorph/pkg/common/logger"
)

// PromptRequest carries everything a prompt collaborator needs to let the
// user (or a script) choose operands.
type PromptRequest struct {
	OperationName string
	Hierarchy     *objects.Hierarchy

	// IncludeSelection indicates the current selection already holds
	// eligible operands and should be offered as the default choice.
	IncludeSelection bool

	Supported objects.KindPredicate
}

// Prompter chooses an operand set when the selection alone cannot. It must
// behave synchronously from the selector's perspective even if implemented
// asynchronously underneath; returning ErrPromptCancelled aborts the
// invocation.
type Prompter interface {
	PromptForObjects(ctx context.Context, req PromptRequest) ([]*objects.Object, error)
}

// Selector resolves the operand set for a pending operation from the
// hierarchy, its current selection and the plugin's kind predicate.
type Selector struct {
	logger *logger.Logger
	tracer trace.Tracer
}

// NewSelector creates a selector.
func NewSelector(log *logger.Logger, tracer trace.Tracer) *Selector {
	return &Selector{
		logger: log.With("component", "object_selector"),
		tracer: tracer,
	}
}

// ResolveOperands produces the operand set for one invocation.
//
// The current selection filtered by the predicate is used directly when it
// is non-empty and the operation does not force a prompt; the prompter is
// never invoked in that case. Otherwise the prompter chooses, and a
// cancellation aborts the invocation before any work unit exists.
func (s *Selector) ResolveOperands(
	ctx context.Context,
	hierarchy *objects.Hierarchy,
	operationName string,
	pred objects.KindPredicate,
	alwaysPrompt bool,
	prompter Prompter,
) ([]*objects.Object, error) {
	ctx, span := s.tracer.Start(ctx, "object_selector.resolve_operands",
		trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.Bool("always_prompt", alwaysPrompt),
		))
	defer span.End()

	filtered := objects.FilterByKind(hierarchy.SelectedObjects(), pred)
	if len(filtered) > 0 && !alwaysPrompt {
		span.SetAttributes(attribute.Int("operand_count", len(filtered)))
		return filtered, nil
	}

	// Nothing anywhere in the tree can satisfy the predicate; prompting
	// would be pointless. Surfaced to the caller, never retried.
	if !hierarchy.ContainsMatching(pred) {
		span.AddEvent("no_eligible_operands")
		return nil, ErrNoEligibleOperands
	}

	chosen, err := prompter.PromptForObjects(ctx, PromptRequest{
		OperationName:    operationName,
		Hierarchy:        hierarchy,
		IncludeSelection: alwaysPrompt && len(filtered) > 0,
		Supported:        pred,
	})
	if err != nil {
		return nil, fmt.Errorf("prompting for operands: %w", err)
	}
	if len(chosen) == 0 {
		// An empty choice is indistinguishable from backing out.
		return nil, ErrPromptCancelled
	}

	s.logger.Debug(ctx, "Operands chosen via prompt",
		"operation", operationName,
		"operand_count", len(chosen),
	)
	span.SetAttributes(attribute.Int("operand_count", len(chosen)))
	return chosen, nil
}

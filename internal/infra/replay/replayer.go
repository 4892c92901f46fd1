package replay

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pathmorph/pathmorph/internal/app/plugin"
	"github.com/pathmorph/pathmorph/internal/domain/params"
	"github.com/pathmorph/pathmorph/internal/domain/workflow"
	"github.com/pathmorph/pathmorph/pkg/common/logger"
)

// Replayer re-executes a recorded workflow against a session, step by step
// and strictly in order. Operand prompts are answered by a scripted
// prompter, so replay never blocks on interaction.
type Replayer struct {
	registry *plugin.Registry
	invoker  *plugin.Invoker
	prompter plugin.Prompter

	logger *logger.Logger
	tracer trace.Tracer
}

// NewReplayer creates a replayer.
func NewReplayer(
	reg *plugin.Registry,
	inv *plugin.Invoker,
	prompter plugin.Prompter,
	log *logger.Logger,
	tracer trace.Tracer,
) *Replayer {
	return &Replayer{
		registry: reg,
		invoker:  inv,
		prompter: prompter,
		logger:   log.With("component", "replayer"),
		tracer:   tracer,
	}
}

// Replay runs every step against the session. It stops at the first step
// that fails; steps already applied are not undone. On success the
// session's history holds one new step per replayed step.
func (r *Replayer) Replay(ctx context.Context, steps []*workflow.Step, sess *plugin.Session) error {
	ctx, span := r.tracer.Start(ctx, "replayer.replay",
		trace.WithAttributes(attribute.Int("step_count", len(steps))))
	defer span.End()

	for i, step := range steps {
		if err := r.replayStep(ctx, i, step, sess); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "replay aborted")
			return err
		}
	}

	r.logger.Info(ctx, "Workflow replayed", "step_count", len(steps))
	return nil
}

func (r *Replayer) replayStep(ctx context.Context, index int, step *workflow.Step, sess *plugin.Session) error {
	p, err := r.registry.Resolve(step.OperationID())
	if err != nil {
		return fmt.Errorf("step %d: %w", index, err)
	}

	list, err := params.Deserialize(step.ParamsBlob())
	if err != nil {
		return fmt.Errorf("step %d (%s): decoding parameters: %w", index, step.OperationID(), err)
	}

	r.logger.Info(ctx, "Replaying step",
		"index", index,
		"operation", step.OperationID(),
		"label", step.Label(),
	)

	inv := r.invoker.InvokeWithParams(ctx, p, sess, r.prompter, list)
	res, err := inv.Wait(ctx)
	if err != nil {
		return fmt.Errorf("step %d (%s): awaiting invocation: %w", index, step.OperationID(), err)
	}
	if res.Err != nil {
		return fmt.Errorf("step %d (%s): %w", index, step.OperationID(), res.Err)
	}
	if !res.Success {
		return fmt.Errorf("step %d (%s): operation finished with status %s but did not succeed",
			index, step.OperationID(), res.Status)
	}
	return nil
}

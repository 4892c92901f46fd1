// Package workflow provides the append-only history of executed operations.
// Each successful, state-changing invocation appends one immutable step whose
// serialized parameters make it replayable from a script.
package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Step is an immutable record of one successfully completed, history-worthy
// operation. Equality is identity based: the engine compares step pointers
// before and after a run to decide whether the run produced a recordable
// change.
type Step struct {
	id          uuid.UUID
	operationID string
	paramsBlob  string
	label       string
	recordedAt  time.Time
}

// NewStep creates a step for the given operation. The params blob is the
// frozen, serialized parameter list captured when execution started.
func NewStep(operationID, paramsBlob, label string) *Step {
	return &Step{
		id:          uuid.New(),
		operationID: operationID,
		paramsBlob:  paramsBlob,
		label:       label,
		recordedAt:  time.Now(),
	}
}

// ReconstructStep creates a step from recorded fields. This should only be
// used when loading a workflow document from its external representation.
func ReconstructStep(id uuid.UUID, operationID, paramsBlob, label string, recordedAt time.Time) *Step {
	return &Step{
		id:          id,
		operationID: operationID,
		paramsBlob:  paramsBlob,
		label:       label,
		recordedAt:  recordedAt,
	}
}

// ID returns the step's unique identifier.
func (s *Step) ID() uuid.UUID { return s.id }

// OperationID returns the stable identifier of the operation that produced
// this step.
func (s *Step) OperationID() string { return s.operationID }

// ParamsBlob returns the serialized parameter list the operation ran with.
func (s *Step) ParamsBlob() string { return s.paramsBlob }

// Label returns the step's display label.
func (s *Step) Label() string { return s.label }

// RecordedAt returns when the step was appended to history.
func (s *Step) RecordedAt() time.Time { return s.recordedAt }

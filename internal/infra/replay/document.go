// Package replay persists workflow histories and object hierarchies as JSON
// documents and re-executes recorded workflows against a session without
// user interaction.
package replay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pathmorph/pathmorph/internal/domain/workflow"
)

// documentVersion guards against decoding documents written by an
// incompatible codec.
const documentVersion = 1

// stepRecord is the external representation of one workflow step. Params is
// the frozen parameter list in its serialized form, embedded raw so the
// document stays human readable.
type stepRecord struct {
	ID          uuid.UUID       `json:"id"`
	OperationID string          `json:"operation_id"`
	Params      json.RawMessage `json:"params"`
	Label       string          `json:"label"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

type workflowDocument struct {
	Version int          `json:"version"`
	Steps   []stepRecord `json:"steps"`
}

// EncodeWorkflow renders a history as a versioned JSON document.
func EncodeWorkflow(h *workflow.History) ([]byte, error) {
	steps := h.Steps()
	doc := workflowDocument{
		Version: documentVersion,
		Steps:   make([]stepRecord, 0, len(steps)),
	}
	for _, s := range steps {
		doc.Steps = append(doc.Steps, stepRecord{
			ID:          s.ID(),
			OperationID: s.OperationID(),
			Params:      json.RawMessage(s.ParamsBlob()),
			Label:       s.Label(),
			RecordedAt:  s.RecordedAt(),
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// DecodeWorkflow parses a workflow document into its recorded steps, in
// recorded order.
func DecodeWorkflow(data []byte) ([]*workflow.Step, error) {
	var doc workflowDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing workflow document: %w", err)
	}
	if doc.Version != documentVersion {
		return nil, fmt.Errorf("unsupported workflow document version %d", doc.Version)
	}

	steps := make([]*workflow.Step, 0, len(doc.Steps))
	for i, rec := range doc.Steps {
		if rec.OperationID == "" {
			return nil, fmt.Errorf("step %d: missing operation identifier", i)
		}
		steps = append(steps, workflow.ReconstructStep(
			rec.ID, rec.OperationID, string(rec.Params), rec.Label, rec.RecordedAt))
	}
	return steps, nil
}

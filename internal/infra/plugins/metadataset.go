package plugins

import (
	"fmt"

	"github.com/pathmorph/pathmorph/internal/app/plugin"
	"github.com/pathmorph/pathmorph/internal/domain/execution"
	"github.com/pathmorph/pathmorph/internal/domain/objects"
	"github.com/pathmorph/pathmorph/internal/domain/params"
)

// MetadataSetID is the stable operation identifier recorded in workflow
// steps.
const MetadataSetID = "pathmorph.metadata_set"

// MetadataSet records an analysis metadata key and value in the workflow
// without touching any object. It binds no operands, so invoking it skips
// operand resolution entirely and its empty batch completes immediately;
// the recorded step is the whole effect.
type MetadataSet struct{}

// NewMetadataSet creates the operation.
func NewMetadataSet() *MetadataSet { return new(MetadataSet) }

// ID implements plugin.Plugin.
func (p *MetadataSet) ID() string { return MetadataSetID }

// Name implements plugin.Plugin.
func (p *MetadataSet) Name() string { return "Set analysis metadata" }

// SupportedObjectKinds implements plugin.Plugin. Never consulted, since
// the operation is parameter-only.
func (p *MetadataSet) SupportedObjectKinds() objects.KindPredicate {
	return objects.AnyKind
}

// AlwaysPromptForObjects implements plugin.Plugin.
func (p *MetadataSet) AlwaysPromptForObjects() bool { return false }

// DefaultParams implements plugin.Plugin.
func (p *MetadataSet) DefaultParams() *params.List {
	l := params.NewList()
	_ = l.SetString("key", "")
	_ = l.SetString("value", "")
	return l
}

// BuildWorkUnits implements plugin.Plugin. It validates the parameters
// and contributes no units.
func (p *MetadataSet) BuildWorkUnits(
	_ []*objects.Object, list *params.List,
) ([]execution.WorkUnit, error) {
	key, err := list.GetString("key")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plugin.ErrInvalidParameters, err)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: metadata key must not be empty", plugin.ErrInvalidParameters)
	}
	if _, err := list.GetString("value"); err != nil {
		return nil, fmt.Errorf("%w: %v", plugin.ErrInvalidParameters, err)
	}
	return nil, nil
}

// Succeeded implements plugin.Plugin.
func (p *MetadataSet) Succeeded([]execution.Outcome) bool { return true }

// LastResultsDescription implements plugin.Plugin.
func (p *MetadataSet) LastResultsDescription([]execution.Outcome) string {
	return "metadata recorded"
}

// ParameterOnlyOperation marks the operation as operand-free.
func (p *MetadataSet) ParameterOnlyOperation() {}

// Package prompt provides non-interactive Prompter implementations for
// headless execution paths such as workflow replay and tests.
package prompt

import (
	"context"

	"github.com/pathmorph/pathmorph/internal/app/plugin"
	"github.com/pathmorph/pathmorph/internal/domain/objects"
)

// SelectAllPrompter answers every prompt with the full set of eligible
// objects in the hierarchy. Replay uses it so a recorded operation that
// originally required a prompt still resolves deterministically.
type SelectAllPrompter struct{}

// NewSelectAllPrompter creates a prompter that always chooses every
// eligible object.
func NewSelectAllPrompter() *SelectAllPrompter { return new(SelectAllPrompter) }

// PromptForObjects returns every object in the hierarchy matching the
// request's predicate.
func (p *SelectAllPrompter) PromptForObjects(
	_ context.Context, req plugin.PromptRequest,
) ([]*objects.Object, error) {
	return req.Hierarchy.ObjectsMatching(req.Supported), nil
}

// SelectionPrompter answers with the offered selection when the request
// includes one, falling back to all eligible objects otherwise.
type SelectionPrompter struct{}

// NewSelectionPrompter creates a prompter that prefers the current
// selection over the whole tree.
func NewSelectionPrompter() *SelectionPrompter { return new(SelectionPrompter) }

// PromptForObjects honours the offered selection if the request flags one
// as eligible, otherwise it chooses every matching object.
func (p *SelectionPrompter) PromptForObjects(
	_ context.Context, req plugin.PromptRequest,
) ([]*objects.Object, error) {
	if req.IncludeSelection {
		if sel := objects.FilterByKind(req.Hierarchy.SelectedObjects(), req.Supported); len(sel) > 0 {
			return sel, nil
		}
	}
	return req.Hierarchy.ObjectsMatching(req.Supported), nil
}

// StaticPrompter answers every prompt with a fixed operand set.
type StaticPrompter struct{ choice []*objects.Object }

// NewStaticPrompter creates a prompter that always returns the given
// objects, in the given order.
func NewStaticPrompter(choice ...*objects.Object) *StaticPrompter {
	return &StaticPrompter{choice: choice}
}

// PromptForObjects returns the fixed choice.
func (p *StaticPrompter) PromptForObjects(
	_ context.Context, _ plugin.PromptRequest,
) ([]*objects.Object, error) {
	return p.choice, nil
}

// CancelPrompter declines every prompt, aborting the invocation.
type CancelPrompter struct{}

// NewCancelPrompter creates a prompter that always backs out.
func NewCancelPrompter() *CancelPrompter { return new(CancelPrompter) }

// PromptForObjects reports cancellation.
func (p *CancelPrompter) PromptForObjects(
	_ context.Context, _ plugin.PromptRequest,
) ([]*objects.Object, error) {
	return nil, plugin.ErrPromptCancelled
}

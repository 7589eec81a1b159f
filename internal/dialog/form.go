package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/m3rciful/keyshop/core/telegram/state"
)

// EditIDField is the scratch field holding the id of the entity being
// edited, when a form runs in edit mode.
const EditIDField = "_edit_id"

// EditSentinel keeps the persisted value of the current field when
// typed during an edit dialog.
const EditSentinel = "."

const (
	backCommand   = "back"
	cancelCommand = "cancel"
)

// Input is one user update fed into a dialog, already reduced to the
// pieces forms care about.
type Input struct {
	Text       string
	PhotoID    string
	DocumentID string
}

// Step is one question of a form. Parse turns the user's input into the
// value stored under Field; a parse error re-prompts the same step and
// keeps the scratch record intact.
type Step struct {
	ID     state.State
	Prompt string
	Field  string
	Parse  func(in Input) (any, error)
}

// Form is an ordered list of steps plus an optional source of persisted
// values for edit mode.
type Form struct {
	Name  string
	Steps []Step

	// EditSource returns the stored value of a field for the entity
	// being edited. Required for the "." sentinel to work.
	EditSource func(ctx context.Context, editID int64, field string) (any, error)
}

// Result tells the caller what to do after one dialog turn.
type Result struct {
	// Done reports the final step was accepted. Fields holds the full
	// scratch record; the dialog state is already cleared, so the
	// caller owns the commit.
	Done   bool
	Fields map[string]any

	// Cancelled reports the user aborted the dialog.
	Cancelled bool

	// Invalid reports a rejected input; ErrText carries the reason.
	Invalid bool
	ErrText string

	// Prompt is the next message to show, when non-empty.
	Prompt string
}

// Engine runs a form over a state manager.
type Engine struct {
	mgr  state.Manager
	form *Form
}

func NewEngine(mgr state.Manager, form *Form) *Engine {
	return &Engine{mgr: mgr, form: form}
}

// Form returns the engine's form definition.
func (e *Engine) Form() *Form { return e.form }

// Start opens the dialog at the first step and returns its prompt.
func (e *Engine) Start(userID int64) (string, error) {
	return e.start(userID, nil)
}

// StartEdit opens the dialog in edit mode for an existing entity. Every
// step then accepts "." to keep the stored value.
func (e *Engine) StartEdit(userID, editID int64) (string, error) {
	return e.start(userID, map[string]any{EditIDField: editID})
}

// StartWith opens the dialog with pre-filled scratch fields at the
// given step.
func (e *Engine) StartWith(userID int64, step state.State, fields map[string]any) (string, error) {
	idx := e.index(step)
	if idx < 0 {
		return "", fmt.Errorf("form %s: unknown step %q", e.form.Name, step)
	}
	e.mgr.Clear(userID)
	if len(fields) > 0 {
		e.mgr.UpdateFields(userID, fields)
	}
	e.mgr.SetStep(userID, e.form.Steps[idx].ID)
	return e.form.Steps[idx].Prompt, nil
}

func (e *Engine) start(userID int64, fields map[string]any) (string, error) {
	if len(e.form.Steps) == 0 {
		return "", fmt.Errorf("form %s has no steps", e.form.Name)
	}
	return e.StartWith(userID, e.form.Steps[0].ID, fields)
}

func (e *Engine) index(step state.State) int {
	for i, s := range e.form.Steps {
		if s.ID == step {
			return i
		}
	}
	return -1
}

// Owns reports whether the given FSM step belongs to this form.
func (e *Engine) Owns(step state.State) bool {
	return e.index(step) >= 0
}

// Handle consumes one user update for an in-progress dialog.
func (e *Engine) Handle(ctx context.Context, userID int64, in Input) (Result, error) {
	cur := e.mgr.Step(userID)
	idx := e.index(cur)
	if idx < 0 {
		return Result{}, fmt.Errorf("form %s: not at a form step (%q)", e.form.Name, cur)
	}
	step := e.form.Steps[idx]

	switch normalizeCommand(in.Text) {
	case cancelCommand:
		e.mgr.Clear(userID)
		return Result{Cancelled: true}, nil
	case backCommand:
		// First step has nowhere to go back to; re-prompt it.
		if idx > 0 {
			idx--
			e.mgr.SetStep(userID, e.form.Steps[idx].ID)
		}
		return Result{Prompt: e.form.Steps[idx].Prompt}, nil
	}

	value, err := e.parseStep(ctx, userID, step, in)
	if err != nil {
		return Result{Invalid: true, ErrText: err.Error(), Prompt: step.Prompt}, nil
	}

	if step.Field != "" {
		e.mgr.UpdateFields(userID, map[string]any{step.Field: value})
	}

	if idx == len(e.form.Steps)-1 {
		fields := e.mgr.Fields(userID)
		// Clear before handing over: the commit belongs to the caller
		// and must not leave a stuck dialog behind on failure.
		e.mgr.Clear(userID)
		return Result{Done: true, Fields: fields}, nil
	}

	next := e.form.Steps[idx+1]
	e.mgr.SetStep(userID, next.ID)
	return Result{Prompt: next.Prompt}, nil
}

func (e *Engine) parseStep(ctx context.Context, userID int64, step Step, in Input) (any, error) {
	if strings.TrimSpace(in.Text) == EditSentinel {
		if editID, ok := e.mgr.FieldInt64(userID, EditIDField); ok && editID != 0 && e.form.EditSource != nil {
			return e.form.EditSource(ctx, editID, step.Field)
		}
		// Not editing: "." is ordinary input.
	}
	if step.Parse == nil {
		return in.Text, nil
	}
	return step.Parse(in)
}

func normalizeCommand(text string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(text)), "/")
}

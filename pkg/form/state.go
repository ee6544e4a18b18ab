// Package form implements the cursor over a wizard step list: per-step
// answers, back navigation and rehydration of UI controls from earlier
// answers.
package form

import (
	"github.com/ormasoftchile/guildwiz/pkg/normalize"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

// State is a cursor over one step list. The zero cursor is -1: Current is
// undefined until the first Advance.
type State struct {
	steps   []schema.Step
	cursor  int
	answers map[int][]string
	raw     map[int]any

	previous    []string
	previousRaw any
	hasPrevious bool
}

// New returns a state positioned before the first step.
func New(steps []schema.Step) *State {
	return &State{
		steps:   steps,
		cursor:  -1,
		answers: make(map[int][]string),
		raw:     make(map[int]any),
	}
}

// Len returns the number of steps.
func (s *State) Len() int { return len(s.steps) }

// Cursor returns the current index (-1 before start, Len() when exhausted).
func (s *State) Cursor() int { return s.cursor }

// Step returns the step at index i.
func (s *State) Step(i int) (*schema.Step, bool) {
	if i < 0 || i >= len(s.steps) {
		return nil, false
	}
	return &s.steps[i], true
}

// Current returns the step under the cursor.
func (s *State) Current() (*schema.Step, bool) {
	return s.Step(s.cursor)
}

// Advance moves the cursor forward and reports whether it still points at a
// step. The cursor never moves past Len().
func (s *State) Advance() bool {
	if s.cursor < len(s.steps) {
		s.cursor++
	}
	return s.cursor < len(s.steps)
}

// CanGoBack reports whether GoBack would move. The entry step carries no
// answer and is never revisited.
func (s *State) CanGoBack() bool {
	if s.cursor <= 0 {
		return false
	}
	prev, ok := s.Step(s.cursor - 1)
	if !ok {
		return false
	}
	return prev.Kind != schema.KindStart
}

// GoBack moves the cursor one step back and loads that step's answer as the
// previous answer for rehydration. It is a no-op returning false when
// CanGoBack is false.
func (s *State) GoBack() bool {
	if !s.CanGoBack() {
		return false
	}
	s.cursor--
	if s.Answered(s.cursor) {
		s.previous = append([]string(nil), s.answers[s.cursor]...)
		s.previousRaw = s.raw[s.cursor]
		s.hasPrevious = true
	} else {
		s.ClearPrevious()
	}
	return true
}

// SaveAnswer stores the normalized and raw answer at the cursor.
func (s *State) SaveAnswer(raw any, step *schema.Step) {
	if s.cursor < 0 || s.cursor >= len(s.steps) {
		return
	}
	s.answers[s.cursor] = normalize.Normalize(raw, step)
	s.raw[s.cursor] = raw
}

// Answered reports whether step i holds a saved answer.
func (s *State) Answered(i int) bool {
	_, ok := s.raw[i]
	return ok
}

// Answer returns the normalized answer of step i.
func (s *State) Answer(i int) []string { return s.answers[i] }

// Raw returns the raw answer of step i.
func (s *State) Raw(i int) any { return s.raw[i] }

// Previous returns the answer pending rehydration, if any.
func (s *State) Previous() ([]string, any, bool) {
	return s.previous, s.previousRaw, s.hasPrevious
}

// SetPrevious seeds the rehydration answer, e.g. from a stored record when
// editing an existing configuration.
func (s *State) SetPrevious(normalized []string, raw any) {
	s.previous = append([]string(nil), normalized...)
	s.previousRaw = raw
	s.hasPrevious = true
}

// ClearPrevious drops the rehydration answer once it has been rendered.
func (s *State) ClearPrevious() {
	s.previous = nil
	s.previousRaw = nil
	s.hasPrevious = false
}

package wizard

import (
	"context"
	"fmt"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"go.uber.org/zap"
)

// composition collects the entries of one composition step by running a
// child conversation per entry.
type composition struct {
	w       *Wizard
	step    *schema.Step
	cap     int
	entries []Record
	index   int     // entry being collected, or last collected while prompting
	child   *Wizard // nil while the continue prompt is shown
}

// disabled reports whether step is a composition whose cap is 0. Such steps
// are passed through with an empty list answer.
func (w *Wizard) disabled(step *schema.Step) bool {
	if step.Kind != schema.KindComposition {
		return false
	}
	n, ok := w.caps.Cap(step.ParentKey)
	return ok && n <= 0
}

// startComposition enters a composition step. Going forward it opens the
// first entry; coming back from a later step it reopens the last one.
func (w *Wizard) startComposition(ctx context.Context, step *schema.Step, backward bool) error {
	limit, ok := w.caps.Cap(step.ParentKey)
	if !ok {
		return w.fail(ctx, fmt.Errorf("%w: no cap registered for %q", ErrSchema, step.ParentKey))
	}
	if limit <= 0 {
		w.logger.Debug("composition disabled", zap.String("step", step.Key), zap.String("parentKey", step.ParentKey))
		w.save(step, []Record{})
		return w.next(ctx)
	}

	entries := w.existingEntries(step)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	c := &composition{w: w, step: step, cap: limit, entries: entries}
	w.comp = c
	w.phase = PhaseRendering

	at := 0
	if backward && len(entries) > 0 {
		at = len(entries) - 1
	}
	return c.open(ctx, at)
}

// existingEntries returns the entries saved on an earlier pass, else the
// entries of the record being edited.
func (w *Wizard) existingEntries(step *schema.Step) []Record {
	if i := w.form.Cursor(); w.form.Answered(i) {
		return decodeRecords(w.form.Raw(i))
	}
	if raw, ok := w.seeded(step.Key); ok {
		return decodeRecords(raw)
	}
	return nil
}

// open starts the child conversation for entry i, seeded with the existing
// entry at that index.
func (c *composition) open(ctx context.Context, i int) error {
	var existing Record
	if i < len(c.entries) {
		existing = c.entries[i]
	}
	child, err := c.w.newChild(c.step, i, existing)
	if err != nil {
		return c.w.fail(ctx, err)
	}
	child.onDone = func(ctx context.Context, rec Record) error {
		return c.complete(ctx, i, rec)
	}
	c.child = child
	c.index = i
	return child.Start(ctx)
}

// complete stores entry i and either asks for another entry or, once the
// cap is reached, finishes the list.
func (c *composition) complete(ctx context.Context, i int, rec Record) error {
	c.child = nil
	if i < len(c.entries) {
		c.entries[i] = rec
	} else {
		c.entries = append(c.entries, rec)
	}
	c.index = i
	if i+1 >= c.cap {
		c.w.logger.Debug("composition cap reached", zap.String("step", c.step.Key), zap.Int("cap", c.cap))
		return c.finalize(ctx)
	}
	return c.prompt(ctx)
}

func (c *composition) prompt(ctx context.Context) error {
	w := c.w
	text := c.step.Display(w.locale, w.feature.Locale())
	p := &Prompt{
		Feature:     w.feature.Feature,
		StepKey:     c.step.Key,
		Kind:        schema.KindComposition,
		Path:        w.path,
		Title:       text.Title,
		Description: text.Description,
		Index:       w.form.Cursor(),
		Total:       w.form.Len(),
		CanGoBack:   true,
		Step:        c.step,
		Continue: &ContinuePrompt{
			ParentKey: c.step.ParentKey,
			Count:     c.index + 1,
			Cap:       c.cap,
		},
	}
	w.phase = PhaseAwaiting
	w.awaiting = c.step.Key
	w.root().last = p
	w.observer.StepRendered(w.feature.Feature, schema.KindComposition)

	if err := dispatch(ctx, w.renderer, p); err != nil {
		return w.fail(ctx, fmt.Errorf("%w: render %q: %w", ErrTransport, c.step.Key, err))
	}
	return nil
}

// handle routes a callback to the active entry or answers the continue
// prompt.
func (c *composition) handle(ctx context.Context, cb Callback) error {
	if c.child != nil {
		return c.child.Handle(ctx, cb)
	}
	w := c.w
	if w.phase != PhaseAwaiting {
		return w.fail(ctx, fmt.Errorf("%w: %s callback in phase %s", ErrTransport, cb.Action, w.phase))
	}
	if cb.StepKey != c.step.Key {
		return w.fail(ctx, fmt.Errorf("%w: callback for %q while awaiting %q", ErrTransport, cb.StepKey, c.step.Key))
	}
	switch cb.Action {
	case ActionMore:
		return c.open(ctx, c.index+1)
	case ActionStop:
		return c.finalize(ctx)
	case ActionBack:
		return c.open(ctx, c.index)
	default:
		return w.fail(ctx, fmt.Errorf("%w: unexpected action %q on continue prompt", ErrTransport, cb.Action))
	}
}

// childBack handles Back on the first step of an entry: the previous entry
// is reopened, or the conversation leaves the composition backwards.
func (c *composition) childBack(ctx context.Context) error {
	if c.index > 0 {
		return c.open(ctx, c.index-1)
	}
	w := c.w
	w.comp = nil
	w.phase = PhaseAwaiting
	return w.back(ctx)
}

func (c *composition) canLeaveBackward() bool {
	return c.index > 0 || c.w.form.CanGoBack()
}

// finalize writes the list answer. Entries beyond the ones visited in this
// conversation are kept.
func (c *composition) finalize(ctx context.Context) error {
	w := c.w
	entries := make([]Record, len(c.entries))
	copy(entries, c.entries)
	if len(entries) > c.cap {
		entries = entries[:c.cap]
	}
	w.comp = nil
	w.save(c.step, entries)
	w.logger.Debug("composition finished", zap.String("step", c.step.Key), zap.Int("entries", len(entries)))
	return w.next(ctx)
}

package wizard

import (
	"context"

	"github.com/ormasoftchile/guildwiz/pkg/form"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

// Prompt is everything a transport needs to present one step.
type Prompt struct {
	Feature     string          `json:"feature"`
	StepKey     string          `json:"step"`
	Kind        schema.StepKind `json:"kind"`
	Path        string          `json:"path,omitempty"` // composition position, e.g. "targets[1]"
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Placeholder string          `json:"placeholder,omitempty"`
	Index       int             `json:"index"`
	Total       int             `json:"total"`
	CanGoBack   bool            `json:"canGoBack"`
	Prefilled   bool            `json:"prefilled,omitempty"`

	Text     []form.TextControl    `json:"text,omitempty"`
	Choice   *form.ChoiceControl   `json:"choice,omitempty"`
	Resource *form.ResourceControl `json:"resource,omitempty"`
	Design   *form.DesignControl   `json:"design,omitempty"`
	File     *form.FileControl     `json:"file,omitempty"`
	Continue *ContinuePrompt       `json:"continue,omitempty"`
	Summary  []Answer              `json:"summary,omitempty"`

	Step *schema.Step `json:"-"`
}

// ContinuePrompt asks whether another composition entry should be added.
type ContinuePrompt struct {
	ParentKey string `json:"parentKey"`
	Count     int    `json:"count"`
	Cap       int    `json:"cap"`
}

// Renderer presents prompts to the operator. Every step kind that is shown
// has its own method; composition steps are never rendered directly.
// Implementations must eventually deliver exactly one Callback per prompt,
// or none at all on timeout or cancel.
type Renderer interface {
	RenderStart(ctx context.Context, p *Prompt) error
	RenderFreeText(ctx context.Context, p *Prompt) error
	RenderSingleChoice(ctx context.Context, p *Prompt) error
	RenderResourceSelect(ctx context.Context, p *Prompt) error
	RenderDesignChoice(ctx context.Context, p *Prompt) error
	RenderFileUpload(ctx context.Context, p *Prompt) error
	RenderConfirm(ctx context.Context, p *Prompt) error
	RenderContinue(ctx context.Context, p *Prompt) error
	RenderDone(ctx context.Context, rec Record) error
	RenderAbandoned(ctx context.Context, reason error) error
}

// Funcs adapts plain functions to Renderer for transports that render every
// prompt the same way. Nil functions are no-ops.
type Funcs struct {
	Prompt    func(ctx context.Context, p *Prompt) error
	Done      func(ctx context.Context, rec Record) error
	Abandoned func(ctx context.Context, reason error) error
}

var _ Renderer = Funcs{}

func (f Funcs) prompt(ctx context.Context, p *Prompt) error {
	if f.Prompt == nil {
		return nil
	}
	return f.Prompt(ctx, p)
}

func (f Funcs) RenderStart(ctx context.Context, p *Prompt) error          { return f.prompt(ctx, p) }
func (f Funcs) RenderFreeText(ctx context.Context, p *Prompt) error       { return f.prompt(ctx, p) }
func (f Funcs) RenderSingleChoice(ctx context.Context, p *Prompt) error   { return f.prompt(ctx, p) }
func (f Funcs) RenderResourceSelect(ctx context.Context, p *Prompt) error { return f.prompt(ctx, p) }
func (f Funcs) RenderDesignChoice(ctx context.Context, p *Prompt) error   { return f.prompt(ctx, p) }
func (f Funcs) RenderFileUpload(ctx context.Context, p *Prompt) error     { return f.prompt(ctx, p) }
func (f Funcs) RenderConfirm(ctx context.Context, p *Prompt) error        { return f.prompt(ctx, p) }
func (f Funcs) RenderContinue(ctx context.Context, p *Prompt) error       { return f.prompt(ctx, p) }

func (f Funcs) RenderDone(ctx context.Context, rec Record) error {
	if f.Done == nil {
		return nil
	}
	return f.Done(ctx, rec)
}

func (f Funcs) RenderAbandoned(ctx context.Context, reason error) error {
	if f.Abandoned == nil {
		return nil
	}
	return f.Abandoned(ctx, reason)
}

// dispatch hands p to the renderer method of its kind.
func dispatch(ctx context.Context, r Renderer, p *Prompt) error {
	switch p.Kind {
	case schema.KindStart:
		return r.RenderStart(ctx, p)
	case schema.KindFreeText:
		return r.RenderFreeText(ctx, p)
	case schema.KindSingleChoice:
		return r.RenderSingleChoice(ctx, p)
	case schema.KindResourceSelect:
		return r.RenderResourceSelect(ctx, p)
	case schema.KindDesignChoice:
		return r.RenderDesignChoice(ctx, p)
	case schema.KindFileUpload:
		return r.RenderFileUpload(ctx, p)
	case schema.KindConfirm:
		return r.RenderConfirm(ctx, p)
	case schema.KindComposition:
		return r.RenderContinue(ctx, p)
	default:
		return errUnknownKind(p.Kind)
	}
}

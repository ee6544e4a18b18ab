package wizard

import (
	"context"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"go.uber.org/zap"
)

type previewResult struct {
	design string
	out    string
	err    error
}

// previews renders every design of step concurrently. A design whose
// preview fails or does not finish in time is left out; the step still
// renders.
func (w *Wizard) previews(ctx context.Context, step *schema.Step) map[string]string {
	if w.previewer == nil || len(step.Designs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, w.previewTimeout)
	defer cancel()

	answers := w.visibleAnswers()
	results := make(chan previewResult, len(step.Designs))
	for _, d := range step.Designs {
		go func(d schema.Option) {
			out, err := w.previewer.Preview(ctx, d, answers)
			results <- previewResult{design: d.Value, out: out, err: err}
		}(d)
	}

	out := make(map[string]string, len(step.Designs))
	pending := make(map[string]bool, len(step.Designs))
	for _, d := range step.Designs {
		pending[d.Value] = true
	}
	for len(pending) > 0 {
		select {
		case r := <-results:
			delete(pending, r.design)
			if r.err != nil {
				w.previewFailed(step, r.design, r.err)
				continue
			}
			out[r.design] = r.out
		case <-ctx.Done():
			for design := range pending {
				w.previewFailed(step, design, ctx.Err())
			}
			return out
		}
	}
	return out
}

func (w *Wizard) previewFailed(step *schema.Step, design string, err error) {
	w.logger.Warn("design preview failed",
		zap.String("step", step.Key),
		zap.String("design", design),
		zap.Error(err))
	w.observer.PreviewFailed(w.feature.Feature, design)
}

// visibleAnswers returns the answers visible to this conversation, enclosing
// conversations first.
func (w *Wizard) visibleAnswers() []Answer {
	var out []Answer
	if w.parent != nil {
		out = w.parent.visibleAnswers()
	}
	return append(out, w.Answers()...)
}

package wizard

import (
	"errors"
	"fmt"
	"time"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

// Outcome classifies how a conversation ended.
type Outcome string

const (
	OutcomeCompiled  Outcome = "compiled"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeTransport Outcome = "transport"
	OutcomeNotSaved  Outcome = "not_saved"
	OutcomeSchema    Outcome = "schema"
	OutcomeError     Outcome = "error"
)

func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeCompiled
	case errors.Is(err, ErrCancelled):
		return OutcomeCancelled
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrNotSaved):
		return OutcomeNotSaved
	case errors.Is(err, ErrTransport):
		return OutcomeTransport
	case errors.Is(err, ErrSchema):
		return OutcomeSchema
	default:
		return OutcomeError
	}
}

// Observer receives lifecycle events, e.g. for metrics.
type Observer interface {
	StepRendered(feature string, kind schema.StepKind)
	StepSkipped(feature, step string)
	PreviewFailed(feature, design string)
	Finished(feature string, outcome Outcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) StepRendered(string, schema.StepKind)    {}
func (nopObserver) StepSkipped(string, string)              {}
func (nopObserver) PreviewFailed(string, string)            {}
func (nopObserver) Finished(string, Outcome, time.Duration) {}

func errUnknownKind(k schema.StepKind) error {
	return fmt.Errorf("%w: unknown step kind %q", ErrSchema, k)
}

// Package wizard drives a configuration conversation over a feature's step
// list: it evaluates skip conditions, renders steps, resumes on exactly one
// callback at a time, collects composition entries and compiles the answers
// into a persisted Record.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ormasoftchile/guildwiz/pkg/form"
	"github.com/ormasoftchile/guildwiz/pkg/normalize"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"go.uber.org/zap"
)

var (
	ErrSchema    = errors.New("invalid step schema")
	ErrTransport = errors.New("malformed or unexpected callback")
	ErrNotSaved  = errors.New("configuration was not saved")
	ErrCancelled = errors.New("cancelled by operator")
	ErrTimeout   = errors.New("timed out waiting for operator")
	ErrFinished  = errors.New("conversation already finished")
)

// DefaultPreviewTimeout bounds how long a design step waits for previews.
const DefaultPreviewTimeout = 3 * time.Second

// Phase is the state of a conversation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRendering
	PhaseAwaiting
	PhaseAdvancing
	PhaseSkipping
	PhaseCompiling
	PhaseCompiled
	PhaseAbandoned
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRendering:
		return "rendering"
	case PhaseAwaiting:
		return "awaiting"
	case PhaseAdvancing:
		return "advancing"
	case PhaseSkipping:
		return "skipping"
	case PhaseCompiling:
		return "compiling"
	case PhaseCompiled:
		return "compiled"
	case PhaseAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no further callback is accepted.
func (p Phase) Terminal() bool { return p == PhaseCompiled || p == PhaseAbandoned }

// Action is what the operator did on a rendered prompt.
type Action string

const (
	ActionSubmit Action = "submit"
	ActionBack   Action = "back"
	ActionCancel Action = "cancel"
	ActionMore   Action = "more" // composition: add another entry
	ActionStop   Action = "stop" // composition: finish the list
)

// Callback is one operator event delivered by a transport. StepKey must name
// the step of the prompt it answers.
type Callback struct {
	Action  Action `json:"action"`
	StepKey string `json:"step"`
	Payload any    `json:"payload,omitempty"`
}

// Persister stores compiled records. Last write wins.
type Persister interface {
	Upsert(ctx context.Context, guildID, featureKey string, rec Record) error
}

// Reader reads a stored record for edit mode.
type Reader interface {
	Read(ctx context.Context, guildID, featureKey string) (Record, bool, error)
}

// Previewer renders one design candidate given the answers collected so far.
type Previewer interface {
	Preview(ctx context.Context, design schema.Option, answers []Answer) (string, error)
}

// Config configures one conversation.
type Config struct {
	Feature  *schema.Feature
	GuildID  string
	Operator string
	Locale   string
	Caps     schema.CapTable // nil: builtin table plus feature meta

	Renderer  Renderer
	Persister Persister
	Previewer Previewer // optional
	Observer  Observer  // optional
	Logger    *zap.Logger

	// Existing seeds the conversation when editing a stored record.
	Existing       Record
	PreviewTimeout time.Duration
}

// Wizard is the resumable state of one conversation. It is not safe for
// concurrent use; callers deliver callbacks one at a time.
type Wizard struct {
	feature        *schema.Feature
	guildID        string
	locale         string
	caps           schema.CapTable
	renderer       Renderer
	persister      Persister
	previewer      Previewer
	observer       Observer
	logger         *zap.Logger
	previewTimeout time.Duration

	steps    []schema.Step
	form     *form.State
	conds    map[string]*condition
	seed     []Answer
	log      []Answer
	phase    Phase
	awaiting string
	started  time.Time

	result Record
	err    error
	last   *Prompt

	// composition
	parent *Wizard
	comp   *composition
	path   string
	onDone func(ctx context.Context, rec Record) error
}

// New validates the feature and prepares a conversation in PhaseIdle.
func New(cfg Config) (*Wizard, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("wizard")
	if cfg.Feature == nil {
		return nil, fmt.Errorf("%w: no feature", ErrSchema)
	}
	logger = logger.With(zap.String("feature", cfg.Feature.Feature), zap.String("guild", cfg.GuildID))

	caps := cfg.Caps
	if caps == nil {
		caps = schema.CapsFor(cfg.Feature, nil)
	}
	if errs := schema.Validate(cfg.Feature, caps); schema.HasErrors(errs) {
		err := schema.Errors(errs)
		logger.Error("invalid step schema", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	if cfg.Renderer == nil || cfg.Persister == nil {
		return nil, errors.New("wizard: renderer and persister are required")
	}

	conds, err := compileConditions(cfg.Feature.Steps)
	if err != nil {
		logger.Error("invalid condition", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	locale := cfg.Locale
	if locale == "" {
		locale = cfg.Feature.Locale()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	timeout := cfg.PreviewTimeout
	if timeout <= 0 {
		timeout = DefaultPreviewTimeout
	}

	w := &Wizard{
		feature:        cfg.Feature,
		guildID:        cfg.GuildID,
		locale:         locale,
		caps:           caps,
		renderer:       cfg.Renderer,
		persister:      cfg.Persister,
		previewer:      cfg.Previewer,
		observer:       observer,
		logger:         logger,
		previewTimeout: timeout,
		steps:          cfg.Feature.Steps,
		form:           form.New(cfg.Feature.Steps),
		conds:          conds,
	}
	w.seed = w.seedFrom(cfg.Existing)
	if cfg.Operator != "" {
		w.logger = w.logger.With(zap.String("operator", cfg.Operator))
	}
	return w, nil
}

// Load reads the stored record of the feature and opens the conversation in
// edit mode. A missing record starts an empty conversation.
func Load(ctx context.Context, r Reader, cfg Config) (*Wizard, error) {
	if cfg.Feature == nil {
		return nil, fmt.Errorf("%w: no feature", ErrSchema)
	}
	rec, ok, err := r.Read(ctx, cfg.GuildID, cfg.Feature.Feature)
	if err != nil {
		return nil, fmt.Errorf("read existing %s: %w", cfg.Feature.Feature, err)
	}
	if ok {
		cfg.Existing = rec
	}
	return New(cfg)
}

// newChild prepares a conversation over a composition's nested steps.
func (w *Wizard) newChild(step *schema.Step, index int, existing Record) (*Wizard, error) {
	conds, err := compileConditions(step.Steps)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	child := &Wizard{
		feature:        w.feature,
		guildID:        w.guildID,
		locale:         w.locale,
		caps:           w.caps,
		renderer:       w.renderer,
		persister:      w.persister,
		previewer:      w.previewer,
		observer:       w.observer,
		logger:         w.logger.With(zap.String("composition", step.Key), zap.Int("entry", index)),
		previewTimeout: w.previewTimeout,
		steps:          step.Steps,
		form:           form.New(step.Steps),
		conds:          conds,
		parent:         w,
		path:           fmt.Sprintf("%s%s[%d]", w.pathPrefix(), step.Key, index),
		started:        time.Now(),
	}
	child.seed = child.seedFrom(existing)
	return child, nil
}

func (w *Wizard) pathPrefix() string {
	if w.path == "" {
		return ""
	}
	return w.path + "."
}

func (w *Wizard) seedFrom(rec Record) []Answer {
	seed := seedAnswers(rec)
	for i := range seed {
		if s := w.stepByKey(seed[i].Key); s != nil {
			seed[i].Display = normalize.Display(seed[i].Raw, s)
		}
	}
	return seed
}

// Feature returns the feature key.
func (w *Wizard) Feature() string { return w.feature.Feature }

// GuildID returns the guild the conversation configures.
func (w *Wizard) GuildID() string { return w.guildID }

// Phase returns the phase of the innermost active conversation.
func (w *Wizard) Phase() Phase {
	if w.comp != nil && w.comp.child != nil {
		return w.comp.child.Phase()
	}
	return w.phase
}

// Prompt returns the prompt rendered last, or nil before Start.
func (w *Wizard) Prompt() *Prompt { return w.root().last }

// Result returns the compiled record once the phase is PhaseCompiled.
func (w *Wizard) Result() Record { return w.result }

// Err returns the reason the conversation was abandoned.
func (w *Wizard) Err() error { return w.err }

// Answers returns the answers collected so far, one per key.
func (w *Wizard) Answers() []Answer {
	return Dedupe(append(append([]Answer(nil), w.seed...), w.log...))
}

// Start renders the first visible step.
func (w *Wizard) Start(ctx context.Context) error {
	if w.phase != PhaseIdle {
		return fmt.Errorf("%w: start in phase %s", ErrTransport, w.phase)
	}
	w.started = time.Now()
	w.logger.Debug("conversation started")
	return w.next(ctx)
}

// Handle resumes the conversation with one callback. Cancel is accepted in
// every non-terminal phase. Any other callback must answer the step that is
// currently awaited; otherwise the conversation is abandoned with
// ErrTransport and nothing is saved.
func (w *Wizard) Handle(ctx context.Context, cb Callback) error {
	if w.phase.Terminal() {
		return ErrFinished
	}
	if cb.Action == ActionCancel {
		return w.abandon(ctx, ErrCancelled)
	}
	if w.comp != nil {
		return w.comp.handle(ctx, cb)
	}
	if w.phase != PhaseAwaiting {
		return w.fail(ctx, fmt.Errorf("%w: %s callback in phase %s", ErrTransport, cb.Action, w.phase))
	}
	if cb.StepKey != w.awaiting {
		return w.fail(ctx, fmt.Errorf("%w: callback for %q while awaiting %q", ErrTransport, cb.StepKey, w.awaiting))
	}
	switch cb.Action {
	case ActionSubmit:
		return w.submit(ctx, cb.Payload)
	case ActionBack:
		return w.back(ctx)
	default:
		return w.fail(ctx, fmt.Errorf("%w: unexpected action %q on step %q", ErrTransport, cb.Action, cb.StepKey))
	}
}

// Abandon ends the conversation without compiling, e.g. on timeout.
func (w *Wizard) Abandon(ctx context.Context, reason error) error {
	if w.root().phase.Terminal() {
		return ErrFinished
	}
	return w.abandon(ctx, reason)
}

func (w *Wizard) root() *Wizard {
	r := w
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// next advances to the next visible step, skipping steps whose condition
// hides them, and compiles once the list is exhausted.
func (w *Wizard) next(ctx context.Context) error {
	w.phase = PhaseAdvancing
	for w.form.Advance() {
		step, _ := w.form.Current()
		skip, err := w.shouldSkip(step)
		if err != nil {
			return w.fail(ctx, err)
		}
		if skip {
			w.phase = PhaseSkipping
			w.skip(step)
			continue
		}
		return w.enter(ctx, step)
	}
	return w.finish(ctx)
}

func (w *Wizard) enter(ctx context.Context, step *schema.Step) error {
	if step.Kind == schema.KindComposition {
		return w.startComposition(ctx, step, false)
	}
	return w.render(ctx, step)
}

func (w *Wizard) skip(step *schema.Step) {
	w.form.ClearPrevious()
	w.retract(step.Key)
	w.observer.StepSkipped(w.feature.Feature, step.Key)
	w.logger.Debug("step skipped", zap.String("step", step.Key))
}

// retract drops answers for key written before the step became hidden, so
// a later compile does not carry configuration for a skipped step.
func (w *Wizard) retract(key string) {
	w.log = dropKey(w.log, key)
	w.seed = dropKey(w.seed, key)
}

func dropKey(answers []Answer, key string) []Answer {
	out := answers[:0]
	for _, a := range answers {
		if a.Key != key {
			out = append(out, a)
		}
	}
	return out
}

func (w *Wizard) shouldSkip(step *schema.Step) (bool, error) {
	c, ok := w.conds[step.Key]
	if !ok {
		return false, nil
	}
	var values []string
	if raw, ref, ok := w.latest(c.key); ok {
		values = normalize.Values(raw, ref)
	}
	show, err := c.show(values)
	if err != nil {
		return false, err
	}
	return !show, nil
}

// latest returns the most recently saved raw answer for key in this
// conversation, falling back to the enclosing conversation.
func (w *Wizard) latest(key string) (any, *schema.Step, bool) {
	for i := len(w.log) - 1; i >= 0; i-- {
		if w.log[i].Key == key {
			return w.log[i].Raw, w.stepByKey(key), true
		}
	}
	if w.parent != nil {
		return w.parent.latest(key)
	}
	return nil, nil, false
}

func (w *Wizard) stepByKey(key string) *schema.Step {
	for i := range w.steps {
		if w.steps[i].Key == key {
			return &w.steps[i]
		}
	}
	return nil
}

func (w *Wizard) seeded(key string) (any, bool) {
	for i := len(w.seed) - 1; i >= 0; i-- {
		if w.seed[i].Key == key {
			return w.seed[i].Raw, true
		}
	}
	return nil, false
}

// prefill makes sure the form holds the answer to rehydrate the current step
// from: the back-navigation answer, else the answer saved on an earlier pass,
// else the stored record being edited.
func (w *Wizard) prefill(step *schema.Step) {
	if _, _, ok := w.form.Previous(); ok {
		return
	}
	if i := w.form.Cursor(); w.form.Answered(i) {
		w.form.SetPrevious(w.form.Answer(i), w.form.Raw(i))
		return
	}
	if raw, ok := w.seeded(step.Key); ok {
		w.form.SetPrevious(normalize.Normalize(raw, step), raw)
	}
}

func (w *Wizard) render(ctx context.Context, step *schema.Step) error {
	w.phase = PhaseRendering
	w.prefill(step)
	p := w.buildPrompt(ctx, step)
	w.form.ClearPrevious()

	w.phase = PhaseAwaiting
	w.awaiting = step.Key
	w.root().last = p
	w.observer.StepRendered(w.feature.Feature, step.Kind)
	w.logger.Debug("step rendered", zap.String("step", step.Key), zap.String("path", w.path))

	if err := dispatch(ctx, w.renderer, p); err != nil {
		return w.fail(ctx, fmt.Errorf("%w: render %q: %w", ErrTransport, step.Key, err))
	}
	return nil
}

func (w *Wizard) buildPrompt(ctx context.Context, step *schema.Step) *Prompt {
	text := step.Display(w.locale, w.feature.Locale())
	p := &Prompt{
		Feature:     w.feature.Feature,
		StepKey:     step.Key,
		Kind:        step.Kind,
		Path:        w.path,
		Title:       text.Title,
		Description: text.Description,
		Placeholder: text.Placeholder,
		Index:       w.form.Cursor(),
		Total:       w.form.Len(),
		CanGoBack:   w.canGoBack(),
		Step:        step,
	}

	switch step.Kind {
	case schema.KindStart:
	case schema.KindFreeText:
		p.Text = form.TextControls(step, text.Placeholder)
		p.Prefilled = w.form.FillText(p.Text)
	case schema.KindSingleChoice:
		p.Choice = form.NewChoiceControl(step.Options, step.Multi)
		p.Prefilled = w.form.FillSingleChoice(p.Choice)
	case schema.KindResourceSelect:
		p.Resource = &form.ResourceControl{Type: step.Resource.Type, Multi: step.Resource.Multi}
		p.Prefilled = w.form.FillResourceSelect(p.Resource)
	case schema.KindDesignChoice:
		p.Design = &form.DesignControl{Designs: form.NewChoiceControl(step.Designs, false).Items}
		p.Prefilled = w.form.FillDesignChoice(p.Design)
		p.Design.Previews = w.previews(ctx, step)
	case schema.KindFileUpload:
		p.File = &form.FileControl{}
		p.Prefilled = w.form.FillFileUpload(p.File)
	case schema.KindComposition:
		// compositions render their nested steps and a continue prompt
	case schema.KindConfirm:
		p.Summary = w.summary()
	}
	return p
}

func (w *Wizard) canGoBack() bool {
	if w.form.CanGoBack() {
		return true
	}
	return w.parent != nil && w.parent.comp != nil && w.parent.comp.canLeaveBackward()
}

// summary lists the answers that will be compiled, in step order.
func (w *Wizard) summary() []Answer {
	answers := w.Answers()
	byKey := make(map[string]Answer, len(answers))
	for _, a := range answers {
		byKey[a.Key] = a
	}
	var out []Answer
	for i := range w.steps {
		if a, ok := byKey[w.steps[i].Key]; ok {
			if a.Display == "" {
				a.Display = normalize.Display(a.Raw, &w.steps[i])
			}
			out = append(out, a)
			delete(byKey, a.Key)
		}
	}
	for _, a := range answers {
		if _, ok := byKey[a.Key]; ok {
			out = append(out, a)
		}
	}
	return out
}

func (w *Wizard) submit(ctx context.Context, payload any) error {
	step, _ := w.form.Current()
	switch step.Kind {
	case schema.KindStart:
		w.form.ClearPrevious()
		return w.next(ctx)
	case schema.KindConfirm:
		w.form.ClearPrevious()
		return w.finish(ctx)
	}
	if err := checkPayload(step, payload); err != nil {
		return w.fail(ctx, err)
	}
	w.save(step, payload)
	return w.next(ctx)
}

// save records an answer at the cursor and in the answer log.
func (w *Wizard) save(step *schema.Step, raw any) {
	w.form.SaveAnswer(raw, step)
	w.log = append(w.log, Answer{
		Key:     step.Key,
		Display: normalize.Display(raw, step),
		Raw:     raw,
		Title:   step.Title,
		Style:   step.Style,
	})
	w.form.ClearPrevious()
	w.logger.Debug("answer saved", zap.String("step", step.Key), zap.String("path", w.path))
}

// back moves to the previous step that is still visible. Steps hidden by
// their condition are passed over.
func (w *Wizard) back(ctx context.Context) error {
	if !w.form.CanGoBack() {
		return w.backAtStart(ctx)
	}
	w.form.GoBack()
	for {
		step, _ := w.form.Current()
		skip, err := w.shouldSkip(step)
		if err != nil {
			return w.fail(ctx, err)
		}
		if !skip && !w.disabled(step) {
			if step.Kind == schema.KindComposition {
				w.form.ClearPrevious()
				return w.startComposition(ctx, step, true)
			}
			return w.render(ctx, step)
		}
		if !w.form.GoBack() {
			w.form.ClearPrevious()
			if w.parent != nil {
				return w.backAtStart(ctx)
			}
			// every earlier step is hidden; stay on the current one
			return w.next(ctx)
		}
	}
}

func (w *Wizard) backAtStart(ctx context.Context) error {
	if w.parent != nil && w.parent.comp != nil {
		return w.parent.comp.childBack(ctx)
	}
	step, ok := w.form.Current()
	if !ok {
		return w.fail(ctx, fmt.Errorf("%w: back outside the step list", ErrTransport))
	}
	return w.enter(ctx, step)
}

// compile folds the edit seed and this conversation's answers into a record.
func (w *Wizard) compile() Record {
	return Compile(append(append([]Answer(nil), w.seed...), w.log...))
}

func (w *Wizard) finish(ctx context.Context) error {
	w.phase = PhaseCompiling
	rec := w.compile()

	if w.onDone != nil {
		w.phase = PhaseCompiled
		w.result = rec
		return w.onDone(ctx, rec)
	}

	if err := w.persister.Upsert(ctx, w.guildID, w.feature.Feature, rec); err != nil {
		w.logger.Error("upsert failed", zap.Error(err))
		return w.abandon(ctx, fmt.Errorf("%w: %w", ErrNotSaved, err))
	}
	w.phase = PhaseCompiled
	w.result = rec
	w.observer.Finished(w.feature.Feature, OutcomeCompiled, time.Since(w.started))
	w.logger.Info("configuration saved", zap.Int("fields", len(rec)))
	if err := w.renderer.RenderDone(ctx, rec); err != nil {
		w.logger.Warn("render done failed", zap.Error(err))
	}
	return nil
}

func (w *Wizard) fail(ctx context.Context, err error) error {
	return w.abandon(ctx, err)
}

// abandon ends the root conversation. Cancel and timeout are expected
// outcomes and return nil; every other reason is returned to the caller.
func (w *Wizard) abandon(ctx context.Context, reason error) error {
	r := w.root()
	if r.phase.Terminal() {
		return ErrFinished
	}
	r.phase = PhaseAbandoned
	r.err = reason
	r.comp = nil

	outcome := outcomeOf(reason)
	r.observer.Finished(r.feature.Feature, outcome, time.Since(r.started))
	if outcome == OutcomeCancelled || outcome == OutcomeTimeout {
		r.logger.Info("conversation abandoned", zap.String("outcome", string(outcome)))
	} else {
		r.logger.Warn("conversation abandoned", zap.String("outcome", string(outcome)), zap.Error(reason))
	}
	if err := r.renderer.RenderAbandoned(ctx, reason); err != nil {
		r.logger.Warn("render abandoned failed", zap.Error(err))
	}
	if outcome == OutcomeCancelled || outcome == OutcomeTimeout {
		return nil
	}
	return reason
}

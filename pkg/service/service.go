// Package service wires features, storage and live conversations together
// for the request/response transports (JSON-RPC, HTTP, MCP).
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/session"
	"github.com/ormasoftchile/guildwiz/pkg/store"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
	"go.uber.org/zap"
)

// ErrUnknownFeature is returned when a start request names no loaded feature.
var ErrUnknownFeature = errors.New("unknown feature")

// StartParams opens a conversation.
type StartParams struct {
	Feature  string `json:"feature"`
	GuildID  string `json:"guild"`
	Operator string `json:"operator,omitempty"`
	Locale   string `json:"locale,omitempty"`
	Edit     bool   `json:"edit,omitempty"` // seed from the stored record
}

// Options configures a Service.
type Options struct {
	Features  map[string]*schema.Feature
	Caps      map[string]int
	Locale    string
	Store     store.Store
	Sessions  *session.Manager
	Previewer wizard.Previewer
	Observer  wizard.Observer
	Logger    *zap.Logger
}

// Service starts and resumes conversations on behalf of remote operators.
type Service struct {
	features  map[string]*schema.Feature
	caps      map[string]int
	locale    string
	store     store.Store
	sessions  *session.Manager
	previewer wizard.Previewer
	observer  wizard.Observer
	logger    *zap.Logger
}

// New validates every feature up front so a broken document fails at boot
// rather than mid-conversation.
func New(opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Store == nil {
		return nil, errors.New("service: store is required")
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewManager(session.DefaultTTL, logger)
	}
	for key, f := range opts.Features {
		if errs := schema.Validate(f, schema.CapsFor(f, opts.Caps)); schema.HasErrors(errs) {
			return nil, fmt.Errorf("feature %s: %w: %w", key, wizard.ErrSchema, schema.Errors(errs))
		}
	}
	return &Service{
		features:  opts.Features,
		caps:      opts.Caps,
		locale:    opts.Locale,
		store:     opts.Store,
		sessions:  sessions,
		previewer: opts.Previewer,
		observer:  opts.Observer,
		logger:    logger.Named("service"),
	}, nil
}

// Sessions returns the conversation manager.
func (s *Service) Sessions() *session.Manager { return s.sessions }

// Features returns the loaded feature keys in sorted order.
func (s *Service) Features() []string {
	keys := make([]string, 0, len(s.features))
	for k := range s.features {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Feature returns the feature document for key.
func (s *Service) Feature(key string) (*schema.Feature, bool) {
	f, ok := s.features[key]
	return f, ok
}

// Start opens a conversation and renders its first step.
func (s *Service) Start(ctx context.Context, p StartParams) (*session.View, error) {
	f, ok := s.features[p.Feature]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, p.Feature)
	}
	if p.GuildID == "" {
		return nil, errors.New("guild is required")
	}
	locale := p.Locale
	if locale == "" {
		locale = s.locale
	}
	cfg := wizard.Config{
		Feature:   f,
		GuildID:   p.GuildID,
		Operator:  p.Operator,
		Locale:    locale,
		Caps:      schema.CapsFor(f, s.caps),
		Renderer:  wizard.Funcs{},
		Persister: s.store,
		Previewer: s.previewer,
		Observer:  s.observer,
		Logger:    s.logger,
	}

	var (
		w   *wizard.Wizard
		err error
	)
	if p.Edit {
		w, err = wizard.Load(ctx, s.store, cfg)
	} else {
		w, err = wizard.New(cfg)
	}
	if err != nil {
		return nil, err
	}
	return s.sessions.Open(ctx, w, p.Operator)
}

// Callback resumes conversation id.
func (s *Service) Callback(ctx context.Context, id string, cb wizard.Callback) (*session.View, error) {
	return s.sessions.Handle(ctx, id, cb)
}

// Cancel abandons conversation id.
func (s *Service) Cancel(ctx context.Context, id string) (*session.View, error) {
	return s.sessions.Cancel(ctx, id)
}

// Get returns the current view of conversation id.
func (s *Service) Get(id string) (*session.View, error) {
	return s.sessions.Get(id)
}

// Show reads the stored configuration of a feature.
func (s *Service) Show(ctx context.Context, guildID, feature string) (wizard.Record, bool, error) {
	if _, ok := s.features[feature]; !ok {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}
	return s.store.Read(ctx, guildID, feature)
}

// Package session keeps the live wizard conversations of a process, keyed by
// conversation id. Callbacks for one conversation are serialised; idle
// conversations are abandoned after a TTL without ever being compiled.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
	"go.uber.org/zap"
)

// DefaultTTL is how long a conversation may wait for a callback.
const DefaultTTL = 15 * time.Minute

// ErrNotFound is returned for unknown or already discarded conversations.
var ErrNotFound = errors.New("conversation not found")

// View is a snapshot of a conversation after an operation.
type View struct {
	ID      string         `json:"id"`
	Feature string         `json:"feature"`
	GuildID string         `json:"guild"`
	Phase   string         `json:"phase"`
	Prompt  *wizard.Prompt `json:"prompt,omitempty"`
	Result  wizard.Record  `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`

	terminal bool
}

// Terminal reports whether the conversation has ended.
func (v *View) Terminal() bool { return v.terminal }

type conversation struct {
	mu       sync.Mutex
	id       string
	operator string
	w        *wizard.Wizard
	lastSeen time.Time
}

// Manager owns the conversations of one process.
type Manager struct {
	mu     sync.Mutex
	convs  map[string]*conversation
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewManager returns a manager abandoning conversations idle for ttl.
func NewManager(ttl time.Duration, logger *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		convs:  make(map[string]*conversation),
		ttl:    ttl,
		now:    time.Now,
		logger: logger.Named("session"),
	}
}

// TTL returns the idle timeout.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Open registers w under a new id and starts it.
func (m *Manager) Open(ctx context.Context, w *wizard.Wizard, operator string) (*View, error) {
	c := &conversation{
		id:       uuid.NewString(),
		operator: operator,
		w:        w,
		lastSeen: m.now(),
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m.mu.Lock()
	m.convs[c.id] = c
	m.mu.Unlock()

	m.logger.Info("conversation opened",
		zap.String("conversation", c.id),
		zap.String("feature", w.Feature()),
		zap.String("guild", w.GuildID()),
		zap.String("operator", operator))

	err := w.Start(ctx)
	v := m.view(c)
	if v.terminal {
		m.remove(c.id)
	}
	return v, err
}

// Handle delivers one callback. Conversations that end are discarded.
func (m *Manager) Handle(ctx context.Context, id string, cb wizard.Callback) (*View, error) {
	c, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastSeen = m.now()
	err = c.w.Handle(ctx, cb)
	v := m.view(c)
	if v.terminal {
		m.remove(id)
		m.logger.Info("conversation ended", zap.String("conversation", id), zap.String("phase", v.Phase))
	}
	if errors.Is(err, wizard.ErrFinished) {
		return v, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return v, err
}

// Cancel abandons a conversation immediately.
func (m *Manager) Cancel(ctx context.Context, id string) (*View, error) {
	return m.Handle(ctx, id, wizard.Callback{Action: wizard.ActionCancel})
}

// Get returns the current view of a conversation.
func (m *Manager) Get(id string) (*View, error) {
	c, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return m.view(c), nil
}

// Len returns the number of live conversations.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.convs)
}

// Sweep abandons every conversation idle since before now-TTL and returns
// how many were discarded.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	var all []*conversation
	for _, c := range m.convs {
		all = append(all, c)
	}
	m.mu.Unlock()

	n := 0
	for _, c := range all {
		c.mu.Lock()
		if c.w.Phase().Terminal() || now.Sub(c.lastSeen) < m.ttl {
			c.mu.Unlock()
			continue
		}
		if err := c.w.Abandon(ctx, wizard.ErrTimeout); err != nil && !errors.Is(err, wizard.ErrFinished) {
			m.logger.Warn("abandon on timeout failed", zap.String("conversation", c.id), zap.Error(err))
		}
		c.mu.Unlock()
		m.remove(c.id)
		m.logger.Info("conversation timed out",
			zap.String("conversation", c.id),
			zap.String("feature", c.w.Feature()),
			zap.Duration("idle", now.Sub(c.lastSeen)))
		n++
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx, m.now())
		}
	}
}

func (m *Manager) lookup(id string) (*conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c, nil
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.convs, id)
	m.mu.Unlock()
}

func (m *Manager) view(c *conversation) *View {
	phase := c.w.Phase()
	v := &View{
		ID:       c.id,
		Feature:  c.w.Feature(),
		GuildID:  c.w.GuildID(),
		Phase:    phase.String(),
		terminal: phase.Terminal(),
	}
	switch phase {
	case wizard.PhaseCompiled:
		v.Result = c.w.Result()
	case wizard.PhaseAbandoned:
		if err := c.w.Err(); err != nil {
			v.Error = err.Error()
		}
	default:
		v.Prompt = c.w.Prompt()
	}
	return v
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/export"
	"github.com/jeranaias/docchat-tui/internal/locale"
	"github.com/jeranaias/docchat-tui/internal/storage"
	"github.com/jeranaias/docchat-tui/internal/stream"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBlankInput is returned by Start for input that is empty after
	// trimming.
	ErrBlankInput = errors.New("input is blank")

	// ErrBusy is returned by Start while the conversation already has an
	// exchange in flight.
	ErrBusy = storage.ErrBusy

	// ErrShutdown is returned by Start after Shutdown.
	ErrShutdown = errors.New("exchange manager is shut down")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Transport opens a chat request. *api.Client implements it.
type Transport interface {
	Chat(ctx context.Context, req api.ChatRequest) (*api.Reply, error)
}

// Texts supplies the localized error texts. *locale.Localizer implements it.
type Texts interface {
	Text(key locale.Key, args ...any) string
}

// Config wires a Manager.
type Config struct {
	Store     *storage.ConversationStore
	Transport Transport
	Texts     Texts           // default: English
	Logger    *zap.Logger     // default: no-op
	Observer  Observer        // optional
	Exporter  export.Exporter // default: markdown
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager starts exchanges and tracks the live one per conversation.
type Manager struct {
	store     *storage.ConversationStore
	transport Transport
	texts     Texts
	logger    *zap.Logger
	observer  Observer
	exporter  export.Exporter

	mu     sync.Mutex
	active map[string]*Handle
	closed bool
	wg     sync.WaitGroup

	now func() time.Time
}

// NewManager creates a manager. Store and Transport are required.
func NewManager(cfg Config) *Manager {
	if cfg.Texts == nil {
		cfg.Texts = locale.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Exporter == nil {
		cfg.Exporter = export.NewMarkdownExporter()
	}
	return &Manager{
		store:     cfg.Store,
		transport: cfg.Transport,
		texts:     cfg.Texts,
		logger:    cfg.Logger,
		observer:  cfg.Observer,
		exporter:  cfg.Exporter,
		active:    make(map[string]*Handle),
		now:       time.Now,
	}
}

// SetTexts swaps the localized texts used for later error messages.
func (m *Manager) SetTexts(texts Texts) {
	m.mu.Lock()
	m.texts = texts
	m.mu.Unlock()
}

// Start sends input on conversation convID. It appends the user message and
// an empty assistant placeholder before returning, then streams the reply on
// a new goroutine. The returned handle lives until the exchange settles;
// cancelling ctx cancels the exchange.
func (m *Manager) Start(ctx context.Context, convID, input string) (*Handle, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrBlankInput
	}

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrShutdown
	}

	// The store notifies observers synchronously, so no manager lock is held
	// across this call.
	ticket, err := m.store.BeginExchange(convID, input)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	h := newHandle(ticket, input, cancel)

	m.mu.Lock()
	if m.closed {
		cancel()
	}
	m.active[convID] = h
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Debug("exchange started",
		zap.String("conversation_id", convID),
		zap.String("session_key", ticket.SessionKey))

	go m.run(ctx, h)
	return h, nil
}

// Active returns the live exchange of convID, if any.
func (m *Manager) Active(convID string) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.active[convID]
	return h, ok
}

// Cancel aborts the live exchange of convID. It reports whether there was
// one. It does not wait for the exchange to settle.
func (m *Manager) Cancel(convID string) bool {
	h, ok := m.Active(convID)
	if ok {
		h.Cancel()
	}
	return ok
}

// Reset cancels any live exchange of convID and empties the conversation,
// including its draft. Updates from the cancelled exchange that arrive
// afterwards are discarded.
func (m *Manager) Reset(convID string) error {
	m.Cancel(convID)
	return m.store.Clear(convID)
}

// Export renders the conversation as it is at the time of the call.
func (m *Manager) Export(convID string) (*export.Artifact, error) {
	conv, err := m.store.Get(convID)
	if err != nil {
		return nil, err
	}
	return m.exporter.Export(conv)
}

// Shutdown cancels every live exchange and waits for them to settle, or for
// ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	for _, h := range m.active {
		h.Cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================
// EXCHANGE LOOP
// =============================================================================

// run drives one exchange to its outcome and settles the store.
func (m *Manager) run(ctx context.Context, h *Handle) {
	defer m.wg.Done()
	defer h.Cancel()

	h.updateStats(func(s *Stats) { s.StartTime = m.now() })
	outcome := m.exchange(ctx, h)

	h.updateStats(func(s *Stats) { s.finalize(m.now()) })
	outcome.Stats = h.Stats()

	m.settleStore(h, outcome)

	m.mu.Lock()
	if m.active[h.ConversationID()] == h {
		delete(m.active, h.ConversationID())
	}
	m.mu.Unlock()

	h.settle(outcome)
	m.logOutcome(h, outcome)
	m.emit(h, outcome.State, &outcome)
}

// exchange performs the request and applies the stream.
func (m *Manager) exchange(ctx context.Context, h *Handle) Outcome {
	m.transition(h, StateSending)

	reply, err := m.transport.Chat(ctx, api.ChatRequest{
		Message:        h.input,
		ConversationID: h.ticket.SessionKey,
	})
	if err != nil {
		return m.failure(ctx, err)
	}
	defer reply.Close()

	m.transition(h, StateStreaming)

	if !reply.Streaming {
		events, err := stream.DecodeReply(reply.Body)
		if err != nil && !errors.Is(err, stream.ErrInvalidReply) {
			// The body could not be read: the connection dropped.
			return m.failure(ctx, err)
		}
		if err != nil {
			return m.failure(ctx, &api.ClientError{
				Type:    api.ErrTypeInvalidResponse,
				Message: "failed to decode reply",
				Cause:   err,
			})
		}
		for _, ev := range events {
			if done, outcome := m.apply(h, ev); done {
				return outcome
			}
		}
		return Outcome{State: StateCompleted}
	}

	reader := stream.NewReader(reply.Body)
	for {
		ev, err := reader.Next(ctx)
		if err == io.EOF {
			return Outcome{State: StateCompleted}
		}
		if err != nil {
			return m.failure(ctx, err)
		}
		if done, outcome := m.apply(h, ev); done {
			return outcome
		}
	}
}

// apply writes one event to the conversation. done is true when the
// exchange ends with outcome.
func (m *Manager) apply(h *Handle, ev stream.Event) (done bool, outcome Outcome) {
	var err error
	switch ev.Kind {
	case stream.KindContent:
		err = m.store.AppendContent(h.ticket, ev.Text)
		if err == nil {
			h.updateStats(func(s *Stats) { s.recordContent(len(ev.Text), m.now()) })
		}
	case stream.KindSources:
		err = m.store.SetSources(h.ticket, ev.Sources)
	case stream.KindMalformed:
		h.updateStats(func(s *Stats) { s.Malformed++ })
		m.logger.Warn("skipping malformed stream line",
			zap.String("conversation_id", h.ConversationID()),
			zap.String("raw", ev.Raw))
	case stream.KindDone:
		return true, Outcome{State: StateCompleted}
	}

	if errors.Is(err, storage.ErrStaleTicket) {
		// The conversation was deleted or cleared underneath us.
		h.Cancel()
		return true, Outcome{State: StateCancelled}
	}
	return false, Outcome{}
}

// failure classifies an error. An exchange whose own context has ended is
// cancelled, never errored.
func (m *Manager) failure(ctx context.Context, err error) Outcome {
	if ctx.Err() != nil {
		return Outcome{State: StateCancelled}
	}

	m.mu.Lock()
	texts := m.texts
	m.mu.Unlock()

	key := locale.NetworkError
	switch api.ErrorTypeOf(err) {
	case api.ErrTypeRateLimited:
		key = locale.RateLimitError
	case api.ErrTypeRejected, api.ErrTypeInvalidResponse:
		key = locale.ServerError
	}
	return Outcome{State: StateErrored, Err: err, Text: texts.Text(key)}
}

// settleStore applies the terminal update through the ticket.
func (m *Manager) settleStore(h *Handle, o Outcome) {
	var err error
	switch o.State {
	case StateCompleted:
		err = m.store.CompleteExchange(h.ticket)
	case StateCancelled:
		err = m.store.CancelExchange(h.ticket)
	case StateErrored:
		err = m.store.FailExchange(h.ticket, o.Text)
	}
	if err != nil {
		m.logger.Debug("exchange settled on a stale ticket",
			zap.String("conversation_id", h.ConversationID()),
			zap.Error(err))
	}
}

// transition moves a handle to a non-terminal state.
func (m *Manager) transition(h *Handle, s State) {
	h.setState(s)
	m.logger.Debug("exchange transition",
		zap.String("conversation_id", h.ConversationID()),
		zap.Stringer("state", s))
	m.emit(h, s, nil)
}

func (m *Manager) emit(h *Handle, s State, o *Outcome) {
	if m.observer == nil {
		return
	}
	m.observer(Event{ConversationID: h.ConversationID(), State: s, Outcome: o})
}

func (m *Manager) logOutcome(h *Handle, o Outcome) {
	fields := []zap.Field{
		zap.String("conversation_id", h.ConversationID()),
		zap.Stringer("state", o.State),
		zap.Int("fragments", o.Stats.Fragments),
		zap.Int("malformed", o.Stats.Malformed),
		zap.Duration("duration", o.Stats.Duration),
		zap.Duration("ttfc", o.Stats.TTFC),
	}
	if o.Err != nil {
		fields = append(fields, zap.Error(o.Err))
	}
	m.logger.Info("exchange finished", fields...)
}

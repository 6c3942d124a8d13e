// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/docchat-tui/internal/exchange"
	"github.com/jeranaias/docchat-tui/internal/export"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrFreshExists is returned by New when an empty conversation already
	// exists. That conversation is selected instead.
	ErrFreshExists = errors.New("an empty conversation already exists")

	// ErrLastConversation is returned by Delete for the only conversation.
	ErrLastConversation = errors.New("cannot delete the last conversation")

	// ErrDeleteDeclined is returned by Delete when the Confirmer says no.
	ErrDeleteDeclined = errors.New("deletion not confirmed")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Exchanges runs exchanges. *exchange.Manager implements it.
type Exchanges interface {
	Start(ctx context.Context, convID, input string) (*exchange.Handle, error)
	Cancel(convID string) bool
	Reset(convID string) error
	Export(convID string) (*export.Artifact, error)
}

// Confirmer gates irreversible deletion.
type Confirmer interface {
	ConfirmDelete(conv model.Conversation) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(conv model.Conversation) bool

// ConfirmDelete calls f.
func (f ConfirmFunc) ConfirmDelete(conv model.Conversation) bool {
	return f(conv)
}

// Policies toggles presentation behavior.
type Policies struct {
	// SingleFreshConversation makes New select an existing empty
	// conversation rather than create a second one.
	SingleFreshConversation bool

	// KeepLastConversation refuses to delete the only conversation.
	KeepLastConversation bool
}

// DefaultPolicies returns the policies in effect unless configured.
func DefaultPolicies() Policies {
	return Policies{
		SingleFreshConversation: true,
		KeepLastConversation:    true,
	}
}

// Config wires a Controller.
type Config struct {
	Store     *storage.ConversationStore
	Exchanges Exchanges
	Policies  *Policies       // default: DefaultPolicies
	Confirmer Confirmer       // default: always confirm
	Export    *export.Options // default: export.DefaultOptions
	Logger    *zap.Logger     // default: no-op
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller applies user intents. All intents address a conversation by
// id; none of them implicitly target "whatever is active".
type Controller struct {
	store     *storage.ConversationStore
	exchanges Exchanges
	policies  Policies
	confirmer Confirmer
	export    export.Options
	logger    *zap.Logger
}

// NewController creates a controller. Store and Exchanges are required.
func NewController(cfg Config) *Controller {
	policies := DefaultPolicies()
	if cfg.Policies != nil {
		policies = *cfg.Policies
	}
	opts := export.DefaultOptions()
	if cfg.Export != nil {
		opts = cfg.Export
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Controller{
		store:     cfg.Store,
		exchanges: cfg.Exchanges,
		policies:  policies,
		confirmer: cfg.Confirmer,
		export:    *opts,
		logger:    cfg.Logger,
	}
}

// Policies returns the policies in effect.
func (c *Controller) Policies() Policies {
	return c.policies
}

// EnsureOne creates the first conversation if there is none and makes sure
// one is active. It returns the active id.
func (c *Controller) EnsureOne() string {
	if c.store.Len() == 0 {
		return c.store.Create()
	}
	if id := c.store.ActiveID(); id != "" {
		return id
	}
	list := c.store.ListSorted()
	_ = c.store.Select(list[0].ID)
	return list[0].ID
}

// New creates and selects a conversation. Under SingleFreshConversation an
// existing empty conversation is selected instead and ErrFreshExists is
// returned alongside its id.
func (c *Controller) New() (string, error) {
	if c.policies.SingleFreshConversation {
		if fresh, ok := c.freshConversation(); ok {
			if err := c.store.Select(fresh.ID); err != nil {
				return "", err
			}
			return fresh.ID, ErrFreshExists
		}
	}
	id := c.store.Create()
	c.logger.Debug("conversation created", zap.String("conversation_id", id))
	return id, nil
}

// CanCreate reports whether New would create a conversation.
func (c *Controller) CanCreate() bool {
	if !c.policies.SingleFreshConversation {
		return true
	}
	_, ok := c.freshConversation()
	return !ok
}

// freshConversation finds an empty conversation with nothing in flight.
func (c *Controller) freshConversation() (model.Conversation, bool) {
	for _, conv := range c.store.ListSorted() {
		if conv.IsFresh() && !conv.Busy {
			return conv, true
		}
	}
	return model.Conversation{}, false
}

// Select makes id the active conversation.
func (c *Controller) Select(id string) error {
	return c.store.Select(id)
}

// Rename renames id. Blank names are ignored.
func (c *Controller) Rename(id, name string) (bool, error) {
	return c.store.Rename(id, name)
}

// TogglePin flips the pin of id and returns the new value.
func (c *Controller) TogglePin(id string) (bool, error) {
	return c.store.TogglePin(id)
}

// CanDelete reports whether Delete is offered for id.
func (c *Controller) CanDelete(id string) bool {
	if _, err := c.store.Get(id); err != nil {
		return false
	}
	return !c.policies.KeepLastConversation || c.store.Len() > 1
}

// Delete removes id after confirmation. Any exchange in flight on it is
// cancelled first.
func (c *Controller) Delete(id string) error {
	conv, err := c.store.Get(id)
	if err != nil {
		return err
	}
	if c.policies.KeepLastConversation && c.store.Len() <= 1 {
		return ErrLastConversation
	}
	if c.confirmer != nil && !c.confirmer.ConfirmDelete(conv) {
		return ErrDeleteDeclined
	}

	c.exchanges.Cancel(id)
	if err := c.store.Delete(id); err != nil {
		return err
	}
	c.logger.Info("conversation deleted",
		zap.String("conversation_id", id),
		zap.Int("messages", conv.MessageCount()))
	return nil
}

// Send starts an exchange on id.
func (c *Controller) Send(ctx context.Context, id, input string) (*exchange.Handle, error) {
	return c.exchanges.Start(ctx, id, input)
}

// Cancel aborts the exchange in flight on id, if any.
func (c *Controller) Cancel(id string) bool {
	return c.exchanges.Cancel(id)
}

// Reset cancels any exchange on id and empties the conversation.
func (c *Controller) Reset(id string) error {
	return c.exchanges.Reset(id)
}

// Export renders id and writes it to the export directory. It returns the
// written path.
func (c *Controller) Export(id string) (string, error) {
	artifact, err := c.exchanges.Export(id)
	if err != nil {
		return "", err
	}
	opts := c.export
	path, err := export.WriteArtifact(artifact, &opts)
	if err != nil {
		return path, fmt.Errorf("export %s: %w", id, err)
	}
	c.logger.Info("conversation exported",
		zap.String("conversation_id", id),
		zap.String("path", path))
	return path, nil
}

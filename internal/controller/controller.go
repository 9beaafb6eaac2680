// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller sequences persistence, rendering and dispatch for each
// user action.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/relaychat/internal/dispatch"
	"github.com/jeranaias/relaychat/internal/model"
	"github.com/jeranaias/relaychat/internal/ui/components"
)

// DefaultErrorText is shown and stored in place of a reply when dispatch fails.
const DefaultErrorText = "Error fetching response. Check the log."

// ErrBusy is returned when an action arrives while another is in progress
// under PolicyReject.
var ErrBusy = errors.New("another request is still in progress")

// =============================================================================
// COLLABORATORS
// =============================================================================

// View receives bubbles in display order.
type View interface {
	Append(b components.Bubble)
	Reset()
}

// Store is the part of the local store the controller writes to.
type Store interface {
	AppendMessage(ctx context.Context, role model.Role, content string) (model.Message, error)
	ListMessages(ctx context.Context) ([]model.Message, error)
	Clear(ctx context.Context) error
}

// Dispatcher sends one user message to the remote endpoint.
type Dispatcher interface {
	Dispatch(ctx context.Context, mode model.Mode, msg model.Message) (*dispatch.Result, error)
}

// =============================================================================
// RE-ENTRANCY POLICY
// =============================================================================

// Policy decides what happens to an action that arrives while a submission
// is in flight.
type Policy int

const (
	// PolicyReject refuses overlapping actions with ErrBusy.
	PolicyReject Policy = iota
	// PolicyAllow lets actions overlap. Each still follows its own sequence.
	PolicyAllow
)

// String returns the config name of the policy.
func (p Policy) String() string {
	if p == PolicyAllow {
		return "allow"
	}
	return "reject"
}

// ParsePolicy parses "reject" or "allow".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return PolicyReject, nil
	case "allow":
		return PolicyAllow, nil
	default:
		return PolicyReject, fmt.Errorf("unknown reentrancy policy %q, must be reject or allow", s)
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Outcome describes what one Submit call did.
type Outcome struct {
	// Skipped is set when the input was empty after trimming.
	Skipped bool
	User    model.Message
	Reply   model.Message
	// Failed is set when Reply holds the error text instead of a reply.
	Failed bool
	Result *dispatch.Result
}

// Controller wires user actions to the store, the dispatcher and the view.
type Controller struct {
	store      Store
	dispatcher Dispatcher
	view       View
	policy     Policy
	errorText  string
	logger     *zap.Logger

	mu   sync.RWMutex
	mode model.Mode

	busy atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPolicy sets the re-entrancy policy.
func WithPolicy(p Policy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithErrorText sets the text used for failed exchanges.
func WithErrorText(text string) Option {
	return func(c *Controller) {
		if text != "" {
			c.errorText = text
		}
	}
}

// WithMode sets the initial dispatch mode.
func WithMode(mode model.Mode) Option {
	return func(c *Controller) { c.mode = mode }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a controller.
func New(store Store, dispatcher Dispatcher, view View, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		dispatcher: dispatcher,
		view:       view,
		policy:     PolicyReject,
		errorText:  DefaultErrorText,
		logger:     zap.NewNop(),
		mode:       model.ModeStateful,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the current dispatch mode.
func (c *Controller) Mode() model.Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// SetMode changes the dispatch mode for later submissions.
func (c *Controller) SetMode(mode model.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
}

// Policy returns the re-entrancy policy.
func (c *Controller) Policy() Policy {
	return c.policy
}

// Busy reports whether a submission or new chat is in progress.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// acquire marks the controller busy. Under PolicyAllow it never fails.
func (c *Controller) acquire() (release func(), err error) {
	if c.policy == PolicyAllow {
		c.busy.Store(true)
		return func() { c.busy.Store(false) }, nil
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { c.busy.Store(false) }, nil
}

// Load replays the stored conversation into a cleared view.
func (c *Controller) Load(ctx context.Context) error {
	msgs, err := c.store.ListMessages(ctx)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	c.view.Reset()
	for _, msg := range msgs {
		c.view.Append(components.FromMessage(msg))
	}
	c.logger.Debug("conversation loaded", zap.Int("messages", len(msgs)))
	return nil
}

// Submit runs one exchange: store and show the user message, dispatch it,
// then store and show the reply. A failed dispatch stores and shows the
// error text as the assistant turn instead.
//
// Input is NFC-normalized and trimmed; empty input does nothing. Storage
// failures are returned to the caller.
func (c *Controller) Submit(ctx context.Context, text string) (Outcome, error) {
	text = Normalize(text)
	if text == "" {
		return Outcome{Skipped: true}, nil
	}

	release, err := c.acquire()
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	mode := c.Mode()
	log := c.logger.With(zap.String("mode", mode.String()))

	user, err := c.store.AppendMessage(ctx, model.RoleUser, text)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to store message: %w", err)
	}
	c.view.Append(components.FromMessage(user))
	out := Outcome{User: user}

	replyText := ""
	res, err := c.dispatcher.Dispatch(ctx, mode, user)
	if err != nil {
		log.Error("dispatch failed", zap.Int64("message_id", user.ID), zap.Error(err))
		replyText = c.errorText
		out.Failed = true
	} else {
		replyText = res.Reply
		out.Result = res
	}

	reply, err := c.store.AppendMessage(ctx, model.RoleAssistant, replyText)
	if err != nil {
		return out, fmt.Errorf("failed to store reply: %w", err)
	}
	c.view.Append(components.FromMessage(reply))
	out.Reply = reply

	log.Info("exchange complete",
		zap.Int64("message_id", user.ID),
		zap.Bool("failed", out.Failed))
	return out, nil
}

// NewChat clears every stored message and the thread id, then empties the
// view. The view is left untouched if the store cannot be cleared.
func (c *Controller) NewChat(ctx context.Context) error {
	release, err := c.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	c.view.Reset()
	c.logger.Info("conversation cleared")
	return nil
}

// Normalize returns text in NFC form with surrounding whitespace removed.
func Normalize(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}

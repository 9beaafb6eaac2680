// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/relaychat/internal/model"
	"github.com/jeranaias/relaychat/internal/storage"
)

// Store is the part of the local store the dispatcher reads and writes.
type Store interface {
	ListMessages(ctx context.Context) ([]model.Message, error)
	GetMetadata(ctx context.Context, key string) (string, error)
	SetMetadataIfAbsent(ctx context.Context, key, value string) (string, bool, error)
}

// Dispatcher turns a user message into one request/response exchange.
type Dispatcher struct {
	client       *Client
	store        Store
	systemPrompt string
	logger       *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSystemPrompt sets the stateless-mode preamble.
func WithSystemPrompt(prompt string) Option {
	return func(d *Dispatcher) {
		if prompt != "" {
			d.systemPrompt = prompt
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a dispatcher over client and store.
func New(client *Client, store Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:       client,
		store:        store,
		systemPrompt: DefaultSystemPrompt,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Client returns the underlying HTTP client.
func (d *Dispatcher) Client() *Client {
	return d.client
}

// Dispatch sends msg in the given mode and returns the reply.
//
// In stateless mode the payload is the system preamble, the stored history
// and msg. If msg is already persisted (its id appears in the history) it
// is sent once, in its stored position.
func (d *Dispatcher) Dispatch(ctx context.Context, mode model.Mode, msg model.Message) (*Result, error) {
	switch mode {
	case model.ModeStateful:
		return d.dispatchStateful(ctx, msg)
	case model.ModeStateless:
		return d.dispatchStateless(ctx, msg)
	default:
		return nil, fmt.Errorf("dispatch: unknown mode %q", mode)
	}
}

// dispatchStateful posts {message, thread_id?} to the assistant endpoint.
func (d *Dispatcher) dispatchStateful(ctx context.Context, msg model.Message) (*Result, error) {
	threadID, err := d.store.GetMetadata(ctx, model.ThreadIDKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to read thread id: %w", err)
	}

	req := AssistantRequest{Message: msg.Content, ThreadID: threadID}
	var resp AssistantResponse
	requestID, err := d.client.PostJSON(ctx, AssistantPath, req, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Reply == nil {
		return nil, &RequestError{Path: AssistantPath, Status: 200, Err: errors.New("response missing reply")}
	}

	res := &Result{
		Mode:      model.ModeStateful,
		Reply:     *resp.Reply,
		ThreadID:  threadID,
		RequestID: requestID,
	}

	if resp.ThreadID != "" {
		stored, set, err := d.store.SetMetadataIfAbsent(ctx, model.ThreadIDKey, resp.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("failed to store thread id: %w", err)
		}
		res.ThreadID = stored
		res.ThreadStored = set
		if set {
			d.logger.Info("thread id stored", zap.String("request_id", requestID))
		} else if stored != resp.ThreadID {
			d.logger.Debug("ignoring new thread id, one is already stored", zap.String("request_id", requestID))
		}
	}
	return res, nil
}

// dispatchStateless posts the full history to the chat endpoint.
func (d *Dispatcher) dispatchStateless(ctx context.Context, msg model.Message) (*Result, error) {
	history, err := d.store.ListMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	req := ChatRequest{Messages: BuildHistory(d.systemPrompt, history, msg)}
	var resp ChatResponse
	requestID, err := d.client.PostJSON(ctx, ChatPath, req, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Reply == nil {
		return nil, &RequestError{Path: ChatPath, Status: 200, Err: errors.New("response missing reply")}
	}

	return &Result{
		Mode:      model.ModeStateless,
		Reply:     *resp.Reply,
		RequestID: requestID,
	}, nil
}

// BuildHistory returns the stateless payload: preamble, history, then msg
// unless msg is already part of history.
func BuildHistory(systemPrompt string, history []model.Message, msg model.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(history)+2)
	out = append(out, NewSystemMessage(systemPrompt))

	included := false
	for _, h := range history {
		if msg.IsPersisted() && h.ID == msg.ID {
			included = true
		}
		out = append(out, FromModel(h))
	}
	if !included {
		out = append(out, ChatMessage{Role: string(model.RoleUser), Content: msg.Content})
	}
	return out
}

// Package completion talks to text-completion backends. Backends are
// stateless; conversation history lives in an explicit Conversation that
// callers pass along with each prompt.
package completion

import (
	"context"
	"errors"
	"sync"
)

// ErrEmptyResponse is returned when a backend produced no text.
var ErrEmptyResponse = errors.New("completion: empty response")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// Request is everything a backend needs for one completion.
type Request struct {
	System  string
	History []Message
	Prompt  string
}

// Completer produces a single text response for a request.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Conversation is an append-only log of turns plus a system prompt.
// It is safe for concurrent use.
type Conversation struct {
	mu       sync.Mutex
	system   string
	messages []Message
}

// NewConversation starts an empty conversation.
func NewConversation(system string) *Conversation {
	return &Conversation{system: system}
}

func (c *Conversation) System() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.system
}

func (c *Conversation) SetSystem(system string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.system = system
}

// Append adds a turn to the end of the log.
func (c *Conversation) Append(role Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Reset drops every turn. The system prompt is kept.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Ask sends prompt with the current history to comp. On success the prompt
// and the reply are appended; on failure the log is left unchanged.
func (c *Conversation) Ask(ctx context.Context, comp Completer, prompt string) (string, error) {
	req := Request{System: c.System(), History: c.Messages(), Prompt: prompt}
	reply, err := comp.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.messages = append(c.messages,
		Message{Role: RoleUser, Content: prompt},
		Message{Role: RoleAssistant, Content: reply})
	c.mu.Unlock()
	return reply, nil
}

// PermanentError marks a failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so that retry middleware gives up immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

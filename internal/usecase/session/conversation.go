package session

import (
	"context"
	"sync"

	"github.com/johnquangdev/transcript-studio/internal/domain/services"
)

// Conversation wraps the chat collaborator for one session. It remembers the transcript
// the live chat session was opened with and opens a new one when the context changes.
// A failed send discards the chat session; the user resends the message.
//
// The lock is never held across provider calls, so Reset returns immediately.
type Conversation struct {
	provider services.ChatProvider

	mu      sync.Mutex
	chat    services.ChatSession
	context string
	epoch   uint64
}

// NewConversation creates a conversation over provider
func NewConversation(provider services.ChatProvider) *Conversation {
	return &Conversation{provider: provider}
}

// Send delivers message in the context of transcript
func (c *Conversation) Send(ctx context.Context, transcript, message string) (string, error) {
	chat, epoch, err := c.sessionFor(ctx, transcript)
	if err != nil {
		return "", err
	}

	reply, err := chat.Send(ctx, message)
	if err != nil {
		c.mu.Lock()
		if c.epoch == epoch {
			c.dropLocked()
		}
		c.mu.Unlock()
		return "", err
	}
	return reply, nil
}

// sessionFor returns the live chat session for transcript, opening one when needed
func (c *Conversation) sessionFor(ctx context.Context, transcript string) (services.ChatSession, uint64, error) {
	c.mu.Lock()
	if c.chat != nil && c.context == transcript {
		chat, epoch := c.chat, c.epoch
		c.mu.Unlock()
		return chat, epoch, nil
	}
	c.dropLocked()
	epoch := c.epoch
	c.mu.Unlock()

	chat, err := c.provider.StartChat(ctx, transcript)
	if err != nil {
		return nil, 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch == epoch {
		c.chat = chat
		c.context = transcript
	}
	return chat, epoch, nil
}

// Reset drops the live chat session
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
}

// Active reports whether a chat session is open
func (c *Conversation) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chat != nil
}

func (c *Conversation) dropLocked() {
	c.chat = nil
	c.context = ""
	c.epoch++
}

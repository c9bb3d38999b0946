package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/transcript-studio/internal/domain/services"
)

type recordingChat struct {
	context string
	fail    bool
	sent    []string
}

func (c *recordingChat) Send(_ context.Context, message string) (string, error) {
	if c.fail {
		return "", errors.New("stream reset")
	}
	c.sent = append(c.sent, message)
	return c.context + "|" + message, nil
}

type recordingProvider struct {
	mu       sync.Mutex
	started  []string
	failNext bool
}

func (p *recordingProvider) StartChat(_ context.Context, transcript string) (services.ChatSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, transcript)
	chat := &recordingChat{context: transcript, fail: p.failNext}
	p.failNext = false
	return chat, nil
}

func TestConversation_ReusesSessionForSameContext(t *testing.T) {
	p := &recordingProvider{}
	c := NewConversation(p)
	ctx := context.Background()

	reply, err := c.Send(ctx, "ctx-1", "a")
	require.NoError(t, err)
	assert.Equal(t, "ctx-1|a", reply)

	_, err = c.Send(ctx, "ctx-1", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"ctx-1"}, p.started)
	assert.True(t, c.Active())
}

func TestConversation_NewContextStartsNewSession(t *testing.T) {
	p := &recordingProvider{}
	c := NewConversation(p)
	ctx := context.Background()

	_, err := c.Send(ctx, "ctx-1", "a")
	require.NoError(t, err)
	reply, err := c.Send(ctx, "ctx-2", "b")
	require.NoError(t, err)

	assert.Equal(t, "ctx-2|b", reply)
	assert.Equal(t, []string{"ctx-1", "ctx-2"}, p.started)
}

func TestConversation_FailureDropsSession(t *testing.T) {
	p := &recordingProvider{failNext: true}
	c := NewConversation(p)
	ctx := context.Background()

	_, err := c.Send(ctx, "ctx-1", "a")
	require.Error(t, err)
	assert.False(t, c.Active())

	_, err = c.Send(ctx, "ctx-1", "a")
	require.NoError(t, err)
	assert.Len(t, p.started, 2)
}

func TestConversation_Reset(t *testing.T) {
	p := &recordingProvider{}
	c := NewConversation(p)

	_, err := c.Send(context.Background(), "ctx-1", "a")
	require.NoError(t, err)
	c.Reset()
	assert.False(t, c.Active())

	_, err = c.Send(context.Background(), "ctx-1", "b")
	require.NoError(t, err)
	assert.Len(t, p.started, 2)
}

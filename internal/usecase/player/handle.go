package player

import (
	"context"
	"sync"

	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
)

// MediaStore publishes uploaded media under a key and hands back a playable URL
type MediaStore interface {
	Publish(ctx context.Context, key string, file *entities.MediaFile) (string, error)
	Remove(ctx context.Context, key string) error
}

// CommandAction is a transport instruction for the client-side waveform
type CommandAction string

const (
	CommandPlay   CommandAction = "play"
	CommandPause  CommandAction = "pause"
	CommandSeek   CommandAction = "seek"
	CommandVolume CommandAction = "volume"
)

// Command is the latest instruction queued on a handle. Seq increases with every command
// so the client can tell a repeated instruction from one it already executed.
type Command struct {
	Seq      uint64        `json:"seq"`
	Action   CommandAction `json:"action"`
	Position float64       `json:"position,omitempty"`
	Volume   float64       `json:"volume,omitempty"`
	AndPlay  bool          `json:"and_play,omitempty"`
}

// Handle is the playback resource bound to one media file
type Handle struct {
	key      string
	url      string
	mimeType string
	store    MediaStore

	mu      sync.Mutex
	seq     uint64
	last    *Command
	release sync.Once
	err     error
}

func newHandle(key, url, mimeType string, store MediaStore) *Handle {
	return &Handle{key: key, url: url, mimeType: mimeType, store: store}
}

// Key identifies the media resource
func (h *Handle) Key() string { return h.key }

// URL is the playable resource address
func (h *Handle) URL() string { return h.url }

// MIMEType of the bound media
func (h *Handle) MIMEType() string { return h.mimeType }

// Play queues a play command
func (h *Handle) Play() {
	h.push(Command{Action: CommandPlay})
}

// Pause queues a pause command
func (h *Handle) Pause() {
	h.push(Command{Action: CommandPause})
}

// Seek queues a cursor move; andPlay also starts playback
func (h *Handle) Seek(position float64, andPlay bool) {
	h.push(Command{Action: CommandSeek, Position: position, AndPlay: andPlay})
}

// SetVolume queues a volume change
func (h *Handle) SetVolume(v float64) {
	h.push(Command{Action: CommandVolume, Volume: v})
}

// LastCommand returns a copy of the most recent command, if any
func (h *Handle) LastCommand() *Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return nil
	}
	c := *h.last
	return &c
}

// Release frees the underlying media resource. Only the first call reaches the store.
func (h *Handle) Release(ctx context.Context) error {
	h.release.Do(func() {
		if h.store != nil {
			h.err = h.store.Remove(ctx, h.key)
		}
	})
	return h.err
}

func (h *Handle) push(c Command) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	c.Seq = h.seq
	h.last = &c
}

package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
)

// EventType is a playback event reported by the client-side media element
type EventType string

const (
	EventReady      EventType = "ready"
	EventPlay       EventType = "play"
	EventPause      EventType = "pause"
	EventFinish     EventType = "finish"
	EventTimeUpdate EventType = "timeupdate"
)

// IsValid checks the event type
func (e EventType) IsValid() bool {
	switch e {
	case EventReady, EventPlay, EventPause, EventFinish, EventTimeUpdate:
		return true
	}
	return false
}

// Event is what the client reports about actual playback
type Event struct {
	Type     EventType
	MediaKey string // optional; events for another media key are ignored
	Duration float64
	Position float64
}

// State is a read-only view of the player
type State struct {
	Bound     bool     `json:"bound"`
	MediaKey  string   `json:"media_key,omitempty"`
	URL       string   `json:"url,omitempty"`
	MIMEType  string   `json:"mime_type,omitempty"`
	IsPlaying bool     `json:"is_playing"`
	Volume    float64  `json:"volume"`
	Muted     bool     `json:"muted"`
	Duration  float64  `json:"duration"`
	Position  float64  `json:"position"`
	Command   *Command `json:"command,omitempty"`
}

// Manager owns the single playback handle of a session. Other components ask it to
// play or pause and never touch the handle directly.
type Manager struct {
	store  MediaStore
	logger *zap.Logger

	mu         sync.Mutex
	handle     *Handle
	isPlaying  bool
	volume     float64
	prevVolume float64
	muted      bool
	duration   float64
	position   float64
}

// NewManager creates a player manager publishing media through store
func NewManager(store MediaStore, logger *zap.Logger) *Manager {
	return &Manager{
		store:      store,
		logger:     logger,
		volume:     1,
		prevVolume: 1,
	}
}

// Bind releases the current handle and, when file is non-nil, publishes it and binds a new one
func (m *Manager) Bind(ctx context.Context, file *entities.MediaFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unbindLocked(ctx)
	if file == nil {
		return nil
	}

	key := uuid.NewString()
	url, err := m.store.Publish(ctx, key, file)
	if err != nil {
		return fmt.Errorf("publish media: %w", err)
	}
	m.handle = newHandle(key, url, file.MIMEType, m.store)
	if m.volume != 1 {
		m.handle.SetVolume(m.volume)
	}

	if m.logger != nil {
		m.logger.Debug("player.bind", zap.String("media_key", key), zap.String("mime_type", file.MIMEType))
	}
	return nil
}

// Close pauses playback and releases the handle
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unbindLocked(ctx)
}

// Play asks the handle to start playback; no-op without a handle
func (m *Manager) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle != nil {
		m.handle.Play()
	}
}

// Pause asks the handle to stop playback; no-op without a handle
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle != nil {
		m.handle.Pause()
	}
}

// Seek moves the cursor to fraction of the duration and starts playback when paused
func (m *Manager) Seek(fraction float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return
	}
	fraction = clamp01(fraction)
	m.position = fraction * m.duration
	m.handle.Seek(fraction, !m.isPlaying)
}

// SetVolume sets the volume in [0,1]; a positive volume clears mute
func (m *Manager) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clamp01(v)
	if m.volume > 0 {
		m.muted = false
	}
	if m.handle != nil {
		m.handle.SetVolume(m.volume)
	}
}

// ToggleMute silences playback and restores the previous volume on the next call
func (m *Manager) ToggleMute() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.muted {
		m.volume = m.prevVolume
		if m.volume == 0 {
			m.volume = 1
		}
		m.muted = false
	} else {
		m.prevVolume = m.volume
		m.volume = 0
		m.muted = true
	}
	if m.handle != nil {
		m.handle.SetVolume(m.volume)
	}
}

// ReportEvent applies an event observed on the real media element.
// It returns false when the event was ignored.
func (m *Manager) ReportEvent(e Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return false
	}
	if e.MediaKey != "" && e.MediaKey != m.handle.Key() {
		return false
	}

	switch e.Type {
	case EventPlay:
		m.isPlaying = true
	case EventPause:
		m.isPlaying = false
	case EventFinish:
		m.isPlaying = false
		m.position = m.duration
	case EventReady:
		if e.Duration >= 0 {
			m.duration = e.Duration
		}
	case EventTimeUpdate:
		if e.Position >= 0 {
			m.position = e.Position
		}
	default:
		return false
	}
	return true
}

// IsPlaying reflects the last play/pause/finish event
func (m *Manager) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isPlaying
}

// State returns a snapshot of the player
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := State{
		IsPlaying: m.isPlaying,
		Volume:    m.volume,
		Muted:     m.muted,
		Duration:  m.duration,
		Position:  m.position,
	}
	if m.handle != nil {
		st.Bound = true
		st.MediaKey = m.handle.Key()
		st.URL = m.handle.URL()
		st.MIMEType = m.handle.MIMEType()
		st.Command = m.handle.LastCommand()
	}
	return st
}

func (m *Manager) unbindLocked(ctx context.Context) {
	if m.handle == nil {
		m.isPlaying = false
		return
	}
	old := m.handle
	m.handle = nil
	old.Pause()
	if err := old.Release(ctx); err != nil && m.logger != nil {
		m.logger.Warn("player.release_failed", zap.String("media_key", old.Key()), zap.Error(err))
	}
	m.isPlaying = false
	m.duration = 0
	m.position = 0
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

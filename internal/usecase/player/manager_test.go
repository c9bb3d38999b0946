package player

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
)

type fakeStore struct {
	mu        sync.Mutex
	published []string
	removed   map[string]int
	failPut   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{removed: map[string]int{}}
}

func (f *fakeStore) Publish(_ context.Context, key string, _ *entities.MediaFile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return "", errors.New("disk full")
	}
	f.published = append(f.published, key)
	return "https://media.test/" + key, nil
}

func (f *fakeStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed[key]++
	return nil
}

func audio() *entities.MediaFile {
	return entities.NewMediaFile("a.mp3", "audio/mpeg", []byte("ID3 data"))
}

func TestManager_NoHandleIsNoop(t *testing.T) {
	m := NewManager(newFakeStore(), nil)
	m.Play()
	m.Pause()
	m.Seek(0.5)
	assert.False(t, m.ReportEvent(Event{Type: EventPlay}))
	assert.False(t, m.IsPlaying())
	assert.False(t, m.State().Bound)
}

func TestManager_RebindReleasesPreviousOnce(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil)
	ctx := context.Background()

	require.NoError(t, m.Bind(ctx, audio()))
	first := m.State().MediaKey
	require.NotEmpty(t, first)

	require.NoError(t, m.Bind(ctx, audio()))
	second := m.State().MediaKey
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, store.removed[first])

	m.Close(ctx)
	m.Close(ctx)
	assert.Equal(t, 1, store.removed[second])
	assert.Equal(t, 1, store.removed[first])
	assert.False(t, m.State().Bound)
}

func TestManager_BindNilOnlyReleases(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil)
	require.NoError(t, m.Bind(context.Background(), audio()))
	key := m.State().MediaKey

	require.NoError(t, m.Bind(context.Background(), nil))
	assert.Equal(t, 1, store.removed[key])
	assert.Len(t, store.published, 1)
}

func TestManager_PublishFailure(t *testing.T) {
	store := newFakeStore()
	store.failPut = true
	m := NewManager(store, nil)
	assert.Error(t, m.Bind(context.Background(), audio()))
	assert.False(t, m.State().Bound)
}

func TestManager_IsPlayingFollowsEventsNotIntent(t *testing.T) {
	m := NewManager(newFakeStore(), nil)
	require.NoError(t, m.Bind(context.Background(), audio()))

	m.Play()
	assert.False(t, m.IsPlaying(), "intent alone does not flip the flag")
	require.NotNil(t, m.State().Command)
	assert.Equal(t, CommandPlay, m.State().Command.Action)

	assert.True(t, m.ReportEvent(Event{Type: EventPlay}))
	assert.True(t, m.IsPlaying())

	// external interruption through native controls
	assert.True(t, m.ReportEvent(Event{Type: EventPause}))
	assert.False(t, m.IsPlaying())

	m.ReportEvent(Event{Type: EventPlay})
	m.ReportEvent(Event{Type: EventFinish})
	assert.False(t, m.IsPlaying())
}

func TestManager_IgnoresEventsForOldMedia(t *testing.T) {
	m := NewManager(newFakeStore(), nil)
	ctx := context.Background()
	require.NoError(t, m.Bind(ctx, audio()))
	old := m.State().MediaKey
	require.NoError(t, m.Bind(ctx, audio()))

	assert.False(t, m.ReportEvent(Event{Type: EventPlay, MediaKey: old}))
	assert.False(t, m.IsPlaying())
}

func TestManager_CloseStopsPlayback(t *testing.T) {
	m := NewManager(newFakeStore(), nil)
	require.NoError(t, m.Bind(context.Background(), audio()))
	m.ReportEvent(Event{Type: EventPlay})

	m.Close(context.Background())
	assert.False(t, m.IsPlaying())
}

func TestManager_VolumeAndMute(t *testing.T) {
	m := NewManager(newFakeStore(), nil)
	require.NoError(t, m.Bind(context.Background(), audio()))

	m.SetVolume(0.4)
	m.ToggleMute()
	st := m.State()
	assert.True(t, st.Muted)
	assert.Equal(t, 0.0, st.Volume)

	m.ToggleMute()
	st = m.State()
	assert.False(t, st.Muted)
	assert.InDelta(t, 0.4, st.Volume, 1e-9)

	m.SetVolume(7)
	assert.Equal(t, 1.0, m.State().Volume)
}

func TestManager_SeekStartsPlaybackWhenPaused(t *testing.T) {
	m := NewManager(newFakeStore(), nil)
	require.NoError(t, m.Bind(context.Background(), audio()))
	m.ReportEvent(Event{Type: EventReady, Duration: 200})

	m.Seek(0.25)
	st := m.State()
	assert.InDelta(t, 50, st.Position, 1e-9)
	require.NotNil(t, st.Command)
	assert.Equal(t, CommandSeek, st.Command.Action)
	assert.True(t, st.Command.AndPlay)

	m.ReportEvent(Event{Type: EventPlay})
	m.Seek(0.5)
	assert.False(t, m.State().Command.AndPlay)
}

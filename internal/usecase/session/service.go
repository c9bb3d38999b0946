package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/internal/infrastructure/metrics"
	usecaseErrors "github.com/johnquangdev/transcript-studio/internal/usecase/errors"
	"github.com/johnquangdev/transcript-studio/internal/usecase/player"
	"github.com/johnquangdev/transcript-studio/internal/usecase/transcript"
)

// Options configures session behaviour
type Options struct {
	TTL             time.Duration
	JanitorInterval time.Duration
	StageTimeout    time.Duration
	SpeakerLabels   []string
}

// Service is the registry of live sessions. Sessions live in memory only and expire
// after TTL without activity.
type Service struct {
	collab    Collaborators
	store     player.MediaStore
	recorder  *StageRecorder
	hub       *Hub
	extractor *transcript.Extractor
	logger    *zap.Logger
	opts      Options
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
}

type entry struct {
	orch     *Orchestrator
	lastSeen time.Time
}

// NewService creates a session registry
func NewService(collab Collaborators, store player.MediaStore, recorder *StageRecorder, hub *Hub, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub()
	}
	return &Service{
		collab:    collab,
		store:     store,
		recorder:  recorder,
		hub:       hub,
		extractor: transcript.NewExtractor(opts.SpeakerLabels...),
		logger:    logger,
		opts:      opts,
		now:       time.Now,
		sessions:  make(map[uuid.UUID]*entry),
	}
}

// Hub returns the snapshot hub
func (s *Service) Hub() *Hub {
	return s.hub
}

// Create starts a new idle session
func (s *Service) Create() *Orchestrator {
	orch := NewOrchestrator(OrchestratorDeps{
		Collaborators: s.collab,
		Extractor:     s.extractor,
		Player:        player.NewManager(s.store, s.logger),
		Recorder:      s.recorder,
		Logger:        s.logger,
		StageTimeout:  s.opts.StageTimeout,
		OnChange: func(snap Snapshot) {
			s.hub.Publish(snap.Session.ID, snap)
		},
	})

	s.mu.Lock()
	s.sessions[orch.ID()] = &entry{orch: orch, lastSeen: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetActiveSessions(n)
	s.logger.Info("session.created", zap.String("session_id", orch.ID().String()))
	return orch
}

// Get returns a live session and marks it as seen
func (s *Service) Get(id uuid.UUID) (*Orchestrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, appErrors.ErrSessionNotFound(id.String()).WithCause(usecaseErrors.ErrSessionNotFound)
	}
	e.lastSeen = s.now()
	return e.orch, nil
}

// Delete closes a session and forgets it
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return appErrors.ErrSessionNotFound(id.String()).WithCause(usecaseErrors.ErrSessionNotFound)
	}
	s.closeSession(ctx, e.orch)
	metrics.SetActiveSessions(n)
	return nil
}

// StageRuns returns the audit trail of a session's collaborator calls
func (s *Service) StageRuns(ctx context.Context, id uuid.UUID) ([]*entities.StageRun, error) {
	if s.recorder == nil {
		return []*entities.StageRun{}, nil
	}
	return s.recorder.Runs(ctx, id)
}

// Len returns the number of live sessions
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ExpireIdle closes sessions idle for longer than the TTL and returns how many were closed
func (s *Service) ExpireIdle(ctx context.Context) int {
	if s.opts.TTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.opts.TTL)

	var expired []*Orchestrator
	s.mu.Lock()
	for id, e := range s.sessions {
		last := e.lastSeen
		if activity := e.orch.LastActivity(); activity.After(last) {
			last = activity
		}
		if last.Before(cutoff) {
			expired = append(expired, e.orch)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, orch := range expired {
		s.closeSession(ctx, orch)
		s.logger.Info("session.expired", zap.String("session_id", orch.ID().String()))
	}
	if len(expired) > 0 {
		metrics.SetActiveSessions(n)
	}
	return len(expired)
}

// RunJanitor expires idle sessions every JanitorInterval until ctx is done
func (s *Service) RunJanitor(ctx context.Context) {
	interval := s.opts.JanitorInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireIdle(ctx)
		}
	}
}

// CloseAll closes every session; used on shutdown
func (s *Service) CloseAll(ctx context.Context) {
	s.mu.Lock()
	all := make([]*Orchestrator, 0, len(s.sessions))
	for id, e := range s.sessions {
		all = append(all, e.orch)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, orch := range all {
		s.closeSession(ctx, orch)
	}
	metrics.SetActiveSessions(0)
}

func (s *Service) closeSession(ctx context.Context, orch *Orchestrator) {
	orch.Close(ctx)
	orch.Wait()
	s.hub.CloseSession(orch.ID())
}

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/johnquangdev/transcript-studio/errors"
	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/internal/domain/services"
	"github.com/johnquangdev/transcript-studio/internal/infrastructure/metrics"
	usecaseErrors "github.com/johnquangdev/transcript-studio/internal/usecase/errors"
	"github.com/johnquangdev/transcript-studio/internal/usecase/player"
	"github.com/johnquangdev/transcript-studio/internal/usecase/transcript"
	"github.com/johnquangdev/transcript-studio/pkg/stagecontext"
)

// User-facing banner texts
const (
	msgVideoAdvisory       = "Processing video files can take longer, especially for large files. Only the audio track is transcribed."
	msgNamesManual         = "Could not suggest speaker names automatically. Please enter them manually."
	msgNameInferenceFailed = "Automatic speaker name suggestion failed. Speakers keep their original labels."
	msgTranscribeFallback  = "Transcription failed due to an unknown error."
	msgSummaryFallback     = "Summary generation failed due to an unknown error."
	msgChatFallback        = "The chat request failed due to an unknown error."
)

// Collaborators are the external AI services a session delegates to
type Collaborators struct {
	Transcriber  services.Transcriber
	NameInferrer services.NameInferrer
	Summarizer   services.Summarizer
	Chat         services.ChatProvider
}

// Snapshot is an immutable view of a session for presentation
//
// Revision increases with every published change of a session, so consumers can
// discard a snapshot that arrives after a newer one.
type Snapshot struct {
	Session    *entities.Session
	Player     player.State
	Generation uint64
	Revision   uint64
	Stage      entities.PipelineStage
}

// Orchestrator sequences file selection, transcription, name inference, renaming,
// summary and chat for one session and keeps the derived state consistent.
//
// Every async result is committed only when the generation it was launched in is
// still current; SelectFile, Transcribe and Reset start a new generation.
type Orchestrator struct {
	collab       Collaborators
	extractor    *transcript.Extractor
	player       *player.Manager
	conversation *Conversation
	recorder     *StageRecorder
	logger       *zap.Logger
	stageTimeout time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu         sync.Mutex
	state      *entities.Session
	generation uint64
	summarySeq uint64
	chatEpoch  uint64
	revision   uint64
	closed     bool
	onChange   func(Snapshot)
}

// OrchestratorDeps wires an orchestrator
type OrchestratorDeps struct {
	Collaborators Collaborators
	Extractor     *transcript.Extractor
	Player        *player.Manager
	Recorder      *StageRecorder
	Logger        *zap.Logger
	StageTimeout  time.Duration
	OnChange      func(Snapshot)
}

// NewOrchestrator creates an idle session
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	extractor := deps.Extractor
	if extractor == nil {
		extractor = transcript.NewExtractor()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = NewStageRecorder(nil, nil, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	state := entities.NewSession()
	return &Orchestrator{
		collab:       deps.Collaborators,
		extractor:    extractor,
		player:       deps.Player,
		conversation: NewConversation(deps.Collaborators.Chat),
		recorder:     recorder,
		logger:       logger.With(zap.String("session_id", state.ID.String())),
		stageTimeout: deps.StageTimeout,
		baseCtx:      ctx,
		cancel:       cancel,
		state:        state,
		onChange:     deps.OnChange,
	}
}

// ID returns the session identifier
func (o *Orchestrator) ID() uuid.UUID {
	return o.state.ID
}

// LastActivity returns the time of the last state change
func (o *Orchestrator) LastActivity() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.UpdatedAt
}

// SelectFile fully resets the session and adopts a new media file
func (o *Orchestrator) SelectFile(ctx context.Context, name, declaredType string, data []byte) (Snapshot, error) {
	o.mu.Lock()
	if err := o.checkOpenLocked(); err != nil {
		o.mu.Unlock()
		return Snapshot{}, err
	}
	o.resetLocked()

	var failure error
	file := entities.NewMediaFile(name, declaredType, data)
	switch {
	case len(data) == 0:
		failure = appErrors.ErrFileUnreadable(name, usecaseErrors.ErrEmptyFile)
	case !file.IsMedia():
		failure = appErrors.ErrFileUnreadable(name, errors.New("unsupported media type "+file.MIMEType))
	}
	if failure == nil {
		if err := o.player.Bind(ctx, file); err != nil {
			failure = appErrors.ErrStorageFailed("publish media", err)
		}
	} else {
		o.player.Close(ctx)
	}

	if failure == nil {
		o.state.File = file
		if file.IsVideo() {
			o.state.Alert = entities.NewAdvisoryAlert(msgVideoAdvisory)
		}
		metrics.RecordUpload(file.Size())
		o.logger.Info("session.file_selected",
			zap.String("file_name", file.Name),
			zap.String("mime_type", file.MIMEType),
			zap.Int("size", file.Size()),
			zap.Uint64("generation", o.generation),
		)
	}
	o.state.Touch()
	o.mu.Unlock()

	o.notify()
	if failure != nil {
		return o.Snapshot(), failure
	}
	return o.Snapshot(), nil
}

// Transcribe starts transcription of the selected file in the background
func (o *Orchestrator) Transcribe(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	if err := o.checkOpenLocked(); err != nil {
		o.mu.Unlock()
		return Snapshot{}, err
	}
	if o.state.File == nil {
		o.mu.Unlock()
		return Snapshot{}, appErrors.ErrFileRequired().WithCause(usecaseErrors.ErrNoFileSelected)
	}
	if o.state.TranscribeBusy() {
		o.mu.Unlock()
		return Snapshot{}, appErrors.ErrSessionBusy(string(entities.StageTranscribing)).WithCause(usecaseErrors.ErrStageInProgress)
	}

	o.generation++
	o.summarySeq++
	o.invalidateChatLocked()
	o.state.ClearTranscript()
	if o.state.Alert != nil && o.state.Alert.Kind == entities.AlertError {
		o.state.Alert = nil
	}
	o.state.Summarizing = false
	o.state.Sections.SetOpen(entities.SectionTranscription, true)
	o.state.Sections.SetOpen(entities.SectionSpeakers, false)
	o.state.Sections.SetOpen(entities.SectionChat, false)
	o.state.Sections.SetOpen(entities.SectionSummary, false)
	o.state.Transcribing = true
	o.state.Touch()

	gen := o.generation
	payload := o.state.File.Payload()
	size := o.state.File.Size()
	o.wg.Add(1)
	o.mu.Unlock()

	go o.runTranscription(gen, payload, size)

	o.notify()
	return o.Snapshot(), nil
}

func (o *Orchestrator) runTranscription(gen uint64, payload entities.MediaPayload, size int) {
	defer o.wg.Done()

	ctx, cancel := stagecontext.StageBegin(o.baseCtx, o.state.ID, string(entities.StageNameTranscription), gen, o.stageTimeout)
	defer cancel()

	run := o.recorder.Begin(o.state.ID, entities.StageNameTranscription, gen, size)
	var text string
	err := stagecontext.StageEnd(ctx, func(ctx context.Context) error {
		var err error
		text, err = o.collab.Transcriber.Transcribe(ctx, payload)
		return err
	})

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		o.recorder.End(run, err, true)
		return
	}
	o.state.Transcribing = false

	if err != nil {
		o.state.Alert = entities.NewErrorAlert(userMessage(err, msgTranscribeFallback))
		o.state.Sections.SetOpen(entities.SectionTranscription, false)
		o.state.Touch()
		o.mu.Unlock()
		o.recorder.End(run, err, false)
		o.notify()
		return
	}

	// a blank transcript leaves nothing to name, summarize or chat about
	if strings.TrimSpace(text) == "" {
		o.state.NameStatus = entities.NameSuggestionIdle
		o.state.Sections.SetOpen(entities.SectionTranscription, false)
		o.state.Sections.SetOpen(entities.SectionSpeakers, false)
		o.state.Sections.SetOpen(entities.SectionChat, false)
		o.state.Touch()
		o.mu.Unlock()
		o.recorder.End(run, nil, false)
		o.notify()
		return
	}

	raw := text
	o.state.RawTranscript = &raw
	ids := o.extractor.Extract(raw)
	o.state.SpeakerIDs = ids
	o.state.Assignments = entities.IdentityAssignments(ids)

	if len(ids) == 0 {
		o.state.NameStatus = entities.NameSuggestionIdle
		o.state.Sections.SetOpen(entities.SectionSpeakers, false)
		o.finishNamingLocked()
		o.mu.Unlock()
		o.recorder.End(run, nil, false)
		o.notify()
		return
	}

	o.state.NameStatus = entities.NameSuggestionPending
	o.state.Sections.SetOpen(entities.SectionSpeakers, true)
	o.state.Touch()
	o.mu.Unlock()
	o.recorder.End(run, nil, false)
	o.notify()

	o.runNameInference(gen, raw, ids)
}

func (o *Orchestrator) runNameInference(gen uint64, raw string, ids []string) {
	ctx, cancel := stagecontext.StageBegin(o.baseCtx, o.state.ID, string(entities.StageNameNameInference), gen, o.stageTimeout)
	defer cancel()

	run := o.recorder.Begin(o.state.ID, entities.StageNameNameInference, gen, len(raw))
	var names map[string]string
	err := stagecontext.StageEnd(ctx, func(ctx context.Context) error {
		var err error
		names, err = o.collab.NameInferrer.InferSpeakerNames(ctx, raw)
		return err
	})

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		o.recorder.End(run, err, true)
		return
	}

	if err != nil {
		o.state.NameStatus = entities.NameSuggestionError
		o.state.Alert = entities.NewAdvisoryAlert(msgNameInferenceFailed)
	} else {
		o.state.NameStatus = o.state.Assignments.MergeSuggestions(ids, names)
		if o.state.NameStatus == entities.NameSuggestionError {
			o.state.Alert = entities.NewAdvisoryAlert(msgNamesManual)
		}
	}
	o.finishNamingLocked()
	o.mu.Unlock()

	o.recorder.End(run, err, false)
	o.notify()
}

// finishNamingLocked publishes the derived transcript once naming is settled
func (o *Orchestrator) finishNamingLocked() {
	o.applyDerivedLocked()
	o.state.Sections.SetOpen(entities.SectionTranscription, true)
	o.state.Sections.SetOpen(entities.SectionChat, true)
	o.state.Touch()
}

// RenameSpeaker assigns a display name to one identifier. A blank name restores the identifier.
func (o *Orchestrator) RenameSpeaker(speakerID, name string) (Snapshot, error) {
	o.mu.Lock()
	if err := o.checkOpenLocked(); err != nil {
		o.mu.Unlock()
		return Snapshot{}, err
	}
	if o.state.RawTranscript == nil {
		o.mu.Unlock()
		return Snapshot{}, appErrors.ErrTranscriptRequired().WithCause(usecaseErrors.ErrNoTranscript)
	}
	if !o.state.HasSpeaker(speakerID) {
		o.mu.Unlock()
		return Snapshot{}, appErrors.ErrUnknownSpeaker(speakerID).WithCause(usecaseErrors.ErrUnknownSpeaker)
	}
	if o.state.NameStatus == entities.NameSuggestionPending {
		o.mu.Unlock()
		return Snapshot{}, appErrors.ErrSessionBusy(string(entities.StageInferringNames)).WithCause(usecaseErrors.ErrStageInProgress)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = speakerID
	}
	o.state.Assignments[speakerID] = name
	o.applyDerivedLocked()

	// the summary no longer matches the names
	o.summarySeq++
	o.state.Summary = nil
	o.state.Summarizing = false
	o.state.Alert = nil
	o.state.Sections.SetOpen(entities.SectionSummary, false)
	o.state.Touch()
	o.mu.Unlock()

	o.notify()
	return o.Snapshot(), nil
}

// Summarize starts a summary of the derived transcript in the background
func (o *Orchestrator) Summarize(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	if err := o.checkOpenLocked(); err != nil {
		o.mu.Unlock()
		return Snapshot{}, err
	}
	if o.state.DerivedTranscript == nil || strings.TrimSpace(*o.state.DerivedTranscript) == "" {
		o.mu.Unlock()
		return Snapshot{}, appErrors.ErrTranscriptRequired().WithCause(usecaseErrors.ErrNoTranscript)
	}
	if o.state.Summarizing {
		o.mu.Unlock()
		return Snapshot{}, appErrors.ErrSessionBusy(string(entities.StageSummarizing)).WithCause(usecaseErrors.ErrStageInProgress)
	}

	o.summarySeq++
	o.state.Summary = nil
	o.state.Summarizing = true
	if o.state.Alert != nil && o.state.Alert.Kind == entities.AlertError {
		o.state.Alert = nil
	}
	o.state.Sections.SetOpen(entities.SectionSummary, true)
	o.state.Touch()

	gen, seq := o.generation, o.summarySeq
	input := *o.state.DerivedTranscript
	o.wg.Add(1)
	o.mu.Unlock()

	go o.runSummary(gen, seq, input)

	o.notify()
	return o.Snapshot(), nil
}

func (o *Orchestrator) runSummary(gen, seq uint64, input string) {
	defer o.wg.Done()

	ctx, cancel := stagecontext.StageBegin(o.baseCtx, o.state.ID, string(entities.StageNameSummary), gen, o.stageTimeout)
	defer cancel()

	run := o.recorder.Begin(o.state.ID, entities.StageNameSummary, gen, len(input))
	var summary string
	err := stagecontext.StageEnd(ctx, func(ctx context.Context) error {
		var err error
		summary, err = o.collab.Summarizer.Summarize(ctx, input)
		return err
	})

	o.mu.Lock()
	if gen != o.generation || seq != o.summarySeq {
		o.mu.Unlock()
		o.recorder.End(run, err, true)
		return
	}
	o.state.Summarizing = false
	if err != nil {
		o.state.Alert = entities.NewErrorAlert(userMessage(err, msgSummaryFallback))
		o.state.Sections.SetOpen(entities.SectionSummary, false)
	} else {
		o.state.Summary = &summary
	}
	o.state.Touch()
	o.mu.Unlock()

	o.recorder.End(run, err, false)
	o.notify()
}

// Chat sends one message about the derived transcript and returns the recorded model turn.
// Collaborator failures come back as an error turn and a banner, not as an error.
func (o *Orchestrator) Chat(ctx context.Context, message string) (entities.ChatTurn, error) {
	o.mu.Lock()
	if err := o.checkOpenLocked(); err != nil {
		o.mu.Unlock()
		return entities.ChatTurn{}, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		o.mu.Unlock()
		return entities.ChatTurn{}, appErrors.ErrEmptyMessage().WithCause(usecaseErrors.ErrEmptyMessage)
	}
	if o.state.DerivedTranscript == nil || strings.TrimSpace(*o.state.DerivedTranscript) == "" {
		o.mu.Unlock()
		return entities.ChatTurn{}, appErrors.ErrTranscriptRequired().WithCause(usecaseErrors.ErrEmptyContext)
	}
	if o.state.Chatting {
		o.mu.Unlock()
		return entities.ChatTurn{}, appErrors.ErrSessionBusy(string(entities.StageNameChat)).WithCause(usecaseErrors.ErrStageInProgress)
	}

	o.state.Chatting = true
	o.state.Chat = append(o.state.Chat, entities.NewChatTurn(entities.ChatRoleUser, message, false))
	o.state.Touch()
	epoch, gen := o.chatEpoch, o.generation
	contextText := *o.state.DerivedTranscript
	o.mu.Unlock()
	o.notify()

	stageCtx, cancel := stagecontext.StageBegin(ctx, o.state.ID, string(entities.StageNameChat), gen, o.stageTimeout)
	defer cancel()

	run := o.recorder.Begin(o.state.ID, entities.StageNameChat, gen, len(message))
	var reply string
	err := stagecontext.StageEnd(stageCtx, func(ctx context.Context) error {
		var err error
		reply, err = o.conversation.Send(ctx, contextText, message)
		return err
	})

	o.mu.Lock()
	if epoch != o.chatEpoch {
		o.mu.Unlock()
		o.recorder.End(run, err, true)
		return entities.ChatTurn{}, appErrors.ErrInvalidArgument("The transcript changed before the reply arrived. Please ask again").WithCause(usecaseErrors.ErrStaleGeneration)
	}
	o.state.Chatting = false

	var turn entities.ChatTurn
	if err != nil {
		msg := userMessage(err, msgChatFallback)
		turn = entities.NewChatTurn(entities.ChatRoleModel, msg, true)
		o.state.Alert = entities.NewErrorAlert(msg)
	} else {
		turn = entities.NewChatTurn(entities.ChatRoleModel, reply, false)
	}
	o.state.Chat = append(o.state.Chat, turn)
	o.state.Touch()
	o.mu.Unlock()

	o.recorder.End(run, err, false)
	o.notify()
	return turn, nil
}

// Reset returns the session to its initial state and stops playback
func (o *Orchestrator) Reset(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	if err := o.checkOpenLocked(); err != nil {
		o.mu.Unlock()
		return Snapshot{}, err
	}
	o.resetLocked()
	o.player.Close(ctx)
	o.mu.Unlock()

	o.logger.Info("session.reset")
	o.notify()
	return o.Snapshot(), nil
}

// resetLocked starts a new generation and clears every field
func (o *Orchestrator) resetLocked() {
	o.generation++
	o.summarySeq++
	o.invalidateChatLocked()
	o.state.Clear()
}

// DismissAlert clears the banner
func (o *Orchestrator) DismissAlert() Snapshot {
	o.mu.Lock()
	o.state.Alert = nil
	o.state.Touch()
	o.mu.Unlock()

	o.notify()
	return o.Snapshot()
}

// ToggleSection flips one panel
func (o *Orchestrator) ToggleSection(key entities.SectionKey) (Snapshot, error) {
	return o.updateSections(key, func(s *entities.SectionState) { s.Toggle(key) })
}

// SetSectionOpen opens or closes one panel
func (o *Orchestrator) SetSectionOpen(key entities.SectionKey, open bool) (Snapshot, error) {
	return o.updateSections(key, func(s *entities.SectionState) { s.SetOpen(key, open) })
}

// ToggleFullscreen makes key the exclusive fullscreen panel, or clears it when already active
func (o *Orchestrator) ToggleFullscreen(key entities.SectionKey) (Snapshot, error) {
	return o.updateSections(key, func(s *entities.SectionState) { s.ToggleFullscreen(key) })
}

func (o *Orchestrator) updateSections(key entities.SectionKey, fn func(*entities.SectionState)) (Snapshot, error) {
	if !key.IsValid() {
		return Snapshot{}, appErrors.ErrUnknownSection(string(key)).WithCause(usecaseErrors.ErrUnknownSection)
	}
	o.mu.Lock()
	fn(&o.state.Sections)
	o.state.Touch()
	o.mu.Unlock()

	o.notify()
	return o.Snapshot(), nil
}

// Play asks the player to start playback
func (o *Orchestrator) Play() Snapshot {
	o.player.Play()
	return o.playerChanged()
}

// Pause asks the player to pause
func (o *Orchestrator) Pause() Snapshot {
	o.player.Pause()
	return o.playerChanged()
}

// Seek moves the cursor to fraction of the duration and starts playback when paused
func (o *Orchestrator) Seek(fraction float64) Snapshot {
	o.player.Seek(fraction)
	return o.playerChanged()
}

// SetVolume sets the playback volume in [0,1]
func (o *Orchestrator) SetVolume(v float64) Snapshot {
	o.player.SetVolume(v)
	return o.playerChanged()
}

// ToggleMute mutes, or restores the volume from before muting
func (o *Orchestrator) ToggleMute() Snapshot {
	o.player.ToggleMute()
	return o.playerChanged()
}

// ReportPlayerEvent feeds an actual playback event from the client
func (o *Orchestrator) ReportPlayerEvent(e player.Event) (Snapshot, error) {
	if !e.Type.IsValid() {
		return Snapshot{}, appErrors.ErrInvalidArgument("unknown player event " + string(e.Type))
	}
	if o.player.ReportEvent(e) {
		o.notify()
	}
	return o.Snapshot(), nil
}

func (o *Orchestrator) playerChanged() Snapshot {
	o.mu.Lock()
	o.state.Touch()
	o.mu.Unlock()
	o.notify()
	return o.Snapshot()
}

// Snapshot returns an immutable copy of the session
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := o.state.Clone()
	return Snapshot{
		Session:    s,
		Player:     o.player.State(),
		Generation: o.generation,
		Revision:   o.revision,
		Stage:      s.Stage(),
	}
}

// Close stops background work, releases the player and rejects further operations
func (o *Orchestrator) Close(ctx context.Context) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.generation++
	o.invalidateChatLocked()
	o.mu.Unlock()

	o.cancel()
	o.conversation.Reset()
	o.player.Close(ctx)
	o.logger.Info("session.closed")
}

// Wait blocks until background stages have returned
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) checkOpenLocked() error {
	if o.closed {
		return appErrors.ErrSessionNotFound(o.state.ID.String()).WithCause(usecaseErrors.ErrSessionClosed)
	}
	return nil
}

// applyDerivedLocked recomputes the derived transcript from raw and assignments.
// A changed context starts a new chat.
func (o *Orchestrator) applyDerivedLocked() {
	derived := transcript.ApplyNames(o.state.RawTranscript, o.state.Assignments)
	if o.state.DerivedTranscript == nil || *o.state.DerivedTranscript != derived {
		o.invalidateChatLocked()
	}
	o.state.DerivedTranscript = &derived
}

func (o *Orchestrator) invalidateChatLocked() {
	o.chatEpoch++
	o.state.Chat = []entities.ChatTurn{}
	o.state.Chatting = false
	o.conversation.Reset()
}

// notify publishes the current state under a fresh revision. Concurrent callers
// may reach onChange out of order; the revision lets the hub drop the stale one.
func (o *Orchestrator) notify() {
	if o.onChange == nil {
		return
	}
	o.mu.Lock()
	o.revision++
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.onChange(snap)
}

// userMessage is the banner text for a collaborator failure
func userMessage(err error, fallback string) string {
	var appErr appErrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	sessionDto "github.com/johnquangdev/transcript-studio/internal/adapter/dto/session"
	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/internal/domain/services"
	"github.com/johnquangdev/transcript-studio/internal/infrastructure/cache"
	"github.com/johnquangdev/transcript-studio/internal/infrastructure/storage"
	sessionUsecase "github.com/johnquangdev/transcript-studio/internal/usecase/session"
	"github.com/johnquangdev/transcript-studio/pkg/config"
	"github.com/johnquangdev/transcript-studio/pkg/jwt"
	"github.com/johnquangdev/transcript-studio/pkg/signature"
	"github.com/johnquangdev/transcript-studio/pkg/validator"
)

const testTranscript = "[00:00:05] Speaker A: Hi Ivan!\n[00:00:08] Speaker B: Hi Anna!"

type stubAI struct{}

func (stubAI) Transcribe(context.Context, entities.MediaPayload) (string, error) {
	return testTranscript, nil
}

func (stubAI) InferSpeakerNames(context.Context, string) (map[string]string, error) {
	return map[string]string{"Speaker A": "Anna", "Speaker B": "Ivan"}, nil
}

func (stubAI) Summarize(context.Context, string) (string, error) {
	return "## Summary", nil
}

func (stubAI) StartChat(context.Context, string) (services.ChatSession, error) {
	return stubAI{}, nil
}

func (stubAI) Send(_ context.Context, message string) (string, error) {
	return "echo: " + message, nil
}

type testServer struct {
	e       *echo.Echo
	service *sessionUsecase.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := cache.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = mem.Close() })

	media := storage.NewCacheMediaStore(mem, signature.NewURLSigner("media-secret"), "http://example.test/v1/media", time.Hour)
	ai := stubAI{}
	svc := sessionUsecase.NewService(
		sessionUsecase.Collaborators{Transcriber: ai, NameInferrer: ai, Summarizer: ai, Chat: ai},
		media, nil, nil, zap.NewNop(),
		sessionUsecase.Options{TTL: time.Hour, StageTimeout: 5 * time.Second},
	)
	t.Cleanup(func() { svc.CloseAll(context.Background()) })

	cfg := &config.Config{Server: config.ServerConfig{Environment: "test"}}
	tokens := jwt.NewManager("token-secret", time.Hour)
	logger := zap.NewNop()

	e := echo.New()
	e.Validator = validator.New()
	NewRouter(cfg, tokens,
		NewSessionHandler(svc, tokens, 1<<20, logger),
		NewPlayerHandler(svc, logger),
		NewEventsHandler(svc, []string{"*"}, logger),
		NewMediaHandler(media, logger),
	).Setup(e)

	return &testServer{e: e, service: svc}
}

type envelope struct {
	Code    interface{}     `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body []byte, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) create(t *testing.T) sessionDto.CreateSessionResponse {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/v1/sessions", "", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var out sessionDto.CreateSessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func uploadBody(t *testing.T, name, contentType string, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func decodeSession(t *testing.T, env envelope) sessionDto.SessionResponse {
	t.Helper()
	var out sessionDto.SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestSessionRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t)
	a := s.create(t)
	b := s.create(t)

	rec, _ := s.do(t, http.MethodGet, "/v1/sessions/"+a.SessionID, "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/v1/sessions/"+a.SessionID, b.Token, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/v1/sessions/"+a.SessionID, "garbage", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/v1/sessions/"+a.SessionID, a.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSession(t, env)
	assert.Equal(t, "idle", snap.Stage)
	assert.True(t, snap.Sections.Open["upload"])
}

func TestSessionRoutes_Pipeline(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t)
	base := "/v1/sessions/" + created.SessionID

	body, ct := uploadBody(t, "talk.mp3", "audio/mpeg", []byte("ID3 fake audio"))
	rec, env := s.do(t, http.MethodPost, base+"/file", created.Token, body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decodeSession(t, env)
	require.NotNil(t, snap.File)
	assert.Equal(t, "audio/mpeg", snap.File.MIMEType)
	assert.True(t, snap.Player.Bound)

	rec, _ = s.do(t, http.MethodPost, base+"/transcribe", created.Token, nil, "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	orch, err := s.service.Get(uuid.MustParse(created.SessionID))
	require.NoError(t, err)
	orch.Wait()

	rec, env = s.do(t, http.MethodGet, base, created.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSession(t, env)
	require.NotNil(t, snap.Transcript)
	assert.Equal(t, "[00:00:05] Anna: Hi Ivan!\n[00:00:08] Ivan: Hi Anna!", *snap.Transcript)
	assert.Equal(t, "success", snap.NameStatus)
	require.NotNil(t, snap.NameNotice)
	assert.Equal(t, "success", snap.NameNotice.Kind)
	assert.Len(t, snap.Speakers, 2)

	rec, env = s.do(t, http.MethodPut, base+"/speakers", created.Token,
		[]byte(`{"speaker_id":"Speaker B","name":"Ivan Petrov"}`), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, *decodeSession(t, env).Transcript, "Ivan Petrov: Hi Anna!")

	rec, env = s.do(t, http.MethodPost, base+"/chat", created.Token,
		[]byte(`{"message":"who spoke?"}`), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	var chat sessionDto.ChatResponse
	require.NoError(t, json.Unmarshal(env.Data, &chat))
	assert.Equal(t, "echo: who spoke?", chat.Turn.Text)
	assert.Len(t, chat.Session.Chat, 2)

	rec, env = s.do(t, http.MethodPost, base+"/reset", created.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSession(t, env)
	assert.Nil(t, snap.Transcript)
	assert.False(t, snap.Player.Bound)
}

func TestSessionRoutes_InputErrors(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t)
	base := "/v1/sessions/" + created.SessionID

	rec, env := s.do(t, http.MethodPost, base+"/transcribe", created.Token, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, float64(3002), env.Code)

	rec, _ = s.do(t, http.MethodPost, base+"/sections/sidebar/toggle", created.Token, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(t, http.MethodPost, base+"/sections/chat/fullscreen", created.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSession(t, env)
	assert.Equal(t, "chat", snap.Sections.Fullscreen)
	assert.True(t, snap.Sections.ScrollLocked)

	body, ct := uploadBody(t, "notes.txt", "text/plain", []byte("plain text, not media"))
	rec, _ = s.do(t, http.MethodPost, base+"/file", created.Token, body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.do(t, http.MethodPut, base+"/player/volume", created.Token, []byte(`{"volume":2}`), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMediaRoute_ServesSignedLinks(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t)
	data := []byte("ID3 fake audio bytes")

	body, ct := uploadBody(t, "talk.mp3", "audio/mpeg", data)
	_, env := s.do(t, http.MethodPost, "/v1/sessions/"+created.SessionID+"/file", created.Token, body, ct)
	url := decodeSession(t, env).Player.URL
	require.NotEmpty(t, url)

	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data, rec.Body.Bytes())
	assert.Equal(t, "audio/mpeg", rec.Header().Get(echo.HeaderContentType))

	req = httptest.NewRequest(http.MethodGet, strings.Replace(url, "sig=", "sig=00", 1), nil)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEventsRoute_StreamsSnapshots(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t)
	srv := httptest.NewServer(s.e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/sessions/" + created.SessionID + "/events?token=" + created.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first eventMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snapshot", first.Type)

	rec, _ := s.do(t, http.MethodPost, "/v1/sessions/"+created.SessionID+"/sections/summary/toggle", created.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var next eventMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, "snapshot", next.Type)
	assert.True(t, next.Session.Sections.Open["summary"])
	assert.Greater(t, next.Session.Revision, first.Session.Revision)

	rec, _ = s.do(t, http.MethodDelete, "/v1/sessions/"+created.SessionID, created.Token, nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	var closed eventMessage
	require.NoError(t, conn.ReadJSON(&closed))
	assert.Equal(t, "closed", closed.Type)
}

func TestOpsRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStageRunsRoute_EmptyWithoutDatabase(t *testing.T) {
	s := newTestServer(t)
	a := s.create(t)

	rec, env := s.do(t, http.MethodGet, "/v1/sessions/"+a.SessionID+"/stages", a.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []sessionDto.StageRunResponse
	require.NoError(t, json.Unmarshal(env.Data, &runs))
	assert.Empty(t, runs)
}

func TestSessionHandler_DiscardLogsFailure(t *testing.T) {
	s := newTestServer(t)
	core, logs := observer.New(zap.WarnLevel)
	h := NewSessionHandler(s.service, jwt.NewManager("token-secret", time.Hour), 1<<20, zap.New(core))

	orch := s.service.Create()
	h.discard(context.Background(), orch.ID())
	_, err := s.service.Get(orch.ID())
	require.Error(t, err)
	assert.Equal(t, 0, logs.Len())

	missing := uuid.New()
	h.discard(context.Background(), missing)
	entries := logs.FilterMessage("session.discard_failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, missing.String(), entries[0].ContextMap()["session_id"])
}

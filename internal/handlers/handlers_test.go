package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/urmidesai8/gruner-ai-features/internal/chat"
	"github.com/urmidesai8/gruner-ai-features/internal/config"
	"github.com/urmidesai8/gruner-ai-features/internal/summary"
)

type stubSummarizer struct {
	result *summary.Result
	err    error
	called string
}

func (s *stubSummarizer) Summarize(ctx context.Context, username string) (*summary.Result, error) {
	s.called = username
	return s.result, s.err
}

func newTestHandler(t *testing.T, summarizer Summarizer) (*Handler, *chat.Hub, *chat.Log) {
	t.Helper()
	cfg := &config.Config{
		AllowedOrigins: []string{"*"},
		MaxMessageSize: 4096,
		SendBufferSize: 16,
		GroqAPIKey:     "test-key",
	}
	log := chat.NewLog()
	hub := chat.NewHub(zerolog.Nop(), log, cfg.SendBufferSize)
	t.Cleanup(hub.Shutdown)
	return NewHandler(hub, log, summarizer, nil, nil, cfg, zerolog.Nop()), hub, log
}

func newFeatureHandler(t *testing.T, features Features) *Handler {
	t.Helper()
	cfg := &config.Config{GroqAPIKey: "test-key"}
	log := chat.NewLog()
	hub := chat.NewHub(zerolog.Nop(), log, 16)
	t.Cleanup(hub.Shutdown)
	return NewHandler(hub, log, nil, features, nil, cfg, zerolog.Nop())
}

func TestMessages_FullHistory(t *testing.T) {
	req := require.New(t)
	h, _, log := newTestHandler(t, nil)
	log.Append("alice", "hello")
	log.Append("bob", "hi alice")

	rec := httptest.NewRecorder()
	h.Messages(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))

	req.Equal(http.StatusOK, rec.Code)
	var resp MessagesResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal(2, resp.TotalCount)
	req.Len(resp.Messages, 2)
	req.Equal(uint64(1), resp.Messages[0].Seq)
	req.Equal("alice", resp.Messages[0].Sender)
	req.Equal("hello", resp.Messages[0].Message)
	req.NotEmpty(resp.Messages[0].MessageID)
	req.NotEmpty(resp.Messages[0].Timestamp)
}

func TestMessages_UnreadDoesNotAdvanceCursor(t *testing.T) {
	req := require.New(t)
	h, _, log := newTestHandler(t, nil)
	log.Append("alice", "hello")
	log.MarkRead("carol")
	log.Append("bob", "anyone here?")

	get := func() UnreadMessagesResponse {
		rec := httptest.NewRecorder()
		h.Messages(rec, httptest.NewRequest(http.MethodGet, "/api/messages?username=carol", nil))
		req.Equal(http.StatusOK, rec.Code)
		var resp UnreadMessagesResponse
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	first := get()
	req.Equal(1, first.UnreadCount)
	req.Equal("anyone here?", first.Messages[0].Message)

	// reading history is not a read cursor advance
	second := get()
	req.Equal(1, second.UnreadCount)
}

func TestSummarize_OK(t *testing.T) {
	req := require.New(t)
	stub := &stubSummarizer{result: &summary.Result{
		Summary:       "Short chat.",
		BulletPoints:  []string{"greeting"},
		KeyDecisions:  []string{"none"},
		ActionItems:   []string{"none"},
		UnreadSummary: "You're all caught up!",
		TotalMessages: 1,
		Participants:  []string{"alice"},
	}}
	h, _, _ := newTestHandler(t, stub)

	rec := httptest.NewRecorder()
	h.Summarize(rec, httptest.NewRequest(http.MethodPost, "/api/summarize?username=alice", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("alice", stub.called)
	var resp summary.Result
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("Short chat.", resp.Summary)
	req.Equal([]string{"alice"}, resp.Participants)
}

func TestSummarize_UpstreamFailure(t *testing.T) {
	req := require.New(t)
	stub := &stubSummarizer{err: errors.New("generate summary: upstream timeout")}
	h, _, _ := newTestHandler(t, stub)

	rec := httptest.NewRecorder()
	h.Summarize(rec, httptest.NewRequest(http.MethodPost, "/api/summarize", nil))

	req.Equal(http.StatusBadGateway, rec.Code)
	var resp map[string]string
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Contains(resp["error"], "summary generation failed")
	req.Contains(resp["error"], "upstream timeout")
}

func TestStats(t *testing.T) {
	req := require.New(t)
	h, hub, log := newTestHandler(t, nil)

	alice, err := hub.Connect("alice", "127.0.0.1:1000")
	req.NoError(err)
	defer hub.Disconnect(alice)
	log.Append("alice", "hello")
	log.TrackParticipant("bob")

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	req.Equal(http.StatusOK, rec.Code)
	var resp StatsResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal(1, resp.UsersOnline)
	req.Equal([]string{"alice"}, resp.OnlineUsernames)
	req.Equal([]string{"alice", "bob"}, resp.Participants)
	req.Equal(1, resp.TotalMessages)
}

func TestHealth_NoRedis(t *testing.T) {
	req := require.New(t)
	h, _, _ := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	req.Equal(http.StatusOK, rec.Code)
	var resp HealthResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("healthy", resp.Status)
	req.Equal("pass", resp.Checks["hub"].Status)
	req.Equal("pass", resp.Checks["summarizer"].Status)
	req.NotContains(resp.Checks, "redis")
}

func TestHealth_SummarizerUnconfiguredStaysHealthy(t *testing.T) {
	req := require.New(t)
	h, _, _ := newTestHandler(t, nil)
	h.cfg.GroqAPIKey = ""

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	req.Equal(http.StatusOK, rec.Code)
	var resp HealthResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("healthy", resp.Status)
	req.Equal("fail", resp.Checks["summarizer"].Status)
}

func TestWS_MissingUsername(t *testing.T) {
	req := require.New(t)
	h, _, _ := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.WS(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	req.Equal(http.StatusBadRequest, rec.Code)
	var resp map[string]string
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Contains(resp["error"], "username")
}

type stubFeatures struct {
	priorities  map[string]string
	verdicts    map[string]summary.ModerationVerdict
	suggestions []string
	err         error
	batch       []summary.FeatureMessage
}

func (s *stubFeatures) Prioritize(ctx context.Context, msgs []summary.FeatureMessage) (map[string]string, error) {
	s.batch = msgs
	return s.priorities, s.err
}

func (s *stubFeatures) Moderate(ctx context.Context, msgs []summary.FeatureMessage) (map[string]summary.ModerationVerdict, error) {
	s.batch = msgs
	return s.verdicts, s.err
}

func (s *stubFeatures) SmartReplies(ctx context.Context, msgs []summary.FeatureMessage) ([]string, error) {
	s.batch = msgs
	return s.suggestions, s.err
}

const featureBatchJSON = `[
	{"id": "m1", "sender": "alice", "message": "deploy is broken"},
	{"id": "m2", "sender": "bob", "message": "coffee?"}
]`

func TestPrioritize_OK(t *testing.T) {
	req := require.New(t)
	stub := &stubFeatures{priorities: map[string]string{"m1": "Urgent", "m2": "Low"}}
	h := newFeatureHandler(t, stub)

	rec := httptest.NewRecorder()
	h.Prioritize(rec, httptest.NewRequest(http.MethodPost, "/api/features/prioritize",
		strings.NewReader(featureBatchJSON)))

	req.Equal(http.StatusOK, rec.Code)
	var resp map[string]string
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal("Urgent", resp["m1"])
	req.Len(stub.batch, 2)
	req.Equal("m1", stub.batch[0].ID)
	req.Equal("deploy is broken", stub.batch[0].Message)
}

func TestModerate_OK(t *testing.T) {
	req := require.New(t)
	stub := &stubFeatures{verdicts: map[string]summary.ModerationVerdict{
		"m1": {Safe: true},
		"m2": {Safe: false, Reason: "spam"},
	}}
	h := newFeatureHandler(t, stub)

	rec := httptest.NewRecorder()
	h.Moderate(rec, httptest.NewRequest(http.MethodPost, "/api/features/moderate",
		strings.NewReader(featureBatchJSON)))

	req.Equal(http.StatusOK, rec.Code)
	var resp map[string]summary.ModerationVerdict
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.True(resp["m1"].Safe)
	req.Equal("spam", resp["m2"].Reason)
}

func TestSmartReplies_OK(t *testing.T) {
	req := require.New(t)
	stub := &stubFeatures{suggestions: []string{"On it", "Who broke it?", "Rolling back"}}
	h := newFeatureHandler(t, stub)

	rec := httptest.NewRecorder()
	h.SmartReplies(rec, httptest.NewRequest(http.MethodPost, "/api/features/smart-replies",
		strings.NewReader(featureBatchJSON)))

	req.Equal(http.StatusOK, rec.Code)
	var resp SmartRepliesResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal([]string{"On it", "Who broke it?", "Rolling back"}, resp.Suggestions)
}

func TestFeatures_UpstreamFailure(t *testing.T) {
	req := require.New(t)
	stub := &stubFeatures{err: errors.New("moderate: upstream timeout")}
	h := newFeatureHandler(t, stub)

	rec := httptest.NewRecorder()
	h.Moderate(rec, httptest.NewRequest(http.MethodPost, "/api/features/moderate",
		strings.NewReader(featureBatchJSON)))

	req.Equal(http.StatusBadGateway, rec.Code)
	var resp map[string]string
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Contains(resp["error"], "moderation failed")
}

func TestFeatures_BadBody(t *testing.T) {
	req := require.New(t)
	h := newFeatureHandler(t, &stubFeatures{})

	rec := httptest.NewRecorder()
	h.Prioritize(rec, httptest.NewRequest(http.MethodPost, "/api/features/prioritize",
		strings.NewReader(`{"not": "an array"}`)))

	req.Equal(http.StatusBadRequest, rec.Code)
	var resp map[string]string
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Contains(resp["error"], "JSON array")
}

func TestOriginChecker(t *testing.T) {
	req := require.New(t)
	check := originChecker([]string{"https://chat.example.com"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.True(check(r), "no Origin header means a non-browser client")

	r.Header.Set("Origin", "https://chat.example.com")
	req.True(check(r))
	r.Header.Set("Origin", "HTTPS://CHAT.EXAMPLE.COM")
	req.True(check(r))
	r.Header.Set("Origin", "https://evil.example.com")
	req.False(check(r))

	allowAll := originChecker([]string{"*"})
	req.True(allowAll(r))
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickmoney/chat-service/internal/apperr"
	"github.com/quickmoney/chat-service/internal/config"
	"github.com/quickmoney/chat-service/internal/events"
	"github.com/quickmoney/chat-service/internal/models"
	"github.com/quickmoney/chat-service/internal/service"
	"github.com/quickmoney/chat-service/internal/ws"
)

type fakeStore struct {
	mu      sync.Mutex
	msgs    []*models.Message
	inserts int
	lists   int
}

func (s *fakeStore) Insert(_ context.Context, m *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	stored := *m
	stored.ID = fmt.Sprintf("m%d", s.inserts)
	s.msgs = append(s.msgs, &stored)
	return &stored, nil
}

func (s *fakeStore) ListByRoom(_ context.Context, roomID string) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	out := []*models.Message{}
	for _, m := range s.msgs {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *fakeStore) ListByParticipant(_ context.Context, userID string) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	out := []*models.Message{}
	for _, m := range s.msgs {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

type fakeProfiles struct{ known map[string]models.UserProfile }

func (p *fakeProfiles) FindProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	prof, ok := p.known[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
	}
	return &prof, nil
}

func newTestApp(profileIDs ...string) (*fiber.App, *fakeStore) {
	store := &fakeStore{}
	known := make(map[string]models.UserProfile, len(profileIDs))
	for _, id := range profileIDs {
		known[id] = models.UserProfile{ID: id, Name: "User " + id}
	}
	log := zap.NewNop().Sugar()
	dispatcher := events.NewDispatcher(log)
	svc := service.NewChatService(store, &fakeProfiles{known: known}, dispatcher, log, true)
	wsrv := ws.NewServer(svc, nil, log)
	dispatcher.Subscribe(wsrv.OnMessagePersisted)

	cfg := &config.Config{RequestTimeout: 5 * time.Second}
	cfg.App.Env = "test"
	return NewServer(cfg, svc, wsrv, nil, log), store
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestSendEndpoint_PersistsAndReturnsRecord(t *testing.T) {
	req := require.New(t)
	app, store := newTestApp()

	status, body := doJSON(t, app, http.MethodPost, "/api/chat/send",
		`{"senderId":"u1","receiverId":"u2","message":"hello"}`)

	req.Equal(http.StatusCreated, status)
	req.Equal(true, body["success"])
	data := body["data"].(map[string]any)
	req.Equal("u1-u2", data["roomId"])
	req.Equal("hello", data["message"])
	req.NotEmpty(data["id"])
	req.Equal(1, store.inserts)
}

func TestSendEndpoint_MissingFields(t *testing.T) {
	req := require.New(t)
	app, store := newTestApp()

	status, body := doJSON(t, app, http.MethodPost, "/api/chat/send",
		`{"senderId":"u1"}`)

	req.Equal(http.StatusBadRequest, status)
	req.Equal(false, body["success"])
	req.Zero(store.inserts)
}

func TestHistoryEndpoint_DeduplicatedAscending(t *testing.T) {
	req := require.New(t)
	app, _ := newTestApp()

	for _, payload := range []string{
		`{"senderId":"u1","receiverId":"u2","message":"hi","timestamp":"2025-01-01T00:00:01.000Z"}`,
		`{"senderId":"u1","receiverId":"u2","message":"hi","timestamp":"2025-01-01T00:00:01.500Z"}`,
	} {
		status, _ := doJSON(t, app, http.MethodPost, "/api/chat/send", payload)
		req.Equal(http.StatusCreated, status)
	}

	status, body := doJSON(t, app, http.MethodGet, "/api/chat/history/u1/u2", "")
	req.Equal(http.StatusOK, status)
	req.Equal(true, body["success"])
	req.EqualValues(1, body["count"])
	req.Equal("u1-u2", body["roomId"])
	req.Len(body["data"].([]any), 1)
}

func TestHistoryEndpoint_InvalidIDRejectedBeforeStore(t *testing.T) {
	req := require.New(t)
	app, store := newTestApp()

	status, body := doJSON(t, app, http.MethodGet, "/api/chat/history/bad%20id/u2", "")
	req.Equal(http.StatusBadRequest, status)
	req.Equal(false, body["success"])
	req.Zero(store.lists)
}

func TestConversationsEndpoint_ListsAndCounts(t *testing.T) {
	req := require.New(t)
	app, _ := newTestApp("u2", "u3")

	for _, payload := range []string{
		`{"senderId":"u1","receiverId":"u2","message":"hello","timestamp":"2025-01-01T00:00:00.100Z"}`,
		`{"senderId":"u2","receiverId":"u1","message":"hey","timestamp":"2025-01-01T00:00:00.200Z"}`,
		`{"senderId":"u1","receiverId":"u3","message":"yo","timestamp":"2025-01-01T00:00:00.300Z"}`,
	} {
		status, _ := doJSON(t, app, http.MethodPost, "/api/chat/send", payload)
		req.Equal(http.StatusCreated, status)
	}

	status, body := doJSON(t, app, http.MethodGet, "/api/chat/conversations/u1", "")
	req.Equal(http.StatusOK, status)
	req.EqualValues(2, body["count"])

	data := body["data"].([]any)
	first := data[0].(map[string]any)
	second := data[1].(map[string]any)
	req.Equal("u1-u3", first["roomId"])
	req.Equal("u1-u2", second["roomId"])
}

func TestConversationsEndpoint_InvalidID(t *testing.T) {
	req := require.New(t)
	app, _ := newTestApp()

	status, body := doJSON(t, app, http.MethodGet, "/api/chat/conversations/bad!id", "")
	req.Equal(http.StatusBadRequest, status)
	req.Equal(false, body["success"])
}

func TestSystemNotifyEndpoint(t *testing.T) {
	req := require.New(t)
	app, store := newTestApp()

	status, body := doJSON(t, app, http.MethodPost, "/api/chat/system",
		`{"borrowerId":"b1","lenderId":"l1","borrowerMessage":"approved","lenderMessage":"taken"}`)

	req.Equal(http.StatusCreated, status)
	req.Equal(true, body["success"])
	req.Len(body["data"].([]any), 2)
	req.Equal(2, store.inserts)
}

func TestPresenceEndpoint_DisabledReturnsNotFound(t *testing.T) {
	req := require.New(t)
	app, _ := newTestApp()

	status, body := doJSON(t, app, http.MethodGet, "/api/chat/presence/u1", "")
	req.Equal(http.StatusNotFound, status)
	req.Equal(false, body["success"])
}

package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shorelinehq/shoreline/internal/models"
)

type fakeStore struct {
	sessions  []models.Session
	upsertErr error
	listErr   error
}

func (f *fakeStore) Upsert(_ context.Context, session models.Session) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.sessions = append(f.sessions, session)
	return nil
}

func (f *fakeStore) List(_ context.Context, _ int) ([]models.Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sessions, nil
}

func newTestHandler(store SessionWriter) *SessionHandler {
	h := NewSessionHandler(store, nil)
	h.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestReceiveStoresNormalizedSession(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store)

	body := `{
		"sessionId": "session_42",
		"customerId": "jane_smith",
		"status": "Escalated to tier 2",
		"sentiment": "very frustrated",
		"tags": ["billing"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/session", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp receiveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "session_42", resp.SessionID)

	require.Len(t, store.sessions, 1)
	stored := store.sessions[0]
	assert.Equal(t, models.StatusEscalated, stored.Status)
	assert.Equal(t, models.SentimentFrustrated, stored.Sentiment)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), stored.CreatedAt)
	assert.NotNil(t, stored.Turns)
	assert.NotNil(t, stored.Tools)
}

func TestReceiveGeneratesSessionID(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/session", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.sessions, 1)
	assert.True(t, strings.HasPrefix(store.sessions[0].SessionID, "session_"))
	assert.Greater(t, len(store.sessions[0].SessionID), len("session_"))
	assert.Equal(t, "Unknown", store.sessions[0].CustomerID)
}

func TestReceiveRejectsMalformedJSON(t *testing.T) {
	h := newTestHandler(&fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/session", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiveWithoutStoreAnswers503(t *testing.T) {
	h := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/session", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReceiveSurfacesStoreFailure(t *testing.T) {
	h := newTestHandler(&fakeStore{upsertErr: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/session", strings.NewReader(`{"sessionId":"s1"}`))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListReturnsStoredSessions(t *testing.T) {
	store := &fakeStore{sessions: []models.Session{
		{SessionID: "session_1", CustomerID: "john_doe", Status: models.StatusOpen},
	}}
	h := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/webhook/sessions?limit=10", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success  bool             `json:"success"`
		Sessions []models.Session `json:"sessions"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "session_1", resp.Sessions[0].SessionID)
}

func TestListWithoutStoreAnswers503(t *testing.T) {
	h := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/webhook/sessions", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

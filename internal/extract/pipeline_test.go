package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shorelinehq/shoreline/internal/models"
)

func newTestPipeline(server *httptest.Server) *Pipeline {
	return NewPipeline(
		WithPipelineBaseURL(server.URL),
		WithPipelineHTTPClient(server.Client()),
		WithNow(func() time.Time { return testNow }),
	)
}

func TestPipelineCSVHappyPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/shrTest123.csv" {
			w.Write([]byte("a,b\n1,2\n3,4"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	batch, err := newTestPipeline(server).Extract(context.Background(), server.URL+"/shrTest123")

	require.NoError(t, err)
	assert.False(t, batch.Placeholder)
	assert.Equal(t, SourceLabelCSV, batch.Source)
	require.Equal(t, 2, batch.Count)
	require.Len(t, batch.Sessions, 2)
	// Rows keep their order and get synthesized IDs.
	assert.Equal(t, "session_1", batch.Sessions[0].SessionID)
	assert.Equal(t, "session_2", batch.Sessions[1].SessionID)
}

func TestPipelineRowCountMatchesCSV(t *testing.T) {
	body := "Session ID,Customer\n"
	for i := 0; i < 5; i++ {
		body += "sess_" + string(rune('a'+i)) + ",Ada\n"
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	batch, err := newTestPipeline(server).Extract(context.Background(), server.URL+"/shrRows1")

	require.NoError(t, err)
	assert.Equal(t, 5, batch.Count)
	assert.Equal(t, "sess_a", batch.Sessions[0].SessionID)
	assert.Equal(t, "sess_e", batch.Sessions[4].SessionID)
}

func TestPipelineInvalidLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no network call expected for an invalid link")
	}))
	defer server.Close()

	_, err := newTestPipeline(server).Extract(context.Background(), "https://example.com/nothing")

	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestPipelineExhaustionFallsBackToSampleData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	batch, err := newTestPipeline(server).Extract(context.Background(), server.URL+"/shrTest123")

	require.NoError(t, err)
	assert.True(t, batch.Placeholder)
	assert.Equal(t, SampleDataNote, batch.Note)
	assert.Equal(t, SourceLabelSample, batch.Source)
	require.Equal(t, 3, batch.Count)

	assert.Equal(t, "session_001", batch.Sessions[0].SessionID)
	assert.Equal(t, models.StatusResolved, batch.Sessions[0].Status)
	assert.Equal(t, models.StatusOpen, batch.Sessions[1].Status)
	assert.True(t, batch.Sessions[1].EscalationRecommended)
	assert.Equal(t, models.StatusEscalated, batch.Sessions[2].Status)
}

func TestPipelineHTMLRecordsPath(t *testing.T) {
	page := `<html><table>
	<tr><th>Session ID</th><th>Customer</th><th>Status</th></tr>
	<tr><td>sess_7</td><td>Ada</td><td>resolved</td></tr>
	</table></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/shrTest123" && r.URL.RawQuery == "" {
			w.Write([]byte(page))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	batch, err := newTestPipeline(server).Extract(context.Background(), server.URL+"/shrTest123")

	require.NoError(t, err)
	assert.Equal(t, SourceLabelHTML, batch.Source)
	assert.False(t, batch.Placeholder)
	require.Equal(t, 1, batch.Count)
	assert.Equal(t, "sess_7", batch.Sessions[0].SessionID)
	assert.Equal(t, models.StatusResolved, batch.Sessions[0].Status)
}

func TestPipelineHTMLWithoutRecordsFallsBackToSample(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/shrTest123" && r.URL.RawQuery == "" {
			w.Write([]byte("<html><p>nothing structured</p></html>"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	batch, err := newTestPipeline(server).Extract(context.Background(), server.URL+"/shrTest123")

	require.NoError(t, err)
	assert.True(t, batch.Placeholder)
	assert.Equal(t, 3, batch.Count)
}

func TestPipelineHeaderOnlyCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Session ID,Customer\n"))
	}))
	defer server.Close()

	batch, err := newTestPipeline(server).Extract(context.Background(), server.URL+"/shrTest123")

	require.NoError(t, err)
	assert.False(t, batch.Placeholder)
	assert.Zero(t, batch.Count)
	assert.Empty(t, batch.Sessions)
}

func TestSampleSessionsTimestampsOrdered(t *testing.T) {
	for _, session := range SampleSessions(testNow) {
		for i := 1; i < len(session.Turns); i++ {
			assert.True(t, session.Turns[i-1].Timestamp.Before(session.Turns[i].Timestamp))
		}
		for i := 1; i < len(session.Tools); i++ {
			assert.True(t, session.Tools[i-1].Timestamp.Before(session.Tools[i].Timestamp))
		}
	}
}

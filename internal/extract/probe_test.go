package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeReportsCSVResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("Session ID,Status\nsession_1,open\n"))
	}))
	defer server.Close()

	chain := NewChain(WithHTTPClient(server.Client()), WithBaseURL(server.URL))
	result := chain.Probe(context.Background(), server.URL+"/shrTest123.csv")

	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, result.LooksLikeCSV)
	assert.Contains(t, result.Preview, "Session ID")
	assert.Empty(t, result.Error)
}

func TestProbeTruncatesPreview(t *testing.T) {
	long := "h1,h2\n" + strings.Repeat("a,b\n", 200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(long))
	}))
	defer server.Close()

	chain := NewChain(WithHTTPClient(server.Client()))
	result := chain.Probe(context.Background(), server.URL+"/data")

	assert.Equal(t, len(long), result.Length)
	assert.Len(t, result.Preview, probePreviewBytes)
}

func TestProbeReportsTransportError(t *testing.T) {
	chain := NewChain()
	result := chain.Probe(context.Background(), "http://127.0.0.1:1/unreachable")

	assert.NotEmpty(t, result.Error)
	assert.Zero(t, result.Status)
}

func TestAnalyzePageDetectsMarkers(t *testing.T) {
	page := `<html><script>window.initData = {"rawTables":{}};</script>` +
		`<script>urlWithParams:"/v0.3/view/shrTest123/readSharedViewData"</script>` +
		`"downloadCsv" appABCDE12345</html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	chain := NewChain(WithHTTPClient(server.Client()))
	analysis := chain.AnalyzePage(context.Background(), server.URL+"/shrTest123")

	assert.Equal(t, http.StatusOK, analysis.Status)
	assert.True(t, analysis.HasInitData)
	assert.True(t, analysis.HasDownloadCSVMarker)
	assert.True(t, analysis.HasApplicationID)
	assert.True(t, analysis.HasEmbeddedAPIURL)
}

func TestAnalyzePageWithoutMarkers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>nothing here</body></html>"))
	}))
	defer server.Close()

	chain := NewChain(WithHTTPClient(server.Client()))
	analysis := chain.AnalyzePage(context.Background(), server.URL+"/page")

	assert.False(t, analysis.HasInitData)
	assert.False(t, analysis.HasDownloadCSVMarker)
	assert.False(t, analysis.HasEmbeddedAPIURL)
}

package extract

import (
	"context"
	"io"
	"net/http"
	"strings"
)

const probePreviewBytes = 200

// ProbeResult describes a single candidate-URL fetch for diagnostics.
type ProbeResult struct {
	URL          string `json:"url"`
	Status       int    `json:"status"`
	ContentType  string `json:"contentType"`
	Length       int    `json:"length"`
	Preview      string `json:"preview"`
	LooksLikeCSV bool   `json:"looksLikeCsv"`
	Error        string `json:"error,omitempty"`
}

// PageAnalysis summarizes what the shared-view page itself contains, so
// an operator can see which extraction routes are viable for a link.
type PageAnalysis struct {
	Status               int  `json:"status"`
	Length               int  `json:"length"`
	HasInitData          bool `json:"hasInitData"`
	HasDownloadCSVMarker bool `json:"hasDownloadCsvMarker"`
	HasApplicationID     bool `json:"hasApplicationId"`
	HasEmbeddedAPIURL    bool `json:"hasEmbeddedApiUrl"`
}

// Probe fetches one URL with the same browser headers the strategies use
// and reports what came back. Failures are reported, not returned.
func (c *Chain) Probe(ctx context.Context, url string) ProbeResult {
	result := ProbeResult{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", csvAccept)

	resp, err := c.client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	result.Status = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	content := string(body)
	result.Length = len(content)
	result.LooksLikeCSV = LooksLikeCSV(content)
	if len(content) > probePreviewBytes {
		content = content[:probePreviewBytes]
	}
	result.Preview = content
	return result
}

// AnalyzePage fetches the shared-view page and reports which extraction
// markers it carries.
func (c *Chain) AnalyzePage(ctx context.Context, link string) PageAnalysis {
	analysis := PageAnalysis{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return analysis
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", htmlAccept)

	resp, err := c.client.Do(req)
	if err != nil {
		return analysis
	}
	defer resp.Body.Close()

	analysis.Status = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return analysis
	}
	page := string(body)
	analysis.Length = len(page)
	analysis.HasInitData = initDataPattern.MatchString(page)
	analysis.HasDownloadCSVMarker = strings.Contains(page, downloadCSVMarker)
	analysis.HasApplicationID = applicationIDPattern.MatchString(page)
	analysis.HasEmbeddedAPIURL = apiURLPattern.MatchString(page)
	return analysis
}

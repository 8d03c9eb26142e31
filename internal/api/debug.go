package api

import (
	"net/http"

	"github.com/shorelinehq/shoreline/internal/extract"
)

// Debug handles POST /api/spreadsheet/debug. It probes every candidate
// URL the acquisition strategies would try and analyzes the shared-view
// page itself, so an operator can see why a link does or does not yield
// data.
func (h *SpreadsheetHandler) Debug(w http.ResponseWriter, r *http.Request) {
	link, ok := decodeLink(w, r)
	if !ok {
		return
	}

	shareID, err := extract.ExtractShareID(link)
	if err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "could not find a share ID in that link; " + linkGuidance})
		return
	}

	chain := h.Pipeline.Chain()

	candidates := chain.DirectCSVURLs(shareID)
	candidates = append(candidates, chain.AlternativeURLs(link)...)
	candidates = append(candidates, chain.DirectDownloadURLs(shareID)...)

	probes := make([]extract.ProbeResult, 0, len(candidates))
	for _, url := range candidates {
		probes = append(probes, chain.Probe(r.Context(), url))
		if r.Context().Err() != nil {
			break
		}
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"shareId":    shareID,
		"candidates": probes,
		"page":       chain.AnalyzePage(r.Context(), link),
	})
}

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
)

// HTMLResult is what HTML extraction produced: either CSV content routed
// from a discovered download endpoint, or flat records, or neither.
type HTMLResult struct {
	CSV     string
	CSVURL  string
	Records []Row
}

// Empty reports whether extraction produced nothing usable.
func (r HTMLResult) Empty() bool {
	return r.CSV == "" && len(r.Records) == 0
}

const maxSniffedRecords = 10

var (
	initDataPattern      = regexp.MustCompile(`(?s)window\.initData\s*=\s*(\{.*?\});`)
	downloadCSVMarker    = `"downloadCsv"`
	applicationIDPattern = regexp.MustCompile(`app[a-zA-Z0-9]{5,}`)
	apiURLPattern        = regexp.MustCompile(`urlWithParams:\s*"([^"]+)"`)
	jsonObjectPattern    = regexp.MustCompile(`\{[^{}]*"[^"]*":\s*"[^"]*"[^{}]*\}`)
	tablePattern         = regexp.MustCompile(`(?s)<table[^>]*>(.*?)</table>`)
	tableRowPattern      = regexp.MustCompile(`(?s)<tr[^>]*>(.*?)</tr>`)
	tableHeadPattern     = regexp.MustCompile(`(?s)<th[^>]*>(.*?)</th>`)
	tableCellPattern     = regexp.MustCompile(`(?s)<td[^>]*>(.*?)</td>`)
	htmlTagPattern       = regexp.MustCompile(`<[^>]*>`)
)

// Extractor pulls structured records out of a fetched shared-view page.
// Sub-strategies run in order and short-circuit on the first non-empty
// result; a parse failure inside one falls through to the next.
type Extractor struct {
	client  *http.Client
	baseURL string
}

// NewExtractor builds an Extractor sharing the chain's client and host.
func NewExtractor(client *http.Client, baseURL string) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Extractor{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Extract runs the sub-strategies against page content fetched from link.
func (e *Extractor) Extract(ctx context.Context, page, link string) HTMLResult {
	if result := e.fromInitData(ctx, page, link); !result.Empty() {
		return result
	}
	if records := e.fromEmbeddedAPI(ctx, page, link); len(records) > 0 {
		return HTMLResult{Records: records}
	}
	if records := sniffJSONRecords(page); len(records) > 0 {
		return HTMLResult{Records: records}
	}
	return HTMLResult{Records: parseHTMLTable(page)}
}

// fromInitData locates the embedded initialization blob. When the access
// policy allows CSV download, the discovered identifiers are used for a
// direct CSV re-fetch, which routes straight back to CSV parsing.
func (e *Extractor) fromInitData(ctx context.Context, page, link string) HTMLResult {
	match := initDataPattern.FindStringSubmatch(page)
	if match == nil {
		return HTMLResult{}
	}

	var initData map[string]any
	if err := json.Unmarshal([]byte(match[1]), &initData); err != nil {
		log.Printf("extract: init data blob is not valid JSON: %v", err)
		return HTMLResult{}
	}

	if !strings.Contains(page, downloadCSVMarker) {
		return HTMLResult{}
	}

	shareID, err := ExtractShareID(link)
	if err != nil {
		return HTMLResult{}
	}

	headers := map[string]string{
		"User-Agent": browserUserAgent,
		"Referer":    link,
		"Accept":     csvAccept,
	}
	if appID := applicationIDPattern.FindString(page); appID != "" {
		headers["x-airtable-application-id"] = appID
		headers["x-airtable-user-id"] = "anonymous"
	}

	url := fmt.Sprintf("%s/v0.3/view/%s/downloadCsv", e.baseURL, shareID)
	body, ok := fetchURL(ctx, e.client, url, headers)
	if ok && LooksLikeCSV(body) && len(body) > minDirectCSVLength {
		log.Printf("extract: init-data CSV re-fetch succeeded for %s", shareID)
		return HTMLResult{CSV: body, CSVURL: url}
	}
	return HTMLResult{}
}

// fromEmbeddedAPI discovers the page's own API call, replays it with JSON
// headers, and walks the known response shapes for a record list.
func (e *Extractor) fromEmbeddedAPI(ctx context.Context, page, link string) []Row {
	match := apiURLPattern.FindStringSubmatch(page)
	if match == nil {
		return nil
	}

	// Script blobs escape path separators as literal \u002F sequences.
	apiPath := strings.ReplaceAll(match[1], `\u002F`, "/")
	if !strings.HasPrefix(apiPath, "/") {
		apiPath = "/" + apiPath
	}

	headers := map[string]string{
		"User-Agent":       browserUserAgent,
		"Referer":          link,
		"Accept":           "application/json, text/javascript, */*; q=0.01",
		"X-Requested-With": "XMLHttpRequest",
		"x-time-zone":      "UTC",
	}
	if appID := applicationIDPattern.FindString(page); appID != "" {
		headers["x-airtable-application-id"] = appID
	}

	body, ok := fetchURL(ctx, e.client, e.baseURL+apiPath, headers)
	if !ok {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		log.Printf("extract: embedded API response is not JSON: %v", err)
		return nil
	}

	records := collectAPIRecords(payload)
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		if row := flattenRecord(record); len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if len(rows) > maxSniffedRecords {
		rows = rows[:maxSniffedRecords]
	}
	return rows
}

// collectAPIRecords walks the known response shapes: data.tables[*].rows,
// tables[*].rows, rows, data.rows.
func collectAPIRecords(payload map[string]any) []map[string]any {
	if data, ok := payload["data"].(map[string]any); ok {
		if records := rowsFromTables(data["tables"]); len(records) > 0 {
			return records
		}
		if records := anyRows(data["rows"]); len(records) > 0 {
			return records
		}
	}
	if records := rowsFromTables(payload["tables"]); len(records) > 0 {
		return records
	}
	return anyRows(payload["rows"])
}

func rowsFromTables(tables any) []map[string]any {
	var records []map[string]any
	switch typed := tables.(type) {
	case map[string]any:
		for _, table := range typed {
			if t, ok := table.(map[string]any); ok {
				records = append(records, anyRows(t["rows"])...)
			}
		}
	case []any:
		for _, table := range typed {
			if t, ok := table.(map[string]any); ok {
				records = append(records, anyRows(t["rows"])...)
			}
		}
	}
	return records
}

func anyRows(rows any) []map[string]any {
	var records []map[string]any
	switch typed := rows.(type) {
	case []any:
		for _, row := range typed {
			if r, ok := row.(map[string]any); ok {
				records = append(records, r)
			}
		}
	case map[string]any:
		for _, row := range typed {
			if r, ok := row.(map[string]any); ok {
				records = append(records, r)
			}
		}
	}
	return records
}

// flattenRecord prefers a fields sub-object, then a cellValuesByFieldId
// map re-keyed by field id, then the record itself.
func flattenRecord(record map[string]any) Row {
	if fields, ok := record["fields"].(map[string]any); ok {
		return stringifyValues(fields, "")
	}
	if cells, ok := record["cellValuesByFieldId"].(map[string]any); ok {
		return stringifyValues(cells, "field_")
	}
	return stringifyValues(record, "")
}

func stringifyValues(values map[string]any, keyPrefix string) Row {
	row := Row{}
	for key, value := range values {
		row[keyPrefix+key] = stringifyValue(value)
	}
	return row
}

func stringifyValue(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case nil:
		return ""
	case float64, bool:
		return fmt.Sprint(typed)
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(encoded)
	}
}

// sniffJSONRecords scans the whole document for small JSON object
// literals that look like data rather than configuration, capped to a
// small count.
func sniffJSONRecords(page string) []Row {
	matches := jsonObjectPattern.FindAllString(page, -1)
	records := []Row{}
	for _, candidate := range matches {
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
			continue
		}
		if len(obj) < 3 || !looksLikeDataObject(obj) {
			continue
		}
		records = append(records, stringifyValues(obj, ""))
		if len(records) == maxSniffedRecords {
			break
		}
	}
	return records
}

// looksLikeDataObject requires at least one plainly-named key holding a
// short non-empty string; objects made of config or token keys fail.
func looksLikeDataObject(obj map[string]any) bool {
	for key, value := range obj {
		if strings.HasPrefix(key, "_") || strings.Contains(key, "Config") || strings.Contains(key, "Token") {
			continue
		}
		if s, ok := value.(string); ok && s != "" && len(s) < 200 {
			return true
		}
	}
	return false
}

// parseHTMLTable falls back to a literal <table> block, reading headers
// from the first row and stripping tags from every cell.
func parseHTMLTable(page string) []Row {
	table := tablePattern.FindStringSubmatch(page)
	if table == nil {
		return nil
	}

	rows := tableRowPattern.FindAllStringSubmatch(table[1], -1)
	if len(rows) < 2 {
		return nil
	}

	headers := cellTexts(tableHeadPattern, rows[0][1])
	if len(headers) == 0 {
		headers = cellTexts(tableCellPattern, rows[0][1])
	}
	if len(headers) == 0 {
		return nil
	}

	records := []Row{}
	for _, row := range rows[1:] {
		values := cellTexts(tableCellPattern, row[1])
		if len(values) == 0 {
			continue
		}
		record := Row{}
		for i, header := range headers {
			if i < len(values) {
				record[header] = values[i]
			} else {
				record[header] = ""
			}
		}
		records = append(records, record)
	}
	return records
}

func cellTexts(pattern *regexp.Regexp, rowHTML string) []string {
	cells := pattern.FindAllStringSubmatch(rowHTML, -1)
	texts := make([]string, 0, len(cells))
	for _, cell := range cells {
		texts = append(texts, strings.TrimSpace(htmlTagPattern.ReplaceAllString(cell[1], "")))
	}
	return texts
}

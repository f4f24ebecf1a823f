package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/leelsey/recvd/internal/jsonpath"
	"github.com/leelsey/recvd/pkg/capture"
	"github.com/leelsey/recvd/pkg/httputil"
)

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime int    `json:"uptime"`
}

// ListenerStatus describes the capture listener inside a status response.
type ListenerStatus struct {
	Running  bool   `json:"running"`
	Addr     string `json:"addr,omitempty"`
	Port     int    `json:"port,omitempty"`
	Uptime   int    `json:"uptime"`
	Verbose  bool   `json:"verbose"`
	ViewPath string `json:"viewPath,omitempty"`
}

// StatusResponse is the GET /status body.
type StatusResponse struct {
	Status          string          `json:"status"`
	Version         string          `json:"version"`
	AdminPort       int             `json:"adminPort"`
	Uptime          int             `json:"uptime"`
	EntryCount      int             `json:"entryCount"`
	WebVisibleCount int             `json:"webVisibleCount"`
	Listener        *ListenerStatus `json:"listener,omitempty"`
}

// EntryListResponse is the GET /entries body.
type EntryListResponse struct {
	Entries []*capture.Entry `json:"entries"`
	Count   int              `json:"count"`
	Total   int              `json:"total"`
}

// handleHealth handles GET /health.
func (a *AdminAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, HealthResponse{
		Status: "ok",
		Uptime: a.Uptime(),
	})
}

// handleGetStatus handles GET /status.
func (a *AdminAPI) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	version := a.version
	if version == "" {
		version = "dev"
	}

	resp := StatusResponse{
		Status:          "ok",
		Version:         version,
		AdminPort:       a.Port(),
		Uptime:          a.Uptime(),
		EntryCount:      a.store.Count(),
		WebVisibleCount: len(a.store.WebVisible()),
	}

	if a.receiver != nil {
		status := &ListenerStatus{
			Running: a.receiver.IsRunning(),
			Addr:    a.receiver.Addr(),
			Port:    a.receiver.Port(),
			Uptime:  a.receiver.Uptime(),
		}
		if cfg := a.receiver.Config(); cfg != nil {
			status.Verbose = cfg.Verbose
			status.ViewPath = cfg.ViewPath
		}
		resp.Listener = status
		if !status.Running {
			resp.Status = "degraded"
		}
	}

	httputil.WriteOK(w, resp)
}

// handleListEntries handles GET /entries.
//
// Query Parameters:
//   - kind: filter by classification (root, view, favicon, named)
//   - method: filter by HTTP method (case insensitive)
//   - path: filter by path prefix
//   - label: filter by label substring
//   - cliOnly: exclude (default), include, or only
//   - jsonpath: keep entries whose query echo or body matches the expression
//   - limit: maximum number of entries to return
//   - offset: pagination offset
func (a *AdminAPI) handleListEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := &capture.Filter{
		Kind: query.Get("kind"),
		Path: query.Get("path"),
	}
	if method := query.Get("method"); method != "" {
		filter.Method = strings.ToUpper(method)
	}

	switch query.Get("cliOnly") {
	case "", "exclude":
		visible := false
		filter.CLIOnly = &visible
	case "include":
		// No visibility filter.
	case "only":
		hidden := true
		filter.CLIOnly = &hidden
	default:
		httputil.WriteBadRequest(w, "invalid_filter", "cliOnly must be exclude, include, or only")
		return
	}

	// Label and jsonpath narrow the result after the store filter, so
	// limit and offset are applied here rather than by the store.
	entries := a.store.List(filter)

	if label := query.Get("label"); label != "" {
		filtered := make([]*capture.Entry, 0, len(entries))
		for _, entry := range entries {
			if strings.Contains(entry.Label, label) {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	if expr := query.Get("jsonpath"); expr != "" {
		q, err := jsonpath.Compile(expr)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid_jsonpath", err.Error())
			return
		}
		filtered := make([]*capture.Entry, 0, len(entries))
		for _, entry := range entries {
			if q.MatchesAny([]byte(entry.QueryValue), []byte(entry.Body)) {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	if offset, ok := parseNonNegativeInt(query.Get("offset")); ok {
		if offset >= len(entries) {
			entries = entries[:0]
		} else {
			entries = entries[offset:]
		}
	}
	if limit, ok := parsePositiveInt(query.Get("limit")); ok && limit < len(entries) {
		entries = entries[:limit]
	}

	if entries == nil {
		entries = []*capture.Entry{}
	}
	httputil.WriteOK(w, EntryListResponse{
		Entries: entries,
		Count:   len(entries),
		Total:   a.store.Count(),
	})
}

// handleGetEntry handles GET /entries/{id}.
func (a *AdminAPI) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.WriteBadRequest(w, "missing_id", "Entry ID is required")
		return
	}

	entry := a.store.Get(id)
	if entry == nil {
		httputil.WriteNotFound(w, "not_found", "Entry not found")
		return
	}
	httputil.WriteOK(w, entry)
}

// parsePositiveInt returns a parsed int only when the value is a valid
// positive integer.
func parsePositiveInt(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseNonNegativeInt returns a parsed int only when the value is a
// valid non-negative integer.
func parseNonNegativeInt(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

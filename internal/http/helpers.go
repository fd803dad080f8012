package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"spendlite/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// filterFromQuery builds a filter from the shared query parameters used by
// the list, aggregation, and export endpoints. The value "all" for kind and
// category means no restriction, matching the select widgets of the UI.
func filterFromQuery(q url.Values) core.FilterSpec {
	var f core.FilterSpec

	if kind := strings.TrimSpace(q.Get("kind")); kind != "" && kind != "all" {
		f.Kind = core.Kind(kind)
	}
	if cat := strings.TrimSpace(q.Get("category")); cat != "" && cat != "all" {
		f.Category = cat
	}
	f.From = strings.TrimSpace(q.Get("from"))
	f.To = strings.TrimSpace(q.Get("to"))
	f.Search = strings.TrimSpace(q.Get("q"))

	return f
}

// filterCacheKey canonicalizes a filter into a cache key. Two requests with
// the same effective filter share one entry regardless of parameter order.
func filterCacheKey(f core.FilterSpec) string {
	return strings.Join([]string{
		string(f.Kind), f.Category, f.From, f.To, strings.ToLower(f.Search),
	}, "\x00")
}

package web

import (
	"net/http"
	"strconv"
	"time"
)

// handleAdminPerf serves GET /admin/perf?minutes=&top= as JSON.
// The window defaults to the last hour and lists the ten slowest labels per kind.
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if perfCollector == nil {
		http.Error(w, "performance collection disabled", http.StatusNotFound)
		return
	}

	window, top := time.Hour, 10
	if n, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && n > 0 {
		window = min(time.Duration(n)*time.Minute, 24*time.Hour)
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && n > 0 {
		top = min(n, 100)
	}

	report := perfCollector.Report(timeNow().Add(-window), top)
	writeJSON(w, http.StatusOK, map[string]any{
		"report":               report,
		"request_failure_rate": report.Requests.FailureRate(),
		"query_failure_rate":   report.Queries.FailureRate(),
	})
}

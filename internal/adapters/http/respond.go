package web

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// timeNow is swapped by tests for a fixed clock.
var timeNow = time.Now

const msgInternalError = "Ein Fehler ist aufgetreten. Bitte versuchen Sie es später erneut."

func generateID() string { return uuid.NewString() }

// internalError logs err and answers 500 without leaking details.
func internalError(w http.ResponseWriter, err error) {
	logError("internal_error", err)
	http.Error(w, msgInternalError, http.StatusInternalServerError)
}

func logError(event string, err error) {
	slog.Error(event, "error", err)
}

func isJSONRequest(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// strictDecode reads one JSON document from the body and refuses unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logError("json_encode_failed", err)
	}
}

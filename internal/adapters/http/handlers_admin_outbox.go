package web

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	outboxStore "innercircle/internal/adapters/storage/outbox"
	"innercircle/internal/application/orchestrators"
	"innercircle/internal/domain/outbox"
)

// outboxView is the JSON body of GET /admin/outbox.
type outboxView struct {
	Counts  map[string]int `json:"counts"`
	Entries []outbox.Entry `json:"entries"`
}

// handleAdminOutbox serves the mail queue for admins.
//
//	GET  /admin/outbox?status=&kind=&recipient=&limit=  queue counts plus matching entries
//	POST /admin/outbox/{id}/retry                       requeue and send now
//	POST /admin/outbox/{id}/abandon                     stop delivery
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		listOutbox(w, r)
	case "POST":
		changeOutboxEntry(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := outboxStore.ListFilter{
		Status:    q.Get("status"),
		Kind:      q.Get("kind"),
		Recipient: q.Get("recipient"),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 && n <= 200 {
		filter.Limit = n
	}

	entries, err := stores.OutboxStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	counts, err := stores.OutboxStore.CountByStatus(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	if entries == nil {
		entries = []outbox.Entry{}
	}
	writeJSON(w, http.StatusOK, outboxView{Counts: counts, Entries: entries})
}

func changeOutboxEntry(w http.ResponseWriter, r *http.Request) {
	id, action, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/admin/outbox/"), "/")
	if !ok || id == "" || strings.Contains(action, "/") {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, settings.OutboxExecutors)

	var (
		entry outbox.Entry
		err   error
	)
	switch action {
	case "retry":
		entry, err = processor.Retry(r.Context(), id)
	case "abandon":
		entry, err = processor.Abandon(r.Context(), id)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "outbox entry not found", http.StatusNotFound)
	case errors.Is(err, outbox.ErrNotRequeueable), errors.Is(err, outbox.ErrAlreadySent):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		internalError(w, err)
	default:
		writeJSON(w, http.StatusOK, entry)
	}
}

package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"innercircle/internal/adapters/storage/storagetest"
	domain "innercircle/internal/domain/audit"
)

var t0 = time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

var admin = domain.Actor{ID: "acc-1", Email: "Admin@Example.de", Role: "admin", IPAddress: "10.0.0.1"}

// seedEvents writes a login, a lead update and a lead deletion one minute apart.
func seedEvents(t *testing.T, s Store) []domain.Event {
	t.Helper()
	update := domain.New("e2", t0.Add(time.Minute), admin, domain.CategoryLead, domain.ActionUpdate).About("lead", "l1")
	update.Description = "Status auf approved gesetzt"
	del := domain.New("e3", t0.Add(2*time.Minute), admin, domain.CategoryLead, domain.ActionDelete).About("lead", "l2")
	del.Severity = domain.SeverityWarning

	events := []domain.Event{
		domain.New("e1", t0, admin, domain.CategorySecurity, domain.ActionLogin),
		update,
		del,
	}
	for _, e := range events {
		if err := s.Save(context.Background(), e); err != nil {
			t.Fatalf("Save(%s): %v", e.ID, err)
		}
	}
	return events
}

// exerciseStore is the behaviour both drivers share.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	seedEvents(t, s)

	if err := s.Save(ctx, domain.Event{ID: "bad"}); !errors.Is(err, domain.ErrEmptyCategory) {
		t.Errorf("Save(invalid) = %v, want ErrEmptyCategory", err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"e3", "e2", "e1"}},
		{"category", Filter{Category: domain.CategoryLead}, []string{"e3", "e2"}},
		{"action", Filter{Action: domain.ActionLogin}, []string{"e1"}},
		{"actor email is normalised", Filter{ActorEmail: " ADMIN@example.de "}, []string{"e3", "e2", "e1"}},
		{"resource", Filter{ResourceID: "l1"}, []string{"e2"}},
		{"min severity", Filter{MinSeverity: domain.SeverityWarning}, []string{"e3"}},
		{"search description", Filter{Search: "APPROVED"}, []string{"e2"}},
		{"time window", Filter{From: t0.Add(30 * time.Second), To: t0.Add(2 * time.Minute)}, []string{"e2"}},
		{"limit", Filter{Limit: 1}, []string{"e3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %v", len(got), tt.want)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("event[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}

	got, err := s.GetByID(ctx, "e3")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Timestamp.Equal(t0.Add(2*time.Minute)) || got.ActorEmail != "admin@example.de" ||
		got.Severity != domain.SeverityWarning || got.Resource() != "lead l2" || got.IPAddress != "10.0.0.1" {
		t.Errorf("GetByID round trip = %+v", got)
	}
	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID(missing) = %v, want sql.ErrNoRows", err)
	}

	n, err := s.DeleteBefore(ctx, t0.Add(90*time.Second))
	if err != nil || n != 2 {
		t.Fatalf("DeleteBefore = %d, %v; want 2", n, err)
	}
	rest, _ := s.List(ctx, Filter{})
	if len(rest) != 1 || rest[0].ID != "e3" {
		t.Errorf("after DeleteBefore got %+v", rest)
	}
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, NewSQLiteStore(storagetest.OpenSQLite(t)))
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"innercircle/internal/adapters/http/perf"
)

const insertLead = `INSERT INTO lead (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

func openMigratedDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	return db
}

func TestTimedDB_ObservesEachCall(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openMigratedDB(t), collector, time.Second)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, insertLead, "l1", "Anna", "anna@example.de", "x", "x"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM lead")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()
	var name string
	if err := tdb.QueryRowContext(ctx, "SELECT name FROM lead WHERE id = ?", "l1").Scan(&name); err != nil || name != "Anna" {
		t.Fatalf("QueryRowContext: %q %v", name, err)
	}
	tx, err := tdb.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	tx.Rollback()

	if collector.Total() != 4 {
		t.Fatalf("Total = %d, want 4", collector.Total())
	}
	labels := map[string]int{}
	for _, st := range collector.Report(time.Time{}, 0).Queries.Slowest {
		labels[st.Label] = st.Count
	}
	if labels["SELECT lead"] != 2 || labels["INSERT lead"] != 1 || labels["BEGIN"] != 1 {
		t.Errorf("labels = %v", labels)
	}
}

func TestTimedDB_Failures(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openMigratedDB(t), collector, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO nonexistent VALUES (?)", 1); err == nil {
		t.Error("expected an error for a missing table")
	}
	if _, err := tdb.QueryContext(ctx, "SELECT * FROM nonexistent"); err == nil {
		t.Error("expected an error for a missing table")
	}
	var name string
	if err := tdb.QueryRowContext(ctx, "SELECT name FROM lead WHERE id = ?", "missing").Scan(&name); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
	if q := collector.Report(time.Time{}, 0).Queries; q.Count != 3 || q.Failures != 2 {
		t.Errorf("queries = %d failures = %d, want 3 and 2", q.Count, q.Failures)
	}
}

func TestTimedDB_CancelledContext(t *testing.T) {
	tdb := NewTimedDB(openMigratedDB(t), nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tdb.ExecContext(ctx, insertLead, "l1", "Anna", "anna@example.de", "x", "x"); err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}

func TestQueryLabel(t *testing.T) {
	tests := []struct {
		query, want string
	}{
		{"SELECT id\n\t FROM lead WHERE id = ?", "SELECT lead"},
		{`select id, "timestamp" from audit_event`, "SELECT audit_event"},
		{"INSERT INTO recipe_download(id) VALUES (?)", "INSERT recipe_download"},
		{"UPDATE invitation SET used_at = ?", "UPDATE invitation"},
		{"DELETE FROM outbox WHERE status = 'sent'", "DELETE outbox"},
		{"SELECT 1", "SELECT"},
		{"PRAGMA user_version", "PRAGMA"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := queryLabel(tt.query); got != tt.want {
			t.Errorf("queryLabel(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestTimedDB_Concurrent(t *testing.T) {
	collector := perf.NewCollector(1000)
	tdb := NewTimedDB(openMigratedDB(t), collector, 0)
	ctx := context.Background()
	tdb.ExecContext(ctx, insertLead, "seed", "Seed", "seed@example.de", "x", "x")

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				switch i {
				case 0:
					tdb.ExecContext(ctx, `UPDATE lead SET notes = ? WHERE id = 'seed'`, "n")
				case 1:
					if rows, err := tdb.QueryContext(ctx, "SELECT id FROM lead"); err == nil {
						rows.Close()
					}
				default:
					var name string
					tdb.QueryRowContext(ctx, "SELECT name FROM lead WHERE id = 'seed'").Scan(&name)
				}
			}
		}()
	}
	wg.Wait()
	if collector.Total() != 61 {
		t.Errorf("Total = %d, want 61", collector.Total())
	}
}

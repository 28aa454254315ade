package storage

import (
	"database/sql"
	"time"
)

// DateLayout is how SQLite stores persist timestamps: RFC 3339 with all nine
// fractional digits, so every value has the same width.
const DateLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t for a TEXT column in UTC. Fixed width plus a single zone
// make string comparison in SQL agree with time order.
func FormatTime(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// NullableTime renders t for a nullable TEXT column; the zero time becomes NULL.
func NullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// ParseTime reads a timestamp written by FormatTime. Unparseable values yield the zero time.
func ParseTime(s string) time.Time {
	for _, layout := range []string{DateLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseNullTime reads a nullable timestamp column.
func ParseNullTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	return ParseTime(ns.String)
}

// TimeFromNull converts a Postgres nullable timestamp to the zero-value convention.
func TimeFromNull(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time
}

// NullFromTime converts the zero-value convention to a Postgres nullable timestamp.
func NullFromTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

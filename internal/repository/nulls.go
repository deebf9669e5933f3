package repository

import (
	"database/sql"
	"strings"
	"time"
)

// dateLayout is the wire and storage format of calendar dates.
const dateLayout = "2006-01-02"

// nullable converts an optional string into a driver value; nil and blank
// strings are stored as NULL.
func nullable(s *string) interface{} {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// formatDate renders a DATE column scanned as time.Time.  Both drivers
// return dates at UTC midnight.
func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

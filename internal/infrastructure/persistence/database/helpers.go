// Package database provides database helper functions
package database

import (
	"fmt"
	"time"

	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/pkg/config"
)

// SQLiteTimeFormat is the timestamp layout stored in the database.
const SQLiteTimeFormat = "2006-01-02 15:04:05"

// FormatTime renders a timestamp in the stored layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(SQLiteTimeFormat)
}

// ParseTimestamp handles the timestamp formats found in stored rows.
func ParseTimestamp(timestampStr string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, timestampStr); err == nil {
		return t, nil
	}
	if t, err := time.Parse(SQLiteTimeFormat, timestampStr); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000Z", timestampStr); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp format: %s", timestampStr)
}

// CheckAndLogSlowQuery checks if a query duration exceeds the configured
// threshold and logs it on the slow-query channel if it does.
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration) {
	if duration > config.GetSlowQueryThreshold() {
		logger.LogSlowQuery(query, duration)
	}
}

package store

import (
	"fmt"
	"strings"
	"time"
)

// Timestamps are stored as RFC 3339 text in UTC.
func formatTime(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

// storedTime scans a TEXT timestamp column. NULL and empty text scan to the
// zero time.
type storedTime struct {
	time.Time
}

// Rows written by older tools may carry the sqlite CURRENT_TIMESTAMP layout.
var storedTimeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05"}

func (t *storedTime) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into a timestamp", src)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range storedTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			t.Time = ts.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// ptr returns nil for the zero time.
func (t storedTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	ts := t.Time
	return &ts
}

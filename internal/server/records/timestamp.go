package records

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

type timestamp struct {
	dst *time.Time
}

// Timestamp returns a scan target for TIMESTAMP columns. Postgres returns
// time.Time; SQLite may hand back text when it cannot see the declared type.
func Timestamp(dst *time.Time) sql.Scanner {
	return timestamp{dst: dst}
}

func (t timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t.dst = v
		return nil
	case nil:
		*t.dst = time.Time{}
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t timestamp) parse(s string) error {
	// time.Time.String appends the monotonic reading.
	if i := strings.Index(s, " m="); i >= 0 {
		s = s[:i]
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t.dst = parsed
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

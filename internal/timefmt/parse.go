package timefmt

import (
	"errors"
	"strings"
	"time"
)

var ErrEmptyTimestamp = errors.New("empty timestamp")

// naive layouts are read in the local zone, the way a browser reads an ISO
// string without an offset.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp reads an arrival timestamp attribute.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyTimestamp
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, perr := time.ParseInLocation(layout, s, time.Local); perr == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

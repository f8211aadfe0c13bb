package relation

import (
	"strings"
	"time"
)

// dateOnlyLayouts carry no time of day and are never shifted to another zone.
var dateOnlyLayouts = []string{
	time.DateOnly,
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// formatDate renders a raw date value with opts.DateLayout. Values already
// rendered in that layout are returned unchanged.
func formatDate(v any, opts Options) (string, bool) {
	var t time.Time
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return "", false
		}
		t = inLocation(d, opts.Location)
	case string:
		parsed, ok := parseDate(strings.TrimSpace(d), opts)
		if !ok {
			return "", false
		}
		t = parsed
	default:
		return "", false
	}
	return t.Format(opts.DateLayout), true
}

func parseDate(s string, opts Options) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(opts.DateLayout, s); err == nil {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return inLocation(t, opts.Location), true
		}
	}
	return time.Time{}, false
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

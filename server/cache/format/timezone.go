package format

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
)

// Timezone-specific error codes
var (
	ErrBadTimezone = errors.MustNewCode("format.bad_timezone")
)

var offsetPattern = regexp.MustCompile(`^([+-])(\d{1,2}):?(\d{2})?$`)

// ParseTimezone resolves the SMARTSUITE_TIMEZONE forms: a named zone
// (America/New_York), a numeric offset (+05:30, -0800, +5), or one of
// utc, local, system. Empty input means UTC.
func ParseTimezone(spec string) (*time.Location, error) {
	trimmed := strings.TrimSpace(spec)
	switch strings.ToLower(trimmed) {
	case "", "utc":
		return time.UTC, nil
	case "local", "system":
		return time.Local, nil
	}

	if match := offsetPattern.FindStringSubmatch(trimmed); match != nil {
		hours, _ := strconv.Atoi(match[2])
		minutes := 0
		if match[3] != "" {
			minutes, _ = strconv.Atoi(match[3])
		}
		if hours > 14 || minutes > 59 {
			return nil, errors.Newf(ErrBadTimezone, "offset %q out of range", trimmed)
		}
		seconds := hours*3600 + minutes*60
		if match[1] == "-" {
			seconds = -seconds
		}
		return time.FixedZone(trimmed, seconds), nil
	}

	loc, err := time.LoadLocation(trimmed)
	if err != nil {
		return nil, errors.New(ErrBadTimezone, "unknown timezone", err).AddContext("timezone", trimmed)
	}
	return loc, nil
}

const (
	dateOnlyLayout = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05 -0700"
)

// RenderDateTime re-renders an upstream date-time string in the
// configured zone: date-only strings pass through, full timestamps become
// "YYYY-MM-DD HH:MM:SS ±HHMM". Strings that are not timestamps pass
// through verbatim.
func RenderDateTime(value string, loc *time.Location) string {
	if _, err := time.Parse(dateOnlyLayout, value); err == nil {
		return value
	}

	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.In(loc).Format(dateTimeLayout)
		}
	}
	return value
}

// looksLikeDateTime is a cheap pre-filter so the renderer does not try to
// parse every cell.
func looksLikeDateTime(value string) bool {
	if len(value) < len(dateOnlyLayout) {
		return false
	}
	return value[4] == '-' && value[7] == '-'
}

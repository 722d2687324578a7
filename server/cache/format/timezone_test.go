package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		spec       string
		wantOffset int // seconds, checked via a fixed instant
		wantErr    bool
	}{
		{"", 0, false},
		{"utc", 0, false},
		{"UTC", 0, false},
		{"+05:30", 5*3600 + 30*60, false},
		{"-0800", -8 * 3600, false},
		{"+5", 5 * 3600, false},
		{"+15", 0, true},
		{"Not/AZone", 0, true},
	}

	instant := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			loc, err := ParseTimezone(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, offset := instant.In(loc).Zone()
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestParseTimezoneNamed(t *testing.T) {
	loc, err := ParseTimezone("America/New_York")
	if err != nil {
		t.Skip("zoneinfo database unavailable")
	}
	assert.Equal(t, "America/New_York", loc.String())
}

func TestParseTimezoneLocal(t *testing.T) {
	loc, err := ParseTimezone("local")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = ParseTimezone("system")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestRenderDateTime(t *testing.T) {
	ist, err := ParseTimezone("+05:30")
	require.NoError(t, err)

	assert.Equal(t, "2024-06-01 18:00:00 +0530", RenderDateTime("2024-06-01T12:30:00Z", ist))
	assert.Equal(t, "2024-06-01", RenderDateTime("2024-06-01", ist))
	assert.Equal(t, "garbage", RenderDateTime("garbage", ist))
}

package connector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "Free pizza", "Free pizza"},
		{"tags removed", "<p>Free <b>pizza</b></p>", "Free pizza"},
		{"whitespace collapsed", "Free\n\n  pizza\t today", "Free pizza today"},
		{"only markup", "<div><br/></div>", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, StripHTML(tc.in))
		})
	}
}

func TestMakeEventID(t *testing.T) {
	start := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

	id := MakeEventID("Welcome Fair", start, "getinvolved")
	require.Len(t, id, 32)

	// Deterministic across calls and timezone representations.
	est := start.In(time.FixedZone("EST", -5*3600))
	require.Equal(t, id, MakeEventID("Welcome Fair", est, "getinvolved"))

	// Any component changing produces a different id.
	require.NotEqual(t, id, MakeEventID("Welcome Fair 2", start, "getinvolved"))
	require.NotEqual(t, id, MakeEventID("Welcome Fair", start.Add(time.Hour), "getinvolved"))
	require.NotEqual(t, id, MakeEventID("Welcome Fair", start, "othersource"))
}

func TestParseEventTime(t *testing.T) {
	got, ok := parseEventTime("2024-09-01T10:00:00-04:00")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 9, 1, 14, 0, 0, 0, time.UTC), got)

	got, ok = parseEventTime("2024-09-01T10:00:00")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC), got)

	got, ok = parseEventTime("2024-09-01")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), got)

	_, ok = parseEventTime("")
	require.False(t, ok)

	_, ok = parseEventTime("next tuesday")
	require.False(t, ok)
}

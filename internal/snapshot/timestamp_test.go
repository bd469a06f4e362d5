package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysToDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		days             int64
		year, month, day int64
	}{
		{0, 1970, 1, 1},
		{31, 1970, 2, 1},
		{365, 1971, 1, 1},
		{10957, 2000, 1, 1},
		{11016, 2000, 2, 29},
		{19722, 2023, 12, 31},
		{19723, 2024, 1, 1},
		{19782, 2024, 2, 29},
		{19783, 2024, 3, 1},
	}

	for _, tt := range tests {
		year, month, day := DaysToDate(tt.days)
		assert.Equal(t, [3]int64{tt.year, tt.month, tt.day}, [3]int64{year, month, day}, "days=%d", tt.days)
	}
}

func TestIsLeapYear(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLeapYear(2000))
	assert.True(t, IsLeapYear(2024))
	assert.False(t, IsLeapYear(1900))
	assert.False(t, IsLeapYear(2100))
	assert.False(t, IsLeapYear(2023))
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1970-01-01T00:00:00Z", FormatTimestamp(0))
	assert.Equal(t, "1970-01-01T00:00:00Z", FormatTimestamp(-5))
	assert.Equal(t, "2024-02-29T23:59:59Z", FormatTimestamp(1709251199))
}

func TestFormatTimestampMatchesTimePackage(t *testing.T) {
	t.Parallel()

	for secs := int64(0); secs < 5_000_000_000; secs += 7_654_321 {
		want := time.Unix(secs, 0).UTC().Format("2006-01-02T15:04:05Z")
		assert.Equal(t, want, FormatTimestamp(secs), "secs=%d", secs)
	}
}

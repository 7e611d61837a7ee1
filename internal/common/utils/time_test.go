package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"250ms", 250 * time.Millisecond, false},
		{"1h30m", 90 * time.Minute, false},
		{"1d", 24 * time.Hour, false},
		{" 7d ", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"-1d", -24 * time.Hour, false},
		{"1dx", 0, true},
		{"d", 0, true},
		{"soon", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "30s", FormatDuration(30*time.Second))
	assert.Equal(t, "90m", FormatDuration(90*time.Minute))
	assert.Equal(t, "2.5h", FormatDuration(150*time.Minute))
	assert.Equal(t, "1.5d", FormatDuration(36*time.Hour))
}

func TestCeilSeconds(t *testing.T) {
	tests := []struct {
		ms   int64
		want int
	}{
		{-5, 0},
		{0, 0},
		{1, 1},
		{999, 1},
		{1000, 1},
		{1001, 2},
		{5000, 5},
		{60000, 60},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CeilSeconds(tt.ms), "CeilSeconds(%d)", tt.ms)
	}
}

func TestDurationMillis(t *testing.T) {
	assert.Equal(t, int64(0), DurationMillis(0))
	assert.Equal(t, int64(1), DurationMillis(time.Microsecond))
	assert.Equal(t, int64(1500), DurationMillis(1500*time.Millisecond))
	assert.Equal(t, int64(-2), DurationMillis(-2*time.Millisecond))
}

package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeframeDuration(t *testing.T) {
	cases := []struct {
		tf   Timeframe
		want time.Duration
	}{
		{TF1m, time.Minute},
		{TF3m, 3 * time.Minute},
		{TF5m, 5 * time.Minute},
		{TF7m, 7 * time.Minute},
		{TF15m, 15 * time.Minute},
		{TF30m, 30 * time.Minute},
		{TF1h, time.Hour},
		{TF4h, 4 * time.Hour},
		{TF1d, 24 * time.Hour},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.tf.Duration(), "tf %s", tc.tf)
	}
}

func TestTimeframeDurationUnknownDefaults(t *testing.T) {
	assert.Equal(t, 5*time.Minute, Timeframe("2h").Duration())
	assert.Equal(t, 5*time.Minute, Timeframe("").Duration())
}

func TestIsValidTimeframe(t *testing.T) {
	for _, tf := range Timeframes() {
		assert.True(t, IsValidTimeframe(tf))
	}
	assert.False(t, IsValidTimeframe("2h"))
	assert.False(t, IsValidTimeframe("5M"))
}

func TestSignalWindow(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	enterAt, expireAt := SignalWindow(ts, TF5m)
	assert.Equal(t, ts.Add(60*time.Second), enterAt)
	assert.Equal(t, ts.Add(60*time.Second+5*time.Minute), expireAt)

	enterAt, expireAt = SignalWindow(ts, TF1d)
	assert.Equal(t, ts.Add(60*time.Second), enterAt)
	assert.Equal(t, enterAt.Add(24*time.Hour), expireAt)
}

func TestSignalWindowIsDeterministic(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	e1, x1 := SignalWindow(ts, TF15m)
	time.Sleep(5 * time.Millisecond)
	e2, x2 := SignalWindow(ts, TF15m)

	assert.Equal(t, e1, e2)
	assert.Equal(t, x1, x2)
}

package repository

import "time"

// Timeframe is a chart timeframe code.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF3m  Timeframe = "3m"
	TF5m  Timeframe = "5m"
	TF7m  Timeframe = "7m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// EntryDelay is the fixed offset between the event timestamp and the entry
// instant of a signal.
const EntryDelay = 60 * time.Second

// defaultDuration applies when an unknown timeframe slips through.
const defaultDuration = 5 * time.Minute

var timeframeDurations = map[Timeframe]time.Duration{
	TF1m:  time.Minute,
	TF3m:  3 * time.Minute,
	TF5m:  5 * time.Minute,
	TF7m:  7 * time.Minute,
	TF15m: 15 * time.Minute,
	TF30m: 30 * time.Minute,
	TF1h:  time.Hour,
	TF4h:  4 * time.Hour,
	TF1d:  24 * time.Hour,
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	_, ok := timeframeDurations[tf]
	return ok
}

// Duration returns the trading window length of tf.
func (tf Timeframe) Duration() time.Duration {
	if d, ok := timeframeDurations[tf]; ok {
		return d
	}
	return defaultDuration
}

// Timeframes returns all supported timeframes, shortest first.
func Timeframes() []Timeframe {
	return []Timeframe{TF1m, TF3m, TF5m, TF7m, TF15m, TF30m, TF1h, TF4h, TF1d}
}

// SignalWindow derives the entry and expiry instants from the event
// timestamp. It is computed exactly once, at creation time, and never from
// "now": retransmission or delayed processing must not shift a published
// window.
func SignalWindow(ts time.Time, tf Timeframe) (enterAt, expireAt time.Time) {
	enterAt = ts.Add(EntryDelay)
	expireAt = enterAt.Add(tf.Duration())
	return enterAt, expireAt
}

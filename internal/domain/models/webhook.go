package models

import "time"

// WebhookEvent is the typed inbound alert payload. Unknown or mistyped
// fields are rejected at the boundary before any core logic runs.
type WebhookEvent struct {
	TS        int64  `json:"ts" validate:"required,gt=0"` // unix milliseconds
	Symbol    string `json:"symbol" validate:"required,min=3,max=20"`
	TF        string `json:"tf" validate:"required"`
	Direction string `json:"dir" validate:"required,oneof=UP DOWN"`
}

// Time returns the event timestamp as a time.Time.
func (e WebhookEvent) Time() time.Time {
	return time.UnixMilli(e.TS).UTC()
}

// Webhook processing outcomes.
const (
	StatusSuccess   = "success"
	StatusDuplicate = "duplicate"
)

// WebhookResult is the outcome envelope returned to the alert source.
type WebhookResult struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	SignalID *int64 `json:"signal_id"`
}

// SignalSnapshot is the read-model of the latest signal for one
// (symbol, timeframe), served from cache when possible.
type SignalSnapshot struct {
	ID          int64     `json:"id"`
	Symbol      string    `json:"symbol"`
	TF          string    `json:"tf"`
	Direction   Direction `json:"direction"`
	EnterAt     time.Time `json:"enter_at"`
	ExpireAt    time.Time `json:"expire_at"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SnapshotOf builds a snapshot from a stored signal.
func SnapshotOf(s *Signal) SignalSnapshot {
	return SignalSnapshot{
		ID:          s.ID,
		Symbol:      s.Symbol,
		TF:          s.TF,
		Direction:   s.Direction,
		EnterAt:     s.EnterAt,
		ExpireAt:    s.ExpireAt,
		GeneratedAt: s.CreatedAt,
	}
}

// StatsView is the public statistics payload for one (symbol, timeframe).
type StatsView struct {
	Symbol       string    `json:"symbol"`
	TF           string    `json:"tf"`
	WinrateLastN float64   `json:"winrate_last_n"`
	N            int       `json:"n"`
	BreakEvenAt  float64   `json:"break_even_at"`
	SignalsCount int64     `json:"signals_count"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Skips        int       `json:"skips"`
	UpdatedAt    time.Time `json:"updated_at"`
}

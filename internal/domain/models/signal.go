package models

import "time"

// Direction is the predicted price direction of a signal.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// VerdictResult is the settled outcome of a signal.
type VerdictResult string

const (
	ResultWin  VerdictResult = "WIN"
	ResultLoss VerdictResult = "LOSS"
	ResultSkip VerdictResult = "SKIP"
)

// BreakEvenWinrate is the winrate at which a fixed-payout binary strategy
// breaks even.
const BreakEvenWinrate = 0.5405

// Symbol is a trading instrument. Created on first reference, never deleted
// or renamed.
type Symbol struct {
	ID        int64
	Name      string // uppercase, unique
	CreatedAt time.Time
}

// Signal is a single directional prediction. The tuple (SymbolID, TF, TS) is
// unique, and no field is ever updated after creation: retransmissions and
// later settlement must not shift the published window.
type Signal struct {
	ID        int64
	SymbolID  int64
	Symbol    string // denormalized symbol name for reads
	TF        string
	TS        time.Time // instant the source claims the signal fired
	Direction Direction
	EnterAt   time.Time
	ExpireAt  time.Time
	CreatedAt time.Time
}

// Verdict is an append-only settlement record for a signal. A signal may
// accumulate several; the latest by SettledAt wins for statistics.
type Verdict struct {
	ID        int64
	SignalID  int64
	Result    VerdictResult
	SettledAt time.Time
}

// RollingStats holds derived win/loss counters over the most recent Window
// signals of one (symbol, timeframe). Rebuildable from signals and verdicts
// at any time; never a source of truth.
type RollingStats struct {
	ID            int64
	SymbolID      int64
	TF            string
	Window        int
	Winrate       float64
	TotalSignals  int
	Wins          int
	Losses        int
	Skips         int
	BreakEvenRate float64
	UpdatedAt     time.Time
}

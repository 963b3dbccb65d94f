package models

import "time"

// EResult is the Win/Lose label of a classified signal.
type EResult string

const (
	ResultWin  EResult = "Win"
	ResultLose EResult = "Lose"
)

// EStrategy is the strategy suggestion derived from the win rate.
type EStrategy string

const (
	StrategySellImmediately EStrategy = "sell_immediately"
	StrategyWait            EStrategy = "wait"
	StrategyNeutral         EStrategy = "neutral"
)

// -----------------------------------------------------------------------------

// MSignalEvent is a day whose close fell at least the threshold versus the
// previous trading day.
type MSignalEvent struct {
	SignalDate    time.Time `json:"signal_date"`
	PriceAtSignal float64   `json:"price_at_signal"`
	PctChange     float64   `json:"pct_change"`
}

// -----------------------------------------------------------------------------

// MForwardOutcome attaches the forward observation to a signal.
// When Resolved is false the pointer fields are nil.
type MForwardOutcome struct {
	Signal                    MSignalEvent `json:"signal"`
	TargetCalendarDate        time.Time    `json:"target_calendar_date"`
	Resolved                  bool         `json:"resolved"`
	ResolvedTradingDate       *time.Time   `json:"resolved_trading_date,omitempty"`
	ResolvedPrice             *float64     `json:"resolved_price,omitempty"`
	ActualCalendarDaysElapsed *int         `json:"actual_calendar_days_elapsed,omitempty"`
}

// -----------------------------------------------------------------------------

// MClassifiedOutcome is a resolved outcome with its Win/Lose label.
type MClassifiedOutcome struct {
	SignalDate                time.Time `json:"signal_date"`
	PriceAtSignal             float64   `json:"price_at_signal"`
	PctChange                 float64   `json:"pct_change"`
	TargetCalendarDate        time.Time `json:"target_calendar_date"`
	ResolvedTradingDate       time.Time `json:"resolved_trading_date"`
	ResolvedPrice             float64   `json:"resolved_price"`
	ActualCalendarDaysElapsed int       `json:"actual_calendar_days_elapsed"`
	Result                    EResult   `json:"result"`
	PctChangeForward          float64   `json:"pct_change_forward"`
	Tie                       bool      `json:"tie,omitempty"` // signal and forward price are equal
}

// -----------------------------------------------------------------------------

// MAggregateSummary is recomputed on every run from the classified outcomes.
// Subset means are nil when the subset is empty.
type MAggregateSummary struct {
	TotalSignals               int                  `json:"total_signals"`
	WinCount                   int                  `json:"win_count"`
	LoseCount                  int                  `json:"lose_count"`
	TieCount                   int                  `json:"tie_count"`
	WinRate                    float64              `json:"win_rate"`
	WinPct                     float64              `json:"win_pct"`
	LosePct                    float64              `json:"lose_pct"`
	MeanDropPct                float64              `json:"mean_drop_pct"`
	MinDropPct                 float64              `json:"min_drop_pct"`
	MeanForwardChangePct       float64              `json:"mean_forward_change_pct"`
	MedianForwardChangePct     float64              `json:"median_forward_change_pct"`
	StdForwardChangePct        float64              `json:"std_forward_change_pct"`
	MeanForwardChangeGivenWin  *float64             `json:"mean_forward_change_given_win"`
	MeanForwardChangeGivenLose *float64             `json:"mean_forward_change_given_lose"`
	MeanActualDaysElapsed      float64              `json:"mean_actual_days_elapsed"`
	Strategy                   EStrategy            `json:"strategy"`
	RecentExamples             []MClassifiedOutcome `json:"recent_examples"`
}

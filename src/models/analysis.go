package models

import (
	"errors"
	"time"
)

// EAnalysisStatus is the terminal state of one analysis run.
type EAnalysisStatus string

const (
	StatusCompleted        EAnalysisStatus = "completed"
	StatusInsufficientData EAnalysisStatus = "insufficient_data"
	StatusNoSignals        EAnalysisStatus = "no_signals"
	StatusNoForwardData    EAnalysisStatus = "no_forward_data"
)

// Terminal states reported as errors for errors.Is callers.
var (
	ErrInsufficientData = errors.New("insufficient data: need at least 2 price points")
	ErrNoSignals        = errors.New("no drop signals found: lower the threshold")
	ErrNoForwardData    = errors.New("no forward data available: shorten the lookahead window or extend the series")
)

// ETieBreak decides the label of a signal whose forward price equals the
// signal price.
type ETieBreak string

const (
	TieBreakLose ETieBreak = "lose"
	TieBreakWin  ETieBreak = "win"
)

// -----------------------------------------------------------------------------

// MAnalysisParams is the explicit configuration passed into every pipeline call.
type MAnalysisParams struct {
	DropThresholdPct float64   `json:"drop_threshold_pct" yaml:"drop_threshold_pct" default:"1.0"`
	DaysAfter        int       `json:"days_after" yaml:"days_after" default:"3"`
	StartDate        time.Time `json:"start_date,omitempty" yaml:"-"`
	TieBreak         ETieBreak `json:"tie_break,omitempty" yaml:"tie_break" default:"lose"`
	RecentLimit      int       `json:"recent_limit,omitempty" yaml:"recent_limit" default:"50"`
}

// -----------------------------------------------------------------------------

// MAnalysisDiagnostics carries data quality facts about a run.
type MAnalysisDiagnostics struct {
	SeriesPoints      int       `json:"series_points"`
	FirstDate         time.Time `json:"first_date,omitempty"`
	LastDate          time.Time `json:"last_date,omitempty"`
	DetectedSignals   int       `json:"detected_signals"`
	UnresolvedSignals int       `json:"unresolved_signals"`
	MissingSessions   int       `json:"missing_sessions"`
	ExchangeCalendar  string    `json:"exchange_calendar,omitempty"`
}

// -----------------------------------------------------------------------------

// MAnalysisResult is the output of one pipeline run.
type MAnalysisResult struct {
	Symbol      string               `json:"symbol"`
	Params      MAnalysisParams      `json:"params"`
	Status      EAnalysisStatus      `json:"status"`
	Message     string               `json:"message,omitempty"`
	Summary     *MAggregateSummary   `json:"summary,omitempty"`
	Outcomes    []MClassifiedOutcome `json:"-"`
	Diagnostics MAnalysisDiagnostics `json:"diagnostics"`
}

// Err maps a terminal status to its sentinel error. Completed runs return nil.
func (r *MAnalysisResult) Err() error {
	switch r.Status {
	case StatusInsufficientData:
		return ErrInsufficientData
	case StatusNoSignals:
		return ErrNoSignals
	case StatusNoForwardData:
		return ErrNoForwardData
	}
	return nil
}

// -----------------------------------------------------------------------------

// MAnalysisRun is a persisted analysis result.
type MAnalysisRun struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Result    MAnalysisResult `json:"result"`
	ElapsedMs int64           `json:"elapsed_ms"`
	CreatedAt time.Time       `json:"created_at"`
}

// -----------------------------------------------------------------------------

// MAnalysisRequest is the inbound request shape shared by HTTP, gRPC and CLI.
// Nil numeric fields take the configured analysis defaults; an explicit
// value is validated as given.
type MAnalysisRequest struct {
	Symbol           string   `json:"symbol" validate:"required,max=32"`
	Source           string   `json:"source"`
	DropThresholdPct *float64 `json:"drop_threshold_pct,omitempty" validate:"omitempty,gt=0,lte=100"`
	DaysAfter        *int     `json:"days_after,omitempty" validate:"omitempty,gt=0,lte=3650"`
	StartDate        string   `json:"start_date" default:"2020-01-01" validate:"omitempty,datetime=2006-01-02"`
	TieBreak         string   `json:"tie_break" default:"lose" validate:"oneof=lose win"`
	RecentLimit      *int     `json:"recent_limit,omitempty" validate:"omitempty,gte=1,lte=500"`
	Persist          *bool    `json:"persist,omitempty"`
}

// MBatchRequest groups several analysis requests.
type MBatchRequest struct {
	Requests []MAnalysisRequest `json:"requests" validate:"required,min=1,max=50,dive"`
}

// MBatchItem is the outcome of one request of a batch.
type MBatchItem struct {
	Symbol string        `json:"symbol"`
	Run    *MAnalysisRun `json:"run,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// -----------------------------------------------------------------------------

// MSubscribeCommand is sent by websocket clients to filter pushed runs.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Symbols []string `json:"symbols"`
}

// MPushMessage is written to websocket clients: an acknowledgement of a
// subscribe command or a finished run.
type MPushMessage struct {
	Type    string        `json:"type"` // SUBSCRIBED or RUN
	Symbols []string      `json:"symbols,omitempty"`
	Run     *MAnalysisRun `json:"run,omitempty"`
}

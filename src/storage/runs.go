package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"nday-analyzer/src/helpers"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/models"
)

const dateLayout = "2006-01-02"

// runStore holds the SQL shared by the SQLite and Postgres backends. Queries
// are written with ? placeholders and rebound for the driver.
type runStore struct {
	db      *sql.DB
	runs    string // qualified analysis_runs table
	signals string // qualified analysis_signals table
	dollar  bool   // $n placeholders
	logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func (s *runStore) rebind(query string) string {
	if !s.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (s *runStore) createTables(realType, bigintType string) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			source TEXT,
			status TEXT NOT NULL,
			message TEXT,
			drop_threshold_pct %[2]s,
			days_after INTEGER,
			start_date TEXT,
			tie_break TEXT,
			recent_limit INTEGER,
			total_signals INTEGER,
			win_count INTEGER,
			lose_count INTEGER,
			win_rate %[2]s,
			strategy TEXT,
			summary_json TEXT,
			diagnostics_json TEXT,
			elapsed_ms %[3]s,
			created_at %[3]s NOT NULL
		);
	`, s.runs, realType, bigintType)
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.runs, err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL,
			signal_date TEXT NOT NULL,
			price_at_signal %[2]s,
			pct_change %[2]s,
			target_date TEXT,
			resolved_date TEXT,
			resolved_price %[2]s,
			actual_days INTEGER,
			result TEXT,
			pct_change_forward %[2]s,
			tie BOOLEAN,
			PRIMARY KEY (run_id, signal_date)
		);
	`, s.signals, realType)
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.signals, err)
	}

	for _, idx := range []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_analysis_runs_symbol ON %s (symbol, created_at)", s.runs),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_analysis_runs_created ON %s (created_at)", s.runs),
	} {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *runStore) saveRun(run *models.MAnalysisRun) error {
	res := run.Result

	var summaryJSON sql.NullString
	var total, wins, loses int
	var winRate float64
	var strategy string
	if res.Summary != nil {
		b, err := json.Marshal(res.Summary)
		if err != nil {
			return helpers.NewDatabaseError("encode summary", err)
		}
		summaryJSON = sql.NullString{String: string(b), Valid: true}
		total, wins, loses = res.Summary.TotalSignals, res.Summary.WinCount, res.Summary.LoseCount
		winRate, strategy = res.Summary.WinRate, string(res.Summary.Strategy)
	}

	diag, err := json.Marshal(res.Diagnostics)
	if err != nil {
		return helpers.NewDatabaseError("encode diagnostics", err)
	}

	var startDate sql.NullString
	if !res.Params.StartDate.IsZero() {
		startDate = sql.NullString{String: res.Params.StartDate.Format(dateLayout), Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(s.rebind(fmt.Sprintf(`
		INSERT INTO %s (id, symbol, source, status, message, drop_threshold_pct, days_after, start_date, tie_break,
			recent_limit, total_signals, win_count, lose_count, win_rate, strategy, summary_json, diagnostics_json,
			elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.runs)),
		run.ID, res.Symbol, run.Source, string(res.Status), res.Message, res.Params.DropThresholdPct,
		res.Params.DaysAfter, startDate, string(res.Params.TieBreak), res.Params.RecentLimit,
		total, wins, loses, winRate, strategy, summaryJSON, string(diag),
		run.ElapsedMs, run.CreatedAt.UTC().UnixMilli())
	if err != nil {
		return helpers.NewDatabaseError("insert run", err)
	}

	if len(res.Outcomes) > 0 {
		stmt, err := tx.Prepare(s.rebind(fmt.Sprintf(`
			INSERT INTO %s (run_id, signal_date, price_at_signal, pct_change, target_date, resolved_date,
				resolved_price, actual_days, result, pct_change_forward, tie)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, s.signals)))
		if err != nil {
			return helpers.NewDatabaseError("prepare signals", err)
		}
		defer stmt.Close()

		for _, o := range res.Outcomes {
			_, err := stmt.Exec(run.ID, o.SignalDate.Format(dateLayout), o.PriceAtSignal, o.PctChange,
				o.TargetCalendarDate.Format(dateLayout), o.ResolvedTradingDate.Format(dateLayout),
				o.ResolvedPrice, o.ActualCalendarDaysElapsed, string(o.Result), o.PctChangeForward, o.Tie)
			if err != nil {
				return helpers.NewDatabaseError("insert signal", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("commit run", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

const runColumns = `id, symbol, source, status, message, drop_threshold_pct, days_after, start_date, tie_break,
	recent_limit, summary_json, diagnostics_json, elapsed_ms, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.MAnalysisRun, error) {
	var (
		run                   models.MAnalysisRun
		source, message       sql.NullString
		startDate, tieBreak   sql.NullString
		summaryJSON, diagJSON sql.NullString
		status                string
		recentLimit           sql.NullInt64
		createdMs             int64
	)

	err := row.Scan(&run.ID, &run.Result.Symbol, &source, &status, &message,
		&run.Result.Params.DropThresholdPct, &run.Result.Params.DaysAfter, &startDate, &tieBreak,
		&recentLimit, &summaryJSON, &diagJSON, &run.ElapsedMs, &createdMs)
	if err != nil {
		return nil, err
	}

	run.Source = source.String
	run.Result.Status = models.EAnalysisStatus(status)
	run.Result.Message = message.String
	run.Result.Params.TieBreak = models.ETieBreak(tieBreak.String)
	run.Result.Params.RecentLimit = int(recentLimit.Int64)
	run.CreatedAt = time.UnixMilli(createdMs).UTC()

	if startDate.Valid && startDate.String != "" {
		if d, err := time.Parse(dateLayout, startDate.String); err == nil {
			run.Result.Params.StartDate = d
		}
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		var summary models.MAggregateSummary
		if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err != nil {
			return nil, fmt.Errorf("decode summary of %s: %w", run.ID, err)
		}
		run.Result.Summary = &summary
	}
	if diagJSON.Valid && diagJSON.String != "" {
		if err := json.Unmarshal([]byte(diagJSON.String), &run.Result.Diagnostics); err != nil {
			return nil, fmt.Errorf("decode diagnostics of %s: %w", run.ID, err)
		}
	}
	return &run, nil
}

// -----------------------------------------------------------------------------

func (s *runStore) getRun(id string) (*models.MAnalysisRun, error) {
	row := s.db.QueryRow(s.rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, runColumns, s.runs)), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helpers.NewDatabaseError("get run", err)
	}

	outcomes, err := s.loadOutcomes(id)
	if err != nil {
		return nil, err
	}
	run.Result.Outcomes = outcomes
	return run, nil
}

// -----------------------------------------------------------------------------

func (s *runStore) loadOutcomes(runID string) ([]models.MClassifiedOutcome, error) {
	rows, err := s.db.Query(s.rebind(fmt.Sprintf(`
		SELECT signal_date, price_at_signal, pct_change, target_date, resolved_date, resolved_price,
			actual_days, result, pct_change_forward, tie
		FROM %s WHERE run_id = ? ORDER BY signal_date`, s.signals)), runID)
	if err != nil {
		return nil, helpers.NewDatabaseError("load signals", err)
	}
	defer rows.Close()

	var outcomes []models.MClassifiedOutcome
	for rows.Next() {
		var o models.MClassifiedOutcome
		var signalDate, targetDate, resolvedDate, result string
		if err := rows.Scan(&signalDate, &o.PriceAtSignal, &o.PctChange, &targetDate, &resolvedDate,
			&o.ResolvedPrice, &o.ActualCalendarDaysElapsed, &result, &o.PctChangeForward, &o.Tie); err != nil {
			return nil, helpers.NewDatabaseError("scan signal", err)
		}
		o.SignalDate, _ = time.Parse(dateLayout, signalDate)
		o.TargetCalendarDate, _ = time.Parse(dateLayout, targetDate)
		o.ResolvedTradingDate, _ = time.Parse(dateLayout, resolvedDate)
		o.Result = models.EResult(result)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("load signals", err)
	}
	return outcomes, nil
}

// -----------------------------------------------------------------------------

func (s *runStore) listRuns(symbol string, limit int) ([]models.MAnalysisRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, runColumns, s.runs)
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, strings.ToUpper(symbol))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, helpers.NewDatabaseError("list runs", err)
	}
	defer rows.Close()

	runs := []models.MAnalysisRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, helpers.NewDatabaseError("scan run", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("list runs", err)
	}
	return runs, nil
}

// -----------------------------------------------------------------------------

func (s *runStore) cleanup(retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).UnixMilli()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, helpers.NewDatabaseError("begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.rebind(fmt.Sprintf(
		`DELETE FROM %s WHERE run_id IN (SELECT id FROM %s WHERE created_at < ?)`, s.signals, s.runs)), cutoff); err != nil {
		return 0, helpers.NewDatabaseError("cleanup signals", err)
	}
	res, err := tx.Exec(s.rebind(fmt.Sprintf(`DELETE FROM %s WHERE created_at < ?`, s.runs)), cutoff)
	if err != nil {
		return 0, helpers.NewDatabaseError("cleanup runs", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, helpers.NewDatabaseError("commit cleanup", err)
	}

	n, _ := res.RowsAffected()
	return n, nil
}

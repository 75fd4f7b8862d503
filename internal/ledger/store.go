package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/geomboard/internal/episode"
	"github.com/danielpatrickdp/geomboard/internal/logging"
	"github.com/danielpatrickdp/geomboard/internal/sampler"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	config_id     TEXT NOT NULL,
	seed          TEXT NOT NULL,
	params_json   TEXT,
	status        TEXT NOT NULL,
	summary_json  TEXT,
	started_at    TEXT NOT NULL,
	finished_at   TEXT
);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	context_hash  TEXT,
	trigger_type  TEXT NOT NULL,
	signals_json  TEXT,
	evidence_refs TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS episode_steps (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	episode_id    TEXT NOT NULL,
	instance_id   TEXT NOT NULL,
	step_index    INTEGER NOT NULL,
	attempt       INTEGER NOT NULL,
	reply         TEXT,
	action        TEXT,
	valid         INTEGER NOT NULL,
	error         TEXT,
	board         TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_provenance_run ON provenance_log(run_id);
CREATE INDEX IF NOT EXISTS idx_steps_episode ON episode_steps(episode_id, step_index);
`
// #endregion schema

// timeLayout keeps fractional seconds fixed-width so TEXT columns sort by time.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region store-struct
// Store records runs, trial provenance and episode steps in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations. Writes from sampler
// workers are serialised through a single connection.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region runs
// StartRun inserts a running run and returns it.
func (s *Store) StartRun(kind, configID string, seed uint64, params any) (Run, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return Run{}, fmt.Errorf("marshal params: %w", err)
	}
	run := Run{
		RunID:      uuid.New().String(),
		Kind:       kind,
		ConfigID:   configID,
		Seed:       seed,
		ParamsJSON: string(paramsJSON),
		Status:     StatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	_, err = s.db.Exec(
		`INSERT INTO runs (run_id, kind, config_id, seed, params_json, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Kind, run.ConfigID, strconv.FormatUint(seed, 10), run.ParamsJSON,
		run.Status, run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun records the final status and summary of a run.
func (s *Store) FinishRun(runID, status string, summary any) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, summary_json = ?, finished_at = ? WHERE run_id = ?`,
		status, string(summaryJSON), time.Now().UTC().Format(timeLayout), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// GetRun reads one run.
func (s *Store) GetRun(runID string) (Run, error) {
	row := s.db.QueryRow(
		`SELECT run_id, kind, config_id, seed, params_json, status, summary_json, started_at, finished_at
		 FROM runs WHERE run_id = ?`, runID,
	)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT run_id, kind, config_id, seed, params_json, status, summary_json, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var seed, startedStr string
	var paramsJSON, summaryJSON, finishedStr sql.NullString
	if err := sc.Scan(&run.RunID, &run.Kind, &run.ConfigID, &seed, &paramsJSON, &run.Status,
		&summaryJSON, &startedStr, &finishedStr); err != nil {
		return Run{}, err
	}
	run.Seed, _ = strconv.ParseUint(seed, 10, 64)
	run.ParamsJSON = paramsJSON.String
	run.SummaryJSON = summaryJSON.String
	run.StartedAt, _ = time.Parse(timeLayout, startedStr)
	if finishedStr.Valid {
		run.FinishedAt, _ = time.Parse(timeLayout, finishedStr.String)
	}
	return run, nil
}
// #endregion runs

// #region trials
// TrialRecorder writes sampler decisions for one run to provenance_log.
type TrialRecorder struct {
	db    *sql.DB
	runID string
}

// Recorder returns a sampler.Recorder bound to runID.
func (s *Store) Recorder(runID string) *TrialRecorder {
	return &TrialRecorder{db: s.db, runID: runID}
}

// RecordTrial implements sampler.Recorder.
func (r *TrialRecorder) RecordTrial(rec sampler.TrialRecord) error {
	signals, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal trial: %w", err)
	}
	return logging.LogDecision(r.db, logging.ProvenanceEntry{
		RunID:        r.runID,
		ContextHash:  rec.Hash,
		TriggerType:  "trial",
		SignalsJSON:  string(signals),
		EvidenceRefs: rec.Instance,
		Decision:     rec.Decision,
		Reason:       rec.Reason,
	})
}

// CountTrials aggregates trial decisions and rejection reasons for a run.
func (s *Store) CountTrials(runID string) (TrialCounts, error) {
	rows, err := s.db.Query(
		`SELECT decision, COALESCE(reason, ''), COUNT(*) FROM provenance_log
		 WHERE run_id = ? AND trigger_type = 'trial' GROUP BY decision, reason`, runID,
	)
	if err != nil {
		return TrialCounts{}, fmt.Errorf("count trials: %w", err)
	}
	defer rows.Close()

	counts := TrialCounts{Reasons: make(map[string]int)}
	for rows.Next() {
		var decision, reason string
		var n int
		if err := rows.Scan(&decision, &reason, &n); err != nil {
			return TrialCounts{}, fmt.Errorf("scan row: %w", err)
		}
		if decision == sampler.DecisionAccept {
			counts.Accepted += n
			continue
		}
		counts.Rejected += n
		counts.Reasons[reason] += n
	}
	return counts, rows.Err()
}
// #endregion trials

// #region steps
// RecordStep implements episode.StepRecorder.
func (s *Store) RecordStep(step episode.Step) error {
	if step.CreatedAt.IsZero() {
		step.CreatedAt = time.Now().UTC()
	}
	valid := 0
	if step.Valid {
		valid = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO episode_steps (episode_id, instance_id, step_index, attempt, reply, action, valid, error, board, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		step.EpisodeID, step.InstanceID, step.Index, step.Attempt, step.Reply,
		nullIfEmpty(step.Action), valid, nullIfEmpty(step.Error), step.Board,
		step.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

// ListSteps returns the steps of an episode in order.
func (s *Store) ListSteps(episodeID string) ([]episode.Step, error) {
	rows, err := s.db.Query(
		`SELECT episode_id, instance_id, step_index, attempt, reply, action, valid, error, board, created_at
		 FROM episode_steps WHERE episode_id = ? ORDER BY step_index`, episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []episode.Step
	for rows.Next() {
		var st episode.Step
		var reply, act, errStr sql.NullString
		var valid int
		var createdStr string
		if err := rows.Scan(&st.EpisodeID, &st.InstanceID, &st.Index, &st.Attempt, &reply, &act,
			&valid, &errStr, &st.Board, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		st.Reply, st.Action, st.Error = reply.String, act.String, errStr.String
		st.Valid = valid == 1
		st.CreatedAt, _ = time.Parse(timeLayout, createdStr)
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

// LogEpisode writes the outcome of an episode to provenance_log.
func (s *Store) LogEpisode(runID string, res episode.Result) error {
	signals, err := json.Marshal(map[string]any{
		"steps":           res.Steps,
		"invalid_actions": res.InvalidActions,
		"parse_failures":  res.ParseFailures,
		"optimal":         res.Optimal,
		"budget":          res.Budget,
	})
	if err != nil {
		return fmt.Errorf("marshal episode: %w", err)
	}
	decision := "failed"
	if res.Solved {
		decision = "solved"
	}
	return logging.LogDecision(s.db, logging.ProvenanceEntry{
		RunID:        runID,
		ContextHash:  res.EpisodeID,
		TriggerType:  "episode",
		SignalsJSON:  string(signals),
		EvidenceRefs: res.InstanceID,
		Decision:     decision,
	})
}
// #endregion steps

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers

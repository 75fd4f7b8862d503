package logging_test

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/geomboard/internal/logging"
	"github.com/danielpatrickdp/geomboard/internal/sampler"
)

// #region helpers
func provenanceDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`CREATE TABLE provenance_log (
		run_id        TEXT NOT NULL,
		context_hash  TEXT,
		trigger_type  TEXT NOT NULL,
		signals_json  TEXT,
		evidence_refs TEXT,
		decision      TEXT NOT NULL,
		reason        TEXT,
		created_at    TEXT NOT NULL
	)`)
	require.NoError(t, err)
	return db
}

func trialEntry(t *testing.T, runID string, rec sampler.TrialRecord) logging.ProvenanceEntry {
	t.Helper()
	signals, err := json.Marshal(rec)
	require.NoError(t, err)
	return logging.ProvenanceEntry{
		RunID:        runID,
		ContextHash:  rec.Hash,
		TriggerType:  "trial",
		SignalsJSON:  string(signals),
		EvidenceRefs: rec.Instance,
		Decision:     rec.Decision,
		Reason:       rec.Reason,
	}
}

type row struct {
	ContextHash  sql.NullString
	TriggerType  string
	SignalsJSON  sql.NullString
	EvidenceRefs sql.NullString
	Decision     string
	Reason       sql.NullString
	CreatedAt    string
}

func readRows(t *testing.T, db *sql.DB, runID string) []row {
	t.Helper()
	rows, err := db.Query(
		`SELECT context_hash, trigger_type, signals_json, evidence_refs, decision, reason, created_at
		 FROM provenance_log WHERE run_id = ? ORDER BY rowid`, runID)
	require.NoError(t, err)
	defer rows.Close()
	var out []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.ContextHash, &r.TriggerType, &r.SignalsJSON, &r.EvidenceRefs, &r.Decision, &r.Reason, &r.CreatedAt))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

// #endregion helpers

// #region trial-rows
func TestLogDecision_TrialRowsKeepRecord(t *testing.T) {
	db := provenanceDB(t)
	trials := []sampler.TrialRecord{
		{Bucket: "b_4_4_g_2_L_3_F_1", Trial: 1, Decision: sampler.DecisionReject, Reason: sampler.ReasonParity,
			Hash: "9e107d9d372bb6826bd81d3542a419d6", Optimal: 3, Manhattan: 2},
		{Bucket: "b_4_4_g_2_L_3_F_1", Trial: 2, Decision: sampler.DecisionAccept,
			Hash: "e4d909c290d0fb1ca068ffaddf22cbd0", Optimal: 3, Manhattan: 1,
			Instance: "geom_board_b_4_4_g_2_c1_3_c2_1_i_0"},
	}
	for _, tr := range trials {
		require.NoError(t, logging.LogDecision(db, trialEntry(t, "run-a", tr)))
	}

	got := readRows(t, db, "run-a")
	require.Len(t, got, 2)

	rejected, accepted := got[0], got[1]
	assert.Equal(t, sampler.ReasonParity, rejected.Reason.String)
	assert.False(t, rejected.EvidenceRefs.Valid, "rejected trial has no instance")
	assert.False(t, accepted.Reason.Valid, "accepted trial stores NULL reason")
	assert.Equal(t, "geom_board_b_4_4_g_2_c1_3_c2_1_i_0", accepted.EvidenceRefs.String)

	for i, r := range got {
		assert.Equal(t, "trial", r.TriggerType)
		assert.Equal(t, trials[i].Hash, r.ContextHash.String)
		assert.Equal(t, trials[i].Decision, r.Decision)

		var back sampler.TrialRecord
		require.NoError(t, json.Unmarshal([]byte(r.SignalsJSON.String), &back))
		if diff := cmp.Diff(trials[i], back); diff != "" {
			t.Errorf("trial %d signals mismatch (-want +got):\n%s", i, diff)
		}
	}
}

// #endregion trial-rows

// #region episode-rows
func TestLogDecision_EpisodeRowStampsTime(t *testing.T) {
	db := provenanceDB(t)
	before := time.Now().UTC()

	err := logging.LogDecision(db, logging.ProvenanceEntry{
		RunID:        "run-b",
		ContextHash:  "5f1c0e52-6a43-4c3e-9a0e-2f4d3b7c8a11",
		TriggerType:  "episode",
		SignalsJSON:  `{"steps":7,"invalid_actions":1,"optimal":3,"budget":10}`,
		EvidenceRefs: "geom_board_b_4_4_g_2_c1_3_c2_1_i_0",
		Decision:     "solved",
	})
	require.NoError(t, err)

	got := readRows(t, db, "run-b")
	require.Len(t, got, 1)
	assert.Equal(t, "episode", got[0].TriggerType)
	assert.Equal(t, "solved", got[0].Decision)
	assert.JSONEq(t, `{"steps":7,"invalid_actions":1,"optimal":3,"budget":10}`, got[0].SignalsJSON.String)

	created, err := time.Parse(time.RFC3339Nano, got[0].CreatedAt)
	require.NoError(t, err)
	assert.False(t, created.Before(before), "created_at %s precedes the call", created)
}

func TestLogDecision_KeepsExplicitTime(t *testing.T) {
	db := provenanceDB(t)
	at := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)

	require.NoError(t, logging.LogDecision(db, logging.ProvenanceEntry{
		RunID: "run-c", TriggerType: "episode", Decision: "failed", CreatedAt: at,
	}))

	got := readRows(t, db, "run-c")
	require.Len(t, got, 1)
	assert.Equal(t, "2026-03-14T09:26:53.589793Z", got[0].CreatedAt)
	assert.False(t, got[0].SignalsJSON.Valid)
	assert.False(t, got[0].ContextHash.Valid)
}

func TestLogDecision_ClosedDB(t *testing.T) {
	db := provenanceDB(t)
	db.Close()

	err := logging.LogDecision(db, logging.ProvenanceEntry{RunID: "run-d", TriggerType: "trial", Decision: "reject"})
	assert.ErrorContains(t, err, "log decision")
}

// #endregion episode-rows

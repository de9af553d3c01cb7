package persistence

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conclave/pkg/config"
	"conclave/pkg/debate"
)

func testRunConfig() config.RunConfig {
	cfg := config.Default()
	cfg.Instances = 2
	cfg.Models = []string{"model-a", "model-b"}
	cfg.Rounds = 1
	return cfg.Snapshot()
}

func testSession() *debate.Session {
	s := &debate.Session{}
	s.Reset("why is the sky blue?")
	s.Append(debate.Entry{Model: "model-a", Round: 1, Content: "scattering"})
	s.Append(debate.Entry{Model: "model-b", Round: 1, Content: "[ERROR] Model model-b failed: connection refused", Failed: true})
	s.Append(debate.Entry{Model: "model-a", Round: 2, Content: "Rayleigh scattering, in short."})
	return s
}

func TestStoreSaveAndLoadRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	cfg := testRunConfig()
	session := testSession()

	runID, err := store.SaveRun(ctx, cfg, session, "Rayleigh scattering, in short.")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	runs, err := store.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "why is the sky blue?", runs[0].Query)
	assert.Equal(t, []string{"model-a", "model-b"}, runs[0].Models)
	assert.Equal(t, "Rayleigh scattering, in short.", runs[0].Answer)

	entries, err := store.Transcript(ctx, runID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, session.Transcript, entries)
	assert.True(t, entries[1].Failed)
}

func TestStoreRecentRunsOrder(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	cfg := testRunConfig()

	ids := make([]string, 3)
	for i := range ids {
		s := &debate.Session{}
		s.Reset("q")
		s.Append(debate.Entry{Model: "model-a", Round: 1, Content: "a"})
		id, err := store.SaveRun(ctx, cfg, s, "a")
		require.NoError(t, err)
		ids[i] = id
	}

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestWriteSessionLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	cfg := testRunConfig()
	session := testSession()

	path, err := WriteSessionLog(dir, cfg, session, "final")
	require.NoError(t, err)
	assert.FileExists(t, path)

	payload, err := MarshalSessionJSON(cfg, session, "final", time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(payload, &doc))
	assert.Equal(t, "why is the sky blue?", doc["query"])
	assert.Equal(t, "final", doc["final_answer"])
	assert.Equal(t, "2026-02-03T04:05:06Z", doc["timestamp"])
	assert.Len(t, doc["transcript"], 3)
}

package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createItem runs item create and returns the new item's id.
func createItem(t *testing.T, db, title, kind string) string {
	t.Helper()
	resp, err := runJSON(t, db, "item", "create", "--title", title, "--type", kind)
	require.NoError(t, err)
	item := dataField(t, resp, "item")
	id, ok := item["id"].(string)
	require.True(t, ok, "item id missing")
	return id
}

func TestItemCreateGrantsReward(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)

	resp, err := runJSON(t, db, "item", "create", "--title", "Cache invalidation", "--type", "M", "--body", "notes")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	item := dataField(t, resp, "item")
	assert.Equal(t, "M", item["type"])
	assert.Equal(t, "Cache invalidation", item["title"])

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(101), data["balance"])
}

func TestItemCreateRejectsInvalidType(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)

	resp, err := runJSON(t, db, "item", "create", "--title", "bad", "--type", "X")
	require.Error(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_ARGUMENT", resp.Error.Code)
}

func TestSuggestRendersFourPrompts(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)
	itemID := createItem(t, db, "Retry budget per downstream call", "M")

	resp, err := runJSON(t, db, "suggest", itemID)
	require.NoError(t, err)
	data := resp.Data.(map[string]interface{})
	suggestions, ok := data["suggestions"].([]interface{})
	require.True(t, ok)
	assert.Len(t, suggestions, 4)
}

func TestBondLifecycle(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)
	itemID := createItem(t, db, "Cache invalidation strategies", "M")

	resp, err := runJSON(t, db, "bond", "create",
		"--input", itemID,
		"--prompt", "Expand this into a concrete, actionable checklist: Cache invalidation",
		"--intent", "expand_to_checklist")
	require.NoError(t, err)
	bond := dataField(t, resp, "bond")
	bondID := bond["id"].(string)
	assert.Equal(t, "draft", bond["status"])

	resp, err = runJSON(t, db, "bond", "run", bondID)
	require.NoError(t, err)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["succeeded"])
	// 100 seed + 1 item - 10 spend + 3 reward
	assert.Equal(t, float64(94), data["balance"])
	output := dataField(t, resp, "output_item")
	assert.Equal(t, "D", output["type"])

	// An executed bond cannot run again.
	resp, err = runJSON(t, db, "bond", "run", bondID)
	require.Error(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_EXECUTED", resp.Error.Code)
}

func TestBondRunForcedFailureRefunds(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)
	itemID := createItem(t, db, "Flaky test triage", "M")

	resp, err := runJSON(t, db, "bond", "create", "--input", itemID, "--prompt", "Ground this in an experiment")
	require.NoError(t, err)
	bondID := dataField(t, resp, "bond")["id"].(string)

	resp, err = runJSON(t, db, "bond", "run", bondID, "--fail", "--fail-reason", "generator_timeout")
	require.NoError(t, err)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["succeeded"])
	assert.Equal(t, "generator_timeout", data["failure_reason"])
	assert.Equal(t, float64(101), data["balance"])
}

func TestHolologueRun(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)
	a := createItem(t, db, "Indexer throughput ceiling", "M")
	b := createItem(t, db, "Compaction scheduling question", "Q")

	resp, err := runJSON(t, db, "holologue", "run", "--item", a, "--item", b, "--kind", "plan")
	require.NoError(t, err)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["succeeded"])
	// 100 seed + 2 items - 20 spend + 5 reward
	assert.Equal(t, float64(87), data["balance"])
	output := dataField(t, resp, "output_item")
	assert.Equal(t, "H", output["type"])
}

func TestHolologueRunRejectsSmallSelection(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)
	a := createItem(t, db, "lonely note", "M")

	resp, err := runJSON(t, db, "holologue", "run", "--item", a, "--kind", "plan")
	require.Error(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SELECTION_TOO_SMALL", resp.Error.Code)
}

func TestCurateAndCanon(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)
	itemID := createItem(t, db, "Keep this one", "M")

	_, err = runJSON(t, db, "curate", "add", "--item", itemID)
	require.NoError(t, err)

	// Duplicate curation is rejected.
	resp, err := runJSON(t, db, "curate", "add", "--item", itemID)
	require.Error(t, err)
	assert.Equal(t, "ALREADY_CURATED", resp.Error.Code)

	resp, err = runJSON(t, db, "canon")
	require.NoError(t, err)
	data := resp.Data.(map[string]interface{})
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, itemID, items[0].(map[string]interface{})["id"])

	// Archiving the curated item makes the canon drop it with a warning.
	_, err = runJSON(t, db, "item", "archive", itemID)
	require.NoError(t, err)
	resp, err = runJSON(t, db, "canon")
	require.NoError(t, err)
	data = resp.Data.(map[string]interface{})
	assert.Nil(t, data["items"])
	warnings := data["warnings"].([]interface{})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "archived")
}

func TestCurateRequiresExactlyOneTarget(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)

	_, err = runJSON(t, db, "curate", "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")
}

func TestLedgerShowsCreditHistory(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)
	createItem(t, db, "a note", "M")

	out, err := runText(t, db, "ledger")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance: 101")
	assert.Contains(t, out, "(seed)")
	assert.Contains(t, out, "(item_created)")
}

func TestExportEpisodeToFile(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)
	createItem(t, db, "exported note", "M")

	outPath := filepath.Join(t.TempDir(), "episode.json")
	_, err = runJSON(t, db, "export", "episode", "--out", outPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "episode", doc["export_type"])
	derived := doc["derived"].(map[string]interface{})
	assert.Equal(t, float64(101), derived["credits_balance"])
	assert.Equal(t, float64(1), derived["item_count"])
}

func TestExportCurated(t *testing.T) {
	db := testDB(t)
	_, err := runJSON(t, db, "init")
	require.NoError(t, err)
	itemID := createItem(t, db, "canon note", "M")
	_, err = runJSON(t, db, "curate", "add", "--item", itemID)
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "curated.json")
	_, err = runJSON(t, db, "export", "curated", "--out", outPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "curated_projection", doc["export_type"])
	curated := doc["curated_item_ids"].([]interface{})
	require.Len(t, curated, 1)
	assert.Equal(t, itemID, curated[0])
}

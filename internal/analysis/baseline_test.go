package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaselineStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewBaselineStore(dir)

	b := Baselines{
		SignalMentorshipRate: {1, 2, 3},
		SignalStartedRepos:   {0, 5, 10, 50},
	}
	require.NoError(t, store.Save("global", b))

	loaded, err := store.Load("global")
	require.NoError(t, err)
	assert.Equal(t, b, loaded)
}

func TestBaselineStoreMissingCohortUsesDefaults(t *testing.T) {
	store := NewBaselineStore(t.TempDir())

	b, err := store.Load("nonexistent")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaselines(), b)
}

func TestBaselineStoreCorruptFileFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644))

	_, err := NewBaselineStore(dir).Load("bad")
	require.Error(t, err)
}

func TestSeriesFallsBackPerSignal(t *testing.T) {
	b := Baselines{SignalStartedRepos: {1, 2, 3}}

	assert.Equal(t, []float64{1, 2, 3}, b.Series(SignalStartedRepos))
	assert.Equal(t, defaultBaselines[SignalTotalLanguages], b.Series(SignalTotalLanguages))
}

func TestDefaultBaselinesIsACopy(t *testing.T) {
	b := DefaultBaselines()
	b[SignalStartedRepos][0] = 999

	assert.NotEqual(t, 999.0, defaultBaselines[SignalStartedRepos][0])
}

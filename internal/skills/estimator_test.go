package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitfolio/engine/internal/features"
)

func repoIn(lang string, stars, commits int, days float64) features.RepositoryRecord {
	return features.RepositoryRecord{
		Name:            lang + "-repo",
		PrimaryLanguage: lang,
		Stars:           stars,
		CommitCount:     commits,
		DaysSinceUpdate: days,
	}
}

func TestEstimateMaxNormalization(t *testing.T) {
	records := []features.RepositoryRecord{
		repoIn("Python", 10, 50, 5),
		repoIn("Python", 3, 20, 30),
		repoIn("Python", 1, 5, 90),
		repoIn("Python", 0, 2, 200),
		repoIn("Python", 8, 40, 10),
		repoIn("JavaScript", 2, 10, 60),
		repoIn("JavaScript", 1, 4, 120),
	}
	universe := []string{"Python", "JavaScript", "Go"}

	scores, err := NewEstimator(CommitActivity).Estimate(records, universe)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, scores["Python"], 1e-12)
	assert.Greater(t, scores["JavaScript"], 0.0)
	assert.Less(t, scores["JavaScript"], 1.0)
	assert.Zero(t, scores["Go"])
}

func TestEstimateAllZeroWhenNoRecognizedLanguage(t *testing.T) {
	records := []features.RepositoryRecord{
		repoIn("Brainfuck", 100, 500, 1),
	}

	scores, err := NewEstimator(CommitActivity).Estimate(records, []string{"Go", "Rust"})
	require.NoError(t, err)

	for skill, s := range scores {
		assert.Zero(t, s, "skill %s", skill)
	}
}

func TestEstimateEmptyUniverseFails(t *testing.T) {
	_, err := NewEstimator(CommitActivity).Estimate(nil, nil)
	require.Error(t, err)
}

func TestEstimateRecencyBreaksSymmetry(t *testing.T) {
	records := []features.RepositoryRecord{
		repoIn("Go", 10, 20, 2),
		repoIn("Rust", 10, 20, 400),
	}

	scores, err := NewEstimator(CommitActivity).Estimate(records, []string{"Go", "Rust"})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, scores["Go"], 1e-12)
	assert.Less(t, scores["Rust"], scores["Go"])
}

func TestEstimateActivityMetricVariants(t *testing.T) {
	records := []features.RepositoryRecord{
		{Name: "a", PrimaryLanguage: "Go", Stars: 1, CommitCount: 100, LangSize: 10},
		{Name: "b", PrimaryLanguage: "Rust", Stars: 1, CommitCount: 10, LangSize: 100000},
	}
	universe := []string{"Go", "Rust"}

	byCommits, err := NewEstimator(CommitActivity).Estimate(records, universe)
	require.NoError(t, err)
	assert.Greater(t, byCommits["Go"], byCommits["Rust"])

	bySize, err := NewEstimator(CodeSizeActivity).Estimate(records, universe)
	require.NoError(t, err)
	assert.Greater(t, bySize["Rust"], bySize["Go"])
}

func TestTopSkills(t *testing.T) {
	scores := map[string]float64{
		"Python":     1.0,
		"Go":         0.6,
		"Rust":       0.6,
		"JavaScript": 0.0,
	}
	universe := []string{"JavaScript", "Python", "Go", "Rust", "Java"}

	got := TopSkills(scores, universe, 3)
	assert.Equal(t, []string{"Python", "Go", "Rust"}, got)

	got = TopSkills(scores, universe, 10)
	assert.Equal(t, []string{"Python", "Go", "Rust"}, got, "zero-score skills never included")
}

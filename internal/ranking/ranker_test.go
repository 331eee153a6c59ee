package ranking

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitfolio/engine/internal/features"
)

func TestImportanceMatchesReferenceValue(t *testing.T) {
	rec := features.RepositoryRecord{
		Name:            "engine",
		Owner:           "alice",
		Stars:           150,
		Forks:           20,
		Watchers:        5,
		LangSize:        50000,
		LangCount:       3,
		Deployments:     0,
		CommitCount:     40,
		DaysSinceUpdate: 10,
	}

	want := (10*math.Log(151) + 6*math.Log(21) + 4*math.Log(6) +
		4*math.Log(50001) + 2*math.Log(41) + 2*math.Log(4)) * math.Exp(-10.0/180.0)

	got := Importance(rec)
	assert.InEpsilon(t, want, got, 1e-6)
}

func TestRankIncludesOwnedRepository(t *testing.T) {
	rec := features.RepositoryRecord{
		Name: "engine", Owner: "alice", Stars: 150, Forks: 20,
		Watchers: 5, LangSize: 50000, LangCount: 3, CommitCount: 40,
		DaysSinceUpdate: 10,
	}

	ranked, err := NewRanker(DefaultTopN).Rank([]features.RepositoryRecord{rec}, "alice")
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "engine", ranked[0].Name)
	assert.Equal(t, "owned repository", ranked[0].Rationale)
}

func TestRankRequiresOwnerLogin(t *testing.T) {
	_, err := NewRanker(DefaultTopN).Rank(nil, "")
	require.Error(t, err)
}

func TestInclusionFilter(t *testing.T) {
	tests := []struct {
		name     string
		rec      features.RepositoryRecord
		included bool
	}{
		{
			name:     "archived excluded regardless of stars",
			rec:      features.RepositoryRecord{Name: "old", Owner: "alice", Stars: 9000, IsArchived: true},
			included: false,
		},
		{
			name:     "empty excluded",
			rec:      features.RepositoryRecord{Name: "shell", Owner: "alice", IsEmpty: true},
			included: false,
		},
		{
			name:     "low-star fork not owned excluded",
			rec:      features.RepositoryRecord{Name: "patch", Owner: "bob", Stars: 5, IsFork: true},
			included: false,
		},
		{
			name:     "popular fork included",
			rec:      features.RepositoryRecord{Name: "famous", Owner: "bob", Stars: 500, IsFork: true},
			included: true,
		},
		{
			name:     "owned fork included",
			rec:      features.RepositoryRecord{Name: "mine", Owner: "alice", Stars: 1, IsFork: true},
			included: true,
		},
		{
			name:     "external non-fork below threshold excluded",
			rec:      features.RepositoryRecord{Name: "contrib", Owner: "bob", Stars: 99},
			included: false,
		},
		{
			name:     "external non-fork at threshold included",
			rec:      features.RepositoryRecord{Name: "upstream", Owner: "bob", Stars: 100},
			included: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked, err := NewRanker(DefaultTopN).Rank([]features.RepositoryRecord{tt.rec}, "alice")
			require.NoError(t, err)
			if tt.included {
				assert.Len(t, ranked, 1)
			} else {
				assert.Empty(t, ranked)
			}
		})
	}
}

func TestRankDeterministicUnderShuffle(t *testing.T) {
	var records []features.RepositoryRecord
	names := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	for i, n := range names {
		records = append(records, features.RepositoryRecord{
			Name: n, Owner: "alice",
			Stars: 10 * (i + 1), Forks: i, CommitCount: 100 - i,
			DaysSinceUpdate: float64(5 * i),
		})
	}
	// Two records tied on importance and stars, split by name only.
	records = append(records,
		features.RepositoryRecord{Name: "zeta", Owner: "alice", Stars: 50, DaysSinceUpdate: 30},
		features.RepositoryRecord{Name: "yankee", Owner: "alice", Stars: 50, DaysSinceUpdate: 30},
	)

	ranker := NewRanker(DefaultTopN)
	baseline, err := ranker.Rank(records, "alice")
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 5; trial++ {
		shuffled := append([]features.RepositoryRecord(nil), records...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := ranker.Rank(shuffled, "alice")
		require.NoError(t, err)
		require.Len(t, got, len(baseline))
		for i := range baseline {
			assert.Equal(t, baseline[i].Name, got[i].Name, "trial %d position %d", trial, i)
		}
	}
}

func TestRecencyDecayMonotonic(t *testing.T) {
	fresh := features.RepositoryRecord{Name: "a", Stars: 100, DaysSinceUpdate: 5}
	stale := fresh
	stale.DaysSinceUpdate = 300

	assert.Greater(t, Importance(fresh), Importance(stale))
}

func TestRankNeverPads(t *testing.T) {
	records := []features.RepositoryRecord{
		{Name: "keep", Owner: "alice", Stars: 10},
		{Name: "archived", Owner: "alice", Stars: 500, IsArchived: true},
		{Name: "foreign", Owner: "bob", Stars: 3},
	}

	ranked, err := NewRanker(DefaultTopN).Rank(records, "alice")
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "keep", ranked[0].Name)
}

func TestRankCapsOutput(t *testing.T) {
	var records []features.RepositoryRecord
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		records = append(records, features.RepositoryRecord{Name: n, Owner: "alice", Stars: len(n)})
	}

	ranked, err := NewRanker(DefaultTopN).Rank(records, "alice")
	require.NoError(t, err)
	assert.Len(t, ranked, DefaultTopN)
}

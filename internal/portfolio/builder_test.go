package portfolio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitfolio/engine/internal/labels"
	"github.com/gitfolio/engine/internal/types"
)

type stubModel struct {
	out []float64
	err error
}

func (m *stubModel) Score(_ []float64) ([]float64, error) {
	return m.out, m.err
}

func samplePayload() types.UserPayload {
	payload := types.UserPayload{
		User: types.RawUser{
			Login:     "alice",
			Name:      "Alice Example",
			AvatarURL: "https://avatars.example/alice",
			CreatedAt: "2016-03-01T00:00:00Z",
			Followers: &types.CountField{TotalCount: 250},
			Following: &types.CountField{TotalCount: 80},
		},
		Repositories: []types.RawRepository{
			{
				Name:            "engine",
				NameWithOwner:   "alice/engine",
				URL:             "https://github.com/alice/engine",
				Description:     "A scoring engine",
				CreatedAt:       "2020-01-15T00:00:00Z",
				UpdatedAt:       "2024-05-20T00:00:00Z",
				PushedAt:        "2024-05-20T00:00:00Z",
				StargazerCount:  420,
				ForkCount:       35,
				Watchers:        &types.CountField{TotalCount: 12},
				PrimaryLanguage: &types.LanguageNode{Name: "Go"},
				Languages: &types.Languages{
					TotalSize:  120000,
					TotalCount: 4,
					Edges: []types.LanguageEdge{
						{Node: types.LanguageNode{Name: "Go"}},
						{Node: types.LanguageNode{Name: "Shell"}},
					},
				},
			},
			{
				Name:            "scripts",
				NameWithOwner:   "alice/scripts",
				URL:             "https://github.com/alice/scripts",
				CreatedAt:       "2021-06-01T00:00:00Z",
				UpdatedAt:       "2024-04-01T00:00:00Z",
				PushedAt:        "2024-04-01T00:00:00Z",
				StargazerCount:  8,
				PrimaryLanguage: &types.LanguageNode{Name: "Python"},
			},
			{
				Name:           "attic",
				NameWithOwner:  "alice/attic",
				URL:            "https://github.com/alice/attic",
				CreatedAt:      "2017-01-01T00:00:00Z",
				StargazerCount: 900,
				IsArchived:     true,
			},
		},
		Contributions: types.ContributionSummary{
			TotalCommitContributions:            1200,
			TotalIssueContributions:             45,
			TotalPullRequestContributions:       120,
			TotalPullRequestReviewContributions: 200,
		},
	}
	c := types.RepoContribution{Contributions: types.CountField{TotalCount: 800}}
	c.Repository.NameWithOwner = "alice/engine"
	payload.Contributions.CommitsByRepository = []types.RepoContribution{c}
	return payload
}

func buildNow(t *testing.T) time.Time {
	t.Helper()
	now, err := time.Parse(time.RFC3339, "2024-06-01T00:00:00Z")
	require.NoError(t, err)
	return now
}

func TestBuildFullPipeline(t *testing.T) {
	b := NewBuilder(Options{})
	p, err := b.Build(samplePayload(), buildNow(t))
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Alice Example", p.Name)
	assert.Equal(t, "alice", p.Meta.GithubUsername)
	assert.Equal(t, EngineVersion, p.Meta.EngineVersion)

	// Archived repo never appears; owned repos ordered by importance.
	require.Len(t, p.TopProjects, 2)
	assert.Equal(t, "engine", p.TopProjects[0].Name)
	assert.Equal(t, "scripts", p.TopProjects[1].Name)
	assert.Equal(t, 800, p.TopProjects[0].Commits)
	assert.Equal(t, "owner", p.TopProjects[0].Role)
	assert.Equal(t, "2020-01-15 to 2024-05-20", p.TopProjects[0].Timeline)
	assert.Contains(t, p.TopProjects[0].Impact, "420 stars")

	assert.Contains(t, p.Skills, "Go")
	assert.Contains(t, p.Skills, "Python")
	assert.NotEmpty(t, p.Headline)
	assert.Contains(t, p.Headline, "specializing in")
	assert.Contains(t, p.Summary, "Alice Example")

	assert.NotEmpty(t, p.BehaviorProfile.Primary)
	assert.Contains(t, p.CompositeScores, "leadership_score")
	assert.Equal(t, 1200, p.TotalStats.TotalCommits)
	assert.Equal(t, 250, p.TotalStats.Followers)
}

func TestBuildRequiresLogin(t *testing.T) {
	b := NewBuilder(Options{})
	payload := samplePayload()
	payload.User.Login = ""

	_, err := b.Build(payload, buildNow(t))
	require.Error(t, err)
}

func TestBuildEmptyRepositorySet(t *testing.T) {
	b := NewBuilder(Options{})
	payload := samplePayload()
	payload.Repositories = nil
	payload.Contributions.CommitsByRepository = nil

	p, err := b.Build(payload, buildNow(t))
	require.NoError(t, err)

	assert.Empty(t, p.TopProjects)
	assert.NotEmpty(t, p.Skills, "canonical fallback keeps the list non-empty")
	assert.NotEmpty(t, p.BehaviorProfile.Primary)
}

func TestBuildWithTrainedModels(t *testing.T) {
	behaviorVec := []float64{0, 1, 0, 1}
	skillsVec := make([]float64, len(labels.SkillLabels))
	skillsVec[10] = 1 // Go
	skillsVec[11] = 1 // Rust

	b := NewBuilder(Options{
		BehaviorModel: &stubModel{out: behaviorVec},
		SkillsModel:   &stubModel{out: skillsVec},
	})

	p, err := b.Build(samplePayload(), buildNow(t))
	require.NoError(t, err)

	assert.Equal(t, "team_player", p.BehaviorProfile.Primary)
	assert.Equal(t, []string{"learner"}, p.BehaviorProfile.Secondary)
	assert.Equal(t, []string{"Go", "Rust"}, p.Skills)
}

func TestBuildBehaviorModelWrongShapeIsFatal(t *testing.T) {
	b := NewBuilder(Options{
		BehaviorModel: &stubModel{out: []float64{1, 0}},
	})

	_, err := b.Build(samplePayload(), buildNow(t))
	require.Error(t, err)
}

func TestBuildModelFailureIsFatal(t *testing.T) {
	b := NewBuilder(Options{
		SkillsModel: &stubModel{err: errors.New("corrupt model file")},
	})

	_, err := b.Build(samplePayload(), buildNow(t))
	require.Error(t, err)
}

func TestBuildDeterministicApartFromID(t *testing.T) {
	b := NewBuilder(Options{})
	now := buildNow(t)

	p1, err := b.Build(samplePayload(), now)
	require.NoError(t, err)
	p2, err := b.Build(samplePayload(), now)
	require.NoError(t, err)

	p1.ID, p2.ID = "", ""
	assert.Equal(t, p1, p2)
}

package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitfolio/engine/internal/types"
)

func TestAggregate(t *testing.T) {
	now := fixedNow(t)

	contrib := types.ContributionSummary{
		TotalCommitContributions:            400,
		TotalIssueContributions:             30,
		TotalPullRequestContributions:       60,
		TotalPullRequestReviewContributions: 90,
	}
	user := types.RawUser{
		Login:         "octocat",
		CreatedAt:     "2014-06-01T00:00:00Z",
		Followers:     &types.CountField{TotalCount: 120},
		Following:     &types.CountField{TotalCount: 40},
		Organizations: &types.CountField{TotalCount: 2},
	}
	records := []RepositoryRecord{
		{Name: "a", Stars: 100, Forks: 10, PrimaryLanguage: "Go", LangCount: 3, IsActive: true},
		{Name: "b", Stars: 50, Forks: 5, PrimaryLanguage: "Go", LangCount: 2, IsFork: true},
		{Name: "c", Stars: 10, Forks: 0, PrimaryLanguage: "Python", LangCount: 1, IsActive: true},
	}

	u := Aggregate(contrib, user, records, now)

	age := u.AccountAgeDays
	assert.Greater(t, age, 3650.0)

	assert.Equal(t, 3, u.TotalRepos)
	assert.Equal(t, 160, u.TotalStars)
	assert.Equal(t, 15, u.TotalForks)
	assert.Equal(t, 2, u.ActiveRepos)
	assert.Equal(t, 2, u.StartedRepos)
	assert.Equal(t, 1, u.ForkedRepos)
	assert.Equal(t, 2, u.LanguageDiversity)
	assert.Equal(t, "Go", u.MostUsedLanguage)

	assert.InDelta(t, 400/age, u.CommitsPerDay, 1e-9)
	assert.InDelta(t, 90.0/60.0, u.PRReviewRatio, 1e-9)
	assert.InDelta(t, float64(60+90+30)/401.0, u.CollaborationScore, 1e-9)
	assert.InDelta(t, 1.0/4.0, u.ForkContributionRate, 1e-9)
	assert.InDelta(t, 160.0/3.0, u.StarsPerRepo, 1e-9)
	assert.InDelta(t, 2.0/3.0, u.RepoActiveScore, 1e-9)
	assert.InDelta(t, 2.0, u.AvgLanguagesPerRepo, 1e-9)
	assert.InDelta(t, 0.4*math.Log1p(120)+0.6*math.Log1p(160), u.PopularityScore, 1e-9)
	assert.Equal(t, 100, u.MaxStarsRepo)
	assert.Greater(t, u.StarsStdDev, 0.0)
}

func TestAggregateEmptyRecordSet(t *testing.T) {
	now := fixedNow(t)
	user := types.RawUser{Login: "newcomer", CreatedAt: "2024-05-01T00:00:00Z"}

	u := Aggregate(types.ContributionSummary{}, user, nil, now)

	assert.Zero(t, u.TotalRepos)
	assert.Zero(t, u.TotalStars)
	assert.Zero(t, u.LanguageDiversity)
	assert.Zero(t, u.StarsPerRepo)
	assert.Zero(t, u.RepoActiveScore)
	assert.Zero(t, u.CollaborationScore)
	assert.False(t, math.IsNaN(u.PopularityScore))
	assert.False(t, math.IsNaN(u.ActivityScore))
}

func TestAggregateZeroAgeAccountUsesGuardedDenominator(t *testing.T) {
	now := fixedNow(t)
	contrib := types.ContributionSummary{TotalCommitContributions: 10}
	user := types.RawUser{Login: "today", CreatedAt: now.Format("2006-01-02T15:04:05Z07:00")}

	u := Aggregate(contrib, user, nil, now)

	assert.Zero(t, u.AccountAgeDays)
	assert.InDelta(t, 10.0, u.CommitsPerDay, 1e-9)
	assert.False(t, math.IsInf(u.CommitsPerDay, 1))
}

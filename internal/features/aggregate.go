package features

import (
	"math"
	"time"

	"github.com/gitfolio/engine/internal/types"
)

// UserFeatureSet holds account-level aggregates for one user. Every rate
// carries a +1 or max(x,1) denominator guard; every component defaults to 0
// when its source data is absent, so aggregation never fails on sparse input.
type UserFeatureSet struct {
	AccountAgeDays float64

	TotalCommits   int
	TotalIssues    int
	TotalPRs       int
	TotalPRReviews int
	TotalRepos     int
	TotalStars     int
	TotalForks     int

	Followers       int
	Following       int
	OrgCount        int
	SponsorsCount   int
	SponsoringCount int

	ActiveRepos       int
	StartedRepos      int
	ForkedRepos       int
	LanguageDiversity int
	MostUsedLanguage  string

	CommitsPerDay float64
	PRsPerDay     float64
	IssuesPerDay  float64

	PRReviewRatio        float64
	CollaborationScore   float64
	ForkContributionRate float64

	StarsPerRepo  float64
	ForksPerRepo  float64
	MaxStarsRepo  int
	StarsStdDev   float64
	FollowerRatio float64

	AvgLanguagesPerRepo float64
	RepoActiveScore     float64
	RecentActivityRatio float64
	CodeChangeRate      float64

	ActivityScore   float64
	PopularityScore float64
	EngagementScore float64
}

// Aggregate combines a contribution summary, the extracted repository
// records and the raw profile into one UserFeatureSet. An empty record set
// produces a complete set with all repo-derived aggregates at zero.
func Aggregate(contrib types.ContributionSummary, user types.RawUser, records []RepositoryRecord, now time.Time) UserFeatureSet {
	u := UserFeatureSet{
		TotalCommits:   contrib.TotalCommitContributions,
		TotalIssues:    contrib.TotalIssueContributions,
		TotalPRs:       contrib.TotalPullRequestContributions,
		TotalPRReviews: contrib.TotalPullRequestReviewContributions,

		Followers:       user.Followers.Count(),
		Following:       user.Following.Count(),
		OrgCount:        user.Organizations.Count(),
		SponsorsCount:   user.Sponsors.Count(),
		SponsoringCount: user.Sponsoring.Count(),
	}

	if created, ok := parseInstant(user.CreatedAt); ok {
		u.AccountAgeDays = daysBetween(created, now.UTC())
	}

	u.TotalRepos = len(records)
	langCounts := make(map[string]int)
	var starsValues []float64
	for _, rec := range records {
		u.TotalStars += rec.Stars
		u.TotalForks += rec.Forks
		if rec.IsActive {
			u.ActiveRepos++
		}
		if rec.IsFork {
			u.ForkedRepos++
		} else {
			u.StartedRepos++
		}
		if rec.PrimaryLanguage != "" {
			langCounts[rec.PrimaryLanguage]++
		}
		if rec.Stars > u.MaxStarsRepo {
			u.MaxStarsRepo = rec.Stars
		}
		u.AvgLanguagesPerRepo += float64(rec.LangCount)
		starsValues = append(starsValues, float64(rec.Stars))
	}

	u.LanguageDiversity = len(langCounts)
	best := 0
	for lang, n := range langCounts {
		if n > best || (n == best && (u.MostUsedLanguage == "" || lang < u.MostUsedLanguage)) {
			best = n
			u.MostUsedLanguage = lang
		}
	}

	ageDays := math.Max(u.AccountAgeDays, 1)
	repoCount := math.Max(float64(u.TotalRepos), 1)

	u.CommitsPerDay = float64(u.TotalCommits) / ageDays
	u.PRsPerDay = float64(u.TotalPRs) / ageDays
	u.IssuesPerDay = float64(u.TotalIssues) / ageDays

	u.PRReviewRatio = float64(u.TotalPRReviews) / math.Max(float64(u.TotalPRs), 1)
	u.CollaborationScore = float64(u.TotalPRs+u.TotalPRReviews+u.TotalIssues) / (float64(u.TotalCommits) + 1)
	u.ForkContributionRate = float64(u.ForkedRepos) / (float64(u.TotalRepos) + 1)

	u.StarsPerRepo = float64(u.TotalStars) / repoCount
	u.ForksPerRepo = float64(u.TotalForks) / repoCount
	u.StarsStdDev = stdDev(starsValues)
	u.FollowerRatio = float64(u.Followers) / math.Max(float64(u.Following), 1)

	u.AvgLanguagesPerRepo /= repoCount
	u.RepoActiveScore = float64(u.ActiveRepos) / repoCount
	u.RecentActivityRatio = u.RepoActiveScore
	u.CodeChangeRate = float64(u.TotalCommits) / ageDays

	u.ActivityScore = 0.4*u.CommitsPerDay + 0.3*u.PRsPerDay + 0.3*u.IssuesPerDay
	u.PopularityScore = 0.4*math.Log1p(float64(u.Followers)) + 0.6*math.Log1p(float64(u.TotalStars))
	u.EngagementScore = math.Log1p(float64(u.TotalCommits + u.TotalPRs + u.TotalIssues + u.TotalPRReviews))

	return u
}

func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range xs {
		mean += v
	}
	mean /= float64(len(xs))

	variance := 0.0
	for _, v := range xs {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(xs) - 1)
	return math.Sqrt(variance)
}

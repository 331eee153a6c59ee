package analysis

import "math"

// orgCap caps organization membership for interpretability: three or more
// orgs count as full organizational involvement.
const orgCap = 3.0

const eps = 1e-9

// CompositeInputs are the already-aggregated raw signals a composite score
// builder consumes for one user. Rates are per-year unless noted.
type CompositeInputs struct {
	OrgCount             int
	MentorshipRate       float64
	ReviewIntensity      float64
	SponsorsCount        int
	SponsoringCount      int
	Followers            int
	TotalStars           int
	TotalForks           int
	CollaborationRatio   float64
	ForkContributionRate float64
	AvgLanguagesPerRepo  float64
	AvgFilesPerCommit    float64
	CodeChangeRate       float64
	RepoActiveScore      float64
	StartedRepos         int
	ForkedRepos          int
	AvgStarsPerRepo      float64
	StarsStdDev          float64
	TotalLanguages       int
	RecentActivityRatio  float64
}

// CompositeSet holds the named composite indices for one user.
//
// All scores are in [0,1] except Reputation, which is a log-sum: unbounded
// but monotone in its inputs.
type CompositeSet struct {
	Leadership        float64 `json:"leadership_score"`
	TeamPlayer        float64 `json:"team_player_score"`
	ProjectComplexity float64 `json:"project_complexity"`
	Reputation        float64 `json:"reputation_score"`
	Maintainer        float64 `json:"maintainer_score"`
	Generalist        float64 `json:"generalist_score"`
	WorkConsistency   float64 `json:"work_consistency"`
	LearningVelocity  float64 `json:"learning_velocity"`
	Innovation        float64 `json:"innovation_index"`
}

// Map flattens the set for the portfolio artifact.
func (c CompositeSet) Map() map[string]float64 {
	return map[string]float64{
		"leadership_score":   c.Leadership,
		"team_player_score":  c.TeamPlayer,
		"project_complexity": c.ProjectComplexity,
		"reputation_score":   c.Reputation,
		"maintainer_score":   c.Maintainer,
		"generalist_score":   c.Generalist,
		"work_consistency":   c.WorkConsistency,
		"learning_velocity":  c.LearningVelocity,
		"innovation_index":   c.Innovation,
	}
}

// ScoreBuilder computes composite indices against cohort baselines. It is
// stateless apart from its configuration; two calls with identical inputs
// produce identical outputs.
type ScoreBuilder struct {
	baselines Baselines
	quantile  float64
}

// NewScoreBuilder creates a builder over the given cohort baselines. A zero
// quantile selects DefaultQuantile.
func NewScoreBuilder(baselines Baselines, quantile float64) *ScoreBuilder {
	if quantile <= 0 {
		quantile = DefaultQuantile
	}
	if baselines == nil {
		baselines = DefaultBaselines()
	}
	return &ScoreBuilder{baselines: baselines, quantile: quantile}
}

func (b *ScoreBuilder) norm(x float64, signal string) float64 {
	return NormalizeAgainst(x, b.baselines.Series(signal), b.quantile)
}

// Build computes every composite index for one user.
func (b *ScoreBuilder) Build(in CompositeInputs) CompositeSet {
	return CompositeSet{
		Leadership:        b.Leadership(in),
		TeamPlayer:        b.TeamPlayer(in),
		ProjectComplexity: b.ProjectComplexity(in),
		Reputation:        Reputation(in),
		Maintainer:        Maintainer(in),
		Generalist:        b.Generalist(in),
		WorkConsistency:   WorkConsistency(in),
		LearningVelocity:  b.LearningVelocity(in),
		Innovation:        b.Innovation(in),
	}
}

// Leadership blends organizational involvement, mentorship, review intensity
// and community support. Weights sum to 1.0: orgs and mentorship are the
// primary signals of leading people and projects.
func (b *ScoreBuilder) Leadership(in CompositeInputs) float64 {
	org := orgComponent(in.OrgCount)
	mentorship := b.norm(in.MentorshipRate, SignalMentorshipRate)
	review := b.norm(in.ReviewIntensity, SignalReviewIntensity)
	support := b.norm(math.Log1p(float64(in.SponsoringCount+in.SponsorsCount)), SignalCommunitySupport)

	return 0.35*org + 0.35*mentorship + 0.20*review + 0.10*support
}

// TeamPlayer blends orgs, collaboration intensity and fork contribution rate.
func (b *ScoreBuilder) TeamPlayer(in CompositeInputs) float64 {
	org := orgComponent(in.OrgCount)
	collab := b.norm(in.CollaborationRatio, SignalCollaborationRate)
	forkRate := clip(in.ForkContributionRate, 0, 1)

	return 0.35*org + 0.45*collab + 0.20*forkRate
}

// ProjectComplexity blends language richness, per-commit breadth, churn and
// portfolio activeness.
func (b *ScoreBuilder) ProjectComplexity(in CompositeInputs) float64 {
	langRichness := b.norm(in.AvgLanguagesPerRepo, SignalLanguagesPerRepo)
	filesTouched := b.norm(in.AvgFilesPerCommit, SignalFilesPerCommit)
	churn := b.norm(in.CodeChangeRate, SignalCodeChangeRate)
	active := clip(in.RepoActiveScore, 0, 1)

	return 0.30*langRichness + 0.25*filesTouched + 0.25*churn + 0.20*active
}

// Reputation is a weighted log-sum of social reach and received engagement.
// Unlike the convex-combination indices it is unbounded, but remains monotone
// in every input.
func Reputation(in CompositeInputs) float64 {
	return 0.3*math.Log1p(float64(in.Followers)) +
		0.3*math.Log1p(float64(in.TotalStars)) +
		0.2*math.Log1p(float64(in.TotalForks)) +
		0.1*math.Log1p(float64(in.SponsoringCount)) +
		0.1*math.Log1p(float64(in.SponsorsCount))
}

// Maintainer is the share of original repositories among everything the user
// started or forked.
func Maintainer(in CompositeInputs) float64 {
	denom := float64(in.StartedRepos+in.ForkedRepos) + 1.0
	return float64(in.StartedRepos) / denom
}

// Generalist is the normalized count of languages the user works in.
func (b *ScoreBuilder) Generalist(in CompositeInputs) float64 {
	return b.norm(float64(in.TotalLanguages), SignalTotalLanguages)
}

// WorkConsistency is bounded in (0,1]: higher means steadier reception
// across the user's repositories.
func WorkConsistency(in CompositeInputs) float64 {
	varRatio := in.StarsStdDev / (in.AvgStarsPerRepo + eps)
	if varRatio < 0 || math.IsNaN(varRatio) || math.IsInf(varRatio, 0) {
		varRatio = 0
	}
	return 1.0 / (1.0 + varRatio)
}

// LearningVelocity is breadth times recentness.
func (b *ScoreBuilder) LearningVelocity(in CompositeInputs) float64 {
	return b.Generalist(in) * clip(in.RecentActivityRatio, 0, 1)
}

// Innovation is the geometric mean of originality (repos started) and
// reception (average stars).
func (b *ScoreBuilder) Innovation(in CompositeInputs) float64 {
	started := b.norm(float64(in.StartedRepos), SignalStartedRepos)
	avgStars := b.norm(in.AvgStarsPerRepo, SignalAvgStarsPerRepo)
	return math.Sqrt(started * avgStars)
}

func orgComponent(orgCount int) float64 {
	return clip(float64(orgCount), 0, orgCap) / orgCap
}

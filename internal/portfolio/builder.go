package portfolio

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gitfolio/engine/internal/analysis"
	apperrors "github.com/gitfolio/engine/internal/errors"
	"github.com/gitfolio/engine/internal/features"
	"github.com/gitfolio/engine/internal/labels"
	"github.com/gitfolio/engine/internal/ranking"
	"github.com/gitfolio/engine/internal/skills"
	"github.com/gitfolio/engine/internal/types"
)

// EngineVersion is stamped into every generated artifact.
const EngineVersion = "1.0.0"

// behaviorThreshold converts a composite score into a binary behavior
// activation for the rule-based path.
const behaviorThreshold = 0.5

// Options configure a Builder. Zero values select the rule-based defaults.
type Options struct {
	// BehaviorModel and SkillsModel are externally trained classifiers.
	// When nil, behavior and skills are derived rule-based from composite
	// scores and the proficiency estimator.
	BehaviorModel labels.Model
	SkillsModel   labels.Model

	Baselines analysis.Baselines
	Quantile  float64
	TopN      int
	Logger    *slog.Logger
}

// Builder turns one user payload into a portfolio artifact. It is safe for
// concurrent use: all state is configuration fixed at construction.
type Builder struct {
	behaviorModel labels.Model
	skillsModel   labels.Model
	scores        *analysis.ScoreBuilder
	ranker        *ranking.Ranker
	estimator     *skills.Estimator
	logger        *slog.Logger
}

func NewBuilder(opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		behaviorModel: opts.BehaviorModel,
		skillsModel:   opts.SkillsModel,
		scores:        analysis.NewScoreBuilder(opts.Baselines, opts.Quantile),
		ranker:        ranking.NewRanker(opts.TopN),
		estimator:     skills.NewEstimator(skills.CommitActivity),
		logger:        logger,
	}
}

// Build runs the full pipeline: extraction, aggregation, composite scoring,
// ranking, skill estimation and label decoding. Per-repository problems
// degrade; a missing login or a model contract violation is fatal.
func (b *Builder) Build(payload types.UserPayload, now time.Time) (*types.Portfolio, error) {
	login := payload.User.Login
	if login == "" {
		return nil, apperrors.NewStructuralError("payload has no user login", nil)
	}
	now = now.UTC()

	records := features.ExtractAll(payload.Repositories, now, b.logger)
	features.JoinCommits(records, payload.Contributions.CommitsByRepository)

	userSet := features.Aggregate(payload.Contributions, payload.User, records, now)
	composites := b.scores.Build(compositeInputs(userSet))

	ranked, err := b.ranker.Rank(records, login)
	if err != nil {
		return nil, err
	}

	skillList, err := b.decodeSkills(userSet, records, composites)
	if err != nil {
		return nil, err
	}

	profile, err := b.decodeBehavior(userSet, composites)
	if err != nil {
		return nil, err
	}

	projects := make([]types.Project, 0, len(ranked))
	for _, p := range ranked {
		projects = append(projects, buildProject(p, login))
	}

	b.logger.Info("portfolio assembled",
		"login", login,
		"repositories", len(records),
		"projects", len(projects),
		"skills", len(skillList),
		"behavior", profile.Primary)

	return &types.Portfolio{
		ID:              uuid.NewString(),
		Name:            displayName(payload.User),
		AvatarURL:       payload.User.AvatarURL,
		Headline:        headline(profile, skillList),
		Summary:         summary(payload.User, profile, userSet),
		Location:        payload.User.Location,
		WebsiteURL:      payload.User.WebsiteURL,
		Skills:          skillList,
		Strengths:       strengths(skillList),
		BehaviorProfile: profile,
		TopProjects:     projects,
		CompositeScores: composites.Map(),
		TotalStats: types.TotalStats{
			Followers:      userSet.Followers,
			TotalStars:     userSet.TotalStars,
			TotalForks:     userSet.TotalForks,
			TotalCommits:   userSet.TotalCommits,
			TotalPRReviews: userSet.TotalPRReviews,
			TotalIssues:    userSet.TotalIssues,
		},
		Meta: types.PortfolioMeta{
			GithubUsername: login,
			GeneratedAt:    now.Format(time.RFC3339),
			EngineVersion:  EngineVersion,
		},
	}, nil
}

// decodeSkills prefers the trained skills model and falls back to the
// rule-based proficiency estimator when no model is wired in.
func (b *Builder) decodeSkills(u features.UserFeatureSet, records []features.RepositoryRecord, c analysis.CompositeSet) ([]string, error) {
	if b.skillsModel != nil {
		predictions, err := b.skillsModel.Score(modelFeatures(u, c))
		if err != nil {
			return nil, apperrors.NewStructuralError("skills model scoring failed", err)
		}
		return labels.DecodeSkills(predictions, labels.DefaultTopSkills), nil
	}

	scores, err := b.estimator.Estimate(records, labels.SkillLabels)
	if err != nil {
		return nil, err
	}
	top := skills.TopSkills(scores, labels.SkillLabels, labels.DefaultTopSkills)
	if len(top) == 0 {
		return labels.DecodeSkills(nil, labels.DefaultTopSkills), nil
	}
	return top, nil
}

// decodeBehavior prefers the trained behavior model; without one, composite
// scores are thresholded into the binary activation vector.
func (b *Builder) decodeBehavior(u features.UserFeatureSet, c analysis.CompositeSet) (types.BehaviorProfile, error) {
	var predictions []float64
	if b.behaviorModel != nil {
		scored, err := b.behaviorModel.Score(modelFeatures(u, c))
		if err != nil {
			return types.BehaviorProfile{}, apperrors.NewStructuralError("behavior model scoring failed", err)
		}
		predictions = scored
	} else {
		predictions = []float64{
			activation(c.Maintainer),
			activation(c.TeamPlayer),
			activation(c.Innovation),
			activation(c.LearningVelocity),
		}
	}
	return labels.DecodeBehavior(predictions)
}

func activation(score float64) float64 {
	if score >= behaviorThreshold {
		return 1
	}
	return 0
}

// modelFeatures is the fixed-order numeric vector handed to trained models.
// The ordering is part of the model contract; append only.
func modelFeatures(u features.UserFeatureSet, c analysis.CompositeSet) []float64 {
	return []float64{
		u.AccountAgeDays,
		float64(u.TotalCommits),
		float64(u.TotalIssues),
		float64(u.TotalPRs),
		float64(u.TotalPRReviews),
		float64(u.TotalRepos),
		float64(u.TotalStars),
		float64(u.TotalForks),
		float64(u.Followers),
		float64(u.Following),
		float64(u.OrgCount),
		float64(u.ActiveRepos),
		float64(u.LanguageDiversity),
		u.CommitsPerDay,
		u.PRsPerDay,
		u.IssuesPerDay,
		u.PRReviewRatio,
		u.CollaborationScore,
		u.ForkContributionRate,
		u.StarsPerRepo,
		u.ForksPerRepo,
		u.StarsStdDev,
		u.FollowerRatio,
		u.AvgLanguagesPerRepo,
		u.RepoActiveScore,
		u.CodeChangeRate,
		u.ActivityScore,
		u.PopularityScore,
		u.EngagementScore,
		c.Leadership,
		c.TeamPlayer,
		c.ProjectComplexity,
		c.Reputation,
		c.Maintainer,
		c.Generalist,
		c.WorkConsistency,
		c.LearningVelocity,
		c.Innovation,
	}
}

func buildProject(p ranking.RankedProject, login string) types.Project {
	tech := p.AllLanguages
	if len(tech) > 5 {
		tech = tech[:5]
	}

	role := "contributor"
	if p.Owner == login || p.Owner == "" {
		role = "owner"
	}

	impact := "Active project"
	if p.Stars > 10 {
		impact = fmt.Sprintf("Popular repo with %d stars", p.Stars)
	}

	highlight := fmt.Sprintf("%d stars, updated %.1f months ago", p.Stars, p.DaysSinceUpdate/30)

	return types.Project{
		Name:            p.Name,
		URL:             p.URL,
		Description:     p.Description,
		PrimaryLanguage: p.PrimaryLanguage,
		Tech:            append([]string(nil), tech...),
		Stars:           p.Stars,
		Forks:           p.Forks,
		Commits:         p.CommitCount,
		Role:            role,
		Timeline:        timeline(p.CreatedAt, p.UpdatedAt),
		Highlights:      []string{highlight},
		Impact:          impact,
	}
}

func timeline(createdAt, updatedAt string) string {
	return fmt.Sprintf("%s to %s", datePart(createdAt), datePart(updatedAt))
}

func datePart(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

func headline(profile types.BehaviorProfile, skillList []string) string {
	title := labels.Describe(profile.Primary).Title
	skillsText := "multiple technologies"
	if len(skillList) > 0 {
		top := skillList
		if len(top) > 3 {
			top = top[:3]
		}
		skillsText = strings.Join(top, ", ")
	}
	return fmt.Sprintf("%s specializing in %s", title, skillsText)
}

func summary(user types.RawUser, profile types.BehaviorProfile, u features.UserFeatureSet) string {
	name := user.Name
	if name == "" {
		name = user.Login
	}
	desc := strings.ToLower(profile.Description)
	if desc == "" {
		desc = "developer"
	}
	return fmt.Sprintf("%s is a %s with %d commits and %d followers.",
		name, desc, u.TotalCommits, u.Followers)
}

func strengths(skillList []string) []string {
	top := skillList
	if len(top) > 3 {
		top = top[:3]
	}
	out := make([]string, 0, len(top))
	for _, s := range top {
		out = append(out, "Strong in "+s)
	}
	return out
}

func displayName(user types.RawUser) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Login
}

func compositeInputs(u features.UserFeatureSet) analysis.CompositeInputs {
	years := math.Max(u.AccountAgeDays/365.25, 1)
	return analysis.CompositeInputs{
		OrgCount:             u.OrgCount,
		MentorshipRate:       float64(u.TotalPRReviews) / years,
		ReviewIntensity:      float64(u.TotalPRReviews),
		SponsorsCount:        u.SponsorsCount,
		SponsoringCount:      u.SponsoringCount,
		Followers:            u.Followers,
		TotalStars:           u.TotalStars,
		TotalForks:           u.TotalForks,
		CollaborationRatio:   u.CollaborationScore,
		ForkContributionRate: u.ForkContributionRate,
		AvgLanguagesPerRepo:  u.AvgLanguagesPerRepo,
		AvgFilesPerCommit:    0, // not derivable from the payload shape
		CodeChangeRate:       u.CodeChangeRate,
		RepoActiveScore:      u.RepoActiveScore,
		StartedRepos:         u.StartedRepos,
		ForkedRepos:          u.ForkedRepos,
		AvgStarsPerRepo:      u.StarsPerRepo,
		StarsStdDev:          u.StarsStdDev,
		TotalLanguages:       u.LanguageDiversity,
		RecentActivityRatio:  u.RecentActivityRatio,
	}
}

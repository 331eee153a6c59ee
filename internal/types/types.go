package types

// CountField mirrors GraphQL connection objects that only carry totalCount.
// A nil pointer and a zero totalCount are equivalent for this engine.
type CountField struct {
	TotalCount int `json:"totalCount"`
}

// Count returns the total count, treating a nil field as zero.
func (c *CountField) Count() int {
	if c == nil {
		return 0
	}
	return c.TotalCount
}

// LanguageNode is one language entry inside a repository's language edge list.
type LanguageNode struct {
	Name string `json:"name"`
}

// LanguageEdge pairs a language with the number of bytes written in it.
type LanguageEdge struct {
	Size int          `json:"size"`
	Node LanguageNode `json:"node"`
}

// Languages is the language connection of a repository.
type Languages struct {
	TotalSize  int            `json:"totalSize"`
	TotalCount int            `json:"totalCount"`
	Edges      []LanguageEdge `json:"edges"`
}

// RawRepository is one repository as delivered by the data-source
// collaborator. Every field except Name, URL and one timestamp is optional;
// consumers must default missing values rather than fail.
type RawRepository struct {
	Name            string        `json:"name"`
	NameWithOwner   string        `json:"nameWithOwner"`
	Description     string        `json:"description"`
	URL             string        `json:"url"`
	CreatedAt       string        `json:"createdAt"`
	UpdatedAt       string        `json:"updatedAt"`
	PushedAt        string        `json:"pushedAt"`
	PrimaryLanguage *LanguageNode `json:"primaryLanguage"`
	Languages       *Languages    `json:"languages"`
	StargazerCount  int           `json:"stargazerCount"`
	ForkCount       int           `json:"forkCount"`
	Watchers        *CountField   `json:"watchers"`
	Deployments     *CountField   `json:"deployments"`
	IsFork          bool          `json:"isFork"`
	IsArchived      bool          `json:"isArchived"`
	IsEmpty         bool          `json:"isEmpty"`
	IsTemplate      bool          `json:"isTemplate"`
}

// RepoContribution carries the requesting user's commit count for one
// repository, keyed by nameWithOwner.
type RepoContribution struct {
	Repository struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
	Contributions CountField `json:"contributions"`
}

// ContributionSummary is the user's contributionsCollection totals.
type ContributionSummary struct {
	TotalCommitContributions            int                `json:"totalCommitContributions"`
	TotalIssueContributions             int                `json:"totalIssueContributions"`
	TotalPullRequestContributions       int                `json:"totalPullRequestContributions"`
	TotalPullRequestReviewContributions int                `json:"totalPullRequestReviewContributions"`
	CommitsByRepository                 []RepoContribution `json:"commitContributionsByRepository"`
}

// RawUser is the profile portion of the data-source payload.
type RawUser struct {
	Login         string      `json:"login"`
	Name          string      `json:"name"`
	Bio           string      `json:"bio"`
	Location      string      `json:"location"`
	WebsiteURL    string      `json:"websiteUrl"`
	AvatarURL     string      `json:"avatarUrl"`
	CreatedAt     string      `json:"createdAt"`
	Followers     *CountField `json:"followers"`
	Following     *CountField `json:"following"`
	Organizations *CountField `json:"organizations"`
	Sponsors      *CountField `json:"sponsors"`
	Sponsoring    *CountField `json:"sponsoring"`
}

// UserPayload bundles everything the engine needs for one portfolio run.
type UserPayload struct {
	User          RawUser             `json:"user"`
	Repositories  []RawRepository     `json:"repositories"`
	Contributions ContributionSummary `json:"contributions"`
}

// Project is one entry of the portfolio's top-projects list.
type Project struct {
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	Description     string   `json:"description"`
	PrimaryLanguage string   `json:"primaryLanguage"`
	Tech            []string `json:"tech"`
	Stars           int      `json:"stars"`
	Forks           int      `json:"forks"`
	Commits         int      `json:"commits"`
	Role            string   `json:"role"`
	Timeline        string   `json:"timeline"`
	Highlights      []string `json:"highlights"`
	Impact          string   `json:"impact"`
}

// BehaviorProfile is the decoded behavior classification for one user.
type BehaviorProfile struct {
	Type           string    `json:"type"`
	Description    string    `json:"description"`
	Traits         []string  `json:"traits"`
	Primary        string    `json:"primary"`
	Secondary      []string  `json:"secondary"`
	All            []string  `json:"all"`
	RawPredictions []float64 `json:"raw_predictions,omitempty"`
}

// TotalStats are the headline counters at the bottom of a portfolio.
type TotalStats struct {
	Followers      int `json:"followers"`
	TotalStars     int `json:"total_stars"`
	TotalForks     int `json:"total_forks"`
	TotalCommits   int `json:"total_commits"`
	TotalPRReviews int `json:"total_pr_reviews"`
	TotalIssues    int `json:"total_issues_solved"`
}

// Portfolio is the flat artifact handed to the rendering collaborator.
type Portfolio struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	AvatarURL       string             `json:"avatarUrl"`
	Headline        string             `json:"headline"`
	Summary         string             `json:"summary"`
	Location        string             `json:"location"`
	WebsiteURL      string             `json:"websiteUrl"`
	Skills          []string           `json:"skills"`
	Strengths       []string           `json:"strengths"`
	BehaviorProfile BehaviorProfile    `json:"behavior_profile"`
	TopProjects     []Project          `json:"top_projects"`
	CompositeScores map[string]float64 `json:"composite_scores"`
	TotalStats      TotalStats         `json:"total_stats"`
	Meta            PortfolioMeta      `json:"meta"`
}

// PortfolioMeta records provenance for one generated artifact.
type PortfolioMeta struct {
	GithubUsername string `json:"github_username"`
	GeneratedAt    string `json:"generated_at"`
	EngineVersion  string `json:"engine_version"`
}

// GenerateRequest is the body of POST /portfolio/generate.
type GenerateRequest struct {
	Username string `json:"username" binding:"required"`
}

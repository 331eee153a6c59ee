package features

import (
	"log/slog"
	"math"
	"sync"
	"time"

	apperrors "github.com/gitfolio/engine/internal/errors"
	"github.com/gitfolio/engine/internal/types"
)

// InactiveSentinelDays is the recency default for repositories with an
// unparsable update/push timestamp. Unknown recency must rank low, not high,
// so the sentinel is deliberately large instead of zero.
const InactiveSentinelDays = 999

// ActiveWindowDays bounds how recently a repository must have been pushed to
// count as active.
const ActiveWindowDays = 180

// RepositoryRecord is the normalized feature view of one repository.
// Records are built once per extraction pass and not mutated afterwards,
// except for CommitCount which is joined from the contribution summary
// before ranking.
type RepositoryRecord struct {
	Name            string
	NameWithOwner   string
	Owner           string
	Description     string
	URL             string
	PrimaryLanguage string
	AllLanguages    []string
	LangSize        int
	LangCount       int
	Stars           int
	Forks           int
	Watchers        int
	Deployments     int
	CommitCount     int
	IsFork          bool
	IsArchived      bool
	IsEmpty         bool
	IsTemplate      bool
	RepoAgeDays     float64
	DaysSinceUpdate float64
	DaysSincePush   float64
	IsActive        bool
	PopularityScore float64
	EngagementScore float64
	StarsPerDay     float64
	ForkRatio       float64
	CreatedAt       string
	UpdatedAt       string
}

// timeLayouts are tried in order when parsing payload timestamps. RFC3339
// values carry an offset; the instant is converted to UTC before day math so
// that zone information is discarded only after the conversion.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseInstant(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func daysBetween(from, to time.Time) float64 {
	d := to.Sub(from).Hours() / 24
	if d < 0 {
		return 0
	}
	return math.Floor(d)
}

// Extract turns one raw repository payload into a RepositoryRecord.
// A record without a name cannot be identified downstream and is rejected;
// every other missing field defaults rather than fails.
func Extract(repo types.RawRepository, now time.Time) (RepositoryRecord, error) {
	if repo.Name == "" {
		return RepositoryRecord{}, apperrors.NewDataQualityError("repository payload has no name", nil)
	}

	now = now.UTC()

	rec := RepositoryRecord{
		Name:          repo.Name,
		NameWithOwner: repo.NameWithOwner,
		Owner:         ownerOf(repo.NameWithOwner),
		Description:   repo.Description,
		URL:           repo.URL,
		Stars:         repo.StargazerCount,
		Forks:         repo.ForkCount,
		Watchers:      repo.Watchers.Count(),
		Deployments:   repo.Deployments.Count(),
		IsFork:        repo.IsFork,
		IsArchived:    repo.IsArchived,
		IsEmpty:       repo.IsEmpty,
		IsTemplate:    repo.IsTemplate,
		CreatedAt:     repo.CreatedAt,
		UpdatedAt:     repo.UpdatedAt,
	}

	if repo.PrimaryLanguage != nil {
		rec.PrimaryLanguage = repo.PrimaryLanguage.Name
	}
	if repo.Languages != nil {
		rec.LangSize = repo.Languages.TotalSize
		rec.LangCount = repo.Languages.TotalCount
		for _, edge := range repo.Languages.Edges {
			if edge.Node.Name != "" {
				rec.AllLanguages = append(rec.AllLanguages, edge.Node.Name)
			}
		}
	}

	// Age defaults to 0 for an unparsable creation date; recency defaults
	// to the inactive sentinel.
	if created, ok := parseInstant(repo.CreatedAt); ok {
		rec.RepoAgeDays = daysBetween(created, now)
	}
	rec.DaysSinceUpdate = InactiveSentinelDays
	if updated, ok := parseInstant(repo.UpdatedAt); ok {
		rec.DaysSinceUpdate = daysBetween(updated, now)
	}
	rec.DaysSincePush = InactiveSentinelDays
	if pushed, ok := parseInstant(repo.PushedAt); ok {
		rec.DaysSincePush = daysBetween(pushed, now)
	}

	rec.IsActive = rec.DaysSincePush < ActiveWindowDays
	rec.PopularityScore = math.Log1p(float64(rec.Stars)) + 0.5*math.Log1p(float64(rec.Forks))
	rec.EngagementScore = float64(rec.Stars) + 2*float64(rec.Forks) + float64(rec.Watchers)
	rec.StarsPerDay = float64(rec.Stars) / (rec.RepoAgeDays + 1)
	rec.ForkRatio = float64(rec.Forks) / (float64(rec.Stars) + 1)

	return rec, nil
}

// ExtractAll extracts every repository in the payload. Extractions are
// independent and run as a parallel map; aggregation and ranking wait on the
// barrier here before proceeding. A failed record is logged and skipped, it
// never aborts the pass.
func ExtractAll(repos []types.RawRepository, now time.Time, logger *slog.Logger) []RepositoryRecord {
	if logger == nil {
		logger = slog.Default()
	}
	if len(repos) == 0 {
		return nil
	}

	results := make([]*RepositoryRecord, len(repos))
	errs := make([]error, len(repos))

	var wg sync.WaitGroup
	for i := range repos {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := Extract(repos[i], now)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = &rec
		}(i)
	}
	wg.Wait()

	records := make([]RepositoryRecord, 0, len(repos))
	for i, rec := range results {
		if rec == nil {
			logger.Warn("skipping malformed repository payload",
				"index", i,
				"name", repos[i].Name,
				"error", errs[i])
			continue
		}
		records = append(records, *rec)
	}
	return records
}

// JoinCommits attaches the requesting user's per-repository commit counts,
// keyed by nameWithOwner. Records without a matching contribution keep zero.
func JoinCommits(records []RepositoryRecord, contributions []types.RepoContribution) {
	if len(records) == 0 || len(contributions) == 0 {
		return
	}
	counts := make(map[string]int, len(contributions))
	for _, c := range contributions {
		counts[c.Repository.NameWithOwner] = c.Contributions.TotalCount
	}
	for i := range records {
		if n, ok := counts[records[i].NameWithOwner]; ok {
			records[i].CommitCount = n
		}
	}
}

func ownerOf(nameWithOwner string) string {
	for i := 0; i < len(nameWithOwner); i++ {
		if nameWithOwner[i] == '/' {
			return nameWithOwner[:i]
		}
	}
	return ""
}

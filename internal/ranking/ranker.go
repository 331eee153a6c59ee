package ranking

import (
	"math"
	"sort"

	"github.com/gitfolio/engine/internal/analysis"
	apperrors "github.com/gitfolio/engine/internal/errors"
	"github.com/gitfolio/engine/internal/features"
)

// DefaultTopN is the output cap for a portfolio's project list.
const DefaultTopN = 6

// PopularForkStars is the star threshold above which a fork counts as a
// notable external contribution even when not owned by the requesting user.
const PopularForkStars = 100

// MinPoolSize keeps the pre-filter candidate pool large enough that the
// inclusion filter rarely under-fills the output.
const MinPoolSize = 12

// Importance weights over log-transformed repository signals. The weighted
// sum is scaled by the recency multiplier, so stale repositories fall out of
// the pool no matter how popular they once were.
const (
	wStars       = 10.0
	wForks       = 6.0
	wWatchers    = 4.0
	wLangSize    = 4.0
	wDeployments = 3.0
	wCommits     = 2.0
	wLangCount   = 2.0
)

// RankedProject pairs a repository record with its importance score and the
// reason it was kept.
type RankedProject struct {
	features.RepositoryRecord
	ImportanceScore float64
	Rationale       string
}

// Importance computes the recency-decayed importance of one repository.
func Importance(rec features.RepositoryRecord) float64 {
	raw := wStars*math.Log1p(float64(rec.Stars)) +
		wForks*math.Log1p(float64(rec.Forks)) +
		wWatchers*math.Log1p(float64(rec.Watchers)) +
		wLangSize*math.Log1p(float64(rec.LangSize)) +
		wDeployments*math.Log1p(float64(rec.Deployments)) +
		wCommits*math.Log1p(float64(rec.CommitCount)) +
		wLangCount*math.Log1p(float64(rec.LangCount))
	return raw * analysis.RecencyMultiplier(rec.DaysSinceUpdate)
}

// Ranker orders a user's repositories by importance and applies the
// ownership/fork/archival inclusion policy.
type Ranker struct {
	topN int
}

// NewRanker builds a ranker with the given output cap. A non-positive cap
// falls back to DefaultTopN.
func NewRanker(topN int) *Ranker {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Ranker{topN: topN}
}

// Rank scores, orders and filters the given records for the requesting user.
// Ordering is a total order: importance desc, stars desc, name asc, so the
// result is identical across runs and input permutations. The inclusion
// filter runs as a separate pass over a pool of at least twice the output
// cap; the output is never padded with non-qualifying entries.
func (r *Ranker) Rank(records []features.RepositoryRecord, ownerLogin string) ([]RankedProject, error) {
	if ownerLogin == "" {
		return nil, apperrors.NewStructuralError("requesting user login is required for ranking", nil)
	}

	scored := make([]RankedProject, 0, len(records))
	for _, rec := range records {
		scored = append(scored, RankedProject{
			RepositoryRecord: rec,
			ImportanceScore:  Importance(rec),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.ImportanceScore != b.ImportanceScore {
			return a.ImportanceScore > b.ImportanceScore
		}
		if a.Stars != b.Stars {
			return a.Stars > b.Stars
		}
		return a.Name < b.Name
	})

	pool := 2 * r.topN
	if pool < MinPoolSize {
		pool = MinPoolSize
	}
	if pool > len(scored) {
		pool = len(scored)
	}

	out := make([]RankedProject, 0, r.topN)
	for _, candidate := range scored[:pool] {
		if rationale, ok := r.include(candidate, ownerLogin); ok {
			candidate.Rationale = rationale
			out = append(out, candidate)
			if len(out) == r.topN {
				break
			}
		}
	}
	return out, nil
}

func (r *Ranker) include(p RankedProject, ownerLogin string) (string, bool) {
	if p.IsEmpty || p.IsArchived {
		return "", false
	}
	owned := p.Owner == ownerLogin
	if p.IsFork {
		switch {
		case p.Stars > PopularForkStars:
			return "popular fork", true
		case owned:
			return "owned fork", true
		default:
			return "", false
		}
	}
	if owned {
		return "owned repository", true
	}
	if p.Stars >= PopularForkStars {
		return "notable external repository", true
	}
	return "", false
}

package skills

import (
	"math"
	"sort"

	"github.com/gitfolio/engine/internal/analysis"
	apperrors "github.com/gitfolio/engine/internal/errors"
	"github.com/gitfolio/engine/internal/features"
)

// Proficiency weights: repository frequency dominates, then activity volume,
// then social proof, then recency.
const (
	wFrequency = 0.4
	wActivity  = 0.3
	wStars     = 0.2
	wRecency   = 0.1
)

// ActivityMetric selects the per-repository volume signal fed into the
// activity term.
type ActivityMetric int

const (
	// CommitActivity weighs a skill by commits in its repositories.
	CommitActivity ActivityMetric = iota
	// CodeSizeActivity weighs a skill by language byte size instead; useful
	// when the contribution summary is unavailable.
	CodeSizeActivity
	// NoActivity disables the activity term.
	NoActivity
)

// Estimator computes rule-based skill proficiency scores from repository
// records, independent of any trained model.
type Estimator struct {
	activity ActivityMetric
}

func NewEstimator(activity ActivityMetric) *Estimator {
	return &Estimator{activity: activity}
}

// Estimate scores every skill in the universe for one user. Scores are
// normalized by the user's own maximum, so whenever any skill has a nonzero
// raw score the map's maximum is exactly 1.0. A skill with no matching
// repositories scores 0. An empty universe is a caller bug and fails.
func (e *Estimator) Estimate(records []features.RepositoryRecord, universe []string) (map[string]float64, error) {
	if len(universe) == 0 {
		return nil, apperrors.NewStructuralError("skill universe must not be empty", nil)
	}

	type bucket struct {
		freq     int
		activity float64
		stars    int
		recency  []float64
	}
	buckets := make(map[string]*bucket, len(universe))
	for _, skill := range universe {
		buckets[skill] = &bucket{}
	}

	for _, rec := range records {
		b, ok := buckets[rec.PrimaryLanguage]
		if !ok {
			continue
		}
		b.freq++
		b.stars += rec.Stars
		b.recency = append(b.recency, analysis.RecencyMultiplier(rec.DaysSinceUpdate))
		switch e.activity {
		case CommitActivity:
			b.activity += float64(rec.CommitCount)
		case CodeSizeActivity:
			b.activity += float64(rec.LangSize)
		}
	}

	scores := make(map[string]float64, len(universe))
	maxScore := 0.0
	for skill, b := range buckets {
		if b.freq == 0 {
			scores[skill] = 0
			continue
		}
		s := wFrequency*math.Log1p(float64(b.freq)) +
			wActivity*math.Log1p(b.activity) +
			wStars*math.Log1p(float64(b.stars)) +
			wRecency*mean(b.recency)
		scores[skill] = s
		if s > maxScore {
			maxScore = s
		}
	}

	if maxScore > 0 {
		for skill := range scores {
			scores[skill] /= maxScore
		}
	}
	return scores, nil
}

// TopSkills returns the universe's skills with nonzero proficiency, ordered
// by score descending with name as the tie-break, capped at n.
func TopSkills(scores map[string]float64, universe []string, n int) []string {
	type pair struct {
		name  string
		score float64
	}
	ranked := make([]pair, 0, len(universe))
	for _, skill := range universe {
		if s := scores[skill]; s > 0 {
			ranked = append(ranked, pair{skill, s})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, 0, n)
	for _, p := range ranked[:n] {
		out = append(out, p.name)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

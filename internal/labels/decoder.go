package labels

import (
	"sort"

	apperrors "github.com/gitfolio/engine/internal/errors"
	"github.com/gitfolio/engine/internal/types"
)

// DefaultTopSkills caps how many decoded skills are returned.
const DefaultTopSkills = 10

// ContinuousFloor is the minimum score a continuous skill prediction must
// exceed to count as active.
const ContinuousFloor = 0.1

// Model is the scoring contract of an externally trained classifier. The
// engine never loads or trains models itself; it consumes their output
// vectors through this seam.
type Model interface {
	Score(features []float64) ([]float64, error)
}

// DecodeBehavior maps the behavior model's binary output vector to a
// BehaviorProfile. The vector length is part of the model contract; a
// mismatch means the wrong model was wired in and is fatal.
func DecodeBehavior(predictions []float64) (types.BehaviorProfile, error) {
	if len(predictions) != len(BehaviorLabels) {
		return types.BehaviorProfile{}, apperrors.NewStructuralError(
			"behavior prediction vector has the wrong length", nil)
	}

	var active []string
	for i, v := range predictions {
		if v == 1 {
			active = append(active, BehaviorLabels[i])
		}
	}
	if len(active) == 0 {
		active = []string{FallbackBehavior}
	}

	desc := Describe(active[0])
	return types.BehaviorProfile{
		Type:           active[0],
		Description:    desc.Description,
		Traits:         desc.Traits,
		Primary:        active[0],
		Secondary:      active[1:],
		All:            active,
		RawPredictions: append([]float64(nil), predictions...),
	}, nil
}

// DecodeSkills maps a skill prediction vector, binary or continuous, to an
// ordered label list. Binary vectors keep label order; continuous vectors
// are ranked by score above the floor. When nothing activates, the first
// topN canonical labels are returned so downstream rendering never sees an
// empty skill list.
func DecodeSkills(predictions []float64, topN int) []string {
	if topN <= 0 {
		topN = DefaultTopSkills
	}
	if len(predictions) > len(SkillLabels) {
		predictions = predictions[:len(SkillLabels)]
	}

	if isBinary(predictions) {
		var active []string
		for i, v := range predictions {
			if v == 1 {
				active = append(active, SkillLabels[i])
			}
		}
		if len(active) == 0 {
			return fallbackSkills(topN)
		}
		if len(active) > topN {
			active = active[:topN]
		}
		return active
	}

	type pair struct {
		name  string
		score float64
	}
	var ranked []pair
	for i, v := range predictions {
		if v > ContinuousFloor {
			ranked = append(ranked, pair{SkillLabels[i], v})
		}
	}
	if len(ranked) == 0 {
		return fallbackSkills(topN)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	out := make([]string, 0, len(ranked))
	for _, p := range ranked {
		out = append(out, p.name)
	}
	return out
}

func fallbackSkills(n int) []string {
	if n > len(SkillLabels) {
		n = len(SkillLabels)
	}
	return append([]string(nil), SkillLabels[:n]...)
}

func isBinary(xs []float64) bool {
	for _, v := range xs {
		if v != 0 && v != 1 {
			return false
		}
	}
	return true
}

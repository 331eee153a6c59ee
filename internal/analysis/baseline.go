package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Baselines holds cohort series used to normalize a single user's raw
// signals against the population. Keys are signal names; values are the
// cohort's observed raw values for that signal.
type Baselines map[string][]float64

// Series returns the cohort series for a signal, or the built-in default
// when the loaded baseline file does not carry it.
func (b Baselines) Series(signal string) []float64 {
	if s, ok := b[signal]; ok && len(s) > 0 {
		return s
	}
	return defaultBaselines[signal]
}

// Signal names recognized by the composite score builder.
const (
	SignalMentorshipRate    = "mentorship_rate"
	SignalReviewIntensity   = "review_intensity"
	SignalCommunitySupport  = "community_support"
	SignalCollaborationRate = "collaboration_ratio"
	SignalLanguagesPerRepo  = "avg_languages_per_repo"
	SignalFilesPerCommit    = "avg_files_per_commit"
	SignalCodeChangeRate    = "code_change_rate"
	SignalStartedRepos      = "started_repos"
	SignalAvgStarsPerRepo   = "avg_stars_per_repo"
	SignalTotalLanguages    = "total_languages"
)

// defaultBaselines approximate the cohort distributions observed in the
// training corpus. They keep the engine usable before a deployment ships its
// own baseline file.
var defaultBaselines = Baselines{
	SignalMentorshipRate:    {0, 0, 1, 2, 5, 10, 20, 40, 80, 150},
	SignalReviewIntensity:   {0, 0, 2, 5, 10, 25, 50, 100, 200, 400},
	SignalCommunitySupport:  {0, 0, 0, 0.7, 1.1, 1.6, 2.3, 3.0, 3.9, 4.6},
	SignalCollaborationRate: {0, 0.05, 0.1, 0.2, 0.35, 0.5, 0.8, 1.2, 2.0, 3.5},
	SignalLanguagesPerRepo:  {0, 0.5, 1, 1.5, 2, 2.5, 3, 4, 5, 7},
	SignalFilesPerCommit:    {0, 1, 2, 3, 4, 6, 8, 12, 18, 30},
	SignalCodeChangeRate:    {0, 5, 15, 30, 60, 120, 250, 500, 1000, 2500},
	SignalStartedRepos:      {0, 1, 3, 6, 10, 18, 30, 50, 90, 160},
	SignalAvgStarsPerRepo:   {0, 0, 0.5, 1, 2, 5, 12, 30, 80, 250},
	SignalTotalLanguages:    {0, 1, 2, 4, 6, 8, 11, 15, 20, 28},
}

// BaselineStore loads cohort baselines by name from a data directory.
type BaselineStore struct {
	dataDir string
}

// NewBaselineStore creates a baseline store rooted at dataDir.
func NewBaselineStore(dataDir string) *BaselineStore {
	return &BaselineStore{dataDir: dataDir}
}

// Load reads the baseline file for a cohort. A missing file is not an error:
// the built-in defaults are returned so scoring can proceed.
func (s *BaselineStore) Load(cohort string) (Baselines, error) {
	filePath := filepath.Join(s.dataDir, fmt.Sprintf("%s.json", cohort))

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return DefaultBaselines(), nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open baseline file: %w", err)
	}
	defer file.Close()

	var b Baselines
	if err := json.NewDecoder(file).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode baseline data: %w", err)
	}

	return b, nil
}

// Save writes a cohort's baselines to the store.
func (s *BaselineStore) Save(cohort string, b Baselines) error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create baseline directory: %w", err)
	}

	filePath := filepath.Join(s.dataDir, fmt.Sprintf("%s.json", cohort))
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create baseline file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("failed to encode baseline data: %w", err)
	}

	return nil
}

// DefaultBaselines returns a copy of the built-in cohort defaults.
func DefaultBaselines() Baselines {
	b := make(Baselines, len(defaultBaselines))
	for k, v := range defaultBaselines {
		b[k] = append([]float64(nil), v...)
	}
	return b
}

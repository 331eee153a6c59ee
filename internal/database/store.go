package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gitfolio/engine/internal/types"
)

// StoredPortfolio is one persisted artifact row.
type StoredPortfolio struct {
	ID            string
	Username      string
	Portfolio     types.Portfolio
	EngineVersion string
	GeneratedAt   time.Time
}

// Store persists generated portfolios and a per-run generation log.
type Store struct {
	db *DB
}

// NewStore creates a store over an open database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// SavePortfolio persists one generated artifact.
func (s *Store) SavePortfolio(p *types.Portfolio) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio: %w", err)
	}

	generatedAt, err := time.Parse(time.RFC3339, p.Meta.GeneratedAt)
	if err != nil {
		generatedAt = time.Now().UTC()
	}

	stmt, err := s.db.stmt("insert_portfolio")
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(p.ID, p.Meta.GithubUsername, string(payload), p.Meta.EngineVersion, generatedAt); err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}

// LatestPortfolio returns the most recently generated portfolio for a user,
// or (nil, nil) when none exists.
func (s *Store) LatestPortfolio(username string) (*StoredPortfolio, error) {
	stmt, err := s.db.stmt("latest_portfolio")
	if err != nil {
		return nil, err
	}

	var row StoredPortfolio
	var payload string
	err = stmt.QueryRow(username).Scan(&row.ID, &row.Username, &payload, &row.EngineVersion, &row.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &row.Portfolio); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored portfolio: %w", err)
	}
	return &row, nil
}

// LogGeneration records the outcome of one generation run.
func (s *Store) LogGeneration(username, portfolioID string, duration time.Duration, repoCount, projectCount int, genErr error) error {
	stmt, err := s.db.stmt("insert_generation_log")
	if err != nil {
		return err
	}

	errText := ""
	if genErr != nil {
		errText = genErr.Error()
	}

	_, err = stmt.Exec(username, portfolioID, duration.Milliseconds(), repoCount, projectCount, genErr == nil, errText)
	if err != nil {
		return fmt.Errorf("failed to insert generation log: %w", err)
	}
	return nil
}

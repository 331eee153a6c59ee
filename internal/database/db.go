package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB opens the portfolio database under dataDir, running migrations and
// preparing the hot-path statements.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "gitfolio.db")

	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(); err != nil {
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized",
		"path", dbPath,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns)

	return database, nil
}

// migrate creates the necessary tables
// GetPoolStats exposes connection pool statistics for monitoring endpoints.
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS portfolios (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			payload TEXT NOT NULL,
			engine_version TEXT NOT NULL,
			generated_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_portfolios_username
			ON portfolios(username, generated_at DESC)`,
		`CREATE TABLE IF NOT EXISTS generation_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			portfolio_id TEXT,
			duration_ms INTEGER NOT NULL,
			repo_count INTEGER NOT NULL,
			project_count INTEGER NOT NULL,
			success BOOLEAN NOT NULL,
			error TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// initPreparedStatements prepares the hot-path queries
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"insert_portfolio": `INSERT INTO portfolios (id, username, payload, engine_version, generated_at)
			VALUES (?, ?, ?, ?, ?)`,
		"latest_portfolio": `SELECT id, username, payload, engine_version, generated_at
			FROM portfolios WHERE username = ? ORDER BY generated_at DESC LIMIT 1`,
		"insert_generation_log": `INSERT INTO generation_log
			(username, portfolio_id, duration_ms, repo_count, project_count, success, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt
	}
	return nil
}

// stmt returns a prepared statement by name
func (db *DB) stmt(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	s, ok := db.prepared[name]
	if !ok {
		return nil, fmt.Errorf("unknown prepared statement: %s", name)
	}
	return s, nil
}

// Close closes all prepared statements and the underlying connection
func (db *DB) Close() error {
	db.mutex.Lock()
	for _, stmt := range db.prepared {
		stmt.Close()
	}
	db.prepared = make(map[string]*sql.Stmt)
	db.mutex.Unlock()

	return db.DB.Close()
}

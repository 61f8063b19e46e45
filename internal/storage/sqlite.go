// Package storage provides SQLite-based persistence for human scores and
// agent episode results. Uses the pure-Go modernc.org/sqlite driver to
// avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// Store manages the SQLite database connection. It is safe for concurrent
// use; database/sql pools connections.
type Store struct {
	db *sql.DB
}

// ScoreEntry represents a single human high score record.
type ScoreEntry struct {
	ID        int64
	GameID    string
	Score     int
	CreatedAt time.Time
}

// Episode represents one finished agent episode.
type Episode struct {
	ID        int64
	EnvID     string
	Agent     string
	Seed      int64
	Score     int
	Steps     int
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One writer at a time; parallel episode workers share the store
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_game_id ON scores(game_id);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(game_id, score DESC);

		CREATE TABLE IF NOT EXISTS episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			env_id TEXT NOT NULL,
			agent TEXT NOT NULL,
			seed INTEGER NOT NULL,
			score INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_episodes_env ON episodes(env_id, agent);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// parseTime handles both driver-native and text DATETIME values.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(sqliteTimeLayout, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SaveScore records a new score for the given game.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(gameID string, score int) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO scores (game_id, score) VALUES (?, ?)",
		gameID, score,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N scores for the given game.
// Results are ordered by score descending.
func (s *Store) TopScores(gameID string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, game_id, score, created_at
		 FROM scores
		 WHERE game_id = ?
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.GameID, &e.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest score for the given game.
// Returns 0 if no scores exist.
func (s *Store) HighScore(gameID string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM scores WHERE game_id = ?",
		gameID,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// ClearScores deletes all scores for the given game.
func (s *Store) ClearScores(gameID string) error {
	_, err := s.db.Exec("DELETE FROM scores WHERE game_id = ?", gameID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// SaveEpisode records a finished agent episode.
// Returns the ID of the inserted record.
func (s *Store) SaveEpisode(ep Episode) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO episodes (env_id, agent, seed, score, steps)
		 VALUES (?, ?, ?, ?, ?)`,
		ep.EnvID, ep.Agent, ep.Seed, ep.Score, ep.Steps,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save episode: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentEpisodes retrieves the most recent episodes for an environment,
// newest first. An empty envID matches every environment.
func (s *Store) RecentEpisodes(envID string, limit int) ([]Episode, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, env_id, agent, seed, score, steps, created_at
		 FROM episodes
		 WHERE ? = '' OR env_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		envID, envID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query episodes: %w", err)
	}
	defer rows.Close()

	var results []Episode
	for rows.Next() {
		var ep Episode
		var createdAt any
		if err := rows.Scan(&ep.ID, &ep.EnvID, &ep.Agent, &ep.Seed, &ep.Score, &ep.Steps, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		ep.CreatedAt = parseTime(createdAt)
		results = append(results, ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// EpisodeSummary contains aggregated results for one environment and agent.
type EpisodeSummary struct {
	EnvID    string
	Agent    string
	Episodes int
	Best     int
	AvgScore float64
	AvgSteps float64
	LastRun  time.Time
}

// EpisodeStats aggregates every recorded episode per environment and agent,
// ordered by environment then agent.
func (s *Store) EpisodeStats() ([]EpisodeSummary, error) {
	rows, err := s.db.Query(
		`SELECT env_id, agent, COUNT(*), MAX(score), AVG(score), AVG(steps), MAX(created_at)
		 FROM episodes
		 GROUP BY env_id, agent
		 ORDER BY env_id, agent`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get episode stats: %w", err)
	}
	defer rows.Close()

	var stats []EpisodeSummary
	for rows.Next() {
		var st EpisodeSummary
		var lastRun any
		if err := rows.Scan(&st.EnvID, &st.Agent, &st.Episodes, &st.Best, &st.AvgScore, &st.AvgSteps, &lastRun); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastRun = parseTime(lastRun)
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// ErrNoEpisodes is returned by BestEpisode when nothing has been recorded.
var ErrNoEpisodes = errors.New("storage: no episodes recorded")

// BestEpisode returns the highest scoring episode for an environment,
// preferring the shortest run on ties.
func (s *Store) BestEpisode(envID string) (Episode, error) {
	var ep Episode
	var createdAt any
	err := s.db.QueryRow(
		`SELECT id, env_id, agent, seed, score, steps, created_at
		 FROM episodes
		 WHERE env_id = ?
		 ORDER BY score DESC, steps ASC
		 LIMIT 1`,
		envID,
	).Scan(&ep.ID, &ep.EnvID, &ep.Agent, &ep.Seed, &ep.Score, &ep.Steps, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return Episode{}, ErrNoEpisodes
	}
	if err != nil {
		return Episode{}, fmt.Errorf("storage: cannot query best episode: %w", err)
	}
	ep.CreatedAt = parseTime(createdAt)
	return ep, nil
}

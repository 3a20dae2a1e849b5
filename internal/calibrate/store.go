// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package calibrate implements the train and test modes: repeated pipeline
// runs whose outputs and scores are recorded in a SQLite database.
package calibrate

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/story-crew/pkg/types"
)

// Store records training examples and test scores.
type Store struct {
	db *sql.DB
}

// Open opens or creates the calibration database at path and creates the
// schema if it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS training_examples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			iteration INTEGER NOT NULL,
			run_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			agent TEXT NOT NULL,
			output TEXT NOT NULL,
			training_data TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS test_scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			iteration INTEGER NOT NULL,
			run_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			score REAL NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_test_scores_task_id ON test_scores(task_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// AddTrainingExample inserts ex. A zero CreatedAt is set to now.
func (s *Store) AddTrainingExample(ctx context.Context, ex types.TrainingExample) error {
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_examples (iteration, run_id, task_id, agent, output, training_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ex.Iteration, ex.RunID, ex.TaskID, ex.Agent, ex.Output, ex.TrainingData, ex.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting training example: %w", err)
	}
	return nil
}

// TrainingExamples returns all training examples in insertion order.
func (s *Store) TrainingExamples(ctx context.Context) ([]types.TrainingExample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, run_id, task_id, agent, output, training_data, created_at
		 FROM training_examples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying training examples: %w", err)
	}
	defer rows.Close()

	var out []types.TrainingExample
	for rows.Next() {
		var ex types.TrainingExample
		var trainingData sql.NullString
		var created string
		if err := rows.Scan(&ex.Iteration, &ex.RunID, &ex.TaskID, &ex.Agent, &ex.Output, &trainingData, &created); err != nil {
			return nil, fmt.Errorf("scanning training example: %w", err)
		}
		ex.TrainingData = trainingData.String
		ex.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, ex)
	}
	return out, rows.Err()
}

// AddScore inserts one task score.
func (s *Store) AddScore(ctx context.Context, sc types.TaskScore) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO test_scores (iteration, run_id, task_id, score, created_at) VALUES (?, ?, ?, ?, ?)`,
		sc.Iteration, sc.RunID, sc.TaskID, sc.Score, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting score: %w", err)
	}
	return nil
}

// AverageScores returns the mean score per task over every recorded test run.
func (s *Store) AverageScores(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id, AVG(score) FROM test_scores GROUP BY task_id`)
	if err != nil {
		return nil, fmt.Errorf("querying scores: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var taskID string
		var avg float64
		if err := rows.Scan(&taskID, &avg); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		out[taskID] = avg
	}
	return out, rows.Err()
}

// ExportTraining writes every training example to path as indented JSON.
func (s *Store) ExportTraining(ctx context.Context, path string) error {
	examples, err := s.TrainingExamples(ctx)
	if err != nil {
		return err
	}
	if examples == nil {
		examples = []types.TrainingExample{}
	}
	data, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling training data: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

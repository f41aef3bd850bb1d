package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/TPSMaidscc/bot-repetitions/domains/analysis"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	repo := &SQLiteRepository{db: db}
	if err := repo.migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id TEXT PRIMARY KEY,
			department TEXT NOT NULL,
			analysis_date TEXT NOT NULL,
			total_conversations INTEGER NOT NULL,
			conversations_with_repetitions INTEGER NOT NULL,
			repetition_percentage REAL NOT NULL,
			skipped_conversations INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_analysis_runs_department
			ON analysis_runs(department, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to create analysis_runs table: %w", err)
	}
	return nil
}

// SaveRun stores one completed analysis run.
func (r *SQLiteRepository) SaveRun(ctx context.Context, run analysis.RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			id, department, analysis_date,
			total_conversations, conversations_with_repetitions,
			repetition_percentage, skipped_conversations, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Department, run.AnalysisDate,
		run.TotalConversations, run.ConversationsWithRepetitions,
		run.RepetitionPercentage, run.SkippedConversations, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis run: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first. An empty department
// matches all departments.
func (r *SQLiteRepository) RecentRuns(ctx context.Context, department string, limit int) ([]analysis.RunRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	query := `
		SELECT id, department, analysis_date,
			total_conversations, conversations_with_repetitions,
			repetition_percentage, skipped_conversations, created_at
		FROM analysis_runs
	`
	var args []interface{}
	if department != "" {
		query += ` WHERE department = ?`
		args = append(args, department)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer rows.Close()

	var result []analysis.RunRecord
	for rows.Next() {
		var run analysis.RunRecord
		err := rows.Scan(
			&run.ID,
			&run.Department,
			&run.AnalysisDate,
			&run.TotalConversations,
			&run.ConversationsWithRepetitions,
			&run.RepetitionPercentage,
			&run.SkippedConversations,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		result = append(result, run)
	}

	return result, rows.Err()
}

package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/alexch/msg-triage/internal/core"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the CorrectionStore interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
	window int
}

// NewMySQLStore creates a new MySQL correction store
func NewMySQLStore(dsn string, logger *zap.Logger, window int) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS corrections (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			message_id VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			predicted VARCHAR(32) NOT NULL,
			correct VARCHAR(32) NOT NULL,
			subject VARCHAR(500),
			sender VARCHAR(200),
			preview TEXT,
			INDEX idx_corrections_pair (predicted, correct)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
		window: window,
	}, nil
}

// Record appends a correction
func (s *MySQLStore) Record(ctx context.Context, correction *core.Correction) error {
	createdAt := correction.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO corrections (message_id, created_at, predicted, correct, subject, sender, preview)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, correction.MessageID, createdAt,
		string(correction.Predicted), string(correction.Correct),
		correction.Snapshot.Subject, correction.Snapshot.Sender, correction.Snapshot.Preview)
	if err != nil {
		return fmt.Errorf("failed to insert correction: %w", err)
	}

	s.logger.Info("Recorded correction",
		zap.String("message_id", correction.MessageID),
		zap.String("predicted", string(correction.Predicted)),
		zap.String("correct", string(correction.Correct)))

	return nil
}

// Statistics returns aggregate predicted→correct counts
func (s *MySQLStore) Statistics(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT predicted, correct, COUNT(*)
		FROM corrections
		GROUP BY predicted, correct
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var predicted, correct string
		var count int
		if err := rows.Scan(&predicted, &correct, &count); err != nil {
			return nil, fmt.Errorf("failed to scan statistics row: %w", err)
		}
		stats[statisticsKey(core.Category(predicted), core.Category(correct))] = count
	}
	return stats, rows.Err()
}

// AccuracyEstimate computes accuracy over the most recent corrections
func (s *MySQLStore) AccuracyEstimate(ctx context.Context) (*core.AccuracyReport, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corrections`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count corrections: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT predicted, correct
		FROM corrections
		ORDER BY id DESC
		LIMIT ?
	`, s.window)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent corrections: %w", err)
	}
	defer rows.Close()

	recent, correct := 0, 0
	for rows.Next() {
		var predicted, correctCategory string
		if err := rows.Scan(&predicted, &correctCategory); err != nil {
			return nil, fmt.Errorf("failed to scan correction row: %w", err)
		}
		recent++
		if predicted == correctCategory {
			correct++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	report := &core.AccuracyReport{
		TotalCorrections:     total,
		RecentCorrections:    recent,
		CorrectPredictions:   correct,
		IncorrectPredictions: recent - correct,
	}
	if recent > 0 {
		report.Accuracy = float64(correct) / float64(recent) * 100
	}
	return report, nil
}

// CommonMistakes returns the most frequent mistake patterns
func (s *MySQLStore) CommonMistakes(ctx context.Context, limit int) ([]core.MistakePattern, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT predicted, correct, COALESCE(subject, ''), COALESCE(sender, '')
		FROM corrections
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer rows.Close()

	byPair := make(map[string]*core.MistakePattern)
	for rows.Next() {
		var predicted, correct, subject, sender string
		if err := rows.Scan(&predicted, &correct, &subject, &sender); err != nil {
			return nil, fmt.Errorf("failed to scan correction row: %w", err)
		}
		key := statisticsKey(core.Category(predicted), core.Category(correct))
		pattern, ok := byPair[key]
		if !ok {
			pattern = &core.MistakePattern{
				Predicted: core.Category(predicted),
				Correct:   core.Category(correct),
			}
			byPair[key] = pattern
		}
		pattern.Count++
		if len(pattern.Examples) < maxMistakeExamples {
			pattern.Examples = append(pattern.Examples, core.MistakeExample{
				Subject: subject,
				Sender:  sender,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	patterns := make([]core.MistakePattern, 0, len(byPair))
	for _, p := range byPair {
		patterns = append(patterns, *p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})
	if limit > 0 && len(patterns) > limit {
		patterns = patterns[:limit]
	}
	return patterns, nil
}

// Stop closes the database connection
func (s *MySQLStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}

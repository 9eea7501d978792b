package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"LoanGate/internal/domain/models"
	pkgch "LoanGate/pkg/clickhouse"
	applogger "LoanGate/pkg/logger"
)

// CHHistoryStore implements HistoricalStore backed by ClickHouse. Stats
// aggregate over the action_outcomes table; archived decisions land in
// decision_archive for post-hoc review.
type CHHistoryStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHHistoryStore) Stats(ctx context.Context, actionType models.ActionType) (*models.HistoricalStats, error) {
	start := time.Now()
	const q = `
        SELECT
            count() AS similar,
            avg(toFloat64(succeeded)) AS success_rate,
            avg(effectiveness) AS avg_effectiveness
        FROM loangate.action_outcomes
        WHERE action_type = ?
    `
	row := s.db.QueryRowContext(ctx, q, string(actionType))

	var (
		similar       uint64
		successRate   sql.NullFloat64
		effectiveness sql.NullFloat64
	)
	if err := row.Scan(&similar, &successRate, &effectiveness); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse stats query error",
				applogger.String("action_type", string(actionType)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("historical stats: %w", err)
	}

	// an empty aggregate yields NaN averages; report zero evidence instead
	if similar == 0 {
		return &models.HistoricalStats{ActionType: actionType}, nil
	}

	stats := &models.HistoricalStats{
		ActionType:            actionType,
		SimilarActionsCount:   int(similar),
		SuccessRate:           successRate.Float64,
		AvgEffectivenessScore: effectiveness.Float64,
	}
	if s.l != nil {
		s.l.Debug("clickhouse stats ok",
			applogger.String("action_type", string(actionType)),
			applogger.Int("similar", stats.SimilarActionsCount),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return stats, nil
}

func (s *CHHistoryStore) ArchiveDecision(ctx context.Context, d *models.ApprovalDecision) error {
	blockers, err := json.Marshal(d.Blockers)
	if err != nil {
		return fmt.Errorf("marshal blockers: %w", err)
	}
	const q = `
        INSERT INTO loangate.decision_archive
            (ts, candidate_id, eligible, effective_threshold, confidence, recommendation, blockers, config_version)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = s.db.ExecContext(ctx, q,
		time.Now().UTC(),
		d.CandidateID,
		d.IsEligible,
		d.EffectiveThreshold,
		d.Confidence.OverallScore,
		string(d.Recommendation),
		string(blockers),
		d.ConfigVersion,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse archive decision error",
				applogger.String("candidate_id", d.CandidateID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("archive decision: %w", err)
	}
	return nil
}

func (s *CHHistoryStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHHistoryStore) Close() error {
	return nil // pool managed by pkg client
}

// Schema returns the idempotent DDL for the history tables, fed to the
// ClickHouse client's InitSchema on startup.
func Schema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS loangate`,
		`CREATE TABLE IF NOT EXISTS loangate.action_outcomes (
            ts DateTime,
            action_type LowCardinality(String),
            borrower_id String,
            succeeded Bool,
            effectiveness Float64
        ) ENGINE = MergeTree() ORDER BY (action_type, ts)`,
		`CREATE TABLE IF NOT EXISTS loangate.decision_archive (
            ts DateTime,
            candidate_id String,
            eligible Bool,
            effective_threshold Int32,
            confidence Int32,
            recommendation LowCardinality(String),
            blockers String,
            config_version String
        ) ENGINE = MergeTree() ORDER BY (ts, candidate_id)`,
	}
}

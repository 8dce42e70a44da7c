// Package memory is the agent's operation journal: every wrap or unwrap cycle the
// scheduler finishes, kept in Postgres for later inspection.
package memory

import (
	"context"
	"fmt"

	"github.com/lisanmuaddib/wrap-agent/pkg/db/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultRecentLimit caps RecentOperations when no limit is given
const DefaultRecentLimit = 20

type OperationStore struct {
	logger *logrus.Logger
	db     *gorm.DB
}

func NewOperationStore(logger *logrus.Logger, db *gorm.DB) (*OperationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &OperationStore{
		logger: logger,
		db:     db,
	}, nil
}

// SaveOperation inserts op, or updates it when an operation with the same ID exists.
func (s *OperationStore) SaveOperation(ctx context.Context, op *models.Operation) error {
	s.logger.WithFields(logrus.Fields{
		"operation": op.Sequence,
		"kind":      op.Kind,
		"status":    op.Status,
		"tx_hash":   op.TxHash,
	}).Debug("Saving operation")

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(op)
	if result.Error != nil {
		return fmt.Errorf("failed to save operation %d: %w", op.Sequence, result.Error)
	}
	return nil
}

// RecentOperations returns up to limit operations, newest first.
func (s *OperationStore) RecentOperations(ctx context.Context, limit int) ([]models.Operation, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	var ops []models.Operation
	if err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&ops).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent operations: %w", err)
	}
	return ops, nil
}

// CountByStatus returns how many operations ended in each status.
func (s *OperationStore) CountByStatus(ctx context.Context) (map[models.OperationStatus]int64, error) {
	var rows []struct {
		Status models.OperationStatus
		Count  int64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Operation{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count operations: %w", err)
	}

	counts := make(map[models.OperationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

package model

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/shopspring/decimal"

	"github.com/shadower-ai/shadow-analytics/common"
	"github.com/shadower-ai/shadow-analytics/common/logger"
	"github.com/shadower-ai/shadow-analytics/dto"
	"github.com/shadower-ai/shadow-analytics/engine"
)

// UsageEvent is one metered consumption record from the metering pipeline.
// Rows are append-only: they are inserted once and never updated.
type UsageEvent struct {
	Id              int64           `json:"id"`
	WorkspaceId     string          `json:"workspace_id" gorm:"type:varchar(64);index;index:idx_workspace_created,priority:1"`
	AgentId         string          `json:"agent_id" gorm:"type:varchar(64);default:''"`
	UserId          string          `json:"user_id" gorm:"type:varchar(64);index;default:''"`
	ModelName       string          `json:"model_name" gorm:"type:varchar(128);index;default:''"`
	ProviderName    string          `json:"provider_name" gorm:"type:varchar(64);default:''"`
	CreditsConsumed decimal.Decimal `json:"credits_consumed" gorm:"type:decimal(20,8)"`
	CallCount       int64           `json:"call_count" gorm:"default:1"`
	CreatedAt       int64           `json:"created_at" gorm:"bigint;index:idx_workspace_created,priority:2"`
}

// RecordUsageEvents inserts a batch of events for one workspace.
func RecordUsageEvents(ctx context.Context, events []*UsageEvent) error {
	if len(events) == 0 {
		return nil
	}
	for _, event := range events {
		if event.CallCount <= 0 {
			event.CallCount = 1
		}
	}
	if err := DB.WithContext(ctx).Create(&events).Error; err != nil {
		return errors.Wrapf(err, "failed to record %d usage events", len(events))
	}
	return nil
}

// GetUsageEvents returns a workspace's raw events in the half-open timestamp
// range [start, endExclusive), converted to engine values (decimal credits
// become float64 at this boundary).
func GetUsageEvents(ctx context.Context, workspaceID string, start, endExclusive int64) ([]engine.UsageEvent, error) {
	var rows []*UsageEvent
	err := DB.WithContext(ctx).
		Where("workspace_id = ? AND created_at >= ? AND created_at < ?", workspaceID, start, endExclusive).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load usage events for workspace %s", workspaceID)
	}

	events := make([]engine.UsageEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, engine.UsageEvent{
			Timestamp:       time.Unix(row.CreatedAt, 0).UTC(),
			WorkspaceID:     row.WorkspaceId,
			AgentID:         row.AgentId,
			UserID:          row.UserId,
			ModelName:       row.ModelName,
			ProviderName:    row.ProviderName,
			CreditsConsumed: row.CreditsConsumed.InexactFloat64(),
			CallCount:       row.CallCount,
		})
	}
	return events, nil
}

// dayBucketSelect returns the SQL expression that normalizes event timestamps
// into YYYY-MM-DD strings, accounting for the configured database engine.
func dayBucketSelect() string {
	if common.UsingPostgreSQL.Load() {
		return "TO_CHAR(date_trunc('day', to_timestamp(created_at)), 'YYYY-MM-DD') as day"
	}
	if common.UsingSQLite.Load() {
		return "strftime('%Y-%m-%d', datetime(created_at, 'unixepoch')) as day"
	}
	return "DATE_FORMAT(FROM_UNIXTIME(created_at), '%Y-%m-%d') as day"
}

// GetDailyTotals returns per-day aggregates for one workspace over the
// half-open timestamp range [start, endExclusive). Days without events are
// absent from the result.
func GetDailyTotals(ctx context.Context, workspaceID string, start, endExclusive int64) ([]*dto.DailyUsage, error) {
	query := `
		SELECT ` + dayBucketSelect() + `,
		sum(credits_consumed) as credits,
		sum(call_count) as calls
		FROM usage_events
		WHERE workspace_id = ?
		AND created_at >= ? AND created_at < ?
		GROUP BY day
		ORDER BY day
	`
	var stats []*dto.DailyUsage
	err := DB.WithContext(ctx).Raw(query, workspaceID, start, endExclusive).Scan(&stats).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to aggregate daily totals for workspace %s", workspaceID)
	}
	return stats, nil
}

// GetModelTotals returns per-model aggregates for one workspace over the
// half-open timestamp range [start, endExclusive).
func GetModelTotals(ctx context.Context, workspaceID string, start, endExclusive int64) ([]*dto.ModelUsage, error) {
	query := `
		SELECT model_name, provider_name,
		sum(credits_consumed) as credits,
		sum(call_count) as calls
		FROM usage_events
		WHERE workspace_id = ?
		AND created_at >= ? AND created_at < ?
		GROUP BY model_name, provider_name
		ORDER BY credits DESC
	`
	var stats []*dto.ModelUsage
	err := DB.WithContext(ctx).Raw(query, workspaceID, start, endExclusive).Scan(&stats).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to aggregate model totals for workspace %s", workspaceID)
	}
	return stats, nil
}

// SumCredits totals a workspace's consumption over the half-open timestamp
// range [start, endExclusive).
func SumCredits(ctx context.Context, workspaceID string, start, endExclusive int64) (float64, error) {
	ifnull := "ifnull"
	if common.UsingPostgreSQL.Load() {
		ifnull = "COALESCE"
	}
	var total float64
	err := DB.WithContext(ctx).Table("usage_events").
		Select(ifnull+"(sum(credits_consumed),0)").
		Where("workspace_id = ? AND created_at >= ? AND created_at < ?", workspaceID, start, endExclusive).
		Scan(&total).Error
	if err != nil {
		return 0, errors.Wrapf(err, "failed to sum credits for workspace %s", workspaceID)
	}
	return total, nil
}

// DeleteOldUsageEvents removes events older than targetTimestamp, returning
// the number of rows dropped. Used by the retention sweep.
func DeleteOldUsageEvents(targetTimestamp int64) (int64, error) {
	result := DB.Where("created_at < ?", targetTimestamp).Delete(&UsageEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old usage events")
	}
	if result.RowsAffected > 0 {
		logger.Logger.Info("retention sweep removed usage events",
			zap.Int64("rows", result.RowsAffected),
			zap.Int64("older_than", targetTimestamp))
	}
	return result.RowsAffected, nil
}

package model

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shadower-ai/shadow-analytics/engine"
)

// WorkspaceBudget stores a workspace's configured spending limits. Nullable
// columns mean "not configured"; the engine treats unset limits as
// un-exceedable.
type WorkspaceBudget struct {
	Id            int64            `json:"id"`
	WorkspaceId   string           `json:"workspace_id" gorm:"type:varchar(64);uniqueIndex"`
	MonthlyBudget *decimal.Decimal `json:"monthly_budget" gorm:"type:decimal(20,8)"`
	WeeklyBudget  *decimal.Decimal `json:"weekly_budget" gorm:"type:decimal(20,8)"`
	DailyLimit    *decimal.Decimal `json:"daily_limit" gorm:"type:decimal(20,8)"`
	CreatedAt     int64            `json:"created_at" gorm:"bigint;autoCreateTime:milli"`
	UpdatedAt     int64            `json:"updated_at" gorm:"bigint;autoUpdateTime:milli"`
}

// Limits converts the stored nullable decimals into engine budget limits.
func (b *WorkspaceBudget) Limits() engine.BudgetLimits {
	return engine.BudgetLimits{
		MonthlyBudget: decimalPtrToFloat(b.MonthlyBudget),
		WeeklyBudget:  decimalPtrToFloat(b.WeeklyBudget),
		DailyLimit:    decimalPtrToFloat(b.DailyLimit),
	}
}

func decimalPtrToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}

// GetWorkspaceBudget loads a workspace's budget configuration. A workspace
// without one gets empty limits, not an error.
func GetWorkspaceBudget(ctx context.Context, workspaceID string) (*WorkspaceBudget, error) {
	var budget WorkspaceBudget
	err := DB.WithContext(ctx).Where("workspace_id = ?", workspaceID).First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &WorkspaceBudget{WorkspaceId: workspaceID}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load budget for workspace %s", workspaceID)
	}
	return &budget, nil
}

// UpsertWorkspaceBudget writes a workspace's budget configuration.
// Update-first approach to avoid unique conflict races without using clause.OnConflict:
// try an update by workspace_id, create on miss, and retry the update once if
// the create loses a race.
func UpsertWorkspaceBudget(ctx context.Context, budget *WorkspaceBudget) error {
	if budget.WorkspaceId == "" {
		return errors.New("workspace id is empty")
	}

	updates := map[string]any{
		"monthly_budget": budget.MonthlyBudget,
		"weekly_budget":  budget.WeeklyBudget,
		"daily_limit":    budget.DailyLimit,
	}

	tx := DB.WithContext(ctx).Model(&WorkspaceBudget{}).
		Where("workspace_id = ?", budget.WorkspaceId).
		Updates(updates)
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "failed to update workspace budget")
	}
	if tx.RowsAffected > 0 {
		return nil
	}

	if err := DB.WithContext(ctx).Create(budget).Error; err == nil {
		return nil
	}
	if err := DB.WithContext(ctx).Model(&WorkspaceBudget{}).
		Where("workspace_id = ?", budget.WorkspaceId).
		Updates(updates).Error; err != nil {
		return errors.Wrap(err, "failed to update workspace budget after create race")
	}
	return nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"stitchline/backend/internal/model"
	pkgerrors "stitchline/backend/pkg/errors"
)

// LineBalanceRepository 产线平衡运行数据访问接口
type LineBalanceRepository interface {
	// CreateRun 在单个事务内落库：运行记录、全部工序分配、各工位负载增量。
	// 工位按乐观锁校验 version，任一工位被并发运行抢先修改则整体回滚
	// 并返回 ErrWorkstationBusy
	CreateRun(ctx context.Context, run *model.LineBalanceRun, assignments []model.OperationAssignment, stations []*model.Workstation) error
	GetRun(ctx context.Context, runID string) (*model.LineBalanceRun, error)
	ListRunsByOrder(ctx context.Context, orderID string) ([]model.LineBalanceRun, error)
	UpdateRunStatus(ctx context.Context, runID, status string, actor string) error
}

type lineBalanceRepo struct {
	db *gorm.DB
}

func NewLineBalanceRepo(db *gorm.DB) LineBalanceRepository {
	return &lineBalanceRepo{db: db}
}

func (r *lineBalanceRepo) CreateRun(ctx context.Context, run *model.LineBalanceRun, assignments []model.OperationAssignment, stations []*model.Workstation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}

		for i := range assignments {
			assignments[i].RunID = run.RunID
		}
		if len(assignments) > 0 {
			if err := tx.Create(&assignments).Error; err != nil {
				return err
			}
		}

		// 工位负载回写：version 不匹配说明工位池在本次运行期间被并发修改
		for _, ws := range stations {
			oldVersion := ws.Version
			result := tx.Model(&model.Workstation{}).
				Where("code = ? AND version = ?", ws.Code, oldVersion).
				Updates(map[string]interface{}{
					"status":       ws.Status,
					"assigned_smv": ws.AssignedSMV,
					"updated_by":   ws.UpdatedBy,
					"version":      oldVersion + 1,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return pkgerrors.ErrWorkstationBusy
			}
			ws.Version = oldVersion + 1
		}
		return nil
	})
}

func (r *lineBalanceRepo) GetRun(ctx context.Context, runID string) (*model.LineBalanceRun, error) {
	var run model.LineBalanceRun
	err := r.db.WithContext(ctx).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("run_id = ?", runID).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *lineBalanceRepo) ListRunsByOrder(ctx context.Context, orderID string) ([]model.LineBalanceRun, error) {
	var runs []model.LineBalanceRun
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&runs).Error
	return runs, err
}

func (r *lineBalanceRepo) UpdateRunStatus(ctx context.Context, runID, status string, actor string) error {
	result := r.db.WithContext(ctx).
		Model(&model.LineBalanceRun{}).
		Where("run_id = ?", runID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": actor,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

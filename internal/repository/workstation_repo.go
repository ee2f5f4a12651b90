package repository

import (
	"context"

	"gorm.io/gorm"

	"stitchline/backend/internal/model"
	pkgerrors "stitchline/backend/pkg/errors"
)

// WorkstationRepository 工位数据访问接口
type WorkstationRepository interface {
	Create(ctx context.Context, ws *model.Workstation) error
	GetByCode(ctx context.Context, code string) (*model.Workstation, error)
	List(ctx context.Context) ([]model.Workstation, error)
	ListAvailableBySection(ctx context.Context, section model.Section) ([]model.Workstation, error)
	Update(ctx context.Context, ws *model.Workstation) error
}

type workstationRepo struct {
	db *gorm.DB
}

func NewWorkstationRepo(db *gorm.DB) WorkstationRepository {
	return &workstationRepo{db: db}
}

func (r *workstationRepo) Create(ctx context.Context, ws *model.Workstation) error {
	return r.db.WithContext(ctx).Create(ws).Error
}

func (r *workstationRepo) GetByCode(ctx context.Context, code string) (*model.Workstation, error) {
	var ws model.Workstation
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&ws).Error
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *workstationRepo) List(ctx context.Context) ([]model.Workstation, error) {
	var list []model.Workstation
	err := r.db.WithContext(ctx).
		Order("section ASC, code ASC").
		Find(&list).Error
	return list, err
}

func (r *workstationRepo) ListAvailableBySection(ctx context.Context, section model.Section) ([]model.Workstation, error) {
	var list []model.Workstation
	err := r.db.WithContext(ctx).
		Where("section = ? AND status = ?", section, model.WorkstationAvailable).
		Order("code ASC").
		Find(&list).Error
	return list, err
}

func (r *workstationRepo) Update(ctx context.Context, ws *model.Workstation) error {
	oldVersion := ws.Version
	result := r.db.WithContext(ctx).
		Model(ws).
		Where("code = ? AND version = ?", ws.Code, oldVersion).
		Updates(map[string]interface{}{
			"section":         ws.Section,
			"hourly_capacity": ws.HourlyCapacity,
			"status":          ws.Status,
			"assigned_smv":    ws.AssignedSMV,
			"updated_by":      ws.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrWorkstationBusy
	}
	ws.Version = oldVersion + 1
	return nil
}

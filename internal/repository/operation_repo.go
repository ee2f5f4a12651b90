package repository

import (
	"context"

	"gorm.io/gorm"

	"stitchline/backend/internal/model"
)

// OperationRepository 标准工序库数据访问接口
type OperationRepository interface {
	Create(ctx context.Context, op *model.Operation) error
	GetByCode(ctx context.Context, code string) (*model.Operation, error)
	Update(ctx context.Context, op *model.Operation) error
	Delete(ctx context.Context, code string) error
	Search(ctx context.Context, term string) ([]model.Operation, error)
	ListByCategory(ctx context.Context, category string) ([]model.Operation, error)
}

type operationRepo struct {
	db *gorm.DB
}

func NewOperationRepo(db *gorm.DB) OperationRepository {
	return &operationRepo{db: db}
}

func (r *operationRepo) Create(ctx context.Context, op *model.Operation) error {
	return r.db.WithContext(ctx).Create(op).Error
}

func (r *operationRepo) GetByCode(ctx context.Context, code string) (*model.Operation, error) {
	var op model.Operation
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&op).Error
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *operationRepo) Update(ctx context.Context, op *model.Operation) error {
	result := r.db.WithContext(ctx).
		Model(op).
		Where("code = ?", op.Code).
		Updates(map[string]interface{}{
			"name":         op.Name,
			"category":     op.Category,
			"smv":          op.SMV,
			"machine_type": op.MachineType,
			"skill_level":  op.SkillLevel,
			"updated_by":   op.UpdatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *operationRepo) Delete(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Where("code = ?", code).
		Delete(&model.Operation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *operationRepo) Search(ctx context.Context, term string) ([]model.Operation, error) {
	var ops []model.Operation
	pattern := "%" + term + "%"
	err := r.db.WithContext(ctx).
		Where("code ILIKE ? OR name ILIKE ?", pattern, pattern).
		Order("code ASC").
		Find(&ops).Error
	return ops, err
}

func (r *operationRepo) ListByCategory(ctx context.Context, category string) ([]model.Operation, error) {
	var ops []model.Operation
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("code ASC").
		Find(&ops).Error
	return ops, err
}

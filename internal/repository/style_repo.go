package repository

import (
	"context"

	"gorm.io/gorm"

	"stitchline/backend/internal/model"
)

// StyleRepository 款式部件比例数据访问接口
type StyleRepository interface {
	GetRatios(ctx context.Context, styleCode string) ([]model.StyleComponentRatio, error)
	// ReplaceRatios 单事务整体替换某款式的比例配置
	ReplaceRatios(ctx context.Context, styleCode string, ratios []model.StyleComponentRatio) error
}

type styleRepo struct {
	db *gorm.DB
}

func NewStyleRepo(db *gorm.DB) StyleRepository {
	return &styleRepo{db: db}
}

func (r *styleRepo) GetRatios(ctx context.Context, styleCode string) ([]model.StyleComponentRatio, error) {
	var ratios []model.StyleComponentRatio
	err := r.db.WithContext(ctx).
		Where("style_code = ?", styleCode).
		Order("component ASC").
		Find(&ratios).Error
	return ratios, err
}

func (r *styleRepo) ReplaceRatios(ctx context.Context, styleCode string, ratios []model.StyleComponentRatio) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("style_code = ?", styleCode).
			Delete(&model.StyleComponentRatio{}).Error; err != nil {
			return err
		}
		if len(ratios) == 0 {
			return nil
		}
		return tx.Create(&ratios).Error
	})
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"stitchline/backend/internal/model"
)

// BulletinRepository 工序单数据访问接口
type BulletinRepository interface {
	ListByOrderComponent(ctx context.Context, orderID, component string) ([]model.OperationBulletinItem, error)
	// Replace 在单个事务内整单替换 (订单, 部件) 的工序单：先删后插，
	// 并回写部件的 SMV / 人力合计（这是工序单模块对外的唯一额外写入）
	Replace(ctx context.Context, orderID, component string, items []model.OperationBulletinItem) error
	// CountByOperation 统计引用某工序编码的工序单条目数
	CountByOperation(ctx context.Context, operationCode string) (int64, error)
}

type bulletinRepo struct {
	db *gorm.DB
}

func NewBulletinRepo(db *gorm.DB) BulletinRepository {
	return &bulletinRepo{db: db}
}

func (r *bulletinRepo) ListByOrderComponent(ctx context.Context, orderID, component string) ([]model.OperationBulletinItem, error) {
	var items []model.OperationBulletinItem
	err := r.db.WithContext(ctx).
		Preload("Operation").
		Where("order_id = ? AND component = ?", orderID, component).
		Order("sequence ASC").
		Find(&items).Error
	return items, err
}

func (r *bulletinRepo) CountByOperation(ctx context.Context, operationCode string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.OperationBulletinItem{}).
		Where("operation_code = ?", operationCode).
		Count(&count).Error
	return count, err
}

func (r *bulletinRepo) Replace(ctx context.Context, orderID, component string, items []model.OperationBulletinItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 整单替换而非局部合并，避免遗留孤儿序号
		if err := tx.
			Where("order_id = ? AND component = ?", orderID, component).
			Delete(&model.OperationBulletinItem{}).Error; err != nil {
			return err
		}

		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		// 部件聚合字段回写（单件产品无部件行，跳过）
		if component == "" {
			return nil
		}
		var totalSMV float64
		var totalManpower int
		for _, it := range items {
			totalSMV += it.SMV
			totalManpower += it.Manpower
		}
		result := tx.Model(&model.OrderComponent{}).
			Where("order_id = ? AND name = ?", orderID, component).
			Updates(map[string]interface{}{
				"smv":      totalSMV,
				"manpower": totalManpower,
			})
		// 部件行不存在不是错误：工序单可先于部件建档编制
		return result.Error
	})
}

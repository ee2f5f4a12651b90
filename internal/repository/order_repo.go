package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stitchline/backend/internal/model"
)

// OrderMutation 一次订单事务要持久化的变更集合
type OrderMutation struct {
	OrderChanged bool                     // 订单行是否被修改
	Components   []*model.OrderComponent  // 需要保存的部件行
	StageLogs    []model.OrderStageLog    // 新增的阶段完成记录
}

// OrderRepository 营销订单数据访问接口
type OrderRepository interface {
	// Create 在单个事务内预约订单号（月度计数器 FOR UPDATE 递增）并插入
	// 订单与部件行；计数器方案保证订单号不会因唯一键冲突而重试
	Create(ctx context.Context, order *model.MarketingOrder, components []model.OrderComponent) error
	GetByID(ctx context.Context, orderID string) (*model.MarketingOrder, error)
	GetByNumber(ctx context.Context, orderNumber string) (*model.MarketingOrder, error)
	List(ctx context.Context, offset, limit int) ([]model.MarketingOrder, int64, error)
	// Mutate 状态迁移的事务原语：锁定订单行 → 加载部件 → 调用 apply 校验
	// 并在内存中修改 → 持久化变更。apply 返回错误时整体回滚，零写入
	Mutate(ctx context.Context, orderID string,
		apply func(o *model.MarketingOrder, comps []*model.OrderComponent) (*OrderMutation, error)) error
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *model.MarketingOrder, components []model.OrderComponent) error {
	period := order.CreatedAt.Format("200601")
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 确保计数器行存在后锁行递增；并发的首单创建由 DO NOTHING 消解
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.OrderCounter{Period: period}).Error; err != nil {
			return err
		}

		var counter model.OrderCounter
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("period = ?", period).
			First(&counter).Error; err != nil {
			return err
		}

		counter.Seq++
		if err := tx.Model(&model.OrderCounter{}).
			Where("period = ?", period).
			Update("seq", counter.Seq).Error; err != nil {
			return err
		}

		order.OrderNumber = fmt.Sprintf("MO%s-%04d", period, counter.Seq)
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		if len(components) > 0 {
			for i := range components {
				components[i].OrderID = order.OrderID
			}
			if err := tx.Create(&components).Error; err != nil {
				return err
			}
			order.Components = components
		}
		return nil
	})
}

func (r *orderRepo) GetByID(ctx context.Context, orderID string) (*model.MarketingOrder, error) {
	var order model.MarketingOrder
	err := r.db.WithContext(ctx).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) GetByNumber(ctx context.Context, orderNumber string) (*model.MarketingOrder, error) {
	var order model.MarketingOrder
	err := r.db.WithContext(ctx).
		Preload("Components").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) List(ctx context.Context, offset, limit int) ([]model.MarketingOrder, int64, error) {
	var orders []model.MarketingOrder
	var total int64

	db := r.db.WithContext(ctx).Model(&model.MarketingOrder{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Components").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) Mutate(ctx context.Context, orderID string,
	apply func(o *model.MarketingOrder, comps []*model.OrderComponent) (*OrderMutation, error)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.MarketingOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", orderID).
			First(&order).Error; err != nil {
			return err
		}

		var components []model.OrderComponent
		if err := tx.
			Where("order_id = ?", orderID).
			Order("name ASC").
			Find(&components).Error; err != nil {
			return err
		}
		comps := make([]*model.OrderComponent, len(components))
		for i := range components {
			comps[i] = &components[i]
		}

		mutation, err := apply(&order, comps)
		if err != nil {
			return err
		}
		if mutation == nil {
			return nil
		}

		if mutation.OrderChanged {
			oldVersion := order.Version
			result := tx.Model(&model.MarketingOrder{}).
				Where("order_id = ? AND version = ?", order.OrderID, oldVersion).
				Updates(map[string]interface{}{
					"stage":               order.Stage,
					"materials_confirmed": order.MaterialsConfirmed,
					"cancel_reason":       order.CancelReason,
					"updated_by":          order.UpdatedBy,
					"version":             oldVersion + 1,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errors.New("订单版本冲突")
			}
			order.Version = oldVersion + 1
		}

		for _, comp := range mutation.Components {
			oldVersion := comp.Version
			result := tx.Model(&model.OrderComponent{}).
				Where("component_id = ? AND version = ?", comp.ComponentID, oldVersion).
				Updates(map[string]interface{}{
					"stage":      comp.Stage,
					"smv":        comp.SMV,
					"manpower":   comp.Manpower,
					"efficiency": comp.Efficiency,
					"version":    oldVersion + 1,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errors.New("部件版本冲突")
			}
			comp.Version = oldVersion + 1
		}

		if len(mutation.StageLogs) > 0 {
			if err := tx.Create(&mutation.StageLogs).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

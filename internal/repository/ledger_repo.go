package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stitchline/backend/internal/model"
)

// LedgerRepository 生产台账数据访问接口（只增不改）
type LedgerRepository interface {
	Append(ctx context.Context, entry *model.ProductionLedgerEntry) error
	// AppendPacking 包装事件的原子路径：锁定订单行 → 事务内聚合各部件
	// Finishing 完成量与已包装量 → 调用 check 校验 → 插入台账行与入库交接单。
	// check 返回错误时整个事务回滚，不产生任何写入
	AppendPacking(ctx context.Context, entry *model.ProductionLedgerEntry, handover *model.StoreHandover,
		check func(finished map[string]int, alreadyPacked int) error) error
	Balance(ctx context.Context, orderID string) (model.StageBalance, error)
	ListByOrder(ctx context.Context, orderID string) ([]model.ProductionLedgerEntry, error)
	GetHandover(ctx context.Context, handoverID string) (*model.StoreHandover, error)
	ListHandoversByOrder(ctx context.Context, orderID string) ([]model.StoreHandover, error)
	// ConfirmHandover 锁定交接单行后调用 confirm；confirm 负责校验状态并
	// 构造对应的 Store-In 台账行，状态翻转与台账插入同一事务提交
	ConfirmHandover(ctx context.Context, handoverID string,
		confirm func(h *model.StoreHandover) (*model.ProductionLedgerEntry, error)) error
}

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) Append(ctx context.Context, entry *model.ProductionLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// stageSumRow 聚合查询行
type stageSumRow struct {
	Component string
	Stage     model.ProcessStage
	Total     int
}

func (r *ledgerRepo) AppendPacking(ctx context.Context, entry *model.ProductionLedgerEntry, handover *model.StoreHandover,
	check func(finished map[string]int, alreadyPacked int) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 行锁串行化同一订单的并发包装请求，防止两边都读到过期余量
		var order model.MarketingOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", entry.OrderID).
			First(&order).Error; err != nil {
			return err
		}

		var rows []stageSumRow
		if err := tx.Model(&model.ProductionLedgerEntry{}).
			Select("component, stage, SUM(quantity) AS total").
			Where("order_id = ? AND stage IN ?", entry.OrderID,
				[]model.ProcessStage{model.ProcessFinishing, model.ProcessPacking}).
			Group("component, stage").
			Scan(&rows).Error; err != nil {
			return err
		}

		finished := make(map[string]int)
		alreadyPacked := 0
		for _, row := range rows {
			switch row.Stage {
			case model.ProcessFinishing:
				finished[row.Component] = row.Total
			case model.ProcessPacking:
				alreadyPacked += row.Total
			}
		}

		if err := check(finished, alreadyPacked); err != nil {
			return err
		}

		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return tx.Create(handover).Error
	})
}

func (r *ledgerRepo) Balance(ctx context.Context, orderID string) (model.StageBalance, error) {
	var rows []stageSumRow
	err := r.db.WithContext(ctx).
		Model(&model.ProductionLedgerEntry{}).
		Select("component, stage, SUM(quantity) AS total").
		Where("order_id = ?", orderID).
		Group("component, stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	balance := make(model.StageBalance)
	for _, row := range rows {
		if balance[row.Component] == nil {
			balance[row.Component] = make(map[model.ProcessStage]int)
		}
		balance[row.Component][row.Stage] = row.Total
	}
	return balance, nil
}

func (r *ledgerRepo) ListByOrder(ctx context.Context, orderID string) ([]model.ProductionLedgerEntry, error) {
	var entries []model.ProductionLedgerEntry
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("recorded_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepo) GetHandover(ctx context.Context, handoverID string) (*model.StoreHandover, error) {
	var h model.StoreHandover
	err := r.db.WithContext(ctx).
		Where("handover_id = ?", handoverID).
		First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *ledgerRepo) ListHandoversByOrder(ctx context.Context, orderID string) ([]model.StoreHandover, error) {
	var list []model.StoreHandover
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *ledgerRepo) ConfirmHandover(ctx context.Context, handoverID string,
	confirm func(h *model.StoreHandover) (*model.ProductionLedgerEntry, error)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var h model.StoreHandover
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("handover_id = ?", handoverID).
			First(&h).Error; err != nil {
			return err
		}

		entry, err := confirm(&h)
		if err != nil {
			return err
		}

		if err := tx.Model(&model.StoreHandover{}).
			Where("handover_id = ?", h.HandoverID).
			Updates(map[string]interface{}{
				"status":       h.Status,
				"confirmed_at": h.ConfirmedAt,
				"confirmed_by": h.ConfirmedBy,
			}).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

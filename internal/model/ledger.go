package model

import "time"

// ProductionLedgerEntry 生产台账事件 — 对应 production_ledger_entries
// 追加写，永不更新或删除；所有完成量均由聚合计算，不缓存可变余额
type ProductionLedgerEntry struct {
	EntryID    string       `gorm:"type:uuid;primaryKey"                 json:"entry_id"`
	OrderID    string       `gorm:"type:uuid;not null"                   json:"order_id"`
	Component  string       `gorm:"type:varchar(60);not null;default:''" json:"component"` // 空串 = 单件产品
	Stage      ProcessStage `gorm:"type:varchar(20);not null"            json:"stage"`
	Quantity   int          `gorm:"not null"                             json:"quantity"`
	ActorID    string       `gorm:"type:varchar(64);not null;default:''" json:"actor_id"`
	Note       string       `gorm:"type:varchar(500);not null;default:''" json:"note"`
	RecordedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"   json:"recorded_at"`
}

func (ProductionLedgerEntry) TableName() string { return "production_ledger_entries" }

// 入库交接状态
const (
	HandoverPending   = "pending"
	HandoverConfirmed = "confirmed"
)

// StoreHandover 包装→成品库交接单 — 对应 store_handovers
// 包装台账事件的副产物，与台账插入同一事务创建，等待库房确认
type StoreHandover struct {
	HandoverID  string     `gorm:"type:uuid;primaryKey"                 json:"handover_id"`
	OrderID     string     `gorm:"type:uuid;not null"                   json:"order_id"`
	EntryID     string     `gorm:"type:uuid;not null"                   json:"entry_id"`
	Quantity    int        `gorm:"not null"                             json:"quantity"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"   json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	ConfirmedBy *string    `gorm:"type:varchar(64)" json:"confirmed_by,omitempty"`
}

func (StoreHandover) TableName() string { return "store_handovers" }

// StageBalance 按部件、按阶段聚合出的累计数量
type StageBalance map[string]map[ProcessStage]int

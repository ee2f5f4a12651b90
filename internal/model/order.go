package model

import "time"

// MarketingOrder 营销订单 — 对应 marketing_orders
// stage 为唯一权威状态；各部门展示用状态一律由它派生，不单独存储
type MarketingOrder struct {
	OrderID            string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"order_id"`
	OrderNumber        string     `gorm:"type:varchar(30);not null;uniqueIndex"          json:"order_number"`
	ProductCode        string     `gorm:"type:varchar(40);not null"                      json:"product_code"`
	StyleCode          string     `gorm:"type:varchar(40);not null"                      json:"style_code"`
	Quantity           int        `gorm:"not null"                                       json:"quantity"`
	Stage              OrderStage `gorm:"type:varchar(30);not null;default:'placed_order'" json:"stage"`
	MaterialsConfirmed bool       `gorm:"not null;default:false"                         json:"materials_confirmed"`
	CancelReason       *string    `gorm:"type:varchar(500)"                              json:"cancel_reason,omitempty"`
	VersionedModel

	// 关联
	Components []OrderComponent `gorm:"foreignKey:OrderID" json:"components,omitempty"`
}

func (MarketingOrder) TableName() string { return "marketing_orders" }

// OrderComponent 订单部件（上衣/裤子等）— 对应 order_components
// 部件各自独立走生产阶段；父订单聚合推进受所有部件进度约束
type OrderComponent struct {
	ComponentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"component_id"`
	OrderID     string     `gorm:"type:uuid;not null"                             json:"order_id"`
	Name        string     `gorm:"type:varchar(60);not null"                      json:"name"`
	Stage       OrderStage `gorm:"type:varchar(30);not null;default:'placed_order'" json:"stage"`
	SMV         float64    `gorm:"not null;default:0"                             json:"smv"`      // 工序单快照合计
	Manpower    int        `gorm:"not null;default:0"                             json:"manpower"` // 工序单人力合计
	Efficiency  float64    `gorm:"not null;default:0"                             json:"efficiency"`
	Version     int        `gorm:"not null;default:1"                             json:"version"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (OrderComponent) TableName() string { return "order_components" }

// OrderStageLog 阶段完成时间戳 — 对应 order_stage_logs
// component 为空串表示订单级记录
type OrderStageLog struct {
	LogID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	OrderID     string     `gorm:"type:uuid;not null"                             json:"order_id"`
	Component   string     `gorm:"type:varchar(60);not null;default:''"           json:"component"`
	Stage       OrderStage `gorm:"type:varchar(30);not null"                      json:"stage"`
	CompletedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"completed_at"`
	ActorID     string     `gorm:"type:varchar(64);not null;default:''"           json:"actor_id"`
}

func (OrderStageLog) TableName() string { return "order_stage_logs" }

// OrderCounter 订单号月度计数器 — 对应 order_counters
type OrderCounter struct {
	Period string `gorm:"type:varchar(6);primaryKey" json:"period"` // YYYYMM
	Seq    int    `gorm:"not null;default:0"         json:"seq"`
}

func (OrderCounter) TableName() string { return "order_counters" }

// StyleComponentRatio 款式部件比例 — 对应 style_component_ratios
// 组套校验的只读输入：一套 = 各部件按 ratio 配齐
type StyleComponentRatio struct {
	StyleCode string    `gorm:"type:varchar(40);primaryKey" json:"style_code"`
	Component string    `gorm:"type:varchar(60);primaryKey" json:"component"`
	Ratio     int       `gorm:"not null"                    json:"ratio"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (StyleComponentRatio) TableName() string { return "style_component_ratios" }

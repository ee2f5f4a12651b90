package model

// Operation 标准工序库 — 对应 operations
// 一旦被工序单引用即视为不可变，SMV 修改不回写历史快照
type Operation struct {
	Code        string  `gorm:"type:varchar(40);primaryKey"       json:"code"`
	Name        string  `gorm:"type:varchar(200);not null"        json:"name"`
	Category    string  `gorm:"type:varchar(60);not null;default:''" json:"category"`
	SMV         float64 `gorm:"not null"                          json:"smv"` // 标准工时（分钟/件）
	MachineType string  `gorm:"type:varchar(60);not null;default:''" json:"machine_type"`
	SkillLevel  string  `gorm:"type:varchar(30);not null;default:''" json:"skill_level"`
	BaseModel
}

func (Operation) TableName() string { return "operations" }

// OperationBulletinItem 工序单条目 — 对应 operation_bulletin_items
// 归属于唯一的 (订单, 部件)；SMV 为保存时的快照，后续工序库变更不影响
type OperationBulletinItem struct {
	ItemID        string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"item_id"`
	OrderID       string  `gorm:"type:uuid;not null"                             json:"order_id"`
	Component     string  `gorm:"type:varchar(60);not null;default:''"           json:"component"` // 空串 = 单件产品
	Sequence      int     `gorm:"not null"                                       json:"sequence"`
	OperationCode string  `gorm:"type:varchar(40);not null"                      json:"operation_code"`
	SMV           float64 `gorm:"not null"                                       json:"smv"`
	Manpower      int     `gorm:"not null;default:1"                             json:"manpower"`
	BaseModel

	// 关联
	Operation *Operation `gorm:"foreignKey:OperationCode;references:Code" json:"operation,omitempty"`
}

func (OperationBulletinItem) TableName() string { return "operation_bulletin_items" }

package model

// 平衡运行状态
const (
	RunPlanned   = "planned"
	RunActive    = "active"
	RunCompleted = "completed"
)

// LineBalanceRun 一次产线平衡运行 — 对应 line_balance_runs
// 创建后除 status 外不可变
type LineBalanceRun struct {
	RunID              string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"run_id"`
	OrderID            string  `gorm:"type:uuid;not null"                             json:"order_id"`
	Section            Section `gorm:"type:varchar(20);not null"                      json:"section"`
	TargetHourlyOutput float64 `gorm:"not null"                                       json:"target_hourly_output"`
	WorkingMinutes     float64 `gorm:"not null"                                       json:"working_minutes"`
	TotalSMV           float64 `gorm:"not null"                                       json:"total_smv"`
	RequiredCycleTime  float64 `gorm:"not null"                                       json:"required_cycle_time"`
	AchievedCycleTime  float64 `gorm:"not null"                                       json:"achieved_cycle_time"`
	Efficiency         float64 `gorm:"not null"                                       json:"efficiency"` // 0-100
	BottleneckCode     *string `gorm:"type:varchar(40)"                               json:"bottleneck_code,omitempty"`
	Status             string  `gorm:"type:varchar(20);not null;default:'planned'"    json:"status"`
	BaseModel

	// 关联
	Assignments []OperationAssignment `gorm:"foreignKey:RunID" json:"assignments,omitempty"`
}

func (LineBalanceRun) TableName() string { return "line_balance_runs" }

// 工序分配状态
const (
	AssignmentPending    = "pending"
	AssignmentInProgress = "in_progress"
	AssignmentCompleted  = "completed"
)

// OperationAssignment 工序到工位的分配 — 对应 operation_assignments
type OperationAssignment struct {
	AssignmentID    string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	RunID           string  `gorm:"type:uuid;not null"                             json:"run_id"`
	ItemID          string  `gorm:"type:uuid;not null"                             json:"item_id"`
	WorkstationCode string  `gorm:"type:varchar(40);not null"                      json:"workstation_code"`
	Position        int     `gorm:"not null"                                       json:"position"`
	StartOffset     float64 `gorm:"not null;default:0"                             json:"start_offset"` // 距运行起点的分钟数
	EndOffset       float64 `gorm:"not null;default:0"                             json:"end_offset"`
	Status          string  `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
}

func (OperationAssignment) TableName() string { return "operation_assignments" }

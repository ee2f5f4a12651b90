package model

// Section 车间工段
type Section string

const (
	SectionCutting   Section = "cutting"
	SectionSewing    Section = "sewing"
	SectionFinishing Section = "finishing"
	SectionPacking   Section = "packing"
)

// ValidSection 校验工段取值
func ValidSection(s Section) bool {
	switch s {
	case SectionCutting, SectionSewing, SectionFinishing, SectionPacking:
		return true
	}
	return false
}

// 工位状态
const (
	WorkstationAvailable   = "available"
	WorkstationOccupied    = "occupied"
	WorkstationMaintenance = "maintenance"
)

// Workstation 物理工位 — 对应 workstations
// 仅由平衡计算在一次分配运行中修改负载字段；被活跃分配引用期间不可删除
type Workstation struct {
	Code           string  `gorm:"type:varchar(40);primaryKey"          json:"code"`
	Section        Section `gorm:"type:varchar(20);not null"            json:"section"`
	HourlyCapacity float64 `gorm:"not null;default:0"                   json:"hourly_capacity"`
	Status         string  `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	AssignedSMV    float64 `gorm:"not null;default:0"                   json:"assigned_smv"`
	VersionedModel
}

func (Workstation) TableName() string { return "workstations" }

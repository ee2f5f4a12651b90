package model

// OrderStage 订单生命周期阶段（严格线性链，仅 Cancel 可脱离）
type OrderStage string

const (
	StagePlacedOrder       OrderStage = "placed_order"
	StagePlanning          OrderStage = "planning"
	StageSampleMaking      OrderStage = "sample_making"
	StageCutting           OrderStage = "cutting"
	StageSewing            OrderStage = "sewing"
	StageFinishing         OrderStage = "finishing"
	StageQualityInspection OrderStage = "quality_inspection"
	StagePacking           OrderStage = "packing"
	StageStore             OrderStage = "store"
	StageDelivery          OrderStage = "delivery"
	StageCompleted         OrderStage = "completed"
	StageCancelled         OrderStage = "cancelled"
)

// stageChain 固定推进顺序；Cancelled 不在链内
var stageChain = []OrderStage{
	StagePlacedOrder,
	StagePlanning,
	StageSampleMaking,
	StageCutting,
	StageSewing,
	StageFinishing,
	StageQualityInspection,
	StagePacking,
	StageStore,
	StageDelivery,
	StageCompleted,
}

// StageIndex 返回阶段在链中的序号；Cancelled 或未知返回 -1
func StageIndex(s OrderStage) int {
	for i, st := range stageChain {
		if st == s {
			return i
		}
	}
	return -1
}

// NextStage 返回链中的下一个阶段；终点或链外返回 ("", false)
// 推进只能通过本函数计算"当前序号+1"，不存在任意设置状态的途径
func NextStage(s OrderStage) (OrderStage, bool) {
	idx := StageIndex(s)
	if idx < 0 || idx >= len(stageChain)-1 {
		return "", false
	}
	return stageChain[idx+1], true
}

// IsTerminal Completed 与 Cancelled 为终态
func (s OrderStage) IsTerminal() bool {
	return s == StageCompleted || s == StageCancelled
}

// IsProduction Cutting..Packing 之间为车间生产阶段（多部件闸口只作用于这些阶段）
func (s OrderStage) IsProduction() bool {
	idx := StageIndex(s)
	return idx >= StageIndex(StageCutting) && idx <= StageIndex(StagePacking)
}

// ProcessStage 台账工艺阶段（台账只记录这五类事件）
type ProcessStage string

const (
	ProcessCutting   ProcessStage = "cutting"
	ProcessSewing    ProcessStage = "sewing"
	ProcessFinishing ProcessStage = "finishing"
	ProcessPacking   ProcessStage = "packing"
	ProcessStoreIn   ProcessStage = "store_in"
)

// ValidProcessStage 校验台账阶段取值
func ValidProcessStage(s ProcessStage) bool {
	switch s {
	case ProcessCutting, ProcessSewing, ProcessFinishing, ProcessPacking, ProcessStoreIn:
		return true
	}
	return false
}

// SectionFor 由订单当前阶段推断平衡计算的目标工段；非生产阶段默认缝制
func SectionFor(s OrderStage) Section {
	switch s {
	case StageCutting:
		return SectionCutting
	case StageFinishing, StageQualityInspection:
		return SectionFinishing
	case StagePacking:
		return SectionPacking
	default:
		return SectionSewing
	}
}

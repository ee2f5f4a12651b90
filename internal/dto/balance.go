package dto

// ── 产线平衡模块 DTO ──

// CreateWorkstationRequest 新建工位请求
type CreateWorkstationRequest struct {
	Code           string  `json:"code"            binding:"required,min=2,max=40"`
	Section        string  `json:"section"         binding:"required,oneof=cutting sewing finishing packing"`
	HourlyCapacity float64 `json:"hourly_capacity" binding:"omitempty,gte=0"`
}

// UpdateWorkstationRequest 修改工位请求
type UpdateWorkstationRequest struct {
	Status         *string  `json:"status"          binding:"omitempty,oneof=available occupied maintenance"`
	HourlyCapacity *float64 `json:"hourly_capacity" binding:"omitempty,gte=0"`
}

// WorkstationResponse 工位响应
type WorkstationResponse struct {
	Code           string  `json:"code"`
	Section        string  `json:"section"`
	HourlyCapacity float64 `json:"hourly_capacity"`
	Status         string  `json:"status"`
	AssignedSMV    float64 `json:"assigned_smv"`
	UpdatedAt      string  `json:"updated_at"`
}

// BalanceRequest 产线平衡请求
type BalanceRequest struct {
	OrderID            string  `json:"order_id"             binding:"required,uuid"`
	Component          string  `json:"component"            binding:"omitempty,max=60"`
	TargetHourlyOutput float64 `json:"target_hourly_output" binding:"required,gt=0"`
	// 为 0 时使用配置的默认每日工作分钟数
	WorkingMinutesPerDay float64 `json:"working_minutes_per_day" binding:"omitempty,gt=0"`
}

// UpdateRunStatusRequest 推进平衡运行状态请求
type UpdateRunStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active completed"`
}

// AssignmentResponse 工序分配响应
type AssignmentResponse struct {
	AssignmentID    string  `json:"assignment_id"`
	ItemID          string  `json:"item_id"`
	WorkstationCode string  `json:"workstation_code"`
	Position        int     `json:"position"`
	StartOffset     float64 `json:"start_offset"`
	EndOffset       float64 `json:"end_offset"`
	Status          string  `json:"status"`
}

// BalanceRunResponse 平衡运行响应
type BalanceRunResponse struct {
	RunID              string               `json:"run_id"`
	OrderID            string               `json:"order_id"`
	Section            string               `json:"section"`
	TargetHourlyOutput float64              `json:"target_hourly_output"`
	WorkingMinutes     float64              `json:"working_minutes"`
	TotalSMV           float64              `json:"total_smv"`
	RequiredCycleTime  float64              `json:"required_cycle_time"`
	AchievedCycleTime  float64              `json:"achieved_cycle_time"`
	Efficiency         float64              `json:"efficiency"`
	BottleneckCode     *string              `json:"bottleneck_code,omitempty"`
	Status             string               `json:"status"`
	Assignments        []AssignmentResponse `json:"assignments,omitempty"`
	CreatedAt          string               `json:"created_at"`
}

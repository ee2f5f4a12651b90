package dto

// ── 工序库模块 DTO ──

// CreateOperationRequest 新建标准工序请求
type CreateOperationRequest struct {
	Code        string  `json:"code"         binding:"required,min=2,max=40"`
	Name        string  `json:"name"         binding:"required,min=2,max=200"`
	Category    string  `json:"category"     binding:"omitempty,max=60"`
	SMV         float64 `json:"smv"          binding:"required,gt=0"`
	MachineType string  `json:"machine_type" binding:"omitempty,max=60"`
	SkillLevel  string  `json:"skill_level"  binding:"omitempty,max=30"`
}

// UpdateOperationRequest 修改标准工序请求（按字段补丁）
type UpdateOperationRequest struct {
	Name        *string  `json:"name"         binding:"omitempty,min=2,max=200"`
	Category    *string  `json:"category"     binding:"omitempty,max=60"`
	SMV         *float64 `json:"smv"          binding:"omitempty,gt=0"`
	MachineType *string  `json:"machine_type" binding:"omitempty,max=60"`
	SkillLevel  *string  `json:"skill_level"  binding:"omitempty,max=30"`
}

// OperationResponse 标准工序响应
type OperationResponse struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	SMV         float64 `json:"smv"`
	MachineType string  `json:"machine_type"`
	SkillLevel  string  `json:"skill_level"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

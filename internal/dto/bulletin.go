package dto

// ── 工序单模块 DTO ──

// BulletinItemInput 工序单条目输入
type BulletinItemInput struct {
	Sequence      int    `json:"sequence"       binding:"required,min=1"`
	OperationCode string `json:"operation_code" binding:"required"`
	Manpower      int    `json:"manpower"       binding:"omitempty,min=1"`
}

// SaveBulletinRequest 保存工序单请求（整单替换）
type SaveBulletinRequest struct {
	Component string              `json:"component" binding:"omitempty,max=60"`
	Items     []BulletinItemInput `json:"items"     binding:"required,min=1,dive"`
}

// BulletinItemResponse 工序单条目响应
type BulletinItemResponse struct {
	ItemID        string  `json:"item_id"`
	OrderID       string  `json:"order_id"`
	Component     string  `json:"component"`
	Sequence      int     `json:"sequence"`
	OperationCode string  `json:"operation_code"`
	OperationName string  `json:"operation_name,omitempty"`
	SMV           float64 `json:"smv"`
	Manpower      int     `json:"manpower"`
}

// BulletinResponse 工序单响应
type BulletinResponse struct {
	OrderID   string                 `json:"order_id"`
	Component string                 `json:"component"`
	TotalSMV  float64                `json:"total_smv"`
	Items     []BulletinItemResponse `json:"items"`
}

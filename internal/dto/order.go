package dto

// ── 订单与流程模块 DTO ──

// CreateOrderRequest 新建营销订单请求
type CreateOrderRequest struct {
	ProductCode string `json:"product_code" binding:"required,min=2,max=40"`
	StyleCode   string `json:"style_code"   binding:"required,min=2,max=40"`
	Quantity    int    `json:"quantity"     binding:"required,gt=0"`
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// OrderListRequest 订单列表查询参数
type OrderListRequest struct {
	PaginationRequest
}

// ComponentResponse 订单部件响应
type ComponentResponse struct {
	ComponentID string  `json:"component_id"`
	Name        string  `json:"name"`
	Stage       string  `json:"stage"`
	SMV         float64 `json:"smv"`
	Manpower    int     `json:"manpower"`
	Efficiency  float64 `json:"efficiency"`
}

// OrderResponse 营销订单响应
type OrderResponse struct {
	OrderID            string              `json:"order_id"`
	OrderNumber        string              `json:"order_number"`
	ProductCode        string              `json:"product_code"`
	StyleCode          string              `json:"style_code"`
	Quantity           int                 `json:"quantity"`
	Stage              string              `json:"stage"`
	MaterialsConfirmed bool                `json:"materials_confirmed"`
	CancelReason       *string             `json:"cancel_reason,omitempty"`
	Components         []ComponentResponse `json:"components,omitempty"`
	CreatedAt          string              `json:"created_at"`
	UpdatedAt          string              `json:"updated_at"`
}

// AdvanceResponse 状态推进响应
type AdvanceResponse struct {
	OrderID   string `json:"order_id"`
	Component string `json:"component,omitempty"`
	FromStage string `json:"from_stage"`
	NewStage  string `json:"new_stage"`
}

// ── 款式比例 DTO ──

// RatioInput 单个部件比例输入
type RatioInput struct {
	Component string `json:"component" binding:"required,min=1,max=60"`
	Ratio     int    `json:"ratio"     binding:"required"`
}

// SetRatiosRequest 设置款式部件比例请求（整体替换）
type SetRatiosRequest struct {
	Ratios []RatioInput `json:"ratios" binding:"required,min=1,dive"`
}

// RatioResponse 款式部件比例响应
type RatioResponse struct {
	StyleCode string `json:"style_code"`
	Component string `json:"component"`
	Ratio     int    `json:"ratio"`
}

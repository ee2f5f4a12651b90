package dto

// ── 生产台账模块 DTO ──

// RecordEntryRequest 记录台账事件请求
type RecordEntryRequest struct {
	OrderID   string `json:"order_id"  binding:"required,uuid"`
	Component string `json:"component" binding:"omitempty,max=60"`
	Stage     string `json:"stage"     binding:"required,oneof=cutting sewing finishing packing store_in"`
	Quantity  int    `json:"quantity"  binding:"required"`
	Note      string `json:"note"      binding:"omitempty,max=500"`
}

// LedgerEntryResponse 台账事件响应
type LedgerEntryResponse struct {
	EntryID    string `json:"entry_id"`
	OrderID    string `json:"order_id"`
	Component  string `json:"component"`
	Stage      string `json:"stage"`
	Quantity   int    `json:"quantity"`
	ActorID    string `json:"actor_id"`
	Note       string `json:"note,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

// LedgerBalanceResponse 台账余额响应（按部件、按阶段聚合）
type LedgerBalanceResponse struct {
	OrderID    string                    `json:"order_id"`
	Components map[string]map[string]int `json:"components"`
}

// HandoverResponse 入库交接单响应
type HandoverResponse struct {
	HandoverID  string  `json:"handover_id"`
	OrderID     string  `json:"order_id"`
	EntryID     string  `json:"entry_id"`
	Quantity    int     `json:"quantity"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	ConfirmedAt *string `json:"confirmed_at,omitempty"`
	ConfirmedBy *string `json:"confirmed_by,omitempty"`
}

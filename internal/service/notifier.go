package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stitchline/backend/internal/model"
)

// ── 通知协作方边界 ──
// 投递与重试由外部通知系统负责，引擎只负责在状态变化点发出事件

// HandoffEvent 阶段交接事件：一次成功推进恰好发出一条，重复推进请求
// 在校验阶段即失败，不会重发
type HandoffEvent struct {
	OrderID   string           `json:"order_id"`
	Component string           `json:"component,omitempty"`
	FromStage model.OrderStage `json:"from_stage"`
	ToStage   model.OrderStage `json:"to_stage"`
	Timestamp time.Time        `json:"timestamp"`
}

// 业务通知类型
const (
	NotifyQCRequest            = "QCRequest"
	NotifySewingReady          = "SewingReady"
	NotifyStoreHandoverPending = "StoreHandoverPending"
)

// Notification 业务通知
type Notification struct {
	Type    string            `json:"type"`
	OrderID string            `json:"order_id"`
	Details map[string]string `json:"details,omitempty"`
}

// Notifier 通知协作方接口
type Notifier interface {
	HandoffOccurred(ctx context.Context, evt HandoffEvent)
	Notify(ctx context.Context, n Notification)
}

// logNotifier 默认实现：结构化日志输出，供未接入外部通知系统的部署使用
type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(logger *zap.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) HandoffOccurred(_ context.Context, evt HandoffEvent) {
	n.logger.Info("阶段交接",
		zap.String("order_id", evt.OrderID),
		zap.String("component", evt.Component),
		zap.String("from_stage", string(evt.FromStage)),
		zap.String("to_stage", string(evt.ToStage)),
		zap.Time("timestamp", evt.Timestamp),
	)
}

func (n *logNotifier) Notify(_ context.Context, notification Notification) {
	n.logger.Info("业务通知",
		zap.String("type", notification.Type),
		zap.String("order_id", notification.OrderID),
		zap.Any("details", notification.Details),
	)
}

package errors

import (
	"errors"
	"fmt"
)

// ErrWorkstationBusy 乐观锁冲突：工位已被并发的平衡计算修改
var ErrWorkstationBusy = errors.New("工位已被其他平衡计算占用，请重试")

// ValidationError 输入校验失败（非正数量、重复序号、比例格式错误等）
type ValidationError struct {
	Field  string // 出错字段
	Reason string // 失败原因
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数校验失败: %s %s", e.Field, e.Reason)
}

// NewValidation 构造 ValidationError
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AsValidation 判断 err 是否为 ValidationError
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// ConsolidationExceededError 组套校验失败：包装数量超过最短缺部件允许的套数
type ConsolidationExceededError struct {
	OrderID            string // 订单
	LimitingComponent  string // 限制部件（完成量/比例最小者）
	RequestedQuantity  int    // 请求包装套数
	AllowableRemainder int    // 扣除已包装后仍允许的套数
}

func (e *ConsolidationExceededError) Error() string {
	return fmt.Sprintf("组套数量超限: 部件 %s 的完成量仅允许再包装 %d 套（请求 %d 套）",
		e.LimitingComponent, e.AllowableRemainder, e.RequestedQuantity)
}

// AsConsolidationExceeded 判断 err 是否为 ConsolidationExceededError
func AsConsolidationExceeded(err error) (*ConsolidationExceededError, bool) {
	var ce *ConsolidationExceededError
	ok := errors.As(err, &ce)
	return ce, ok
}

// InvalidTransitionError 状态机非法迁移（跳步、逆向、终态推进或部件未齐）
type InvalidTransitionError struct {
	OrderID           string
	Component         string // 针对部件迁移时的部件名，订单级迁移为空
	From              string // 当前阶段
	Attempted         string // 试图进入的阶段，跳步/逆向时为描述
	BlockingComponent string // 拖后腿的部件（多部件闸口失败时）
}

func (e *InvalidTransitionError) Error() string {
	if e.BlockingComponent != "" {
		return fmt.Sprintf("非法状态迁移: 订单 %s 部件 %s 尚未完成 %s 阶段",
			e.OrderID, e.BlockingComponent, e.From)
	}
	return fmt.Sprintf("非法状态迁移: 订单 %s 无法从 %s 迁移到 %s", e.OrderID, e.From, e.Attempted)
}

// AsInvalidTransition 判断 err 是否为 InvalidTransitionError
func AsInvalidTransition(err error) (*InvalidTransitionError, bool) {
	var te *InvalidTransitionError
	ok := errors.As(err, &te)
	return te, ok
}

package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/model"
	"stitchline/backend/internal/repository"
	pkgerrors "stitchline/backend/pkg/errors"
)

// ── 订单流程模块业务错误 ──

var (
	ErrOrderNotFound         = errors.New("营销订单不存在")
	ErrComponentNotFound     = errors.New("订单部件不存在")
	ErrMaterialsNotConfirmed = errors.New("面辅料尚未确认，无法进入生产计划")
)

// WorkflowService 订单工作流业务接口
// 阶段只能沿固定链 +1 推进；所有校验与写入在同一事务内完成，
// 校验失败即整体回滚，不产生部分写入，也不发出事件
type WorkflowService interface {
	// CreateOrder 创建订单并按款式比例生成部件行
	CreateOrder(ctx context.Context, req *dto.CreateOrderRequest, actor string) (*dto.OrderResponse, error)
	// GetOrder 按 ID 查询订单
	GetOrder(ctx context.Context, orderID string) (*dto.OrderResponse, error)
	// GetOrderByNumber 按订单号查询订单
	GetOrderByNumber(ctx context.Context, orderNumber string) (*dto.OrderResponse, error)
	// ListOrders 分页列出订单
	ListOrders(ctx context.Context, req *dto.OrderListRequest) ([]dto.OrderResponse, int64, error)
	// ConfirmMaterials 确认面辅料到位（Planning 出口闸）
	ConfirmMaterials(ctx context.Context, orderID, actor string) (*dto.OrderResponse, error)
	// Advance 订单整体推进到链中的下一阶段
	Advance(ctx context.Context, orderID, actor string) (*dto.AdvanceResponse, error)
	// AdvanceComponent 单个部件推进（部件走到 store 为止）
	AdvanceComponent(ctx context.Context, orderID, component, actor string) (*dto.AdvanceResponse, error)
	// Cancel 取消订单；终态不可取消
	Cancel(ctx context.Context, orderID string, req *dto.CancelOrderRequest, actor string) (*dto.OrderResponse, error)
}

type workflowService struct {
	repo     *repository.Repository
	style    StyleService
	notifier Notifier
	logger   *zap.Logger
}

// NewWorkflowService 创建 WorkflowService 实例
func NewWorkflowService(repo *repository.Repository, style StyleService, notifier Notifier, logger *zap.Logger) WorkflowService {
	return &workflowService{repo: repo, style: style, notifier: notifier, logger: logger}
}

func (s *workflowService) CreateOrder(ctx context.Context, req *dto.CreateOrderRequest, actor string) (*dto.OrderResponse, error) {
	ratios, err := s.style.Ratios(ctx, req.StyleCode)
	if err != nil {
		return nil, err
	}

	order := &model.MarketingOrder{
		ProductCode: req.ProductCode,
		StyleCode:   req.StyleCode,
		Quantity:    req.Quantity,
		Stage:       model.StagePlacedOrder,
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	order.CreatedBy = &actor
	order.UpdatedBy = &actor
	order.Version = 1

	// 部件行从款式比例派生；未配置比例即单件产品，不建部件
	components := make([]model.OrderComponent, 0, len(ratios))
	for _, r := range ratios {
		components = append(components, model.OrderComponent{
			Name:    r.Component,
			Stage:   model.StagePlacedOrder,
			Version: 1,
		})
	}

	if err := s.repo.Order.Create(ctx, order, components); err != nil {
		s.logger.Error("创建订单失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("订单已创建",
		zap.String("order_id", order.OrderID),
		zap.String("order_number", order.OrderNumber),
		zap.Int("components", len(components)),
	)

	order.Components = components
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *workflowService) GetOrder(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	order, err := s.repo.Order.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("查询订单失败", zap.Error(err))
		return nil, err
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *workflowService) GetOrderByNumber(ctx context.Context, orderNumber string) (*dto.OrderResponse, error) {
	order, err := s.repo.Order.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("查询订单失败", zap.Error(err))
		return nil, err
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *workflowService) ListOrders(ctx context.Context, req *dto.OrderListRequest) ([]dto.OrderResponse, int64, error) {
	orders, total, err := s.repo.Order.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询订单列表失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, toOrderResponse(&orders[i]))
	}
	return result, total, nil
}

func (s *workflowService) ConfirmMaterials(ctx context.Context, orderID, actor string) (*dto.OrderResponse, error) {
	var updated model.MarketingOrder

	err := s.repo.Order.Mutate(ctx, orderID,
		func(o *model.MarketingOrder, _ []*model.OrderComponent) (*repository.OrderMutation, error) {
			if o.Stage.IsTerminal() {
				return nil, &pkgerrors.InvalidTransitionError{
					OrderID:   o.OrderID,
					From:      string(o.Stage),
					Attempted: "confirm_materials",
				}
			}
			o.MaterialsConfirmed = true
			o.UpdatedBy = &actor
			updated = *o
			return &repository.OrderMutation{OrderChanged: true}, nil
		})
	if err != nil {
		return nil, s.mapMutateError(err)
	}
	updated.Version++

	resp := toOrderResponse(&updated)
	return &resp, nil
}

func (s *workflowService) Advance(ctx context.Context, orderID, actor string) (*dto.AdvanceResponse, error) {
	var from, to model.OrderStage

	err := s.repo.Order.Mutate(ctx, orderID,
		func(o *model.MarketingOrder, comps []*model.OrderComponent) (*repository.OrderMutation, error) {
			if o.Stage.IsTerminal() {
				return nil, &pkgerrors.InvalidTransitionError{
					OrderID:   o.OrderID,
					From:      string(o.Stage),
					Attempted: "advance",
				}
			}
			next, ok := model.NextStage(o.Stage)
			if !ok {
				return nil, &pkgerrors.InvalidTransitionError{
					OrderID:   o.OrderID,
					From:      string(o.Stage),
					Attempted: "advance",
				}
			}

			// Planning 出口闸：面辅料未确认不得排产
			if o.Stage == model.StagePlanning && !o.MaterialsConfirmed {
				return nil, ErrMaterialsNotConfirmed
			}

			// 多部件闸口：离开生产阶段前，每个部件都必须已越过该阶段
			if o.Stage.IsProduction() {
				orderIdx := model.StageIndex(o.Stage)
				for _, comp := range comps {
					if model.StageIndex(comp.Stage) <= orderIdx {
						return nil, &pkgerrors.InvalidTransitionError{
							OrderID:           o.OrderID,
							From:              string(o.Stage),
							Attempted:         string(next),
							BlockingComponent: comp.Name,
						}
					}
				}
			}

			from, to = o.Stage, next
			o.Stage = next
			o.UpdatedBy = &actor

			return &repository.OrderMutation{
				OrderChanged: true,
				StageLogs: []model.OrderStageLog{{
					OrderID:     o.OrderID,
					Stage:       from,
					CompletedAt: time.Now(),
					ActorID:     actor,
				}},
			}, nil
		})
	if err != nil {
		return nil, s.mapMutateError(err)
	}

	// 事务已提交；重复的推进请求在校验阶段即失败，事件至多发出一次
	s.emitHandoff(ctx, orderID, "", from, to)

	return &dto.AdvanceResponse{
		OrderID:   orderID,
		FromStage: string(from),
		NewStage:  string(to),
	}, nil
}

func (s *workflowService) AdvanceComponent(ctx context.Context, orderID, component, actor string) (*dto.AdvanceResponse, error) {
	var from, to model.OrderStage

	err := s.repo.Order.Mutate(ctx, orderID,
		func(o *model.MarketingOrder, comps []*model.OrderComponent) (*repository.OrderMutation, error) {
			if o.Stage.IsTerminal() {
				return nil, &pkgerrors.InvalidTransitionError{
					OrderID:   o.OrderID,
					Component: component,
					From:      string(o.Stage),
					Attempted: "advance_component",
				}
			}

			var target *model.OrderComponent
			for _, comp := range comps {
				if comp.Name == component {
					target = comp
					break
				}
			}
			if target == nil {
				return nil, ErrComponentNotFound
			}

			// 部件独立推进到 store 为止；之后的阶段属于订单整体
			if target.Stage == model.StageStore {
				return nil, &pkgerrors.InvalidTransitionError{
					OrderID:   o.OrderID,
					Component: component,
					From:      string(target.Stage),
					Attempted: "advance_component",
				}
			}
			next, ok := model.NextStage(target.Stage)
			if !ok {
				return nil, &pkgerrors.InvalidTransitionError{
					OrderID:   o.OrderID,
					Component: component,
					From:      string(target.Stage),
					Attempted: "advance_component",
				}
			}

			from, to = target.Stage, next
			target.Stage = next

			return &repository.OrderMutation{
				Components: []*model.OrderComponent{target},
				StageLogs: []model.OrderStageLog{{
					OrderID:     o.OrderID,
					Component:   component,
					Stage:       from,
					CompletedAt: time.Now(),
					ActorID:     actor,
				}},
			}, nil
		})
	if err != nil {
		return nil, s.mapMutateError(err)
	}

	s.emitHandoff(ctx, orderID, component, from, to)

	return &dto.AdvanceResponse{
		OrderID:   orderID,
		Component: component,
		FromStage: string(from),
		NewStage:  string(to),
	}, nil
}

func (s *workflowService) Cancel(ctx context.Context, orderID string, req *dto.CancelOrderRequest, actor string) (*dto.OrderResponse, error) {
	var updated model.MarketingOrder

	err := s.repo.Order.Mutate(ctx, orderID,
		func(o *model.MarketingOrder, _ []*model.OrderComponent) (*repository.OrderMutation, error) {
			if o.Stage.IsTerminal() {
				return nil, &pkgerrors.InvalidTransitionError{
					OrderID:   o.OrderID,
					From:      string(o.Stage),
					Attempted: string(model.StageCancelled),
				}
			}
			o.Stage = model.StageCancelled
			o.CancelReason = &req.Reason
			o.UpdatedBy = &actor
			updated = *o
			return &repository.OrderMutation{OrderChanged: true}, nil
		})
	if err != nil {
		return nil, s.mapMutateError(err)
	}
	updated.Version++

	s.logger.Info("订单已取消",
		zap.String("order_id", orderID),
		zap.String("reason", req.Reason),
	)

	resp := toOrderResponse(&updated)
	return &resp, nil
}

// emitHandoff 在事务提交后发出交接事件与阶段联动通知
func (s *workflowService) emitHandoff(ctx context.Context, orderID, component string, from, to model.OrderStage) {
	s.notifier.HandoffOccurred(ctx, HandoffEvent{
		OrderID:   orderID,
		Component: component,
		FromStage: from,
		ToStage:   to,
		Timestamp: time.Now(),
	})

	switch to {
	case model.StageSewing:
		s.notifier.Notify(ctx, Notification{
			Type:    NotifySewingReady,
			OrderID: orderID,
			Details: map[string]string{"component": component},
		})
	case model.StageQualityInspection:
		s.notifier.Notify(ctx, Notification{
			Type:    NotifyQCRequest,
			OrderID: orderID,
			Details: map[string]string{"component": component},
		})
	}
}

func (s *workflowService) mapMutateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrderNotFound
	}
	if errors.Is(err, ErrComponentNotFound) || errors.Is(err, ErrMaterialsNotConfirmed) {
		return err
	}
	if _, ok := pkgerrors.AsInvalidTransition(err); ok {
		return err
	}
	s.logger.Error("订单事务失败", zap.Error(err))
	return err
}

// ── 内部转换 ──

func toOrderResponse(o *model.MarketingOrder) dto.OrderResponse {
	resp := dto.OrderResponse{
		OrderID:            o.OrderID,
		OrderNumber:        o.OrderNumber,
		ProductCode:        o.ProductCode,
		StyleCode:          o.StyleCode,
		Quantity:           o.Quantity,
		Stage:              string(o.Stage),
		MaterialsConfirmed: o.MaterialsConfirmed,
		CancelReason:       o.CancelReason,
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          o.UpdatedAt.Format(time.RFC3339),
	}
	for i := range o.Components {
		c := &o.Components[i]
		resp.Components = append(resp.Components, dto.ComponentResponse{
			ComponentID: c.ComponentID,
			Name:        c.Name,
			Stage:       string(c.Stage),
			SMV:         c.SMV,
			Manpower:    c.Manpower,
			Efficiency:  c.Efficiency,
		})
	}
	return resp
}

package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/model"
	"stitchline/backend/internal/repository"
	pkgerrors "stitchline/backend/pkg/errors"
)

// ── 生产台账模块业务错误 ──

var (
	ErrHandoverNotFound         = errors.New("入库交接单不存在")
	ErrHandoverAlreadyConfirmed = errors.New("入库交接单已确认")
)

// LedgerService 生产台账业务接口
// 台账只增不改；任何"完成量"都是聚合的结果，不存在可编辑的余额字段
type LedgerService interface {
	// Record 记录一次工艺完成事件；packing 事件走组套校验的原子路径
	Record(ctx context.Context, req *dto.RecordEntryRequest, actor string) (*dto.LedgerEntryResponse, error)
	// Balance 按部件、按阶段聚合订单的累计完成量
	Balance(ctx context.Context, orderID string) (*dto.LedgerBalanceResponse, error)
	// ListEntries 按时间序列出订单的全部台账事件
	ListEntries(ctx context.Context, orderID string) ([]dto.LedgerEntryResponse, error)
	// ListHandovers 列出订单的入库交接单
	ListHandovers(ctx context.Context, orderID string) ([]dto.HandoverResponse, error)
	// ConfirmHandover 库房确认交接；状态翻转与 Store-In 台账行同一事务落库
	ConfirmHandover(ctx context.Context, handoverID, actor string) (*dto.HandoverResponse, error)
}

type ledgerService struct {
	repo     *repository.Repository
	style    StyleService
	notifier Notifier
	logger   *zap.Logger
}

// NewLedgerService 创建 LedgerService 实例
func NewLedgerService(repo *repository.Repository, style StyleService, notifier Notifier, logger *zap.Logger) LedgerService {
	return &ledgerService{repo: repo, style: style, notifier: notifier, logger: logger}
}

func (s *ledgerService) Record(ctx context.Context, req *dto.RecordEntryRequest, actor string) (*dto.LedgerEntryResponse, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.NewValidation("quantity", "数量必须为正数")
	}
	stage := model.ProcessStage(req.Stage)
	if !model.ValidProcessStage(stage) {
		return nil, pkgerrors.NewValidation("stage", "未知的工艺阶段 "+req.Stage)
	}
	order, err := s.repo.Order.GetByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("查询订单失败", zap.Error(err))
		return nil, err
	}

	entry := &model.ProductionLedgerEntry{
		EntryID:    uuid.NewString(),
		OrderID:    req.OrderID,
		Component:  req.Component,
		Stage:      stage,
		Quantity:   req.Quantity,
		ActorID:    actor,
		Note:       req.Note,
		RecordedAt: time.Now(),
	}

	if stage != model.ProcessPacking {
		if err := s.repo.Ledger.Append(ctx, entry); err != nil {
			s.logger.Error("台账写入失败", zap.Error(err))
			return nil, err
		}
		resp := toLedgerEntryResponse(entry)
		return &resp, nil
	}

	return s.recordPacking(ctx, order, entry)
}

// recordPacking 包装事件：一次请求 = 包装 quantity 套
// 可包装套数 = min(各部件 floor(finishing 完成量 / 比例)) − 已包装套数，
// 在订单行锁内聚合计算，两个并发请求不会都读到同一份过期余量
func (s *ledgerService) recordPacking(ctx context.Context, order *model.MarketingOrder, entry *model.ProductionLedgerEntry) (*dto.LedgerEntryResponse, error) {
	ratios, err := s.style.Ratios(ctx, order.StyleCode)
	if err != nil {
		return nil, err
	}
	// 未配置比例的款式按单件处理：一套 = 一件
	if len(ratios) == 0 {
		ratios = []model.StyleComponentRatio{
			{StyleCode: order.StyleCode, Component: entry.Component, Ratio: 1},
		}
	}

	handover := &model.StoreHandover{
		HandoverID: uuid.NewString(),
		OrderID:    entry.OrderID,
		EntryID:    entry.EntryID,
		Quantity:   entry.Quantity,
		Status:     model.HandoverPending,
		CreatedAt:  time.Now(),
	}

	err = s.repo.Ledger.AppendPacking(ctx, entry, handover,
		func(finished map[string]int, alreadyPacked int) error {
			// 比例按部件名升序遍历，严格更小者替换，并列时保留先出现的部件
			minSets := -1
			limiting := ""
			for _, r := range ratios {
				sets := finished[r.Component] / r.Ratio
				if minSets < 0 || sets < minSets {
					minSets = sets
					limiting = r.Component
				}
			}

			remainder := minSets - alreadyPacked
			if remainder < 0 {
				remainder = 0
			}
			if entry.Quantity > remainder {
				return &pkgerrors.ConsolidationExceededError{
					OrderID:            entry.OrderID,
					LimitingComponent:  limiting,
					RequestedQuantity:  entry.Quantity,
					AllowableRemainder: remainder,
				}
			}
			return nil
		})
	if err != nil {
		if _, ok := pkgerrors.AsConsolidationExceeded(err); ok {
			return nil, err
		}
		s.logger.Error("包装台账写入失败", zap.Error(err))
		return nil, err
	}

	// 事务已提交，通知库房有待确认的交接单
	s.notifier.Notify(ctx, Notification{
		Type:    NotifyStoreHandoverPending,
		OrderID: entry.OrderID,
		Details: map[string]string{
			"handover_id": handover.HandoverID,
			"quantity":    strconv.Itoa(handover.Quantity),
		},
	})

	resp := toLedgerEntryResponse(entry)
	return &resp, nil
}

func (s *ledgerService) Balance(ctx context.Context, orderID string) (*dto.LedgerBalanceResponse, error) {
	if _, err := s.repo.Order.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	balance, err := s.repo.Ledger.Balance(ctx, orderID)
	if err != nil {
		s.logger.Error("台账聚合失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.LedgerBalanceResponse{
		OrderID:    orderID,
		Components: make(map[string]map[string]int, len(balance)),
	}
	for component, stages := range balance {
		m := make(map[string]int, len(stages))
		for stage, total := range stages {
			m[string(stage)] = total
		}
		resp.Components[component] = m
	}
	return resp, nil
}

func (s *ledgerService) ListEntries(ctx context.Context, orderID string) ([]dto.LedgerEntryResponse, error) {
	entries, err := s.repo.Ledger.ListByOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("查询台账失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, toLedgerEntryResponse(&entries[i]))
	}
	return result, nil
}

func (s *ledgerService) ListHandovers(ctx context.Context, orderID string) ([]dto.HandoverResponse, error) {
	list, err := s.repo.Ledger.ListHandoversByOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("查询交接单失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.HandoverResponse, 0, len(list))
	for i := range list {
		result = append(result, toHandoverResponse(&list[i]))
	}
	return result, nil
}

func (s *ledgerService) ConfirmHandover(ctx context.Context, handoverID, actor string) (*dto.HandoverResponse, error) {
	var confirmed model.StoreHandover

	err := s.repo.Ledger.ConfirmHandover(ctx, handoverID,
		func(h *model.StoreHandover) (*model.ProductionLedgerEntry, error) {
			if h.Status != model.HandoverPending {
				return nil, ErrHandoverAlreadyConfirmed
			}
			now := time.Now()
			h.Status = model.HandoverConfirmed
			h.ConfirmedAt = &now
			h.ConfirmedBy = &actor
			confirmed = *h

			return &model.ProductionLedgerEntry{
				EntryID:    uuid.NewString(),
				OrderID:    h.OrderID,
				Stage:      model.ProcessStoreIn,
				Quantity:   h.Quantity,
				ActorID:    actor,
				RecordedAt: now,
			}, nil
		})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHandoverNotFound
		}
		if errors.Is(err, ErrHandoverAlreadyConfirmed) {
			return nil, ErrHandoverAlreadyConfirmed
		}
		s.logger.Error("交接确认失败", zap.Error(err))
		return nil, err
	}

	resp := toHandoverResponse(&confirmed)
	return &resp, nil
}

// ── 内部转换 ──

func toLedgerEntryResponse(e *model.ProductionLedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		EntryID:    e.EntryID,
		OrderID:    e.OrderID,
		Component:  e.Component,
		Stage:      string(e.Stage),
		Quantity:   e.Quantity,
		ActorID:    e.ActorID,
		Note:       e.Note,
		RecordedAt: e.RecordedAt.Format(time.RFC3339),
	}
}

func toHandoverResponse(h *model.StoreHandover) dto.HandoverResponse {
	resp := dto.HandoverResponse{
		HandoverID: h.HandoverID,
		OrderID:    h.OrderID,
		EntryID:    h.EntryID,
		Quantity:   h.Quantity,
		Status:     h.Status,
		CreatedAt:  h.CreatedAt.Format(time.RFC3339),
	}
	if h.ConfirmedAt != nil {
		ts := h.ConfirmedAt.Format(time.RFC3339)
		resp.ConfirmedAt = &ts
	}
	resp.ConfirmedBy = h.ConfirmedBy
	return resp
}

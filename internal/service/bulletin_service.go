package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/model"
	"stitchline/backend/internal/repository"
	pkgerrors "stitchline/backend/pkg/errors"
)

// BulletinService 工序单业务接口
type BulletinService interface {
	// 编译 (订单, 部件) 的工序单，按序号排列
	Compile(ctx context.Context, orderID, component string) (*dto.BulletinResponse, error)
	// 整单替换保存；SMV 从工序库快照到条目上
	Save(ctx context.Context, orderID string, req *dto.SaveBulletinRequest, actor string) (*dto.BulletinResponse, error)
}

type bulletinService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBulletinService 创建 BulletinService 实例
func NewBulletinService(repo *repository.Repository, logger *zap.Logger) BulletinService {
	return &bulletinService{repo: repo, logger: logger}
}

func (s *bulletinService) Compile(ctx context.Context, orderID, component string) (*dto.BulletinResponse, error) {
	if _, err := s.repo.Order.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("查询订单失败", zap.Error(err))
		return nil, err
	}

	items, err := s.repo.Bulletin.ListByOrderComponent(ctx, orderID, component)
	if err != nil {
		s.logger.Error("查询工序单失败", zap.Error(err))
		return nil, err
	}

	return buildBulletinResponse(orderID, component, items), nil
}

func (s *bulletinService) Save(ctx context.Context, orderID string, req *dto.SaveBulletinRequest, actor string) (*dto.BulletinResponse, error) {
	if _, err := s.repo.Order.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("查询订单失败", zap.Error(err))
		return nil, err
	}

	// 序号唯一性校验
	seen := make(map[int]bool, len(req.Items))
	for _, in := range req.Items {
		if seen[in.Sequence] {
			return nil, pkgerrors.NewValidation("sequence", fmt.Sprintf("序号 %d 重复", in.Sequence))
		}
		seen[in.Sequence] = true
	}

	// 解析工序并快照 SMV
	items := make([]model.OperationBulletinItem, 0, len(req.Items))
	for _, in := range req.Items {
		op, err := s.repo.Operation.GetByCode(ctx, in.OperationCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrOperationNotFound
			}
			s.logger.Error("查询工序失败", zap.Error(err))
			return nil, err
		}

		manpower := in.Manpower
		if manpower <= 0 {
			manpower = 1
		}
		item := model.OperationBulletinItem{
			OrderID:       orderID,
			Component:     req.Component,
			Sequence:      in.Sequence,
			OperationCode: op.Code,
			SMV:           op.SMV, // 快照：后续工序库变更不影响已编制工序单
			Manpower:      manpower,
		}
		item.CreatedBy = &actor
		item.UpdatedBy = &actor
		items = append(items, item)
	}

	if err := s.repo.Bulletin.Replace(ctx, orderID, req.Component, items); err != nil {
		s.logger.Error("保存工序单失败", zap.Error(err))
		return nil, err
	}

	// 重查以获取生成的主键与关联
	saved, err := s.repo.Bulletin.ListByOrderComponent(ctx, orderID, req.Component)
	if err != nil {
		s.logger.Error("查询工序单失败", zap.Error(err))
		return nil, err
	}

	return buildBulletinResponse(orderID, req.Component, saved), nil
}

// ── 内部转换 ──

func buildBulletinResponse(orderID, component string, items []model.OperationBulletinItem) *dto.BulletinResponse {
	resp := &dto.BulletinResponse{
		OrderID:   orderID,
		Component: component,
		Items:     make([]dto.BulletinItemResponse, 0, len(items)),
	}
	for i := range items {
		it := &items[i]
		ir := dto.BulletinItemResponse{
			ItemID:        it.ItemID,
			OrderID:       it.OrderID,
			Component:     it.Component,
			Sequence:      it.Sequence,
			OperationCode: it.OperationCode,
			SMV:           it.SMV,
			Manpower:      it.Manpower,
		}
		if it.Operation != nil {
			ir.OperationName = it.Operation.Name
		}
		resp.TotalSMV += it.SMV
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

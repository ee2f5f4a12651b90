package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"stitchline/backend/config"
	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/model"
	"stitchline/backend/internal/repository"
	"stitchline/backend/pkg/redis"
)

// ── 工序库模块业务错误 ──

var (
	ErrOperationNotFound = errors.New("标准工序不存在")
	ErrOperationExists   = errors.New("工序编码已存在")
	ErrOperationInUse    = errors.New("工序已被工序单引用，不能删除")
)

// OperationService 标准工序库业务接口
type OperationService interface {
	// 新建工序
	Create(ctx context.Context, req *dto.CreateOperationRequest, actor string) (*dto.OperationResponse, error)
	// 按编码查询
	Get(ctx context.Context, code string) (*dto.OperationResponse, error)
	// 按字段补丁修改
	Update(ctx context.Context, code string, req *dto.UpdateOperationRequest, actor string) (*dto.OperationResponse, error)
	// 删除工序
	Delete(ctx context.Context, code string) error
	// 按编码/名称模糊检索
	Search(ctx context.Context, term string) ([]dto.OperationResponse, error)
	// 按类别列出
	ListByCategory(ctx context.Context, category string) ([]dto.OperationResponse, error)
}

type operationService struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewOperationService 创建 OperationService 实例
func NewOperationService(cfg *config.Config, repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) OperationService {
	return &operationService{cfg: cfg, repo: repo, rdb: rdb, logger: logger}
}

func (s *operationService) Create(ctx context.Context, req *dto.CreateOperationRequest, actor string) (*dto.OperationResponse, error) {
	// 重复编码检查
	if _, err := s.repo.Operation.GetByCode(ctx, req.Code); err == nil {
		return nil, ErrOperationExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询工序失败", zap.Error(err))
		return nil, err
	}

	op := &model.Operation{
		Code:        req.Code,
		Name:        req.Name,
		Category:    req.Category,
		SMV:         req.SMV,
		MachineType: req.MachineType,
		SkillLevel:  req.SkillLevel,
	}
	op.CreatedBy = &actor
	op.UpdatedBy = &actor

	if err := s.repo.Operation.Create(ctx, op); err != nil {
		s.logger.Error("创建工序失败", zap.Error(err))
		return nil, err
	}

	resp := toOperationResponse(op)
	return &resp, nil
}

func (s *operationService) Get(ctx context.Context, code string) (*dto.OperationResponse, error) {
	// 读穿透缓存：命中直接返回，未命中查库后回填
	if s.rdb != nil {
		var cached model.Operation
		if hit, err := s.rdb.GetJSON(ctx, redis.OperationKey(code), &cached); err == nil && hit {
			resp := toOperationResponse(&cached)
			return &resp, nil
		}
	}

	op, err := s.repo.Operation.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperationNotFound
		}
		s.logger.Error("查询工序失败", zap.Error(err))
		return nil, err
	}

	if s.rdb != nil {
		ttl := time.Duration(s.cfg.Engine.RatioCacheTTL) * time.Second
		if err := s.rdb.SetJSON(ctx, redis.OperationKey(code), op, ttl); err != nil {
			s.logger.Warn("工序缓存回填失败", zap.String("code", code), zap.Error(err))
		}
	}

	resp := toOperationResponse(op)
	return &resp, nil
}

func (s *operationService) Update(ctx context.Context, code string, req *dto.UpdateOperationRequest, actor string) (*dto.OperationResponse, error) {
	op, err := s.repo.Operation.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperationNotFound
		}
		s.logger.Error("查询工序失败", zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		op.Name = *req.Name
	}
	if req.Category != nil {
		op.Category = *req.Category
	}
	if req.SMV != nil {
		op.SMV = *req.SMV
	}
	if req.MachineType != nil {
		op.MachineType = *req.MachineType
	}
	if req.SkillLevel != nil {
		op.SkillLevel = *req.SkillLevel
	}
	op.UpdatedBy = &actor

	if err := s.repo.Operation.Update(ctx, op); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperationNotFound
		}
		s.logger.Error("更新工序失败", zap.Error(err))
		return nil, err
	}

	// 写路径失效缓存（同调用内，不做全局清空）
	s.invalidate(ctx, code)

	resp := toOperationResponse(op)
	return &resp, nil
}

func (s *operationService) Delete(ctx context.Context, code string) error {
	// 已被工序单快照引用的工序不可删除，否则历史工序单失去出处
	refs, err := s.repo.Bulletin.CountByOperation(ctx, code)
	if err != nil {
		s.logger.Error("统计工序引用失败", zap.Error(err))
		return err
	}
	if refs > 0 {
		return ErrOperationInUse
	}

	if err := s.repo.Operation.Delete(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOperationNotFound
		}
		s.logger.Error("删除工序失败", zap.Error(err))
		return err
	}
	s.invalidate(ctx, code)
	return nil
}

func (s *operationService) Search(ctx context.Context, term string) ([]dto.OperationResponse, error) {
	ops, err := s.repo.Operation.Search(ctx, term)
	if err != nil {
		s.logger.Error("检索工序失败", zap.Error(err))
		return nil, err
	}
	return toOperationResponses(ops), nil
}

func (s *operationService) ListByCategory(ctx context.Context, category string) ([]dto.OperationResponse, error) {
	ops, err := s.repo.Operation.ListByCategory(ctx, category)
	if err != nil {
		s.logger.Error("按类别查询工序失败", zap.Error(err))
		return nil, err
	}
	return toOperationResponses(ops), nil
}

func (s *operationService) invalidate(ctx context.Context, code string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Delete(ctx, redis.OperationKey(code)); err != nil {
		s.logger.Warn("工序缓存失效失败", zap.String("code", code), zap.Error(err))
	}
}

// ── 内部转换 ──

func toOperationResponse(op *model.Operation) dto.OperationResponse {
	return dto.OperationResponse{
		Code:        op.Code,
		Name:        op.Name,
		Category:    op.Category,
		SMV:         op.SMV,
		MachineType: op.MachineType,
		SkillLevel:  op.SkillLevel,
		CreatedAt:   op.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   op.UpdatedAt.Format(time.RFC3339),
	}
}

func toOperationResponses(ops []model.Operation) []dto.OperationResponse {
	result := make([]dto.OperationResponse, 0, len(ops))
	for i := range ops {
		result = append(result, toOperationResponse(&ops[i]))
	}
	return result
}

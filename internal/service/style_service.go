package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stitchline/backend/config"
	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/model"
	"stitchline/backend/internal/repository"
	pkgerrors "stitchline/backend/pkg/errors"
	"stitchline/backend/pkg/redis"
)

// StyleService 款式部件比例业务接口
// 比例表是组套校验与订单建档的只读输入，高频读低频写，走读穿透缓存
type StyleService interface {
	// Ratios 查询款式比例（模型形态，供台账与流程模块消费）
	Ratios(ctx context.Context, styleCode string) ([]model.StyleComponentRatio, error)
	// GetRatios 查询款式比例
	GetRatios(ctx context.Context, styleCode string) ([]dto.RatioResponse, error)
	// SetRatios 整体替换款式比例配置
	SetRatios(ctx context.Context, styleCode string, req *dto.SetRatiosRequest, actor string) ([]dto.RatioResponse, error)
}

type styleService struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewStyleService 创建 StyleService 实例
func NewStyleService(cfg *config.Config, repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) StyleService {
	return &styleService{cfg: cfg, repo: repo, rdb: rdb, logger: logger}
}

func (s *styleService) Ratios(ctx context.Context, styleCode string) ([]model.StyleComponentRatio, error) {
	if s.rdb != nil {
		var cached []model.StyleComponentRatio
		if hit, err := s.rdb.GetJSON(ctx, redis.RatioKey(styleCode), &cached); err == nil && hit {
			return cached, nil
		}
	}

	ratios, err := s.repo.Style.GetRatios(ctx, styleCode)
	if err != nil {
		s.logger.Error("查询款式比例失败", zap.String("style_code", styleCode), zap.Error(err))
		return nil, err
	}

	if s.rdb != nil && len(ratios) > 0 {
		ttl := time.Duration(s.cfg.Engine.RatioCacheTTL) * time.Second
		if err := s.rdb.SetJSON(ctx, redis.RatioKey(styleCode), ratios, ttl); err != nil {
			s.logger.Warn("款式比例缓存回填失败", zap.String("style_code", styleCode), zap.Error(err))
		}
	}
	return ratios, nil
}

func (s *styleService) GetRatios(ctx context.Context, styleCode string) ([]dto.RatioResponse, error) {
	ratios, err := s.Ratios(ctx, styleCode)
	if err != nil {
		return nil, err
	}
	return toRatioResponses(ratios), nil
}

func (s *styleService) SetRatios(ctx context.Context, styleCode string, req *dto.SetRatiosRequest, actor string) ([]dto.RatioResponse, error) {
	seen := make(map[string]bool, len(req.Ratios))
	ratios := make([]model.StyleComponentRatio, 0, len(req.Ratios))
	for _, in := range req.Ratios {
		if in.Ratio <= 0 {
			return nil, pkgerrors.NewValidation("ratio",
				fmt.Sprintf("部件 %s 的比例必须为正数", in.Component))
		}
		if seen[in.Component] {
			return nil, pkgerrors.NewValidation("component",
				fmt.Sprintf("部件 %s 重复", in.Component))
		}
		seen[in.Component] = true
		ratios = append(ratios, model.StyleComponentRatio{
			StyleCode: styleCode,
			Component: in.Component,
			Ratio:     in.Ratio,
		})
	}

	if err := s.repo.Style.ReplaceRatios(ctx, styleCode, ratios); err != nil {
		s.logger.Error("保存款式比例失败", zap.String("style_code", styleCode), zap.Error(err))
		return nil, err
	}

	if s.rdb != nil {
		if err := s.rdb.Delete(ctx, redis.RatioKey(styleCode)); err != nil {
			s.logger.Warn("款式比例缓存失效失败", zap.String("style_code", styleCode), zap.Error(err))
		}
	}

	saved, err := s.repo.Style.GetRatios(ctx, styleCode)
	if err != nil {
		return nil, err
	}
	return toRatioResponses(saved), nil
}

// ── 内部转换 ──

func toRatioResponses(ratios []model.StyleComponentRatio) []dto.RatioResponse {
	result := make([]dto.RatioResponse, 0, len(ratios))
	for _, r := range ratios {
		result = append(result, dto.RatioResponse{
			StyleCode: r.StyleCode,
			Component: r.Component,
			Ratio:     r.Ratio,
		})
	}
	return result
}

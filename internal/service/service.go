package service

import (
	"go.uber.org/zap"

	"stitchline/backend/config"
	"stitchline/backend/internal/repository"
	"stitchline/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Operation OperationService
	Bulletin  BulletinService
	Balance   BalanceService
	Ledger    LedgerService
	Workflow  WorkflowService
	Style     StyleService
}

// NewService 创建 Service 聚合
// rdb 允许为 nil：缓存降级为直查数据库，不影响功能
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	style := NewStyleService(cfg, repo, rdb, logger)
	return &Service{
		Operation: NewOperationService(cfg, repo, rdb, logger),
		Bulletin:  NewBulletinService(repo, logger),
		Balance:   NewBalanceService(cfg, repo, logger),
		Ledger:    NewLedgerService(repo, style, notifier, logger),
		Workflow:  NewWorkflowService(repo, style, notifier, logger),
		Style:     style,
	}
}

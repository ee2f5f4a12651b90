package handler

import "stitchline/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Operation *OperationHandler
	Bulletin  *BulletinHandler
	Balance   *BalanceHandler
	Ledger    *LedgerHandler
	Order     *OrderHandler
	Style     *StyleHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Operation: NewOperationHandler(svc.Operation),
		Bulletin:  NewBulletinHandler(svc.Bulletin),
		Balance:   NewBalanceHandler(svc.Balance),
		Ledger:    NewLedgerHandler(svc.Ledger),
		Order:     NewOrderHandler(svc.Workflow),
		Style:     NewStyleHandler(svc.Style),
	}
}

package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Operation   OperationRepository
	Bulletin    BulletinRepository
	Workstation WorkstationRepository
	LineBalance LineBalanceRepository
	Ledger      LedgerRepository
	Order       OrderRepository
	Style       StyleRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Operation:   NewOperationRepo(db),
		Bulletin:    NewBulletinRepo(db),
		Workstation: NewWorkstationRepo(db),
		LineBalance: NewLineBalanceRepo(db),
		Ledger:      NewLedgerRepo(db),
		Order:       NewOrderRepo(db),
		Style:       NewStyleRepo(db),
	}
}

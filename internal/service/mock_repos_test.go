package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"stitchline/backend/config"
	"stitchline/backend/internal/model"
	"stitchline/backend/internal/repository"
	pkgerrors "stitchline/backend/pkg/errors"
)

// ── Mock OperationRepository ──

type mockOperationRepo struct {
	operations map[string]*model.Operation
}

func newMockOperationRepo() *mockOperationRepo {
	return &mockOperationRepo{operations: make(map[string]*model.Operation)}
}

func (m *mockOperationRepo) Create(_ context.Context, op *model.Operation) error {
	m.operations[op.Code] = op
	return nil
}

func (m *mockOperationRepo) GetByCode(_ context.Context, code string) (*model.Operation, error) {
	if op, ok := m.operations[code]; ok {
		cp := *op
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOperationRepo) Update(_ context.Context, op *model.Operation) error {
	if _, ok := m.operations[op.Code]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *op
	m.operations[op.Code] = &cp
	return nil
}

func (m *mockOperationRepo) Delete(_ context.Context, code string) error {
	if _, ok := m.operations[code]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.operations, code)
	return nil
}

func (m *mockOperationRepo) Search(_ context.Context, term string) ([]model.Operation, error) {
	lower := strings.ToLower(term)
	var result []model.Operation
	for _, op := range m.operations {
		if strings.Contains(strings.ToLower(op.Code), lower) ||
			strings.Contains(strings.ToLower(op.Name), lower) {
			result = append(result, *op)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockOperationRepo) ListByCategory(_ context.Context, category string) ([]model.Operation, error) {
	var result []model.Operation
	for _, op := range m.operations {
		if op.Category == category {
			result = append(result, *op)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// ── Mock BulletinRepository ──

type mockBulletinRepo struct {
	items     []model.OperationBulletinItem
	orders    *mockOrderRepo // 部件聚合字段回写
	idCounter int
}

func newMockBulletinRepo(orders *mockOrderRepo) *mockBulletinRepo {
	return &mockBulletinRepo{orders: orders}
}

func (m *mockBulletinRepo) ListByOrderComponent(_ context.Context, orderID, component string) ([]model.OperationBulletinItem, error) {
	var result []model.OperationBulletinItem
	for _, it := range m.items {
		if it.OrderID == orderID && it.Component == component {
			result = append(result, it)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Sequence < result[j].Sequence })
	return result, nil
}

func (m *mockBulletinRepo) CountByOperation(_ context.Context, operationCode string) (int64, error) {
	var count int64
	for _, it := range m.items {
		if it.OperationCode == operationCode {
			count++
		}
	}
	return count, nil
}

func (m *mockBulletinRepo) Replace(_ context.Context, orderID, component string, items []model.OperationBulletinItem) error {
	var remaining []model.OperationBulletinItem
	for _, it := range m.items {
		if !(it.OrderID == orderID && it.Component == component) {
			remaining = append(remaining, it)
		}
	}
	for i := range items {
		m.idCounter++
		items[i].ItemID = fmt.Sprintf("item-%d", m.idCounter)
		remaining = append(remaining, items[i])
	}
	m.items = remaining

	if component == "" || m.orders == nil {
		return nil
	}
	var totalSMV float64
	var totalManpower int
	for _, it := range items {
		totalSMV += it.SMV
		totalManpower += it.Manpower
	}
	for _, comps := range m.orders.components {
		for i := range comps {
			if comps[i].OrderID == orderID && comps[i].Name == component {
				comps[i].SMV = totalSMV
				comps[i].Manpower = totalManpower
			}
		}
	}
	return nil
}

// ── Mock WorkstationRepository ──

type mockWorkstationRepo struct {
	mu       sync.Mutex
	stations map[string]*model.Workstation
}

func newMockWorkstationRepo() *mockWorkstationRepo {
	return &mockWorkstationRepo{stations: make(map[string]*model.Workstation)}
}

func (m *mockWorkstationRepo) Create(_ context.Context, ws *model.Workstation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws.Version == 0 {
		ws.Version = 1
	}
	cp := *ws
	m.stations[ws.Code] = &cp
	return nil
}

func (m *mockWorkstationRepo) GetByCode(_ context.Context, code string) (*model.Workstation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws, ok := m.stations[code]; ok {
		cp := *ws
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkstationRepo) List(_ context.Context) ([]model.Workstation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Workstation
	for _, ws := range m.stations {
		result = append(result, *ws)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Section != result[j].Section {
			return result[i].Section < result[j].Section
		}
		return result[i].Code < result[j].Code
	})
	return result, nil
}

func (m *mockWorkstationRepo) ListAvailableBySection(_ context.Context, section model.Section) ([]model.Workstation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Workstation
	for _, ws := range m.stations {
		if ws.Section == section && ws.Status == model.WorkstationAvailable {
			result = append(result, *ws)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockWorkstationRepo) Update(_ context.Context, ws *model.Workstation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.stations[ws.Code]
	if !ok || stored.Version != ws.Version {
		return pkgerrors.ErrWorkstationBusy
	}
	cp := *ws
	cp.Version = ws.Version + 1
	m.stations[ws.Code] = &cp
	ws.Version = cp.Version
	return nil
}

// ── Mock LineBalanceRepository ──

type mockLineBalanceRepo struct {
	runs      map[string]*model.LineBalanceRun
	stations  *mockWorkstationRepo // 负载回写的落点
	idCounter int
}

func newMockLineBalanceRepo(stations *mockWorkstationRepo) *mockLineBalanceRepo {
	return &mockLineBalanceRepo{
		runs:     make(map[string]*model.LineBalanceRun),
		stations: stations,
	}
}

func (m *mockLineBalanceRepo) CreateRun(_ context.Context, run *model.LineBalanceRun, assignments []model.OperationAssignment, touched []*model.Workstation) error {
	m.stations.mu.Lock()
	defer m.stations.mu.Unlock()

	// 先做版本校验，任一冲突则整体不落库
	for _, ws := range touched {
		stored, ok := m.stations.stations[ws.Code]
		if !ok || stored.Version != ws.Version {
			return pkgerrors.ErrWorkstationBusy
		}
	}

	m.idCounter++
	run.RunID = fmt.Sprintf("run-%d", m.idCounter)
	run.CreatedAt = time.Now()
	for i := range assignments {
		assignments[i].RunID = run.RunID
		assignments[i].AssignmentID = fmt.Sprintf("assign-%d-%d", m.idCounter, i+1)
	}

	for _, ws := range touched {
		cp := *ws
		cp.Version = ws.Version + 1
		m.stations.stations[ws.Code] = &cp
		ws.Version = cp.Version
	}

	cp := *run
	cp.Assignments = append([]model.OperationAssignment(nil), assignments...)
	m.runs[run.RunID] = &cp
	return nil
}

func (m *mockLineBalanceRepo) GetRun(_ context.Context, runID string) (*model.LineBalanceRun, error) {
	if run, ok := m.runs[runID]; ok {
		cp := *run
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLineBalanceRepo) ListRunsByOrder(_ context.Context, orderID string) ([]model.LineBalanceRun, error) {
	var result []model.LineBalanceRun
	for _, run := range m.runs {
		if run.OrderID == orderID {
			result = append(result, *run)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockLineBalanceRepo) UpdateRunStatus(_ context.Context, runID, status, actor string) error {
	run, ok := m.runs[runID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	run.Status = status
	run.UpdatedBy = &actor
	return nil
}

// ── Mock LedgerRepository ──

type mockLedgerRepo struct {
	mu        sync.Mutex
	entries   []model.ProductionLedgerEntry
	handovers map[string]*model.StoreHandover
	orders    *mockOrderRepo // 包装路径的订单行锁等价物
}

func newMockLedgerRepo(orders *mockOrderRepo) *mockLedgerRepo {
	return &mockLedgerRepo{
		handovers: make(map[string]*model.StoreHandover),
		orders:    orders,
	}
}

func (m *mockLedgerRepo) Append(_ context.Context, entry *model.ProductionLedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockLedgerRepo) AppendPacking(_ context.Context, entry *model.ProductionLedgerEntry, handover *model.StoreHandover,
	check func(finished map[string]int, alreadyPacked int) error) error {
	// 互斥锁串行化并发包装请求，与行锁语义一致
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.orders != nil {
		if _, ok := m.orders.orders[entry.OrderID]; !ok {
			return gorm.ErrRecordNotFound
		}
	}

	finished := make(map[string]int)
	alreadyPacked := 0
	for _, e := range m.entries {
		if e.OrderID != entry.OrderID {
			continue
		}
		switch e.Stage {
		case model.ProcessFinishing:
			finished[e.Component] += e.Quantity
		case model.ProcessPacking:
			alreadyPacked += e.Quantity
		}
	}

	if err := check(finished, alreadyPacked); err != nil {
		return err
	}

	m.entries = append(m.entries, *entry)
	cp := *handover
	m.handovers[handover.HandoverID] = &cp
	return nil
}

func (m *mockLedgerRepo) Balance(_ context.Context, orderID string) (model.StageBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := make(model.StageBalance)
	for _, e := range m.entries {
		if e.OrderID != orderID {
			continue
		}
		if balance[e.Component] == nil {
			balance[e.Component] = make(map[model.ProcessStage]int)
		}
		balance[e.Component][e.Stage] += e.Quantity
	}
	return balance, nil
}

func (m *mockLedgerRepo) ListByOrder(_ context.Context, orderID string) ([]model.ProductionLedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ProductionLedgerEntry
	for _, e := range m.entries {
		if e.OrderID == orderID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockLedgerRepo) GetHandover(_ context.Context, handoverID string) (*model.StoreHandover, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.handovers[handoverID]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLedgerRepo) ListHandoversByOrder(_ context.Context, orderID string) ([]model.StoreHandover, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.StoreHandover
	for _, h := range m.handovers {
		if h.OrderID == orderID {
			result = append(result, *h)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockLedgerRepo) ConfirmHandover(_ context.Context, handoverID string,
	confirm func(h *model.StoreHandover) (*model.ProductionLedgerEntry, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.handovers[handoverID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	cp := *h
	entry, err := confirm(&cp)
	if err != nil {
		return err
	}

	m.handovers[handoverID] = &cp
	m.entries = append(m.entries, *entry)
	return nil
}

// ── Mock OrderRepository ──

type mockOrderRepo struct {
	mu         sync.Mutex
	orders     map[string]*model.MarketingOrder
	components map[string][]*model.OrderComponent
	stageLogs  []model.OrderStageLog
	counters   map[string]int
	idCounter  int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders:     make(map[string]*model.MarketingOrder),
		components: make(map[string][]*model.OrderComponent),
		counters:   make(map[string]int),
	}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.MarketingOrder, components []model.OrderComponent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.idCounter++
	if order.OrderID == "" {
		order.OrderID = fmt.Sprintf("order-%d", m.idCounter)
	}
	period := order.CreatedAt.Format("200601")
	m.counters[period]++
	order.OrderNumber = fmt.Sprintf("MO%s-%04d", period, m.counters[period])

	cp := *order
	m.orders[order.OrderID] = &cp
	for i := range components {
		components[i].OrderID = order.OrderID
		if components[i].ComponentID == "" {
			components[i].ComponentID = fmt.Sprintf("comp-%s-%s", order.OrderID, components[i].Name)
		}
		ccp := components[i]
		m.components[order.OrderID] = append(m.components[order.OrderID], &ccp)
	}
	order.Components = components
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, orderID string) (*model.MarketingOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *order
	cp.Components = m.componentsOf(orderID)
	return &cp, nil
}

func (m *mockOrderRepo) GetByNumber(_ context.Context, orderNumber string) (*model.MarketingOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, order := range m.orders {
		if order.OrderNumber == orderNumber {
			cp := *order
			cp.Components = m.componentsOf(id)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrderRepo) List(_ context.Context, offset, limit int) ([]model.MarketingOrder, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.MarketingOrder
	for id, order := range m.orders {
		cp := *order
		cp.Components = m.componentsOf(id)
		all = append(all, cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockOrderRepo) Mutate(_ context.Context, orderID string,
	apply func(o *model.MarketingOrder, comps []*model.OrderComponent) (*repository.OrderMutation, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	// 在副本上执行，apply 失败等价于事务回滚
	orderCopy := *stored
	var compCopies []*model.OrderComponent
	for _, c := range m.components[orderID] {
		cc := *c
		compCopies = append(compCopies, &cc)
	}
	sort.Slice(compCopies, func(i, j int) bool { return compCopies[i].Name < compCopies[j].Name })

	mutation, err := apply(&orderCopy, compCopies)
	if err != nil {
		return err
	}
	if mutation == nil {
		return nil
	}

	if mutation.OrderChanged {
		orderCopy.Version++
		m.orders[orderID] = &orderCopy
	}
	for _, changed := range mutation.Components {
		for i, c := range m.components[orderID] {
			if c.ComponentID == changed.ComponentID {
				cc := *changed
				cc.Version++
				m.components[orderID][i] = &cc
			}
		}
	}
	m.stageLogs = append(m.stageLogs, mutation.StageLogs...)
	return nil
}

// componentsOf 调用方必须持有 m.mu
func (m *mockOrderRepo) componentsOf(orderID string) []model.OrderComponent {
	var result []model.OrderComponent
	for _, c := range m.components[orderID] {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// ── Mock StyleRepository ──

type mockStyleRepo struct {
	ratios map[string][]model.StyleComponentRatio
}

func newMockStyleRepo() *mockStyleRepo {
	return &mockStyleRepo{ratios: make(map[string][]model.StyleComponentRatio)}
}

func (m *mockStyleRepo) GetRatios(_ context.Context, styleCode string) ([]model.StyleComponentRatio, error) {
	result := append([]model.StyleComponentRatio(nil), m.ratios[styleCode]...)
	sort.Slice(result, func(i, j int) bool { return result[i].Component < result[j].Component })
	return result, nil
}

func (m *mockStyleRepo) ReplaceRatios(_ context.Context, styleCode string, ratios []model.StyleComponentRatio) error {
	m.ratios[styleCode] = append([]model.StyleComponentRatio(nil), ratios...)
	return nil
}

// ── 测试用 Notifier：记录全部事件与通知 ──

type recordingNotifier struct {
	mu            sync.Mutex
	handoffs      []HandoffEvent
	notifications []Notification
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{}
}

func (n *recordingNotifier) HandoffOccurred(_ context.Context, evt HandoffEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handoffs = append(n.handoffs, evt)
}

func (n *recordingNotifier) Notify(_ context.Context, notification Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
}

func (n *recordingNotifier) handoffCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.handoffs)
}

func (n *recordingNotifier) notificationsOfType(typ string) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var result []Notification
	for _, notification := range n.notifications {
		if notification.Type == typ {
			result = append(result, notification)
		}
	}
	return result
}

// ── 聚合测试环境 ──

// testRepos 聚合所有 mock repo 便于 seed 数据
type testRepos struct {
	operation   *mockOperationRepo
	bulletin    *mockBulletinRepo
	workstation *mockWorkstationRepo
	lineBalance *mockLineBalanceRepo
	ledger      *mockLedgerRepo
	order       *mockOrderRepo
	style       *mockStyleRepo
}

func newTestRepos() *testRepos {
	order := newMockOrderRepo()
	ws := newMockWorkstationRepo()
	return &testRepos{
		operation:   newMockOperationRepo(),
		bulletin:    newMockBulletinRepo(order),
		workstation: ws,
		lineBalance: newMockLineBalanceRepo(ws),
		ledger:      newMockLedgerRepo(order),
		order:       order,
		style:       newMockStyleRepo(),
	}
}

// testConfig 测试配置：与生产默认值一致
func testConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			DefaultWorkingMinutes: 480,
			RatioCacheTTL:         600,
		},
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		Operation:   r.operation,
		Bulletin:    r.bulletin,
		Workstation: r.workstation,
		LineBalance: r.lineBalance,
		Ledger:      r.ledger,
		Order:       r.order,
		Style:       r.style,
	}
}

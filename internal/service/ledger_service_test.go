package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/model"
	pkgerrors "stitchline/backend/pkg/errors"
)

// ── 测试辅助 ──

func setupTestLedgerService() (LedgerService, *testRepos, *recordingNotifier) {
	repos := newTestRepos()
	repoAgg := repos.toRepository()
	notifier := newRecordingNotifier()
	style := NewStyleService(testConfig(), repoAgg, nil, zap.NewNop())
	svc := NewLedgerService(repoAgg, style, notifier, zap.NewNop())
	return svc, repos, notifier
}

func seedRatios(repos *testRepos, styleCode string, pairs map[string]int) {
	for component, ratio := range pairs {
		repos.style.ratios[styleCode] = append(repos.style.ratios[styleCode], model.StyleComponentRatio{
			StyleCode: styleCode,
			Component: component,
			Ratio:     ratio,
		})
	}
}

func record(t *testing.T, svc LedgerService, orderID, component, stage string, qty int) *dto.LedgerEntryResponse {
	t.Helper()
	entry, err := svc.Record(context.Background(), &dto.RecordEntryRequest{
		OrderID:   orderID,
		Component: component,
		Stage:     stage,
		Quantity:  qty,
	}, "worker-01")
	if err != nil {
		t.Fatalf("Record(%s %s %d) 应成功: %v", component, stage, qty, err)
	}
	return entry
}

func TestLedgerService_Record_AppendsEntry(t *testing.T) {
	svc, repos, _ := setupTestLedgerService()
	seedOrder(repos, "order-1", "ST-01", 300, model.StageCutting, "jacket")

	entry := record(t, svc, "order-1", "jacket", "cutting", 50)
	if entry.EntryID == "" {
		t.Error("EntryID 不应为空")
	}
	if entry.ActorID != "worker-01" {
		t.Errorf("期望 actor=worker-01，实际=%s", entry.ActorID)
	}

	record(t, svc, "order-1", "jacket", "cutting", 30)

	balance, err := svc.Balance(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("Balance 应成功: %v", err)
	}
	if balance.Components["jacket"]["cutting"] != 80 {
		t.Errorf("期望裁剪累计=80，实际=%d", balance.Components["jacket"]["cutting"])
	}
}

func TestLedgerService_Record_Validation(t *testing.T) {
	svc, repos, _ := setupTestLedgerService()
	seedOrder(repos, "order-1", "ST-01", 300, model.StageCutting)

	cases := []struct {
		name  string
		req   dto.RecordEntryRequest
		field string
	}{
		{"非正数量", dto.RecordEntryRequest{OrderID: "order-1", Stage: "cutting", Quantity: 0}, "quantity"},
		{"负数量", dto.RecordEntryRequest{OrderID: "order-1", Stage: "cutting", Quantity: -5}, "quantity"},
		{"未知阶段", dto.RecordEntryRequest{OrderID: "order-1", Stage: "washing", Quantity: 10}, "stage"},
	}
	for _, tc := range cases {
		_, err := svc.Record(context.Background(), &tc.req, "worker-01")
		ve, ok := pkgerrors.AsValidation(err)
		if !ok {
			t.Errorf("%s: 期望 ValidationError，实际: %v", tc.name, err)
			continue
		}
		if ve.Field != tc.field {
			t.Errorf("%s: 期望字段 %s，实际=%s", tc.name, tc.field, ve.Field)
		}
	}
}

// 库房直接上报入库与交接确认路径并存，都是合法的 Store-In 写入方
func TestLedgerService_Record_StoreInDirect(t *testing.T) {
	svc, repos, _ := setupTestLedgerService()
	seedOrder(repos, "order-1", "ST-01", 300, model.StageStore)

	record(t, svc, "order-1", "", "store_in", 10)

	balance, err := svc.Balance(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("Balance 应成功: %v", err)
	}
	if balance.Components[""]["store_in"] != 10 {
		t.Errorf("期望入库累计=10，实际=%d", balance.Components[""]["store_in"])
	}
}

func TestLedgerService_Record_OrderNotFound(t *testing.T) {
	svc, _, _ := setupTestLedgerService()

	_, err := svc.Record(context.Background(), &dto.RecordEntryRequest{
		OrderID: "nonexistent", Stage: "cutting", Quantity: 10,
	}, "worker-01")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("期望 ErrOrderNotFound，实际: %v", err)
	}
}

// 比例 1:2，Finishing 完成 C1=100 / C2=150 → 最多 75 套，短板是 C2
func TestLedgerService_Packing_Consolidation(t *testing.T) {
	svc, repos, notifier := setupTestLedgerService()
	seedOrder(repos, "order-1", "ST-01", 100, model.StagePacking, "C1", "C2")
	seedRatios(repos, "ST-01", map[string]int{"C1": 1, "C2": 2})
	record(t, svc, "order-1", "C1", "finishing", 100)
	record(t, svc, "order-1", "C2", "finishing", 150)

	// 超出可包装套数：拒绝并命名短板部件
	_, err := svc.Record(context.Background(), &dto.RecordEntryRequest{
		OrderID: "order-1", Stage: "packing", Quantity: 76,
	}, "worker-01")
	ce, ok := pkgerrors.AsConsolidationExceeded(err)
	if !ok {
		t.Fatalf("期望 ConsolidationExceededError，实际: %v", err)
	}
	if ce.LimitingComponent != "C2" {
		t.Errorf("期望短板部件 C2，实际=%s", ce.LimitingComponent)
	}
	if ce.AllowableRemainder != 75 {
		t.Errorf("期望剩余可包装 75，实际=%d", ce.AllowableRemainder)
	}

	// 拒绝的请求不产生任何写入
	balance, _ := svc.Balance(context.Background(), "order-1")
	if balance.Components[""]["packing"] != 0 {
		t.Error("拒绝后不应有包装台账行")
	}

	// 恰好 75 套：成功，生成待确认交接单并发出通知
	record(t, svc, "order-1", "", "packing", 75)
	handovers, err := svc.ListHandovers(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("ListHandovers 应成功: %v", err)
	}
	if len(handovers) != 1 || handovers[0].Status != model.HandoverPending {
		t.Fatalf("期望 1 张待确认交接单，实际=%v", handovers)
	}
	if got := notifier.notificationsOfType(NotifyStoreHandoverPending); len(got) != 1 {
		t.Errorf("期望 1 条入库通知，实际=%d", len(got))
	}

	// 余量耗尽后再包 1 套被拒绝
	_, err = svc.Record(context.Background(), &dto.RecordEntryRequest{
		OrderID: "order-1", Stage: "packing", Quantity: 1,
	}, "worker-01")
	ce, ok = pkgerrors.AsConsolidationExceeded(err)
	if !ok || ce.AllowableRemainder != 0 {
		t.Errorf("期望剩余 0 的超限错误，实际: %v", err)
	}
}

// 未配置比例的款式按单件处理：一套 = 一件
func TestLedgerService_Packing_SinglePieceFallback(t *testing.T) {
	svc, repos, _ := setupTestLedgerService()
	seedOrder(repos, "order-1", "ST-02", 100, model.StagePacking)
	record(t, svc, "order-1", "", "finishing", 50)

	record(t, svc, "order-1", "", "packing", 50)

	_, err := svc.Record(context.Background(), &dto.RecordEntryRequest{
		OrderID: "order-1", Stage: "packing", Quantity: 1,
	}, "worker-01")
	if _, ok := pkgerrors.AsConsolidationExceeded(err); !ok {
		t.Errorf("期望 ConsolidationExceededError，实际: %v", err)
	}
}

// 两个并发请求同时包装全部余量，恰好一个成功
func TestLedgerService_Packing_ConcurrentRequests(t *testing.T) {
	svc, repos, _ := setupTestLedgerService()
	seedOrder(repos, "order-1", "ST-01", 100, model.StagePacking, "C1", "C2")
	seedRatios(repos, "ST-01", map[string]int{"C1": 1, "C2": 2})
	record(t, svc, "order-1", "C1", "finishing", 100)
	record(t, svc, "order-1", "C2", "finishing", 150)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, results[idx] = svc.Record(context.Background(), &dto.RecordEntryRequest{
				OrderID: "order-1", Stage: "packing", Quantity: 75,
			}, "worker-01")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if _, ok := pkgerrors.AsConsolidationExceeded(err); !ok {
			t.Errorf("失败方期望 ConsolidationExceededError，实际: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("期望恰好 1 个请求成功，实际=%d", succeeded)
	}

	balance, _ := svc.Balance(context.Background(), "order-1")
	if balance.Components[""]["packing"] != 75 {
		t.Errorf("期望包装累计=75，实际=%d", balance.Components[""]["packing"])
	}
}

func TestLedgerService_ConfirmHandover(t *testing.T) {
	svc, repos, _ := setupTestLedgerService()
	seedOrder(repos, "order-1", "ST-02", 100, model.StagePacking)
	record(t, svc, "order-1", "", "finishing", 30)
	record(t, svc, "order-1", "", "packing", 30)

	handovers, _ := svc.ListHandovers(context.Background(), "order-1")
	if len(handovers) != 1 {
		t.Fatalf("期望 1 张交接单，实际=%d", len(handovers))
	}

	confirmed, err := svc.ConfirmHandover(context.Background(), handovers[0].HandoverID, "store-01")
	if err != nil {
		t.Fatalf("ConfirmHandover 应成功: %v", err)
	}
	if confirmed.Status != model.HandoverConfirmed {
		t.Errorf("期望 confirmed，实际=%s", confirmed.Status)
	}
	if confirmed.ConfirmedBy == nil || *confirmed.ConfirmedBy != "store-01" {
		t.Error("应记录确认人")
	}

	// 确认的同一事务生成 Store-In 台账行
	balance, _ := svc.Balance(context.Background(), "order-1")
	if balance.Components[""]["store_in"] != 30 {
		t.Errorf("期望入库累计=30，实际=%d", balance.Components[""]["store_in"])
	}

	// 重复确认被拒绝
	if _, err := svc.ConfirmHandover(context.Background(), handovers[0].HandoverID, "store-01"); !errors.Is(err, ErrHandoverAlreadyConfirmed) {
		t.Errorf("期望 ErrHandoverAlreadyConfirmed，实际: %v", err)
	}
}

func TestLedgerService_ConfirmHandover_NotFound(t *testing.T) {
	svc, _, _ := setupTestLedgerService()

	_, err := svc.ConfirmHandover(context.Background(), "nonexistent", "store-01")
	if !errors.Is(err, ErrHandoverNotFound) {
		t.Errorf("期望 ErrHandoverNotFound，实际: %v", err)
	}
}

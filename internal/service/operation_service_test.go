package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestOperationService() (OperationService, *testRepos) {
	repos := newTestRepos()
	svc := NewOperationService(testConfig(), repos.toRepository(), nil, zap.NewNop())
	return svc, repos
}

func TestOperationService_Create_Success(t *testing.T) {
	svc, _ := setupTestOperationService()

	req := &dto.CreateOperationRequest{
		Code: "OP-SEW-001", Name: "合肩缝", Category: "sewing",
		SMV: 0.85, MachineType: "平缝机", SkillLevel: "B",
	}
	op, err := svc.Create(context.Background(), req, "ie-01")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if op.Code != "OP-SEW-001" {
		t.Errorf("期望 code=OP-SEW-001，实际=%s", op.Code)
	}
	if op.SMV != 0.85 {
		t.Errorf("期望 smv=0.85，实际=%v", op.SMV)
	}
}

func TestOperationService_Create_Duplicate(t *testing.T) {
	svc, _ := setupTestOperationService()

	req := &dto.CreateOperationRequest{Code: "OP-001", Name: "上领", SMV: 1.2}
	if _, err := svc.Create(context.Background(), req, "ie-01"); err != nil {
		t.Fatalf("首次 Create 应成功: %v", err)
	}
	_, err := svc.Create(context.Background(), req, "ie-01")
	if !errors.Is(err, ErrOperationExists) {
		t.Errorf("期望 ErrOperationExists，实际: %v", err)
	}
}

func TestOperationService_Get_NotFound(t *testing.T) {
	svc, _ := setupTestOperationService()

	_, err := svc.Get(context.Background(), "nonexistent")
	if !errors.Is(err, ErrOperationNotFound) {
		t.Errorf("期望 ErrOperationNotFound，实际: %v", err)
	}
}

func TestOperationService_Update_Patch(t *testing.T) {
	svc, _ := setupTestOperationService()

	req := &dto.CreateOperationRequest{Code: "OP-002", Name: "绱袖", Category: "sewing", SMV: 1.5}
	if _, err := svc.Create(context.Background(), req, "ie-01"); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	newSMV := 1.8
	updated, err := svc.Update(context.Background(), "OP-002", &dto.UpdateOperationRequest{SMV: &newSMV}, "ie-02")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if updated.SMV != 1.8 {
		t.Errorf("期望 smv=1.8，实际=%v", updated.SMV)
	}
	// 未指定的字段保持不变
	if updated.Name != "绱袖" {
		t.Errorf("期望 name 不变，实际=%s", updated.Name)
	}
}

func TestOperationService_Delete_ThenGetFails(t *testing.T) {
	svc, _ := setupTestOperationService()

	req := &dto.CreateOperationRequest{Code: "OP-003", Name: "锁边", SMV: 0.5}
	if _, err := svc.Create(context.Background(), req, "ie-01"); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if err := svc.Delete(context.Background(), "OP-003"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := svc.Get(context.Background(), "OP-003"); !errors.Is(err, ErrOperationNotFound) {
		t.Errorf("删除后 Get 应返回 ErrOperationNotFound，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), "OP-003"); !errors.Is(err, ErrOperationNotFound) {
		t.Errorf("重复删除应返回 ErrOperationNotFound，实际: %v", err)
	}
}

func TestOperationService_Delete_ReferencedByBulletin(t *testing.T) {
	svc, repos := setupTestOperationService()

	req := &dto.CreateOperationRequest{Code: "OP-004", Name: "钉扣", SMV: 0.4}
	if _, err := svc.Create(context.Background(), req, "ie-01"); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	repos.bulletin.items = append(repos.bulletin.items, model.OperationBulletinItem{
		ItemID: "item-1", OrderID: "order-1", Component: "jacket",
		Sequence: 1, OperationCode: "OP-004", SMV: 0.4, Manpower: 1,
	})

	if err := svc.Delete(context.Background(), "OP-004"); !errors.Is(err, ErrOperationInUse) {
		t.Errorf("期望 ErrOperationInUse，实际: %v", err)
	}

	// 引用清除后可删除
	repos.bulletin.items = nil
	if err := svc.Delete(context.Background(), "OP-004"); err != nil {
		t.Errorf("无引用时 Delete 应成功: %v", err)
	}
}

func TestOperationService_Search(t *testing.T) {
	svc, _ := setupTestOperationService()

	seed := []dto.CreateOperationRequest{
		{Code: "OP-CUT-001", Name: "铺布裁剪", Category: "cutting", SMV: 2.0},
		{Code: "OP-SEW-001", Name: "合肩缝", Category: "sewing", SMV: 0.85},
		{Code: "OP-SEW-002", Name: "绱袖", Category: "sewing", SMV: 1.5},
	}
	for i := range seed {
		if _, err := svc.Create(context.Background(), &seed[i], "ie-01"); err != nil {
			t.Fatalf("Create 应成功: %v", err)
		}
	}

	result, err := svc.Search(context.Background(), "SEW")
	if err != nil {
		t.Fatalf("Search 应成功: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("期望命中 2 条，实际=%d", len(result))
	}
	// 结果按编码升序
	if result[0].Code != "OP-SEW-001" || result[1].Code != "OP-SEW-002" {
		t.Errorf("期望按编码升序，实际=%s, %s", result[0].Code, result[1].Code)
	}

	byCategory, err := svc.ListByCategory(context.Background(), "cutting")
	if err != nil {
		t.Fatalf("ListByCategory 应成功: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].Code != "OP-CUT-001" {
		t.Errorf("期望仅命中 OP-CUT-001，实际=%v", byCategory)
	}
}

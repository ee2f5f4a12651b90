package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"stitchline/backend/config"
	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/model"
	"stitchline/backend/internal/repository"
	pkgerrors "stitchline/backend/pkg/errors"
)

// ── 产线平衡模块业务错误 ──

var (
	ErrNoOperationBulletin = errors.New("订单没有可用的工序单")
	ErrNoAvailableCapacity = errors.New("目标工段没有可用工位")
	ErrRunNotFound         = errors.New("平衡运行记录不存在")
	ErrWorkstationNotFound = errors.New("工位不存在")
	ErrWorkstationExists   = errors.New("工位编码已存在")
	ErrInvalidRunStatus    = errors.New("平衡运行状态不允许此迁移")
)

// BalanceService 产线平衡业务接口
type BalanceService interface {
	// 执行一次平衡计算并落库
	Balance(ctx context.Context, req *dto.BalanceRequest, actor string) (*dto.BalanceRunResponse, error)
	// 查询平衡运行
	GetRun(ctx context.Context, runID string) (*dto.BalanceRunResponse, error)
	// 查询订单的平衡历史
	ListRuns(ctx context.Context, orderID string) ([]dto.BalanceRunResponse, error)
	// 运行状态推进：planned → active → completed
	SetRunStatus(ctx context.Context, runID, status, actor string) error

	// ── 工位管理（IE 建档） ──
	CreateWorkstation(ctx context.Context, req *dto.CreateWorkstationRequest, actor string) (*dto.WorkstationResponse, error)
	ListWorkstations(ctx context.Context) ([]dto.WorkstationResponse, error)
	UpdateWorkstation(ctx context.Context, code string, req *dto.UpdateWorkstationRequest, actor string) (*dto.WorkstationResponse, error)
}

type balanceService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBalanceService 创建 BalanceService 实例
func NewBalanceService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) BalanceService {
	return &balanceService{cfg: cfg, repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Balance — 顺序首次适应装箱（贪心启发式，非全局最优）
// ════════════════════════════════════════════════════════════

func (s *balanceService) Balance(ctx context.Context, req *dto.BalanceRequest, actor string) (*dto.BalanceRunResponse, error) {
	// 1. 工序单必须存在
	items, err := s.repo.Bulletin.ListByOrderComponent(ctx, req.OrderID, req.Component)
	if err != nil {
		s.logger.Error("查询工序单失败", zap.Error(err))
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoOperationBulletin
	}

	// 2. 由订单当前阶段推断目标工段
	order, err := s.repo.Order.GetByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("查询订单失败", zap.Error(err))
		return nil, err
	}
	section := model.SectionFor(order.Stage)

	// 3. 可用工位池
	stations, err := s.repo.Workstation.ListAvailableBySection(ctx, section)
	if err != nil {
		s.logger.Error("查询可用工位失败", zap.Error(err))
		return nil, err
	}
	if len(stations) == 0 {
		return nil, ErrNoAvailableCapacity
	}

	workingMinutes := req.WorkingMinutesPerDay
	if workingMinutes <= 0 {
		workingMinutes = s.cfg.Engine.DefaultWorkingMinutes
	}
	requiredCT := workingMinutes / req.TargetHourlyOutput

	// 4. 贪心放置：按序号走工序单，向当前工位累加 SMV；
	//    放不下且还有下一工位时切换（工序永不拆分到两个工位）
	loads := make([]float64, len(stations))
	cur := 0
	largestSeen := 0.0
	bottleneck := -1 // 仅在切换工位时记录候选瓶颈
	totalSMV := 0.0
	offset := 0.0

	assignments := make([]model.OperationAssignment, 0, len(items))
	for i := range items {
		it := &items[i]
		if loads[cur]+it.SMV > requiredCT && cur+1 < len(stations) {
			// 切换前结算当前工位；等负载保留先出现的工位
			if loads[cur] > largestSeen {
				largestSeen = loads[cur]
				bottleneck = cur
			}
			cur++
		}
		loads[cur] += it.SMV
		totalSMV += it.SMV

		assignments = append(assignments, model.OperationAssignment{
			ItemID:          it.ItemID,
			WorkstationCode: stations[cur].Code,
			Position:        i + 1,
			StartOffset:     offset,
			EndOffset:       offset + it.SMV,
			Status:          model.AssignmentPending,
		})
		offset += it.SMV
	}

	// 5. 达成节拍 = max(切换时见过的最大负载, 最后工位的最终负载)
	achievedCT := loads[cur]
	if largestSeen > achievedCT {
		achievedCT = largestSeen
	}

	efficiency := 0.0
	if achievedCT > 0 {
		ratio := requiredCT / achievedCT * 100
		if !math.IsNaN(ratio) && !math.IsInf(ratio, 0) {
			efficiency = math.Min(math.Max(ratio, 0), 100)
		}
	}

	run := &model.LineBalanceRun{
		OrderID:            req.OrderID,
		Section:            section,
		TargetHourlyOutput: req.TargetHourlyOutput,
		WorkingMinutes:     workingMinutes,
		TotalSMV:           totalSMV,
		RequiredCycleTime:  requiredCT,
		AchievedCycleTime:  achievedCT,
		Efficiency:         efficiency,
		Status:             model.RunPlanned,
	}
	run.CreatedBy = &actor
	run.UpdatedBy = &actor
	if bottleneck >= 0 {
		code := stations[bottleneck].Code
		run.BottleneckCode = &code
	}

	// 6. 负载增量回写到实际接到工序的工位
	touched := make([]*model.Workstation, 0, cur+1)
	for i := 0; i <= cur && i < len(stations); i++ {
		if loads[i] <= 0 {
			continue
		}
		ws := &stations[i]
		ws.AssignedSMV += loads[i]
		ws.Status = model.WorkstationOccupied
		ws.UpdatedBy = &actor
		touched = append(touched, ws)
	}

	if err := s.repo.LineBalance.CreateRun(ctx, run, assignments, touched); err != nil {
		if errors.Is(err, pkgerrors.ErrWorkstationBusy) {
			return nil, pkgerrors.ErrWorkstationBusy
		}
		s.logger.Error("平衡运行落库失败", zap.Error(err))
		return nil, err
	}

	run.Assignments = assignments
	resp := toBalanceRunResponse(run)
	return &resp, nil
}

func (s *balanceService) GetRun(ctx context.Context, runID string) (*dto.BalanceRunResponse, error) {
	run, err := s.repo.LineBalance.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error("查询平衡运行失败", zap.Error(err))
		return nil, err
	}
	resp := toBalanceRunResponse(run)
	return &resp, nil
}

func (s *balanceService) ListRuns(ctx context.Context, orderID string) ([]dto.BalanceRunResponse, error) {
	runs, err := s.repo.LineBalance.ListRunsByOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("查询平衡历史失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.BalanceRunResponse, 0, len(runs))
	for i := range runs {
		result = append(result, toBalanceRunResponse(&runs[i]))
	}
	return result, nil
}

// runStatusNext 平衡运行的状态链
var runStatusNext = map[string]string{
	model.RunPlanned: model.RunActive,
	model.RunActive:  model.RunCompleted,
}

func (s *balanceService) SetRunStatus(ctx context.Context, runID, status, actor string) error {
	run, err := s.repo.LineBalance.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRunNotFound
		}
		return err
	}
	if runStatusNext[run.Status] != status {
		return ErrInvalidRunStatus
	}
	if err := s.repo.LineBalance.UpdateRunStatus(ctx, runID, status, actor); err != nil {
		s.logger.Error("更新运行状态失败", zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// 工位管理
// ════════════════════════════════════════════════════════════

func (s *balanceService) CreateWorkstation(ctx context.Context, req *dto.CreateWorkstationRequest, actor string) (*dto.WorkstationResponse, error) {
	if _, err := s.repo.Workstation.GetByCode(ctx, req.Code); err == nil {
		return nil, ErrWorkstationExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询工位失败", zap.Error(err))
		return nil, err
	}

	ws := &model.Workstation{
		Code:           req.Code,
		Section:        model.Section(req.Section),
		HourlyCapacity: req.HourlyCapacity,
		Status:         model.WorkstationAvailable,
	}
	ws.CreatedBy = &actor
	ws.UpdatedBy = &actor

	if err := s.repo.Workstation.Create(ctx, ws); err != nil {
		s.logger.Error("创建工位失败", zap.Error(err))
		return nil, err
	}

	resp := toWorkstationResponse(ws)
	return &resp, nil
}

func (s *balanceService) ListWorkstations(ctx context.Context) ([]dto.WorkstationResponse, error) {
	list, err := s.repo.Workstation.List(ctx)
	if err != nil {
		s.logger.Error("查询工位失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.WorkstationResponse, 0, len(list))
	for i := range list {
		result = append(result, toWorkstationResponse(&list[i]))
	}
	return result, nil
}

func (s *balanceService) UpdateWorkstation(ctx context.Context, code string, req *dto.UpdateWorkstationRequest, actor string) (*dto.WorkstationResponse, error) {
	ws, err := s.repo.Workstation.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkstationNotFound
		}
		s.logger.Error("查询工位失败", zap.Error(err))
		return nil, err
	}

	if req.Status != nil {
		ws.Status = *req.Status
	}
	if req.HourlyCapacity != nil {
		ws.HourlyCapacity = *req.HourlyCapacity
	}
	ws.UpdatedBy = &actor

	if err := s.repo.Workstation.Update(ctx, ws); err != nil {
		if errors.Is(err, pkgerrors.ErrWorkstationBusy) {
			return nil, pkgerrors.ErrWorkstationBusy
		}
		s.logger.Error("更新工位失败", zap.Error(err))
		return nil, err
	}

	resp := toWorkstationResponse(ws)
	return &resp, nil
}

// ── 内部转换 ──

func toWorkstationResponse(ws *model.Workstation) dto.WorkstationResponse {
	return dto.WorkstationResponse{
		Code:           ws.Code,
		Section:        string(ws.Section),
		HourlyCapacity: ws.HourlyCapacity,
		Status:         ws.Status,
		AssignedSMV:    ws.AssignedSMV,
		UpdatedAt:      ws.UpdatedAt.Format(time.RFC3339),
	}
}

func toBalanceRunResponse(run *model.LineBalanceRun) dto.BalanceRunResponse {
	resp := dto.BalanceRunResponse{
		RunID:              run.RunID,
		OrderID:            run.OrderID,
		Section:            string(run.Section),
		TargetHourlyOutput: run.TargetHourlyOutput,
		WorkingMinutes:     run.WorkingMinutes,
		TotalSMV:           run.TotalSMV,
		RequiredCycleTime:  run.RequiredCycleTime,
		AchievedCycleTime:  run.AchievedCycleTime,
		Efficiency:         run.Efficiency,
		BottleneckCode:     run.BottleneckCode,
		Status:             run.Status,
		CreatedAt:          run.CreatedAt.Format(time.RFC3339),
	}
	for _, a := range run.Assignments {
		resp.Assignments = append(resp.Assignments, dto.AssignmentResponse{
			AssignmentID:    a.AssignmentID,
			ItemID:          a.ItemID,
			WorkstationCode: a.WorkstationCode,
			Position:        a.Position,
			StartOffset:     a.StartOffset,
			EndOffset:       a.EndOffset,
			Status:          a.Status,
		})
	}
	return resp
}

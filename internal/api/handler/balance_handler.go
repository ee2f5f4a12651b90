package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/service"
	pkgerrors "stitchline/backend/pkg/errors"
	"stitchline/backend/pkg/response"
)

// BalanceHandler 产线平衡与工位管理 HTTP 处理器
type BalanceHandler struct {
	balanceSvc service.BalanceService
}

// NewBalanceHandler 创建 BalanceHandler
func NewBalanceHandler(balanceSvc service.BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceSvc: balanceSvc}
}

// Balance 执行产线平衡计算
// POST /api/v1/balance-runs
func (h *BalanceHandler) Balance(c *gin.Context) {
	var req dto.BalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	run, err := h.balanceSvc.Balance(c.Request.Context(), &req, GetActorID(c))
	if err != nil {
		h.handleBalanceError(c, err)
		return
	}

	response.Created(c, run)
}

// GetRun 查询平衡运行
// GET /api/v1/balance-runs/:id
func (h *BalanceHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "运行ID不能为空")
		return
	}

	run, err := h.balanceSvc.GetRun(c.Request.Context(), id)
	if err != nil {
		h.handleBalanceError(c, err)
		return
	}

	response.OK(c, run)
}

// ListRuns 查询订单的平衡历史
// GET /api/v1/orders/:id/balance-runs
func (h *BalanceHandler) ListRuns(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		response.BadRequest(c, 13001, "订单ID不能为空")
		return
	}

	runs, err := h.balanceSvc.ListRuns(c.Request.Context(), orderID)
	if err != nil {
		h.handleBalanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": runs})
}

// UpdateRunStatus 推进平衡运行状态
// PUT /api/v1/balance-runs/:id/status
func (h *BalanceHandler) UpdateRunStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "运行ID不能为空")
		return
	}

	var req dto.UpdateRunStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	if err := h.balanceSvc.SetRunStatus(c.Request.Context(), id, req.Status, GetActorID(c)); err != nil {
		h.handleBalanceError(c, err)
		return
	}

	response.OK(c, nil)
}

// CreateWorkstation 新建工位
// POST /api/v1/workstations
func (h *BalanceHandler) CreateWorkstation(c *gin.Context) {
	var req dto.CreateWorkstationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	ws, err := h.balanceSvc.CreateWorkstation(c.Request.Context(), &req, GetActorID(c))
	if err != nil {
		h.handleBalanceError(c, err)
		return
	}

	response.Created(c, ws)
}

// ListWorkstations 列出全部工位
// GET /api/v1/workstations
func (h *BalanceHandler) ListWorkstations(c *gin.Context) {
	list, err := h.balanceSvc.ListWorkstations(c.Request.Context())
	if err != nil {
		h.handleBalanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateWorkstation 修改工位
// PUT /api/v1/workstations/:code
func (h *BalanceHandler) UpdateWorkstation(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 13001, "工位编码不能为空")
		return
	}

	var req dto.UpdateWorkstationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	ws, err := h.balanceSvc.UpdateWorkstation(c.Request.Context(), code, &req, GetActorID(c))
	if err != nil {
		h.handleBalanceError(c, err)
		return
	}

	response.OK(c, ws)
}

// handleBalanceError 统一处理产线平衡模块业务错误
func (h *BalanceHandler) handleBalanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		response.NotFound(c, 13101, "营销订单不存在")
	case errors.Is(err, service.ErrNoOperationBulletin):
		response.Unprocessable(c, 13102, "订单没有可用的工序单")
	case errors.Is(err, service.ErrNoAvailableCapacity):
		response.Unprocessable(c, 13103, "目标工段没有可用工位")
	case errors.Is(err, pkgerrors.ErrWorkstationBusy):
		response.Conflict(c, 13104, "工位已被其他平衡计算占用，请重试")
	case errors.Is(err, service.ErrRunNotFound):
		response.NotFound(c, 13105, "平衡运行记录不存在")
	case errors.Is(err, service.ErrInvalidRunStatus):
		response.Unprocessable(c, 13106, "平衡运行状态不允许此迁移")
	case errors.Is(err, service.ErrWorkstationNotFound):
		response.NotFound(c, 13107, "工位不存在")
	case errors.Is(err, service.ErrWorkstationExists):
		response.Conflict(c, 13108, "工位编码已存在")
	default:
		response.InternalError(c)
	}
}

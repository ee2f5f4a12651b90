package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/service"
	pkgerrors "stitchline/backend/pkg/errors"
	"stitchline/backend/pkg/response"
)

// OrderHandler 订单工作流 HTTP 处理器
type OrderHandler struct {
	workflowSvc service.WorkflowService
}

// NewOrderHandler 创建 OrderHandler
func NewOrderHandler(workflowSvc service.WorkflowService) *OrderHandler {
	return &OrderHandler{workflowSvc: workflowSvc}
}

// Create 新建营销订单
// POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	order, err := h.workflowSvc.CreateOrder(c.Request.Context(), &req, GetActorID(c))
	if err != nil {
		h.handleWorkflowError(c, err)
		return
	}

	response.Created(c, order)
}

// Get 按 ID 查询订单
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "订单ID不能为空")
		return
	}

	order, err := h.workflowSvc.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.handleWorkflowError(c, err)
		return
	}

	response.OK(c, order)
}

// GetByNumber 按订单号查询订单
// GET /api/v1/orders/number/:number
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		response.BadRequest(c, 15001, "订单号不能为空")
		return
	}

	order, err := h.workflowSvc.GetOrderByNumber(c.Request.Context(), number)
	if err != nil {
		h.handleWorkflowError(c, err)
		return
	}

	response.OK(c, order)
}

// List 分页列出订单
// GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	var req dto.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	orders, total, err := h.workflowSvc.ListOrders(c.Request.Context(), &req)
	if err != nil {
		h.handleWorkflowError(c, err)
		return
	}

	response.OKPage(c, orders, total, req.GetPage(), req.GetPageSize())
}

// ConfirmMaterials 确认面辅料到位
// POST /api/v1/orders/:id/confirm-materials
func (h *OrderHandler) ConfirmMaterials(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "订单ID不能为空")
		return
	}

	order, err := h.workflowSvc.ConfirmMaterials(c.Request.Context(), id, GetActorID(c))
	if err != nil {
		h.handleWorkflowError(c, err)
		return
	}

	response.OK(c, order)
}

// Advance 订单整体推进到下一阶段
// POST /api/v1/orders/:id/advance
func (h *OrderHandler) Advance(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "订单ID不能为空")
		return
	}

	result, err := h.workflowSvc.Advance(c.Request.Context(), id, GetActorID(c))
	if err != nil {
		h.handleWorkflowError(c, err)
		return
	}

	response.OK(c, result)
}

// AdvanceComponent 单个部件推进到下一阶段
// POST /api/v1/orders/:id/components/:name/advance
func (h *OrderHandler) AdvanceComponent(c *gin.Context) {
	id := c.Param("id")
	name := c.Param("name")
	if id == "" || name == "" {
		response.BadRequest(c, 15001, "订单ID与部件名不能为空")
		return
	}

	result, err := h.workflowSvc.AdvanceComponent(c.Request.Context(), id, name, GetActorID(c))
	if err != nil {
		h.handleWorkflowError(c, err)
		return
	}

	response.OK(c, result)
}

// Cancel 取消订单
// POST /api/v1/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "订单ID不能为空")
		return
	}

	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	order, err := h.workflowSvc.Cancel(c.Request.Context(), id, &req, GetActorID(c))
	if err != nil {
		h.handleWorkflowError(c, err)
		return
	}

	response.OK(c, order)
}

// handleWorkflowError 统一处理订单流程模块业务错误
func (h *OrderHandler) handleWorkflowError(c *gin.Context, err error) {
	if te, ok := pkgerrors.AsInvalidTransition(err); ok {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 15002, "非法状态迁移", gin.H{
			"order_id":           te.OrderID,
			"component":          te.Component,
			"from":               te.From,
			"attempted":          te.Attempted,
			"blocking_component": te.BlockingComponent,
		})
		return
	}
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		response.NotFound(c, 15101, "营销订单不存在")
	case errors.Is(err, service.ErrComponentNotFound):
		response.NotFound(c, 15102, "订单部件不存在")
	case errors.Is(err, service.ErrMaterialsNotConfirmed):
		response.Unprocessable(c, 15103, "面辅料尚未确认，无法进入生产计划")
	default:
		response.InternalError(c)
	}
}

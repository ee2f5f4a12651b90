package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/service"
	"stitchline/backend/pkg/response"
)

// OperationHandler 标准工序库 HTTP 处理器
type OperationHandler struct {
	operationSvc service.OperationService
}

// NewOperationHandler 创建 OperationHandler
func NewOperationHandler(operationSvc service.OperationService) *OperationHandler {
	return &OperationHandler{operationSvc: operationSvc}
}

// Create 新建标准工序
// POST /api/v1/operations
func (h *OperationHandler) Create(c *gin.Context) {
	var req dto.CreateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	op, err := h.operationSvc.Create(c.Request.Context(), &req, GetActorID(c))
	if err != nil {
		h.handleOperationError(c, err)
		return
	}

	response.Created(c, op)
}

// Get 查询单个工序
// GET /api/v1/operations/:code
func (h *OperationHandler) Get(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 11001, "工序编码不能为空")
		return
	}

	op, err := h.operationSvc.Get(c.Request.Context(), code)
	if err != nil {
		h.handleOperationError(c, err)
		return
	}

	response.OK(c, op)
}

// Update 修改工序
// PUT /api/v1/operations/:code
func (h *OperationHandler) Update(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 11001, "工序编码不能为空")
		return
	}

	var req dto.UpdateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	op, err := h.operationSvc.Update(c.Request.Context(), code, &req, GetActorID(c))
	if err != nil {
		h.handleOperationError(c, err)
		return
	}

	response.OK(c, op)
}

// Delete 删除工序
// DELETE /api/v1/operations/:code
func (h *OperationHandler) Delete(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 11001, "工序编码不能为空")
		return
	}

	if err := h.operationSvc.Delete(c.Request.Context(), code); err != nil {
		h.handleOperationError(c, err)
		return
	}

	response.OK(c, nil)
}

// List 检索工序（search 模糊匹配编码/名称，category 按类别过滤）
// GET /api/v1/operations
func (h *OperationHandler) List(c *gin.Context) {
	if term := c.Query("search"); term != "" {
		ops, err := h.operationSvc.Search(c.Request.Context(), term)
		if err != nil {
			h.handleOperationError(c, err)
			return
		}
		response.OK(c, gin.H{"list": ops})
		return
	}

	ops, err := h.operationSvc.ListByCategory(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.handleOperationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": ops})
}

// handleOperationError 统一处理工序库模块业务错误
func (h *OperationHandler) handleOperationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOperationNotFound):
		response.NotFound(c, 11101, "标准工序不存在")
	case errors.Is(err, service.ErrOperationExists):
		response.Conflict(c, 11102, "工序编码已存在")
	case errors.Is(err, service.ErrOperationInUse):
		response.Conflict(c, 11103, "工序已被工序单引用，不能删除")
	default:
		response.InternalError(c)
	}
}

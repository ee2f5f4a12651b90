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

// BulletinHandler 工序单 HTTP 处理器
type BulletinHandler struct {
	bulletinSvc service.BulletinService
}

// NewBulletinHandler 创建 BulletinHandler
func NewBulletinHandler(bulletinSvc service.BulletinService) *BulletinHandler {
	return &BulletinHandler{bulletinSvc: bulletinSvc}
}

// Compile 编译 (订单, 部件) 的工序单
// GET /api/v1/orders/:id/bulletin
func (h *BulletinHandler) Compile(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		response.BadRequest(c, 12001, "订单ID不能为空")
		return
	}

	bulletin, err := h.bulletinSvc.Compile(c.Request.Context(), orderID, c.Query("component"))
	if err != nil {
		h.handleBulletinError(c, err)
		return
	}

	response.OK(c, bulletin)
}

// Save 保存工序单（整单替换）
// PUT /api/v1/orders/:id/bulletin
func (h *BulletinHandler) Save(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		response.BadRequest(c, 12001, "订单ID不能为空")
		return
	}

	var req dto.SaveBulletinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	bulletin, err := h.bulletinSvc.Save(c.Request.Context(), orderID, &req, GetActorID(c))
	if err != nil {
		h.handleBulletinError(c, err)
		return
	}

	response.OK(c, bulletin)
}

// handleBulletinError 统一处理工序单模块业务错误
func (h *BulletinHandler) handleBulletinError(c *gin.Context, err error) {
	if ve, ok := pkgerrors.AsValidation(err); ok {
		response.ErrorWithDetails(c, http.StatusBadRequest, 12002, "参数校验失败",
			gin.H{"field": ve.Field, "reason": ve.Reason})
		return
	}
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		response.NotFound(c, 12101, "营销订单不存在")
	case errors.Is(err, service.ErrOperationNotFound):
		response.NotFound(c, 12102, "标准工序不存在")
	default:
		response.InternalError(c)
	}
}

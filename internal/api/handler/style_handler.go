package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stitchline/backend/internal/dto"
	"stitchline/backend/internal/service"
	pkgerrors "stitchline/backend/pkg/errors"
	"stitchline/backend/pkg/response"
)

// StyleHandler 款式部件比例 HTTP 处理器
type StyleHandler struct {
	styleSvc service.StyleService
}

// NewStyleHandler 创建 StyleHandler
func NewStyleHandler(styleSvc service.StyleService) *StyleHandler {
	return &StyleHandler{styleSvc: styleSvc}
}

// GetRatios 查询款式比例
// GET /api/v1/styles/:code/ratios
func (h *StyleHandler) GetRatios(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 16001, "款式编码不能为空")
		return
	}

	ratios, err := h.styleSvc.GetRatios(c.Request.Context(), code)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": ratios})
}

// SetRatios 设置款式比例（整体替换）
// PUT /api/v1/styles/:code/ratios
func (h *StyleHandler) SetRatios(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 16001, "款式编码不能为空")
		return
	}

	var req dto.SetRatiosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 16001, "参数校验失败")
		return
	}

	ratios, err := h.styleSvc.SetRatios(c.Request.Context(), code, &req, GetActorID(c))
	if err != nil {
		if ve, ok := pkgerrors.AsValidation(err); ok {
			response.ErrorWithDetails(c, http.StatusBadRequest, 16002, "参数校验失败",
				gin.H{"field": ve.Field, "reason": ve.Reason})
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": ratios})
}

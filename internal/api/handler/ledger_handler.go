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

// LedgerHandler 生产台账 HTTP 处理器
type LedgerHandler struct {
	ledgerSvc service.LedgerService
}

// NewLedgerHandler 创建 LedgerHandler
func NewLedgerHandler(ledgerSvc service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// Record 记录台账事件
// POST /api/v1/ledger/entries
func (h *LedgerHandler) Record(c *gin.Context) {
	var req dto.RecordEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	entry, err := h.ledgerSvc.Record(c.Request.Context(), &req, GetActorID(c))
	if err != nil {
		h.handleLedgerError(c, err)
		return
	}

	response.Created(c, entry)
}

// Balance 查询订单的台账余额
// GET /api/v1/orders/:id/ledger/balance
func (h *LedgerHandler) Balance(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		response.BadRequest(c, 14001, "订单ID不能为空")
		return
	}

	balance, err := h.ledgerSvc.Balance(c.Request.Context(), orderID)
	if err != nil {
		h.handleLedgerError(c, err)
		return
	}

	response.OK(c, balance)
}

// ListEntries 查询订单的台账事件
// GET /api/v1/orders/:id/ledger
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		response.BadRequest(c, 14001, "订单ID不能为空")
		return
	}

	entries, err := h.ledgerSvc.ListEntries(c.Request.Context(), orderID)
	if err != nil {
		h.handleLedgerError(c, err)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// ListHandovers 查询订单的入库交接单
// GET /api/v1/orders/:id/handovers
func (h *LedgerHandler) ListHandovers(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		response.BadRequest(c, 14001, "订单ID不能为空")
		return
	}

	list, err := h.ledgerSvc.ListHandovers(c.Request.Context(), orderID)
	if err != nil {
		h.handleLedgerError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ConfirmHandover 库房确认交接
// POST /api/v1/handovers/:id/confirm
func (h *LedgerHandler) ConfirmHandover(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "交接单ID不能为空")
		return
	}

	handover, err := h.ledgerSvc.ConfirmHandover(c.Request.Context(), id, GetActorID(c))
	if err != nil {
		h.handleLedgerError(c, err)
		return
	}

	response.OK(c, handover)
}

// handleLedgerError 统一处理台账模块业务错误
func (h *LedgerHandler) handleLedgerError(c *gin.Context, err error) {
	if ve, ok := pkgerrors.AsValidation(err); ok {
		response.ErrorWithDetails(c, http.StatusBadRequest, 14002, "参数校验失败",
			gin.H{"field": ve.Field, "reason": ve.Reason})
		return
	}
	if ce, ok := pkgerrors.AsConsolidationExceeded(err); ok {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 14003, "组套数量超限", gin.H{
			"order_id":            ce.OrderID,
			"limiting_component":  ce.LimitingComponent,
			"requested_quantity":  ce.RequestedQuantity,
			"allowable_remainder": ce.AllowableRemainder,
		})
		return
	}
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		response.NotFound(c, 14101, "营销订单不存在")
	case errors.Is(err, service.ErrHandoverNotFound):
		response.NotFound(c, 14102, "入库交接单不存在")
	case errors.Is(err, service.ErrHandoverAlreadyConfirmed):
		response.Conflict(c, 14103, "入库交接单已确认")
	default:
		response.InternalError(c)
	}
}

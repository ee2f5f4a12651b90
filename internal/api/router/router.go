package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stitchline/backend/config"
	"stitchline/backend/internal/api/handler"
	"stitchline/backend/internal/api/middleware"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.Actor())

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 标准工序库模块
		operations := v1.Group("/operations")
		{
			operations.POST("", h.Operation.Create)
			operations.GET("", h.Operation.List)
			operations.GET("/:code", h.Operation.Get)
			operations.PUT("/:code", h.Operation.Update)
			operations.DELETE("/:code", h.Operation.Delete)
		}

		// 订单模块（工作流、工序单、台账视图挂在订单资源下）
		orders := v1.Group("/orders")
		{
			orders.POST("", h.Order.Create)
			orders.GET("", h.Order.List)
			orders.GET("/number/:number", h.Order.GetByNumber)
			orders.GET("/:id", h.Order.Get)
			orders.POST("/:id/confirm-materials", h.Order.ConfirmMaterials)
			orders.POST("/:id/advance", h.Order.Advance)
			orders.POST("/:id/components/:name/advance", h.Order.AdvanceComponent)
			orders.POST("/:id/cancel", h.Order.Cancel)

			orders.GET("/:id/bulletin", h.Bulletin.Compile)
			orders.PUT("/:id/bulletin", h.Bulletin.Save)

			orders.GET("/:id/balance-runs", h.Balance.ListRuns)

			orders.GET("/:id/ledger", h.Ledger.ListEntries)
			orders.GET("/:id/ledger/balance", h.Ledger.Balance)
			orders.GET("/:id/handovers", h.Ledger.ListHandovers)
		}

		// 产线平衡模块
		balanceRuns := v1.Group("/balance-runs")
		{
			balanceRuns.POST("", h.Balance.Balance)
			balanceRuns.GET("/:id", h.Balance.GetRun)
			balanceRuns.PUT("/:id/status", h.Balance.UpdateRunStatus)
		}

		// 工位模块
		workstations := v1.Group("/workstations")
		{
			workstations.POST("", h.Balance.CreateWorkstation)
			workstations.GET("", h.Balance.ListWorkstations)
			workstations.PUT("/:code", h.Balance.UpdateWorkstation)
		}

		// 生产台账模块
		ledger := v1.Group("/ledger")
		{
			ledger.POST("/entries", h.Ledger.Record)
		}

		// 入库交接模块
		handovers := v1.Group("/handovers")
		{
			handovers.POST("/:id/confirm", h.Ledger.ConfirmHandover)
		}

		// 款式比例模块
		styles := v1.Group("/styles")
		{
			styles.GET("/:code/ratios", h.Style.GetRatios)
			styles.PUT("/:code/ratios", h.Style.SetRatios)
		}
	}

	return r
}

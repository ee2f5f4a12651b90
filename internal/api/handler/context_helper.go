package handler

import "github.com/gin-gonic/gin"

// GetActorID 从 Gin 上下文提取操作人标识。
// 身份认证由外部网关负责，网关通过 X-Actor-Id 透传操作人；
// 中间件未注入时落回 "system"（定时任务等内部调用场景）。
func GetActorID(c *gin.Context) string {
	v, exists := c.Get("actor_id")
	if !exists {
		return "system"
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "system"
	}
	return s
}

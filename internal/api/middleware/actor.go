package middleware

import "github.com/gin-gonic/gin"

const actorIDKey = "actor_id"

// actorIDMaxLen 与审计字段列宽一致
const actorIDMaxLen = 64

// Actor 操作人注入中间件
// 身份认证由外部网关完成，网关将操作人标识透传在 X-Actor-Id 头中；
// 本服务只负责将其注入上下文供审计字段与台账记录使用
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader("X-Actor-Id")
		if len(actor) > actorIDMaxLen {
			actor = actor[:actorIDMaxLen]
		}
		if actor != "" {
			c.Set(actorIDKey, actor)
		}

		c.Next()
	}
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"school-timetable/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// pathUUID 读取 UUID 路径参数；格式不合法时按资源不存在写入 404
func pathUUID(c *gin.Context, key string, code int, message string) (string, bool) {
	raw := c.Param(key)
	if _, err := uuid.Parse(raw); err != nil {
		response.NotFound(c, code, message)
		return "", false
	}
	return raw, true
}

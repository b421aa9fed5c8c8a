package user

import (
	"context"

	"github.com/gin-gonic/gin"
)

// UserService 定义用户注册登录服务接口
type UserService interface {
	// 将用户相关路由注册到 engine 与 apiGroup
	Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error
}

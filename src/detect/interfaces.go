package detect

import (
	"context"

	"github.com/gin-gonic/gin"
)

// DetectService 定义检测中继服务接口
type DetectService interface {
	// 将检测相关路由注册到 engine 与 apiGroup
	Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"detect-server-go/src/configs"
	"detect-server-go/src/configs/database"
	"detect-server-go/src/core/utils"
	"detect-server-go/src/detect"
	"detect-server-go/src/user"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func LoadConfigAndLogger() (*configs.Config, *utils.Logger, error) {
	// 加载配置,默认使用.config.yaml
	config, configPath, err := configs.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 初始化日志系统
	logger, err := utils.NewLogger(config)
	if err != nil {
		return nil, nil, err
	}
	logger.Info(fmt.Sprintf("日志系统初始化成功, 配置文件路径: %s", configPath))

	return config, logger, nil
}

func StartHttpServer(config *configs.Config, logger *utils.Logger, db *gorm.DB, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	// 初始化Gin引擎
	if config.Log.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.SetTrustedProxies([]string{"0.0.0.0"})
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "ERROR: Invalid request method.")
	})

	// API路由全部挂载到/api前缀下
	apiGroup := router.Group("/api")

	// 启动检测中继服务
	detectService, err := detect.NewDefaultDetectService(config, logger, db)
	if err != nil {
		logger.Error("Detect 服务初始化失败 %v", err)
		return nil, err
	}
	if err := detectService.Start(groupCtx, router, apiGroup); err != nil {
		logger.Error("Detect 服务启动失败", err)
		return nil, err
	}

	// 启动用户服务
	userService, err := user.NewDefaultUserService(config, logger, db)
	if err != nil {
		logger.Error("User 服务初始化失败 %v", err)
		return nil, err
	}
	if err := userService.Start(groupCtx, router, apiGroup); err != nil {
		logger.Error("User 服务启动失败", err)
		return nil, err
	}

	// 输出目录位于文档根目录之下时对外提供静态访问，检测结果URL才能被浏览器打开
	mountOutputDir(router, config, logger)

	// HTTP Server（支持优雅关机）
	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.Info(fmt.Sprintf("Gin 服务已启动，访问地址: http://0.0.0.0:%d", config.Server.Port))

		// 在单独的 goroutine 中监听关闭信号
		go func() {
			<-groupCtx.Done()
			logger.Info("收到关闭信号，开始关闭HTTP服务...")

			// 创建关闭超时上下文
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP服务关闭失败", err)
			} else {
				logger.Info("HTTP服务已优雅关闭")
			}
		}()

		// ListenAndServe 返回 ErrServerClosed 时表示正常关闭
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP 服务启动失败", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

// mountOutputDir 把检测输出目录按其在文档根目录下的相对路径挂载为静态路由
func mountOutputDir(router *gin.Engine, config *configs.Config, logger *utils.Logger) {
	docRoot := utils.AbsPath(config.Web.StaticDir)
	outputDir := utils.AbsPath(config.Web.OutputDir)

	rel, err := filepath.Rel(docRoot, outputDir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		logger.Warn(fmt.Sprintf("输出目录 %s 不在文档根目录 %s 之下，检测结果将以文件路径形式返回", outputDir, docRoot))
		return
	}

	route := "/" + filepath.ToSlash(rel)
	router.Static(route, outputDir)
	logger.Info(fmt.Sprintf("输出目录已挂载: %s -> %s", route, outputDir))
}

func GracefulShutdown(cancel context.CancelFunc, logger *utils.Logger, g *errgroup.Group) {
	// 监听系统信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// 等待信号
	sig := <-sigChan
	logger.Info(fmt.Sprintf("接收到系统信号: %v，开始优雅关闭服务", sig))

	// 取消上下文，通知所有服务开始关闭
	cancel()

	// 等待所有服务关闭，设置超时保护
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("服务关闭过程中出现错误", err)
			os.Exit(1)
		}
		logger.Info("所有服务已优雅关闭")
	case <-time.After(15 * time.Second):
		logger.Error("服务关闭超时，强制退出")
		os.Exit(1)
	}
}

func main() {
	// 先加载 .env 文件，PYTHON_EXEC 和 DATABASE_URL 都可能放在里面
	envErr := godotenv.Load()

	// 加载配置和初始化日志系统
	config, logger, err := LoadConfigAndLogger()
	if err != nil {
		fmt.Println("加载配置或初始化日志系统失败:", err)
		os.Exit(1)
	}
	if envErr != nil {
		logger.Warn("未找到 .env 文件，使用系统环境变量")
	}

	// 初始化数据库连接
	db, dbType, err := database.InitDB(logger)
	if err != nil {
		logger.Error(fmt.Sprintf("数据库连接失败: %v", err))
		os.Exit(1)
	}
	logger.Debug(fmt.Sprintf("使用数据库类型: %s", dbType))

	// 创建可取消的上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 用 errgroup 管理服务
	g, groupCtx := errgroup.WithContext(ctx)

	// 启动 Http 服务
	if _, err := StartHttpServer(config, logger, db, g, groupCtx); err != nil {
		logger.Error("启动服务失败:", err)
		cancel()
		os.Exit(1)
	}

	// 启动优雅关机处理
	GracefulShutdown(cancel, logger, g)

	logger.Info("程序已成功退出")
}

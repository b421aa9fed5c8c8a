package detect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"detect-server-go/src/configs"
	"detect-server-go/src/core/media"
	"detect-server-go/src/core/utils"
	"detect-server-go/src/models"
	"detect-server-go/src/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// 最大文件大小为50MB（支持视频上传）
	MAX_FILE_SIZE = 50 * 1024 * 1024
)

type DefaultDetectService struct {
	logger     *utils.Logger
	config     *configs.Config
	layout     *storage.Layout
	validator  *media.Validator
	invoker    Runner
	translator *Translator
	db         *gorm.DB
}

// NewDefaultDetectService 构造函数
func NewDefaultDetectService(config *configs.Config, logger *utils.Logger, db *gorm.DB) (*DefaultDetectService, error) {
	layout, err := storage.NewLayout(config.Web.UploadDir, config.Web.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("初始化存储目录失败: %w", err)
	}

	service := &DefaultDetectService{
		logger:     logger,
		config:     config,
		layout:     layout,
		validator:  media.NewValidator(&config.Upload, logger),
		invoker:    NewInvoker(&config.Detect, logger),
		translator: NewTranslator(config.Web.StaticDir),
		db:         db,
	}

	return service, nil
}

// Start 实现 DetectService 接口，注册所有检测相关路由
func (s *DefaultDetectService) Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error {
	// 检测主接口（GET用于状态检查，POST用于上传并检测）
	apiGroup.GET("/detect", s.handleGet)
	apiGroup.POST("/detect", s.handlePost)
	apiGroup.OPTIONS("/detect", s.handleOptions)

	s.logger.Info("Detect HTTP服务路由注册完成")
	return nil
}

// handleOptions 处理OPTIONS请求（CORS）
func (s *DefaultDetectService) handleOptions(c *gin.Context) {
	s.addCORSHeaders(c)
	c.Status(http.StatusOK)
}

// handleGet 处理GET请求（状态检查）
func (s *DefaultDetectService) handleGet(c *gin.Context) {
	s.addCORSHeaders(c)

	var count int64
	if s.db != nil {
		s.db.Model(&models.DetectionRecord{}).Count(&count)
	}
	c.String(http.StatusOK, fmt.Sprintf("检测接口运行正常，历史检测记录 %d 条", count))
}

// handlePost 处理POST请求（上传媒体并执行检测）
func (s *DefaultDetectService) handlePost(c *gin.Context) {
	s.addCORSHeaders(c)

	traceID := uuid.New().String()

	// 解析multipart表单并落盘
	req, err := s.parseMultipartRequest(c, traceID)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err.Error())
		s.logger.Warn(fmt.Sprintf("检测请求解析失败[%s]: %v", traceID, err))
		return
	}

	s.logger.Debug("收到检测请求 %v", map[string]interface{}{
		"trace_id":   req.TraceID,
		"media_path": req.MediaPath,
		"zones_path": req.ZonesPath,
	})

	// 同步执行检测脚本，阻塞到进程退出
	result, err := s.invoker.Invoke(c.Request.Context(), req.MediaPath, s.layout.OutputDir, req.ZonesPath)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err.Error())
		s.logger.Error(fmt.Sprintf("检测进程执行失败[%s]: %v", traceID, err))
		return
	}

	envelope := s.translator.Translate(result, req)
	s.saveRecord(req, envelope)

	s.logger.Info(fmt.Sprintf("检测完成[%s] success=%t: %s", traceID, envelope.Success, envelope.Message))
	c.JSON(http.StatusOK, envelope)
}

// parseMultipartRequest 解析multipart表单请求，媒体和zones都保存到上传目录
func (s *DefaultDetectService) parseMultipartRequest(c *gin.Context, traceID string) (*UploadRequest, error) {
	if err := c.Request.ParseMultipartForm(MAX_FILE_SIZE); err != nil {
		return nil, fmt.Errorf("解析multipart表单失败: %v", err)
	}

	// 获取媒体文件
	file, header, err := c.Request.FormFile("mediafile")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, fmt.Errorf("缺少媒体文件mediafile")
		}
		return nil, fmt.Errorf("媒体文件上传失败: %v", err)
	}
	defer file.Close()

	mediaData, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取媒体数据失败: %v", err)
	}

	// 验证媒体内容
	if v := s.validator.Validate(mediaData, header.Filename); !v.IsValid {
		return nil, v.Error
	}

	// 媒体和zones共用同一个时间戳，落盘为兄弟文件
	now := time.Now().Unix()
	mediaPath := s.layout.MediaPath(now, header.Filename)
	if err := os.WriteFile(mediaPath, mediaData, 0644); err != nil {
		return nil, fmt.Errorf("保存媒体文件失败(%s): %v", mediaPath, err)
	}
	s.logger.Info(fmt.Sprintf("媒体已保存到: %s", mediaPath))

	zonesPath, err := s.resolveZones(c, now)
	if err != nil {
		return nil, err
	}

	return &UploadRequest{
		OriginalName: header.Filename,
		MediaPath:    mediaPath,
		ZonesPath:    zonesPath,
		TraceID:      traceID,
		Scheme:       requestScheme(c),
		Host:         c.Request.Host,
	}, nil
}

// resolveZones 解析可选的zones参数：内联文本字段优先于zones文件，
// 两者都没有时返回空路径，不向下游传--zones
func (s *DefaultDetectService) resolveZones(c *gin.Context, unixTs int64) (string, error) {
	var zonesData []byte

	if inline := c.Request.FormValue("zones"); inline != "" {
		zonesData = []byte(inline)
	} else if file, _, err := c.Request.FormFile("zones"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", fmt.Errorf("读取zones文件失败: %v", err)
		}
		zonesData = data
	}

	if len(zonesData) == 0 {
		return "", nil
	}

	// zones内容原样落盘，不做JSON校验，交给检测脚本处理
	zonesPath := s.layout.ZonesPath(unixTs)
	if err := os.WriteFile(zonesPath, zonesData, 0644); err != nil {
		return "", fmt.Errorf("保存zones文件失败(%s): %v", zonesPath, err)
	}
	return zonesPath, nil
}

// saveRecord 保存检测历史记录，失败只记日志不影响响应
func (s *DefaultDetectService) saveRecord(req *UploadRequest, envelope ResponseEnvelope) {
	if s.db == nil {
		return
	}

	record := models.DetectionRecord{
		TraceID:   req.TraceID,
		MediaPath: req.MediaPath,
		ZonesPath: req.ZonesPath,
		Success:   envelope.Success,
		Message:   envelope.Message,
	}
	if envelope.Meta != nil {
		record.AnnotatedPath = envelope.Meta.AnnotatedPath()
		if data, err := json.Marshal(envelope.Meta); err == nil {
			record.Meta = datatypes.JSON(data)
		}
	}

	if err := s.db.Create(&record).Error; err != nil {
		s.logger.Warn(fmt.Sprintf("保存检测记录失败[%s]: %v", req.TraceID, err))
	}
}

// requestScheme 获取请求协议，优先信任反向代理头
func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

// addCORSHeaders 添加CORS头
func (s *DefaultDetectService) addCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Headers", "content-type, authorization")
	c.Header("Access-Control-Allow-Credentials", "true")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
}

// respondError 返回错误响应
func (s *DefaultDetectService) respondError(c *gin.Context, statusCode int, message string) {
	response := ResponseEnvelope{
		Success: false,
		Message: message,
	}
	c.JSON(statusCode, response)
}

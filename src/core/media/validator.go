package media

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"detect-server-go/src/configs"
	"detect-server-go/src/core/utils"

	_ "image/gif"  // 注册GIF解码器
	_ "image/jpeg" // 注册JPEG解码器
	_ "image/png"  // 注册PNG解码器

	_ "golang.org/x/image/bmp"  // 注册BMP解码器
	_ "golang.org/x/image/webp" // 注册WEBP解码器
)

// 检测脚本支持的视频容器扩展名
var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".wmv": true, ".flv": true, ".webm": true,
}

// 图片格式魔数签名
var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"jpg":  {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46}, // RIFF，需要进一步检查WEBP标识
	"bmp":  {0x42, 0x4D},
}

// ValidationResult 媒体验证结果
type ValidationResult struct {
	IsValid bool
	Kind    string // image / video
	Format  string
	Width   int
	Height  int
	Error   error
}

// Validator 上传媒体验证器
type Validator struct {
	config *configs.UploadConfig
	logger *utils.Logger
}

// NewValidator 创建媒体验证器
func NewValidator(config *configs.UploadConfig, logger *utils.Logger) *Validator {
	return &Validator{
		config: config,
		logger: logger,
	}
}

// Validate 验证上传的媒体数据，图片走解码验证，视频只看扩展名
func (v *Validator) Validate(data []byte, originalName string) ValidationResult {
	result := ValidationResult{IsValid: false}

	if len(data) == 0 {
		result.Error = fmt.Errorf("媒体数据为空")
		return result
	}

	// 基础大小检查
	if v.config.MaxFileSize > 0 && int64(len(data)) > v.config.MaxFileSize {
		result.Error = fmt.Errorf("文件大小超限: %d bytes，最大允许: %d bytes", len(data), v.config.MaxFileSize)
		v.logger.Warn("检测到超大上传文件", map[string]interface{}{
			"size":     len(data),
			"max_size": v.config.MaxFileSize,
			"name":     originalName,
		})
		return result
	}

	// 视频文件不做内容解码，只认扩展名
	ext := strings.ToLower(filepath.Ext(originalName))
	if videoExtensions[ext] {
		result.IsValid = true
		result.Kind = "video"
		result.Format = strings.TrimPrefix(ext, ".")
		return result
	}

	// 图片文件先看文件头，再用解码器确认
	format := DetectImageFormat(data)
	if format == "" {
		result.Error = fmt.Errorf("不支持的文件格式，请上传有效的图片或视频文件")
		return result
	}

	if len(v.config.AllowedFormats) > 0 && !v.isFormatAllowed(format) {
		result.Error = fmt.Errorf("不允许的格式: %s", format)
		return result
	}

	config, actualFormat, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		result.Error = fmt.Errorf("图片解码失败: %v", err)
		return result
	}
	if actualFormat != "" {
		format = actualFormat
	}

	result.IsValid = true
	result.Kind = "image"
	result.Format = format
	result.Width = config.Width
	result.Height = config.Height

	v.logger.Debug("媒体验证成功 %v", map[string]interface{}{
		"format": result.Format,
		"width":  result.Width,
		"height": result.Height,
		"size":   len(data),
	})

	return result
}

// isFormatAllowed 检查格式是否被允许
func (v *Validator) isFormatAllowed(format string) bool {
	formatLower := strings.ToLower(format)
	for _, allowed := range v.config.AllowedFormats {
		if strings.ToLower(allowed) == formatLower {
			return true
		}
	}
	return false
}

// DetectImageFormat 根据文件头检测图片格式，未知格式返回空串
func DetectImageFormat(data []byte) string {
	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp"} {
		if matchSignature(data, format) {
			return format
		}
	}
	return ""
}

// matchSignature 检查文件头是否匹配指定格式
func matchSignature(data []byte, format string) bool {
	signature, exists := imageSignatures[format]
	if !exists || len(data) < len(signature) {
		return false
	}
	if !bytes.HasPrefix(data, signature) {
		return false
	}
	// WEBP需要额外验证RIFF块内的标识
	if format == "webp" {
		return len(data) >= 12 && bytes.Equal(data[8:12], []byte("WEBP"))
	}
	return true
}

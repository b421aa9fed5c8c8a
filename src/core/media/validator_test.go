package media

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"detect-server-go/src/configs"
	"detect-server-go/src/core/utils"
)

func newTestLogger(t *testing.T) *utils.Logger {
	t.Helper()
	config := &configs.Config{}
	config.Log.LogLevel = "info"
	config.Log.LogDir = t.TempDir()
	config.Log.LogFile = "test.log"

	logger, err := utils.NewLogger(config)
	if err != nil {
		t.Fatalf("创建测试日志失败: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

// encodePNG 生成一张可正常解码的小图
func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("生成测试图片失败: %v", err)
	}
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	logger := newTestLogger(t)

	t.Run("合法PNG通过并返回尺寸", func(t *testing.T) {
		v := NewValidator(&configs.UploadConfig{}, logger)
		result := v.Validate(encodePNG(t, 4, 3), "a.png")
		if !result.IsValid {
			t.Fatalf("验证失败: %v", result.Error)
		}
		if result.Kind != "image" || result.Format != "png" {
			t.Errorf("Kind=%q Format=%q", result.Kind, result.Format)
		}
		if result.Width != 4 || result.Height != 3 {
			t.Errorf("尺寸 = %dx%d, want 4x3", result.Width, result.Height)
		}
	})

	t.Run("视频扩展名不做内容解码", func(t *testing.T) {
		v := NewValidator(&configs.UploadConfig{}, logger)
		result := v.Validate([]byte("not really a video"), "clip.MP4")
		if !result.IsValid {
			t.Fatalf("视频验证失败: %v", result.Error)
		}
		if result.Kind != "video" || result.Format != "mp4" {
			t.Errorf("Kind=%q Format=%q", result.Kind, result.Format)
		}
	})

	t.Run("超过大小限制被拒绝", func(t *testing.T) {
		v := NewValidator(&configs.UploadConfig{MaxFileSize: 16}, logger)
		result := v.Validate(encodePNG(t, 4, 3), "a.png")
		if result.IsValid {
			t.Error("超大文件应被拒绝")
		}
	})

	t.Run("空数据被拒绝", func(t *testing.T) {
		v := NewValidator(&configs.UploadConfig{}, logger)
		if result := v.Validate(nil, "a.png"); result.IsValid {
			t.Error("空数据应被拒绝")
		}
	})

	t.Run("无法识别的内容被拒绝", func(t *testing.T) {
		v := NewValidator(&configs.UploadConfig{}, logger)
		if result := v.Validate([]byte("plain text payload"), "a.txt"); result.IsValid {
			t.Error("非媒体内容应被拒绝")
		}
	})

	t.Run("文件头伪装成PNG但解码失败被拒绝", func(t *testing.T) {
		v := NewValidator(&configs.UploadConfig{}, logger)
		fake := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("garbage")...)
		if result := v.Validate(fake, "a.png"); result.IsValid {
			t.Error("伪装文件头应被解码环节拒绝")
		}
	})

	t.Run("不在允许格式列表中被拒绝", func(t *testing.T) {
		v := NewValidator(&configs.UploadConfig{AllowedFormats: []string{"jpeg"}}, logger)
		if result := v.Validate(encodePNG(t, 2, 2), "a.png"); result.IsValid {
			t.Error("png不在允许列表时应被拒绝")
		}
	})
}

func TestDetectImageFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{name: "JPEG文件头", data: []byte{0xFF, 0xD8, 0xFF, 0xE0}, expected: "jpeg"},
		{name: "PNG文件头", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, expected: "png"},
		{name: "GIF文件头", data: []byte("GIF89a"), expected: "gif"},
		{name: "BMP文件头", data: []byte{0x42, 0x4D, 0x00, 0x00}, expected: "bmp"},
		{name: "WEBP完整文件头", data: []byte("RIFF\x00\x00\x00\x00WEBP"), expected: "webp"},
		{name: "RIFF但不是WEBP", data: []byte("RIFF\x00\x00\x00\x00WAVE"), expected: ""},
		{name: "未知内容", data: []byte("hello"), expected: ""},
		{name: "空数据", data: nil, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectImageFormat(tt.data); got != tt.expected {
				t.Errorf("DetectImageFormat = %q, want %q", got, tt.expected)
			}
		})
	}
}

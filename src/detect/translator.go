package detect

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Translator 把子进程执行结果翻译成响应信封
type Translator struct {
	docRoot string // 对外可访问的文档根目录（绝对路径）
}

// NewTranslator 创建结果翻译器，docRoot为空表示无法做路径到URL的映射
func NewTranslator(docRoot string) *Translator {
	if docRoot != "" {
		if abs, err := filepath.Abs(docRoot); err == nil {
			docRoot = abs
		}
	}
	return &Translator{docRoot: docRoot}
}

// Translate 按退出码和最后一行输出生成响应。
// 非零退出视为整体失败；最后一行解析不出meta时仍按成功返回（保留原有宽松语义）
func (t *Translator) Translate(result *InvocationResult, req *UploadRequest) ResponseEnvelope {
	combined := strings.Join(result.Output, "\n")

	if result.ExitCode != 0 {
		return ResponseEnvelope{
			Success: false,
			Message: "Python failed",
			Debug:   combined,
		}
	}

	var meta DetectionMeta
	if err := json.Unmarshal([]byte(result.LastLine()), &meta); err != nil || meta.AnnotatedPath() == "" {
		return ResponseEnvelope{
			Success: true,
			Message: "Processed but no meta found",
			Debug:   combined,
		}
	}

	return ResponseEnvelope{
		Success:   true,
		Message:   "Processed successfully",
		OutputURL: t.toPublicURL(meta.AnnotatedPath(), req.Scheme, req.Host),
		Meta:      meta,
	}
}

// toPublicURL 当路径位于文档根目录之下时转换为对外URL，否则原样返回文件系统路径。
// 归属判断按路径分量比较，避免 /var/www/html-private 被 /var/www/html 前缀误判
func (t *Translator) toPublicURL(annotatedPath, scheme, host string) string {
	if t.docRoot == "" || host == "" {
		return annotatedPath
	}

	abs, err := filepath.Abs(annotatedPath)
	if err != nil {
		return annotatedPath
	}

	rel, err := filepath.Rel(t.docRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return annotatedPath
	}

	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, host, filepath.ToSlash(rel))
}

package detect

// UploadRequest 检测请求结构（从multipart表单解析）
type UploadRequest struct {
	OriginalName string // 上传文件的原始文件名
	MediaPath    string // 保存后的媒体文件路径
	ZonesPath    string // 保存后的zones文件路径，无zones时为空
	TraceID      string // 请求追踪ID（仅用于日志）
	Scheme       string // 请求协议（构造output_url用）
	Host         string // 请求Host（构造output_url用）
}

// InvocationResult 检测子进程执行结果
type InvocationResult struct {
	ExitCode int      // 进程退出码
	Output   []string // stdout+stderr合并后按行拆分
}

// LastLine 返回输出的最后一个非空行
func (r *InvocationResult) LastLine() string {
	for i := len(r.Output) - 1; i >= 0; i-- {
		if r.Output[i] != "" {
			return r.Output[i]
		}
	}
	return ""
}

// DetectionMeta 检测脚本输出的结构化结果，只检查annotated_path是否存在
type DetectionMeta map[string]interface{}

// AnnotatedPath 取出meta中的标注产物路径，缺失时返回空串
func (m DetectionMeta) AnnotatedPath() string {
	if v, ok := m["annotated_path"].(string); ok {
		return v
	}
	return ""
}

// ResponseEnvelope 检测接口标准响应结构
type ResponseEnvelope struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	OutputURL string        `json:"output_url,omitempty"` // 标注产物的访问地址（成功且有meta时）
	Meta      DetectionMeta `json:"meta,omitempty"`       // 检测脚本原始输出
	Debug     string        `json:"debug,omitempty"`      // 进程完整输出（失败或无meta时）
}

package detect

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"detect-server-go/src/configs"
	"detect-server-go/src/core/utils"
)

// Runner 检测子进程执行接口
type Runner interface {
	Invoke(ctx context.Context, mediaPath, outputDir, zonesPath string) (*InvocationResult, error)
}

// Invoker 调用外部检测脚本，同步阻塞直到进程退出
type Invoker struct {
	pythonExec string
	scriptPath string
	logger     *utils.Logger
}

// NewInvoker 创建检测脚本执行器，解释器路径已在配置加载时解析完成
func NewInvoker(config *configs.DetectConfig, logger *utils.Logger) *Invoker {
	return &Invoker{
		pythonExec: config.PythonExec,
		scriptPath: config.ScriptPath,
		logger:     logger,
	}
}

// buildArgs 构造脚本参数向量，zonesPath为空时不传--zones
func (iv *Invoker) buildArgs(mediaPath, outputDir, zonesPath string) []string {
	args := []string{iv.scriptPath, "--input", mediaPath, "--output_dir", outputDir}
	if zonesPath != "" {
		args = append(args, "--zones", zonesPath)
	}
	return args
}

// Invoke 执行检测脚本并捕获合并输出和退出码。
// 始终以参数向量方式启动进程，不经过shell，上传文件名里的任何字符都不会被解释
func (iv *Invoker) Invoke(ctx context.Context, mediaPath, outputDir, zonesPath string) (*InvocationResult, error) {
	args := iv.buildArgs(mediaPath, outputDir, zonesPath)
	iv.logger.Info(fmt.Sprintf("执行检测脚本: %s %s", iv.pythonExec, strings.Join(args, " ")))

	cmd := exec.CommandContext(ctx, iv.pythonExec, args...)
	output, err := cmd.CombinedOutput()

	result := &InvocationResult{
		Output: splitLines(string(output)),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			// 进程启动成功但非零退出，退出码和输出留给上层翻译
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// 进程没能启动（解释器或脚本不存在等）
		return nil, fmt.Errorf("启动检测进程失败: %w", err)
	}

	result.ExitCode = 0
	return result, nil
}

// splitLines 将进程输出按行拆分，去掉末尾空行
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

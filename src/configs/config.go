package configs

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config 主配置结构
type Config struct {
	Server struct {
		IP     string `yaml:"ip"`
		Port   int    `yaml:"port"`
		Secret string `yaml:"secret"` // JWT签名密钥
	} `yaml:"server"`

	Log struct {
		LogFormat string `yaml:"log_format"`
		LogLevel  string `yaml:"log_level"`
		LogDir    string `yaml:"log_dir"`
		LogFile   string `yaml:"log_file"`
	} `yaml:"log"`

	Web struct {
		StaticDir string `yaml:"static_dir"` // 对外可访问的文档根目录
		UploadDir string `yaml:"upload_dir"` // 上传文件保存目录
		OutputDir string `yaml:"output_dir"` // 检测结果输出目录
	} `yaml:"web"`

	Detect DetectConfig `yaml:"detect"`
	Upload UploadConfig `yaml:"upload"`
}

// DetectConfig 检测子进程配置
type DetectConfig struct {
	PythonExec string `yaml:"python_exec"` // 解释器路径，可被环境变量PYTHON_EXEC覆盖
	ScriptPath string `yaml:"script_path"` // 检测脚本路径
}

// UploadConfig 上传媒体限制配置
type UploadConfig struct {
	MaxFileSize    int64    `yaml:"max_file_size"`   // 最大文件大小（字节）
	AllowedFormats []string `yaml:"allowed_formats"` // 允许的媒体格式
}

// LoadConfig 从文件加载配置，默认使用.config.yaml
func LoadConfig() (*Config, string, error) {
	path := ".config.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, err
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, path, err
	}

	if err := config.ResolveDetect(); err != nil {
		return nil, path, err
	}

	return config, path, nil
}

// ResolveDetect 启动时解析解释器路径，缺失时直接报错而不是运行期静默回退
func (c *Config) ResolveDetect() error {
	if env := os.Getenv("PYTHON_EXEC"); env != "" {
		c.Detect.PythonExec = env
	}
	if c.Detect.PythonExec == "" {
		// 没有显式配置时在PATH中查找
		name := "python3"
		if runtime.GOOS == "windows" {
			name = "python"
		}
		resolved, err := exec.LookPath(name)
		if err != nil {
			return fmt.Errorf("未找到可用的Python解释器，请设置PYTHON_EXEC或detect.python_exec: %w", err)
		}
		c.Detect.PythonExec = resolved
	}

	if c.Detect.ScriptPath == "" {
		return fmt.Errorf("缺少检测脚本路径配置 detect.script_path")
	}
	return nil
}

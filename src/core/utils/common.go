package utils

import (
	"os"
	"path/filepath"
)

// GetProjectDir 获取项目根目录
func GetProjectDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return dir
}

// AbsPath 将相对路径转换为基于项目根目录的绝对路径
func AbsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetProjectDir(), path)
}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout 管理上传和输出目录，并派生产物文件名
type Layout struct {
	UploadDir string
	OutputDir string
}

// NewLayout 创建目录管理器并确保目录存在
func NewLayout(uploadDir, outputDir string) (*Layout, error) {
	l := &Layout{UploadDir: uploadDir, OutputDir: outputDir}
	for _, dir := range []string{uploadDir, outputDir} {
		if err := EnsureDir(dir); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// EnsureDir 幂等地创建目录，已存在时不报错
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("创建目录失败(%s): %v", dir, err)
	}
	return nil
}

// ArtifactName 派生唯一产物文件名: {unix时间戳}_{原始文件名}
// 同一秒内同名上传会互相覆盖，这是已知且接受的边界情况
func ArtifactName(unixTs int64, originalName string) string {
	base := filepath.Base(originalName)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%d_%s", unixTs, base)
}

// ZonesName 派生zones配置的兄弟文件名
func ZonesName(unixTs int64) string {
	return fmt.Sprintf("%d_zones.json", unixTs)
}

// MediaPath 上传媒体文件的完整保存路径
func (l *Layout) MediaPath(unixTs int64, originalName string) string {
	return filepath.Join(l.UploadDir, ArtifactName(unixTs, originalName))
}

// ZonesPath zones文件的完整保存路径
func (l *Layout) ZonesPath(unixTs int64) string {
	return filepath.Join(l.UploadDir, ZonesName(unixTs))
}

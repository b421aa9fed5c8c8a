package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArtifactName(t *testing.T) {
	tests := []struct {
		name     string
		ts       int64
		original string
		expected string
	}{
		{
			name:     "普通文件名",
			ts:       1700000000,
			original: "cat.jpg",
			expected: "1700000000_cat.jpg",
		},
		{
			name:     "带路径的文件名只保留基名",
			ts:       1700000000,
			original: "../../etc/passwd",
			expected: "1700000000_passwd",
		},
		{
			name:     "空文件名回退为upload",
			ts:       42,
			original: "",
			expected: "42_upload",
		},
		{
			name:     "带空格的文件名原样保留",
			ts:       1,
			original: "my video.mp4",
			expected: "1_my video.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ArtifactName(tt.ts, tt.original)
			if result != tt.expected {
				t.Errorf("ArtifactName(%d, %q) = %q, want %q", tt.ts, tt.original, result, tt.expected)
			}
		})
	}
}

func TestZonesName(t *testing.T) {
	result := ZonesName(1700000000)
	expected := "1700000000_zones.json"
	if result != expected {
		t.Errorf("ZonesName(1700000000) = %q, want %q", result, expected)
	}
}

func TestEnsureDir(t *testing.T) {
	t.Run("创建不存在的目录", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b")
		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir失败: %v", err)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("目录未创建: %v", err)
		}
	})

	t.Run("目录已存在时幂等", func(t *testing.T) {
		dir := t.TempDir()
		if err := EnsureDir(dir); err != nil {
			t.Errorf("已存在目录不应报错: %v", err)
		}
	})
}

func TestLayoutPaths(t *testing.T) {
	base := t.TempDir()
	layout, err := NewLayout(filepath.Join(base, "uploads"), filepath.Join(base, "outputs"))
	if err != nil {
		t.Fatalf("NewLayout失败: %v", err)
	}

	media := layout.MediaPath(100, "dog.png")
	if media != filepath.Join(base, "uploads", "100_dog.png") {
		t.Errorf("MediaPath = %q", media)
	}

	zones := layout.ZonesPath(100)
	if zones != filepath.Join(base, "uploads", "100_zones.json") {
		t.Errorf("ZonesPath = %q", zones)
	}
}

package detect

import (
	"strings"
	"testing"
)

func testRequest() *UploadRequest {
	return &UploadRequest{
		Scheme: "http",
		Host:   "example.com",
	}
}

func TestTranslate(t *testing.T) {
	tr := NewTranslator("/var/www/html")

	tests := []struct {
		name          string
		result        *InvocationResult
		wantSuccess   bool
		wantMessage   string
		wantOutputURL string
		wantDebug     bool
	}{
		{
			name: "非零退出码整体失败",
			result: &InvocationResult{
				ExitCode: 1,
				Output:   []string{"Traceback ...", "ValueError: bad input"},
			},
			wantSuccess: false,
			wantMessage: "Python failed",
			wantDebug:   true,
		},
		{
			name: "正常退出且meta在文档根目录下",
			result: &InvocationResult{
				ExitCode: 0,
				Output:   []string{"loading model", `{"annotated_path": "/var/www/html/out/x.jpg", "total": 3}`},
			},
			wantSuccess:   true,
			wantMessage:   "Processed successfully",
			wantOutputURL: "http://example.com/out/x.jpg",
		},
		{
			name: "meta路径不在文档根目录下时返回原始路径",
			result: &InvocationResult{
				ExitCode: 0,
				Output:   []string{`{"annotated_path": "/tmp/out/x.jpg"}`},
			},
			wantSuccess:   true,
			wantMessage:   "Processed successfully",
			wantOutputURL: "/tmp/out/x.jpg",
		},
		{
			name: "兄弟目录不能被前缀误判",
			result: &InvocationResult{
				ExitCode: 0,
				Output:   []string{`{"annotated_path": "/var/www/html-private/x.jpg"}`},
			},
			wantSuccess:   true,
			wantMessage:   "Processed successfully",
			wantOutputURL: "/var/www/html-private/x.jpg",
		},
		{
			name: "最后一行不是JSON时按成功但无meta处理",
			result: &InvocationResult{
				ExitCode: 0,
				Output:   []string{"done, nothing structured"},
			},
			wantSuccess: true,
			wantMessage: "Processed but no meta found",
			wantDebug:   true,
		},
		{
			name: "JSON里缺少annotated_path时按成功但无meta处理",
			result: &InvocationResult{
				ExitCode: 0,
				Output:   []string{`{"total": 5}`},
			},
			wantSuccess: true,
			wantMessage: "Processed but no meta found",
			wantDebug:   true,
		},
		{
			name: "空输出的非零退出",
			result: &InvocationResult{
				ExitCode: 2,
				Output:   nil,
			},
			wantSuccess: false,
			wantMessage: "Python failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope := tr.Translate(tt.result, testRequest())
			if envelope.Success != tt.wantSuccess {
				t.Errorf("Success = %t, want %t", envelope.Success, tt.wantSuccess)
			}
			if envelope.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", envelope.Message, tt.wantMessage)
			}
			if envelope.OutputURL != tt.wantOutputURL {
				t.Errorf("OutputURL = %q, want %q", envelope.OutputURL, tt.wantOutputURL)
			}
			if tt.wantDebug && envelope.Debug != strings.Join(tt.result.Output, "\n") {
				t.Errorf("Debug应包含完整输出, got %q", envelope.Debug)
			}
			if !tt.wantDebug && tt.wantOutputURL != "" && envelope.Debug != "" {
				t.Errorf("成功且有meta时不应返回Debug, got %q", envelope.Debug)
			}
		})
	}
}

func TestTranslateSchemeAndHost(t *testing.T) {
	tr := NewTranslator("/var/www/html")
	result := &InvocationResult{
		ExitCode: 0,
		Output:   []string{`{"annotated_path": "/var/www/html/outputs/a.jpg"}`},
	}

	t.Run("https请求使用https前缀", func(t *testing.T) {
		req := &UploadRequest{Scheme: "https", Host: "cam.local:8443"}
		envelope := tr.Translate(result, req)
		if envelope.OutputURL != "https://cam.local:8443/outputs/a.jpg" {
			t.Errorf("OutputURL = %q", envelope.OutputURL)
		}
	})

	t.Run("Host缺失时回退为原始路径", func(t *testing.T) {
		req := &UploadRequest{Scheme: "http", Host: ""}
		envelope := tr.Translate(result, req)
		if envelope.OutputURL != "/var/www/html/outputs/a.jpg" {
			t.Errorf("OutputURL = %q", envelope.OutputURL)
		}
	})
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		name     string
		output   []string
		expected string
	}{
		{name: "取最后一行", output: []string{"a", "b", "c"}, expected: "c"},
		{name: "跳过末尾空行", output: []string{"a", ""}, expected: "a"},
		{name: "空输出", output: nil, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &InvocationResult{Output: tt.output}
			if got := r.LastLine(); got != tt.expected {
				t.Errorf("LastLine() = %q, want %q", got, tt.expected)
			}
		})
	}
}

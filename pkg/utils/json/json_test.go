package json

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"strings"
	"testing"
)

// 测试用的业务载荷，与对外 API 的响应结构同形。
type askPayload struct {
	Status        string        `json:"status"`
	Answer        string        `json:"answer"`
	Mode          string        `json:"mode"`
	SourcesFound  int           `json:"sources_found"`
	ContextLength int           `json:"context_length"`
	Sources       []chunkSource `json:"sources"`
}

type chunkSource struct {
	ID         string  `json:"id"`
	Filename   string  `json:"filename"`
	PageLabel  string  `json:"page_label"`
	ChunkIndex int64   `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
}

type uploadPayload struct {
	Status         string   `json:"status"`
	Filename       string   `json:"filename"`
	PagesProcessed int      `json:"pages_processed"`
	TextLength     int      `json:"text_length"`
	ChunksStored   int      `json:"chunks_stored"`
	FailedIDs      []string `json:"failed_ids,omitempty"`
}

type errorPayload struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func sampleAskPayload() askPayload {
	return askPayload{
		Status:        "success",
		Answer:        "The report covers Q3 revenue on page 2.",
		Mode:          "llm",
		SourcesFound:  2,
		ContextLength: 512,
		Sources: []chunkSource{
			{ID: "4f2a", Filename: "report.pdf", PageLabel: "2", ChunkIndex: 3, Content: "Q3 revenue grew 12%.", Score: 0.91},
			{ID: "9c1e", Filename: "report.pdf", PageLabel: "5", ChunkIndex: 11, Content: "Outlook for Q4.", Score: 0.74},
		},
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data interface{}
	}{
		{
			name: "问答响应载荷",
			data: sampleAskPayload(),
		},
		{
			name: "上传响应载荷",
			data: uploadPayload{
				Status:         "success",
				Filename:       "手册.pdf",
				PagesProcessed: 3,
				TextLength:     4096,
				ChunksStored:   7,
				FailedIDs:      []string{"a1", "b2"},
			},
		},
		{
			name: "错误载荷",
			data: errorPayload{Status: "error", Code: 2101002, Message: "Uploaded file exceeds size limit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.data)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}

			// 标准库必须能解析 sonic 的输出
			var result interface{}
			if err := stdjson.Unmarshal(got, &result); err != nil {
				t.Errorf("Marshal() produced invalid JSON: %v", err)
			}
		})
	}
}

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		target  interface{}
		wantErr bool
	}{
		{
			name:   "错误载荷",
			json:   `{"status":"error","code":2101003,"message":"Invalid or corrupted PDF file"}`,
			target: &errorPayload{},
		},
		{
			name:   "上传响应载荷",
			json:   `{"status":"success","filename":"report.pdf","pages_processed":3,"text_length":4096,"chunks_stored":7}`,
			target: &uploadPayload{},
		},
		{
			name:    "非法JSON",
			json:    `{invalid}`,
			target:  &errorPayload{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Unmarshal([]byte(tt.json), tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnmarshalPreservesFields(t *testing.T) {
	data, err := Marshal(sampleAskPayload())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var result askPayload
	if err := Unmarshal(data, &result); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := sampleAskPayload()
	if result.Answer != want.Answer || result.Mode != want.Mode {
		t.Errorf("round trip mismatch: got %+v", result)
	}
	if len(result.Sources) != 2 || result.Sources[0].PageLabel != "2" {
		t.Errorf("sources not preserved: got %+v", result.Sources)
	}
}

func TestEncoderDecoder(t *testing.T) {
	data := errorPayload{Status: "error", Code: 2110001, Message: "Vector store unavailable"}

	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(data); err != nil {
		t.Fatalf("Encoder.Encode() error = %v", err)
	}

	var result errorPayload
	if err := NewDecoder(strings.NewReader(buf.String())).Decode(&result); err != nil {
		t.Fatalf("Decoder.Decode() error = %v", err)
	}

	if result.Code != data.Code || result.Message != data.Message {
		t.Errorf("encode/decode mismatch: got %+v, want %+v", result, data)
	}
}

func TestConfigModeSwitch(t *testing.T) {
	ConfigFastestMode()
	defer ConfigStandardMode() // 恢复默认模式

	data := sampleAskPayload()
	raw, err := Marshal(data)
	if err != nil {
		t.Fatalf("Marshal() after ConfigFastestMode() error = %v", err)
	}

	ConfigStandardMode()
	var result askPayload
	if err := Unmarshal(raw, &result); err != nil {
		t.Errorf("Unmarshal() after ConfigStandardMode() error = %v", err)
	}
}

func TestIsUsingSonic(t *testing.T) {
	t.Logf("Using sonic: %v", IsUsingSonic())
}

// TestConcurrentMarshalUnmarshal 测试并发调用 Marshal/Unmarshal 的安全性
func TestConcurrentMarshalUnmarshal(t *testing.T) {
	const goroutines = 50
	const iterations = 100

	data := sampleAskPayload()
	errChan := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			for j := 0; j < iterations; j++ {
				raw, err := Marshal(data)
				if err != nil {
					errChan <- err
					return
				}

				var result askPayload
				if err := Unmarshal(raw, &result); err != nil {
					errChan <- err
					return
				}

				if result.Answer != data.Answer || len(result.Sources) != len(data.Sources) {
					errChan <- fmt.Errorf("round trip mismatch: %+v", result)
					return
				}
			}
			errChan <- nil
		}()
	}

	for i := 0; i < goroutines; i++ {
		if err := <-errChan; err != nil {
			t.Errorf("并发测试失败: %v", err)
		}
	}
}

func BenchmarkMarshalAskPayload(b *testing.B) {
	data := sampleAskPayload()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Marshal(data)
	}
}

func BenchmarkMarshalAskPayloadStdlib(b *testing.B) {
	data := sampleAskPayload()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = stdjson.Marshal(data)
	}
}

func BenchmarkUnmarshalAskPayload(b *testing.B) {
	raw, _ := Marshal(sampleAskPayload())
	var result askPayload
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Unmarshal(raw, &result)
	}
}

package textutil_test

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/docqa/internal/pkg/docqa/textutil"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "相同向量",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{1.0, 0.0, 0.0},
			expected: 1.0,
		},
		{
			name:     "正交向量",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{0.0, 1.0, 0.0},
			expected: 0.0,
		},
		{
			name:     "相反向量",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{-1.0, 0.0, 0.0},
			expected: -1.0,
		},
		{
			name:     "空向量",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
		{
			name:     "长度不匹配",
			a:        []float32{1.0, 2.0},
			b:        []float32{1.0},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := textutil.CosineSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.expected, result, 0.0001)
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "短于限制",
			input:    "hello",
			maxLen:   10,
			expected: "hello",
		},
		{
			name:     "等于限制",
			input:    "hello",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "超过限制",
			input:    "hello world",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "中文字符按字符数截断",
			input:    "你好世界再见",
			maxLen:   4,
			expected: "你好世界",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutil.TruncateString(tt.input, tt.maxLen))
		})
	}
}

func TestSplitTextBasics(t *testing.T) {
	t.Run("空输入返回nil", func(t *testing.T) {
		assert.Nil(t, textutil.SplitText("", 100, 20))
	})

	t.Run("短文本返回单块", func(t *testing.T) {
		chunks := textutil.SplitText("short text", 100, 20)
		assert.Equal(t, []string{"short text"}, chunks)
	})

	t.Run("结果确定性", func(t *testing.T) {
		text := strings.Repeat("paragraph one.\n\nparagraph two. ", 30)
		first := textutil.SplitText(text, 100, 20)
		second := textutil.SplitText(text, 100, 20)
		assert.Equal(t, first, second)
	})
}

func TestSplitTextRespectsChunkSize(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
	}{
		{
			name:      "中文段落",
			text:      strings.Repeat("这是一个测试段落，用来验证分块。\n\n", 50),
			chunkSize: 100,
			overlap:   20,
		},
		{
			// 连续空行按 "\n\n" 分割产生空片段，空片段长度为 0
			// 但连接时仍带分隔符，重叠窗口必须将其弹出
			name:      "连续空行产生空片段",
			text:      strings.Repeat("xyz 日本語bxyz \nb\n\n\n\n", 20),
			chunkSize: 15,
			overlap:   11,
		},
		{
			name:      "混合空行与短段落",
			text:      strings.Repeat("ab\n\n\n\ncd ef\n\n\n\n\n\ngh", 30),
			chunkSize: 12,
			overlap:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := textutil.SplitText(tt.text, tt.chunkSize, tt.overlap)

			assert.NotEmpty(t, chunks)
			for i, chunk := range chunks {
				assert.LessOrEqualf(t, utf8.RuneCountInString(chunk), tt.chunkSize,
					"chunk %d = %q 超过大小限制", i, chunk)
			}
		})
	}
}

func TestSplitTextPrefersParagraphBoundaries(t *testing.T) {
	text := "first paragraph here.\n\nsecond paragraph here.\n\nthird paragraph here."
	chunks := textutil.SplitText(text, 30, 5)

	// 段落边界优先于行内分割
	assert.Contains(t, chunks[0], "first paragraph")
	for _, chunk := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitTextLongTokenSlicedByRunes(t *testing.T) {
	// 单个超长 token，无任何分隔符可用
	text := strings.Repeat("x", 250)
	chunks := textutil.SplitText(text, 100, 20)

	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 100)
	}

	// 去掉重叠区域后可重建原文
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, chunk := range chunks[1:] {
		runes := []rune(chunk)
		if len(runes) > 20 {
			rebuilt.WriteString(string(runes[20:]))
		}
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplitTextSeparatorPathKeepsContent(t *testing.T) {
	// 分隔符路径不保证逐字重建：纯空白片段在合并时被丢弃。
	// 这里验证的性质是所有非空白内容都落在某个块中
	var paragraphs []string
	for p := 0; p < 6; p++ {
		words := make([]string, 5)
		for w := range words {
			words[w] = fmt.Sprintf("w%02d", p*5+w)
		}
		paragraphs = append(paragraphs, strings.Join(words, " "))
	}
	text := strings.Join(paragraphs, "\n\n\n\n")

	chunks := textutil.SplitText(text, 40, 10)
	assert.Greater(t, len(chunks), 1)

	joined := strings.Join(chunks, " ")
	for i := 0; i < 30; i++ {
		assert.Containsf(t, joined, fmt.Sprintf("w%02d", i), "词 w%02d 丢失", i)
	}

	for _, chunk := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitTextChunkCountMonotonic(t *testing.T) {
	text := strings.Repeat("some sentence content here. ", 100)

	prev := 0
	for _, size := range []int{800, 400, 200, 100} {
		chunks := textutil.SplitText(text, size, 20)
		assert.GreaterOrEqualf(t, len(chunks), prev, "chunk_size=%d 时块数减少", size)
		prev = len(chunks)
	}
}

func TestSplitTextOverlapCarriesContext(t *testing.T) {
	// 连续单词流，验证相邻块存在共享内容
	words := make([]string, 120)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	chunks := textutil.SplitText(text, 50, 20)
	assert.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		head := []rune(chunks[i])
		if len(head) > 10 {
			head = head[:10]
		}
		assert.Containsf(t, chunks[i-1], string(head), "块 %d 与前一块之间缺少重叠", i)
	}
}

func TestSplitIntoChunks(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
		wantCount int
	}{
		{
			name:      "短文本单块",
			text:      "hello",
			chunkSize: 10,
			overlap:   2,
			wantCount: 1,
		},
		{
			name:      "精确分割",
			text:      strings.Repeat("a", 20),
			chunkSize: 10,
			overlap:   0,
			wantCount: 2,
		},
		{
			name:      "带重叠分割",
			text:      strings.Repeat("a", 20),
			chunkSize: 10,
			overlap:   5,
			wantCount: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := textutil.SplitIntoChunks(tt.text, tt.chunkSize, tt.overlap)
			assert.Len(t, chunks, tt.wantCount)
		})
	}

	t.Run("非法chunkSize返回nil", func(t *testing.T) {
		assert.Nil(t, textutil.SplitIntoChunks("text", 0, 0))
	})
}

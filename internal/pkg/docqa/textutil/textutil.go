// Package textutil 提供文档问答相关的文本处理工具函数。
package textutil

import (
	"math"
	"strings"
	"unicode/utf8"
)

// defaultSeparators 递归分割的分隔符优先级，从段落到行到词，
// 最后退化为按字符数切片。
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// CosineSimilarity 计算两个向量的余弦相似度。
// 返回值范围为 [-1, 1]，1 表示完全相同，-1 表示完全相反。
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TruncateString 截断字符串到指定的最大 Unicode 字符数。
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// SplitText 将文本按分隔符优先级递归分割成重叠的块。
//
// 依次尝试 "\n\n"、"\n"、" " 分割，块在 chunkSize（Unicode 字符数）内
// 贪婪合并；超长且无可用分隔符的片段按字符切片。相邻块之间保留
// chunkOverlap 个字符的重叠。
//
// 空输入返回 nil；不超过 chunkSize 的输入返回单块。结果是确定性的。
func SplitText(text string, chunkSize, chunkOverlap int) []string {
	if text == "" || chunkSize <= 0 {
		return nil
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize - 1
	}

	if utf8.RuneCountInString(text) <= chunkSize {
		return []string{text}
	}

	return splitRecursive(text, chunkSize, chunkOverlap, defaultSeparators)
}

// splitRecursive 选择文本中出现的最高优先级分隔符进行分割，
// 超长片段用剩余的分隔符继续分解。
func splitRecursive(text string, chunkSize, chunkOverlap int, separators []string) []string {
	sep := ""
	var rest []string
	for i, s := range separators {
		if s == "" {
			sep = s
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return SplitIntoChunks(text, chunkSize, chunkOverlap)
	}

	splits := strings.Split(text, sep)

	var result []string
	var pending []string
	for _, s := range splits {
		if utf8.RuneCountInString(s) <= chunkSize {
			pending = append(pending, s)
			continue
		}
		if len(pending) > 0 {
			result = append(result, mergeSplits(pending, sep, chunkSize, chunkOverlap)...)
			pending = nil
		}
		result = append(result, splitRecursive(s, chunkSize, chunkOverlap, rest)...)
	}
	if len(pending) > 0 {
		result = append(result, mergeSplits(pending, sep, chunkSize, chunkOverlap)...)
	}

	return result
}

// mergeSplits 将已在大小限制内的片段贪婪合并成块，块满时回退
// chunkOverlap 个字符作为下一块的起始窗口。
func mergeSplits(splits []string, sep string, chunkSize, chunkOverlap int) []string {
	sepLen := utf8.RuneCountInString(sep)

	var docs []string
	var current []string
	total := 0

	for _, s := range splits {
		l := utf8.RuneCountInString(s)

		extra := 0
		if len(current) > 0 {
			extra = sepLen
		}

		if total+l+extra > chunkSize && len(current) > 0 {
			if doc := joinSplits(current, sep); doc != "" {
				docs = append(docs, doc)
			}
			// 弹出队首直到剩余窗口落入重叠范围且容得下新片段。
			// 空片段长度为 0 但连接时仍占一个分隔符，同样要弹出。
			for len(current) > 0 && (total > chunkOverlap || total+l+extra > chunkSize) {
				head := utf8.RuneCountInString(current[0])
				total -= head
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}

		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, s)
		total += l
	}

	if doc := joinSplits(current, sep); doc != "" {
		docs = append(docs, doc)
	}

	return docs
}

// joinSplits 拼接片段并丢弃纯空白结果。
func joinSplits(splits []string, sep string) string {
	doc := strings.Join(splits, sep)
	if strings.TrimSpace(doc) == "" {
		return ""
	}
	return doc
}

// SplitIntoChunks 将文本按固定窗口分割成重叠的块。
// chunkSize 是每个块的大小（Unicode 字符数），overlap 是块之间的重叠大小。
// 用作递归分割的终结手段：单个超长 token 在此按字符边界切片。
func SplitIntoChunks(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	step := chunkSize - overlap

	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[i:end])
		chunks = append(chunks, chunk)
		if end == len(runes) {
			break
		}
	}

	return chunks
}

// Package model provides data models for the docqa service.
package model

// 回答生成模式。
const (
	// ModeLLM 由语言模型合成的回答。
	ModeLLM = "llm"
	// ModeDegraded 无可用聊天模型时返回的原始上下文拼接。
	ModeDegraded = "degraded"
)

// IngestSummary 表示一次 PDF 入库的处理结果。
type IngestSummary struct {
	// Filename 上传的文件名。
	Filename string `json:"filename"`
	// PagesProcessed 文档总页数。
	PagesProcessed int `json:"pages_processed"`
	// TextLength 提取文本的总字符数。
	TextLength int `json:"text_length"`
	// ChunksStored 成功写入向量库的块数。
	ChunksStored int `json:"chunks_stored"`
	// FailedIDs 写入失败的记录 ID，部分失败时非空。
	FailedIDs []string `json:"failed_ids,omitempty"`
}

// QueryResult 表示一次问答查询的结果。
type QueryResult struct {
	// Answer 回答文本。检索无结果时为固定的无信息提示。
	Answer string `json:"answer"`
	// Mode 回答生成模式，llm 或 degraded。
	Mode string `json:"mode"`
	// SourcesFound 实际参与回答的来源块数。
	SourcesFound int `json:"sources_found"`
	// ContextLength 组装后上下文的字符数。
	ContextLength int `json:"context_length"`
	// Sources 来源块明细，按相似度降序。
	Sources []ChunkSource `json:"sources"`
}

// ChunkSource 表示回答引用的一个来源块。
type ChunkSource struct {
	// ID 记录 ID。
	ID string `json:"id"`
	// Filename 来源文件名。
	Filename string `json:"filename"`
	// PageLabel 来源页码标签。
	PageLabel string `json:"page_label"`
	// ChunkIndex 块在文档内的序号。
	ChunkIndex int64 `json:"chunk_index"`
	// Content 块文本内容。
	Content string `json:"content"`
	// Score 余弦相似度分数。
	Score float32 `json:"score"`
}

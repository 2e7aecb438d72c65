package biz

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/internal/pkg/docqa/extract"
	"github.com/kart-io/docqa/internal/pkg/docqa/textutil"
	"github.com/kart-io/docqa/pkg/llm"
	"github.com/kart-io/docqa/pkg/utils/errors"
	"github.com/kart-io/docqa/pkg/utils/id"
)

// 重复上传策略。
const (
	// PolicyAppend 重复上传与既有记录共存，不做去重。
	PolicyAppend = "append"
	// PolicyReplace 重复上传先删除同名文件的既有记录。
	PolicyReplace = "replace"
)

// 页面文本拼接用的分隔符，与分块的最高优先级分隔符一致，
// 使跨页内容的分块不被页边界打断。
const pageJoinSeparator = "\n\n"

// IndexerConfig 索引器配置。
type IndexerConfig struct {
	// Collection 集合名称。
	Collection string
	// ChunkSize 文本块大小（字符数）。
	ChunkSize int
	// ChunkOverlap 块重叠大小（字符数）。
	ChunkOverlap int
	// EmbeddingDim 嵌入向量维度。
	EmbeddingDim int
	// MaxUploadBytes 上传文件大小上限。
	MaxUploadBytes int64
	// ReuploadPolicy 重复上传策略，append 或 replace。
	ReuploadPolicy string
}

// Indexer 负责 PDF 入库：提取、分块、嵌入、写入向量库。
type Indexer struct {
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	idGen         id.Generator
	config        *IndexerConfig
}

// NewIndexer 创建索引器实例。
func NewIndexer(vectorStore store.VectorStore, embedProvider llm.EmbeddingProvider, config *IndexerConfig) *Indexer {
	return &Indexer{
		store:         vectorStore,
		embedProvider: embedProvider,
		idGen:         id.NewUUIDGenerator(),
		config:        config,
	}
}

// Ingest 处理一次 PDF 上传。
//
// 大小超限、非法 PDF、加密 PDF、无可提取文本均返回对应的注册错误码；
// 嵌入服务失败中止整个操作，不写入任何记录。
func (i *Indexer) Ingest(ctx context.Context, filename string, data []byte) (*model.IngestSummary, error) {
	if i.config.ChunkSize <= 0 || i.config.ChunkOverlap < 0 || i.config.ChunkOverlap >= i.config.ChunkSize {
		return nil, errors.ErrInvalidChunking.WithMessagef(
			"chunk size %d with overlap %d", i.config.ChunkSize, i.config.ChunkOverlap)
	}
	if int64(len(data)) > i.config.MaxUploadBytes {
		return nil, errors.ErrFileTooLarge.WithMessagef(
			"File size %d bytes exceeds the limit of %d bytes", len(data), i.config.MaxUploadBytes)
	}

	result, err := extract.Extract(data)
	if err != nil {
		switch {
		case stderrors.Is(err, extract.ErrEncrypted):
			return nil, errors.ErrEncryptedPDF.WithCause(err)
		case stderrors.Is(err, extract.ErrNoText):
			return nil, errors.ErrNoExtractableText.WithCause(err)
		default:
			return nil, errors.ErrInvalidPDF.WithCause(err)
		}
	}

	joined, boundaries := joinPages(result.Pages)
	chunks := textutil.SplitText(joined, i.config.ChunkSize, i.config.ChunkOverlap)
	if len(chunks) == 0 {
		return nil, errors.ErrNoExtractableText.WithMessage("Extracted text produced no chunks")
	}

	embeddings, err := i.embedProvider.Embed(ctx, chunks)
	if err != nil {
		return nil, errors.ErrEmbeddingService.WithCause(err)
	}
	if len(embeddings) != len(chunks) {
		return nil, errors.ErrEmbeddingService.WithMessagef(
			"Embedding count %d does not match chunk count %d", len(embeddings), len(chunks))
	}

	records := make([]*store.Record, len(chunks))
	cursor := 0
	for idx, chunk := range chunks {
		// 每个块都是拼接文本的连续子串，顺序定位其起始页
		offset := strings.Index(joined[cursor:], chunk)
		start := cursor
		if offset >= 0 {
			start = cursor + offset
			cursor = start + 1
		}

		records[idx] = &store.Record{
			ID:         i.idGen.Generate(),
			Embedding:  embeddings[idx],
			Text:       chunk,
			Filename:   filename,
			ChunkIndex: int64(idx),
			PageLabel:  pageLabelAt(boundaries, start),
		}
	}

	if err := i.store.EnsureCollection(ctx, &store.CollectionConfig{
		Name:        i.config.Collection,
		Description: "docqa knowledge base collection",
		Dimension:   i.config.EmbeddingDim,
	}); err != nil {
		if stderrors.Is(err, store.ErrDimensionMismatch) {
			return nil, errors.ErrSchemaMismatch.WithCause(err)
		}
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	if i.config.ReuploadPolicy == PolicyReplace {
		if err := i.store.DeleteByFilename(ctx, i.config.Collection, filename); err != nil {
			return nil, errors.ErrIngestFailed.WithCause(err)
		}
	}

	stored, failed, err := i.store.Upsert(ctx, i.config.Collection, records)
	if err != nil {
		return nil, errors.ErrIngestFailed.WithCause(err)
	}
	if len(failed) > 0 {
		logger.Warnw("部分记录写入失败",
			"filename", filename,
			"stored", stored,
			"failed", len(failed),
		)
	}

	return &model.IngestSummary{
		Filename:       filename,
		PagesProcessed: result.PageCount,
		TextLength:     len([]rune(joined)),
		ChunksStored:   stored,
		FailedIDs:      failed,
	}, nil
}

// pageBoundary 记录一页文本在拼接结果中的起始字节偏移。
type pageBoundary struct {
	startByte int
	label     string
}

// joinPages 按页拼接文本并记录各页的起始偏移。
func joinPages(pages []extract.Page) (string, []pageBoundary) {
	var sb strings.Builder
	boundaries := make([]pageBoundary, 0, len(pages))

	for i, p := range pages {
		if i > 0 {
			sb.WriteString(pageJoinSeparator)
		}
		boundaries = append(boundaries, pageBoundary{
			startByte: sb.Len(),
			label:     strconv.Itoa(p.Number),
		})
		sb.WriteString(p.Text)
	}

	return sb.String(), boundaries
}

// pageLabelAt 返回包含指定字节偏移的页面标签。
func pageLabelAt(boundaries []pageBoundary, offset int) string {
	label := ""
	for _, b := range boundaries {
		if b.startByte > offset {
			break
		}
		label = b.label
	}
	return label
}

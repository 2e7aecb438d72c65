package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/pkg/llm"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// Collection 集合名称。
	Collection string
	// TopK 返回的结果数量上限。
	TopK int
	// ScoreThreshold 相似度分数下限，低于该值的命中被过滤。
	ScoreThreshold float32
}

// Retriever 负责问题向量化和相似度检索。
type Retriever struct {
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	config        *RetrieverConfig
}

// NewRetriever 创建检索器实例。
func NewRetriever(vectorStore store.VectorStore, embedProvider llm.EmbeddingProvider, config *RetrieverConfig) *Retriever {
	return &Retriever{
		store:         vectorStore,
		embedProvider: embedProvider,
		config:        config,
	}
}

// Retrieve 检索与问题相关的文档块，按分数降序返回，按 ID 去重。
// 集合不存在或为空时返回空结果，不视为错误。
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]*store.SearchHit, error) {
	exists, err := r.store.HasCollection(ctx, r.config.Collection)
	if err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}
	if !exists {
		return nil, nil
	}

	embedding, err := r.embedProvider.EmbedSingle(ctx, question)
	if err != nil {
		return nil, errors.ErrEmbeddingService.WithCause(err)
	}

	hits, err := r.store.Search(ctx, r.config.Collection, embedding, r.config.TopK, r.config.ScoreThreshold)
	if err != nil {
		return nil, errors.ErrQueryFailed.WithCause(err)
	}

	// 按 ID 去重，保留首次出现（分数最高）的命中
	seen := make(map[string]struct{}, len(hits))
	deduped := hits[:0]
	for _, hit := range hits {
		if _, ok := seen[hit.ID]; ok {
			continue
		}
		seen[hit.ID] = struct{}{}
		deduped = append(deduped, hit)
	}

	logger.Debugw("检索完成",
		"question_length", len(question),
		"hits", len(deduped),
	)
	return deduped, nil
}

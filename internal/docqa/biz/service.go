package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/pkg/llm"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// NoInfoAnswer 检索无结果时返回的固定提示。
const NoInfoAnswer = "No relevant information was found in the uploaded documents for this question."

// Service 定义文档问答服务接口。
type Service interface {
	// Ingest 处理一次 PDF 上传。
	Ingest(ctx context.Context, filename string, data []byte) (*model.IngestSummary, error)
	// Query 回答一个问题。
	Query(ctx context.Context, question string) (*model.QueryResult, error)
	// Health 返回存储健康状态。
	Health(ctx context.Context) (*HealthStatus, error)
	// ClearCollection 删除集合，下次入库时重建。
	ClearCollection(ctx context.Context) error
}

// HealthStatus 存储健康状态。
type HealthStatus struct {
	// Store 存储驱动名称。
	Store string `json:"store"`
	// Collection 集合名称。
	Collection string `json:"collection"`
	// CollectionExists 集合是否存在。
	CollectionExists bool `json:"collection_exists"`
	// ChunkCount 集合中的记录数。
	ChunkCount int64 `json:"chunk_count"`
}

// DocQAService 组合 Indexer、Retriever 和 Synthesizer 提供完整的问答服务。
type DocQAService struct {
	indexer     *Indexer
	retriever   *Retriever
	synthesizer Synthesizer
	store       store.VectorStore
	driver      string
	collection  string
}

// ServiceConfig 问答服务配置。
type ServiceConfig struct {
	IndexerConfig   *IndexerConfig
	RetrieverConfig *RetrieverConfig
	// Driver 存储驱动名称，用于健康检查输出。
	Driver string
}

// NewDocQAService 创建问答服务实例。
func NewDocQAService(
	vectorStore store.VectorStore,
	embedProvider llm.EmbeddingProvider,
	synthesizer Synthesizer,
	config *ServiceConfig,
) *DocQAService {
	return &DocQAService{
		indexer:     NewIndexer(vectorStore, embedProvider, config.IndexerConfig),
		retriever:   NewRetriever(vectorStore, embedProvider, config.RetrieverConfig),
		synthesizer: synthesizer,
		store:       vectorStore,
		driver:      config.Driver,
		collection:  config.IndexerConfig.Collection,
	}
}

// Ingest 处理一次 PDF 上传。
func (s *DocQAService) Ingest(ctx context.Context, filename string, data []byte) (*model.IngestSummary, error) {
	summary, err := s.indexer.Ingest(ctx, filename, data)
	if err != nil {
		return nil, mapTimeout(ctx, err)
	}

	logger.Infow("文档入库完成",
		"filename", summary.Filename,
		"pages", summary.PagesProcessed,
		"chunks_stored", summary.ChunksStored,
	)
	return summary, nil
}

// Query 回答一个问题。检索无结果时返回明确的无信息结果而非错误。
func (s *DocQAService) Query(ctx context.Context, question string) (*model.QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.ErrEmptyQuestion
	}

	hits, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, mapTimeout(ctx, err)
	}

	if len(hits) == 0 {
		return &model.QueryResult{
			Answer:       NoInfoAnswer,
			Mode:         s.synthesizer.Mode(),
			SourcesFound: 0,
			Sources:      []model.ChunkSource{},
		}, nil
	}

	contextText := assembleContext(hits)

	answer, err := s.synthesizer.Synthesize(ctx, question, contextText)
	if err != nil {
		return nil, mapTimeout(ctx, err)
	}

	sources := make([]model.ChunkSource, len(hits))
	for i, hit := range hits {
		sources[i] = model.ChunkSource{
			ID:         hit.ID,
			Filename:   hit.Filename,
			PageLabel:  hit.PageLabel,
			ChunkIndex: hit.ChunkIndex,
			Content:    hit.Text,
			Score:      hit.Score,
		}
	}

	return &model.QueryResult{
		Answer:        answer,
		Mode:          s.synthesizer.Mode(),
		SourcesFound:  len(hits),
		ContextLength: utf8.RuneCountInString(contextText),
		Sources:       sources,
	}, nil
}

// Health 返回存储健康状态。
func (s *DocQAService) Health(ctx context.Context) (*HealthStatus, error) {
	if err := s.store.Ping(ctx); err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	status := &HealthStatus{
		Store:      s.driver,
		Collection: s.collection,
	}

	exists, err := s.store.HasCollection(ctx, s.collection)
	if err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}
	status.CollectionExists = exists

	if exists {
		count, err := s.store.Count(ctx, s.collection)
		if err != nil {
			return nil, errors.ErrStoreUnavailable.WithCause(err)
		}
		status.ChunkCount = count
	}

	return status, nil
}

// ClearCollection 删除集合。集合不存在时幂等成功。
func (s *DocQAService) ClearCollection(ctx context.Context) error {
	if err := s.store.DropCollection(ctx, s.collection); err != nil {
		return errors.ErrStoreUnavailable.WithCause(err)
	}
	logger.Infow("集合已清空", "collection", s.collection)
	return nil
}

// assembleContext 将命中的文档块组装为带来源标注的上下文。
func assembleContext(hits []*store.SearchHit) string {
	var sb strings.Builder
	for i, hit := range hits {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("[%d] From %s (page %s):\n%s", i+1, hit.Filename, hit.PageLabel, hit.Text))
	}
	return sb.String()
}

// mapTimeout 将超出截止时间的失败映射为超时错误码。
func mapTimeout(ctx context.Context, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.ErrOperationTimeout.WithCause(err)
	}
	return err
}

// 确保 DocQAService 实现了 Service 接口。
var _ Service = (*DocQAService)(nil)

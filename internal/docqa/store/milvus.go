package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"
	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/docqa/pkg/component/milvus"
)

// MilvusStore 实现基于 Milvus 的向量存储。
type MilvusStore struct {
	client    *milvus.Client
	batchSize int
}

// NewMilvusStore 创建 Milvus 存储实例。batchSize 控制 Upsert 的
// 单批写入条数，非正数时使用 64。
func NewMilvusStore(client *milvus.Client, batchSize int) *MilvusStore {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &MilvusStore{client: client, batchSize: batchSize}
}

// EnsureCollection 幂等地确保集合存在，已存在时校验向量维度。
func (s *MilvusStore) EnsureCollection(ctx context.Context, config *CollectionConfig) error {
	exists, err := s.client.HasCollection(ctx, config.Name)
	if err != nil {
		return err
	}

	if exists {
		dim, err := s.client.VectorDimension(ctx, config.Name)
		if err != nil {
			return err
		}
		if dim != config.Dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, expected %d",
				ErrDimensionMismatch, config.Name, dim, config.Dimension)
		}
		return nil
	}

	schema := &milvus.CollectionSchema{
		Name:        config.Name,
		Description: config.Description,
		Dimension:   config.Dimension,
		MetaFields: []milvus.MetaField{
			{Name: "text", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
			{Name: "filename", DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: "page_label", DataType: entity.FieldTypeVarChar, MaxLen: 32},
			{Name: "chunk_index", DataType: entity.FieldTypeInt64},
		},
	}
	return s.client.CreateCollection(ctx, schema)
}

// Upsert 分批写入记录。单批失败时记录该批全部 ID 并继续后续批次。
func (s *MilvusStore) Upsert(ctx context.Context, collection string, records []*Record) (int, []string, error) {
	if len(records) == 0 {
		return 0, nil, nil
	}

	stored := 0
	var failed []string

	for start := 0; start < len(records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		data := &milvus.InsertData{
			IDs:        make([]string, len(batch)),
			Embeddings: make([][]float32, len(batch)),
			Metadata: map[string][]any{
				"text":        make([]any, len(batch)),
				"filename":    make([]any, len(batch)),
				"page_label":  make([]any, len(batch)),
				"chunk_index": make([]any, len(batch)),
			},
		}
		for i, r := range batch {
			data.IDs[i] = r.ID
			data.Embeddings[i] = r.Embedding
			data.Metadata["text"][i] = r.Text
			data.Metadata["filename"][i] = r.Filename
			data.Metadata["page_label"][i] = r.PageLabel
			data.Metadata["chunk_index"][i] = r.ChunkIndex
		}

		count, err := s.client.Insert(ctx, collection, data)
		if err != nil {
			logger.Warnw("批量写入失败",
				"collection", collection,
				"batch_start", start,
				"batch_size", len(batch),
				"error", err.Error(),
			)
			for _, r := range batch {
				failed = append(failed, r.ID)
			}
			continue
		}
		stored += int(count)
	}

	if stored == 0 && len(failed) > 0 {
		return 0, failed, fmt.Errorf("all %d batches failed to insert into %s", (len(records)+s.batchSize-1)/s.batchSize, collection)
	}
	return stored, failed, nil
}

// Search 执行向量相似度搜索，过滤低于阈值的命中。
func (s *MilvusStore) Search(ctx context.Context, collection string, embedding []float32, topK int, scoreThreshold float32) ([]*SearchHit, error) {
	outputFields := []string{"text", "filename", "page_label", "chunk_index"}
	results, err := s.client.Search(ctx, collection, embedding, topK, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	hits := make([]*SearchHit, 0, len(results))
	for _, r := range results {
		if r.Score < scoreThreshold {
			continue
		}
		hit := &SearchHit{
			ID:    r.ID,
			Score: r.Score,
		}
		if v, ok := r.Metadata["text"].(string); ok {
			hit.Text = v
		}
		if v, ok := r.Metadata["filename"].(string); ok {
			hit.Filename = v
		}
		if v, ok := r.Metadata["page_label"].(string); ok {
			hit.PageLabel = v
		}
		if v, ok := r.Metadata["chunk_index"].(int64); ok {
			hit.ChunkIndex = v
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// DeleteByFilename 删除指定文件名的全部记录。
func (s *MilvusStore) DeleteByFilename(ctx context.Context, collection, filename string) error {
	// 单引号转义，避免文件名破坏过滤表达式
	escaped := strings.ReplaceAll(filename, `'`, `\'`)
	expr := fmt.Sprintf("filename == '%s'", escaped)
	return s.client.DeleteByFilter(ctx, collection, expr)
}

// DropCollection 删除集合。
func (s *MilvusStore) DropCollection(ctx context.Context, collection string) error {
	exists, err := s.client.HasCollection(ctx, collection)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return s.client.DropCollection(ctx, collection)
}

// HasCollection 检查集合是否存在。
func (s *MilvusStore) HasCollection(ctx context.Context, collection string) (bool, error) {
	return s.client.HasCollection(ctx, collection)
}

// Count 返回集合中的记录数。集合不存在时返回 0。
func (s *MilvusStore) Count(ctx context.Context, collection string) (int64, error) {
	exists, err := s.client.HasCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return s.client.GetCollectionStats(ctx, collection)
}

// Ping 检查 Milvus 是否可达。
func (s *MilvusStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// 确保 MilvusStore 实现了 VectorStore 接口。
var _ VectorStore = (*MilvusStore)(nil)

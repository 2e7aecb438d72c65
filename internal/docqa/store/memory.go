package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kart-io/docqa/internal/pkg/docqa/textutil"
)

// memCollection 内存集合，记录按插入顺序保存。
type memCollection struct {
	dimension int
	records   []*Record
}

// MemoryStore 实现基于内存的向量存储，用精确余弦扫描代替近似索引。
// 用于测试和本地开发（--store.driver=memory），数据不持久化。
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

// NewMemoryStore 创建内存存储实例。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memCollection),
	}
}

// EnsureCollection 幂等地确保集合存在，已存在时校验向量维度。
func (s *MemoryStore) EnsureCollection(_ context.Context, config *CollectionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if coll, ok := s.collections[config.Name]; ok {
		if coll.dimension != config.Dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, expected %d",
				ErrDimensionMismatch, config.Name, coll.dimension, config.Dimension)
		}
		return nil
	}

	s.collections[config.Name] = &memCollection{dimension: config.Dimension}
	return nil
}

// Upsert 写入记录。维度不符的记录计入失败，其余全部成功。
func (s *MemoryStore) Upsert(_ context.Context, collection string, records []*Record) (int, []string, error) {
	if len(records) == 0 {
		return 0, nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return 0, nil, fmt.Errorf("collection %s does not exist", collection)
	}

	stored := 0
	var failed []string
	for _, r := range records {
		if len(r.Embedding) != coll.dimension {
			failed = append(failed, r.ID)
			continue
		}
		coll.records = append(coll.records, r)
		stored++
	}

	return stored, failed, nil
}

// Search 精确扫描全部记录，按余弦相似度降序返回至多 topK 条命中。
func (s *MemoryStore) Search(_ context.Context, collection string, embedding []float32, topK int, scoreThreshold float32) ([]*SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s does not exist", collection)
	}

	hits := make([]*SearchHit, 0, len(coll.records))
	for _, r := range coll.records {
		score := float32(textutil.CosineSimilarity(embedding, r.Embedding))
		if score < scoreThreshold {
			continue
		}
		hits = append(hits, &SearchHit{
			ID:         r.ID,
			Text:       r.Text,
			Filename:   r.Filename,
			ChunkIndex: r.ChunkIndex,
			PageLabel:  r.PageLabel,
			Score:      score,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteByFilename 删除指定文件名的全部记录。
func (s *MemoryStore) DeleteByFilename(_ context.Context, collection, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil
	}

	kept := coll.records[:0]
	for _, r := range coll.records {
		if r.Filename != filename {
			kept = append(kept, r)
		}
	}
	coll.records = kept
	return nil
}

// DropCollection 删除集合。集合不存在时静默成功。
func (s *MemoryStore) DropCollection(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections, collection)
	return nil
}

// HasCollection 检查集合是否存在。
func (s *MemoryStore) HasCollection(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.collections[collection]
	return ok, nil
}

// Count 返回集合中的记录数。集合不存在时返回 0。
func (s *MemoryStore) Count(_ context.Context, collection string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return 0, nil
	}
	return int64(len(coll.records)), nil
}

// Ping 内存存储始终可达。
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close 释放全部集合。
func (s *MemoryStore) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = make(map[string]*memCollection)
	return nil
}

// 确保 MemoryStore 实现了 VectorStore 接口。
var _ VectorStore = (*MemoryStore)(nil)

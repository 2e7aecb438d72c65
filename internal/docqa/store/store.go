package store

import (
	"context"
	"errors"
)

// 驱动名称，对应 --store.driver 配置。
const (
	DriverMilvus = "milvus"
	DriverMemory = "memory"
)

// ErrDimensionMismatch 集合已存在且向量维度与期望不一致。
// 集合从不自动迁移，由调用方决定如何处理。
var ErrDimensionMismatch = errors.New("collection dimension mismatch")

// Record 表示一个待入库的文档块。
type Record struct {
	// ID 记录主键，调用方生成的 UUID。
	ID string
	// Embedding 嵌入向量。
	Embedding []float32
	// Text 块文本内容。
	Text string
	// Filename 来源文件名。
	Filename string
	// ChunkIndex 块在文档内的序号。
	ChunkIndex int64
	// PageLabel 来源页码标签。
	PageLabel string
}

// SearchHit 表示一条检索命中。
type SearchHit struct {
	// ID 记录主键。
	ID string
	// Text 块文本内容。
	Text string
	// Filename 来源文件名。
	Filename string
	// ChunkIndex 块在文档内的序号。
	ChunkIndex int64
	// PageLabel 来源页码标签。
	PageLabel string
	// Score 余弦相似度分数。
	Score float32
}

// CollectionConfig 集合配置。
type CollectionConfig struct {
	// Name 集合名称。
	Name string
	// Description 集合描述。
	Description string
	// Dimension 向量维度。
	Dimension int
}

// VectorStore 定义向量存储接口。
type VectorStore interface {
	// EnsureCollection 幂等地确保集合存在。集合已存在但维度不同时
	// 返回 ErrDimensionMismatch。
	EnsureCollection(ctx context.Context, config *CollectionConfig) error

	// Upsert 批量写入记录。返回成功写入的条数和失败记录的 ID，
	// 部分失败不中断整批。
	Upsert(ctx context.Context, collection string, records []*Record) (int, []string, error)

	// Search 向量相似度搜索。返回至多 topK 条命中，按分数降序，
	// 低于 scoreThreshold 的命中被过滤。空结果合法。
	Search(ctx context.Context, collection string, embedding []float32, topK int, scoreThreshold float32) ([]*SearchHit, error)

	// DeleteByFilename 删除指定文件名的全部记录。
	DeleteByFilename(ctx context.Context, collection, filename string) error

	// DropCollection 删除集合。集合不存在时静默成功。
	DropCollection(ctx context.Context, collection string) error

	// HasCollection 检查集合是否存在。
	HasCollection(ctx context.Context, collection string) (bool, error)

	// Count 返回集合中的记录数。
	Count(ctx context.Context, collection string) (int64, error)

	// Ping 检查存储是否可达。
	Ping(ctx context.Context) error

	// Close 关闭连接。
	Close(ctx context.Context) error
}

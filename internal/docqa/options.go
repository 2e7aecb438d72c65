// Package docqa provides the docqa service application.
package docqa

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/docqa/store"
	httpopts "github.com/kart-io/docqa/pkg/options/http"
	logopts "github.com/kart-io/docqa/pkg/options/logger"
	milvusopts "github.com/kart-io/docqa/pkg/options/milvus"
)

// ChatProviderNone 表示不配置聊天模型，回答降级为原始上下文。
const ChatProviderNone = "none"

// Options contains all docqa service options.
type Options struct {
	// Server contains HTTP server configuration.
	Server *httpopts.Options `json:"server" mapstructure:"server"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// Milvus contains Milvus database configuration.
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// Store contains vector store selection.
	Store *StoreOptions `json:"store" mapstructure:"store"`

	// Embedding contains embedding provider configuration.
	Embedding *LLMProviderOptions `json:"embedding" mapstructure:"embedding"`

	// Chat contains chat provider configuration.
	Chat *LLMProviderOptions `json:"chat" mapstructure:"chat"`

	// DocQA contains pipeline-specific configuration.
	DocQA *DocQAOptions `json:"docqa" mapstructure:"docqa"`
}

// StoreOptions 向量存储选择。
type StoreOptions struct {
	// Driver 存储驱动，milvus 或 memory。
	Driver string `json:"driver" mapstructure:"driver"`
}

// LLMProviderOptions 定义 LLM 供应商配置。
type LLMProviderOptions struct {
	// Provider 供应商名称（openai, ollama；chat 额外支持 none）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥（OpenAI 等需要）。
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// Model 使用的模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *LLMProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"embed_model":  o.Model,
		"chat_model":   o.Model,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
		"organization": o.Organization,
	}
}

// DocQAOptions contains pipeline-specific configuration.
type DocQAOptions struct {
	// Collection is the name of the vector collection.
	Collection string `json:"collection" mapstructure:"collection"`

	// ChunkSize is the size of text chunks in characters.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the overlap between chunks in characters.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// TopK is the number of results to return from similarity search.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// ScoreThreshold is the minimum similarity score for search hits.
	ScoreThreshold float32 `json:"score-threshold" mapstructure:"score-threshold"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// MaxUploadBytes is the maximum accepted upload size.
	MaxUploadBytes int64 `json:"max-upload-bytes" mapstructure:"max-upload-bytes"`

	// UpsertBatchSize is the number of records per store write batch.
	UpsertBatchSize int `json:"upsert-batch-size" mapstructure:"upsert-batch-size"`

	// MaxContextRunes bounds the degraded answer length in characters.
	MaxContextRunes int `json:"max-context-runes" mapstructure:"max-context-runes"`

	// ReuploadPolicy controls re-uploading the same filename, append or replace.
	ReuploadPolicy string `json:"reupload-policy" mapstructure:"reupload-policy"`

	// SystemPrompt is the answer synthesis prompt template.
	SystemPrompt string `json:"system-prompt" mapstructure:"system-prompt"`
}

// NewDocQAOptions creates new DocQAOptions with defaults.
func NewDocQAOptions() *DocQAOptions {
	return &DocQAOptions{
		Collection:      "docqa_chunks",
		ChunkSize:       1000,
		ChunkOverlap:    200,
		TopK:            5,
		ScoreThreshold:  0.1,
		EmbeddingDim:    1536, // text-embedding-3-small dimension
		MaxUploadBytes:  10 * 1024 * 1024,
		UpsertBatchSize: 64,
		MaxContextRunes: 4000,
		ReuploadPolicy:  biz.PolicyAppend,
		SystemPrompt:    biz.DefaultSystemPrompt,
	}
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	embeddingOpts := &LLMProviderOptions{
		Provider:   "openai",
		BaseURL:    "https://api.openai.com/v1",
		Model:      "text-embedding-3-small",
		Timeout:    60 * time.Second,
		MaxRetries: 3,
	}

	// 未配置聊天模型时回答降级为原始上下文
	chatOpts := &LLMProviderOptions{
		Provider:   ChatProviderNone,
		BaseURL:    "https://api.openai.com/v1",
		Model:      "gpt-4o-mini",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}

	return &Options{
		Server:    httpopts.NewOptions(),
		Log:       logopts.NewOptions(),
		Milvus:    milvusopts.NewOptions(),
		Store:     &StoreOptions{Driver: store.DriverMilvus},
		Embedding: embeddingOpts,
		Chat:      chatOpts,
		DocQA:     NewDocQAOptions(),
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Server.AddFlags(fs)
	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs, "milvus.")

	fs.StringVar(&o.Store.Driver, "store.driver", o.Store.Driver, "Vector store driver (milvus, memory)")

	o.addProviderFlags(fs, "embedding", o.Embedding)
	o.addProviderFlags(fs, "chat", o.Chat)
	o.addDocQAFlags(fs)
}

func (o *Options) addProviderFlags(fs *pflag.FlagSet, prefix string, opts *LLMProviderOptions) {
	fs.StringVar(&opts.Provider, prefix+".provider", opts.Provider, "Provider name (openai, ollama)")
	fs.StringVar(&opts.BaseURL, prefix+".base-url", opts.BaseURL, "Provider API base URL")
	fs.StringVar(&opts.APIKey, prefix+".api-key", opts.APIKey, "Provider API key")
	fs.StringVar(&opts.Model, prefix+".model", opts.Model, "Model name")
	fs.DurationVar(&opts.Timeout, prefix+".timeout", opts.Timeout, "Request timeout")
	fs.IntVar(&opts.MaxRetries, prefix+".max-retries", opts.MaxRetries, "Max retries on transient failures")
	fs.StringVar(&opts.Organization, prefix+".organization", opts.Organization, "Organization ID (OpenAI, optional)")
}

func (o *Options) addDocQAFlags(fs *pflag.FlagSet) {
	d := o.DocQA
	fs.StringVar(&d.Collection, "docqa.collection", d.Collection, "Vector collection name")
	fs.IntVar(&d.ChunkSize, "docqa.chunk-size", d.ChunkSize, "Size of text chunks in characters")
	fs.IntVar(&d.ChunkOverlap, "docqa.chunk-overlap", d.ChunkOverlap, "Overlap between chunks in characters")
	fs.IntVar(&d.TopK, "docqa.top-k", d.TopK, "Number of results from similarity search")
	fs.Float32Var(&d.ScoreThreshold, "docqa.score-threshold", d.ScoreThreshold, "Minimum similarity score for search hits")
	fs.IntVar(&d.EmbeddingDim, "docqa.embedding-dim", d.EmbeddingDim, "Embedding vector dimension")
	fs.Int64Var(&d.MaxUploadBytes, "docqa.max-upload-bytes", d.MaxUploadBytes, "Maximum accepted upload size in bytes")
	fs.IntVar(&d.UpsertBatchSize, "docqa.upsert-batch-size", d.UpsertBatchSize, "Records per store write batch")
	fs.IntVar(&d.MaxContextRunes, "docqa.max-context-runes", d.MaxContextRunes, "Degraded answer length bound in characters")
	fs.StringVar(&d.ReuploadPolicy, "docqa.reupload-policy", d.ReuploadPolicy, "Re-upload policy for the same filename (append, replace)")
	fs.StringVar(&d.SystemPrompt, "docqa.system-prompt", d.SystemPrompt, "Answer synthesis prompt template")
}

// Validate validates the options.
func (o *Options) Validate() error {
	if err := o.Server.Validate(); err != nil {
		return err
	}
	if err := o.Log.Validate(); err != nil {
		return err
	}

	switch o.Store.Driver {
	case store.DriverMilvus:
		if errs := o.Milvus.Validate(); len(errs) > 0 {
			return errs[0]
		}
	case store.DriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q", store.DriverMilvus, store.DriverMemory)
	}

	if err := validateProvider("embedding", o.Embedding, false); err != nil {
		return err
	}
	if err := validateProvider("chat", o.Chat, true); err != nil {
		return err
	}

	d := o.DocQA
	if d.ChunkSize <= 0 {
		return fmt.Errorf("docqa.chunk-size must be positive")
	}
	if d.ChunkOverlap < 0 {
		return fmt.Errorf("docqa.chunk-overlap must be non-negative")
	}
	if d.ChunkOverlap >= d.ChunkSize {
		return fmt.Errorf("docqa.chunk-overlap must be smaller than docqa.chunk-size")
	}
	if d.TopK <= 0 {
		return fmt.Errorf("docqa.top-k must be positive")
	}
	if d.ScoreThreshold < -1 || d.ScoreThreshold > 1 {
		return fmt.Errorf("docqa.score-threshold must be within [-1, 1]")
	}
	if d.EmbeddingDim <= 0 {
		return fmt.Errorf("docqa.embedding-dim must be positive")
	}
	if d.MaxUploadBytes <= 0 {
		return fmt.Errorf("docqa.max-upload-bytes must be positive")
	}
	if d.ReuploadPolicy != biz.PolicyAppend && d.ReuploadPolicy != biz.PolicyReplace {
		return fmt.Errorf("docqa.reupload-policy must be %q or %q", biz.PolicyAppend, biz.PolicyReplace)
	}
	return nil
}

// validateProvider 校验供应商配置。noneAllowed 为 true 时允许 none（降级模式）。
func validateProvider(prefix string, opts *LLMProviderOptions, noneAllowed bool) error {
	if opts.Provider == "" {
		return fmt.Errorf("%s.provider is required", prefix)
	}
	if noneAllowed && opts.Provider == ChatProviderNone {
		return nil
	}
	if opts.BaseURL == "" {
		return fmt.Errorf("%s.base-url is required", prefix)
	}
	if opts.Model == "" {
		return fmt.Errorf("%s.model is required", prefix)
	}
	// OpenAI 供应商需要 API key
	if opts.Provider == "openai" && opts.APIKey == "" {
		return fmt.Errorf("%s.api-key is required for openai provider", prefix)
	}
	if opts.Timeout <= 0 {
		return fmt.Errorf("%s.timeout must be positive", prefix)
	}
	return nil
}

// Complete completes the options.
func (o *Options) Complete() error {
	return nil
}

// RequestTimeout returns the per-request processing bound derived from
// provider timeouts.
func (o *Options) RequestTimeout() time.Duration {
	timeout := o.Embedding.Timeout
	if o.Chat.Provider != ChatProviderNone && o.Chat.Timeout > timeout {
		timeout = o.Chat.Timeout
	}
	return timeout
}

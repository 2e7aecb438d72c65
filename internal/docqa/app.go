package docqa

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/docqa/handler"
	"github.com/kart-io/docqa/internal/docqa/router"
	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/pkg/app"
	"github.com/kart-io/docqa/pkg/component/milvus"
	"github.com/kart-io/docqa/pkg/llm"

	// Register LLM providers
	_ "github.com/kart-io/docqa/pkg/llm/ollama"
	_ "github.com/kart-io/docqa/pkg/llm/openai"
)

const (
	appName        = "docqa"
	appDescription = `PDF Question-Answering Service

Upload PDF documents, index their text as searchable chunks, and answer
natural-language questions grounded in the uploaded content.

This server provides:
  - PDF upload with page-aware text extraction and chunking
  - Vector similarity search over embedded chunks
  - Question answering with LLM synthesis or degraded raw-context mode`
)

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
	)
}

// Run runs the docqa service with the given options.
func Run(opts *Options) error {
	// 1. 初始化日志
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infow("Starting docqa service...", "version", app.GetVersion())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 初始化向量存储
	vectorStore, err := newVectorStore(opts)
	if err != nil {
		return err
	}
	defer func() { _ = vectorStore.Close(context.Background()) }()
	logger.Infow("Vector store initialized", "driver", opts.Store.Driver)

	// 3. 初始化 LLM 供应商
	embedProvider, err := llm.NewEmbeddingProvider(opts.Embedding.Provider, opts.Embedding.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	synthesizer, err := newSynthesizer(opts)
	if err != nil {
		return err
	}
	logger.Infow("Providers initialized",
		"embedding_provider", opts.Embedding.Provider,
		"chat_provider", opts.Chat.Provider,
	)

	// 4. 初始化 Biz 层
	service := biz.NewDocQAService(vectorStore, embedProvider, synthesizer, &biz.ServiceConfig{
		Driver: opts.Store.Driver,
		IndexerConfig: &biz.IndexerConfig{
			Collection:     opts.DocQA.Collection,
			ChunkSize:      opts.DocQA.ChunkSize,
			ChunkOverlap:   opts.DocQA.ChunkOverlap,
			EmbeddingDim:   opts.DocQA.EmbeddingDim,
			MaxUploadBytes: opts.DocQA.MaxUploadBytes,
			ReuploadPolicy: opts.DocQA.ReuploadPolicy,
		},
		RetrieverConfig: &biz.RetrieverConfig{
			Collection:     opts.DocQA.Collection,
			TopK:           opts.DocQA.TopK,
			ScoreThreshold: opts.DocQA.ScoreThreshold,
		},
	})

	// 5. 初始化 Handler 层和路由
	docqaHandler := handler.NewDocQAHandler(service, opts.DocQA.MaxUploadBytes, opts.RequestTimeout())
	engine := router.New(docqaHandler, opts.Server.CORSAllowedOrigins)

	// 6. 启动 HTTP 服务器
	srv := &http.Server{
		Addr:         opts.Server.Addr,
		Handler:      engine,
		ReadTimeout:  opts.Server.ReadTimeout,
		WriteTimeout: opts.Server.WriteTimeout,
		IdleTimeout:  opts.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", opts.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down docqa service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	logger.Info("docqa service stopped")
	return nil
}

// newVectorStore 根据配置的驱动创建向量存储。
func newVectorStore(opts *Options) (store.VectorStore, error) {
	switch opts.Store.Driver {
	case store.DriverMemory:
		return store.NewMemoryStore(), nil
	case store.DriverMilvus:
		client, err := milvus.New(opts.Milvus)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize milvus: %w", err)
		}
		return store.NewMilvusStore(client, opts.DocQA.UpsertBatchSize), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", opts.Store.Driver)
	}
}

// newSynthesizer 根据聊天供应商配置创建回答合成器。
func newSynthesizer(opts *Options) (biz.Synthesizer, error) {
	if opts.Chat.Provider == ChatProviderNone {
		logger.Warn("No chat provider configured, answers degrade to raw context")
		return biz.NewDegradedSynthesizer(opts.DocQA.MaxContextRunes), nil
	}

	chatProvider, err := llm.NewChatProvider(opts.Chat.Provider, opts.Chat.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	return biz.NewLLMSynthesizer(chatProvider, opts.DocQA.SystemPrompt), nil
}

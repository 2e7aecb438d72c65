package httpclient

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// setupTracer 设置测试用的 OpenTelemetry Tracer 和 W3C 传播器。
func setupTracer() (trace.Tracer, *sdktrace.TracerProvider) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Tracer("docqa-test"), tp
}

// W3C traceparent 最小长度: version(2) + trace_id(32) + parent_id(16) + flags(2) + 3 个分隔符
const minTraceparentLen = 55

// TestInjectTraceContextWithSpan 有活跃 Span 时注入 traceparent 头。
func TestInjectTraceContextWithSpan(t *testing.T) {
	tracer, tp := setupTracer()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	client := NewClient(10*time.Second, 0)

	ctx, span := tracer.Start(context.Background(), "ingest-embed")
	defer span.End()

	req := httptest.NewRequest(http.MethodPost, "http://llm.internal/embeddings", nil)
	req = req.WithContext(ctx)

	client.injectTraceContext(req)

	traceparent := req.Header.Get("traceparent")
	if traceparent == "" {
		t.Fatal("expected traceparent header to be set, got empty")
	}
	if len(traceparent) < minTraceparentLen {
		t.Errorf("traceparent format invalid: %s", traceparent)
	}
}

// TestInjectTraceContextSkipped 无 Span、nil 请求、无传播器时跳过注入且不 panic。
func TestInjectTraceContextSkipped(t *testing.T) {
	_, tp := setupTracer()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	client := NewClient(10*time.Second, 0)

	t.Run("无活跃Span", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "http://llm.internal/embeddings", nil)
		client.injectTraceContext(req)

		if got := req.Header.Get("traceparent"); got != "" {
			t.Errorf("expected no traceparent header, got: %s", got)
		}
	})

	t.Run("nil请求", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("injectTraceContext panicked with nil request: %v", r)
			}
		}()
		client.injectTraceContext(nil)
	})

	t.Run("无全局传播器", func(t *testing.T) {
		original := otel.GetTextMapPropagator()
		defer otel.SetTextMapPropagator(original)
		otel.SetTextMapPropagator(nil)

		req := httptest.NewRequest(http.MethodPost, "http://llm.internal/embeddings", nil)
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("injectTraceContext panicked with nil propagator: %v", r)
			}
		}()
		client.injectTraceContext(req)

		if got := req.Header.Get("traceparent"); got != "" {
			t.Errorf("expected no traceparent header, got: %s", got)
		}
	})
}

// TestDoJSONPropagatesTraceContext 端到端验证追踪头传播到嵌入服务。
func TestDoJSONPropagatesTraceContext(t *testing.T) {
	tracer, tp := setupTracer()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var receivedTraceparent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedTraceparent = r.Header.Get("traceparent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2],"index":0}]}`))
	}))
	defer server.Close()

	client := NewClient(10*time.Second, 0)

	ctx, span := tracer.Start(context.Background(), "query-embed")
	defer span.End()

	body := bytes.NewReader([]byte(`{"model":"text-embedding-3-small","input":["question"]}`))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL+"/embeddings", body)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := client.DoJSON(req, &result); err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}

	if len(result.Data) != 1 || len(result.Data[0].Embedding) != 2 {
		t.Errorf("unexpected response decoded: %+v", result)
	}
	if receivedTraceparent == "" {
		t.Fatal("embedding endpoint did not receive traceparent header")
	}
	if len(receivedTraceparent) < minTraceparentLen {
		t.Errorf("invalid traceparent format received: %s", receivedTraceparent)
	}
}

// BenchmarkInjectTraceContext 追踪注入的开销。
func BenchmarkInjectTraceContext(b *testing.B) {
	tracer, tp := setupTracer()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	client := NewClient(10*time.Second, 0)

	ctx, span := tracer.Start(context.Background(), "ingest-embed")
	defer span.End()

	req := httptest.NewRequest(http.MethodPost, "http://llm.internal/embeddings", nil)
	req = req.WithContext(ctx)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		client.injectTraceContext(req)
	}
}

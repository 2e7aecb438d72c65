package biz

import (
	"context"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/internal/pkg/docqa/textutil"
	"github.com/kart-io/docqa/pkg/llm"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// DefaultSystemPrompt 默认的回答合成提示词模板。
const DefaultSystemPrompt = `You are a document question-answering assistant. Answer the question using ONLY the provided context. If the context does not contain the answer, say you could not find the information in the document. Cite the page numbers given in the context.

Context:
{{context}}

Question: {{question}}

Answer:`

// Synthesizer 根据检索到的上下文合成回答。
type Synthesizer interface {
	// Synthesize 生成回答。contextText 为组装好的上下文块。
	Synthesize(ctx context.Context, question, contextText string) (string, error)

	// Mode 返回回答生成模式标签。
	Mode() string
}

// LLMSynthesizer 调用聊天模型合成回答。
type LLMSynthesizer struct {
	chatProvider llm.ChatProvider
	systemPrompt string
}

// NewLLMSynthesizer 创建基于聊天模型的合成器。systemPrompt 为空时使用
// 默认模板，模板中的 {{context}} 和 {{question}} 占位符被替换。
func NewLLMSynthesizer(chatProvider llm.ChatProvider, systemPrompt string) *LLMSynthesizer {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &LLMSynthesizer{
		chatProvider: chatProvider,
		systemPrompt: systemPrompt,
	}
}

// Synthesize 渲染提示词并调用聊天模型。
func (s *LLMSynthesizer) Synthesize(ctx context.Context, question, contextText string) (string, error) {
	prompt := strings.ReplaceAll(s.systemPrompt, "{{context}}", contextText)
	prompt = strings.ReplaceAll(prompt, "{{question}}", question)

	resp, err := s.chatProvider.Generate(ctx, prompt, "")
	if err != nil {
		return "", errors.ErrChatService.WithCause(err)
	}

	if resp.TokenUsage != nil {
		logger.Infow("回答生成完成",
			"answer_length", len(resp.Content),
			"total_tokens", resp.TokenUsage.TotalTokens,
		)
	}
	return resp.Content, nil
}

// Mode 返回 llm 模式标签。
func (s *LLMSynthesizer) Mode() string {
	return model.ModeLLM
}

// DegradedSynthesizer 在未配置聊天模型时返回截断的原始上下文。
// 输出始终以 degraded 模式标记，不会被误认为模型合成的回答。
type DegradedSynthesizer struct {
	maxContextRunes int
}

// NewDegradedSynthesizer 创建降级合成器。maxContextRunes 非正数时使用 4000。
func NewDegradedSynthesizer(maxContextRunes int) *DegradedSynthesizer {
	if maxContextRunes <= 0 {
		maxContextRunes = 4000
	}
	return &DegradedSynthesizer{maxContextRunes: maxContextRunes}
}

// Synthesize 返回截断到上限的原始上下文。
func (s *DegradedSynthesizer) Synthesize(_ context.Context, _ string, contextText string) (string, error) {
	return textutil.TruncateString(contextText, s.maxContextRunes), nil
}

// Mode 返回 degraded 模式标签。
func (s *DegradedSynthesizer) Mode() string {
	return model.ModeDegraded
}

// 确保两种合成器都实现了 Synthesizer 接口。
var (
	_ Synthesizer = (*LLMSynthesizer)(nil)
	_ Synthesizer = (*DegradedSynthesizer)(nil)
)

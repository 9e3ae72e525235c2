package pipeline

import (
	"context"
	"fmt"

	"github.com/qs3c/findoc_server/config"
)

// NewGenerator 按 pipeline.provider 创建生成器
func NewGenerator(ctx context.Context, cfg *config.PipelineConfig) (Generator, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return NewAnthropicGenerator(cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature), nil
	case "gemini":
		return NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unsupported pipeline provider: %q", cfg.Provider)
	}
}

// New 根据配置组装完整流水线
func New(ctx context.Context, cfg *config.Config) (*LLMPipeline, error) {
	generator, err := NewGenerator(ctx, &cfg.Pipeline)
	if err != nil {
		return nil, err
	}

	var searcher Searcher
	if cfg.Search.APIKey != "" {
		searcher = NewTavilySearcher(cfg.Search.APIKey, cfg.Search.APIURL)
	}

	return NewLLMPipeline(generator, searcher, Options{
		Timeout:           cfg.Pipeline.Timeout,
		DocumentCharLimit: cfg.Pipeline.DocumentCharLimit,
	}), nil
}

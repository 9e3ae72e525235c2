package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
)

// ErrPipeline 任一阶段失败（包括超时）都会包装该错误
var ErrPipeline = errors.New("pipeline failed")

const (
	StageMarketResearch    = "market_research"
	StageFinancialAnalysis = "financial_analysis"
	StageVerification      = "verification"
)

// Section 一个阶段的命名输出
type Section struct {
	Name string
	Text string
}

// Pipeline 给定查询和文档文本，按固定顺序产出各阶段输出
type Pipeline interface {
	Run(ctx context.Context, query, documentText string) ([]Section, error)
}

// StageError 某个阶段失败
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrPipeline, e.Err}
}

// Generator 单次文本生成
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Searcher 网络检索，结果拼进市场研究阶段的提示词
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Options LLMPipeline 参数
type Options struct {
	Timeout           time.Duration // 单次生成调用的超时
	DocumentCharLimit int           // 提示词中文档文本的最大字符数，<=0 不截断
}

// LLMPipeline 三个阶段串行执行，后一阶段的提示词包含之前所有阶段的输出
type LLMPipeline struct {
	generator Generator
	searcher  Searcher
	opts      Options
	stages    []stage
}

// NewLLMPipeline searcher 可以为 nil
func NewLLMPipeline(generator Generator, searcher Searcher, opts Options) *LLMPipeline {
	return &LLMPipeline{
		generator: generator,
		searcher:  searcher,
		opts:      opts,
		stages:    defaultStages,
	}
}

func (p *LLMPipeline) Run(ctx context.Context, query, documentText string) ([]Section, error) {
	document := truncateRunes(documentText, p.opts.DocumentCharLimit)
	sections := make([]Section, 0, len(p.stages))

	for _, st := range p.stages {
		notifyStage(ctx, st.name)

		var research string
		if st.search && p.searcher != nil {
			research = p.research(ctx, query)
		}

		prompt := st.prompt(query, document, research, sections)

		start := time.Now()
		text, err := p.generate(ctx, st.system, prompt)
		if err != nil {
			return nil, &StageError{Stage: st.name, Err: err}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, &StageError{Stage: st.name, Err: errors.New("empty output")}
		}

		log.Info().Str("stage", st.name).Int("chars", len(text)).Dur("elapsed", time.Since(start)).Msg("pipeline stage finished")
		sections = append(sections, Section{Name: st.name, Text: text})
	}

	return sections, nil
}

func (p *LLMPipeline) generate(ctx context.Context, system, prompt string) (string, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, err := p.generator.Generate(ctx, system, prompt)
		done <- reply{text, err}
	}()

	// 部分 SDK 不一定及时响应 ctx，这里以超时为准
	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *LLMPipeline) research(ctx context.Context, query string) string {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	results, err := p.searcher.Search(ctx, query)
	if err != nil {
		log.Warn().Err(err).Msg("web search failed, continuing without it")
		return ""
	}
	return results
}

type observerKey struct{}

// WithStageObserver 在 ctx 上挂一个回调，每个阶段开始前以阶段名调用
func WithStageObserver(ctx context.Context, fn func(stage string)) context.Context {
	return context.WithValue(ctx, observerKey{}, fn)
}

func notifyStage(ctx context.Context, stage string) {
	if fn, ok := ctx.Value(observerKey{}).(func(string)); ok && fn != nil {
		fn(stage)
	}
}

// Outputs 按阶段名取输出
func Outputs(sections []Section) map[string]string {
	out := make(map[string]string, len(sections))
	for _, s := range sections {
		out[s.Name] = s.Text
	}
	return out
}

var reportSeparators = map[string]string{
	StageFinancialAnalysis: "\n\n--- FINANCIAL ANALYSIS ---\n\n",
	StageVerification:      "\n\n--- VERIFICATION REPORT ---\n\n",
}

// FullReport 把各阶段输出拼成完整报告
func FullReport(sections []Section) string {
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			sep, ok := reportSeparators[s.Name]
			if !ok {
				sep = fmt.Sprintf("\n\n--- %s ---\n\n", strings.ToUpper(strings.ReplaceAll(s.Name, "_", " ")))
			}
			b.WriteString(sep)
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

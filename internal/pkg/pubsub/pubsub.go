package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelAnalysisProgress = "financial_analysis_progress"
)

// ProgressMessage 进度消息
type ProgressMessage struct {
	Type     string `json:"type"`
	JobID    string `json:"job_id"`
	UserRef  string `json:"user_ref,omitempty"`
	Status   string `json:"status"`
	Step     string `json:"step"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// 进度阶段常量
const (
	StepQueued            = "queued"
	StepExtracting        = "extracting"
	StepMarketResearch    = "market_research"
	StepFinancialAnalysis = "financial_analysis"
	StepVerification      = "verification"
	StepSaving            = "saving"
	StepDone              = "done"
	StepFailed            = "failed"
)

// 阶段对应的进度百分比
var StepProgress = map[string]int{
	StepQueued:            5,
	StepExtracting:        15,
	StepMarketResearch:    30,
	StepFinancialAnalysis: 55,
	StepVerification:      75,
	StepSaving:            90,
	StepDone:              100,
}

// 阶段对应的消息
var StepMessages = map[string]string{
	StepQueued:            "等待处理",
	StepExtracting:        "正在提取文档文本",
	StepMarketResearch:    "正在进行市场研究",
	StepFinancialAnalysis: "正在进行财务分析",
	StepVerification:      "正在核查分析结果",
	StepSaving:            "正在保存结果",
	StepDone:              "分析完成",
	StepFailed:            "分析失败",
}

// Fill 自动填充类型、进度和消息
func (m *ProgressMessage) Fill() {
	m.Type = "job_progress"
	if m.Progress == 0 && m.Step != "" {
		if progress, ok := StepProgress[m.Step]; ok {
			m.Progress = progress
		}
	}
	if m.Message == "" && m.Step != "" {
		if message, ok := StepMessages[m.Step]; ok {
			m.Message = message
		}
	}
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishProgress 发布进度消息
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	msg.Fill()

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	return p.client.Publish(ctx, ChannelAnalysisProgress, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅进度消息
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ProgressMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelAnalysisProgress)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var progressMsg ProgressMessage
			if err := json.Unmarshal([]byte(msg.Payload), &progressMsg); err != nil {
				continue // 忽略解析错误
			}

			handler(&progressMsg)
		}
	}
}

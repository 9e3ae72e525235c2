package report

import (
	"strings"

	"github.com/qs3c/findoc_server/internal/model"
)

// PrefixLength 结构识别全部失败时截取全文的前缀长度（字符）
const PrefixLength = 500

// StageOutputs 流水线各阶段的原始输出，缺失时为空串
type StageOutputs struct {
	MarketResearch    string
	FinancialAnalysis string
	Verification      string
}

// Derive 生成入库的结构化字段。
// 每个字段依次尝试：阶段输出、在全文中按规范名截取、全文前缀。
// 投资建议和风险评估没有对应阶段，只在全文中截取。
func Derive(stages StageOutputs, fullReport string) *model.AnalysisResult {
	prefix := Prefix(fullReport, PrefixLength)

	verification := firstNonEmpty(
		strings.TrimSpace(stages.Verification),
		ExtractSection(fullReport, "verification"),
		prefix,
	)

	confidenceSource := strings.TrimSpace(stages.Verification)
	if confidenceSource == "" {
		confidenceSource = fullReport
	}

	return &model.AnalysisResult{
		MarketResearch: firstNonEmpty(
			strings.TrimSpace(stages.MarketResearch),
			ExtractSection(fullReport, "market research"),
			prefix,
		),
		FinancialAnalysis: firstNonEmpty(
			strings.TrimSpace(stages.FinancialAnalysis),
			ExtractSection(fullReport, "financial analysis"),
			ExtractSection(fullReport, "executive summary"),
			prefix,
		),
		InvestmentRecommendation: firstNonEmpty(
			ExtractSection(fullReport, "investment recommendation"),
			ExtractSection(fullReport, "recommendation"),
			prefix,
		),
		RiskAssessment: firstNonEmpty(
			ExtractSection(fullReport, "risk assessment"),
			ExtractSection(fullReport, "risk factors"),
			prefix,
		),
		VerificationReport: verification,
		FullReport:         fullReport,
		ConfidenceRating:   ClassifyConfidence(confidenceSource),
	}
}

// Prefix 按字符截取前 n 个字符，不会切断多字节字符
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

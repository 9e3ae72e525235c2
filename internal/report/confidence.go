package report

import (
	"strings"

	"github.com/qs3c/findoc_server/internal/model"
)

var confidenceOrder = []model.Confidence{
	model.ConfidenceHigh,
	model.ConfidenceMedium,
	model.ConfidenceLow,
}

// ClassifyConfidence 从核查报告推断置信度，依次检查 HIGH、MEDIUM、LOW，都没有时返回 HIGH
func ClassifyConfidence(text string) model.Confidence {
	if text == "" {
		return model.ConfidenceHigh
	}

	upper := strings.ToUpper(text)
	qualified := strings.Contains(upper, "CONFIDENCE") || strings.Contains(upper, "RATING")

	for _, level := range confidenceOrder {
		kw := string(level)
		if qualified && strings.Contains(upper, kw) {
			return level
		}
		if strings.Contains(upper, kw+" CONFIDENCE") || strings.Contains(upper, "CONFIDENCE: "+kw) {
			return level
		}
	}
	return model.ConfidenceHigh
}

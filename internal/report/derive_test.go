package report

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/qs3c/findoc_server/internal/model"
)

func TestDerive_PrefersStageOutputs(t *testing.T) {
	full := "## Investment Recommendation\nHold the position until the next earnings release.\n" +
		"## Risk Assessment\nRefinancing risk is the main concern for 2025.\n## End"

	result := Derive(StageOutputs{
		MarketResearch:    "market stage",
		FinancialAnalysis: "financial stage",
		Verification:      "Verified. LOW CONFIDENCE in segment data.",
	}, full)

	assert.Equal(t, "market stage", result.MarketResearch)
	assert.Equal(t, "financial stage", result.FinancialAnalysis)
	assert.Equal(t, "Verified. LOW CONFIDENCE in segment data.", result.VerificationReport)
	assert.Equal(t, "Hold the position until the next earnings release.", result.InvestmentRecommendation)
	assert.Equal(t, "Refinancing risk is the main concern for 2025.", result.RiskAssessment)
	assert.Equal(t, model.ConfidenceLow, result.ConfidenceRating)
	assert.Equal(t, full, result.FullReport)
}

func TestDerive_FallsBackToSections(t *testing.T) {
	full := "## Market Research\nDemand for the product line keeps growing in Asia.\n" +
		"## Executive Summary\nThe company remains profitable with low leverage.\n" +
		"## Verification\nAll figures match the audited statements. Rating: medium\n## End"

	result := Derive(StageOutputs{}, full)

	assert.Equal(t, "Demand for the product line keeps growing in Asia.", result.MarketResearch)
	assert.Equal(t, "The company remains profitable with low leverage.", result.FinancialAnalysis)
	assert.Equal(t, "All figures match the audited statements. Rating: medium", result.VerificationReport)
	assert.Equal(t, model.ConfidenceMedium, result.ConfidenceRating)
}

func TestDerive_FallsBackToPrefix(t *testing.T) {
	full := strings.Repeat("unstructured prose ", 100)

	result := Derive(StageOutputs{}, full)

	want := full[:PrefixLength]
	assert.Equal(t, want, result.MarketResearch)
	assert.Equal(t, want, result.FinancialAnalysis)
	assert.Equal(t, want, result.InvestmentRecommendation)
	assert.Equal(t, want, result.RiskAssessment)
	assert.Equal(t, want, result.VerificationReport)
	assert.Equal(t, model.ConfidenceHigh, result.ConfidenceRating)
}

func TestDerive_EveryFieldPopulated(t *testing.T) {
	result := Derive(StageOutputs{Verification: "ok"}, "short report")

	for _, v := range []string{
		result.MarketResearch,
		result.FinancialAnalysis,
		result.InvestmentRecommendation,
		result.RiskAssessment,
		result.VerificationReport,
		result.FullReport,
	} {
		assert.NotEmpty(t, v)
	}
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "abc", Prefix("abcdef", 3))
	assert.Equal(t, "ab", Prefix("ab", 3))
	assert.Equal(t, "", Prefix("ab", 0))

	got := Prefix(strings.Repeat("财报", 10), 5)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 5, utf8.RuneCountInString(got))
}

package pipeline

import (
	"fmt"
	"strings"
)

type stage struct {
	name   string
	system string
	search bool
	prompt func(query, document, research string, previous []Section) string
}

var defaultStages = []stage{
	{
		name:   StageMarketResearch,
		search: true,
		system: "You are a senior market research analyst who delivers concise, high-impact reports of 600-800 words. " +
			"Focus on the market factors that matter for investment decisions and cite specific numbers and dates.",
		prompt: marketResearchPrompt,
	},
	{
		name: StageFinancialAnalysis,
		system: "You are a senior financial analyst. Produce a complete but concise analysis of 800-1000 words with an " +
			"executive summary, 5-7 key metrics, a clear BUY/HOLD/SELL recommendation with three reasons, and integrated market context. " +
			"Use markdown headers: ## Executive Summary, ## Financial Analysis, ## Investment Recommendation, ## Risk Assessment.",
		prompt: financialAnalysisPrompt,
	},
	{
		name: StageVerification,
		system: "You are a meticulous financial document verifier. Deliver a focused validation report of 400-500 words " +
			"that cross-checks the key figures and the recommendation logic, and ends with an explicit line " +
			"'CONFIDENCE: HIGH', 'CONFIDENCE: MEDIUM' or 'CONFIDENCE: LOW'.",
		prompt: verificationPrompt,
	},
}

func marketResearchPrompt(query, document, research string, _ []Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research current market trends and economic data related to: %s\n\n", query)
	if research != "" {
		fmt.Fprintf(&b, "Web search results:\n%s\n\n", research)
	}
	fmt.Fprintf(&b, "Financial document:\n%s\n", document)
	return b.String()
}

func financialAnalysisPrompt(query, document, _ string, previous []Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the financial document to answer: %s\n", query)
	b.WriteString("Extract key financial metrics and provide professional analysis.\n\n")
	writePrevious(&b, previous)
	fmt.Fprintf(&b, "Financial document:\n%s\n", document)
	return b.String()
}

func verificationPrompt(query, document, _ string, previous []Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verify the financial document and the analysis below for completeness and accuracy. Original question: %s\n\n", query)
	writePrevious(&b, previous)
	fmt.Fprintf(&b, "Financial document:\n%s\n", document)
	return b.String()
}

func writePrevious(b *strings.Builder, previous []Section) {
	if len(previous) == 0 {
		return
	}
	b.WriteString("Output of earlier stages:\n")
	b.WriteString(FullReport(previous))
	b.WriteString("\n\n")
}

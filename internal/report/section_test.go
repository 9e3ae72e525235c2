package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSection_StopsAtNextHeader(t *testing.T) {
	text := "## Risk Assessment\nMarket volatility is elevated.\n## Market Integration"

	assert.Equal(t, "Market volatility is elevated.", ExtractSection(text, "risk assessment"))
}

func TestExtractSection(t *testing.T) {
	body := "Revenue grew 14% while operating margin expanded to 21%."

	tests := []struct {
		name    string
		text    string
		section string
		want    string
	}{
		{
			name:    "markdown header",
			text:    "# Report\n\n## Financial Analysis\n" + body + "\n## Next",
			section: "financial analysis",
			want:    body,
		},
		{
			name:    "bold marker",
			text:    "**Market Research**\n" + body + "\n**Other**",
			section: "market research",
			want:    body,
		},
		{
			name:    "colon label strips colon",
			text:    "Verification: " + body,
			section: "verification",
			want:    body,
		},
		{
			name:    "horizontal rule ends section",
			text:    "## Verification\n" + body + "\n---\ntrailing notes that are long enough",
			section: "verification",
			want:    body,
		},
		{
			name:    "double blank line ends section",
			text:    "## Verification\n" + body + "\n\n\nappendix text follows here",
			section: "verification",
			want:    body,
		},
		{
			name:    "investment synonym",
			text:    "Final Recommendation\nAccumulate shares below the 200 day average.",
			section: "investment",
			want:    "Accumulate shares below the 200 day average.",
		},
		{
			name:    "risk synonym",
			text:    "Key risks: customer concentration and foreign exchange swings.",
			section: "risk",
			want:    "customer concentration and foreign exchange swings.",
		},
		{
			name:    "no marker",
			text:    "Nothing structured here at all, only prose about revenue.",
			section: "risk assessment",
			want:    "",
		},
		{
			name:    "header without body",
			text:    "## Risk Assessment\nTBD\n## Next",
			section: "risk assessment",
			want:    "",
		},
		{
			name:    "empty text",
			text:    "",
			section: "risk assessment",
			want:    "",
		},
		{
			name:    "empty name",
			text:    body,
			section: "  ",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSection(tt.text, tt.section))
		})
	}
}

func TestExtractSection_PriorityBeatsPosition(t *testing.T) {
	// "risk assessment:" appears first in the text, but "## risk assessment" has higher priority
	text := "Risk assessment: preliminary notes that are fairly long here.\n\n\n" +
		"## Risk Assessment\nLiquidity risk dominates the outlook for next year.\n## End"

	assert.Equal(t, "Liquidity risk dominates the outlook for next year.", ExtractSection(text, "risk assessment"))
}

func TestExtractSection_FirstOccurrenceOnly(t *testing.T) {
	text := "## Verification\nFirst verification block with enough text.\n## Other\n" +
		"## Verification\nSecond verification block with enough text."

	assert.Equal(t, "First verification block with enough text.", ExtractSection(text, "verification"))
}

func TestExtractSection_EarliestEndMarker(t *testing.T) {
	// "\n**" comes before "\n## " in the list order of checks but later in text
	text := "## Verification\nChecked against the filed statements.\n---\nmore\n**Bold**\n## Next"

	assert.Equal(t, "Checked against the filed statements.", ExtractSection(text, "verification"))
}

func TestExtractSection_NonASCIIOffsets(t *testing.T) {
	text := "İİİ résumé ## Risk Assessment\nMarket volatility is elevated.\n## Market Integration"

	assert.Equal(t, "Market volatility is elevated.", ExtractSection(text, "risk assessment"))
}

func TestExtractSection_ShortMarkerNearEnd(t *testing.T) {
	text := strings.Repeat("x", 40) + "\n## Risk"

	assert.NotPanics(t, func() {
		assert.Equal(t, "", ExtractSection(text, "risk"))
	})
}

func TestMarkers(t *testing.T) {
	markers := Markers("Risk Assessment")
	assert.Equal(t, "## risk assessment", markers[0])
	assert.Contains(t, markers, "key risks:")
	assert.NotContains(t, markers, "investment advice")

	assert.Contains(t, Markers("investment recommendation"), "buy/hold/sell recommendation")
	assert.Nil(t, Markers(""))
}

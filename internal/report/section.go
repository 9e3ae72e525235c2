package report

import (
	"strings"
	"unicode/utf8"
)

// MinSectionLength 截取结果少于该字符数视为只匹配到了标题
const MinSectionLength = 30

// endLookahead 标记之后至少跳过的字节数，再开始找下一节的起点
const endLookahead = 10

var sectionEndMarkers = []string{"\n## ", "\n# ", "\n**", "\n---", "\n\n\n"}

var investmentMarkers = []string{
	"## investment recommendation",
	"**investment recommendation**",
	"investment recommendation:",
	"recommendation:",
	"final recommendation",
	"buy/hold/sell recommendation",
	"investment advice",
}

var riskMarkers = []string{
	"## risk assessment",
	"**risk assessment**",
	"risk assessment:",
	"**risk factors**",
	"risk factors:",
	"risk analysis",
	"key risks:",
	"main risks:",
}

// Markers 按优先级返回 name 对应的候选标记（全部小写）
func Markers(name string) []string {
	n := asciiLower(strings.TrimSpace(name))
	if n == "" {
		return nil
	}

	markers := []string{
		"## " + n,
		"# " + n,
		"**" + n + "**",
		n + ":",
		n + " summary",
		n + " analysis",
		n + " report",
	}
	if strings.Contains(n, "investment") {
		markers = append(markers, investmentMarkers...)
	}
	if strings.Contains(n, "risk") {
		markers = append(markers, riskMarkers...)
	}
	return markers
}

// ExtractSection 在自由文本中按标记启发式地截取一节内容，找不到时返回空串。
// 按优先级取第一个出现过的标记，而不是文中位置最靠前的标记；同一标记多次出现时只用第一处。
func ExtractSection(text, name string) string {
	if text == "" {
		return ""
	}
	markers := Markers(name)
	if len(markers) == 0 {
		return ""
	}

	lower := asciiLower(text)

	start, marker := -1, ""
	for _, m := range markers {
		if pos := strings.Index(lower, m); pos != -1 {
			start, marker = pos, m
			break
		}
	}
	if start == -1 {
		return ""
	}

	end := len(text)
	if from := start + len(marker) + endLookahead; from < len(text) {
		for _, m := range sectionEndMarkers {
			if pos := strings.Index(text[from:], m); pos != -1 && from+pos < end {
				end = from + pos
			}
		}
	}

	body := strings.TrimSpace(text[start+len(marker) : end])
	body = strings.TrimSpace(strings.TrimPrefix(body, ":"))

	if utf8.RuneCountInString(body) < MinSectionLength {
		return ""
	}
	return body
}

// asciiLower 只转换 ASCII 字母，保证与原文字节偏移一致
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

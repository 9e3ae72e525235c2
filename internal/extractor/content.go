package extractor

import (
	"strconv"
	"strings"
)

// tjSpaceThreshold TJ 数组中小于该值的位移视为单词间距
const tjSpaceThreshold = -200

// TextFromContent 从解码后的页面内容流中取出文本绘制操作符（Tj TJ ' "）的字符串。
// 只处理单字节编码的字符串，复合字体的 CID 不做映射。
func TextFromContent(content []byte) string {
	sc := &contentScanner{data: content}
	var out strings.Builder
	var operands []token

	for {
		tok, ok := sc.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "Tj":
			writeLastString(&out, operands)
		case "'", "\"":
			newline(&out)
			writeLastString(&out, operands)
		case "TJ":
			for _, op := range operands {
				switch op.kind {
				case tokString:
					out.WriteString(op.text)
				case tokNumber:
					if n, err := strconv.ParseFloat(op.text, 64); err == nil && n < tjSpaceThreshold {
						out.WriteByte(' ')
					}
				}
			}
		case "Td", "TD", "T*", "Tm", "ET":
			newline(&out)
		}
		operands = operands[:0]
	}

	return strings.TrimSpace(out.String())
}

func newline(out *strings.Builder) {
	if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
		out.WriteByte('\n')
	}
}

func writeLastString(out *strings.Builder, operands []token) {
	for i := len(operands) - 1; i >= 0; i-- {
		if operands[i].kind == tokString {
			out.WriteString(operands[i].text)
			return
		}
	}
}

type tokenKind int

const (
	tokOperator tokenKind = iota
	tokString
	tokNumber
	tokOther
)

type token struct {
	kind tokenKind
	text string
}

type contentScanner struct {
	data []byte
	pos  int
}

func (s *contentScanner) next() (token, bool) {
	s.skipSpaceAndComments()
	if s.pos >= len(s.data) {
		return token{}, false
	}

	c := s.data[s.pos]
	switch {
	case c == '(':
		return token{kind: tokString, text: s.literalString()}, true
	case c == '<' && s.peek(1) == '<':
		s.pos += 2
		return token{kind: tokOther, text: "<<"}, true
	case c == '>' && s.peek(1) == '>':
		s.pos += 2
		return token{kind: tokOther, text: ">>"}, true
	case c == '<':
		return token{kind: tokString, text: s.hexString()}, true
	case c == '[' || c == ']' || c == '{' || c == '}':
		s.pos++
		return token{kind: tokOther, text: string(c)}, true
	case c == '/':
		start := s.pos
		s.pos++
		s.skipRegular()
		return token{kind: tokOther, text: string(s.data[start:s.pos])}, true
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		start := s.pos
		s.skipRegular()
		return token{kind: tokNumber, text: string(s.data[start:s.pos])}, true
	default:
		start := s.pos
		s.skipRegular()
		if s.pos == start {
			s.pos++
		}
		return token{kind: tokOperator, text: string(s.data[start:s.pos])}, true
	}
}

func (s *contentScanner) peek(offset int) byte {
	if s.pos+offset < len(s.data) {
		return s.data[s.pos+offset]
	}
	return 0
}

func (s *contentScanner) skipSpaceAndComments() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isSpace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		return
	}
}

func (s *contentScanner) skipRegular() {
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
}

func (s *contentScanner) literalString() string {
	s.pos++ // (
	var b strings.Builder
	depth := 1

	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return b.String()
			}
			b.WriteByte(c)
		case '\\':
			if s.pos >= len(s.data) {
				return b.String()
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b', 'f':
			case '\r':
				if s.peek(0) == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; i++ {
						v = v*8 + int(s.data[s.pos]-'0')
						s.pos++
					}
					b.WriteByte(byte(v))
				} else {
					b.WriteByte(e)
				}
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (s *contentScanner) hexString() string {
	s.pos++ // <
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++ // >
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	var b strings.Builder
	for i := 0; i+1 < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			continue
		}
		b.WriteByte(byte(v))
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

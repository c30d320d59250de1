package xexpr

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOperator
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokDot
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokIdent:
		return "identifier"
	case tokOperator:
		return "operator"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokComma:
		return "','"
	case tokDot:
		return "'.'"
	default:
		return "unknown"
	}
}

type token struct {
	kind tokenKind
	pos  int
	text string  // 运算符、标识符原文；字符串为反转义后的内容
	num  float64 // 仅 tokNumber
}

// 双字符运算符需先于单字符匹配。
var operators = []string{
	"||", "&&", "==", "!=", "<=", ">=", "<>",
	"+", "-", "*", "/", "%", "^", "&", "<", ">", "!",
}

// lex 把表达式文本切分为 token 序列，末尾总是 tokEOF。
func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
			continue
		case isDigit(r) || (r == '.' && i+1 < len(src) && isDigit(rune(src[i+1]))):
			tok, next, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
			continue
		case r == '\'' || r == '"':
			tok, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
			continue
		case isIdentStart(r):
			start := i
			for i < len(src) {
				r, size = utf8.DecodeRuneInString(src[i:])
				if !isIdentPart(r) {
					break
				}
				i += size
			}
			tokens = append(tokens, token{kind: tokIdent, pos: start, text: src[start:i]})
			continue
		}

		if kind, ok := punctuation(r); ok {
			tokens = append(tokens, token{kind: kind, pos: i, text: string(r)})
			i += size
			continue
		}

		raw := matchOperator(src[i:])
		if raw == "" {
			return nil, syntaxErrorf(i, "unexpected character %q", r)
		}
		op := raw
		if op == "<>" {
			op = "!="
		}
		tokens = append(tokens, token{kind: tokOperator, pos: i, text: op})
		i += len(raw)
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(src)})
	return tokens, nil
}

func punctuation(r rune) (tokenKind, bool) {
	switch r {
	case '(':
		return tokLParen, true
	case ')':
		return tokRParen, true
	case '[':
		return tokLBracket, true
	case ']':
		return tokRBracket, true
	case ',':
		return tokComma, true
	case '.':
		return tokDot, true
	}
	return tokEOF, false
}

func matchOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

func lexNumber(src string, start int) (token, int, error) {
	i := start
	for i < len(src) && isDigit(rune(src[i])) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(rune(src[i])) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(rune(src[j])) {
			for j < len(src) && isDigit(rune(src[j])) {
				j++
			}
			i = j
		}
	}
	text := src[start:i]
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, 0, syntaxErrorf(start, "invalid number %q", text)
	}
	return token{kind: tokNumber, pos: start, text: text, num: n}, i, nil
}

func lexString(src string, start int) (token, int, error) {
	quote := src[start]
	var sb strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return token{kind: tokString, pos: start, text: sb.String()}, i + 1, nil
		case c == '\\':
			if i+1 >= len(src) {
				return token{}, 0, syntaxErrorf(i, "unterminated escape sequence")
			}
			esc, ok := unescape(src[i+1])
			if !ok {
				return token{}, 0, syntaxErrorf(i, "unknown escape sequence \\%c", src[i+1])
			}
			sb.WriteByte(esc)
			i += 2
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return token{}, 0, syntaxErrorf(start, "unterminated string")
}

func unescape(c byte) (byte, bool) {
	switch c {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '\\', '\'', '"':
		return c, true
	}
	return 0, false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || r == '@' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

package xexpr

import (
	"fmt"
	"strings"
)

// maxDepth 限制嵌套深度，防止恶意输入耗尽栈。
const maxDepth = 256

// 二元运算符优先级，数值越大绑定越紧。
var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5, "&": 5,
	"*": 6, "/": 6, "%": 6,
	"^": 7,
}

type parser struct {
	tokens []token
	pos    int
	depth  int
}

// Parse 解析表达式文本。
//
// 空文本（或仅含空白）返回 ErrEmptyExpression；语法错误返回 *SyntaxError；
// 调用未注册的函数返回包装 ErrUnknownFunction 的错误。
func Parse(text string) (*Expression, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyExpression
	}
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	root, err := p.parseExpr(1)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.unexpected(tok)
	}
	return &Expression{text: text, root: root}, nil
}

// MustParse 与 Parse 相同，解析失败时 panic。仅用于初始化常量表达式。
func MustParse(text string) *Expression {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, syntaxErrorf(tok.pos, "expected %s, found %s", kind, describe(tok))
	}
	return tok, nil
}

func (p *parser) unexpected(tok token) error {
	return syntaxErrorf(tok.pos, "unexpected %s", describe(tok))
}

func describe(tok token) string {
	switch tok.kind {
	case tokOperator, tokIdent:
		return fmt.Sprintf("%s %q", tok.kind, tok.text)
	case tokNumber:
		return fmt.Sprintf("number %s", tok.text)
	default:
		return tok.kind.String()
	}
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > maxDepth {
		return syntaxErrorf(pos, "expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

// parseExpr 按优先级爬升解析二元运算。^ 右结合，其余左结合。
func (p *parser) parseExpr(minPrec int) (node, error) {
	if err := p.enter(p.peek().pos); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokOperator {
			return left, nil
		}
		prec, ok := binaryPrec[tok.text]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.next()

		nextMin := prec + 1
		if tok.text == "^" {
			nextMin = prec
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.text, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	tok := p.peek()
	if tok.kind == tokOperator && (tok.text == "!" || tok.text == "-" || tok.text == "+") {
		p.next()
		if err := p.enter(tok.pos); err != nil {
			return nil, err
		}
		defer p.leave()

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: tok.text, operand: operand}, nil
	}

	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(primary)
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return &literalNode{value: tok.num, src: tok.text}, nil
	case tokString:
		return &literalNode{value: tok.text}, nil
	case tokLParen:
		inner, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return &parenNode{inner: inner}, nil
	case tokLBracket:
		items, err := p.parseList(tokRBracket)
		if err != nil {
			return nil, err
		}
		return &listNode{items: items}, nil
	case tokIdent:
		switch tok.text {
		case "true":
			return &literalNode{value: true}, nil
		case "false":
			return &literalNode{value: false}, nil
		case "null":
			return &literalNode{value: nil}, nil
		}
		if p.peek().kind == tokLParen {
			p.next()
			return p.parseCall(tok)
		}
		return &identNode{name: tok.text}, nil
	default:
		return nil, p.unexpected(tok)
	}
}

// parseList 解析逗号分隔的表达式列表，直到 closing。允许空列表。
func (p *parser) parseList(closing tokenKind) ([]node, error) {
	var items []node
	if p.peek().kind == closing {
		p.next()
		return items, nil
	}
	for {
		item, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		tok := p.next()
		switch tok.kind {
		case tokComma:
			continue
		case closing:
			return items, nil
		default:
			return nil, syntaxErrorf(tok.pos, "expected ',' or %s, found %s", closing, describe(tok))
		}
	}
}

func (p *parser) parseCall(name token) (node, error) {
	fn, ok := builtins[name.text]
	if !ok {
		return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownFunction, name.text, name.pos)
	}
	args, err := p.parseList(tokRParen)
	if err != nil {
		return nil, err
	}
	if err := fn.checkArity(len(args)); err != nil {
		return nil, syntaxErrorf(name.pos, "%s", err)
	}
	return &callNode{fn: fn, args: args}, nil
}

func (p *parser) parsePostfix(target node) (node, error) {
	for {
		switch p.peek().kind {
		case tokDot:
			p.next()
			field, err := p.expect(tokIdent)
			if err != nil {
				return nil, err
			}
			target = &memberNode{target: target, name: field.text}
		case tokLBracket:
			p.next()
			idx, err := p.parseExpr(1)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBracket); err != nil {
				return nil, err
			}
			target = &indexNode{target: target, index: idx}
		default:
			return target, nil
		}
	}
}

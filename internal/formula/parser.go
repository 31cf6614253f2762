package formula

import (
	"fmt"
	"strconv"
)

// Operator precedence, lowest first.
const (
	precLowest = iota + 1
	precTernary
	precOr
	precAnd
	precEquals
	precCompare
	precSum
	precProduct
	precPrefix
	precCall
)

var precedences = map[tokenType]int{
	tokQuestion: precTernary,
	tokOr:       precOr,
	tokAnd:      precAnd,
	tokEq:       precEquals,
	tokNotEq:    precEquals,
	tokLt:       precCompare,
	tokLe:       precCompare,
	tokGt:       precCompare,
	tokGe:       precCompare,
	tokPlus:     precSum,
	tokMinus:    precSum,
	tokStar:     precProduct,
	tokSlash:    precProduct,
	tokPercent:  precProduct,
	tokLParen:   precCall,
}

// parser is a Pratt parser over the rewritten expression text. It collects
// errors instead of stopping at the first one; any error fails the compile.
type parser struct {
	l      *lexer
	errors []string

	curToken  token
	peekToken token
}

// parse returns the expression tree for text, or an error when text does not
// reduce to a single well-formed expression.
func parse(text string) (exprNode, error) {
	p := &parser{l: newLexer(text)}
	p.nextToken()
	p.nextToken()

	if p.curToken.typ == tokEOF {
		return nil, fmt.Errorf("empty expression")
	}
	node := p.parseExpression(precLowest)
	if p.peekToken.typ != tokEOF {
		p.errorf("unexpected trailing token %s", p.peekToken.typ)
	}
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("parse: %s", p.errors[0])
	}
	if node == nil {
		return nil, fmt.Errorf("parse: no expression")
	}
	return node, nil
}

func (p *parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.nextToken()
}

func (p *parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *parser) parseExpression(precedence int) exprNode {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for p.peekToken.typ != tokEOF && precedence < p.peekPrecedence() {
		switch p.peekToken.typ {
		case tokLParen:
			p.nextToken()
			left = p.parseCall(left)
		case tokQuestion:
			p.nextToken()
			left = p.parseTernary(left)
		default:
			p.nextToken()
			left = p.parseInfix(left)
		}
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *parser) parsePrefix() exprNode {
	switch p.curToken.typ {
	case tokNumber:
		return p.parseNumber()
	case tokIdent:
		return &identExpr{name: p.curToken.literal}
	case tokMinus, tokBang:
		e := &prefixExpr{op: p.curToken.typ}
		p.nextToken()
		e.right = p.parseExpression(precPrefix)
		if e.right == nil {
			return nil
		}
		return e
	case tokLParen:
		return p.parseGrouped()
	default:
		p.errorf("unexpected token %s", p.curToken.typ)
		return nil
	}
}

func (p *parser) parseNumber() exprNode {
	v, err := strconv.ParseFloat(p.curToken.literal, 64)
	if err != nil {
		p.errorf("bad number literal %q", p.curToken.literal)
		return nil
	}
	return &numberLit{value: v}
}

func (p *parser) parseGrouped() exprNode {
	p.nextToken()
	e := p.parseExpression(precLowest)
	if e == nil {
		return nil
	}
	if !p.expectPeek(tokRParen) {
		return nil
	}
	return e
}

func (p *parser) parseInfix(left exprNode) exprNode {
	e := &infixExpr{op: p.curToken.typ, left: left}
	precedence := p.curPrecedence()
	p.nextToken()
	e.right = p.parseExpression(precedence)
	if e.right == nil {
		return nil
	}
	return e
}

func (p *parser) parseTernary(cond exprNode) exprNode {
	e := &ternaryExpr{cond: cond}
	p.nextToken()
	e.then = p.parseExpression(precLowest)
	if e.then == nil {
		return nil
	}
	if !p.expectPeek(tokColon) {
		return nil
	}
	p.nextToken()
	e.els = p.parseExpression(precLowest)
	if e.els == nil {
		return nil
	}
	return e
}

// parseCall handles fn(args). Only plain identifiers are callable; the
// intrinsic set itself is checked later when the tree is compiled.
func (p *parser) parseCall(fn exprNode) exprNode {
	ident, ok := fn.(*identExpr)
	if !ok {
		p.errorf("cannot call a non-identifier")
		return nil
	}
	args := p.parseCallArguments()
	if args == nil {
		return nil
	}
	return &callExpr{fn: ident.name, args: args}
}

func (p *parser) parseCallArguments() []exprNode {
	args := []exprNode{}
	if p.peekToken.typ == tokRParen {
		p.nextToken()
		return args
	}
	p.nextToken()
	first := p.parseExpression(precLowest)
	if first == nil {
		return nil
	}
	args = append(args, first)
	for p.peekToken.typ == tokComma {
		p.nextToken()
		p.nextToken()
		next := p.parseExpression(precLowest)
		if next == nil {
			return nil
		}
		args = append(args, next)
	}
	if !p.expectPeek(tokRParen) {
		return nil
	}
	return args
}

func (p *parser) expectPeek(t tokenType) bool {
	if p.peekToken.typ == t {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, got %s", t, p.peekToken.typ)
	return false
}

func (p *parser) peekPrecedence() int {
	if pre, ok := precedences[p.peekToken.typ]; ok {
		return pre
	}
	return precLowest
}

func (p *parser) curPrecedence() int {
	if pre, ok := precedences[p.curToken.typ]; ok {
		return pre
	}
	return precLowest
}

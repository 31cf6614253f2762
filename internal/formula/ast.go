package formula

import (
	"fmt"
	"strings"
)

// exprNode is a node of the parsed expression tree. String renders a
// canonical parenthesized form, used by tests and debug output.
type exprNode interface {
	String() string
}

type numberLit struct {
	value float64
}

func (n *numberLit) String() string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", n.value), "0"), ".")
}

type identExpr struct {
	name string
}

func (i *identExpr) String() string { return i.name }

type prefixExpr struct {
	op    tokenType
	right exprNode
}

func (p *prefixExpr) String() string {
	return "(" + p.op.String() + p.right.String() + ")"
}

type infixExpr struct {
	op    tokenType
	left  exprNode
	right exprNode
}

func (i *infixExpr) String() string {
	return "(" + i.left.String() + " " + i.op.String() + " " + i.right.String() + ")"
}

type ternaryExpr struct {
	cond exprNode
	then exprNode
	els  exprNode
}

func (t *ternaryExpr) String() string {
	return "(" + t.cond.String() + " ? " + t.then.String() + " : " + t.els.String() + ")"
}

type callExpr struct {
	fn   string
	args []exprNode
}

func (c *callExpr) String() string {
	parts := make([]string, len(c.args))
	for i, a := range c.args {
		parts[i] = a.String()
	}
	return c.fn + "(" + strings.Join(parts, ", ") + ")"
}

package formula

import (
	"fmt"
	"math"
)

// evalFn is one compiled node of the closure tree.
type evalFn func(*env) float64

// intrinsicArity is the closed set of callable intrinsics. Every name the
// rewrite stage can emit appears here; the compiler rejects anything else.
var intrinsicArity = map[string]int{
	"rand":       0,
	"randInt":    1,
	"trunc":      1,
	"floormod":   2,
	"floor":      1,
	"ceil":       1,
	"abs":        1,
	"sqrt":       1,
	"sin":        1,
	"cos":        1,
	"min":        2,
	"max":        2,
	"pow":        2,
	"dirstepX":   1,
	"dirstepY":   1,
	"dirstepZ":   1,
	"dircwstepX": 1,
	"dircwstepY": 1,
	"dircwstepZ": 1,
	"axisX":      1,
	"axisY":      1,
	"axisZ":      1,
	"blockPosX":  0,
	"blockPosY":  0,
	"blockPosZ":  0,
}

// compileExpr lowers a parsed tree into a closure tree. Unknown identifiers
// and intrinsic arity mismatches are compile failures.
func compileExpr(n exprNode) (evalFn, error) {
	switch node := n.(type) {
	case *numberLit:
		v := node.value
		return func(*env) float64 { return v }, nil

	case *identExpr:
		return compileIdent(node.name)

	case *prefixExpr:
		right, err := compileExpr(node.right)
		if err != nil {
			return nil, err
		}
		switch node.op {
		case tokMinus:
			return func(e *env) float64 { return -right(e) }, nil
		case tokBang:
			return func(e *env) float64 { return boolToFloat(!truthy(right(e))) }, nil
		default:
			return nil, fmt.Errorf("unsupported prefix operator %s", node.op)
		}

	case *infixExpr:
		return compileInfix(node)

	case *ternaryExpr:
		cond, err := compileExpr(node.cond)
		if err != nil {
			return nil, err
		}
		then, err := compileExpr(node.then)
		if err != nil {
			return nil, err
		}
		els, err := compileExpr(node.els)
		if err != nil {
			return nil, err
		}
		return func(e *env) float64 {
			if truthy(cond(e)) {
				return then(e)
			}
			return els(e)
		}, nil

	case *callExpr:
		return compileCall(node)

	default:
		return nil, fmt.Errorf("unsupported node %T", n)
	}
}

func compileIdent(name string) (evalFn, error) {
	switch name {
	case "loopindex":
		return func(e *env) float64 { return e.loopIndex }, nil
	case "age":
		return func(e *env) float64 { return e.age }, nil
	case "lifetime":
		return func(e *env) float64 { return e.lifetime }, nil
	case "entityX":
		return func(e *env) float64 { return e.entityX }, nil
	case "entityY":
		return func(e *env) float64 { return e.entityY }, nil
	case "entityZ":
		return func(e *env) float64 { return e.entityZ }, nil
	case "entityWidth":
		return func(e *env) float64 { return e.entityW }, nil
	case "entityHeight":
		return func(e *env) float64 { return e.entityH }, nil
	case "entityDepth":
		return func(e *env) float64 { return e.entityD }, nil
	default:
		return nil, fmt.Errorf("unknown identifier %q", name)
	}
}

func compileInfix(node *infixExpr) (evalFn, error) {
	left, err := compileExpr(node.left)
	if err != nil {
		return nil, err
	}
	right, err := compileExpr(node.right)
	if err != nil {
		return nil, err
	}

	switch node.op {
	case tokPlus:
		return func(e *env) float64 { return left(e) + right(e) }, nil
	case tokMinus:
		return func(e *env) float64 { return left(e) - right(e) }, nil
	case tokStar:
		return func(e *env) float64 { return left(e) * right(e) }, nil
	case tokSlash:
		return func(e *env) float64 { return left(e) / right(e) }, nil
	case tokPercent:
		return func(e *env) float64 { return math.Mod(left(e), right(e)) }, nil
	case tokLt:
		return func(e *env) float64 { return boolToFloat(left(e) < right(e)) }, nil
	case tokLe:
		return func(e *env) float64 { return boolToFloat(left(e) <= right(e)) }, nil
	case tokGt:
		return func(e *env) float64 { return boolToFloat(left(e) > right(e)) }, nil
	case tokGe:
		return func(e *env) float64 { return boolToFloat(left(e) >= right(e)) }, nil
	case tokEq:
		return func(e *env) float64 { return boolToFloat(left(e) == right(e)) }, nil
	case tokNotEq:
		return func(e *env) float64 { return boolToFloat(left(e) != right(e)) }, nil
	case tokAnd:
		// Short-circuit, value-preserving: a falsy left is returned as is.
		return func(e *env) float64 {
			l := left(e)
			if !truthy(l) {
				return l
			}
			return right(e)
		}, nil
	case tokOr:
		return func(e *env) float64 {
			l := left(e)
			if truthy(l) {
				return l
			}
			return right(e)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %s", node.op)
	}
}

func compileCall(node *callExpr) (evalFn, error) {
	arity, ok := intrinsicArity[node.fn]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", node.fn)
	}
	if len(node.args) != arity {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", node.fn, arity, len(node.args))
	}
	args := make([]evalFn, len(node.args))
	for i, a := range node.args {
		fn, err := compileExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = fn
	}

	switch node.fn {
	case "rand":
		return func(e *env) float64 { return e.rand() }, nil
	case "randInt":
		a := args[0]
		return func(e *env) float64 { return randIntF(e.rand, a(e)) }, nil
	case "trunc":
		a := args[0]
		return func(e *env) float64 { return math.Trunc(a(e)) }, nil
	case "floormod":
		a, b := args[0], args[1]
		return func(e *env) float64 { return floorMod(a(e), b(e)) }, nil
	case "floor":
		a := args[0]
		return func(e *env) float64 { return math.Floor(a(e)) }, nil
	case "ceil":
		a := args[0]
		return func(e *env) float64 { return math.Ceil(a(e)) }, nil
	case "abs":
		a := args[0]
		return func(e *env) float64 { return math.Abs(a(e)) }, nil
	case "sqrt":
		a := args[0]
		return func(e *env) float64 { return math.Sqrt(a(e)) }, nil
	case "sin":
		a := args[0]
		return func(e *env) float64 { return math.Sin(a(e)) }, nil
	case "cos":
		a := args[0]
		return func(e *env) float64 { return math.Cos(a(e)) }, nil
	case "min":
		a, b := args[0], args[1]
		return func(e *env) float64 { return math.Min(a(e), b(e)) }, nil
	case "max":
		a, b := args[0], args[1]
		return func(e *env) float64 { return math.Max(a(e), b(e)) }, nil
	case "pow":
		a, b := args[0], args[1]
		return func(e *env) float64 { return math.Pow(a(e), b(e)) }, nil
	case "dirstepX":
		a := args[0]
		return func(e *env) float64 { return dirStep2D(a(e), 0, false) }, nil
	case "dirstepY":
		a := args[0]
		return func(e *env) float64 { a(e); return 0 }, nil
	case "dirstepZ":
		a := args[0]
		return func(e *env) float64 { return dirStep2D(a(e), 2, false) }, nil
	case "dircwstepX":
		a := args[0]
		return func(e *env) float64 { return dirStep2D(a(e), 0, true) }, nil
	case "dircwstepY":
		a := args[0]
		return func(e *env) float64 { a(e); return 0 }, nil
	case "dircwstepZ":
		a := args[0]
		return func(e *env) float64 { return dirStep2D(a(e), 2, true) }, nil
	case "axisX", "axisY", "axisZ":
		// No axis data is available at runtime, so axis comparisons are
		// always false. The argument is still evaluated.
		a := args[0]
		return func(e *env) float64 { a(e); return 0 }, nil
	case "blockPosX", "blockPosY", "blockPosZ":
		// Centered-block assumption: block-local origin.
		return func(*env) float64 { return 0 }, nil
	default:
		return nil, fmt.Errorf("unknown function %q", node.fn)
	}
}

// fold collapses constant subtrees ahead of closure compilation. Only pure
// arithmetic over literal operands is folded; intrinsic calls are left
// alone because rand makes most of them impure.
func fold(n exprNode) exprNode {
	switch node := n.(type) {
	case *prefixExpr:
		node.right = fold(node.right)
		if lit, ok := node.right.(*numberLit); ok && node.op == tokMinus {
			return &numberLit{value: -lit.value}
		}
		return node
	case *infixExpr:
		node.left = fold(node.left)
		node.right = fold(node.right)
		l, lok := node.left.(*numberLit)
		r, rok := node.right.(*numberLit)
		if !lok || !rok {
			return node
		}
		switch node.op {
		case tokPlus:
			return &numberLit{value: l.value + r.value}
		case tokMinus:
			return &numberLit{value: l.value - r.value}
		case tokStar:
			return &numberLit{value: l.value * r.value}
		case tokSlash:
			return &numberLit{value: l.value / r.value}
		case tokPercent:
			return &numberLit{value: math.Mod(l.value, r.value)}
		default:
			return node
		}
	case *ternaryExpr:
		node.cond = fold(node.cond)
		node.then = fold(node.then)
		node.els = fold(node.els)
		if lit, ok := node.cond.(*numberLit); ok {
			if truthy(lit.value) {
				return node.then
			}
			return node.els
		}
		return node
	case *callExpr:
		for i, a := range node.args {
			node.args[i] = fold(a)
		}
		return node
	default:
		return n
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// truthy reports whether v counts as true: non-zero and not NaN.
func truthy(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}

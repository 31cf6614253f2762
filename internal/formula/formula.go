// Package formula compiles constrained Java-like expression strings, as
// recovered from a game's decompiled particle-emission code, into safely
// evaluable numeric functions.
//
// Input fragments look like:
//
//	"(double)$1.getX() + 0.5"
//	"$0.getValue(FACING).getOpposite().getStepX()"
//	"this.random.nextInt(4) == 0 ? 1.0 : 0.0"
//
// Compilation first rewrites the foreign API surface (casts, random draws,
// direction and block-state accessors, numbered placeholders) into a small
// closed grammar of numbers, arithmetic, comparisons, ternaries and named
// intrinsic calls, then parses that grammar into an AST and compiles the AST
// to a closure tree. Anything that cannot be completely reduced to the
// grammar fails compilation; there are no partial results.
package formula

import "math"

// EvalContext carries the caller state a compiled expression may reference.
// Age and Lifetime mirror the owning particle (this.age / this.lifetime in
// the source fragments); Position and Size describe the emitting entity for
// the getRandomX/Y/Z family.
type EvalContext struct {
	Age      float64
	Lifetime float64    // clamped to a minimum of 1 at evaluation time
	Position [3]float64 // entity origin: x, y, z
	Size     [3]float64 // entity bounding box: width, height, depth
}

// Compiled is a compiled expression. It is immutable, holds no evaluation
// state, and is safe for concurrent use; callers are expected to memoize
// instances keyed on the source string.
type Compiled struct {
	src  string
	eval evalFn
}

// Compile translates a decompiled expression fragment into a callable
// numeric function.
//
// blockProps supplies block-state properties (e.g. {"facing": "north"}) for
// compile-time direction resolution; expressions that read a block-state
// property fail to compile when the map is absent or the property is missing
// or unrecognized. loopIndexVar names the numbered placeholder token (e.g.
// "$1") bound to the loop index at evaluation time; every other numbered
// placeholder becomes the literal 0.
//
// Compile returns nil whenever the source cannot be completely and safely
// reduced to the supported grammar. A nil result means the expression is
// unusable and the dependent feature must fall back to a default; no partial
// or best-effort function is ever returned.
func Compile(src string, blockProps map[string]string, loopIndexVar string) *Compiled {
	c, err := compile(src, blockProps, loopIndexVar)
	if err != nil {
		return nil
	}
	return c
}

func compile(src string, blockProps map[string]string, loopIndexVar string) (*Compiled, error) {
	text, err := normalize(src, blockProps, loopIndexVar)
	if err != nil {
		return nil, err
	}
	node, err := parse(text)
	if err != nil {
		return nil, err
	}
	fn, err := compileExpr(fold(node))
	if err != nil {
		return nil, err
	}
	return &Compiled{src: src, eval: fn}, nil
}

// Source returns the original, unrewritten source string.
func (c *Compiled) Source() string { return c.src }

// Eval runs the expression. rand supplies uniform draws in [0,1); loopIndex
// is bound to the loop-index placeholder; ctx may be nil, in which case age
// defaults to 0, lifetime to 1 and the entity fields to 0.
func (c *Compiled) Eval(rand func() float64, loopIndex int, ctx *EvalContext) float64 {
	e := env{loopIndex: float64(loopIndex), lifetime: 1}
	e.rand = rand
	if e.rand == nil {
		e.rand = func() float64 { return 0 }
	}
	if ctx != nil {
		e.age = ctx.Age
		e.lifetime = math.Max(1, ctx.Lifetime)
		e.entityX, e.entityY, e.entityZ = ctx.Position[0], ctx.Position[1], ctx.Position[2]
		e.entityW, e.entityH, e.entityD = ctx.Size[0], ctx.Size[1], ctx.Size[2]
	}
	return c.eval(&e)
}

// EvalBool runs the expression and reports whether the result is truthy,
// meaning non-zero and not NaN.
func (c *Compiled) EvalBool(rand func() float64, loopIndex int, ctx *EvalContext) bool {
	return truthy(c.Eval(rand, loopIndex, ctx))
}

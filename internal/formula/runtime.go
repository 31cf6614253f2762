package formula

import "math"

// env is the per-evaluation variable bundle the closure tree reads from.
// One env is built per Eval call and passed down by pointer, so evaluation
// itself allocates nothing.
type env struct {
	rand      func() float64
	loopIndex float64
	age       float64
	lifetime  float64
	entityX   float64
	entityY   float64
	entityZ   float64
	entityW   float64
	entityH   float64
	entityD   float64
}

// randIntF draws a uniform integer in [0,n) as a float. A non-finite or
// non-positive n yields 0.
func randIntF(rand func() float64, n float64) float64 {
	if !(n > 0) || math.IsInf(n, 0) {
		return 0
	}
	return math.Floor(rand() * n)
}

// floorMod is the integer floor modulus ((trunc(a) % trunc(b)) + trunc(b)) %
// trunc(b). It yields 0 when b truncates to 0 or either operand is
// non-finite, so downstream index lookups stay in range.
func floorMod(a, b float64) float64 {
	a = math.Trunc(a)
	b = math.Trunc(b)
	if b == 0 || math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
		return 0
	}
	return math.Mod(math.Mod(a, b)+b, b)
}

// dirStep2D resolves a horizontal direction from its 2D data value and
// returns the unit step on the requested axis (0 for x, 2 for z). The index
// wraps via floor-mod-4; the clockwise variant offsets it by one before the
// table lookup.
func dirStep2D(arg float64, axis int, clockwise bool) float64 {
	idx := int(floorMod(arg, 4))
	if clockwise {
		idx = (idx + 1) % 4
	}
	step := horizontal2DSteps[idx]
	switch axis {
	case 0:
		return step[0]
	case 2:
		return step[1]
	default:
		return 0
	}
}

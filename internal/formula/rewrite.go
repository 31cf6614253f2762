package formula

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Rewrite patterns for the decompiled-Java surface. All rewriting happens
// before lexing; whatever survives untranslated is rejected by the parser.
var (
	numericSuffixRE = regexp.MustCompile(`(\d+\.?\d*|\.\d+)[fFdD]\b`)
	floatCastRE     = regexp.MustCompile(`\(\s*(?:double|float)\s*\)`)
	intCastRE       = regexp.MustCompile(`\(\s*int\s*\)`)

	nextBooleanRE = regexp.MustCompile(`(?:[$\w]+\.)*nextBoolean\(\s*\)`)
	nextUnitRE    = regexp.MustCompile(`(?:[$\w]+\.)*next(?:Float|Double)\(\s*\)`)
	mathRandomRE  = regexp.MustCompile(`\bMath\.random\(\s*\)`)
	nextIntRE     = regexp.MustCompile(`(?:[$\w]+\.)*nextInt\s*\(`)
	floorModRE    = regexp.MustCompile(`(?:[$\w]+\.)*floorMod\s*\(`)

	blockPosAccessRE = regexp.MustCompile(`\$\d+\.get([XYZ])\(\)`)
	chainAccessRE    = regexp.MustCompile(`(?:[$\w]+\.)+get([XYZ])\(\)`)

	axisCompareLeftRE  = regexp.MustCompile(`\$(\d+)\s*==\s*Direction\.Axis\.([XYZ])`)
	axisCompareRightRE = regexp.MustCompile(`Direction\.Axis\.([XYZ])\s*==\s*\$(\d+)`)

	getRandomYRE = regexp.MustCompile(`(?:[$\w]+\.)*getRandomY\(\s*\)`)

	thisFieldRE   = regexp.MustCompile(`\bthis\.(age|lifetime)\b`)
	placeholderRE = regexp.MustCompile(`\$\d+`)

	mathCallRE = regexp.MustCompile(`\bMath\.(sin|cos|floor|ceil|abs|sqrt|min|max|pow)\s*\(`)
	mathPiRE   = regexp.MustCompile(`\bMath\.PI\b`)

	dirLiteralRE = regexp.MustCompile(`Direction\.(UP|DOWN|NORTH|SOUTH|EAST|WEST)(\.getOpposite\(\))?\.getStep([XYZ])\(\)`)
)

// Block-state step accessors, with or without .getOpposite() and with up to
// two levels of wrapping parentheses. Opposite-bearing forms come first so
// the plain forms cannot strand a trailing .getOpposite() call.
type stepPattern struct {
	re       *regexp.Regexp
	opposite bool
}

var blockStateStepPatterns = []stepPattern{
	{regexp.MustCompile(`\(\(([$\w.]+)\.getValue\(([$\w.]+)\)\)\.getOpposite\(\)\)\.getStep([XYZ])\(\)`), true},
	{regexp.MustCompile(`\(([$\w.]+)\.getValue\(([$\w.]+)\)\.getOpposite\(\)\)\.getStep([XYZ])\(\)`), true},
	{regexp.MustCompile(`\(([$\w.]+)\.getValue\(([$\w.]+)\)\)\.getOpposite\(\)\.getStep([XYZ])\(\)`), true},
	{regexp.MustCompile(`([$\w.]+)\.getValue\(([$\w.]+)\)\.getOpposite\(\)\.getStep([XYZ])\(\)`), true},
	{regexp.MustCompile(`\(([$\w.]+)\.getValue\(([$\w.]+)\)\)\.getStep([XYZ])\(\)`), false},
	{regexp.MustCompile(`([$\w.]+)\.getValue\(([$\w.]+)\)\.getStep([XYZ])\(\)`), false},
}

var blockState2DPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(([$\w.]+)\.getValue\(([$\w.]+)\)\)\.get2DDataValue\(\)`),
	regexp.MustCompile(`([$\w.]+)\.getValue\(([$\w.]+)\)\.get2DDataValue\(\)`),
}

// normalize rewrites a decompiled expression fragment into the closed
// grammar the parser accepts. Stages that resolve block-state properties
// fail hard when the property cannot be resolved; every other unsupported
// construct is left in place for the lexer or parser to reject.
func normalize(src string, props map[string]string, loopVar string) (string, error) {
	s := strings.TrimSpace(src)
	if s == "" {
		return "", fmt.Errorf("empty source")
	}

	s = numericSuffixRE.ReplaceAllString(s, "$1")
	s = floatCastRE.ReplaceAllString(s, "")

	s, err := rewriteIntCasts(s)
	if err != nil {
		return "", err
	}

	s = rewriteFrom2D(s)
	s, err = rewriteBlockStateSteps(s, props)
	if err != nil {
		return "", err
	}
	s, err = rewriteBlockState2D(s, props)
	if err != nil {
		return "", err
	}
	s = rewriteDirectionLiterals(s)
	s = axisCompareLeftRE.ReplaceAllString(s, "axis${2}($$${1})")
	s = axisCompareRightRE.ReplaceAllString(s, "axis${1}($$${2})")

	s = rewriteEntityRandom(s)

	s = nextBooleanRE.ReplaceAllString(s, "(rand() > 0.5)")
	s = nextUnitRE.ReplaceAllString(s, "rand()")
	s = mathRandomRE.ReplaceAllString(s, "rand()")
	s = nextIntRE.ReplaceAllString(s, "randInt(")
	s = floorModRE.ReplaceAllString(s, "floormod(")

	s = rewritePosAccessors(s)
	s = thisFieldRE.ReplaceAllString(s, "$1")

	s = placeholderRE.ReplaceAllStringFunc(s, func(m string) string {
		if loopVar != "" && m == loopVar {
			return "loopindex"
		}
		return "0"
	})

	s = mathCallRE.ReplaceAllString(s, "${1}(")
	s = mathPiRE.ReplaceAllString(s, "3.141592653589793")

	return s, nil
}

// rewriteIntCasts converts (int)X into trunc(X). The cast target must be a
// parenthesized group, a numeric literal, or an identifier/method-call
// chain; casts are processed right to left so nested casts resolve from the
// inside out.
func rewriteIntCasts(s string) (string, error) {
	for {
		locs := intCastRE.FindAllStringIndex(s, -1)
		if len(locs) == 0 {
			return s, nil
		}
		m := locs[len(locs)-1]
		rest := m[1]
		for rest < len(s) && s[rest] == ' ' {
			rest++
		}
		if rest >= len(s) {
			return "", fmt.Errorf("dangling int cast")
		}
		c := s[rest]
		switch {
		case c == '(':
			if matchParen(s, rest) < 0 {
				return "", fmt.Errorf("unbalanced parentheses after int cast")
			}
			// The group's own parentheses become the call parentheses.
			s = s[:m[0]] + "trunc" + s[rest:]
		case isDigit(c) || c == '.':
			end := rest
			for end < len(s) && (isDigit(s[end]) || s[end] == '.') {
				end++
			}
			s = s[:m[0]] + "trunc(" + s[rest:end] + ")" + s[end:]
		case isLetter(c) || c == '$':
			end := scanChain(s, rest)
			if end < 0 {
				return "", fmt.Errorf("unbalanced parentheses after int cast")
			}
			s = s[:m[0]] + "trunc(" + s[rest:end] + ")" + s[end:]
		default:
			return "", fmt.Errorf("unsupported int cast target %q", string(c))
		}
	}
}

// rewriteFrom2D expands Direction.from2DDataValue(e).getStepX/Y/Z(), plus
// the .getClockWise() variant, into dirstep/dircwstep intrinsic calls. The
// argument expression is carried over verbatim and rewritten by the later
// stages.
func rewriteFrom2D(s string) string {
	const name = "Direction.from2DDataValue"
	from := 0
	for {
		i := strings.Index(s[from:], name)
		if i < 0 {
			return s
		}
		i += from
		open := i + len(name)
		if open >= len(s) || s[open] != '(' {
			from = open
			continue
		}
		end := matchParen(s, open)
		if end < 0 {
			from = open
			continue
		}
		arg := s[open+1 : end-1]

		j := end
		helper := "dirstep"
		if strings.HasPrefix(s[j:], ".getClockWise()") {
			helper = "dircwstep"
			j += len(".getClockWise()")
		}
		if !strings.HasPrefix(s[j:], ".getStep") {
			from = end
			continue
		}
		j += len(".getStep")
		if j >= len(s) || (s[j] != 'X' && s[j] != 'Y' && s[j] != 'Z') || !strings.HasPrefix(s[j+1:], "()") {
			from = end
			continue
		}
		axis := s[j]
		j += 3

		s = s[:i] + helper + string(axis) + "(" + arg + ")" + s[j:]
		from = 0
	}
}

func rewriteBlockStateSteps(s string, props map[string]string) (string, error) {
	var failed error
	for _, pat := range blockStateStepPatterns {
		s = pat.re.ReplaceAllStringFunc(s, func(m string) string {
			sub := pat.re.FindStringSubmatch(m)
			d, ok := lookupDirection(props, sub[2])
			if !ok {
				if failed == nil {
					failed = fmt.Errorf("unresolved block-state property %q", sub[2])
				}
				return m
			}
			if pat.opposite {
				d = d.opposite()
			}
			return strconv.Itoa(d.step(axisIndex(sub[3][0])))
		})
	}
	if failed != nil {
		return "", failed
	}
	return s, nil
}

func rewriteBlockState2D(s string, props map[string]string) (string, error) {
	var failed error
	for _, re := range blockState2DPatterns {
		s = re.ReplaceAllStringFunc(s, func(m string) string {
			sub := re.FindStringSubmatch(m)
			d, ok := lookupDirection(props, sub[2])
			if !ok {
				if failed == nil {
					failed = fmt.Errorf("unresolved block-state property %q", sub[2])
				}
				return m
			}
			idx, ok := dir2DData[d]
			if !ok {
				if failed == nil {
					failed = fmt.Errorf("no 2D data value for vertical direction %q", props[propKey(sub[2])])
				}
				return m
			}
			return strconv.Itoa(idx)
		})
	}
	if failed != nil {
		return "", failed
	}
	return s, nil
}

func rewriteDirectionLiterals(s string) string {
	return dirLiteralRE.ReplaceAllStringFunc(s, func(m string) string {
		sub := dirLiteralRE.FindStringSubmatch(m)
		d, _ := parseDirection(sub[1])
		if sub[2] != "" {
			d = d.opposite()
		}
		return strconv.Itoa(d.step(axisIndex(sub[3][0])))
	})
}

// rewriteEntityRandom expands the entity-relative random position helpers
// into jitter expressions over the entity origin and bounding box.
func rewriteEntityRandom(s string) string {
	s = getRandomYRE.ReplaceAllString(s, "(entityY + rand() * entityHeight)")
	s = rewriteEntityRandomAxis(s, "getRandomX", "entityX", "entityWidth")
	s = rewriteEntityRandomAxis(s, "getRandomZ", "entityZ", "entityDepth")
	return s
}

func rewriteEntityRandomAxis(s, method, origin, extent string) string {
	from := 0
	for {
		i := strings.Index(s[from:], method)
		if i < 0 {
			return s
		}
		i += from
		if i > 0 && isIdentByte(s[i-1]) {
			// Part of a longer identifier.
			from = i + len(method)
			continue
		}
		start := i
		if i > 0 && s[i-1] == '.' {
			j := i - 1
			for j > 0 && (isIdentByte(s[j-1]) || s[j-1] == '.') {
				j--
			}
			start = j
		}
		open := i + len(method)
		for open < len(s) && s[open] == ' ' {
			open++
		}
		if open >= len(s) || s[open] != '(' {
			from = i + len(method)
			continue
		}
		end := matchParen(s, open)
		if end < 0 {
			from = i + len(method)
			continue
		}
		arg := s[open+1 : end-1]
		repl := "(" + origin + " + (2.0 * rand() - 1.0) * (" + arg + ") * " + extent + " * 0.5)"
		s = s[:start] + repl + s[end:]
		from = 0
	}
}

// rewritePosAccessors maps position accessors to block-local origin: a
// numbered-parameter receiver goes through the blockPos helpers, every
// other receiver collapses to the literal 0.
func rewritePosAccessors(s string) string {
	s = blockPosAccessRE.ReplaceAllString(s, "blockPos${1}()")
	s = chainAccessRE.ReplaceAllString(s, "0")
	s = rewriteCallResultAccessors(s)
	return s
}

// rewriteCallResultAccessors handles .getX/Y/Z() on a call-result receiver,
// e.g. pos.relative(dir).getX(), by consuming the whole receiver chain.
func rewriteCallResultAccessors(s string) string {
	for {
		i := findCallResultAccessor(s)
		if i < 0 {
			return s
		}
		start := chainStart(s, i)
		if start < 0 {
			// Unbalanced receiver, leave it for the parser to reject.
			return s
		}
		s = s[:start] + "0" + s[i+len(".getX()"):]
	}
}

func findCallResultAccessor(s string) int {
	for i := 1; i+7 <= len(s); i++ {
		if s[i] != '.' || s[i-1] != ')' {
			continue
		}
		if !strings.HasPrefix(s[i:], ".get") {
			continue
		}
		ax := s[i+4]
		if (ax == 'X' || ax == 'Y' || ax == 'Z') && strings.HasPrefix(s[i+5:], "()") {
			return i
		}
	}
	return -1
}

// chainStart walks backwards from the accessor at i over the receiver
// chain: identifiers, dots and balanced call groups.
func chainStart(s string, i int) int {
	j := i - 1
	for j >= 0 {
		switch {
		case s[j] == ')':
			open := matchParenBack(s, j)
			if open < 0 {
				return -1
			}
			j = open - 1
		case isIdentByte(s[j]) || s[j] == '.':
			j--
		default:
			return j + 1
		}
	}
	return 0
}

// matchParen returns the index just past the parenthesis closing the one at
// start, or -1 when unbalanced. s[start] must be '('.
func matchParen(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// matchParenBack returns the index of the parenthesis opening the one
// closing at end, or -1 when unbalanced. s[end] must be ')'.
func matchParenBack(s string, end int) int {
	depth := 0
	for i := end; i >= 0; i-- {
		switch s[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// scanChain consumes an identifier or method-call chain starting at start:
// name segments, dots and balanced argument lists. Returns the index just
// past the chain, or -1 on unbalanced parentheses.
func scanChain(s string, start int) int {
	i := start
	for i < len(s) {
		c := s[i]
		switch {
		case isIdentByte(c):
			i++
		case c == '.':
			if i+1 < len(s) && isIdentByte(s[i+1]) {
				i++
			} else {
				return i
			}
		case c == '(':
			end := matchParen(s, i)
			if end < 0 {
				return -1
			}
			i = end
			if i < len(s) && s[i] == '.' {
				continue
			}
			return i
		default:
			return i
		}
	}
	return i
}

func isIdentByte(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '$'
}

package formula

import "strings"

// direction indexes the six axis-aligned unit directions.
type direction int

const (
	dirDown direction = iota
	dirUp
	dirNorth
	dirSouth
	dirWest
	dirEast
)

var directionNames = map[string]direction{
	"down":  dirDown,
	"up":    dirUp,
	"north": dirNorth,
	"south": dirSouth,
	"west":  dirWest,
	"east":  dirEast,
}

// dirSteps holds each direction's unit step on the x, y and z axes.
var dirSteps = [6][3]int{
	dirDown:  {0, -1, 0},
	dirUp:    {0, 1, 0},
	dirNorth: {0, 0, -1},
	dirSouth: {0, 0, 1},
	dirWest:  {-1, 0, 0},
	dirEast:  {1, 0, 0},
}

var dirOpposites = [6]direction{
	dirDown:  dirUp,
	dirUp:    dirDown,
	dirNorth: dirSouth,
	dirSouth: dirNorth,
	dirWest:  dirEast,
	dirEast:  dirWest,
}

// dir2DData maps the four horizontal directions to their 2D data value.
// Vertical directions have none.
var dir2DData = map[direction]int{
	dirSouth: 0,
	dirWest:  1,
	dirNorth: 2,
	dirEast:  3,
}

// horizontal2DSteps holds x/z unit steps indexed by 2D data value, in the
// order south, west, north, east. Adding 1 to an index walks the horizontal
// directions clockwise as seen from above.
var horizontal2DSteps = [4][2]float64{
	{0, 1},
	{-1, 0},
	{0, -1},
	{1, 0},
}

func parseDirection(name string) (direction, bool) {
	d, ok := directionNames[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

func (d direction) opposite() direction { return dirOpposites[d] }

// step returns the unit step of d on axis 0 (x), 1 (y) or 2 (z).
func (d direction) step(axis int) int { return dirSteps[d][axis] }

// propKey reduces a decompiled property path to a block-state key: the last
// path segment, lowercased, with _facing/_direction suffixes collapsing to
// the shared "facing" key.
func propKey(prop string) string {
	if i := strings.LastIndexByte(prop, '.'); i >= 0 {
		prop = prop[i+1:]
	}
	key := strings.ToLower(prop)
	if strings.HasSuffix(key, "_facing") || strings.HasSuffix(key, "_direction") {
		return "facing"
	}
	return key
}

// lookupDirection resolves a property path against the supplied block-state
// props. It fails when props is nil, the key is absent, or the value does
// not name a direction.
func lookupDirection(props map[string]string, prop string) (direction, bool) {
	if props == nil {
		return 0, false
	}
	v, ok := props[propKey(prop)]
	if !ok {
		return 0, false
	}
	return parseDirection(v)
}

// axisIndex maps an axis letter X, Y or Z to 0, 1 or 2.
func axisIndex(letter byte) int {
	switch letter {
	case 'X':
		return 0
	case 'Y':
		return 1
	default:
		return 2
	}
}

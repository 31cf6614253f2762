package formula

import (
	"testing"
)

// TestNormalize_Substitutions tests each textual rewrite rule in isolation.
func TestNormalize_Substitutions(t *testing.T) {
	facingEast := map[string]string{"facing": "east"}

	tests := []struct {
		name    string
		input   string
		props   map[string]string
		loopVar string
		want    string
	}{
		{"Double cast stripped", "(double)$1.getX() + 0.5", nil, "", "blockPosX() + 0.5"},
		{"Float cast stripped", "(float)this.age", nil, "", "age"},
		{"Int cast of group", "(int)(this.age / 5)", nil, "", "trunc(age / 5)"},
		{"Int cast of literal", "(int)12.7", nil, "", "trunc(12.7)"},
		{"Int cast of call chain", "(int)this.random.nextInt(4)", nil, "", "trunc(randInt(4))"},
		{"Nested int casts", "(int)(int)5.5", nil, "", "trunc(trunc(5.5))"},
		{"Float suffix", "1.0f + 0.5F", nil, "", "1.0 + 0.5"},
		{"Double suffix", "5d * 2.25D", nil, "", "5 * 2.25"},
		{"Next float", "this.random.nextFloat()", nil, "", "rand()"},
		{"Next double", "level.random.nextDouble()", nil, "", "rand()"},
		{"Math random", "Math.random() < 0.1", nil, "", "rand() < 0.1"},
		{"Next boolean", "random.nextBoolean()", nil, "", "(rand() > 0.5)"},
		{"Next int", "this.random.nextInt(4)", nil, "", "randInt(4)"},
		{"Floor mod", "Math.floorMod($0, 4)", nil, "", "floormod(0, 4)"},
		{"Block state step", "$0.getValue(FACING).getStepX()", facingEast, "", "1"},
		{"Block state step long prop", "$0.getValue(BlockStateProperties.HORIZONTAL_FACING).getStepZ()", map[string]string{"facing": "south"}, "", "1"},
		{"Block state step opposite", "$0.getValue(FACING).getOpposite().getStepX()", map[string]string{"facing": "west"}, "", "1"},
		{"Block state step wrapped", "($0.getValue(FACING)).getOpposite().getStepX()", facingEast, "", "-1"},
		{"Block state 2D value", "$0.getValue(FACING).get2DDataValue()", facingEast, "", "3"},
		{"Direction literal", "Direction.NORTH.getStepZ()", nil, "", "-1"},
		{"Direction literal opposite", "Direction.DOWN.getOpposite().getStepY()", nil, "", "1"},
		{"From 2D data value", "Direction.from2DDataValue($1).getStepX()", nil, "$1", "dirstepX(loopindex)"},
		{"From 2D clockwise", "Direction.from2DDataValue(2).getClockWise().getStepZ()", nil, "", "dircwstepZ(2)"},
		{"Axis compare left", "$1 == Direction.Axis.X", nil, "", "axisX(0)"},
		{"Axis compare right", "Direction.Axis.Z == $1", nil, "", "axisZ(0)"},
		{"Entity random X", "this.getRandomX(0.5)", nil, "", "(entityX + (2.0 * rand() - 1.0) * (0.5) * entityWidth * 0.5)"},
		{"Entity random Y", "getRandomY()", nil, "", "(entityY + rand() * entityHeight)"},
		{"Entity random Z", "e.getRandomZ(1.0)", nil, "", "(entityZ + (2.0 * rand() - 1.0) * (1.0) * entityDepth * 0.5)"},
		{"Block pos accessor", "$1.getY()", nil, "", "blockPosY()"},
		{"Chain accessor", "blockPos.getZ()", nil, "", "0"},
		{"Call result accessor", "pos.relative(dir).getX()", nil, "", "0"},
		{"Age field", "this.age % 10", nil, "", "age % 10"},
		{"Lifetime field", "this.age / this.lifetime", nil, "", "age / lifetime"},
		{"Loop placeholder bound", "$2", nil, "$2", "loopindex"},
		{"Loop placeholder unbound", "$3", nil, "$2", "0"},
		{"Math call", "Math.sin(this.age / 4.0)", nil, "", "sin(age / 4.0)"},
		{"Math pi", "Math.PI * 2", nil, "", "3.141592653589793 * 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalize(tt.input, tt.props, tt.loopVar)
			if err != nil {
				t.Fatalf("normalize(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestNormalize_Failures tests the hard-fail paths: unresolvable block-state
// properties and malformed casts.
func TestNormalize_Failures(t *testing.T) {
	tests := []struct {
		name  string
		input string
		props map[string]string
	}{
		{"Missing props map", "$0.getValue(FACING).getStepX()", nil},
		{"Missing property key", "$0.getValue(POWERED).getStepX()", map[string]string{"facing": "east"}},
		{"Unrecognized direction value", "$0.getValue(FACING).getStepX()", map[string]string{"facing": "sideways"}},
		{"Vertical has no 2D value", "$0.getValue(FACING).get2DDataValue()", map[string]string{"facing": "up"}},
		{"Dangling int cast", "(int)", nil},
		{"Int cast of operator", "(int) + 2", nil},
		{"Unbalanced cast group", "(int)(1 + 2", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := normalize(tt.input, tt.props, ""); err == nil {
				t.Errorf("normalize(%q) = %q, want error", tt.input, got)
			}
		})
	}
}

// TestPropKey tests decompiled property path reduction.
func TestPropKey(t *testing.T) {
	tests := []struct {
		prop string
		want string
	}{
		{"FACING", "facing"},
		{"BlockStateProperties.FACING", "facing"},
		{"BlockStateProperties.HORIZONTAL_FACING", "facing"},
		{"Properties.HOPPER_FACING", "facing"},
		{"ROTATION_DIRECTION", "facing"},
		{"AXIS", "axis"},
		{"half", "half"},
	}

	for _, tt := range tests {
		if got := propKey(tt.prop); got != tt.want {
			t.Errorf("propKey(%q) = %q, want %q", tt.prop, got, tt.want)
		}
	}
}

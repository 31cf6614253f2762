package main

import (
	"math"

	"github.com/gonewx/voxelfx/pkg/physics"
)

// Fixed orbit view: classic isometric yaw with the true isometric pitch,
// orthographic, so the projected scale is constant.
const (
	cameraYaw     = 45 * math.Pi / 180
	cameraPitch   = 35.264 * math.Pi / 180
	pixelsPerUnit = 220.0
)

// newProjection returns a block-local-to-screen projection for a screen of
// the given size. The block origin lands slightly below the screen center
// so rising effects have headroom.
func newProjection(screenW, screenH int) func(physics.Vec3) (float64, float64, float64) {
	cx := float64(screenW) / 2
	cy := float64(screenH)/2 + 120
	sinYaw, cosYaw := math.Sincos(cameraYaw)
	sinPitch, cosPitch := math.Sincos(cameraPitch)

	return func(p physics.Vec3) (float64, float64, float64) {
		rx := p.X*cosYaw + p.Z*sinYaw
		rz := -p.X*sinYaw + p.Z*cosYaw
		sx := cx + rx*pixelsPerUnit
		sy := cy + rz*sinPitch*pixelsPerUnit - p.Y*cosPitch*pixelsPerUnit
		return sx, sy, pixelsPerUnit
	}
}

// Package voxelfx ships the default particle data. The embed declarations
// must live at the module root because go:embed only reaches files in the
// declaring package's directory and below.
package voxelfx

import "embed"

//go:embed data/physics.yaml data/effects.yaml
var dataFS embed.FS

// DefaultPhysics returns the embedded physics registry document.
func DefaultPhysics() []byte {
	b, err := dataFS.ReadFile("data/physics.yaml")
	if err != nil {
		// The file is compiled in; a read failure is a build defect.
		panic(err)
	}
	return b
}

// DefaultEffects returns the embedded emission declaration document.
func DefaultEffects() []byte {
	b, err := dataFS.ReadFile("data/effects.yaml")
	if err != nil {
		panic(err)
	}
	return b
}

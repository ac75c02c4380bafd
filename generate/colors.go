package generate

import "github.com/leafo/showlights/showlight"

const colorCount = showlight.FogMax - showlight.FogMin + 1

// Beam colours sit exactly this far above the fog colour of the same pitch class
const beamFogOffset = showlight.BeamMin - showlight.FogMin

func pitchClass(pitch int) int {
	return ((pitch % colorCount) + colorCount) % colorCount
}

// FogColor is the fog colour of a pitch class
func FogColor(pitch int) int {
	return showlight.FogMin + pitchClass(pitch)
}

// BeamColor is the beam colour of a pitch class
func BeamColor(pitch int) int {
	return showlight.BeamMin + pitchClass(pitch)
}

// RandomFog returns a uniformly random fog colour different from exclude
func RandomFog(r Rand, exclude int) int {
	for {
		color := showlight.FogMin + r.IntN(colorCount)
		if color != exclude {
			return color
		}
	}
}

// RandomBeam returns a random beam colour different from exclude. Beams off
// is one extra outcome with the same weight as each colour.
func RandomBeam(r Rand, exclude int) int {
	for {
		color := showlight.BeamMin + r.IntN(colorCount+1)
		if color == showlight.BeamMax+1 {
			color = showlight.BeamOff
		}
		if color != exclude {
			return color
		}
	}
}

// Beam colours that look good under each fog colour
var compatibleColors = map[int][]int{
	24: {42, 48, 50, 52, 53, 55, 57},
	25: {42, 49, 51, 52, 54, 56, 59},
	26: {42, 48, 49, 50, 52, 53, 55, 57, 58, 59},
	27: {42, 51, 53, 56, 58},
	28: {42, 49, 50, 52, 54, 55, 57, 59},
	29: {42, 48, 51, 53, 56, 58},
	30: {42, 49, 50, 52, 54, 56, 57, 59},
	31: {42, 48, 50, 52, 55, 57},
	32: {42, 49, 51, 53, 54, 56, 58, 59},
	33: {42, 48, 50, 51, 52, 53, 54, 55, 57, 59},
	34: {42, 51, 53, 56, 58},
	35: {42, 49, 50, 52, 54, 56, 57, 59},
}

// compatibleBeamColors returns the beam codes allowed under a fog colour, or
// nil if fog is not a fog colour
func compatibleBeamColors(fog int) []int {
	return compatibleColors[fog]
}

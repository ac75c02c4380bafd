package generate

import (
	"math"

	"github.com/leafo/showlights/arrangement"
	"github.com/leafo/showlights/showlight"
)

const (
	// disabledLaserLead places the lasers on just before the end of the song
	disabledLaserLead = 100
	// laserEndLead turns the lasers off this many ms before the end
	laserEndLead = 5000
	// laserStartFraction of the song length is used when there is no solo
	laserStartFraction = 0.6
)

// GenerateLaser creates the laser on and off cues
func GenerateLaser(data *arrangement.Data, opts LaserOptions) []showlight.Showlight {
	songLength := data.SongLength

	if opts.DisableLaser {
		return []showlight.Showlight{
			{Time: songLength - disabledLaserLead, Note: showlight.LasersOn},
			{Time: songLength, Note: showlight.LasersOff},
		}
	}

	start := int(math.Round(float64(songLength) * laserStartFraction))
	if data.HasSoloSection {
		start = data.SoloSectionTime
	}

	return []showlight.Showlight{
		{Time: start, Note: showlight.LasersOn},
		{Time: songLength - laserEndLead, Note: showlight.LasersOff},
	}
}

package cmd

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/leafo/showlights/config"
	"github.com/leafo/showlights/generate"
	"github.com/leafo/showlights/showlight"
)

// generationFlags are the generation settings shared by generate and watch
type generationFlags struct {
	configFile string
	saveConfig string
	fogMethod  string
	fogBars    int
	fogTime    time.Duration
	fogColor   int
	beamMethod string
	beamTime   time.Duration
	compatible bool
	randomize  []string
	lasers     bool
	channels   []string
	seed       uint64
}

func (f *generationFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.configFile, "config", "", "Preferences YAML file, flags override its values")
	flags.StringVar(&f.saveConfig, "save-config", "", "Write the resolved settings to this preferences YAML file")
	flags.StringVar(&f.fogMethod, "fog-method", generate.FogChangeEveryNthBar.String(),
		"Fog method: "+strings.Join(generate.FogMethodNames(), "|"))
	flags.IntVar(&f.fogBars, "fog-bars", generate.DefaultBarInterval, "Bars between fog changes (bars method)")
	flags.DurationVar(&f.fogTime, "fog-time", generate.DefaultFogMinTime, "Minimum time between fog changes (time method)")
	flags.IntVar(&f.fogColor, "fog-color", generate.DefaultSingleColour,
		fmt.Sprintf("Fog color for the single method (%d-%d)", showlight.FogMin, showlight.FogMax))
	flags.StringVar(&f.beamMethod, "beam-method", generate.BeamMinTimeBetweenChanges.String(),
		"Beam method: "+strings.Join(generate.BeamMethodNames(), "|"))
	flags.DurationVar(&f.beamTime, "beam-time", generate.DefaultBeamMinTime, "Minimum time between beam changes")
	flags.BoolVar(&f.compatible, "compatible", false, "Only use beam colors that match the active fog color")
	flags.StringSliceVar(&f.randomize, "randomize", nil, "Randomize colors of these channels: fog,beam")
	flags.BoolVar(&f.lasers, "lasers", true, "Turn the lasers on for the solo, otherwise only at the very end")
	flags.StringSliceVar(&f.channels, "channels", []string{"fog", "beam", "lasers"}, "Channels to regenerate")
	flags.Uint64Var(&f.seed, "seed", 0, "Seed for randomized colors")
}

// options resolves the generator options: defaults, then the preferences
// file, then any flag given on the command line. Unknown method names fall
// back to the defaults.
func (f *generationFlags) options(flags *pflag.FlagSet) (generate.Options, error) {
	opts := generate.DefaultOptions()
	if f.configFile != "" {
		prefs, err := config.Load(f.configFile)
		if err != nil {
			return generate.Options{}, err
		}
		opts = prefs.Options()
	}

	if flags.Changed("fog-method") {
		method, err := generate.ParseFogMethod(f.fogMethod)
		if err != nil {
			log.Printf("Warning: %v, using %s", err, generate.FogChangeEveryNthBar)
			method = generate.FogChangeEveryNthBar
		}
		opts.Fog.Method = method
	}
	if flags.Changed("beam-method") {
		method, err := generate.ParseBeamMethod(f.beamMethod)
		if err != nil {
			log.Printf("Warning: %v, using %s", err, generate.BeamMinTimeBetweenChanges)
			method = generate.BeamMinTimeBetweenChanges
		}
		opts.Beam.Method = method
	}
	if flags.Changed("fog-bars") {
		opts.Fog.BarInterval = f.fogBars
	}
	if flags.Changed("fog-time") {
		opts.Fog.MinTime = f.fogTime
	}
	if flags.Changed("fog-color") {
		if showlight.TypeOf(f.fogColor) != showlight.Fog {
			return generate.Options{}, fmt.Errorf("%w: %d", config.ErrInvalidColor, f.fogColor)
		}
		opts.Fog.SingleColor = f.fogColor
	}
	if flags.Changed("beam-time") {
		opts.Beam.MinTime = f.beamTime
	}
	if flags.Changed("compatible") {
		opts.Beam.UseCompatibleColors = f.compatible
	}
	if flags.Changed("lasers") {
		opts.Laser.DisableLaser = !f.lasers
	}

	if flags.Changed("randomize") {
		opts.Fog.RandomizeColors = false
		opts.Beam.RandomizeColors = false
		for _, channel := range f.randomize {
			switch strings.ToLower(strings.TrimSpace(channel)) {
			case "fog":
				opts.Fog.RandomizeColors = true
			case "beam", "beams":
				opts.Beam.RandomizeColors = true
			default:
				return generate.Options{}, fmt.Errorf("unknown channel to randomize: %q", channel)
			}
		}
	}

	if flags.Changed("channels") {
		opts.Fog.ShouldGenerate = false
		opts.Beam.ShouldGenerate = false
		opts.Laser.ShouldGenerate = false
		for _, channel := range f.channels {
			switch strings.ToLower(strings.TrimSpace(channel)) {
			case "fog":
				opts.Fog.ShouldGenerate = true
			case "beam", "beams":
				opts.Beam.ShouldGenerate = true
			case "laser", "lasers":
				opts.Laser.ShouldGenerate = true
			default:
				return generate.Options{}, fmt.Errorf("unknown channel: %q", channel)
			}
		}
	}

	opts.Clamp()

	if f.saveConfig != "" {
		if err := config.Save(f.saveConfig, config.FromOptions(opts)); err != nil {
			return generate.Options{}, err
		}
		log.Printf("Saved preferences to %s", f.saveConfig)
	}
	return opts, nil
}

func (f *generationFlags) rand(flags *pflag.FlagSet) generate.Rand {
	if flags.Changed("seed") {
		return generate.NewRand(f.seed)
	}
	return generate.DefaultRand
}

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/leafo/showlights/arrangement"
	"github.com/leafo/showlights/generate"
	"github.com/leafo/showlights/midiexport"
	"github.com/leafo/showlights/showlight"
)

// outputFlags control where generated showlights are written
type outputFlags struct {
	beamSource string
	existing   string
	output     string
	midi       string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.beamSource, "beam-source", "", "Arrangement used for beams (defaults to the fog arrangement)")
	cmd.Flags().StringVar(&f.existing, "existing", "", "Existing showlights file whose cues are kept for channels not regenerated")
	cmd.Flags().StringVarP(&f.output, "output", "o", "showlights.xml", "Output showlights file")
	cmd.Flags().StringVar(&f.midi, "midi", "", "Also write the showlights as a MIDI file")
}

var (
	generateGenFlags generationFlags
	generateOutFlags outputFlags
)

func init() {
	generateGenFlags.register(generateCmd.Flags())
	generateOutFlags.register(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate <fog-arrangement.xml>",
	Short: "Generate showlights for an arrangement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := generateGenFlags.options(cmd.Flags())
		if err != nil {
			return err
		}

		cache := arrangement.NewCache(arrangement.FileSource{}, nil)
		cache.Verbose = verbose

		gen := generate.NewGenerator(cache, args[0], generateOutFlags.beamSource, opts, generateGenFlags.rand(cmd.Flags()))
		return runGeneration(gen, generateOutFlags)
	},
}

// runGeneration generates and writes one set of showlights
func runGeneration(gen *generate.Generator, out outputFlags) error {
	var initial []showlight.Showlight
	if out.existing != "" {
		existing, err := showlight.Load(out.existing)
		if err != nil {
			return err
		}
		initial = existing
	}

	showlights, err := gen.Generate(initial)
	if err != nil {
		return err
	}

	if verbose {
		printSummary(showlights)
	}

	if err := showlight.Save(out.output, showlights); err != nil {
		return err
	}
	log.Printf("Wrote %d showlights to %s", len(showlights), out.output)

	if out.midi != "" {
		if err := midiexport.WriteFile(out.midi, showlights); err != nil {
			return err
		}
		log.Printf("Wrote MIDI preview to %s", out.midi)
	}

	return nil
}

func printSummary(showlights []showlight.Showlight) {
	for _, t := range []showlight.Type{showlight.Fog, showlight.Beam, showlight.Laser} {
		fmt.Fprintf(os.Stderr, "%-6s %d cues\n", t.String()+":", len(showlight.OfType(showlights, t)))
	}
}

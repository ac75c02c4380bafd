package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/leafo/showlights/midiexport"
	"github.com/leafo/showlights/showlight"
)

func init() {
	rootCmd.AddCommand(midiCmd)
}

var midiCmd = &cobra.Command{
	Use:   "midi <showlights.xml> <out.mid>",
	Short: "Export a showlights file to MIDI",
	Long: `Writes each showlight channel to its own MIDI track. Each cue is a note
whose key is the cue's note code, held until the next cue of the channel.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		showlights, err := showlight.Load(args[0])
		if err != nil {
			return err
		}

		if err := midiexport.WriteFile(args[1], showlights); err != nil {
			return err
		}

		log.Printf("Exported %d showlights to %s", len(showlights), args[1])
		return nil
	},
}

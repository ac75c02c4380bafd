package cmd

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "showlights",
	Short: "Generate Rocksmith showlights",
	Long: `Generates fog, beam and laser cues for a Rocksmith song from its
arrangement XML files, and exports them as a showlights XML or MIDI file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log cache and generation details")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

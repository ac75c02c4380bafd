package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leafo/showlights/midiexport"
	"github.com/leafo/showlights/showlight"
)

var inspectJSON bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output the summary as JSON")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <showlights.xml|showlights.mid>",
	Short: "Summarize the cues of a showlights or exported MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showlights, err := loadAnyShowlights(args[0])
		if err != nil {
			return err
		}
		return printInspection(os.Stdout, args[0], showlights, inspectJSON)
	},
}

// channelSummary describes the cues of one channel
type channelSummary struct {
	Channel string `json:"channel"`
	Count   int    `json:"count"`
	First   string `json:"first,omitempty"`
	Last    string `json:"last,omitempty"`
	Notes   []int  `json:"notes"` // Distinct note codes in ascending order
	Repeats int    `json:"repeats"`
}

func loadAnyShowlights(filename string) ([]showlight.Showlight, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mid", ".midi":
		return midiexport.ReadFile(filename)
	default:
		return showlight.Load(filename)
	}
}

func summarize(showlights []showlight.Showlight) []channelSummary {
	var summaries []channelSummary
	for _, t := range []showlight.Type{showlight.Fog, showlight.Beam, showlight.Laser, showlight.Undefined} {
		cues := showlight.OfType(showlights, t)
		if len(cues) == 0 && t == showlight.Undefined {
			continue
		}
		showlight.SortByTime(cues)

		summary := channelSummary{Channel: t.String(), Count: len(cues), Notes: []int{}}
		for i, cue := range cues {
			if !slices.Contains(summary.Notes, cue.Note) {
				summary.Notes = append(summary.Notes, cue.Note)
			}
			if i > 0 && cues[i-1].Note == cue.Note {
				summary.Repeats++
			}
		}
		slices.Sort(summary.Notes)

		if len(cues) > 0 {
			summary.First = showlight.FormatSeconds(cues[0].Time)
			summary.Last = showlight.FormatSeconds(cues[len(cues)-1].Time)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func printInspection(w io.Writer, filename string, showlights []showlight.Showlight, jsonOutput bool) error {
	summaries := summarize(showlights)

	if jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summaries)
	}

	fmt.Fprintf(w, "Showlights: %s\n", filename)
	fmt.Fprintf(w, "Number of cues: %d\n", len(showlights))
	fmt.Fprintln(w)

	for _, summary := range summaries {
		fmt.Fprintf(w, "%s:\n", summary.Channel)
		fmt.Fprintf(w, "  Cues: %d\n", summary.Count)
		if summary.Count == 0 {
			fmt.Fprintln(w, "  (no cues)")
			continue
		}
		fmt.Fprintf(w, "  From %s to %s\n", summary.First, summary.Last)
		fmt.Fprintf(w, "  Notes used: %v\n", summary.Notes)
		if summary.Repeats > 0 {
			fmt.Fprintf(w, "  Consecutive repeats: %d\n", summary.Repeats)
		}
	}
	return nil
}

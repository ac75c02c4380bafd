package midiexport

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/leafo/showlights/showlight"
)

// tempoEvent is a tempo change at an absolute tick
type tempoEvent struct {
	Time uint32
	BPM  float64
}

// tempoMap converts ticks to milliseconds across tempo changes
type tempoMap struct {
	resolution float64
	events     []tempoEvent
}

// newTempoMap collects tempo changes from every track. A file without any
// tempo event plays at 120 BPM.
func newTempoMap(smfData *smf.SMF) (*tempoMap, error) {
	ticks, ok := smfData.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format")
	}

	var events []tempoEvent
	for _, track := range smfData.Tracks {
		var currentTime uint32
		for _, event := range track {
			currentTime += event.Delta
			var bpm float64
			if event.Message.GetMetaTempo(&bpm) {
				events = append(events, tempoEvent{Time: currentTime, BPM: bpm})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})

	if len(events) == 0 || events[0].Time > 0 {
		events = append([]tempoEvent{{Time: 0, BPM: 120.0}}, events...)
	}

	return &tempoMap{resolution: float64(ticks.Resolution()), events: events}, nil
}

// milliseconds returns the time of an absolute tick, rounded to the nearest ms
func (m *tempoMap) milliseconds(tick uint32) int {
	var elapsed float64
	for i, tempo := range m.events {
		if tempo.Time >= tick {
			break
		}
		end := tick
		if i+1 < len(m.events) && m.events[i+1].Time < tick {
			end = m.events[i+1].Time
		}
		elapsed += float64(end-tempo.Time) * 60000.0 / (tempo.BPM * m.resolution)
	}
	return int(math.Round(elapsed))
}

// Read parses the cues out of a MIDI file. Every note-on whose key is a
// showlight code becomes a cue; other notes are ignored.
func Read(reader io.Reader) ([]showlight.Showlight, error) {
	smfData, err := smf.ReadFrom(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading MIDI file: %w", err)
	}

	tempo, err := newTempoMap(smfData)
	if err != nil {
		return nil, err
	}

	var result []showlight.Showlight
	for _, track := range smfData.Tracks {
		var currentTime uint32
		for _, event := range track {
			currentTime += event.Delta

			var ch, key, vel uint8
			if !event.Message.GetNoteOn(&ch, &key, &vel) || vel == 0 {
				continue
			}
			if showlight.TypeOf(int(key)) == showlight.Undefined {
				continue
			}

			result = append(result, showlight.Showlight{
				Time: tempo.milliseconds(currentTime),
				Note: int(key),
			})
		}
	}

	showlight.SortByTime(result)
	return result, nil
}

// ReadFile reads the cues out of a MIDI file on disk
func ReadFile(filename string) ([]showlight.Showlight, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening MIDI file: %w", err)
	}
	defer file.Close()

	return Read(file)
}

package showlight

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

type xmlShowlights struct {
	XMLName    xml.Name       `xml:"showlights"`
	Count      int            `xml:"count,attr"`
	Showlights []xmlShowlight `xml:"showlight"`
}

type xmlShowlight struct {
	Time string `xml:"time,attr"`
	Note string `xml:"note,attr"`
}

var emptyTagRegex = regexp.MustCompile(`<(\w+)([^>]*?)></(\w+)>`)

// Write encodes the cues as a showlights XML document
func Write(writer io.Writer, showlights []Showlight) error {
	doc := xmlShowlights{
		Count:      len(showlights),
		Showlights: make([]xmlShowlight, len(showlights)),
	}
	for i, sl := range showlights {
		doc.Showlights[i] = xmlShowlight{
			Time: FormatSeconds(sl.Time),
			Note: strconv.Itoa(sl.Note),
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode XML: %w", err)
	}
	buf.WriteString("\n")

	// Rocksmith writes records as self-closing tags
	out := emptyTagRegex.ReplaceAllFunc(buf.Bytes(), func(match []byte) []byte {
		m := emptyTagRegex.FindSubmatch(match)
		if !bytes.Equal(m[1], m[3]) {
			return match
		}
		return []byte("<" + string(m[1]) + string(m[2]) + " />")
	})

	if _, err := writer.Write(out); err != nil {
		return fmt.Errorf("failed to write showlights: %w", err)
	}
	return nil
}

// Read decodes a showlights XML document. Records with an unknown note code
// are kept; callers decide what to do with them.
func Read(reader io.Reader) ([]Showlight, error) {
	var doc xmlShowlights
	if err := xml.NewDecoder(reader).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode showlights: %w", err)
	}

	showlights := make([]Showlight, 0, len(doc.Showlights))
	for i, rec := range doc.Showlights {
		time, err := ParseSeconds(rec.Time)
		if err != nil {
			return nil, fmt.Errorf("showlight %d: %w", i, err)
		}
		note, err := strconv.Atoi(rec.Note)
		if err != nil {
			return nil, fmt.Errorf("showlight %d: invalid note '%s': %w", i, rec.Note, err)
		}
		showlights = append(showlights, Showlight{Time: time, Note: note})
	}
	return showlights, nil
}

// Save writes the cues to a showlights file
func Save(filename string, showlights []Showlight) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating showlights file: %w", err)
	}
	defer file.Close()

	if err := Write(file, showlights); err != nil {
		return err
	}
	return file.Close()
}

// Load reads a showlights file
func Load(filename string) ([]Showlight, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening showlights file: %w", err)
	}
	defer file.Close()

	return Read(file)
}

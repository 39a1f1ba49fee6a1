package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	// ErrNoTitles indicates the input held nothing that looks like a title
	ErrNoTitles = errors.New("no titles found in input")

	// ErrInvalidJSON indicates JSON input in neither supported shape
	ErrInvalidJSON = errors.New(`invalid JSON: expected an object with an "items" array or an array of objects with a "title"`)
)

var (
	trailingObjectComma = regexp.MustCompile(`,\s*}`)
	trailingArrayComma  = regexp.MustCompile(`,\s*]`)
)

// ParseTitles extracts titles from pasted JSON or CSV text. Input starting
// with '{' or '[' is JSON; anything else is CSV.
func ParseTitles(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrNoTitles
	}

	var titles []string
	var err error
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		titles, err = parseJSON(input)
	} else {
		titles, err = parseCSV(input)
	}
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, ErrNoTitles
	}
	return titles, nil
}

type titleEntry struct {
	Title *string `json:"title"`
}

func parseJSON(input string) ([]string, error) {
	// Hand-edited exports often carry trailing commas and stray escapes
	cleaned := trailingObjectComma.ReplaceAllString(input, "}")
	cleaned = trailingArrayComma.ReplaceAllString(cleaned, "]")
	cleaned = strings.ReplaceAll(cleaned, `\`, "")

	var raw json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var entries []json.RawMessage
	if strings.HasPrefix(cleaned, "{") {
		var wrapper struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil || wrapper.Items == nil {
			return nil, ErrInvalidJSON
		}
		entries = wrapper.Items
	} else if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, ErrInvalidJSON
	}

	var titles []string
	for _, e := range entries {
		var entry titleEntry
		// Entries that are not objects with a string title are skipped
		if json.Unmarshal(e, &entry) != nil || entry.Title == nil {
			continue
		}
		if t := strings.TrimSpace(*entry.Title); t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

func parseCSV(input string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(input))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, rec)
	}

	// A header row is any row with a column mentioning "title"; rows before
	// it are ignored and the matching column is used.
	column, start := 0, 0
	for i, rec := range records {
		if col := titleColumn(rec); col >= 0 {
			column, start = col, i+1
			break
		}
	}

	var titles []string
	for _, rec := range records[start:] {
		if column >= len(rec) {
			continue
		}
		t := strings.TrimSpace(strings.Trim(rec[column], `"`))
		if t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

func titleColumn(rec []string) int {
	for i, field := range rec {
		if strings.Contains(strings.ToLower(field), "title") {
			return i
		}
	}
	return -1
}

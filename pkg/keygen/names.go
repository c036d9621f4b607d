package keygen

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// NameParser defines the interface for reading names from various sources.
type NameParser interface {
	// ParseNames reads names from a source and returns them in order.
	ParseNames(source string) ([]string, error)
}

// JSONParser parses names from JSON files.
type JSONParser struct {
	NameField string // Field name for objects (default: "name")
}

// ParseNames parses names from a JSON file.
//
// Expected format, strings and objects may be mixed:
//
//	["Froggy", {"name": "swamp"}]
func (p *JSONParser) ParseNames(jsonFile string) ([]string, error) {
	file, err := os.Open(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	var items []json.RawMessage
	if err := json.NewDecoder(file).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	nameField := p.NameField
	if nameField == "" {
		nameField = "name"
	}

	names := make([]string, 0, len(items))

	for i, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			names = append(names, name)
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("item %d: expected string or object", i)
		}

		v, ok := obj[nameField]
		if !ok {
			return nil, fmt.Errorf("item %d: missing %s field", i, nameField)
		}

		name, ok = v.(string)
		if !ok {
			return nil, fmt.Errorf("item %d: %s field must be a string", i, nameField)
		}

		names = append(names, name)
	}

	return names, nil
}

// CSVParser parses names from CSV files with a header row.
type CSVParser struct {
	NameCol string // Column name for the name (default: "name")
}

// ParseNames parses names from a CSV file.
func (p *CSVParser) ParseNames(csvFile string) ([]string, error) {
	file, err := os.Open(csvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	nameCol := p.NameCol
	if nameCol == "" {
		nameCol = "name"
	}

	nameIdx := -1

	for i, col := range header {
		if col == nameCol {
			nameIdx = i
		}
	}

	if nameIdx == -1 {
		return nil, fmt.Errorf("missing required column: %s", nameCol)
	}

	names := make([]string, 0)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		if nameIdx >= len(record) {
			return nil, fmt.Errorf("%s column index out of range", nameCol)
		}

		names = append(names, record[nameIdx])
	}

	return names, nil
}

// LineParser parses one name per line. Blank lines are skipped unless
// KeepEmpty is set; trailing carriage returns are dropped.
type LineParser struct {
	KeepEmpty bool

	// In is read when the source is "-". Defaults to os.Stdin.
	In io.Reader
}

// ParseNames parses names from a text file, or standard input when source
// is "-".
func (p *LineParser) ParseNames(source string) ([]string, error) {
	r := p.In
	if r == nil {
		r = os.Stdin
	}

	if source != "-" {
		file, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()

		r = file
	}

	var names []string

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" && !p.KeepEmpty {
			continue
		}

		names = append(names, line)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read names: %w", err)
	}

	return names, nil
}

// ParserFor returns the parser for a format name: json, csv or lines.
func ParserFor(format string) (NameParser, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}, nil
	case "csv":
		return &CSVParser{}, nil
	case "lines", "txt", "":
		return &LineParser{}, nil
	default:
		return nil, fmt.Errorf("unknown name format %q", format)
	}
}

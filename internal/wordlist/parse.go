package wordlist

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"wordmatch/internal/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, use .txt, .csv or .xlsx")
	ErrNoValidPairs      = errors.New("file contains no valid word pairs")
	ErrMissingColumns    = errors.New("spreadsheet needs english and chinese columns")
)

var zipMagic = []byte("PK\x03\x04")

// Parse reads a word list, choosing the format from the file extension.
// Files without a known extension are accepted when they look like a workbook.
func Parse(filename string, r io.Reader) ([]models.WordPair, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var pairs []models.WordPair
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".csv":
		pairs, err = ParseText(bytes.NewReader(data))
	case ".xlsx":
		pairs, err = ParseWorkbook(bytes.NewReader(data))
	default:
		if !bytes.HasPrefix(data, zipMagic) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
		}
		pairs, err = ParseWorkbook(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, ErrNoValidPairs
	}
	return pairs, nil
}

// ParseText reads one english,chinese pair per line. Extra columns are
// ignored, fields are trimmed and may be quoted. Lines without both fields
// are skipped.
func ParseText(r io.Reader) ([]models.WordPair, error) {
	var pairs []models.WordPair
	// ReadString has no line length limit; the upload limit bounds the input
	reader := bufio.NewReader(r)
	for first := true; ; first = false {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read word list: %w", err)
		}
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) != "" {
			if fields := splitLine(line); len(fields) >= 2 {
				pair := models.WordPair{
					English: strings.TrimSpace(fields[0]),
					Chinese: strings.TrimSpace(fields[1]),
				}
				if pair.Valid() {
					pairs = append(pairs, pair)
				}
			}
		}
		if err == io.EOF {
			return pairs, nil
		}
	}
}

// splitLine parses a single CSV record, falling back to a plain split when
// the quoting is broken.
func splitLine(line string) []string {
	reader := csv.NewReader(strings.NewReader(line))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	record, err := reader.Read()
	if err != nil {
		return strings.Split(line, ",")
	}
	return record
}

package wordlist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"wordmatch/internal/models"
)

const (
	templateSheet = "Template"
	mistakesSheet = "Mistakes"
)

// ParseWorkbook reads pairs from the first sheet of an xlsx workbook. The
// header row must name an english and a chinese column.
func ParseWorkbook(r io.Reader) ([]models.WordPair, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoValidPairs
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrNoValidPairs
	}

	eng, chi := headerColumn(rows[0], "english"), headerColumn(rows[0], "chinese")
	if eng < 0 || chi < 0 {
		return nil, ErrMissingColumns
	}

	var pairs []models.WordPair
	for _, row := range rows[1:] {
		pair := models.WordPair{
			English: strings.TrimSpace(cell(row, eng)),
			Chinese: strings.TrimSpace(cell(row, chi)),
		}
		if pair.Valid() {
			pairs = append(pairs, pair)
		}
	}
	return pairs, nil
}

// headerColumn finds name in the header, preferring the lower-case and
// capitalised spellings before any other casing.
func headerColumn(header []string, name string) int {
	title := strings.ToUpper(name[:1]) + name[1:]
	for _, want := range []string{name, title} {
		for i, h := range header {
			if strings.TrimSpace(h) == want {
				return i
			}
		}
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// WriteTemplate writes an empty import workbook with two example rows
func WriteTemplate(w io.Writer) error {
	rows := [][]any{{"english", "chinese"}}
	for _, p := range templateExamples {
		rows = append(rows, []any{p.English, p.Chinese})
	}
	return writeSheet(w, templateSheet, rows)
}

// WriteMistakes writes the mistake ledger as word, count and export timestamp
func WriteMistakes(w io.Writer, entries []models.MistakeEntry, exportedAt time.Time) error {
	stamp := exportedAt.UTC().Format(time.RFC3339)
	rows := [][]any{{"word", "count", "timestamp"}}
	for _, e := range entries {
		rows = append(rows, []any{e.Word, e.Count, stamp})
	}
	return writeSheet(w, mistakesSheet, rows)
}

func writeSheet(w io.Writer, name string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for r, row := range rows {
		for c, v := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, ref, v); err != nil {
				return fmt.Errorf("failed to set %s: %w", ref, err)
			}
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

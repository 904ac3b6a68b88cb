package vocab

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

var (
	header3 = []string{"Term", "Reading", "Meaning"}
	header5 = []string{"Term", "Reading", "Meaning", "Example", "JLPT"}
)

// tableWidth picks the column count for interchange output: 5 when any row
// carries an example or JLPT value, 3 otherwise.
func tableWidth(rows []Row) int {
	for _, r := range rows {
		if r.Example != "" || r.JLPT != "" {
			return 5
		}
	}
	return 3
}

// WriteCSV writes the rows as UTF-8 CSV with a Term,Reading,Meaning header
// (3-column mode) or Term,Reading,Meaning,Example,JLPT (5-column mode),
// selected by the widest populated row.
func WriteCSV(w io.Writer, rows []Row) error {
	width := tableWidth(rows)
	header := header3
	if width == 5 {
		header = header5
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Fields()[:width]); err != nil {
			return fmt.Errorf("write csv row %q: %w", r.Term, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads rows back from CSV, right-padding short records, skipping
// fully blank records, and dropping a leading header row if present.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return FromGrid(records), nil
}

// FromGrid converts a 2D grid (CSV records or a spreadsheet range) into
// canonical rows using the same header conventions as CSV. Short rows are
// right-padded with empty strings; fully blank rows are skipped.
func FromGrid(grid [][]string) []Row {
	var rows []Row
	for i, rec := range grid {
		if i == 0 && isHeader(rec) {
			continue
		}
		blank := true
		for _, c := range rec {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		rows = append(rows, CanonicalRow(rec))
	}
	return rows
}

// ToGrid renders rows as a 2D grid with the interchange header, ready for a
// spreadsheet-like store.
func ToGrid(rows []Row) [][]string {
	width := tableWidth(rows)
	header := header3
	if width == 5 {
		header = header5
	}
	grid := make([][]string, 0, len(rows)+1)
	grid = append(grid, header)
	for _, r := range rows {
		grid = append(grid, r.Fields()[:width])
	}
	return grid
}

func isHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "Term")
}

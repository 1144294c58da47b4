package workbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

var errEmptyCSV = errors.New("no columns to parse from file")

const utf8BOM = "\ufeff"

// readTable parses path as a table as wide as its header. Short records are
// padded with empty fields; a record wider than the header is an error.
func readTable(path string) ([][]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse %s: %w", path, errEmptyCSV)
	}
	records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)

	width := len(records[0])
	for i, rec := range records[1:] {
		switch {
		case len(rec) > width:
			return nil, fmt.Errorf("parse %s: record on line %d: expected %d fields, saw %d", path, i+2, width, len(rec))
		case len(rec) < width:
			padded := make([]string, width)
			copy(padded, rec)
			records[i+1] = padded
		}
	}
	return records, nil
}

// cellValue keeps numeric fields numeric in the sheet; everything else,
// including processing times like "5s", stays text.
func cellValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

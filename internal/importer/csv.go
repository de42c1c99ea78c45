package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/restopulse/review-server/internal/pipeline"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV reads a review export in CSV form and returns the raw records
// plus the number of rows that were skipped. The first row must be a
// header; columns are matched by alias, so exports from different tools
// parse without configuration.
//
// Files that are not valid UTF-8 are decoded as Windows-1252 before
// parsing, which covers the legacy spreadsheet exports seen in practice.
func ParseCSV(r io.Reader) ([]pipeline.RawReview, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read csv payload: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, 0, fmt.Errorf("decode csv payload: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("csv payload is empty")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}

	positions := mapHeader(header)
	if len(positions) == 0 {
		return nil, 0, fmt.Errorf("csv header has no recognizable columns")
	}

	var (
		records []pipeline.RawReview
		skipped int
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		raw, ok := rowToRaw(positions, row)
		if !ok {
			skipped++
			continue
		}
		records = append(records, raw)
	}
	return records, skipped, nil
}

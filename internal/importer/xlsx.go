package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/restopulse/review-server/internal/pipeline"
)

// ParseXLSX reads the first sheet of an XLSX review export. Column
// handling is identical to ParseCSV: the first row is a header matched by
// alias, unusable rows are skipped and counted.
func ParseXLSX(r io.Reader) ([]pipeline.RawReview, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("open xlsx payload: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("xlsx payload has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	positions := mapHeader(rows[0])
	if len(positions) == 0 {
		return nil, 0, fmt.Errorf("sheet %q has no recognizable columns", sheets[0])
	}

	var (
		records []pipeline.RawReview
		skipped int
	)
	for _, row := range rows[1:] {
		raw, ok := rowToRaw(positions, row)
		if !ok {
			skipped++
			continue
		}
		records = append(records, raw)
	}
	return records, skipped, nil
}

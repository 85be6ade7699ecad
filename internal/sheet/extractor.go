// Package sheet turns an uploaded spreadsheet into an ordered sequence of
// column→value rows keyed by the header line.
package sheet

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	appErrors "github.com/unclebandit/mailmerge-backend/internal/errors"
)

// EmailColumn is the required recipient header, matched case-sensitively.
const EmailColumn = "Email"

// Row maps a header cell to the trimmed value of the corresponding cell in
// one data row. Missing cells are present with an empty value.
type Row map[string]string

// Sheet is the parsed upload. Rows keeps one entry per data row of the
// original sheet, in order; entries whose recipient cell was empty are nil
// so positional sequence numbers stay stable.
type Sheet struct {
	Header []string
	Rows   []Row
}

// Extract parses the first sheet of an xlsx/xls/csv upload and builds rows
// keyed by the header. It fails with a ValidationError when the file cannot
// be parsed, has no data rows, or the required email column is absent.
func Extract(data []byte, filename, emailColumn string) (*Sheet, error) {
	grid, err := parseGrid(data, filename)
	if err != nil {
		return nil, err
	}

	if len(grid) < 2 {
		return nil, appErrors.NewValidation("spreadsheet is empty or missing data")
	}

	header := grid[0]
	emailIdx := -1
	for i, col := range header {
		if col == emailColumn {
			emailIdx = i
			break
		}
	}
	if emailIdx == -1 {
		return nil, appErrors.NewValidation(`no "` + emailColumn + `" column found; the header row must include it`)
	}

	sh := &Sheet{Header: header, Rows: make([]Row, 0, len(grid)-1)}
	for _, raw := range grid[1:] {
		row := Row{}
		for i, col := range header {
			val := ""
			if i < len(raw) {
				val = strings.TrimSpace(raw[i])
			}
			row[col] = val
		}
		// Rows without a recipient are silently excluded, but their slot
		// is kept so seq = index+1 holds for the rest of the sheet.
		if row[emailColumn] == "" {
			sh.Rows = append(sh.Rows, nil)
			continue
		}
		sh.Rows = append(sh.Rows, row)
	}

	return sh, nil
}

func parseGrid(data []byte, filename string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return parseCSV(data)
	}
	return parseExcel(data)
}

func parseExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, appErrors.NewValidation("unable to parse spreadsheet: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, appErrors.NewValidation("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, appErrors.NewValidation("unable to read spreadsheet rows: " + err.Error())
	}
	return rows, nil
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, appErrors.NewValidation("unable to parse csv file: " + err.Error())
		}
		rows = append(rows, record)
	}
	return rows, nil
}

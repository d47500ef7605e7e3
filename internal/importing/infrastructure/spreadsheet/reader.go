package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither XLSX nor CSV.
	ErrUnsupportedFormat = errors.New("spreadsheet: unsupported file format")
	// ErrNoHeader is returned when the first sheet has no header row.
	ErrNoHeader = errors.New("spreadsheet: missing header row")
	// ErrUnreadable wraps parse failures of the file body.
	ErrUnreadable = errors.New("spreadsheet: unreadable file")
)

// Format is a supported upload format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the format from a file name.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// Sheet is a parsed upload: the header row and one map per data row keyed by
// header. Lines[i] is the 1-based line of Rows[i] in the source file.
type Sheet struct {
	Headers []string
	Rows    []map[string]any
	Lines   []int
}

// Read parses the first sheet of an XLSX workbook or a CSV file. Blank
// rows are skipped but still counted in Lines.
func Read(filename string, r io.Reader) (*Sheet, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	var (
		records [][]string
		lines   []int
	)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		records, lines, err = readCSV(r)
	}
	if err != nil {
		return nil, err
	}
	return toSheet(records, lines)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %v", ErrUnreadable, err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", ErrUnreadable, err)
	}
	return rows, nil
}

// readCSV also returns the starting line of each record, since the csv
// reader drops empty lines.
func readCSV(r io.Reader) ([][]string, []int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	var (
		records [][]string
		lines   []int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: read csv: %v", ErrUnreadable, err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}
	return records, lines, nil
}

// toSheet keys data rows by header. lines[i] is the source line of
// records[i]; without lines, records sit on consecutive lines.
func toSheet(records [][]string, lines []int) (*Sheet, error) {
	start := 0
	for start < len(records) && blank(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, ErrNoHeader
	}
	headers := make([]string, len(records[start]))
	for i, h := range records[start] {
		headers[i] = strings.TrimSpace(h)
	}

	capacity := len(records) - start - 1
	sheet := &Sheet{Headers: headers, Rows: make([]map[string]any, 0, capacity), Lines: make([]int, 0, capacity)}
	for i := start + 1; i < len(records); i++ {
		record := records[i]
		if blank(record) {
			continue
		}
		row := make(map[string]any, len(headers))
		for col, header := range headers {
			if header == "" || col >= len(record) {
				continue
			}
			if _, dup := row[header]; dup {
				continue
			}
			row[header] = record[col]
		}
		sheet.Rows = append(sheet.Rows, row)
		sheet.Lines = append(sheet.Lines, lineOf(lines, i))
	}
	return sheet, nil
}

func lineOf(lines []int, i int) int {
	if i < len(lines) {
		return lines[i]
	}
	return i + 1
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

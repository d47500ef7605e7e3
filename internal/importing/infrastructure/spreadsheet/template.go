package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const templateSheet = "Pipeline"

// ExampleRow fills the second template row; keys are header labels.
var ExampleRow = map[string]any{
	"Project Name":                   "Example Station",
	"Plant Owner":                    "Example Power LLC",
	"ISO":                            "PJM",
	"Legacy Nameplate Capacity (MW)": 620,
	"Tech":                           "CCGT",
	"Fuel":                           "Gas",
	"Legacy COD":                     1998,
	"2024 Capacity Factor":           0.22,
	"Number of Sites":                1,
	"Transactability":                "Bilateral - developed",
	"Co-Locate/Repower":              "Codevelopment",
	"Thermal Optimization":           1,
	"Environmental Score":            2,
	"Market Score":                   3,
	"Infra":                          3,
	"IX":                             2,
	"POI Voltage (KV)":               345,
}

// WriteTemplate writes an import template with the given header row and
// one example row.
func WriteTemplate(w io.Writer, headers []string) error {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", templateSheet)

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		_ = f.SetCellValue(templateSheet, cell, header)
		_ = f.SetCellStyle(templateSheet, cell, cell, style)
		if v, ok := ExampleRow[header]; ok {
			example, _ := excelize.CoordinatesToCellName(i+1, 2)
			_ = f.SetCellValue(templateSheet, example, v)
		}
	}
	if len(headers) > 0 {
		last, _ := excelize.ColumnNumberToName(len(headers))
		_ = f.SetColWidth(templateSheet, "A", last, 22)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("spreadsheet: write template: %w", err)
	}
	return nil
}

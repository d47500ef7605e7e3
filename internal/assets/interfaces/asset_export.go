package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	assets "pipeline-dashboard/internal/assets/domain"
	scoring "pipeline-dashboard/internal/scoring/domain"
)

const (
	assetsSheet  = "Assets"
	summarySheet = "Summary"
)

// BuildAssetsXLSX renders the asset listing with one column per canonical
// field, plus a summary sheet.
func BuildAssetsXLSX(list []assets.Asset, stats assets.Stats, generated time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", assetsSheet)
	f.NewSheet(summarySheet)

	fields := assets.Fields()
	header := make([]any, 0, len(fields))
	for _, field := range fields {
		header = append(header, field.Label)
	}
	if err := f.SetSheetRow(assetsSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i := range list {
		a := &list[i]
		row := make([]any, 0, len(fields))
		for _, field := range fields {
			row = append(row, xlsxValue(field, a))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(assetsSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetPanes(assetsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	_ = f.SetCellValue(summarySheet, "A1", "Pipeline Summary")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", generated.UTC().Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Assets")
	_ = f.SetCellValue(summarySheet, "B4", stats.Total)
	_ = f.SetCellValue(summarySheet, "A5", "With N/A inputs")
	_ = f.SetCellValue(summarySheet, "B5", stats.WithNA)
	_ = f.SetCellValue(summarySheet, "A6", "Average Overall")
	_ = f.SetCellValue(summarySheet, "B6", scoring.FormatScore(stats.AverageOverall))
	_ = f.SetCellValue(summarySheet, "A7", "Average Thermal")
	_ = f.SetCellValue(summarySheet, "B7", scoring.FormatScore(stats.AverageThermal))
	_ = f.SetCellValue(summarySheet, "A8", "Average Redevelopment")
	_ = f.SetCellValue(summarySheet, "B8", scoring.FormatScore(stats.AverageRedev))
	row := 10
	for _, rating := range []scoring.Rating{scoring.RatingStrong, scoring.RatingModerate, scoring.RatingWeak, scoring.RatingNA} {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), string(rating))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), stats.ByRating[string(rating)])
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// xlsxValue keeps numbers numeric so the sheet stays sortable.
func xlsxValue(field assets.Field, a *assets.Asset) any {
	if score, ok := field.Score(a); ok {
		if v, present := score.Get(); present {
			return scoring.Round2(v)
		}
	}
	return field.Display(a)
}

// WriteAssetsCSV streams the asset listing as CSV with the same header as the XLSX export.
func WriteAssetsCSV(w io.Writer, list []assets.Asset) error {
	fields := assets.Fields()
	writer := csv.NewWriter(w)
	header := make([]string, 0, len(fields))
	for _, field := range fields {
		header = append(header, field.Label)
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	record := make([]string, len(fields))
	for i := range list {
		for j, field := range fields {
			record[j] = field.Display(&list[i])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// BuildScorecardPDF renders a one-page scorecard for an asset.
func BuildScorecardPDF(a *assets.Asset, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Asset Scorecard")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Project: %s", a.Name))
	pdf.Ln(5)
	if a.Codename != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Codename: %s", a.Codename))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Owner: %s", orNA(a.Owner)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Market: %s  Zone: %s", orNA(a.ISO), orNA(a.Zone)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Capacity (MW): %s  Tech: %s  Fuel: %s",
		orNA(scoring.Clean(a.CapacityMW).String()), orNA(a.Tech), orNA(a.Fuel)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", a.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generated.UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Overall: %s (%s)", scoring.FormatScore(a.OverallScore), ratingOrNA(a.OverallRating)))
	pdf.Ln(8)

	scorecardTable(pdf, "Thermal Operating", scoring.FormatScore(a.ThermalScore), []scorecardRow{
		{"Plant COD", a.PlantCODScore, scoring.Thermal.COD},
		{"Markets", a.MarketScore, scoring.Thermal.Market},
		{"Transactability", a.TransactabilityScore, scoring.Thermal.Transactability},
		{"Thermal Optimization", a.ThermalOptimizationScore, scoring.Thermal.ThermalOptimization},
		{"Environmental", a.EnvironmentalScore, scoring.Thermal.Environmental},
	})
	pdf.Ln(4)
	scorecardTable(pdf, "Redevelopment", scoring.FormatScore(a.RedevelopmentScore), []scorecardRow{
		{"Market", a.RedevelopmentMarketScore, scoring.Redevelopment.Market},
		{"Infrastructure", a.InfrastructureScore, scoring.Redevelopment.Infrastructure},
		{"Interconnection", a.InterconnectionScore, scoring.Redevelopment.Interconnection},
	})
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Co-location mode: %s (multiplier %.2f)",
		orNA(a.CoLocationMode), scoring.CoLocationMultiplier(a.CoLocationMode)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Supplementary")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Capacity Factor Score: %s  Capacity Size Score: %s  Fuel Score: %s",
		scoring.FormatScore(a.CapacityFactorScore), scoring.FormatScore(a.CapacitySizeScore), scoring.FormatScore(a.FuelScore)))
	pdf.Ln(5)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type scorecardRow struct {
	label  string
	score  scoring.Score
	weight float64
}

func scorecardTable(pdf *gofpdf.Fpdf, title, total string, rows []scorecardRow) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("%s: %s", title, total))
	pdf.Ln(7)
	pdf.CellFormat(70, 6, "Component", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Score", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Weight", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.CellFormat(70, 6, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, scoring.FormatScore(row.score), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.0f%%", row.weight*100), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}

func orNA(text string) string {
	if text == "" {
		return scoring.NotAvailable
	}
	return text
}

func ratingOrNA(r scoring.Rating) scoring.Rating {
	if r == "" {
		return scoring.RatingNA
	}
	return r
}

package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/RIDLEYsan/studio-classification-app/internal/models"
)

// utf8BOM lets Excel detect the encoding of the CSV
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"フォルダ名", "大分類", "小項目", "判定理由", "画像枚数", "送信枚数",
	"status", "confidence", "impression_tags", "object_tags", "purpose", "error",
}

const (
	resultsSheet = "results"
	summarySheet = "summary"
)

// EncodeJSON writes the report as indented UTF-8 JSON
func EncodeJSON(w io.Writer, report *models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}

// EncodeCSV writes one header line and one line per result, UTF-8 with BOM
func EncodeCSV(w io.Writer, report *models.Report) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write CSV BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, res := range report.Results {
		if err := cw.Write(csvRow(res)); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", res.Folder, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV report: %w", err)
	}
	return nil
}

func csvRow(res models.ClassificationResult) []string {
	confidence := ""
	if res.Confidence > 0 {
		confidence = strconv.FormatFloat(res.Confidence, 'f', 2, 64)
	}
	return []string{
		res.Folder,
		res.Category,
		res.Subcategory,
		res.Reason,
		strconv.Itoa(res.ImageCount),
		strconv.Itoa(res.ImagesSent),
		string(res.Status),
		confidence,
		strings.Join(res.ImpressionTags, ";"),
		strings.Join(res.ObjectTags, ";"),
		res.Purpose,
		res.Error,
	}
}

// EncodeXLSX writes a workbook with a results sheet and a per-category summary sheet
func EncodeXLSX(w io.Writer, report *models.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("failed to name results sheet: %w", err)
	}
	if err := writeSheetRow(f, resultsSheet, 1, toCells(csvHeader)); err != nil {
		return err
	}
	for i, res := range report.Results {
		if err := writeSheetRow(f, resultsSheet, i+2, toCells(csvRow(res))); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(resultsSheet, "A", "A", 24); err != nil {
		return fmt.Errorf("failed to size results sheet: %w", err)
	}
	if err := f.SetColWidth(resultsSheet, "D", "D", 48); err != nil {
		return fmt.Errorf("failed to size results sheet: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeSheetRow(f, summarySheet, 1, []interface{}{"大分類", "件数"}); err != nil {
		return err
	}
	counts := report.CategoryCounts()
	for i, category := range report.SortedCategories() {
		if err := writeSheetRow(f, summarySheet, i+2, []interface{}{category, counts[category]}); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write XLSX report: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

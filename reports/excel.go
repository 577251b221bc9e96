package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ExcelFilename    = "asset-report.xlsx"

	excelSheet = "Report"
)

var excelHeaders = []string{"Group", "Count", "Subtotal", "Percentage (%)"}

// RenderExcel lays the report out as: title, blank row, header, one row per
// group, blank row, grand total.
func RenderExcel(r Report, title string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", excelSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}
	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})
	if err != nil {
		return nil, err
	}

	set := func(cell string, v interface{}) {
		if err == nil {
			err = f.SetCellValue(excelSheet, cell, v)
		}
	}
	style := func(from, to string, id int) {
		if err == nil {
			err = f.SetCellStyle(excelSheet, from, to, id)
		}
	}

	set("A1", title)
	style("A1", "A1", titleStyle)

	const headerRow = 3
	for i, h := range excelHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		set(fmt.Sprintf("%s%d", col, headerRow), h)
	}
	style(fmt.Sprintf("A%d", headerRow), fmt.Sprintf("D%d", headerRow), headerStyle)

	row := headerRow + 1
	totalCount := 0
	for _, g := range r.Data {
		set(fmt.Sprintf("A%d", row), g.Group)
		set(fmt.Sprintf("B%d", row), g.Count)
		set(fmt.Sprintf("C%d", row), g.Subtotal)
		set(fmt.Sprintf("D%d", row), g.Percentage)
		totalCount += g.Count
		row++
	}
	if len(r.Data) > 0 {
		style(fmt.Sprintf("C%d", headerRow+1), fmt.Sprintf("C%d", row-1), moneyStyle)
		style(fmt.Sprintf("D%d", headerRow+1), fmt.Sprintf("D%d", row-1), percentStyle)
	}

	totalRow := row + 1
	set(fmt.Sprintf("A%d", totalRow), "Grand Total")
	set(fmt.Sprintf("B%d", totalRow), totalCount)
	set(fmt.Sprintf("C%d", totalRow), r.GrandTotal)
	set(fmt.Sprintf("D%d", totalRow), totalPercentage(r))
	style(fmt.Sprintf("A%d", totalRow), fmt.Sprintf("D%d", totalRow), totalStyle)

	for i, w := range []float64{36, 10, 18, 16} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err == nil {
			err = f.SetColWidth(excelSheet, col, col, w)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("write report sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func totalPercentage(r Report) float64 {
	if r.GrandTotal == 0 {
		return 0
	}
	return 100
}

package reports

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/wml/stypes"
)

const (
	WordContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	WordFilename    = "asset-report.docx"

	wordTableStyle = "TableGrid"
)

// RenderWord writes a .docx with a bold centered title and one table: header
// row, one row per group, grand total row.
func RenderWord(r Report, title string) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("new document: %w", err)
	}

	heading := doc.AddParagraph("")
	heading.Justification(stypes.JustificationCenter)
	heading.AddText(title).Bold(true)
	doc.AddParagraph("")

	table := doc.AddTable()
	table.Style(wordTableStyle)
	addRow := func(bold bool, cells ...string) {
		row := table.AddRow()
		for _, c := range cells {
			cell := row.AddCell()
			if bold {
				cell.AddParagraph("").AddText(c).Bold(true)
			} else {
				cell.AddParagraph(c)
			}
		}
	}

	addRow(true, excelHeaders...)
	totalCount := 0
	for _, g := range r.Data {
		addRow(false, g.Group, strconv.Itoa(g.Count), formatAmount(g.Subtotal), formatAmount(g.Percentage))
		totalCount += g.Count
	}
	addRow(true, "Grand Total", strconv.Itoa(totalCount), formatAmount(r.GrandTotal), formatAmount(totalPercentage(r)))

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

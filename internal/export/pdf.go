package export

import (
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/adanyl0v/go-task-board/internal/models"
)

const (
	pdfTitle  = "Relatório de Tarefas"
	pdfMargin = 10.6 // mm
	pdfFont   = "Helvetica"
)

// WritePDF renders an A4 report with one block per task. It doesn't
// filter.
func WritePDF(w io.Writer, tasks []models.Task) error {
	return writePDF(w, tasks, true)
}

func writePDF(w io.Writer, tasks []models.Task, compress bool) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(pdfTitle, true)

	// Core fonts are cp1252; translate the Portuguese labels and user text.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont(pdfFont, "", 24)
	pdf.CellFormat(0, 12, tr(pdfTitle), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, t := range tasks {
		pdf.SetFont(pdfFont, "B", 16)
		pdf.MultiCell(0, 7, tr(t.Title), "", "L", false)

		pdf.SetFont(pdfFont, "", 12)
		pdf.MultiCell(0, 6, tr("Status: "+string(t.Status)), "", "L", false)
		pdf.MultiCell(0, 6, tr("Data de Conclusão: "+FormatDate(t.DueDate)), "", "L", false)
		if t.AssignedUserName != "" {
			pdf.MultiCell(0, 6, tr("Atribuído para: "+t.AssignedUserName), "", "L", false)
		}
		pdf.Ln(5)
	}

	return pdf.Output(w)
}

package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/adanyl0v/go-task-board/internal/models"
)

type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Write filters the tasks and renders the report. CSV and PDF always see
// the same task set for the same filter.
func Write(w io.Writer, format Format, tasks []models.Task, filter Filter) error {
	tasks = filter.Apply(tasks)

	switch format {
	case FormatCSV:
		return WriteCSV(w, tasks)
	case FormatPDF:
		return WritePDF(w, tasks)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// FileName returns tarefas_<yyyy-MM-dd>.<ext> for the given day.
func FileName(format Format, now time.Time) string {
	return "tarefas_" + now.Format(time.DateOnly) + "." + string(format)
}

var shortMonths = [...]string{
	"jan.", "fev.", "mar.", "abr.", "mai.", "jun.",
	"jul.", "ago.", "set.", "out.", "nov.", "dez.",
}

// FormatDate renders t in the Brazilian medium form, e.g. "1 de jun. de 2024".
func FormatDate(t time.Time) string {
	y, m, d := t.Date()
	return strconv.Itoa(d) + " de " + shortMonths[m-1] + " de " + strconv.Itoa(y)
}

func progressOf(task models.Task) string {
	return strconv.Itoa(task.CompletedSubtasks()) + "/" + strconv.Itoa(len(task.Subtasks))
}

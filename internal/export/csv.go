package export

import (
	"encoding/csv"
	"io"

	"github.com/adanyl0v/go-task-board/internal/models"
)

var csvHeader = []string{
	"Título",
	"Descrição",
	"Status",
	"Data de Conclusão",
	"Atribuído para",
	"Progresso",
}

// WriteCSV writes one row per task after the header. It doesn't filter.
func WriteCSV(w io.Writer, tasks []models.Task) error {
	cw := csv.NewWriter(w)

	err := cw.Write(csvHeader)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		err = cw.Write([]string{
			t.Title,
			t.Description,
			string(t.Status),
			FormatDate(t.DueDate),
			t.AssignedUserName,
			progressOf(t),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

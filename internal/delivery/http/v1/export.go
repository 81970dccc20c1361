package v1

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-board/internal/export"
)

func (h *handlerImpl) HandleExportCSV(c *gin.Context) {
	h.handleExport(c, export.FormatCSV)
}

func (h *handlerImpl) HandleExportPDF(c *gin.Context) {
	h.handleExport(c, export.FormatPDF)
}

func (h *handlerImpl) handleExport(c *gin.Context, format export.Format) {
	filter, err := filterFromQuery(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse export filter")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	tasks, err := h.tasks.ListTasks(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abort(c, newWorkflowError(err))
		return
	}

	var buf bytes.Buffer
	err = export.Write(&buf, format, tasks, filter)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("format", string(format)).
			Msg("failed to render export")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	fileName := export.FileName(format, time.Now())
	h.logger.Info().
		Str("file", fileName).
		Int("size", buf.Len()).
		Msg("exported tasks")

	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func filterFromQuery(c *gin.Context) (export.Filter, error) {
	return export.ParseFilter(
		c.Query("status"),
		c.Query("start_date"),
		c.Query("end_date"),
		c.Query("assigned_to"),
	)
}

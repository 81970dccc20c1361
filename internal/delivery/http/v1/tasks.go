package v1

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-board/internal/board"
	"github.com/adanyl0v/go-task-board/internal/models"
	"github.com/adanyl0v/go-task-board/internal/workflow"
)

const boardEvent = "board"

type subtaskRequest struct {
	ID        string `json:"id"`
	Title     string `json:"title" binding:"max=255"`
	Completed bool   `json:"completed"`
}

type taskRequest struct {
	Title       string           `json:"title" binding:"required,max=255"`
	Description string           `json:"description"`
	DueDate     string           `json:"due_date" binding:"required"`
	Subtasks    []subtaskRequest `json:"subtasks" binding:"dive"`
}

func (r taskRequest) toInput() (workflow.TaskInput, error) {
	dueDate, err := parseDueDate(r.DueDate)
	if err != nil {
		return workflow.TaskInput{}, err
	}

	in := workflow.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     dueDate,
		Subtasks:    make([]workflow.SubtaskInput, 0, len(r.Subtasks)),
	}
	for _, st := range r.Subtasks {
		in.Subtasks = append(in.Subtasks, workflow.SubtaskInput{
			ID:        st.ID,
			Title:     st.Title,
			Completed: st.Completed,
		})
	}
	return in, nil
}

// parseDueDate accepts a plain date or an RFC 3339 timestamp.
func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

type createTaskResponse struct {
	ID string `json:"id"`
}

func (h *handlerImpl) HandleGetBoard(c *gin.Context) {
	profile, ok := h.mustGetProfile(c)
	if !ok {
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

	b := board.New(h.pageSize)
	b.Search(c.Query("q"))
	b.Replace(tasks)
	setPages(b, pagesFromQuery(c))

	c.JSON(http.StatusOK, b.View(profile))
}

// HandleStreamBoard pushes a fresh board view as a server-sent event every
// time the task collection changes.
func (h *handlerImpl) HandleStreamBoard(c *gin.Context) {
	profile, ok := h.mustGetProfile(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	snapshots, err := h.tasks.SubscribeTasks(ctx)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to subscribe to tasks")
		abort(c, newWorkflowError(err))
		return
	}

	b := board.New(h.pageSize)
	b.Search(c.Query("q"))
	pages := pagesFromQuery(c)

	views := make(chan board.View, 1)
	go func() {
		defer close(views)
		first := true
		_ = b.Follow(ctx, snapshots, func() {
			if first {
				setPages(b, pages)
				first = false
			}
			view := b.View(profile)

			// Only the latest view matters to a slow client.
			select {
			case <-views:
			default:
			}
			views <- view
		})
	}()

	h.logger.Debug().
		Str("user_id", profile.ID).
		Msg("board stream opened")

	c.Stream(func(w io.Writer) bool {
		select {
		case view, ok := <-views:
			if !ok {
				return false
			}
			c.SSEvent(boardEvent, view)
			return true
		case <-ctx.Done():
			return false
		}
	})

	h.logger.Debug().
		Str("user_id", profile.ID).
		Msg("board stream closed")
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	profile, ok := h.mustGetProfile(c)
	if !ok {
		return
	}

	in, ok := h.bindTaskInput(c)
	if !ok {
		return
	}

	taskID, err := h.tasks.CreateTask(c, profile, in)
	if err != nil {
		abort(c, newWorkflowError(err))
		return
	}

	c.JSON(http.StatusCreated, createTaskResponse{ID: taskID})
}

func (h *handlerImpl) HandleEditTask(c *gin.Context) {
	profile, ok := h.mustGetProfile(c)
	if !ok {
		return
	}

	in, ok := h.bindTaskInput(c)
	if !ok {
		return
	}

	err := h.tasks.EditTask(c, profile, c.Param("id"), in)
	if err != nil {
		abort(c, newWorkflowError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleReserveTask(c *gin.Context) {
	profile, ok := h.mustGetProfile(c)
	if !ok {
		return
	}
	h.respond(c, h.tasks.ReserveTask(c, profile, c.Param("id")))
}

func (h *handlerImpl) HandleUnassignTask(c *gin.Context) {
	profile, ok := h.mustGetProfile(c)
	if !ok {
		return
	}
	h.respond(c, h.tasks.UnassignTask(c, profile, c.Param("id")))
}

func (h *handlerImpl) HandleCompleteTask(c *gin.Context) {
	profile, ok := h.mustGetProfile(c)
	if !ok {
		return
	}
	h.respond(c, h.tasks.CompleteTask(c, profile, c.Param("id")))
}

func (h *handlerImpl) HandleApproveTask(c *gin.Context) {
	profile, ok := h.mustGetProfile(c)
	if !ok {
		return
	}
	h.respond(c, h.tasks.ApproveTask(c, profile, c.Param("id")))
}

func (h *handlerImpl) HandleToggleSubtask(c *gin.Context) {
	profile, ok := h.mustGetProfile(c)
	if !ok {
		return
	}
	h.respond(c, h.tasks.ToggleSubtask(c, profile, c.Param("id"), c.Param("subtaskID")))
}

// respond answers a mutation without the resulting task. Clients read the
// new state from the board stream.
func (h *handlerImpl) respond(c *gin.Context, err error) {
	if err != nil {
		abort(c, newWorkflowError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) bindTaskInput(c *gin.Context) (workflow.TaskInput, bool) {
	var req taskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return workflow.TaskInput{}, false
	}

	in, err := req.toInput()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("due_date", req.DueDate).
			Msg("failed to parse due date")
		abort(c, newBadRequestError("invalid due date"))
		return workflow.TaskInput{}, false
	}
	return in, true
}

func (h *handlerImpl) mustGetProfile(c *gin.Context) (models.Profile, bool) {
	profile, ok := getProfileFromContext(c)
	if !ok {
		h.logger.Error().Msg("no profile found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return models.Profile{}, false
	}
	return profile, true
}

// pagesFromQuery reads the page_<status> parameters. Invalid values are
// ignored; out-of-range ones are clamped by the board.
func pagesFromQuery(c *gin.Context) map[models.Status]int {
	pages := make(map[models.Status]int)
	for _, status := range models.Statuses {
		raw := c.Query("page_" + string(status))
		if raw == "" {
			continue
		}
		page, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		pages[status] = page
	}
	return pages
}

func setPages(b *board.Board, pages map[models.Status]int) {
	for status, page := range pages {
		b.SetPage(status, page)
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/dto"
)

// taskHandler handles task requests.
type taskHandler struct {
	taskService portssvc.TaskService
}

func newTaskHandler(ts portssvc.TaskService) *taskHandler {
	return &taskHandler{taskService: ts}
}

// registerTaskRoutes registers routes related to tasks.
func registerTaskRoutes(rg *gin.RouterGroup, taskService portssvc.TaskService) {
	h := newTaskHandler(taskService)

	tasks := rg.Group("/tasks")
	{
		tasks.POST("", h.createTask)
		tasks.GET("", h.listTasks)
		tasks.GET("/summary", h.getSummary)
		tasks.GET("/:id", h.getTask)
		tasks.PUT("/:id", h.updateTask)
		tasks.PUT("/:id/complete", h.completeTask)
		tasks.DELETE("/:id", h.deleteTask)
	}
}

// createTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param task body dto.CreateTaskRequest true "Task details"
// @Success 201 {object} dto.TaskResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *taskHandler) createTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), actor, req.ToTask())
	if err != nil {
		respondError(c, err, "Failed to create task")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskResponse(task))
}

// listTasks godoc
// @Summary List tasks
// @Description The caller's tasks, filterable by status, priority, category, loan and due window.
// @Tags tasks
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param due query string false "Due window: overdue, today or week"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tasks [get]
func (h *taskHandler) listTasks(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var params dto.ListTasksParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	filter := params.ToTaskFilter()
	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err, "Failed to list tasks")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       dto.ToListTaskResponse(tasks),
		"pagination": dto.NewPagination(total, filter.Page.Limit, filter.Page.Offset),
	})
}

// getSummary godoc
// @Summary Task workload summary
// @Description Overdue, due-today, upcoming and completed-this-week counts plus status/priority breakdowns.
// @Tags tasks
// @Produce json
// @Success 200 {object} dto.TaskSummaryResponse
// @Security BearerAuth
// @Router /tasks/summary [get]
func (h *taskHandler) getSummary(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	summary, err := h.taskService.GetTaskSummary(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to load task summary")
		return
	}
	byStatus, byPriority, err := h.taskService.GetTaskStats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to load task stats")
		return
	}
	c.JSON(http.StatusOK, dto.TaskSummaryResponse{
		Overdue:           summary.Overdue,
		DueToday:          summary.DueToday,
		Upcoming:          summary.Upcoming,
		CompletedThisWeek: summary.CompletedThisWeek,
		ByStatus:          byStatus,
		ByPriority:        byPriority,
	})
}

// getTask godoc
// @Summary Get a task by ID
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *taskHandler) getTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	task, err := h.taskService.GetTaskByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load task")
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

// updateTask godoc
// @Summary Update a task
// @Description Applies the patch. completedAt tracks the COMPLETED status automatically.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param task body dto.UpdateTaskRequest true "Task fields"
// @Success 200 {object} dto.TaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [put]
func (h *taskHandler) updateTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), actor, c.Param("id"), req.ToTaskPatch())
	if err != nil {
		respondError(c, err, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

// completeTask godoc
// @Summary Mark a task completed
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/complete [put]
func (h *taskHandler) completeTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	task, err := h.taskService.CompleteTask(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to complete task")
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

// deleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 204 "Deleted"
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *taskHandler) deleteTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.taskService.DeleteTask(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete task")
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/internal/services"
)

// TodoHandler handles the caller's private todo list
type TodoHandler struct {
	todoService *services.TodoService
	logger      logrus.FieldLogger
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todoService *services.TodoService, logger logrus.FieldLogger) *TodoHandler {
	return &TodoHandler{todoService: todoService, logger: logger}
}

// List handles GET /api/v1/todos
func (h *TodoHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.todoService.List(userID))
}

// Add handles POST /api/v1/todos
func (h *TodoHandler) Add(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.TodoInput
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.todoService.Add(c.Request.Context(), userID, req.Task)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Toggle handles POST /api/v1/todos/:id/toggle
func (h *TodoHandler) Toggle(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	item, err := h.todoService.Toggle(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /api/v1/todos/:id
func (h *TodoHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.todoService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Todo deleted"})
}

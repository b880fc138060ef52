package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/internal/services"
)

// FeedbackHandler handles the feedback hub and its reply threads
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
	logger          logrus.FieldLogger
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedbackService *services.FeedbackService, logger logrus.FieldLogger) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		logger:          logger,
	}
}

// List handles GET /api/v1/feedback
func (h *FeedbackHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.feedbackService.ForUser(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Hub handles GET /api/v1/feedback/hub
func (h *FeedbackHandler) Hub(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.feedbackService.HubRequests(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Replies handles GET /api/v1/feedback/:id/replies
func (h *FeedbackHandler) Replies(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.feedbackService.Replies(userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Counts handles GET /api/v1/feedback/counts
func (h *FeedbackHandler) Counts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	counts, err := h.feedbackService.Counts(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// Create handles POST /api/v1/feedback
func (h *FeedbackHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.FeedbackInput
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.feedbackService.Add(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Update handles PUT /api/v1/feedback/:id
func (h *FeedbackHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.FeedbackUpdate
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.feedbackService.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /api/v1/feedback/:id
// Replies of the item are removed with it.
func (h *FeedbackHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	removed, err := h.feedbackService.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{Count: removed})
}

// React handles POST /api/v1/feedback/:id/react
func (h *FeedbackHandler) React(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.ReactionInput
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.feedbackService.ToggleReaction(c.Request.Context(), userID, c.Param("id"), req.Emoji)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// MarkViewed handles POST /api/v1/feedback/:id/viewed
func (h *FeedbackHandler) MarkViewed(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	item, err := h.feedbackService.MarkViewed(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// MarkHubViewed handles POST /api/v1/feedback/hub/viewed
func (h *FeedbackHandler) MarkHubViewed(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.feedbackService.MarkHubViewed(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{Count: count})
}

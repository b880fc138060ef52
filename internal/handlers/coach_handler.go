package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/services"
	"github.com/dukemzone/kpi-portal/pkg/gemini"
)

// CoachHandler exposes the AI coaching texts
type CoachHandler struct {
	coachService *services.CoachService
	logger       logrus.FieldLogger
}

// NewCoachHandler creates a new coach handler
func NewCoachHandler(coachService *services.CoachService, logger logrus.FieldLogger) *CoachHandler {
	return &CoachHandler{coachService: coachService, logger: logger}
}

// CoachResponse carries generated coaching text
type CoachResponse struct {
	Text string `json:"text"`
}

// AudioRequest is the text to speak
type AudioRequest struct {
	Text string `json:"text" binding:"required"`
}

// AudioResponse carries base64 16-bit PCM at 24kHz mono
type AudioResponse struct {
	Audio      string `json:"audio"`
	SampleRate int    `json:"sampleRate"`
}

func (h *CoachHandler) reply(c *gin.Context, text string, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CoachResponse{Text: text})
}

// KPITips handles GET /api/v1/coach/kpis/:id/tips
func (h *CoachHandler) KPITips(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	text, err := h.coachService.KPITips(c.Request.Context(), userID, c.Param("id"))
	h.reply(c, text, err)
}

// Advice handles GET /api/v1/coach/advice
func (h *CoachHandler) Advice(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	text, err := h.coachService.GeneralAdvice(c.Request.Context(), userID)
	h.reply(c, text, err)
}

// StaffDirective handles GET /api/v1/coach/staff/:staffId
func (h *CoachHandler) StaffDirective(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	text, err := h.coachService.StaffDirective(c.Request.Context(), userID, c.Param("staffId"))
	h.reply(c, text, err)
}

// Analysis handles GET /api/v1/coach/analysis
func (h *CoachHandler) Analysis(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	text, err := h.coachService.PerformanceAnalysis(c.Request.Context(), userID)
	h.reply(c, text, err)
}

// Audio handles POST /api/v1/coach/audio
func (h *CoachHandler) Audio(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	var req AudioRequest
	if !bindJSON(c, &req) {
		return
	}

	audio, ok := h.coachService.AdviceAudio(c.Request.Context(), req.Text)
	if !ok {
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "audio_unavailable",
			Message: "Speech synthesis failed",
			Code:    "AUDIO_UNAVAILABLE",
		})
		return
	}
	c.JSON(http.StatusOK, AudioResponse{Audio: audio, SampleRate: gemini.SampleRate})
}

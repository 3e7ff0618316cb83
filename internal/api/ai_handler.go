package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"resumeai/internal/ai"
	"resumeai/internal/api/middleware"
	"resumeai/internal/resume"
)

type Generator interface {
	GenerateSummary(ctx context.Context, userID uint, req ai.SummaryRequest) (ai.Generation, error)
	GenerateBullets(ctx context.Context, userID uint, req ai.BulletsRequest) (ai.Generation, error)
}

// AIHandler 暴露摘要与经历要点生成。额度不足返回 403。
type AIHandler struct {
	ai Generator
}

func NewAIHandler(gen Generator) *AIHandler {
	return &AIHandler{ai: gen}
}

type generateSummaryRequest struct {
	Context  ai.SummaryRequest `json:"context"`
	ResumeID string            `json:"resumeId"`
}

type generateResponse struct {
	Summary string         `json:"summary,omitempty"`
	Bullets string         `json:"bullets,omitempty"`
	Resume  *resume.Resume `json:"resume,omitempty"`
}

func (h *AIHandler) GenerateSummary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req generateSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Context.ResumeID = req.ResumeID

	out, err := h.ai.GenerateSummary(c.Request.Context(), userID, req.Context)
	if err != nil {
		respondError(c, err, creditsForbidden)
		return
	}
	c.JSON(http.StatusOK, generateResponse{Summary: out.Text, Resume: out.Resume})
}

type generateBulletsRequest struct {
	Context      ai.BulletsRequest `json:"context"`
	ResumeID     string            `json:"resumeId"`
	ExperienceID string            `json:"experienceId"`
}

func (h *AIHandler) GenerateBullets(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req generateBulletsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Context.ResumeID = req.ResumeID
	req.Context.ExperienceID = req.ExperienceID

	out, err := h.ai.GenerateBullets(c.Request.Context(), userID, req.Context)
	if err != nil {
		respondError(c, err, creditsForbidden)
		return
	}
	c.JSON(http.StatusOK, generateResponse{Bullets: out.Text, Resume: out.Resume})
}

// AIRateLimit 按用户每小时计数，limit <= 0 时不限流。Redis 故障时放行。
func AIRateLimit(counter windowCounter, limit int) gin.HandlerFunc {
	if limit <= 0 || counter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	window := newFixedWindow(counter, "rate:ai", limit, time.Hour)

	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		allowed, err := window.allow(c.Request.Context(), strconv.FormatUint(uint64(userID), 10))
		if err != nil {
			middleware.LoggerFromContext(c).Warn("ai rate limit unavailable", slog.Any("error", err))
		} else if !allowed {
			tooManyRequests(c, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

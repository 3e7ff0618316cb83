package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeai/internal/ai"
	"resumeai/internal/api/middleware"
	"resumeai/internal/resume"
	"resumeai/internal/resume/render"
)

// ResumeStore 是简历 CRUD 所需的存储能力，所有操作按 ownerID 隔离。
type ResumeStore interface {
	Create(ctx context.Context, ownerID uint, initial resume.Patch) (resume.Resume, error)
	Get(ctx context.Context, id string, ownerID uint) (resume.Resume, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]resume.Resume, error)
	Update(ctx context.Context, id string, ownerID uint, patch resume.Patch) (resume.Resume, error)
	Delete(ctx context.Context, id string, ownerID uint) error
	Duplicate(ctx context.Context, id string, ownerID uint) (resume.Resume, error)
}

type JobAnalyzer interface {
	AnalyzeJob(ctx context.Context, userID uint, resumeID, jobDescription string) (ai.JobAnalysis, error)
}

// ResumeHandler 处理简历的增删改查、预览与职位匹配分析。
type ResumeHandler struct {
	resumes  ResumeStore
	analyzer JobAnalyzer
}

func NewResumeHandler(resumes ResumeStore, analyzer JobAnalyzer) *ResumeHandler {
	return &ResumeHandler{resumes: resumes, analyzer: analyzer}
}

func (h *ResumeHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	docs, err := h.resumes.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, creditsForbidden)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *ResumeHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	doc, err := h.resumes.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, creditsForbidden)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Create 新建简历，请求体为可选初始字段。
func (h *ResumeHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var initial resume.Patch
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&initial); err != nil {
			badRequest(c, err)
			return
		}
	}

	doc, err := h.resumes.Create(c.Request.Context(), userID, initial)
	if err != nil {
		respondError(c, err, creditsForbidden)
		return
	}
	middleware.LoggerFromContext(c).Info("resume created",
		slog.Uint64("user_id", uint64(userID)),
		slog.String("resume_id", doc.ID),
	)
	c.JSON(http.StatusCreated, doc)
}

// Update 部分更新：请求体中缺省的字段保持原值。
func (h *ResumeHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var patch resume.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	doc, err := h.resumes.Update(c.Request.Context(), c.Param("id"), userID, patch)
	if err != nil {
		respondError(c, err, creditsForbidden)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *ResumeHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.resumes.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, creditsForbidden)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ResumeHandler) Duplicate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	doc, err := h.resumes.Duplicate(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, creditsForbidden)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// Preview 返回模板投影。?template= 缺省时使用简历自身的模板。
func (h *ResumeHandler) Preview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	doc, err := h.resumes.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, creditsForbidden)
		return
	}
	templateID := c.Query("template")
	if templateID == "" {
		templateID = string(doc.Template)
	}
	c.JSON(http.StatusOK, render.Render(doc, templateID))
}

type analyzeJobRequest struct {
	JobDescription string `json:"jobDescription"`
}

func (h *ResumeHandler) AnalyzeJob(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req analyzeJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	analysis, err := h.analyzer.AnalyzeJob(c.Request.Context(), userID, c.Param("id"), req.JobDescription)
	if err != nil {
		respondError(c, err, creditsForbidden)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resumeai/internal/api/middleware"
	"resumeai/internal/database"
	"resumeai/internal/export"
)

type ExportService interface {
	Start(ctx context.Context, userID uint, resumeID, templateID, correlationID string) (export.Request, error)
	Get(ctx context.Context, userID uint, exportID string) (database.Export, error)
	DownloadLink(ctx context.Context, userID uint, exportID string) (string, error)
	ListForResume(ctx context.Context, userID uint, resumeID string) ([]database.Export, error)
}

// ExportHandler 负责 PDF 导出的入队、状态查询与下载链接。
type ExportHandler struct {
	exports ExportService
}

func NewExportHandler(exports ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

type startExportRequest struct {
	Template string `json:"template"`
}

type exportView struct {
	ID        string    `json:"id"`
	ResumeID  string    `json:"resumeId"`
	Template  string    `json:"template"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toExportView(e database.Export) exportView {
	return exportView{
		ID:        e.ID,
		ResumeID:  e.ResumeID,
		Template:  e.Template,
		Status:    e.Status,
		Error:     e.Error,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// Start 消耗一次下载额度并入队，返回 202。
func (h *ExportHandler) Start(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req startExportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	out, err := h.exports.Start(c.Request.Context(), userID, c.Param("id"), req.Template, middleware.GetCorrelationID(c))
	if err != nil {
		respondError(c, err, creditsPaymentRequired)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"exportId":        out.Export.ID,
		"taskId":          out.TaskID,
		"downloadCredits": out.RemainingCredits,
	})
}

func (h *ExportHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	e, err := h.exports.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, creditsPaymentRequired)
		return
	}
	c.JSON(http.StatusOK, toExportView(e))
}

// List 返回某份简历的导出历史。
func (h *ExportHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.exports.ListForResume(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, creditsPaymentRequired)
		return
	}
	views := make([]exportView, 0, len(list))
	for _, e := range list {
		views = append(views, toExportView(e))
	}
	c.JSON(http.StatusOK, views)
}

// DownloadLink 导出完成前返回 409。
func (h *ExportHandler) DownloadLink(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	url, err := h.exports.DownloadLink(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, creditsPaymentRequired)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(export.LinkTTL.Seconds())})
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"resumeai/internal/errcode"
	"resumeai/internal/notify"
	"resumeai/internal/resume"
	"resumeai/internal/resume/render"
	"resumeai/internal/storage"
	"resumeai/internal/tasks"
)

type ResumeGetter interface {
	Get(ctx context.Context, id string, ownerID uint) (resume.Resume, error)
}

type ExportStore interface {
	MarkCompleted(ctx context.Context, id, objectKey string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type CreditRefunder interface {
	RefundDownloadCredit(ctx context.Context, userID uint) error
}

// PDFRenderer 把打印 HTML 转为 PDF，生产环境由 pdf.Chromium 实现。
type PDFRenderer interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

type ObjectWriter interface {
	PutPDF(ctx context.Context, key string, data []byte) error
}

type Notifier interface {
	Publish(ctx context.Context, userID uint, msg notify.Message) error
}

// ExportHandler 消费 export:pdf 任务：渲染、上传、落库并通知前端。
type ExportHandler struct {
	resumes  ResumeGetter
	exports  ExportStore
	credits  CreditRefunder
	renderer PDFRenderer
	objects  ObjectWriter
	notifier Notifier
	logger   *slog.Logger
}

func NewExportHandler(
	resumes ResumeGetter,
	exports ExportStore,
	credits CreditRefunder,
	renderer PDFRenderer,
	objects ObjectWriter,
	notifier Notifier,
	logger *slog.Logger,
) *ExportHandler {
	return &ExportHandler{
		resumes:  resumes,
		exports:  exports,
		credits:  credits,
		renderer: renderer,
		objects:  objects,
		notifier: notifier,
		logger:   logger,
	}
}

// ProcessTask 实现 asynq.Handler。最后一次重试仍失败时标记导出失败、退回额度并推送错误通知。
func (h *ExportHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	payload, err := tasks.ParseExportPDFPayload(t)
	if err != nil {
		h.logger.Error("invalid export payload", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("export_id", payload.ExportID),
		slog.String("resume_id", payload.ResumeID),
		slog.Uint64("user_id", uint64(payload.UserID)),
	)
	log.Info("export task started")

	defer func() {
		if retErr == nil {
			return
		}
		if !errors.Is(retErr, asynq.SkipRetry) && !isFinalAsynqAttempt(ctx) {
			return
		}
		h.fail(context.WithoutCancel(ctx), log, payload, retErr)
	}()

	doc, err := h.resumes.Get(ctx, payload.ResumeID, payload.UserID)
	if err != nil {
		if errors.Is(err, errcode.ErrNotFound) {
			log.Warn("resume no longer exists")
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	html, err := render.HTML(render.Render(doc, payload.Template))
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	pdfBytes, err := h.renderer.Render(ctx, html)
	if err != nil {
		log.Error("render pdf failed", slog.Any("error", err))
		return err
	}

	key := storage.ExportKey(payload.UserID, payload.ExportID)
	if err := h.objects.PutPDF(ctx, key, pdfBytes); err != nil {
		log.Error("upload pdf failed", slog.Any("error", err))
		return err
	}
	if err := h.exports.MarkCompleted(ctx, payload.ExportID, key); err != nil {
		log.Error("mark export completed failed", slog.Any("error", err))
		return err
	}

	// 通知失败不影响导出结果，前端仍可轮询 download-link。
	if err := h.notifier.Publish(ctx, payload.UserID, notify.Message{
		Type:          notify.TypeExport,
		Status:        notify.StatusCompleted,
		ExportID:      payload.ExportID,
		ResumeID:      payload.ResumeID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}); err != nil {
		log.Warn("publish export notification failed", slog.Any("error", err))
	}

	log.Info("export task completed", slog.Int("bytes", len(pdfBytes)))
	return nil
}

func (h *ExportHandler) fail(ctx context.Context, log *slog.Logger, payload tasks.ExportPDFPayload, cause error) {
	reason := strings.TrimSpace(cause.Error())
	if err := h.exports.MarkFailed(ctx, payload.ExportID, reason); err != nil {
		log.Error("mark export failed", slog.Any("error", err))
		return
	}
	if err := h.credits.RefundDownloadCredit(ctx, payload.UserID); err != nil {
		log.Error("refund download credit failed", slog.Any("error", err))
	}
	if err := h.notifier.Publish(ctx, payload.UserID, notify.Message{
		Type:          notify.TypeExport,
		Status:        notify.StatusError,
		ExportID:      payload.ExportID,
		ResumeID:      payload.ResumeID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.Code(cause),
		ErrorMessage:  reason,
	}); err != nil {
		log.Error("publish export error notification failed", slog.Any("error", err))
	}
	log.Warn("export task failed permanently", slog.String("reason", reason))
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}

var (
	_ ObjectWriter = (*storage.Client)(nil)
	_ Notifier     = (*notify.Publisher)(nil)
)

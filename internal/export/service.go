// Package export 管理消耗下载额度的 PDF 导出：扣额度、落库、入队，以及签发下载链接。
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"resumeai/internal/database"
	"resumeai/internal/errcode"
	"resumeai/internal/metrics"
	"resumeai/internal/resume"
	"resumeai/internal/storage"
	"resumeai/internal/tasks"
)

const LinkTTL = 5 * time.Minute

var (
	// ErrNotReady 表示导出仍在排队或生成中。
	ErrNotReady = errors.New("export not ready")
	// ErrFailed 表示导出已最终失败，额度已退回。
	ErrFailed = errors.New("export failed")
)

type ResumeGetter interface {
	Get(ctx context.Context, id string, ownerID uint) (resume.Resume, error)
}

type CreditStore interface {
	UseDownloadCredit(ctx context.Context, userID uint) (int, error)
	RefundDownloadCredit(ctx context.Context, userID uint) error
}

type ExportStore interface {
	Create(ctx context.Context, e *database.Export) error
	Get(ctx context.Context, id string, userID uint) (database.Export, error)
	MarkFailed(ctx context.Context, id, reason string) error
	ListByResume(ctx context.Context, resumeID string, userID uint) ([]database.Export, error)
}

// Enqueuer 由 *asynq.Client 实现。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	PresignedDownloadURL(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
}

type Service struct {
	resumes  ResumeGetter
	credits  CreditStore
	exports  ExportStore
	queue    Enqueuer
	objects  ObjectStore
	maxRetry int
	logger   *slog.Logger
}

func NewService(resumes ResumeGetter, credits CreditStore, exports ExportStore, queue Enqueuer, objects ObjectStore, maxRetry int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resumes:  resumes,
		credits:  credits,
		exports:  exports,
		queue:    queue,
		objects:  objects,
		maxRetry: maxRetry,
		logger:   logger,
	}
}

// Request 是一次已入队的导出。
type Request struct {
	Export           database.Export
	TaskID           string
	RemainingCredits int
}

// Start 校验简历归属后扣减一次下载额度并入队。入队失败时退回额度并把导出标记为失败。
func (s *Service) Start(ctx context.Context, userID uint, resumeID, templateID, correlationID string) (Request, error) {
	doc, err := s.resumes.Get(ctx, resumeID, userID)
	if err != nil {
		return Request{}, err
	}
	tpl := doc.Template
	if t := strings.TrimSpace(templateID); t != "" {
		tpl = resume.Template(strings.ToLower(t))
		if !tpl.Valid() {
			return Request{}, errcode.Validation("template", "unknown template %q", templateID)
		}
	}

	remaining, err := s.credits.UseDownloadCredit(ctx, userID)
	if err != nil {
		return Request{}, err
	}
	metrics.CreditConsumed("download")

	e := database.Export{
		ID:       uuid.NewString(),
		ResumeID: doc.ID,
		UserID:   userID,
		Template: string(tpl),
		Status:   database.ExportQueued,
	}
	log := s.logger.With(slog.String("export_id", e.ID), slog.String("resume_id", doc.ID), slog.Uint64("user_id", uint64(userID)))

	// 补偿写入不随请求取消而中断。
	cleanup := context.WithoutCancel(ctx)

	if err := s.exports.Create(ctx, &e); err != nil {
		s.refund(cleanup, log, userID)
		return Request{}, err
	}

	task, err := tasks.NewExportPDFTask(tasks.ExportPDFPayload{
		ExportID:      e.ID,
		ResumeID:      doc.ID,
		UserID:        userID,
		Template:      e.Template,
		CorrelationID: correlationID,
	}, asynq.MaxRetry(s.maxRetry))
	if err == nil {
		var info *asynq.TaskInfo
		info, err = s.queue.EnqueueContext(ctx, task)
		if err == nil {
			log.Info("export enqueued", slog.String("task_id", info.ID))
			return Request{Export: e, TaskID: info.ID, RemainingCredits: remaining}, nil
		}
	}

	log.Error("enqueue export failed", slog.Any("error", err))
	if markErr := s.exports.MarkFailed(cleanup, e.ID, "enqueue failed"); markErr != nil {
		log.Error("mark export failed", slog.Any("error", markErr))
	}
	s.refund(cleanup, log, userID)
	return Request{}, fmt.Errorf("enqueue export: %w", err)
}

func (s *Service) refund(ctx context.Context, log *slog.Logger, userID uint) {
	if err := s.credits.RefundDownloadCredit(ctx, userID); err != nil {
		log.Error("refund download credit failed", slog.Any("error", err))
	}
}

// Get 返回调用者的一条导出记录。
func (s *Service) Get(ctx context.Context, userID uint, exportID string) (database.Export, error) {
	return s.exports.Get(ctx, exportID, userID)
}

// ListForResume 返回某份简历的导出历史，简历须属于调用者。
func (s *Service) ListForResume(ctx context.Context, userID uint, resumeID string) ([]database.Export, error) {
	if _, err := s.resumes.Get(ctx, resumeID, userID); err != nil {
		return nil, err
	}
	return s.exports.ListByResume(ctx, resumeID, userID)
}

// DownloadLink 为已完成的导出签发限时链接。
func (s *Service) DownloadLink(ctx context.Context, userID uint, exportID string) (string, error) {
	e, err := s.exports.Get(ctx, exportID, userID)
	if err != nil {
		return "", err
	}
	switch e.Status {
	case database.ExportCompleted:
	case database.ExportFailed:
		return "", fmt.Errorf("export %s: %w", exportID, ErrFailed)
	default:
		return "", fmt.Errorf("export %s: %w", exportID, ErrNotReady)
	}

	ok, err := s.objects.Exists(ctx, e.ObjectKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("export object %s: %w", e.ObjectKey, errcode.ErrNotFound)
	}
	return s.objects.PresignedDownloadURL(ctx, e.ObjectKey, downloadName(e.ResumeID), LinkTTL)
}

func downloadName(resumeID string) string {
	if len(resumeID) > 8 {
		resumeID = resumeID[:8]
	}
	return "resume-" + resumeID + ".pdf"
}

var _ ObjectStore = (*storage.Client)(nil)

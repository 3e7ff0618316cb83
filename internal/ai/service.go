// Package ai 实现 AI 辅助写作：摘要、经历要点与职位匹配分析。
//
// 每次生成都经过额度闸门：非会员且 AI 额度为 0 时直接拒绝，不调用模型；
// 生成成功后才扣减一次额度，生成失败不扣费。会员额度保持不变。
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"resumeai/internal/database"
	"resumeai/internal/errcode"
	"resumeai/internal/metrics"
	"resumeai/internal/resume"
)

const (
	KindSummary  = "summary"
	KindBullets  = "bullets"
	KindAnalysis = "analysis"
)

var errNotConfigured = errors.New("ai provider is not configured")

// UserStore 是服务需要的账号读取与额度扣减能力。
type UserStore interface {
	FindByID(ctx context.Context, id uint) (database.User, error)
	DebitAICredit(ctx context.Context, userID uint) error
}

// ResumeStore 是生成结果写回简历所用的部分更新通道。
type ResumeStore interface {
	Get(ctx context.Context, id string, ownerID uint) (resume.Resume, error)
	Update(ctx context.Context, id string, ownerID uint, patch resume.Patch) (resume.Resume, error)
}

type Service struct {
	gen     Generator
	users   UserStore
	resumes ResumeStore
	logger  *slog.Logger
}

// NewService 构造服务。gen 为 nil 时所有生成请求返回外部服务错误。
func NewService(gen Generator, users UserStore, resumes ResumeStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, users: users, resumes: resumes, logger: logger}
}

type SummaryRequest struct {
	FullName   string                 `json:"fullName"`
	Experience []resume.Experience    `json:"experience"`
	Skills     []resume.SkillCategory `json:"skills"`
	// ResumeID 非空时，缺省的上下文字段取自该简历，生成结果写回其 summary。
	ResumeID string `json:"-"`
}

type BulletsRequest struct {
	Position           string `json:"position"`
	Company            string `json:"company"`
	CurrentDescription string `json:"currentDescription"`
	// ResumeID 与 ExperienceID 同时给出时，结果替换该条经历的描述。
	ResumeID     string `json:"-"`
	ExperienceID string `json:"-"`
}

// Generation 是生成结果；Resume 仅在结果已写回简历时非空。
type Generation struct {
	Text   string
	Resume *resume.Resume
}

func (s *Service) GenerateSummary(ctx context.Context, userID uint, req SummaryRequest) (Generation, error) {
	var target *resume.Resume
	if req.ResumeID != "" {
		doc, err := s.resumes.Get(ctx, req.ResumeID, userID)
		if err != nil {
			return Generation{}, err
		}
		target = &doc
		if strings.TrimSpace(req.FullName) == "" {
			req.FullName = doc.FullName
		}
		if len(req.Experience) == 0 {
			req.Experience = doc.Experience
		}
		if len(req.Skills) == 0 {
			req.Skills = doc.Skills
		}
	}

	text, err := s.generate(ctx, userID, KindSummary, summaryPrompt(req), nil)
	if err != nil {
		return Generation{}, err
	}
	out := Generation{Text: text}
	if target == nil {
		return out, nil
	}

	s.writeBack(ctx, &out, userID, target.ID, resume.Patch{Summary: resume.Ptr(text)})
	return out, nil
}

func (s *Service) GenerateBullets(ctx context.Context, userID uint, req BulletsRequest) (Generation, error) {
	var (
		target *resume.Resume
		item   resume.Experience
	)
	if req.ResumeID != "" && req.ExperienceID != "" {
		doc, err := s.resumes.Get(ctx, req.ResumeID, userID)
		if err != nil {
			return Generation{}, err
		}
		found, ok := resume.FindItem(doc.Experience, req.ExperienceID)
		if !ok {
			return Generation{}, fmt.Errorf("experience %s: %w", req.ExperienceID, errcode.ErrNotFound)
		}
		target, item = &doc, found
		if strings.TrimSpace(req.Position) == "" {
			req.Position = found.Position
		}
		if strings.TrimSpace(req.Company) == "" {
			req.Company = found.Company
		}
		if strings.TrimSpace(req.CurrentDescription) == "" {
			req.CurrentDescription = found.Description
		}
	}

	text, err := s.generate(ctx, userID, KindBullets, bulletsPrompt(req), nil)
	if err != nil {
		return Generation{}, err
	}
	out := Generation{Text: text}
	if target == nil {
		return out, nil
	}

	item.Description = text
	experience := resume.UpsertItem(target.Experience, item)
	s.writeBack(ctx, &out, userID, target.ID, resume.Patch{Experience: &experience})
	return out, nil
}

// writeBack 把已扣费的生成结果合并进简历。合并失败（如简历已被删除）时仍返回文本，
// out.Resume 保持为空，由客户端自行处理。
func (s *Service) writeBack(ctx context.Context, out *Generation, userID uint, resumeID string, patch resume.Patch) {
	updated, err := s.resumes.Update(ctx, resumeID, userID, patch)
	if err != nil {
		s.logger.Warn("apply generated text to resume failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("resume_id", resumeID),
			slog.Any("error", err))
		return
	}
	out.Resume = &updated
}

// AnalyzeJob 对比简历与职位描述。模型输出无法解析时视为生成失败，不扣费。
func (s *Service) AnalyzeJob(ctx context.Context, userID uint, resumeID, jobDescription string) (JobAnalysis, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return JobAnalysis{}, errcode.Validation("jobDescription", "job description is required")
	}
	doc, err := s.resumes.Get(ctx, resumeID, userID)
	if err != nil {
		return JobAnalysis{}, err
	}

	var analysis JobAnalysis
	_, err = s.generate(ctx, userID, KindAnalysis, analysisPrompt(doc, jobDescription), func(output string) error {
		parsed, err := ParseJobAnalysis(output)
		if err != nil {
			return err
		}
		analysis = parsed
		return nil
	})
	if err != nil {
		return JobAnalysis{}, err
	}
	return analysis, nil
}

// generate 执行额度闸门：先检查余额，调用模型，accept 校验输出，最后扣减额度。
func (s *Service) generate(ctx context.Context, userID uint, kind string, prompt Prompt, accept func(string) error) (string, error) {
	log := s.logger.With(slog.Uint64("user_id", uint64(userID)), slog.String("kind", kind))

	if s.gen == nil {
		metrics.AIGeneration(kind, "error")
		return "", errcode.External("ai", errNotConfigured)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.IsPremium && user.AICredits <= 0 {
		metrics.AIGeneration(kind, "insufficient_credits")
		log.Info("ai generation rejected: no credits")
		return "", fmt.Errorf("ai credits exhausted: %w", errcode.ErrInsufficientCredits)
	}

	text, err := s.gen.Complete(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty completion")
	}
	if err == nil && accept != nil {
		err = accept(text)
	}
	if err != nil {
		metrics.AIGeneration(kind, "error")
		log.Warn("ai generation failed", slog.Any("error", err))
		return "", errcode.External("ai", err)
	}

	if !user.IsPremium {
		if err := s.users.DebitAICredit(ctx, userID); err != nil {
			if errors.Is(err, errcode.ErrInsufficientCredits) {
				metrics.AIGeneration(kind, "insufficient_credits")
				log.Info("ai generation discarded: last credit consumed concurrently")
			}
			return "", err
		}
		metrics.CreditConsumed("ai")
	}

	metrics.AIGeneration(kind, "ok")
	log.Info("ai generation completed", slog.Bool("premium", user.IsPremium))
	return text, nil
}

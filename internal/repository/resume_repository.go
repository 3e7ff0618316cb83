package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumeai/internal/database"
	"resumeai/internal/errcode"
	"resumeai/internal/resume"
)

// ResumeRepository 是简历文档存储。所有操作都按所有者过滤，
// 不属于调用者的简历与不存在的简历表现一致（ErrNotFound）。
type ResumeRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewResumeRepository(db *gorm.DB) *ResumeRepository {
	return &ResumeRepository{db: db, now: now}
}

// now 截断到微秒，保证写入 Postgres 后读回的时间与返回值一致。
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (r *ResumeRepository) Create(ctx context.Context, ownerID uint, initial resume.Patch) (resume.Resume, error) {
	doc, err := resume.New(ownerID, initial, r.now())
	if err != nil {
		return resume.Resume{}, err
	}
	row := toRow(doc)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return resume.Resume{}, fmt.Errorf("create resume: %w", err)
	}
	return doc, nil
}

func (r *ResumeRepository) Get(ctx context.Context, id string, ownerID uint) (resume.Resume, error) {
	row, err := findResume(r.db.WithContext(ctx), id, ownerID)
	if err != nil {
		return resume.Resume{}, err
	}
	return fromRow(row), nil
}

// ListByOwner 按最近修改时间倒序返回。
func (r *ResumeRepository) ListByOwner(ctx context.Context, ownerID uint) ([]resume.Resume, error) {
	var rows []database.Resume
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	out := make([]resume.Resume, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// Update 浅合并补丁：只写入补丁中出现的列，分区数组整体替换。
// 合并后的完整文档需通过校验，否则不写入任何内容。
func (r *ResumeRepository) Update(ctx context.Context, id string, ownerID uint, patch resume.Patch) (resume.Resume, error) {
	var updated resume.Resume
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findResume(tx, id, ownerID)
		if err != nil {
			return err
		}
		current := fromRow(row)

		merged := resume.Normalize(resume.Apply(current, patch))
		if err := resume.Validate(merged); err != nil {
			return err
		}
		merged.UpdatedAt = r.now()
		if merged.UpdatedAt.Before(current.UpdatedAt) {
			merged.UpdatedAt = current.UpdatedAt
		}

		result := tx.Model(&database.Resume{}).
			Where("id = ? AND user_id = ?", id, ownerID).
			Updates(patchColumns(merged, patch))
		if result.Error != nil {
			return fmt.Errorf("update resume: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("resume %s: %w", id, errcode.ErrNotFound)
		}
		updated = merged
		return nil
	})
	if err != nil {
		return resume.Resume{}, err
	}
	return updated, nil
}

// Delete 删除调用者的简历；目标不存在时同样返回 nil。
func (r *ResumeRepository) Delete(ctx context.Context, id string, ownerID uint) error {
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&database.Resume{}).Error; err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	return nil
}

// Duplicate 深拷贝源简历为新记录，标题追加 " (Copy)"。
func (r *ResumeRepository) Duplicate(ctx context.Context, id string, ownerID uint) (resume.Resume, error) {
	src, err := r.Get(ctx, id, ownerID)
	if err != nil {
		return resume.Resume{}, err
	}
	dup := resume.Duplicate(src, r.now())
	row := toRow(dup)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return resume.Resume{}, fmt.Errorf("duplicate resume: %w", err)
	}
	return dup, nil
}

func findResume(db *gorm.DB, id string, ownerID uint) (database.Resume, error) {
	var row database.Resume
	err := db.Where("id = ? AND user_id = ?", id, ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Resume{}, fmt.Errorf("resume %s: %w", id, errcode.ErrNotFound)
	}
	if err != nil {
		return database.Resume{}, fmt.Errorf("query resume: %w", err)
	}
	return row, nil
}

// patchColumns 把补丁中出现的字段映射为列更新，取值来自规范化后的合并文档。
func patchColumns(merged resume.Resume, p resume.Patch) map[string]any {
	cols := map[string]any{"updated_at": merged.UpdatedAt}
	set := func(present bool, column string, value any) {
		if present {
			cols[column] = value
		}
	}
	set(p.Title != nil, "title", merged.Title)
	set(p.Template != nil, "template", string(merged.Template))
	set(p.FullName != nil, "full_name", merged.FullName)
	set(p.Email != nil, "email", merged.Email)
	set(p.Phone != nil, "phone", merged.Phone)
	set(p.Location != nil, "location", merged.Location)
	set(p.Website != nil, "website", merged.Website)
	set(p.LinkedIn != nil, "linkedin", merged.LinkedIn)
	set(p.GitHub != nil, "github", merged.GitHub)
	set(p.Summary != nil, "summary", merged.Summary)
	set(p.Experience != nil, "experience", datatypes.NewJSONType(merged.Experience))
	set(p.Education != nil, "education", datatypes.NewJSONType(merged.Education))
	set(p.Skills != nil, "skills", datatypes.NewJSONType(merged.Skills))
	set(p.Projects != nil, "projects", datatypes.NewJSONType(merged.Projects))
	set(p.Certifications != nil, "certifications", datatypes.NewJSONType(merged.Certifications))
	set(p.Achievements != nil, "achievements", datatypes.NewJSONType(merged.Achievements))
	set(p.Languages != nil, "languages", datatypes.NewJSONType(merged.Languages))
	set(p.Interests != nil, "interests", datatypes.NewJSONType(merged.Interests))
	set(p.ShowSummary != nil, "show_summary", merged.ShowSummary)
	set(p.ShowExperience != nil, "show_experience", merged.ShowExperience)
	set(p.ShowEducation != nil, "show_education", merged.ShowEducation)
	set(p.ShowSkills != nil, "show_skills", merged.ShowSkills)
	set(p.ShowProjects != nil, "show_projects", merged.ShowProjects)
	set(p.ShowCertifications != nil, "show_certifications", merged.ShowCertifications)
	set(p.ShowAchievements != nil, "show_achievements", merged.ShowAchievements)
	set(p.ShowLanguages != nil, "show_languages", merged.ShowLanguages)
	set(p.ShowInterests != nil, "show_interests", merged.ShowInterests)
	set(p.SectionOrder != nil, "section_order", datatypes.NewJSONType(merged.SectionOrder))
	return cols
}

func toRow(doc resume.Resume) database.Resume {
	return database.Resume{
		ID:                 doc.ID,
		UserID:             doc.UserID,
		Title:              doc.Title,
		Template:           string(doc.Template),
		FullName:           doc.FullName,
		Email:              doc.Email,
		Phone:              doc.Phone,
		Location:           doc.Location,
		Website:            doc.Website,
		LinkedIn:           doc.LinkedIn,
		GitHub:             doc.GitHub,
		Summary:            doc.Summary,
		Experience:         datatypes.NewJSONType(doc.Experience),
		Education:          datatypes.NewJSONType(doc.Education),
		Skills:             datatypes.NewJSONType(doc.Skills),
		Projects:           datatypes.NewJSONType(doc.Projects),
		Certifications:     datatypes.NewJSONType(doc.Certifications),
		Achievements:       datatypes.NewJSONType(doc.Achievements),
		Languages:          datatypes.NewJSONType(doc.Languages),
		Interests:          datatypes.NewJSONType(doc.Interests),
		ShowSummary:        doc.ShowSummary,
		ShowExperience:     doc.ShowExperience,
		ShowEducation:      doc.ShowEducation,
		ShowSkills:         doc.ShowSkills,
		ShowProjects:       doc.ShowProjects,
		ShowCertifications: doc.ShowCertifications,
		ShowAchievements:   doc.ShowAchievements,
		ShowLanguages:      doc.ShowLanguages,
		ShowInterests:      doc.ShowInterests,
		SectionOrder:       datatypes.NewJSONType(doc.SectionOrder),
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
}

// fromRow 还原领域文档；历史行中缺失的 JSON 列经 Normalize 补成空数组与默认顺序。
func fromRow(row database.Resume) resume.Resume {
	return resume.Normalize(resume.Resume{
		ID:                 row.ID,
		UserID:             row.UserID,
		Title:              row.Title,
		Template:           resume.Template(row.Template),
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
		FullName:           row.FullName,
		Email:              row.Email,
		Phone:              row.Phone,
		Location:           row.Location,
		Website:            row.Website,
		LinkedIn:           row.LinkedIn,
		GitHub:             row.GitHub,
		Summary:            row.Summary,
		Experience:         row.Experience.Data(),
		Education:          row.Education.Data(),
		Skills:             row.Skills.Data(),
		Projects:           row.Projects.Data(),
		Certifications:     row.Certifications.Data(),
		Achievements:       row.Achievements.Data(),
		Languages:          row.Languages.Data(),
		Interests:          row.Interests.Data(),
		ShowSummary:        row.ShowSummary,
		ShowExperience:     row.ShowExperience,
		ShowEducation:      row.ShowEducation,
		ShowSkills:         row.ShowSkills,
		ShowProjects:       row.ShowProjects,
		ShowCertifications: row.ShowCertifications,
		ShowAchievements:   row.ShowAchievements,
		ShowLanguages:      row.ShowLanguages,
		ShowInterests:      row.ShowInterests,
		SectionOrder:       row.SectionOrder.Data(),
	})
}

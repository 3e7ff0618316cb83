package resume

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"resumeai/internal/errcode"
)

const (
	MaxTitleLength = 255
	copySuffix     = " (Copy)"
)

// Blank 返回带默认值的空文档：classic 版式、全部分区可见、规范分区顺序、空分区。
func Blank(ownerID uint) Resume {
	return Resume{
		UserID:             ownerID,
		Template:           TemplateClassic,
		Experience:         []Experience{},
		Education:          []Education{},
		Skills:             []SkillCategory{},
		Projects:           []Project{},
		Certifications:     []Certification{},
		Achievements:       []Achievement{},
		Languages:          []Language{},
		Interests:          []Interest{},
		ShowSummary:        true,
		ShowExperience:     true,
		ShowEducation:      true,
		ShowSkills:         true,
		ShowProjects:       true,
		ShowCertifications: true,
		ShowAchievements:   true,
		ShowLanguages:      true,
		ShowInterests:      true,
		SectionOrder:       DefaultSectionOrder(),
	}
}

// New 以 initial 覆盖默认值构造新文档，分配 ID 与时间戳，并完成规范化与校验。
func New(ownerID uint, initial Patch, now time.Time) (Resume, error) {
	r := Apply(Blank(ownerID), initial)
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now
	r = Normalize(r)
	if err := Validate(r); err != nil {
		return Resume{}, err
	}
	return r, nil
}

// Duplicate 深拷贝 src，分配新 ID 与新时间戳，标题追加 " (Copy)"。
func Duplicate(src Resume, now time.Time) Resume {
	out := src.Clone()
	out.ID = uuid.NewString()
	out.Title = src.Title + copySuffix
	out.CreatedAt = now
	out.UpdatedAt = now
	return out
}

// NewItemID 生成条目 ID。
func NewItemID() string {
	return uuid.NewString()
}

// Normalize 补齐 nil 分区、为缺失 ID 的条目生成 ID，并清除 current 条目的结束日期。
func Normalize(r Resume) Resume {
	out := r.Clone()
	out.Title = strings.TrimSpace(out.Title)
	if out.Template == "" {
		out.Template = TemplateClassic
	}
	if out.SectionOrder == nil {
		out.SectionOrder = DefaultSectionOrder()
	}

	if out.Experience == nil {
		out.Experience = []Experience{}
	}
	for i := range out.Experience {
		ensureID(&out.Experience[i].ID)
		if out.Experience[i].Current {
			out.Experience[i].EndDate = ""
		}
	}
	if out.Education == nil {
		out.Education = []Education{}
	}
	for i := range out.Education {
		ensureID(&out.Education[i].ID)
		if out.Education[i].Current {
			out.Education[i].EndDate = ""
		}
	}
	if out.Skills == nil {
		out.Skills = []SkillCategory{}
	}
	for i := range out.Skills {
		ensureID(&out.Skills[i].ID)
		if out.Skills[i].Skills == nil {
			out.Skills[i].Skills = []string{}
		}
	}
	if out.Projects == nil {
		out.Projects = []Project{}
	}
	for i := range out.Projects {
		ensureID(&out.Projects[i].ID)
	}
	if out.Certifications == nil {
		out.Certifications = []Certification{}
	}
	for i := range out.Certifications {
		ensureID(&out.Certifications[i].ID)
	}
	if out.Achievements == nil {
		out.Achievements = []Achievement{}
	}
	for i := range out.Achievements {
		ensureID(&out.Achievements[i].ID)
	}
	if out.Languages == nil {
		out.Languages = []Language{}
	}
	for i := range out.Languages {
		ensureID(&out.Languages[i].ID)
	}
	if out.Interests == nil {
		out.Interests = []Interest{}
	}
	for i := range out.Interests {
		ensureID(&out.Interests[i].ID)
	}
	return out
}

func ensureID(id *string) {
	if strings.TrimSpace(*id) == "" {
		*id = NewItemID()
	}
}

// Validate 检查文档不变量，失败时返回 errcode.ErrValidation 类错误。
func Validate(r Resume) error {
	if r.UserID == 0 {
		return errcode.Validation("userId", "owner is required")
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return errcode.Validation("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return errcode.Validation("title", "title must be %d characters or less", MaxTitleLength)
	}
	if !r.Template.Valid() {
		return errcode.Validation("template", "unknown template %q", r.Template)
	}
	if err := validateSectionOrder(r.SectionOrder); err != nil {
		return err
	}

	if err := uniqueIDs("experience", r.Experience); err != nil {
		return err
	}
	for _, e := range r.Experience {
		if err := validateDates("experience", e.StartDate, e.EndDate); err != nil {
			return err
		}
	}
	if err := uniqueIDs("education", r.Education); err != nil {
		return err
	}
	for _, e := range r.Education {
		if err := validateDates("education", e.StartDate, e.EndDate); err != nil {
			return err
		}
	}
	if err := uniqueIDs("skills", r.Skills); err != nil {
		return err
	}
	if err := uniqueIDs("projects", r.Projects); err != nil {
		return err
	}
	for _, p := range r.Projects {
		if err := validateDates("projects", p.StartDate, p.EndDate); err != nil {
			return err
		}
	}
	if err := uniqueIDs("certifications", r.Certifications); err != nil {
		return err
	}
	for _, c := range r.Certifications {
		if err := validateDates("certifications", c.Date); err != nil {
			return err
		}
	}
	if err := uniqueIDs("achievements", r.Achievements); err != nil {
		return err
	}
	for _, a := range r.Achievements {
		if err := validateDates("achievements", a.Date); err != nil {
			return err
		}
	}
	if err := uniqueIDs("languages", r.Languages); err != nil {
		return err
	}
	for _, l := range r.Languages {
		if !l.Proficiency.Valid() {
			return errcode.Validation("languages", "unknown proficiency %q", l.Proficiency)
		}
	}
	return uniqueIDs("interests", r.Interests)
}

func validateSectionOrder(order []SectionID) error {
	seen := make(map[SectionID]struct{}, len(order))
	for _, id := range order {
		if !id.Valid() {
			return errcode.Validation("sectionOrder", "unknown section %q", id)
		}
		if _, ok := seen[id]; ok {
			return errcode.Validation("sectionOrder", "section %q listed twice", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func uniqueIDs[T interface{ ItemID() string }](field string, items []T) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := item.ItemID()
		if id == "" {
			return errcode.Validation(field, "item id is required")
		}
		if _, ok := seen[id]; ok {
			return errcode.Validation(field, "duplicate item id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validateDates(field string, dates ...string) error {
	for _, d := range dates {
		if d == "" {
			continue
		}
		if _, ok := ParseMonth(d); !ok {
			return errcode.Validation(field, "date %q must be formatted as YYYY-MM", d)
		}
	}
	return nil
}

// ParseMonth 解析 YYYY-MM 或 YYYY-MM-DD。
func ParseMonth(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

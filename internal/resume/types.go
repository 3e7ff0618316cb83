package resume

import "time"

// Resume 是一份简历的完整文档：元数据、联系方式、摘要、八个条目分区、可见性与分区顺序。
// 条目分区在数据库中以 JSON 列内嵌存储，删除简历即删除全部条目。
type Resume struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"userId"`
	Title     string    `json:"title"`
	Template  Template  `json:"template"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Website  string `json:"website"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`

	Summary string `json:"summary"`

	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Skills         []SkillCategory `json:"skills"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	Achievements   []Achievement   `json:"achievements"`
	Languages      []Language      `json:"languages"`
	Interests      []Interest      `json:"interests"`

	ShowSummary        bool `json:"showSummary"`
	ShowExperience     bool `json:"showExperience"`
	ShowEducation      bool `json:"showEducation"`
	ShowSkills         bool `json:"showSkills"`
	ShowProjects       bool `json:"showProjects"`
	ShowCertifications bool `json:"showCertifications"`
	ShowAchievements   bool `json:"showAchievements"`
	ShowLanguages      bool `json:"showLanguages"`
	ShowInterests      bool `json:"showInterests"`

	SectionOrder []SectionID `json:"sectionOrder"`
}

// Experience 工作经历。Current 为 true 时 EndDate 在写入时被清空。
type Experience struct {
	ID          string `json:"id"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// Education 教育经历。
type Education struct {
	ID          string `json:"id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Current     bool   `json:"current"`
	GPA         string `json:"gpa,omitempty"`
}

// SkillCategory 一组同类技能。
type SkillCategory struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Skills   []string `json:"skills"`
}

type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
}

type Certification struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
	URL    string `json:"url,omitempty"`
}

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
}

type Language struct {
	ID          string      `json:"id"`
	Language    string      `json:"language"`
	Proficiency Proficiency `json:"proficiency"`
}

type Interest struct {
	ID       string `json:"id"`
	Interest string `json:"interest"`
}

func (e Experience) ItemID() string    { return e.ID }
func (e Education) ItemID() string     { return e.ID }
func (s SkillCategory) ItemID() string { return s.ID }
func (p Project) ItemID() string       { return p.ID }
func (c Certification) ItemID() string { return c.ID }
func (a Achievement) ItemID() string   { return a.ID }
func (l Language) ItemID() string      { return l.ID }
func (i Interest) ItemID() string      { return i.ID }

// Template 标识预览与导出使用的版式。
type Template string

const (
	TemplateClassic    Template = "classic"
	TemplateModern     Template = "modern"
	TemplateMinimalist Template = "minimalist"
)

// Templates 列出全部可选版式，顺序即展示顺序。
var Templates = []Template{TemplateClassic, TemplateModern, TemplateMinimalist}

func (t Template) Valid() bool {
	switch t {
	case TemplateClassic, TemplateModern, TemplateMinimalist:
		return true
	}
	return false
}

// Proficiency 语言熟练度。
type Proficiency string

const (
	ProficiencyNative       Proficiency = "Native"
	ProficiencyFluent       Proficiency = "Fluent"
	ProficiencyProfessional Proficiency = "Professional"
	ProficiencyIntermediate Proficiency = "Intermediate"
	ProficiencyBasic        Proficiency = "Basic"
)

func (p Proficiency) Valid() bool {
	switch p {
	case ProficiencyNative, ProficiencyFluent, ProficiencyProfessional, ProficiencyIntermediate, ProficiencyBasic:
		return true
	}
	return false
}

// SectionID 标识九个内容分区之一。
type SectionID string

const (
	SectionSummary        SectionID = "summary"
	SectionExperience     SectionID = "experience"
	SectionEducation      SectionID = "education"
	SectionSkills         SectionID = "skills"
	SectionProjects       SectionID = "projects"
	SectionCertifications SectionID = "certifications"
	SectionAchievements   SectionID = "achievements"
	SectionLanguages      SectionID = "languages"
	SectionInterests      SectionID = "interests"
)

// DefaultSectionOrder 返回规范分区顺序的副本。
func DefaultSectionOrder() []SectionID {
	return []SectionID{
		SectionSummary,
		SectionExperience,
		SectionEducation,
		SectionSkills,
		SectionProjects,
		SectionCertifications,
		SectionAchievements,
		SectionLanguages,
		SectionInterests,
	}
}

func (s SectionID) Valid() bool {
	for _, id := range DefaultSectionOrder() {
		if s == id {
			return true
		}
	}
	return false
}

// Visible 返回分区的可见性开关。
func (r Resume) Visible(section SectionID) bool {
	switch section {
	case SectionSummary:
		return r.ShowSummary
	case SectionExperience:
		return r.ShowExperience
	case SectionEducation:
		return r.ShowEducation
	case SectionSkills:
		return r.ShowSkills
	case SectionProjects:
		return r.ShowProjects
	case SectionCertifications:
		return r.ShowCertifications
	case SectionAchievements:
		return r.ShowAchievements
	case SectionLanguages:
		return r.ShowLanguages
	case SectionInterests:
		return r.ShowInterests
	}
	return false
}

package resume

// Patch 是一次部分更新：只有非 nil 的字段会被写入。
// 分区字段整体替换（浅合并），不会按条目逐个合并。
type Patch struct {
	Title    *string   `json:"title,omitempty"`
	Template *Template `json:"template,omitempty"`

	FullName *string `json:"fullName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Location *string `json:"location,omitempty"`
	Website  *string `json:"website,omitempty"`
	LinkedIn *string `json:"linkedin,omitempty"`
	GitHub   *string `json:"github,omitempty"`

	Summary *string `json:"summary,omitempty"`

	Experience     *[]Experience    `json:"experience,omitempty"`
	Education      *[]Education     `json:"education,omitempty"`
	Skills         *[]SkillCategory `json:"skills,omitempty"`
	Projects       *[]Project       `json:"projects,omitempty"`
	Certifications *[]Certification `json:"certifications,omitempty"`
	Achievements   *[]Achievement   `json:"achievements,omitempty"`
	Languages      *[]Language      `json:"languages,omitempty"`
	Interests      *[]Interest      `json:"interests,omitempty"`

	ShowSummary        *bool `json:"showSummary,omitempty"`
	ShowExperience     *bool `json:"showExperience,omitempty"`
	ShowEducation      *bool `json:"showEducation,omitempty"`
	ShowSkills         *bool `json:"showSkills,omitempty"`
	ShowProjects       *bool `json:"showProjects,omitempty"`
	ShowCertifications *bool `json:"showCertifications,omitempty"`
	ShowAchievements   *bool `json:"showAchievements,omitempty"`
	ShowLanguages      *bool `json:"showLanguages,omitempty"`
	ShowInterests      *bool `json:"showInterests,omitempty"`

	SectionOrder *[]SectionID `json:"sectionOrder,omitempty"`
}

// Ptr 便于构造 Patch 字段。
func Ptr[T any](v T) *T {
	return &v
}

// Apply 返回将 p 浅合并到 r 之后的新文档，r 本身不被修改。
func Apply(r Resume, p Patch) Resume {
	out := r.Clone()
	setIf(&out.Title, p.Title)
	setIf(&out.Template, p.Template)
	setIf(&out.FullName, p.FullName)
	setIf(&out.Email, p.Email)
	setIf(&out.Phone, p.Phone)
	setIf(&out.Location, p.Location)
	setIf(&out.Website, p.Website)
	setIf(&out.LinkedIn, p.LinkedIn)
	setIf(&out.GitHub, p.GitHub)
	setIf(&out.Summary, p.Summary)

	if p.Experience != nil {
		out.Experience = cloneSlice(*p.Experience)
	}
	if p.Education != nil {
		out.Education = cloneSlice(*p.Education)
	}
	if p.Skills != nil {
		out.Skills = cloneSkills(*p.Skills)
	}
	if p.Projects != nil {
		out.Projects = cloneProjects(*p.Projects)
	}
	if p.Certifications != nil {
		out.Certifications = cloneSlice(*p.Certifications)
	}
	if p.Achievements != nil {
		out.Achievements = cloneSlice(*p.Achievements)
	}
	if p.Languages != nil {
		out.Languages = cloneSlice(*p.Languages)
	}
	if p.Interests != nil {
		out.Interests = cloneSlice(*p.Interests)
	}

	setIf(&out.ShowSummary, p.ShowSummary)
	setIf(&out.ShowExperience, p.ShowExperience)
	setIf(&out.ShowEducation, p.ShowEducation)
	setIf(&out.ShowSkills, p.ShowSkills)
	setIf(&out.ShowProjects, p.ShowProjects)
	setIf(&out.ShowCertifications, p.ShowCertifications)
	setIf(&out.ShowAchievements, p.ShowAchievements)
	setIf(&out.ShowLanguages, p.ShowLanguages)
	setIf(&out.ShowInterests, p.ShowInterests)

	if p.SectionOrder != nil {
		out.SectionOrder = cloneSlice(*p.SectionOrder)
	}
	return out
}

// Merge 合并两次编辑：newer 中出现的字段覆盖 older 中的同名字段。
func Merge(older, newer Patch) Patch {
	out := older
	pick(&out.Title, newer.Title)
	pick(&out.Template, newer.Template)
	pick(&out.FullName, newer.FullName)
	pick(&out.Email, newer.Email)
	pick(&out.Phone, newer.Phone)
	pick(&out.Location, newer.Location)
	pick(&out.Website, newer.Website)
	pick(&out.LinkedIn, newer.LinkedIn)
	pick(&out.GitHub, newer.GitHub)
	pick(&out.Summary, newer.Summary)
	pick(&out.Experience, newer.Experience)
	pick(&out.Education, newer.Education)
	pick(&out.Skills, newer.Skills)
	pick(&out.Projects, newer.Projects)
	pick(&out.Certifications, newer.Certifications)
	pick(&out.Achievements, newer.Achievements)
	pick(&out.Languages, newer.Languages)
	pick(&out.Interests, newer.Interests)
	pick(&out.ShowSummary, newer.ShowSummary)
	pick(&out.ShowExperience, newer.ShowExperience)
	pick(&out.ShowEducation, newer.ShowEducation)
	pick(&out.ShowSkills, newer.ShowSkills)
	pick(&out.ShowProjects, newer.ShowProjects)
	pick(&out.ShowCertifications, newer.ShowCertifications)
	pick(&out.ShowAchievements, newer.ShowAchievements)
	pick(&out.ShowLanguages, newer.ShowLanguages)
	pick(&out.ShowInterests, newer.ShowInterests)
	pick(&out.SectionOrder, newer.SectionOrder)
	return out
}

// IsEmpty 判断补丁是否未携带任何字段。
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func pick[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

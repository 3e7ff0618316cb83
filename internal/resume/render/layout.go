package render

import (
	"strings"

	"resumeai/internal/resume"
)

// Column 表示分区在版面中的位置，modern 版式把部分分区放进侧栏。
type Column string

const (
	ColumnMain    Column = "main"
	ColumnSidebar Column = "sidebar"
)

// layout 只描述展示差异：标题文字、列表分隔符、分栏。内容选择逻辑对所有版式一致。
type layout struct {
	template  resume.Template
	headings  map[resume.SectionID]string
	uppercase bool
	separator string
	sidebar   map[resume.SectionID]bool
}

var defaultHeadings = map[resume.SectionID]string{
	resume.SectionSummary:        "Summary",
	resume.SectionExperience:     "Experience",
	resume.SectionEducation:      "Education",
	resume.SectionSkills:         "Skills",
	resume.SectionProjects:       "Projects",
	resume.SectionCertifications: "Certifications",
	resume.SectionAchievements:   "Achievements",
	resume.SectionLanguages:      "Languages",
	resume.SectionInterests:      "Interests",
}

var layouts = map[resume.Template]layout{
	resume.TemplateClassic: {
		template:  resume.TemplateClassic,
		headings:  withHeading(resume.SectionSummary, "Professional Summary"),
		separator: ", ",
	},
	resume.TemplateModern: {
		template:  resume.TemplateModern,
		headings:  defaultHeadings,
		separator: ", ",
		sidebar: map[resume.SectionID]bool{
			resume.SectionSkills:         true,
			resume.SectionLanguages:      true,
			resume.SectionInterests:      true,
			resume.SectionCertifications: true,
		},
	},
	resume.TemplateMinimalist: {
		template:  resume.TemplateMinimalist,
		headings:  defaultHeadings,
		uppercase: true,
		separator: " · ",
	},
}

func withHeading(id resume.SectionID, heading string) map[resume.SectionID]string {
	out := make(map[resume.SectionID]string, len(defaultHeadings))
	for k, v := range defaultHeadings {
		out[k] = v
	}
	out[id] = heading
	return out
}

// layoutFor 返回模板对应的版式，未知模板回退到 classic。
func layoutFor(templateID string) layout {
	if l, ok := layouts[resume.Template(strings.ToLower(strings.TrimSpace(templateID)))]; ok {
		return l
	}
	return layouts[resume.TemplateClassic]
}

func (l layout) heading(id resume.SectionID) string {
	h := l.headings[id]
	if l.uppercase {
		return strings.ToUpper(h)
	}
	return h
}

func (l layout) column(id resume.SectionID) Column {
	if l.sidebar[id] {
		return ColumnSidebar
	}
	return ColumnMain
}

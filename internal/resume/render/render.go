// Package render 把简历文档投影为与版式无关的可渲染结构，供预览接口和 PDF 导出共用。
package render

import (
	"strings"

	"resumeai/internal/resume"
)

// EntryKind 标识条目来源的分区类型。
type EntryKind string

const (
	KindText          EntryKind = "text"
	KindExperience    EntryKind = "experience"
	KindEducation     EntryKind = "education"
	KindSkill         EntryKind = "skill"
	KindProject       EntryKind = "project"
	KindCertification EntryKind = "certification"
	KindAchievement   EntryKind = "achievement"
	KindLanguage      EntryKind = "language"
	KindInterest      EntryKind = "interest"
)

type Document struct {
	Template resume.Template `json:"template"`
	Header   Header          `json:"header"`
	Sections []Section       `json:"sections"`
}

type Header struct {
	Name     string   `json:"name"`
	Contacts []string `json:"contacts"`
	Links    []string `json:"links"`
}

type Section struct {
	ID      resume.SectionID `json:"id"`
	Heading string           `json:"heading"`
	Column  Column           `json:"column"`
	Entries []Entry          `json:"entries"`
}

// Entry 是一条渲染后的内容。空的可选字段保持零值并在 JSON 中省略。
type Entry struct {
	Kind     EntryKind `json:"kind"`
	Title    string    `json:"title,omitempty"`
	Subtitle string    `json:"subtitle,omitempty"`
	Location string    `json:"location,omitempty"`
	Dates    string    `json:"dates,omitempty"`
	Body     string    `json:"body,omitempty"`
	Details  []string  `json:"details,omitempty"`
	Tags     []string  `json:"tags,omitempty"`
	URL      string    `json:"url,omitempty"`
}

// Render 是纯函数：相同输入总是得到结构相同的输出，且不修改 r。
func Render(r resume.Resume, templateID string) Document {
	l := layoutFor(templateID)
	doc := Document{
		Template: l.template,
		Header:   header(r),
		Sections: []Section{},
	}
	for _, id := range ResolveOrder(r.SectionOrder) {
		if !r.Visible(id) {
			continue
		}
		entries := sectionEntries(r, id, l)
		if len(entries) == 0 {
			continue
		}
		doc.Sections = append(doc.Sections, Section{
			ID:      id,
			Heading: l.heading(id),
			Column:  l.column(id),
			Entries: entries,
		})
	}
	return doc
}

// ResolveOrder 按声明顺序输出分区：忽略未知 ID，重复只保留第一次，
// 声明中缺失的分区按规范顺序追加在末尾。
func ResolveOrder(declared []resume.SectionID) []resume.SectionID {
	canonical := resume.DefaultSectionOrder()
	out := make([]resume.SectionID, 0, len(canonical))
	seen := make(map[resume.SectionID]bool, len(canonical))
	for _, id := range declared {
		if !id.Valid() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	for _, id := range canonical {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}

func header(r resume.Resume) Header {
	return Header{
		Name:     strings.TrimSpace(r.FullName),
		Contacts: nonEmpty(r.Email, r.Phone, r.Location),
		Links:    nonEmpty(r.Website, r.LinkedIn, r.GitHub),
	}
}

func sectionEntries(r resume.Resume, id resume.SectionID, l layout) []Entry {
	var entries []Entry
	switch id {
	case resume.SectionSummary:
		if s := strings.TrimSpace(r.Summary); s != "" {
			entries = append(entries, Entry{Kind: KindText, Body: s})
		}
	case resume.SectionExperience:
		for _, e := range r.Experience {
			entries = append(entries, experienceEntry(e))
		}
	case resume.SectionEducation:
		for _, e := range r.Education {
			entries = append(entries, educationEntry(e))
		}
	case resume.SectionSkills:
		for _, s := range r.Skills {
			skills := nonEmpty(s.Skills...)
			entries = append(entries, Entry{
				Kind:  KindSkill,
				Title: strings.TrimSpace(s.Category),
				Body:  strings.Join(skills, l.separator),
				Tags:  skills,
			})
		}
	case resume.SectionProjects:
		for _, p := range r.Projects {
			entries = append(entries, Entry{
				Kind:  KindProject,
				Title: strings.TrimSpace(p.Name),
				Dates: FormatRange(p.StartDate, p.EndDate, false),
				Body:  strings.TrimSpace(p.Description),
				Tags:  nonEmpty(p.Technologies...),
				URL:   strings.TrimSpace(p.URL),
			})
		}
	case resume.SectionCertifications:
		for _, c := range r.Certifications {
			entries = append(entries, Entry{
				Kind:     KindCertification,
				Title:    strings.TrimSpace(c.Name),
				Subtitle: strings.TrimSpace(c.Issuer),
				Dates:    FormatDate(c.Date),
				URL:      strings.TrimSpace(c.URL),
			})
		}
	case resume.SectionAchievements:
		for _, a := range r.Achievements {
			entries = append(entries, Entry{
				Kind:  KindAchievement,
				Title: strings.TrimSpace(a.Title),
				Body:  strings.TrimSpace(a.Description),
				Dates: FormatDate(a.Date),
			})
		}
	case resume.SectionLanguages:
		for _, lang := range r.Languages {
			title := strings.TrimSpace(lang.Language)
			if lang.Proficiency != "" {
				title += " (" + string(lang.Proficiency) + ")"
			}
			entries = append(entries, Entry{Kind: KindLanguage, Title: title})
		}
	case resume.SectionInterests:
		for _, i := range r.Interests {
			entries = append(entries, Entry{Kind: KindInterest, Title: strings.TrimSpace(i.Interest)})
		}
	}
	return entries
}

func experienceEntry(e resume.Experience) Entry {
	return Entry{
		Kind:     KindExperience,
		Title:    strings.TrimSpace(e.Position),
		Subtitle: strings.TrimSpace(e.Company),
		Location: strings.TrimSpace(e.Location),
		Dates:    FormatRange(e.StartDate, e.EndDate, e.Current),
		Body:     strings.TrimSpace(e.Description),
	}
}

func educationEntry(e resume.Education) Entry {
	title := strings.TrimSpace(e.Degree)
	if field := strings.TrimSpace(e.Field); field != "" {
		if title != "" {
			title += " in " + field
		} else {
			title = field
		}
	}
	entry := Entry{
		Kind:     KindEducation,
		Title:    title,
		Subtitle: strings.TrimSpace(e.Institution),
		Location: strings.TrimSpace(e.Location),
		Dates:    FormatRange(e.StartDate, e.EndDate, e.Current),
	}
	if gpa := strings.TrimSpace(e.GPA); gpa != "" {
		entry.Details = []string{"GPA: " + gpa}
	}
	return entry
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

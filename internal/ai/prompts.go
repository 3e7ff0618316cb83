package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumeai/internal/resume"
	"resumeai/internal/resume/render"
)

const (
	summaryMaxTokens  = 200
	bulletsMaxTokens  = 300
	analysisMaxTokens = 1500
	defaultTemp       = 0.7
	analysisTemp      = 0.3
)

func summaryPrompt(req SummaryRequest) Prompt {
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		name = "Candidate"
	}
	experience := "Entry level"
	if len(req.Experience) > 0 {
		experience = truncatedJSON(req.Experience, 500)
	}
	skills := "Various skills"
	if len(req.Skills) > 0 {
		skills = truncatedJSON(req.Skills, 300)
	}

	text := fmt.Sprintf(`You are a professional resume writer. Generate a compelling professional summary (2-3 sentences) for a candidate with the following information:

Name: %s
Experience: %s
Skills: %s

Write a concise, achievement-focused professional summary that highlights key strengths and career goals. Use action verbs and quantify achievements where possible. Keep it under 100 words.`, name, experience, skills)

	return Prompt{Text: text, MaxTokens: summaryMaxTokens, Temperature: defaultTemp}
}

func bulletsPrompt(req BulletsRequest) Prompt {
	text := fmt.Sprintf(`You are a professional resume writer. Generate 3-5 achievement-focused bullet points for this work experience:

Position: %s
Company: %s
Current Description: %s

Create impactful bullet points that:
- Start with strong action verbs
- Include quantifiable achievements where possible (numbers, percentages, scale)
- Highlight key responsibilities and impact
- Are concise and results-oriented
- Use past tense for completed roles

Format each bullet point starting with "• " on a new line.`,
		strings.TrimSpace(req.Position),
		strings.TrimSpace(req.Company),
		strings.TrimSpace(req.CurrentDescription),
	)
	return Prompt{Text: text, MaxTokens: bulletsMaxTokens, Temperature: defaultTemp}
}

func analysisPrompt(doc resume.Resume, jobDescription string) Prompt {
	text := fmt.Sprintf(`You are an expert recruiter and ATS specialist. Compare the resume below with the job description and respond with a single JSON object and nothing else, using exactly these keys:
{"matchScore": <integer 0-100>, "overallAssessment": <string>, "strengths": [<string>], "missingKeywords": [<string>], "skillsGap": [<string>], "recommendations": [<string>], "atsOptimization": [<string>]}

RESUME:
%s

JOB DESCRIPTION:
%s`, PlainText(doc), strings.TrimSpace(jobDescription))
	return Prompt{Text: text, MaxTokens: analysisMaxTokens, Temperature: analysisTemp}
}

// PlainText 把简历投影为纯文本，隐藏或空的分区不出现在结果中。
func PlainText(doc resume.Resume) string {
	projected := render.Render(doc, string(resume.TemplateClassic))
	var b strings.Builder
	if projected.Header.Name != "" {
		b.WriteString(projected.Header.Name)
		b.WriteString("\n")
	}
	for _, section := range projected.Sections {
		b.WriteString("\n")
		b.WriteString(strings.ToUpper(section.Heading))
		b.WriteString("\n")
		for _, e := range section.Entries {
			line := joinNonEmpty(" | ", e.Title, e.Subtitle, e.Location, e.Dates)
			if line != "" {
				b.WriteString("- ")
				b.WriteString(line)
				b.WriteString("\n")
			}
			if e.Body != "" {
				b.WriteString(e.Body)
				b.WriteString("\n")
			}
			if len(e.Tags) > 0 && e.Kind != render.KindSkill {
				b.WriteString(strings.Join(e.Tags, ", "))
				b.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func truncatedJSON(v any, limit int) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	runes := []rune(string(raw))
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes)
}

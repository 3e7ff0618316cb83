package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// JobAnalysis 是简历与职位描述的匹配分析结果。
type JobAnalysis struct {
	MatchScore        int      `json:"matchScore"`
	OverallAssessment string   `json:"overallAssessment"`
	Strengths         []string `json:"strengths"`
	MissingKeywords   []string `json:"missingKeywords"`
	SkillsGap         []string `json:"skillsGap"`
	Recommendations   []string `json:"recommendations"`
	ATSOptimization   []string `json:"atsOptimization"`
}

type rawAnalysis struct {
	MatchScore        float64  `json:"matchScore"`
	OverallAssessment string   `json:"overallAssessment"`
	Strengths         []string `json:"strengths"`
	MissingKeywords   []string `json:"missingKeywords"`
	SkillsGap         []string `json:"skillsGap"`
	Recommendations   []string `json:"recommendations"`
	ATSOptimization   []string `json:"atsOptimization"`
}

var errNoJSONObject = errors.New("no json object in model output")

// ParseJobAnalysis 从模型输出中提取 JSON 对象（允许包裹在 markdown 代码块里），
// 分数取整并限制在 0-100，缺失的列表归一为空数组。
func ParseJobAnalysis(output string) (JobAnalysis, error) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end <= start {
		return JobAnalysis{}, errNoJSONObject
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(output[start:end+1]), &raw); err != nil {
		return JobAnalysis{}, fmt.Errorf("decode analysis: %w", err)
	}

	score := int(math.Round(raw.MatchScore))
	score = max(0, min(100, score))

	return JobAnalysis{
		MatchScore:        score,
		OverallAssessment: strings.TrimSpace(raw.OverallAssessment),
		Strengths:         cleanList(raw.Strengths),
		MissingKeywords:   cleanList(raw.MissingKeywords),
		SkillsGap:         cleanList(raw.SkillsGap),
		Recommendations:   cleanList(raw.Recommendations),
		ATSOptimization:   cleanList(raw.ATSOptimization),
	}, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

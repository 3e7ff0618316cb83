package render

import (
	"strings"

	"resumeai/internal/resume"
)

const presentLabel = "Present"

// FormatDate 把 YYYY-MM(-DD) 格式化为 "Jun 2023"；无法解析的值原样返回。
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	t, ok := resume.ParseMonth(value)
	if !ok {
		return value
	}
	return t.Format("Jan 2006")
}

// FormatRange 生成 "Jun 2023 - Sep 2023"；current 为 true 时结束日期固定为 "Present"。
func FormatRange(start, end string, current bool) string {
	from := FormatDate(start)
	to := FormatDate(end)
	if current {
		to = presentLabel
	}
	switch {
	case from == "" && to == "":
		return ""
	case from == "":
		return to
	case to == "":
		return from
	}
	return from + " - " + to
}

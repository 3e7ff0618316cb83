package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"resumeai/internal/resume"
)

// pageTemplate 是导出 PDF 使用的 A4 打印页，所有版式共用同一份结构，
// 差异只体现在 body 的 class 上。
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{if .Header.Name}}{{.Header.Name}}{{else}}Resume{{end}}</title>
    <style>
        @page { size: A4; margin: 14mm; }
        body { margin: 0; font-family: 'Helvetica Neue', Arial, sans-serif; font-size: 10.5pt; color: #111; }
        header { margin-bottom: 14px; }
        h1 { margin: 0 0 4px; font-size: 22pt; }
        h2 { font-size: 12pt; margin: 14px 0 6px; }
        .meta { font-size: 9pt; color: #444; }
        .meta span + span::before { content: " • "; }
        .entry { margin-bottom: 8px; page-break-inside: avoid; }
        .entry-head { display: flex; justify-content: space-between; }
        .entry-title { font-weight: 600; }
        .entry-dates { color: #555; font-size: 9pt; white-space: nowrap; }
        .entry-sub { color: #333; }
        .entry-body { white-space: pre-line; margin-top: 2px; }
        .tags { font-size: 9pt; color: #333; }
        .tpl-classic header { text-align: center; border-bottom: 2px solid #111; padding-bottom: 10px; }
        .tpl-classic h2 { text-transform: uppercase; letter-spacing: 0.5px; }
        .tpl-modern h2 { color: #2563eb; }
        .tpl-modern .columns { display: grid; grid-template-columns: 2fr 1fr; gap: 18px; }
        .tpl-minimalist h2 { font-size: 9pt; letter-spacing: 2px; color: #666; font-weight: 600; }
    </style>
</head>
<body class="tpl-{{.Template}}">
    <header>
        <h1>{{.Header.Name}}</h1>
        {{if .Header.Contacts}}<div class="meta">{{range .Header.Contacts}}<span>{{.}}</span>{{end}}</div>{{end}}
        {{if .Header.Links}}<div class="meta">{{range .Header.Links}}<span>{{.}}</span>{{end}}</div>{{end}}
    </header>
    {{if .Sidebar}}
    <div class="columns">
        <div>{{range .Main}}{{template "section" .}}{{end}}</div>
        <aside>{{range .Sidebar}}{{template "section" .}}{{end}}</aside>
    </div>
    {{else}}
        {{range .Main}}{{template "section" .}}{{end}}
    {{end}}
</body>
</html>
{{define "section"}}
<section id="{{.ID}}">
    <h2>{{.Heading}}</h2>
    {{range .Entries}}
    <div class="entry">
        {{if or .Title .Dates}}
        <div class="entry-head">
            <span class="entry-title">{{.Title}}</span>
            {{if .Dates}}<span class="entry-dates">{{.Dates}}</span>{{end}}
        </div>
        {{end}}
        {{if or .Subtitle .Location}}<div class="entry-sub">{{.Subtitle}}{{if and .Subtitle .Location}}, {{end}}{{.Location}}</div>{{end}}
        {{if .Body}}<div class="entry-body">{{.Body}}</div>{{end}}
        {{range .Details}}<div class="entry-sub">{{.}}</div>{{end}}
        {{if and .Tags (ne .Kind "skill")}}<div class="tags">{{join .Tags}}</div>{{end}}
        {{if .URL}}<div class="tags"><a href="{{.URL}}">{{.URL}}</a></div>{{end}}
    </div>
    {{end}}
</section>
{{end}}`

var page = template.Must(template.New("page").Funcs(template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
}).Parse(pageTemplate))

type pageData struct {
	Template resume.Template
	Header   Header
	Main     []Section
	Sidebar  []Section
}

// HTML 把渲染结果输出为可打印的完整 HTML 页面，用户输入由 html/template 转义。
func HTML(doc Document) ([]byte, error) {
	data := pageData{Template: doc.Template, Header: doc.Header}
	for _, s := range doc.Sections {
		if s.Column == ColumnSidebar {
			data.Sidebar = append(data.Sidebar, s)
			continue
		}
		data.Main = append(data.Main, s)
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute page template: %w", err)
	}
	return buf.Bytes(), nil
}

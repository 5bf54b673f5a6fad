package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"xwikireport/internal/models"
)

// Date layouts used in rendered reports.
const (
	ShortDateLayout = "2006-01-02"
	LongDateLayout  = "Jan, 02, 2006. 15:04"
	HeadingLayout   = "Jan, 02, 2006"
)

// Section is one space's block in the consolidated report.
type Section struct {
	Label       string
	Records     []models.ArticleRecord
	Diagnostics []models.Diagnostic
}

// ShortDate formats a timestamp as YYYY-MM-DD.
func ShortDate(ts models.Timestamp) string {
	return ts.UTC().Format(ShortDateLayout)
}

// LongDate formats a timestamp as "Jan, 02, 2006. 15:04".
func LongDate(ts models.Timestamp) string {
	return ts.UTC().Format(LongDateLayout)
}

var funcs = template.FuncMap{
	"short": ShortDate,
	"long":  LongDate,
}

const skippedBlock = `{{define "skipped"}}{{if .}}
<h2>Skipped articles</h2>
<ul class="skipped">
{{- range .}}
  <li><a href="{{.PageURL}}">{{.Title}}</a>: <span class="kind">{{.Kind}}</span>{{if .Reason}} ({{.Reason}}){{end}}{{if .RedirectURL}}, see <a class="redirect" href="{{.RedirectURL}}">alternate portal</a>{{end}}</li>
{{- end}}
</ul>
{{- end}}{{end}}`

var spaceTemplate = template.Must(template.New("space").Funcs(funcs).Parse(skippedBlock + `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Label}} articles</title>
</head>
<body>
<h1>{{.Label}} articles space as of {{.Stamp}}</h1>
<table>
  <tr>
    <th><b>Article</b></th>
    <th><b>Created</b></th>
    <th><b>Modified</b></th>
    <th><b>Modifier</b></th>
  </tr>
{{- range .Records}}
  <tr>
    <td><a href="{{.PageURL}}">{{.Title}}</a></td>
    <td>{{short .Created}}</td>
    <td>{{short .LatestModified}}</td>
    <td>{{.Modifier}}</td>
  </tr>
{{- end}}
</table>
{{template "skipped" .Diagnostics}}
</body>
</html>
`))

var consolidatedTemplate = template.Must(template.New("all").Funcs(funcs).Parse(skippedBlock + `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Articles in all spaces</title>
<style>
  table {
    border-collapse: separate;
    border-spacing: 1px;
  }

  table th, table td {
    border: 1px solid #999999;
    padding: 5px;
  }
</style>
</head>
<body>
{{- $heading := .Heading}}
{{- range .Sections}}
<section>
<h1>Articles in {{.Label}} space as of {{$heading}}</h1>
<table>
  <tr>
    <th><b>Article</b></th>
    <th><b>Created</b></th>
    <th><b>Modified</b></th>
    <th><b>Modifier</b></th>
  </tr>
{{- range .Records}}
  <tr>
    <td><a href="{{.PageURL}}">{{.Title}}</a></td>
    <td>{{long .Created}}</td>
    <td>{{long .LatestModified}}</td>
    <td>{{.Modifier}}</td>
  </tr>
{{- end}}
</table>
{{template "skipped" .Diagnostics}}
</section>
{{- end}}
</body>
</html>
`))

// HTML renders the report for one space.
func HTML(label string, records []models.ArticleRecord, diags []models.Diagnostic, at time.Time) ([]byte, error) {
	var buf bytes.Buffer

	err := spaceTemplate.Execute(&buf, struct {
		Label       string
		Stamp       string
		Records     []models.ArticleRecord
		Diagnostics []models.Diagnostic
	}{label, Stamp(at), records, diags})
	if err != nil {
		return nil, fmt.Errorf("render html for %s: %w", label, err)
	}

	return buf.Bytes(), nil
}

// ConsolidatedHTML renders every space into one styled document.
func ConsolidatedHTML(sections []Section, at time.Time) ([]byte, error) {
	var buf bytes.Buffer

	err := consolidatedTemplate.Execute(&buf, struct {
		Heading  string
		Sections []Section
	}{at.UTC().Format(HeadingLayout), sections})
	if err != nil {
		return nil, fmt.Errorf("render consolidated html: %w", err)
	}

	return buf.Bytes(), nil
}

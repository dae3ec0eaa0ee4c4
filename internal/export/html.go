package export

import (
	"bytes"
	"html/template"
	"time"
)

var htmlTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
{{if eq .Kind "spreadsheet"}}<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:x="urn:schemas-microsoft-com:office:excel">
{{else if eq .Kind "document"}}<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word">
{{else}}<html lang="es">
{{end}}<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; font-size: 12px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; }
th { background: #1f3b57; color: #fff; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Generado: {{.GeneratedAt}}{{if .PageLabel}} · {{.PageLabel}}{{end}}</p>
<table>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
{{if .AutoPrint}}<script>window.onload = function () { window.print(); };</script>
{{end}}</body>
</html>
`))

type htmlView struct {
	Kind        string
	Title       string
	GeneratedAt string
	PageLabel   string
	Header      []string
	Rows        [][]string
	AutoPrint   bool
}

func renderHTML(kind Format, records []record, meta Meta, autoPrint bool) ([]byte, error) {
	view := htmlView{
		Kind:        string(kind),
		Title:       meta.Title,
		GeneratedAt: meta.GeneratedAt.Format(time.DateTime),
		PageLabel:   meta.PageLabel,
		Header:      Header,
		Rows:        make([][]string, 0, len(records)),
		AutoPrint:   autoPrint,
	}
	for _, r := range records {
		view.Rows = append(view.Rows, r.cells())
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

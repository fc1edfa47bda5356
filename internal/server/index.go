// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package server

import "html/template"

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"pageURL": pageURL,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Sitetrack</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: .5rem; border-bottom: 1px solid #dee2e6; }
.error { color: #dc3545; }
.muted { color: #6c757d; }
</style>
</head>
<body>
<h1>Sitetrack</h1>
<table>
<thead><tr><th>Page</th><th>Records</th><th>Overdue</th><th>Updated</th></tr></thead>
<tbody>
{{- range .}}
<tr>
  <td><a href="{{pageURL .Name}}">{{.Title}}</a></td>
  {{- if .Loaded}}
  <td>{{.Records}}</td><td>{{.Overdue}}</td>
  <td>{{if .Error}}<span class="error">{{.Error}}{{if .Stale}} (stale){{end}}</span>{{else}}{{.FetchedAt.Format "2006-01-02 15:04"}}{{end}}</td>
  {{- else}}
  <td colspan="3" class="muted">loading</td>
  {{- end}}
</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

package server

import (
	"html/template"

	"github.com/ppiankov/lifestory/internal/model"
	"github.com/ppiankov/lifestory/internal/pipeline"
)

type pageView struct {
	Options     *pipeline.Options
	Selection   model.Selection
	Error       string
	Embed       template.HTML
	Narrative   *model.Narrative
	DownloadURL string
	FileName    string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Life Expectancy Story</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 0; padding: 1rem; }
.centered { display: flex; justify-content: center; align-items: center; flex-direction: column; text-align: center; width: 100%; }
.title { font-size: 2.5em; margin-top: 0; margin-bottom: 0.5em; }
form { display: flex; flex-direction: column; gap: 0.75rem; min-width: 320px; margin-bottom: 1.5rem; }
fieldset { border: none; padding: 0; }
.error { color: #b00020; margin-bottom: 1rem; }
.narrative { max-width: 600px; line-height: 1.5; }
</style>
</head>
<body>
<div class="centered">
<h1 class="title">Life Expectancy Story</h1>
<form method="get" action="/story">
<label>Select a country:
<select name="country">
{{- range .Options.Countries}}
<option value="{{.}}"{{if eq . $.Selection.Country}} selected{{end}}>{{.}}</option>
{{- end}}
</select>
</label>
<fieldset>
<legend>Select a gender:</legend>
{{- range .Options.Genders}}
<label><input type="radio" name="gender" value="{{.}}"{{if eq . $.Selection.Gender}} checked{{end}}> {{.}}</label>
{{- end}}
</fieldset>
<label>Select your birth year:
<input type="number" name="year" min="{{.Options.MinYear}}" max="{{.Options.MaxYear}}" value="{{.Selection.Year}}">
</label>
<button type="submit">Create Story</button>
</form>
{{- if .Error}}
<p class="error">{{.Error}}</p>
{{- end}}
{{- if .Narrative}}
<p class="narrative">{{.Narrative.Text}}</p>
{{- end}}
{{- if .Embed}}
{{.Embed}}
<p><a href="{{.DownloadURL}}" download="{{.FileName}}">Download HTML</a></p>
{{- end}}
</div>
</body>
</html>
`))

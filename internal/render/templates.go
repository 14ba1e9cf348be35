package render

import "html/template"

var embedTemplate = template.Must(template.New("embed").Parse(
	`<div class="lifestory-embed" style="width: {{.Width}}px; height: {{.Height}}px;">
<vizzu-player id="{{.ID}}" controller style="width: {{.Width}}px; height: {{.Height}}px;"></vizzu-player>
<script type="module">
import VizzuPlayer from "{{.PlayerURL}}";
{{.Script}}</script>
</div>`))

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 0; padding: 1rem; }
.centered { display: flex; justify-content: center; align-items: center; flex-direction: column; text-align: center; width: 100%; }
.title { font-size: 2.5em; margin-top: 0; margin-bottom: 0.5em; }
.narrative { max-width: 600px; line-height: 1.5; }
</style>
</head>
<body>
<div class="centered">
<h1 class="title">Life Expectancy Story</h1>
{{- if .Narrative}}
<p class="narrative">{{.Narrative.Text}}</p>
{{- end}}
{{.Embed}}
</div>
</body>
</html>
`))

// Package render turns an assembled story into markup, a downloadable HTML
// document and static slide previews.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/ppiankov/lifestory/internal/dataset"
	"github.com/ppiankov/lifestory/internal/model"
	"github.com/ppiankov/lifestory/internal/story"
)

// MIMEType is the content type of RenderFile output
const MIMEType = "text/html"

const playerID = "lifestory-player"

// Renderer renders stories for the browser-side story player
type Renderer struct {
	width     int
	height    int
	playerURL string
}

// NewRenderer creates a renderer from configuration
func NewRenderer(cfg model.RenderConfig) *Renderer {
	return &Renderer{
		width:     cfg.Width,
		height:    cfg.Height,
		playerURL: cfg.PlayerURL,
	}
}

type embedView struct {
	ID        string
	Width     int
	Height    int
	PlayerURL string
	Script    template.JS
}

type documentView struct {
	Title     string
	Narrative *model.Narrative
	Embed     template.HTML
}

// RenderEmbed returns the inline markup for the story, sized to the
// configured width and height
func (r *Renderer) RenderEmbed(st *story.Story) (string, error) {
	script, err := storyScript(st)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = embedTemplate.Execute(&buf, embedView{
		ID:        playerID,
		Width:     r.width,
		Height:    r.height,
		PlayerURL: r.playerURL,
		Script:    template.JS(script),
	})
	if err != nil {
		return "", fmt.Errorf("render embed: %w", err)
	}
	return buf.String(), nil
}

// RenderFile returns a standalone HTML document for download
func (r *Renderer) RenderFile(st *story.Story) ([]byte, error) {
	embed, err := r.RenderEmbed(st)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = documentTemplate.Execute(&buf, documentView{
		Title:     "Life Expectancy Story - " + st.Selection.Country,
		Narrative: st.Narrative,
		Embed:     template.HTML(embed),
	})
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

// storyScript builds the player set-up code. Every value reaching the
// script is JSON-encoded.
func storyScript(st *story.Story) (string, error) {
	data, err := json.Marshal(vizzuData(st.Data))
	if err != nil {
		return "", fmt.Errorf("encode data: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "const data = %s;\n", data)
	b.WriteString("const slides = (presets) => [\n")
	for _, sl := range st.Slides {
		step, err := slideStep(sl)
		if err != nil {
			return "", fmt.Errorf("encode slide %d: %w", sl.Number, err)
		}
		fmt.Fprintf(&b, "  [%s],\n", step)
	}
	b.WriteString("];\n")

	fmt.Fprintf(&b, "const player = document.getElementById(%s);\n", mustJSON(playerID))
	b.WriteString("player.initializing.then((chart) => {\n")
	for _, f := range st.Features {
		fmt.Fprintf(&b, "  chart.feature(%s, %t);\n", mustJSON(f.Name), f.Enabled)
	}
	b.WriteString("  player.slides = { data: data, slides: slides(chart.constructor.presets) };\n")
	b.WriteString("});\n")
	return b.String(), nil
}

func slideStep(sl story.Slide) (string, error) {
	cfg, err := json.Marshal(sl.Config)
	if err != nil {
		return "", err
	}
	config := string(cfg)
	if sl.Config.Preset != "" {
		config = fmt.Sprintf("presets[%s](%s)", mustJSON(sl.Config.Preset), cfg)
	}

	step := fmt.Sprintf("{ filter: %s, config: %s", sl.Filter.JS(), config)
	if sl.Style != nil {
		style, err := json.Marshal(sl.Style)
		if err != nil {
			return "", err
		}
		step += fmt.Sprintf(", style: %s", style)
	}
	return step + " }", nil
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

type vizzuSeries struct {
	Name   string        `json:"name"`
	Type   string        `json:"type"`
	Values []interface{} `json:"values"`
}

type vizzuTable struct {
	Series []vizzuSeries `json:"series"`
}

// vizzuData lays the story rows out column-wise, one series per CSV column.
// Missing measure cells become null.
func vizzuData(ds *dataset.Dataset) vizzuTable {
	table := vizzuTable{Series: []vizzuSeries{}}
	if ds == nil {
		return table
	}
	rows := ds.Rows()
	for _, col := range ds.Columns() {
		s := vizzuSeries{Name: col.Name, Type: col.Kind.String(), Values: make([]interface{}, len(rows))}
		for i, r := range rows {
			if col.Kind == dataset.KindMeasure {
				if v, ok := r.Measure(col.Name); ok {
					s.Values[i] = v
				}
				continue
			}
			s.Values[i] = r.Dimension(col.Name)
		}
		table.Series = append(table.Series, s)
	}
	return table
}

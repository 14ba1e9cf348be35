// Package story turns a selection into the seven-slide life expectancy story.
package story

import (
	"github.com/ppiankov/lifestory/internal/dataset"
	"github.com/ppiankov/lifestory/internal/model"
	"github.com/ppiankov/lifestory/internal/query"
)

// FeatureTooltip shows values when hovering chart markers
const FeatureTooltip = "tooltip"

// Slide is one step of the story
type Slide struct {
	Number  int
	Name    string
	Filter  query.Predicate
	Config  model.ChartConfig
	Style   *model.Style // nil keeps renderer defaults
	Matches int          // rows selected by Filter; zero renders a blank slide
}

// Story is an assembled presentation. It is not modified after Build;
// WithNarrative returns a copy.
type Story struct {
	Selection model.Selection
	Derived   model.Derived
	Slides    []Slide
	Features  []model.Feature

	// Data holds every row at least one slide selects, in file order
	Data *dataset.Dataset

	Narrative *model.Narrative
}

// Assemble sequences slides in the given order and records the tooltip
// feature. Nothing is reordered, filtered or skipped.
func Assemble(slides []Slide, enableTooltip bool) *Story {
	out := make([]Slide, len(slides))
	copy(out, slides)
	return &Story{
		Slides:   out,
		Features: []model.Feature{{Name: FeatureTooltip, Enabled: enableTooltip}},
	}
}

// Feature reports whether the named feature is enabled
func (s *Story) Feature(name string) bool {
	for _, f := range s.Features {
		if f.Name == name {
			return f.Enabled
		}
	}
	return false
}

// Slide returns the slide with the given 1-based number
func (s *Story) Slide(number int) (Slide, bool) {
	for _, sl := range s.Slides {
		if sl.Number == number {
			return sl, true
		}
	}
	return Slide{}, false
}

// Rows returns the story rows a slide selects
func (s *Story) Rows(sl Slide) []dataset.Row {
	if s.Data == nil {
		return nil
	}
	all := s.Data.Rows()
	idx := sl.Filter.Filter(all)
	out := make([]dataset.Row, len(idx))
	for i, j := range idx {
		out[i] = all[j]
	}
	return out
}

// WithNarrative returns a copy of the story carrying n
func (s *Story) WithNarrative(n *model.Narrative) *Story {
	cp := *s
	cp.Narrative = n
	return &cp
}

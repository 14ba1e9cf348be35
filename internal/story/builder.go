package story

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/lifestory/internal/dataset"
	"github.com/ppiankov/lifestory/internal/logging"
	"github.com/ppiankov/lifestory/internal/model"
	"github.com/ppiankov/lifestory/internal/query"
)

// SelectionError reports a selection the dataset or the year bounds cannot
// satisfy. Unknown countries are reported as *dataset.NotFoundError.
type SelectionError struct {
	Field  string
	Value  string
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Builder builds stories for one configuration
type Builder struct {
	minYear int
	maxYear int
	tooltip bool
}

// NewBuilder creates a builder bounded by the configured year range
func NewBuilder(cfg model.SelectionConfig, tooltip bool) *Builder {
	return &Builder{
		minYear: cfg.MinYear,
		maxYear: cfg.MaxYear,
		tooltip: tooltip,
	}
}

// Validate checks a selection against the dataset and year bounds
func (b *Builder) Validate(ds *dataset.Dataset, sel model.Selection) error {
	if strings.TrimSpace(sel.Country) == "" {
		return &SelectionError{Field: "country", Value: sel.Country, Reason: "must not be empty"}
	}
	if sel.Year < b.minYear || sel.Year > b.maxYear {
		return &SelectionError{
			Field:  "year",
			Value:  strconv.Itoa(sel.Year),
			Reason: fmt.Sprintf("must be between %d and %d", b.minYear, b.maxYear),
		}
	}
	if !ds.Contains(dataset.FieldGender, sel.Gender) {
		return &SelectionError{
			Field:  "gender",
			Value:  sel.Gender,
			Reason: fmt.Sprintf("expected one of %s", strings.Join(ds.Genders(), ", ")),
		}
	}
	return nil
}

// Build validates the selection, resolves derived attributes and
// assembles the seven slides. A slide whose filter selects no rows is kept
// and renders blank.
func (b *Builder) Build(ds *dataset.Dataset, sel model.Selection) (*Story, error) {
	if err := b.Validate(ds, sel); err != nil {
		return nil, err
	}

	derived, err := ds.Resolve(sel.Country)
	if err != nil {
		return nil, fmt.Errorf("resolve selection: %w", err)
	}

	bind := newBindings(sel, derived)
	rows := ds.Rows()
	used := make([]bool, len(rows))

	slides := make([]Slide, 0, len(slideTable))
	for i, spec := range slideTable {
		sl, err := buildSlide(i+1, spec, bind)
		if err != nil {
			return nil, fmt.Errorf("build slide %d: %w", i+1, err)
		}

		matched := sl.Filter.Filter(rows)
		sl.Matches = len(matched)
		for _, j := range matched {
			used[j] = true
		}
		if sl.Matches == 0 {
			logging.Debugf("slide %d (%s) selects no rows for %s", sl.Number, sl.Name, sl.Filter)
		}
		slides = append(slides, sl)
	}

	var data []dataset.Row
	for i, ok := range used {
		if ok {
			data = append(data, rows[i])
		}
	}

	st := Assemble(slides, b.tooltip)
	st.Selection = sel
	st.Derived = derived
	st.Data = dataset.New(ds.Columns(), data)
	return st, nil
}

// bindings maps each filterable field and title placeholder to its value
// for one selection
type bindings struct {
	fields map[dataset.Field]string
	title  *strings.Replacer
}

func newBindings(sel model.Selection, d model.Derived) bindings {
	year := strconv.Itoa(sel.Year)
	return bindings{
		fields: map[dataset.Field]string{
			dataset.FieldCountry:   sel.Country,
			dataset.FieldGender:    sel.Gender,
			dataset.FieldYear:      year,
			dataset.FieldSubregion: d.Subregion,
			dataset.FieldContinent: d.Continent,
			dataset.FieldTitle:     TitleLifeExpectancy,
		},
		title: strings.NewReplacer(
			"{year}", year,
			"{code}", d.CountryCode,
			"{gender}", sel.Gender,
			"{subregion}", d.Subregion,
			"{continent}", d.Continent,
			"{country}", sel.Country,
		),
	}
}

func buildSlide(number int, spec slideSpec, bind bindings) (Slide, error) {
	var pred query.Predicate
	for _, f := range spec.filter {
		v, ok := bind.fields[f]
		if !ok {
			return Slide{}, fmt.Errorf("no selection value bound to %s", f)
		}
		pred = pred.And(f, v)
	}
	if err := pred.Err(); err != nil {
		return Slide{}, err
	}

	cfg := spec.config
	cfg.Title = bind.title.Replace(spec.config.Title)

	return Slide{
		Number: number,
		Name:   spec.name,
		Filter: pred,
		Config: cfg,
		Style:  makeStyle(spec.style, spec.palette),
	}, nil
}

package story

import (
	"github.com/ppiankov/lifestory/internal/dataset"
	"github.com/ppiankov/lifestory/internal/model"
)

const (
	// ValueColumn is the measure holding life expectancy (and current age)
	ValueColumn = "Life Expectancy"
	// PercentColumn keeps the dataset's own spelling
	PercentColumn = "Pecent"
	// TitleLifeExpectancy is the Title value of life expectancy rows
	TitleLifeExpectancy = "Life Expectancy"

	presetBar = "bar"
	sortValue = "byValue"
	palette   = "#FFD700 #1E90FF"
)

// Slide numbers, in presentation order
const (
	SlideAgeVsExpectancy = iota + 1
	SlideLifeCompleted
	SlideByGender
	SlideOverYears
	SlideSubregion
	SlideContinent
	SlideWorldwide
)

type styleKind int

const (
	styleNone   styleKind = iota
	styleNormal           // 9pt labels, no rotation
	styleDense            // smaller, angled x labels for many categories
)

// slideSpec declares one slide. Title placeholders: {year} {code}
// {gender} {subregion} {continent} {country}.
type slideSpec struct {
	name    string
	filter  []dataset.Field
	config  model.ChartConfig
	style   styleKind
	palette bool
}

var slideTable = []slideSpec{
	{
		name:   "age-vs-expectancy",
		filter: []dataset.Field{dataset.FieldYear, dataset.FieldCountry, dataset.FieldGender},
		config: model.ChartConfig{
			X:     ValueColumn,
			Y:     string(dataset.FieldTitle),
			Color: string(dataset.FieldTitle),
			Label: ValueColumn,
			Title: "Your Age Compared to Your Life Expectancy at Birth ({code})",
		},
		style:   styleNormal,
		palette: true,
	},
	{
		name:   "life-completed",
		filter: []dataset.Field{dataset.FieldYear, dataset.FieldCountry, dataset.FieldGender},
		config: model.ChartConfig{
			X:           string(dataset.FieldTitle),
			Y:           PercentColumn,
			CoordSystem: model.CoordPolar,
			Title:       "Percent of Your Life Completed",
		},
	},
	{
		name:   "by-gender",
		filter: []dataset.Field{dataset.FieldYear, dataset.FieldCountry, dataset.FieldTitle},
		config: model.ChartConfig{
			X:     ValueColumn,
			Y:     string(dataset.FieldGender),
			Color: string(dataset.FieldGender),
			Title: "Life Expectancy for Men and Women at birth in {year} ({code})",
		},
		style:   styleNormal,
		palette: true,
	},
	{
		name:   "over-years",
		filter: []dataset.Field{dataset.FieldCountry, dataset.FieldGender, dataset.FieldTitle},
		config: model.ChartConfig{
			Preset: presetBar,
			X:      string(dataset.FieldYear),
			Y:      ValueColumn,
			Color:  string(dataset.FieldYear),
			Title:  "Life Expectancy for {gender}s Over the Years ({code})",
		},
		style:   styleDense,
		palette: true,
	},
	{
		name:   "subregion",
		filter: []dataset.Field{dataset.FieldSubregion, dataset.FieldGender, dataset.FieldYear, dataset.FieldTitle},
		config: model.ChartConfig{
			Preset: presetBar,
			X:      string(dataset.FieldCountry),
			Y:      ValueColumn,
			Color:  string(dataset.FieldCountry),
			Label:  string(dataset.FieldISO3Code),
			Sort:   sortValue,
			Title:  "Life Expectancy in {subregion} for {gender}s ({year})",
		},
		style: styleDense,
	},
	{
		name:   "continent",
		filter: []dataset.Field{dataset.FieldContinent, dataset.FieldGender, dataset.FieldYear, dataset.FieldTitle},
		config: model.ChartConfig{
			Preset: presetBar,
			X:      string(dataset.FieldCountry),
			Y:      ValueColumn,
			Color:  string(dataset.FieldCountry),
			Sort:   sortValue,
			Title:  "Life Expectancy in {continent} for {gender}s ({year})",
		},
		style: styleDense,
	},
	{
		name:   "worldwide",
		filter: []dataset.Field{dataset.FieldGender, dataset.FieldYear, dataset.FieldTitle},
		config: model.ChartConfig{
			Preset: presetBar,
			X:      string(dataset.FieldCountry),
			Y:      ValueColumn,
			Color:  string(dataset.FieldCountry),
			Sort:   sortValue,
			Title:  "Life Expectancy Worldwide for {gender}s ({year})",
		},
		style: styleDense,
	},
}

func axis(fontSize, angle float64) *model.AxisStyle {
	return &model.AxisStyle{Label: model.LabelStyle{FontSize: fontSize, Angle: angle}}
}

// makeStyle returns a fresh style so slides never share mutable state
func makeStyle(kind styleKind, withPalette bool) *model.Style {
	var st *model.Style
	switch kind {
	case styleNormal:
		st = &model.Style{Plot: model.PlotStyle{XAxis: axis(9, 0), YAxis: axis(9, 0)}}
	case styleDense:
		st = &model.Style{Plot: model.PlotStyle{XAxis: axis(7.5, 2.0), YAxis: axis(9, 0)}}
	default:
		if !withPalette {
			return nil
		}
		st = &model.Style{}
	}
	if withPalette {
		st.Plot.Marker = &model.MarkerStyle{ColorPalette: palette}
	}
	return st
}

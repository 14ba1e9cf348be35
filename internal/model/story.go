package model

// Selection is the user's choice driving one story build
type Selection struct {
	Country string `json:"country"`
	Gender  string `json:"gender"`
	Year    int    `json:"year"`
}

// Derived holds attributes that depend on the selected country alone
type Derived struct {
	CountryCode string `json:"country_code"` // ISO3_code
	Subregion   string `json:"subregion"`
	Continent   string `json:"continent"`
	GType       string `json:"g_type"`
}

// CoordSystem names a chart coordinate system
type CoordSystem string

const (
	CoordCartesian CoordSystem = ""
	CoordPolar     CoordSystem = "polar"
)

// ChartConfig binds data channels for one slide.
// Preset selects a renderer preset (e.g. "bar"); empty means a plain config.
type ChartConfig struct {
	Preset      string      `json:"-"`
	X           string      `json:"x,omitempty"`
	Y           string      `json:"y,omitempty"`
	Color       string      `json:"color,omitempty"`
	Label       string      `json:"label,omitempty"`
	CoordSystem CoordSystem `json:"coordSystem,omitempty"`
	Sort        string      `json:"sort,omitempty"`
	Title       string      `json:"title"`
}

// Style holds per-slide style overrides
type Style struct {
	Plot PlotStyle `json:"plot"`
}

type PlotStyle struct {
	XAxis  *AxisStyle   `json:"xAxis,omitempty"`
	YAxis  *AxisStyle   `json:"yAxis,omitempty"`
	Marker *MarkerStyle `json:"marker,omitempty"`
}

type AxisStyle struct {
	Label LabelStyle `json:"label"`
}

type LabelStyle struct {
	FontSize float64 `json:"fontSize"`
	Angle    float64 `json:"angle"`
}

type MarkerStyle struct {
	ColorPalette string `json:"colorPalette"`
}

// Feature is a named presentation feature toggle (e.g. tooltip)
type Feature struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Narrative is an optional prose summary rendered above the story
type Narrative struct {
	Text     string   `json:"text"`
	Source   string   `json:"source"` // "facts" or the LLM provider name
	Model    string   `json:"model,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

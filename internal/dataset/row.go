// Package dataset loads the life expectancy table and answers lookups on it.
//
// A Dataset is immutable once loaded; it is safe to share between
// goroutines and is passed explicitly through the story pipeline.
package dataset

// Field names a text column of the row schema
type Field string

const (
	FieldCountry   Field = "Country"
	FieldISO3Code  Field = "ISO3_code"
	FieldSubregion Field = "Subregion"
	FieldContinent Field = "Continent"
	FieldGender    Field = "Gender"
	FieldGType     Field = "G_Type"
	FieldYear      Field = "Year"
	FieldTitle     Field = "Title"
)

// RequiredFields lists the columns every dataset must carry, in schema order
var RequiredFields = []Field{
	FieldCountry,
	FieldISO3Code,
	FieldSubregion,
	FieldContinent,
	FieldGender,
	FieldGType,
	FieldYear,
	FieldTitle,
}

// IsField reports whether f is part of the row schema
func IsField(f Field) bool {
	for _, rf := range RequiredFields {
		if rf == f {
			return true
		}
	}
	return false
}

// ColumnKind classifies a CSV column
type ColumnKind int

const (
	KindDimension ColumnKind = iota // text
	KindMeasure                     // numeric
)

func (k ColumnKind) String() string {
	if k == KindMeasure {
		return "measure"
	}
	return "dimension"
}

// Column describes one CSV column in header order
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Row is one record of the dataset.
// Year is kept as text so equality filters match the file verbatim.
type Row struct {
	Country   string `json:"country"`
	ISO3Code  string `json:"iso3_code"`
	Subregion string `json:"subregion"`
	Continent string `json:"continent"`
	Gender    string `json:"gender"`
	GType     string `json:"g_type"`
	Year      string `json:"year"`
	Title     string `json:"title"`

	Measures map[string]float64 `json:"measures,omitempty"` // empty cells are absent
	Extra    map[string]string  `json:"extra,omitempty"`    // non-schema text columns
}

// Get returns the value of a schema field
func (r Row) Get(f Field) (string, bool) {
	switch f {
	case FieldCountry:
		return r.Country, true
	case FieldISO3Code:
		return r.ISO3Code, true
	case FieldSubregion:
		return r.Subregion, true
	case FieldContinent:
		return r.Continent, true
	case FieldGender:
		return r.Gender, true
	case FieldGType:
		return r.GType, true
	case FieldYear:
		return r.Year, true
	case FieldTitle:
		return r.Title, true
	}
	return "", false
}

// Dimension returns any text column by name, schema or extra
func (r Row) Dimension(name string) string {
	if v, ok := r.Get(Field(name)); ok {
		return v
	}
	return r.Extra[name]
}

// Measure returns a numeric column by name
func (r Row) Measure(name string) (float64, bool) {
	v, ok := r.Measures[name]
	return v, ok
}

func (r *Row) set(name, value string) {
	switch Field(name) {
	case FieldCountry:
		r.Country = value
	case FieldISO3Code:
		r.ISO3Code = value
	case FieldSubregion:
		r.Subregion = value
	case FieldContinent:
		r.Continent = value
	case FieldGender:
		r.Gender = value
	case FieldGType:
		r.GType = value
	case FieldYear:
		r.Year = value
	case FieldTitle:
		r.Title = value
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[name] = value
	}
}

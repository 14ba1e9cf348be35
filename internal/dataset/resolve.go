package dataset

import (
	"fmt"

	"github.com/ppiankov/lifestory/internal/model"
)

// NotFoundError reports a selection value with no matching row
type NotFoundError struct {
	Field Field
	Value string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in dataset", e.Field, e.Value)
}

// Resolve derives the attributes that depend on the selected country,
// taking each from the first row recorded for it.
func (d *Dataset) Resolve(country string) (model.Derived, error) {
	for _, r := range d.rows {
		if r.Country != country {
			continue
		}
		return model.Derived{
			CountryCode: r.ISO3Code,
			Subregion:   r.Subregion,
			Continent:   r.Continent,
			GType:       r.GType,
		}, nil
	}
	return model.Derived{}, &NotFoundError{Field: FieldCountry, Value: country}
}

// Countries returns the distinct countries in file order
func (d *Dataset) Countries() []string {
	return d.distinct(FieldCountry)
}

// Genders returns the distinct genders in file order
func (d *Dataset) Genders() []string {
	return d.distinct(FieldGender)
}

// Contains reports whether any row has value in field
func (d *Dataset) Contains(f Field, value string) bool {
	for _, r := range d.rows {
		if v, _ := r.Get(f); v == value {
			return true
		}
	}
	return false
}

func (d *Dataset) distinct(f Field) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.rows {
		v, _ := r.Get(f)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

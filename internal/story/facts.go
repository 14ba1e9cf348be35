package story

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/lifestory/internal/dataset"
)

// Rank places the selected country among the countries of one slide
type Rank struct {
	Scope    string `json:"scope"` // subregion or continent name, or "worldwide"
	Position int    `json:"position"`
	Of       int    `json:"of"`
}

// YearValue is life expectancy for one birth year
type YearValue struct {
	Year  string  `json:"year"`
	Value float64 `json:"value"`
}

// Facts are the numbers behind a story, read from its slides
type Facts struct {
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Gender      string `json:"gender"`
	Year        int    `json:"year"`

	LifeExpectancy    float64 `json:"life_expectancy"`
	HasLifeExpectancy bool    `json:"has_life_expectancy"`

	ByGender map[string]float64 `json:"by_gender,omitempty"`
	First    *YearValue         `json:"first,omitempty"`
	Last     *YearValue         `json:"last,omitempty"`
	Ranks    []Rank             `json:"ranks,omitempty"`
}

// ComputeFacts extracts the narrative numbers from an assembled story
func ComputeFacts(st *Story) Facts {
	f := Facts{
		Country:     st.Selection.Country,
		CountryCode: st.Derived.CountryCode,
		Gender:      st.Selection.Gender,
		Year:        st.Selection.Year,
	}

	if sl, ok := st.Slide(SlideByGender); ok {
		for _, r := range st.Rows(sl) {
			if v, ok := r.Measure(ValueColumn); ok {
				if f.ByGender == nil {
					f.ByGender = make(map[string]float64)
				}
				f.ByGender[r.Gender] = v
			}
		}
		if v, ok := f.ByGender[f.Gender]; ok {
			f.LifeExpectancy = v
			f.HasLifeExpectancy = true
		}
	}

	if sl, ok := st.Slide(SlideOverYears); ok {
		var series []YearValue
		for _, r := range st.Rows(sl) {
			if v, ok := r.Measure(ValueColumn); ok {
				series = append(series, YearValue{Year: r.Year, Value: v})
			}
		}
		sort.SliceStable(series, func(i, j int) bool { return yearLess(series[i].Year, series[j].Year) })
		if len(series) > 0 {
			first, last := series[0], series[len(series)-1]
			f.First, f.Last = &first, &last
		}
	}

	scopes := []struct {
		slide int
		name  string
	}{
		{SlideSubregion, st.Derived.Subregion},
		{SlideContinent, st.Derived.Continent},
		{SlideWorldwide, "worldwide"},
	}
	for _, sc := range scopes {
		sl, ok := st.Slide(sc.slide)
		if !ok {
			continue
		}
		if rk, ok := rankOf(st.Rows(sl), f.Country, sc.name); ok {
			f.Ranks = append(f.Ranks, rk)
		}
	}

	return f
}

// rankOf ranks country by life expectancy, highest first. Ties share the
// better position.
func rankOf(rows []dataset.Row, country, scope string) (Rank, bool) {
	own, found := 0.0, false
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		v, ok := r.Measure(ValueColumn)
		if !ok {
			continue
		}
		values = append(values, v)
		if r.Country == country {
			own, found = v, true
		}
	}
	if !found {
		return Rank{}, false
	}

	pos := 1
	for _, v := range values {
		if v > own {
			pos++
		}
	}
	return Rank{Scope: scope, Position: pos, Of: len(values)}, true
}

func yearLess(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

// Summary renders the facts as a short deterministic paragraph
func (f Facts) Summary() string {
	who := strings.ToLower(f.Gender) + "s"
	if !f.HasLifeExpectancy {
		return fmt.Sprintf("No life expectancy is recorded for %s born in %d in %s.", who, f.Year, f.Country)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "For %s born in %s in %d, life expectancy at birth was %.1f years.",
		who, f.Country, f.Year, f.LifeExpectancy)

	if len(f.Ranks) > 0 {
		parts := make([]string, len(f.Ranks))
		for i, r := range f.Ranks {
			scope := "in " + r.Scope
			if r.Scope == "worldwide" {
				scope = r.Scope
			}
			parts[i] = fmt.Sprintf("%d of %d %s", r.Position, r.Of, scope)
		}
		fmt.Fprintf(&b, " That ranks %s.", joinList(parts))
	}

	if f.First != nil && f.Last != nil && f.First.Year != f.Last.Year {
		fmt.Fprintf(&b, " Between %s and %s it went from %.1f to %.1f years.",
			f.First.Year, f.Last.Year, f.First.Value, f.Last.Value)
	}

	return b.String()
}

func joinList(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

package story

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ppiankov/lifestory/internal/dataset"
	"github.com/ppiankov/lifestory/internal/model"
)

const fixture = "../dataset/testdata/Data.csv"

func loadFixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(fixture, "ISO-8859-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return ds
}

func testBuilder() *Builder {
	return NewBuilder(model.DefaultConfig().Selection, true)
}

func japan() model.Selection {
	return model.Selection{Country: "Japan", Gender: "Female", Year: 1980}
}

func TestBuild_JapanFemale1980(t *testing.T) {
	st, err := testBuilder().Build(loadFixture(t), japan())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if st.Derived.CountryCode != "JPN" {
		t.Errorf("expected JPN, got %s", st.Derived.CountryCode)
	}
	if len(st.Slides) != 7 {
		t.Fatalf("expected 7 slides, got %d", len(st.Slides))
	}

	sl, ok := st.Slide(SlideOverYears)
	if !ok {
		t.Fatal("slide 4 missing")
	}
	wantPred := "Country=='Japan' && Gender=='Female' && Title=='Life Expectancy'"
	if got := sl.Filter.String(); got != wantPred {
		t.Errorf("slide 4 predicate: expected %s, got %s", wantPred, got)
	}
	wantTitle := "Life Expectancy for Females Over the Years (JPN)"
	if sl.Config.Title != wantTitle {
		t.Errorf("slide 4 title: expected %q, got %q", wantTitle, sl.Config.Title)
	}
}

func TestBuild_SlideTable(t *testing.T) {
	st, err := testBuilder().Build(loadFixture(t), japan())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tests := []struct {
		number  int
		name    string
		pred    string
		title   string
		preset  string
		matches int
	}{
		{1, "age-vs-expectancy", "Year=='1980' && Country=='Japan' && Gender=='Female'",
			"Your Age Compared to Your Life Expectancy at Birth (JPN)", "", 2},
		{2, "life-completed", "Year=='1980' && Country=='Japan' && Gender=='Female'",
			"Percent of Your Life Completed", "", 2},
		{3, "by-gender", "Year=='1980' && Country=='Japan' && Title=='Life Expectancy'",
			"Life Expectancy for Men and Women at birth in 1980 (JPN)", "", 2},
		{4, "over-years", "Country=='Japan' && Gender=='Female' && Title=='Life Expectancy'",
			"Life Expectancy for Females Over the Years (JPN)", "bar", 2},
		{5, "subregion", "Subregion=='Eastern Asia' && Gender=='Female' && Year=='1980' && Title=='Life Expectancy'",
			"Life Expectancy in Eastern Asia for Females (1980)", "bar", 2},
		{6, "continent", "Continent=='Asia' && Gender=='Female' && Year=='1980' && Title=='Life Expectancy'",
			"Life Expectancy in Asia for Females (1980)", "bar", 2},
		{7, "worldwide", "Gender=='Female' && Year=='1980' && Title=='Life Expectancy'",
			"Life Expectancy Worldwide for Females (1980)", "bar", 5},
	}

	for i, tt := range tests {
		sl := st.Slides[i]
		if sl.Number != tt.number || sl.Name != tt.name {
			t.Errorf("slide %d: expected #%d %s, got #%d %s", i, tt.number, tt.name, sl.Number, sl.Name)
		}
		if got := sl.Filter.String(); got != tt.pred {
			t.Errorf("slide %d predicate: expected %s, got %s", tt.number, tt.pred, got)
		}
		if sl.Config.Title != tt.title {
			t.Errorf("slide %d title: expected %q, got %q", tt.number, tt.title, sl.Config.Title)
		}
		if sl.Config.Preset != tt.preset {
			t.Errorf("slide %d preset: expected %q, got %q", tt.number, tt.preset, sl.Config.Preset)
		}
		if sl.Matches != tt.matches {
			t.Errorf("slide %d matches: expected %d, got %d", tt.number, tt.matches, sl.Matches)
		}
	}

	if st.Slides[1].Config.CoordSystem != model.CoordPolar {
		t.Error("slide 2 should use polar coordinates")
	}
	if st.Slides[4].Config.Label != "ISO3_code" || st.Slides[4].Config.Sort != "byValue" {
		t.Errorf("slide 5 config: %+v", st.Slides[4].Config)
	}
}

func TestBuild_Styles(t *testing.T) {
	st, err := testBuilder().Build(loadFixture(t), japan())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if st.Slides[1].Style != nil {
		t.Error("slide 2 should keep renderer defaults")
	}
	for _, i := range []int{0, 2} {
		x := st.Slides[i].Style.Plot.XAxis.Label
		if x.FontSize != 9 || x.Angle != 0 {
			t.Errorf("slide %d: expected normal labels, got %+v", i+1, x)
		}
	}
	for i := 3; i < 7; i++ {
		x := st.Slides[i].Style.Plot.XAxis.Label
		if x.FontSize != 7.5 || x.Angle != 2.0 {
			t.Errorf("slide %d: expected dense labels, got %+v", i+1, x)
		}
	}
	for _, i := range []int{0, 2, 3} {
		m := st.Slides[i].Style.Plot.Marker
		if m == nil || m.ColorPalette != "#FFD700 #1E90FF" {
			t.Errorf("slide %d: expected two-colour palette, got %+v", i+1, m)
		}
	}
	if st.Slides[0].Style == st.Slides[2].Style {
		t.Error("slides share a style pointer")
	}
}

func TestBuild_PredicatesUseSchemaFields(t *testing.T) {
	ds := loadFixture(t)
	st, err := testBuilder().Build(ds, japan())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, sl := range st.Slides {
		if err := sl.Filter.Err(); err != nil {
			t.Errorf("slide %d: %v", sl.Number, err)
		}
		for _, f := range sl.Filter.Fields() {
			if !dataset.IsField(f) {
				t.Errorf("slide %d references %s outside the schema", sl.Number, f)
			}
		}
		_ = sl.Filter.Filter(ds.Rows())
	}
}

func TestBuild_Idempotent(t *testing.T) {
	ds := loadFixture(t)
	b := testBuilder()

	first, err := b.Build(ds, japan())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := b.Build(ds, japan())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical selections produced different stories")
	}
}

func TestBuild_YearBoundaries(t *testing.T) {
	ds := loadFixture(t)
	for _, year := range []int{1950, 2024} {
		sel := model.Selection{Country: "Japan", Gender: "Female", Year: year}
		st, err := testBuilder().Build(ds, sel)
		if err != nil {
			t.Fatalf("year %d: Build failed: %v", year, err)
		}
		if len(st.Slides) != 7 {
			t.Errorf("year %d: expected all 7 slides, got %d", year, len(st.Slides))
		}
		for _, sl := range st.Slides {
			if sl.Number == SlideOverYears {
				if sl.Matches != 2 {
					t.Errorf("year %d: trend slide should not depend on year, got %d rows", year, sl.Matches)
				}
				continue
			}
			if sl.Matches != 0 {
				t.Errorf("year %d: slide %d expected no rows, got %d", year, sl.Number, sl.Matches)
			}
		}
	}
}

func TestBuild_UnknownCountry(t *testing.T) {
	_, err := testBuilder().Build(loadFixture(t), model.Selection{Country: "Atlantis", Gender: "Female", Year: 1980})

	var nf *dataset.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *dataset.NotFoundError, got %v", err)
	}
}

func TestBuild_InvalidSelection(t *testing.T) {
	ds := loadFixture(t)
	tests := []struct {
		name  string
		sel   model.Selection
		field string
	}{
		{"empty country", model.Selection{Country: " ", Gender: "Female", Year: 1980}, "country"},
		{"year too early", model.Selection{Country: "Japan", Gender: "Female", Year: 1949}, "year"},
		{"year too late", model.Selection{Country: "Japan", Gender: "Female", Year: 2025}, "year"},
		{"unknown gender", model.Selection{Country: "Japan", Gender: "Other", Year: 1980}, "gender"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testBuilder().Build(ds, tt.sel)
			var se *SelectionError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SelectionError, got %v", err)
			}
			if se.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, se.Field)
			}
		})
	}
}

func TestBuild_QuotedCountry(t *testing.T) {
	sel := model.Selection{Country: "Côte d'Ivoire", Gender: "Male", Year: 1981}
	st, err := testBuilder().Build(loadFixture(t), sel)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	sl := st.Slides[0]
	if sl.Matches != 2 {
		t.Errorf("expected 2 rows for Côte d'Ivoire, got %d", sl.Matches)
	}
	want := `Year=='1981' && Country=='Côte d\'Ivoire' && Gender=='Male'`
	if got := sl.Filter.String(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestBuild_DataHoldsOnlySelectedRows(t *testing.T) {
	st, err := testBuilder().Build(loadFixture(t), japan())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if st.Data.Len() != 8 {
		t.Errorf("expected 8 rows in story data, got %d", st.Data.Len())
	}
	for _, r := range st.Data.Rows() {
		used := false
		for _, sl := range st.Slides {
			if sl.Filter.Match(r) {
				used = true
				break
			}
		}
		if !used {
			t.Errorf("row %+v is not used by any slide", r)
		}
	}
	for _, sl := range st.Slides {
		if got := len(st.Rows(sl)); got != sl.Matches {
			t.Errorf("slide %d: story data lost rows (%d of %d)", sl.Number, got, sl.Matches)
		}
	}
}

func TestAssemble_KeepsOrderAndTooltip(t *testing.T) {
	slides := []Slide{{Number: 3}, {Number: 1}, {Number: 2}}
	st := Assemble(slides, true)

	for i, want := range []int{3, 1, 2} {
		if st.Slides[i].Number != want {
			t.Errorf("position %d: expected slide %d, got %d", i, want, st.Slides[i].Number)
		}
	}
	if !st.Feature(FeatureTooltip) {
		t.Error("expected tooltip enabled")
	}
	if Assemble(nil, false).Feature(FeatureTooltip) {
		t.Error("expected tooltip disabled")
	}

	slides[0].Number = 99
	if st.Slides[0].Number == 99 {
		t.Error("Assemble must not alias the caller's slice")
	}
}

package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fixture = "testdata/Data.csv"

func TestLoad_Fixture(t *testing.T) {
	ds, err := Load(fixture, "ISO-8859-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if ds.Len() != 40 {
		t.Errorf("expected 40 rows, got %d", ds.Len())
	}

	measures := ds.Measures()
	if len(measures) != 2 || measures[0] != "Life Expectancy" || measures[1] != "Pecent" {
		t.Errorf("unexpected measures: %v", measures)
	}

	first := ds.Rows()[0]
	if first.Country != "Japan" || first.Year != "1980" || first.Title != "Life Expectancy" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if v, ok := first.Measure("Life Expectancy"); !ok || v != 78.8 {
		t.Errorf("expected life expectancy 78.8, got %v (%v)", v, ok)
	}
}

func TestLoad_DecodesLatin1(t *testing.T) {
	ds, err := Load(fixture, "ISO-8859-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	found := false
	for _, c := range ds.Countries() {
		if c == "Côte d'Ivoire" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected decoded Côte d'Ivoire in %v", ds.Countries())
	}
}

func TestParse_YearStaysText(t *testing.T) {
	csv := "Country,ISO3_code,Subregion,Continent,Gender,G_Type,Year,Title,Life Expectancy\n" +
		"Japan,JPN,Eastern Asia,Asia,Female,High income,01980,Life Expectancy,78.8\n"

	ds, err := Parse(strings.NewReader(csv), "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := ds.Rows()[0].Year; got != "01980" {
		t.Errorf("expected Year kept verbatim as 01980, got %q", got)
	}
	for _, c := range ds.Columns() {
		if c.Name == "Year" && c.Kind != KindDimension {
			t.Errorf("Year classified as %s", c.Kind)
		}
	}
}

func TestParse_ColumnClassification(t *testing.T) {
	csv := "Country,ISO3_code,Subregion,Continent,Gender,G_Type,Year,Title,Value,Note,Blank\n" +
		"Japan,JPN,Eastern Asia,Asia,Female,HI,1980,Life Expectancy,78.8,first,\n" +
		"Japan,JPN,Eastern Asia,Asia,Male,HI,1980,Life Expectancy,,second,\n"

	ds, err := Parse(strings.NewReader(csv), "UTF-8")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	kinds := map[string]ColumnKind{}
	for _, c := range ds.Columns() {
		kinds[c.Name] = c.Kind
	}
	if kinds["Value"] != KindMeasure {
		t.Error("expected Value to be a measure")
	}
	if kinds["Note"] != KindDimension || kinds["Blank"] != KindDimension {
		t.Error("expected Note and Blank to stay text")
	}

	second := ds.Rows()[1]
	if _, ok := second.Measure("Value"); ok {
		t.Error("expected empty measure cell to be absent")
	}
	if second.Dimension("Note") != "second" {
		t.Errorf("expected extra column value, got %q", second.Dimension("Note"))
	}
}

func TestParse_StripsBOM(t *testing.T) {
	csv := "\ufeffCountry,ISO3_code,Subregion,Continent,Gender,G_Type,Year,Title\n" +
		"Japan,JPN,Eastern Asia,Asia,Female,HI,1980,Age\n"
	if _, err := Parse(strings.NewReader(csv), ""); err != nil {
		t.Fatalf("expected BOM to be stripped, got %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name     string
		path     string
		encoding string
		want     string
	}{
		{"missing file", filepath.Join(dir, "nope.csv"), "", "no such file"},
		{"empty file", write("empty.csv", ""), "", "empty file"},
		{"missing columns", write("cols.csv", "Country,Year\nJapan,1980\n"), "", "missing required columns"},
		{"ragged row", write("ragged.csv", "Country,ISO3_code,Subregion,Continent,Gender,G_Type,Year,Title\nJapan,JPN\n"), "", "read records"},
		{"duplicate column", write("dup.csv", "Country,Country\n"), "", "duplicate column"},
		{"unknown encoding", fixture, "klingon", "encoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path, tt.encoding)
			if err == nil {
				t.Fatal("expected error")
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %T", err)
			}
			if le.Path != tt.path {
				t.Errorf("expected path %q on error, got %q", tt.path, le.Path)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

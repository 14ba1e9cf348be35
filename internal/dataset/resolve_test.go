package dataset

import (
	"errors"
	"testing"
)

func loadFixture(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Load(fixture, "ISO-8859-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return ds
}

func TestResolve_EveryCountryMatchesRecordedValues(t *testing.T) {
	ds := loadFixture(t)

	for _, country := range ds.Countries() {
		got, err := ds.Resolve(country)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", country, err)
		}
		for _, r := range ds.Rows() {
			if r.Country != country {
				continue
			}
			if r.ISO3Code != got.CountryCode || r.Subregion != got.Subregion || r.Continent != got.Continent {
				t.Errorf("%s: resolved %+v disagrees with row %+v", country, got, r)
			}
		}
	}
}

func TestResolve_Japan(t *testing.T) {
	ds := loadFixture(t)

	got, err := ds.Resolve("Japan")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.CountryCode != "JPN" || got.Subregion != "Eastern Asia" || got.Continent != "Asia" || got.GType != "High income" {
		t.Errorf("unexpected derived attributes: %+v", got)
	}
}

func TestResolve_UnknownCountry(t *testing.T) {
	ds := loadFixture(t)

	_, err := ds.Resolve("Atlantis")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if nf.Field != FieldCountry || nf.Value != "Atlantis" {
		t.Errorf("unexpected error fields: %+v", nf)
	}
	if err.Error() != `Country "Atlantis" not found in dataset` {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestCountriesAndGenders_FileOrder(t *testing.T) {
	ds := loadFixture(t)

	countries := ds.Countries()
	want := []string{"Japan", "China", "France", "Côte d'Ivoire", "Ghana"}
	if len(countries) != len(want) {
		t.Fatalf("expected %d countries, got %v", len(want), countries)
	}
	for i := range want {
		if countries[i] != want[i] {
			t.Errorf("country %d: expected %s, got %s", i, want[i], countries[i])
		}
	}

	genders := ds.Genders()
	if len(genders) != 2 || genders[0] != "Female" || genders[1] != "Male" {
		t.Errorf("unexpected genders: %v", genders)
	}

	if !ds.Contains(FieldGender, "Male") || ds.Contains(FieldGender, "Other") {
		t.Error("Contains disagrees with the fixture")
	}
}

package catalog

import "strconv"

// Spec names one browsable catalog and owns its closed release-date window.
// Windows are calendar-date granular, inclusive on both ends, and disjoint
// across catalogs so "by decade" browsing stays meaningful.
type Spec struct {
	ID   string
	Name string
	GTE  string // earliest primary release date, "YYYY-MM-DD"
	LTE  string // latest primary release date, "YYYY-MM-DD"
}

var specs = []Spec{
	{ID: "movies-1970s", Name: "1970s Movies", GTE: "1970-01-01", LTE: "1979-12-31"},
	{ID: "movies-1980s", Name: "1980s Movies", GTE: "1980-01-01", LTE: "1989-12-31"},
	{ID: "movies-1990s", Name: "1990s Movies", GTE: "1990-01-01", LTE: "1999-12-31"},
	{ID: "movies-2000s", Name: "2000s Movies", GTE: "2000-01-01", LTE: "2009-12-31"},
	{ID: "movies-2010s", Name: "2010s Movies", GTE: "2010-01-01", LTE: "2019-12-31"},
	{ID: "movies-2020s", Name: "2020s Movies", GTE: "2020-01-01", LTE: "2029-12-31"},
}

// Catalogs returns every supported catalog in display order.
func Catalogs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Lookup resolves a catalog identifier. Unknown identifiers are not an
// error; callers degrade to an empty listing.
func Lookup(id string) (Spec, bool) {
	for _, s := range specs {
		if s.ID == id {
			return s, true
		}
	}
	return Spec{}, false
}

// ContainsYear reports whether a release year falls inside the window.
func (s Spec) ContainsYear(year int) bool {
	gte, _ := strconv.Atoi(s.GTE[:4])
	lte, _ := strconv.Atoi(s.LTE[:4])
	return year >= gte && year <= lte
}

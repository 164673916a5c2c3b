package catalog

// Static lookup tables for caller filter vocabulary. Both fall back to
// "no match, omit the filter" instead of faulting on unknown input.

// genreIDs maps genre labels to TMDB's numeric genre taxonomy.
var genreIDs = map[string]string{
	"action":      "28",
	"adventure":   "12",
	"animation":   "16",
	"comedy":      "35",
	"crime":       "80",
	"documentary": "99",
	"drama":       "18",
	"family":      "10751",
	"fantasy":     "14",
	"history":     "36",
	"horror":      "27",
	"music":       "10402",
	"mystery":     "9648",
	"romance":     "10749",
	"sci-fi":      "878",
	"thriller":    "53",
	"war":         "10752",
	"western":     "37",
}

// genreParam resolves a genre label to its TMDB id, "" when unrecognized
// so the gateway drops the filter entirely.
func genreParam(label string) string {
	return genreIDs[label]
}

// Genres returns the supported genre labels in stable order for the manifest.
func Genres() []string {
	return []string{
		"action", "adventure", "animation", "comedy", "crime", "documentary",
		"drama", "family", "fantasy", "history", "horror", "music", "mystery",
		"romance", "sci-fi", "thriller", "war", "western",
	}
}

// sortKeys maps caller sort preferences to TMDB discover sort keys.
var sortKeys = map[string]string{
	"popularity": "popularity.desc",
	"rating":     "vote_average.desc",
	"release":    "primary_release_date.desc",
}

// SortOptions returns the caller-facing sort vocabulary.
func SortOptions() []string {
	return []string{"popularity", "rating", "release"}
}

// sortParam resolves a sort preference, defaulting to popularity-descending
// when absent or unrecognized.
func sortParam(pref string) string {
	if key, ok := sortKeys[pref]; ok {
		return key
	}
	return sortKeys["popularity"]
}

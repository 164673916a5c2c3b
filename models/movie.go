package models

import (
	"fmt"
	"strconv"
)

const (
	tmdbImageBase   = "https://image.tmdb.org/t/p/"
	PosterImageSize = "w500"
	BackImageSize   = "w780"
)

// MoviePreview is the listing-row shape returned for catalog browses.
// Rating is pre-formatted to one decimal place and omitted when the
// upstream never rated the title.
type MoviePreview struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Poster      string `json:"poster,omitempty"`
	Background  string `json:"background,omitempty"`
	ReleaseInfo string `json:"releaseInfo,omitempty"`
	Description string `json:"description,omitempty"`
	IMDBRating  string `json:"imdbRating,omitempty"`
}

// MovieDetail is the full record for a single-item lookup. It is a
// superset of MoviePreview plus runtime, genres and at most one trailer.
type MovieDetail struct {
	MoviePreview
	Runtime  string    `json:"runtime,omitempty"`
	Genres   []string  `json:"genres,omitempty"`
	Trailers []Trailer `json:"trailers,omitempty"`
}

// Trailer references one hosted video for a title.
type Trailer struct {
	Source string `json:"source"`
	Name   string `json:"name,omitempty"`
	Site   string `json:"site,omitempty"`
}

// ImageURL builds a full image URL from an upstream-relative path.
// An empty path yields an empty URL; there is no placeholder image.
func ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return tmdbImageBase + size + path
}

// FormatRating renders a vote average with exactly one fractional digit.
// A zero average means the upstream never rated the title and yields "".
func FormatRating(voteAverage float64) string {
	if voteAverage <= 0 {
		return ""
	}
	return strconv.FormatFloat(voteAverage, 'f', 1, 64)
}

// FormatRuntime renders a runtime in minutes as "N min", empty when unknown.
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	return fmt.Sprintf("%d min", minutes)
}

// ReleaseYear extracts the 4-digit year from an upstream release date
// ("2006-05-19"). Returns "" when the date has no parseable year.
func ReleaseYear(releaseDate string) string {
	if len(releaseDate) < 4 {
		return ""
	}
	year := releaseDate[:4]
	if _, err := strconv.Atoi(year); err != nil {
		return ""
	}
	return year
}

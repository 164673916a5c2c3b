package catalog

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"decadebox/metrics"
	"decadebox/models"
	"decadebox/services/tmdb"
)

// Strategy selects how a listing request is translated into upstream pages.
type Strategy string

const (
	// StrategyBulk prefetches several upstream pages, merges them and
	// re-sorts the combined set by rating. The caller's pagination cursor
	// is ignored; the full capped batch is returned at once.
	StrategyBulk Strategy = "bulk"
	// StrategyLive fetches exactly one upstream page, mapped from the
	// caller's skip/limit cursor.
	StrategyLive Strategy = "live"
)

const (
	idPrefix         = "tmdb:"
	maxPrefetchPages = 10
	minVoteCount     = 100
	defaultLimit     = 50
	maxLimit         = 100
	trailerSite      = "YouTube"
	unavailableName  = "Unavailable"
)

// ListingQuery is the caller-supplied filter set for a catalog browse.
// Zero values mean "not provided".
type ListingQuery struct {
	Search string
	Genre  string
	Sort   string
	Skip   int
	Limit  int
}

// DetailOutcome wraps a detail lookup result. Degraded marks a placeholder
// produced after a failed lookup; the Meta inside is always structurally
// valid either way.
type DetailOutcome struct {
	Meta     models.MovieDetail
	Degraded bool
}

type gateway interface {
	Call(ctx context.Context, path string, params map[string]string, dst interface{}) error
}

// Service resolves catalog listings and item details against the TMDB
// gateway. It holds no mutable state; every request is independent.
type Service struct {
	client          gateway
	strategy        Strategy
	prefetchWorkers int
}

func NewService(client gateway, strategy Strategy, prefetchWorkers int) *Service {
	if strategy != StrategyBulk {
		strategy = StrategyLive
	}
	if prefetchWorkers < 1 {
		prefetchWorkers = 1
	}
	return &Service{client: client, strategy: strategy, prefetchWorkers: prefetchWorkers}
}

// List resolves one catalog browse. Unknown catalogs and every failure
// path resolve to an empty listing with a logged diagnostic; listing
// requests never surface errors to the caller.
func (s *Service) List(ctx context.Context, catalogID string, q ListingQuery) []models.MoviePreview {
	spec, ok := Lookup(catalogID)
	if !ok {
		log.Printf("[catalog] unknown catalog %q, returning empty listing", catalogID)
		return []models.MoviePreview{}
	}

	var (
		raws []tmdb.Movie
		err  error
	)
	if s.strategy == StrategyBulk {
		raws, err = s.bulkFetch(ctx, spec, q)
	} else {
		raws, err = s.liveFetch(ctx, spec, q)
	}
	if err != nil {
		log.Printf("[catalog] listing %s failed: %v", catalogID, err)
		return []models.MoviePreview{}
	}

	previews := make([]models.MoviePreview, 0, len(raws))
	for _, m := range raws {
		if m.Title == "" {
			continue
		}
		previews = append(previews, toPreview(m))
	}
	metrics.CatalogListingsTotal.WithLabelValues(catalogID, string(s.strategy)).Inc()
	return previews
}

// bulkFetch gathers up to maxPrefetchPages upstream pages, stops at the
// first empty page, then re-sorts the merged set by rating descending.
// The global re-sort is mandatory: upstream per-page ordering drifts
// across pages on ties.
func (s *Service) bulkFetch(ctx context.Context, spec Spec, q ListingQuery) ([]tmdb.Movie, error) {
	pages := make([][]tmdb.Movie, maxPrefetchPages)
	fetched := make([]int, maxPrefetchPages)

	if s.prefetchWorkers > 1 {
		p := pool.New().WithMaxGoroutines(s.prefetchWorkers).WithContext(ctx)
		for i := 0; i < maxPrefetchPages; i++ {
			i := i
			p.Go(func(ctx context.Context) error {
				batch, raw, err := s.fetchListingPage(ctx, spec, q, i+1, true)
				if err != nil {
					return err
				}
				pages[i] = batch
				fetched[i] = raw
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := 0; i < maxPrefetchPages; i++ {
			batch, raw, err := s.fetchListingPage(ctx, spec, q, i+1, true)
			if err != nil {
				return nil, err
			}
			if raw == 0 {
				break
			}
			pages[i] = batch
			fetched[i] = raw
		}
	}

	var merged []tmdb.Movie
	for i, batch := range pages {
		// Exhaustion means the upstream page itself came back empty.
		// A search page may filter down to zero in-window results and
		// still have in-window records on later pages, so the filtered
		// batch size must not be the stop signal.
		if fetched[i] == 0 {
			// Later pages are discarded even if the concurrent path
			// already fetched them.
			break
		}
		merged = append(merged, batch...)
	}
	sortByRating(merged)
	return merged, nil
}

// liveFetch converts the caller's skip/limit cursor into a single upstream
// page number and fetches exactly that page.
func (s *Service) liveFetch(ctx context.Context, spec Spec, q ListingQuery) ([]tmdb.Movie, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	skip := q.Skip
	if skip < 0 {
		skip = 0
	}
	page := skip/limit + 1
	batch, _, err := s.fetchListingPage(ctx, spec, q, page, false)
	return batch, err
}

// fetchListingPage fetches one upstream page for a listing. A search query
// switches to the free-text search endpoint, which cannot constrain by
// date range, so out-of-window results are discarded after the fetch.
// The bulk strategy pins the upstream sort to rating and applies the
// statistical vote-count floor. The second return value is the raw
// upstream record count before any post-fetch filtering; zero means the
// upstream page itself was empty.
func (s *Service) fetchListingPage(ctx context.Context, spec Spec, q ListingQuery, page int, bulk bool) ([]tmdb.Movie, int, error) {
	if q.Search != "" {
		return s.searchPage(ctx, spec, q.Search, page)
	}

	params := map[string]string{
		"primary_release_date.gte": spec.GTE,
		"primary_release_date.lte": spec.LTE,
		"with_genres":              genreParam(q.Genre),
		"page":                     strconv.Itoa(page),
	}
	if bulk {
		params["sort_by"] = sortKeys["rating"]
		params["vote_count.gte"] = strconv.Itoa(minVoteCount)
	} else {
		params["sort_by"] = sortParam(q.Sort)
	}

	var resp tmdb.MoviePage
	if err := s.client.Call(ctx, "/discover/movie", params, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Results, len(resp.Results), nil
}

func (s *Service) searchPage(ctx context.Context, spec Spec, query string, page int) ([]tmdb.Movie, int, error) {
	params := map[string]string{
		"query": query,
		"page":  strconv.Itoa(page),
	}
	var resp tmdb.MoviePage
	if err := s.client.Call(ctx, "/search/movie", params, &resp); err != nil {
		return nil, 0, err
	}

	kept := make([]tmdb.Movie, 0, len(resp.Results))
	for _, m := range resp.Results {
		yearStr := models.ReleaseYear(m.ReleaseDate)
		if yearStr == "" {
			// No parseable release year means the window cannot be
			// checked; the record is discarded.
			continue
		}
		year, _ := strconv.Atoi(yearStr)
		if spec.ContainsYear(year) {
			kept = append(kept, m)
		}
	}
	return kept, len(resp.Results), nil
}

// Detail resolves one item lookup. Every failure path resolves to a
// degraded placeholder carrying the original identifier; detail requests
// never surface errors to the caller.
func (s *Service) Detail(ctx context.Context, itemID string) DetailOutcome {
	nativeID := strings.TrimPrefix(itemID, idPrefix)

	var details tmdb.MovieDetails
	if err := s.client.Call(ctx, "/movie/"+nativeID, nil, &details); err != nil {
		log.Printf("[catalog] detail lookup %s failed: %v", itemID, err)
		return degradedDetail(itemID)
	}
	if details.Title == "" {
		log.Printf("[catalog] detail lookup %s returned no title", itemID)
		return degradedDetail(itemID)
	}

	meta := toDetail(details)

	// Best effort: a failed video lookup means "no trailers", not a
	// failed detail.
	var videos tmdb.VideoList
	if err := s.client.Call(ctx, "/movie/"+nativeID+"/videos", nil, &videos); err != nil {
		log.Printf("[catalog] trailer lookup %s failed: %v", itemID, err)
	} else if trailer, ok := pickTrailer(videos.Results); ok {
		meta.Trailers = []models.Trailer{trailer}
	}

	return DetailOutcome{Meta: meta}
}

// pickTrailer selects the first video, in upstream order, that is a
// YouTube-hosted trailer.
func pickTrailer(videos []tmdb.Video) (models.Trailer, bool) {
	for _, v := range videos {
		if v.Type == "Trailer" && v.Site == trailerSite {
			return models.Trailer{Source: v.Key, Name: v.Name, Site: v.Site}, true
		}
	}
	return models.Trailer{}, false
}

// sortByRating orders by rating descending. Unrated entries carry a zero
// vote average and sort last; ties keep upstream order undefined.
func sortByRating(movies []tmdb.Movie) {
	sort.Slice(movies, func(i, j int) bool {
		return movies[i].VoteAverage > movies[j].VoteAverage
	})
}

func degradedDetail(itemID string) DetailOutcome {
	return DetailOutcome{
		Meta: models.MovieDetail{
			MoviePreview: models.MoviePreview{
				ID:   itemID,
				Type: "movie",
				Name: unavailableName,
			},
		},
		Degraded: true,
	}
}

func toPreview(m tmdb.Movie) models.MoviePreview {
	return models.MoviePreview{
		ID:          fmt.Sprintf("%s%d", idPrefix, m.ID),
		Type:        "movie",
		Name:        m.Title,
		Poster:      models.ImageURL(m.PosterPath, models.PosterImageSize),
		Background:  models.ImageURL(m.BackdropPath, models.BackImageSize),
		ReleaseInfo: models.ReleaseYear(m.ReleaseDate),
		Description: m.Overview,
		IMDBRating:  models.FormatRating(m.VoteAverage),
	}
}

func toDetail(d tmdb.MovieDetails) models.MovieDetail {
	genres := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, g.Name)
	}
	return models.MovieDetail{
		MoviePreview: models.MoviePreview{
			ID:          fmt.Sprintf("%s%d", idPrefix, d.ID),
			Type:        "movie",
			Name:        d.Title,
			Poster:      models.ImageURL(d.PosterPath, models.PosterImageSize),
			Background:  models.ImageURL(d.BackdropPath, models.BackImageSize),
			ReleaseInfo: models.ReleaseYear(d.ReleaseDate),
			Description: d.Overview,
			IMDBRating:  models.FormatRating(d.VoteAverage),
		},
		Runtime: models.FormatRuntime(d.Runtime),
		Genres:  genres,
	}
}

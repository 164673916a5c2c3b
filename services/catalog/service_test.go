package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"decadebox/services/tmdb"
)

// fakeGateway records calls and serves canned responses per path.
type fakeGateway struct {
	calls   []gatewayCall
	handler func(call gatewayCall, dst interface{}) error
}

type gatewayCall struct {
	path   string
	params map[string]string
}

func (g *fakeGateway) Call(_ context.Context, path string, params map[string]string, dst interface{}) error {
	call := gatewayCall{path: path, params: params}
	g.calls = append(g.calls, call)
	return g.handler(call, dst)
}

func servePage(dst interface{}, movies ...tmdb.Movie) error {
	page, ok := dst.(*tmdb.MoviePage)
	if !ok {
		return fmt.Errorf("unexpected destination type %T", dst)
	}
	page.Results = movies
	return nil
}

func movie(id int64, title, releaseDate string, rating float64) tmdb.Movie {
	return tmdb.Movie{ID: id, Title: title, ReleaseDate: releaseDate, VoteAverage: rating, VoteCount: 500}
}

func TestListUnknownCatalogReturnsEmptyWithoutUpstreamCall(t *testing.T) {
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		t.Fatalf("unexpected upstream call to %s", call.path)
		return nil
	}}
	svc := NewService(gw, StrategyLive, 1)

	metas := svc.List(context.Background(), "movies-1850s", ListingQuery{})
	if metas == nil || len(metas) != 0 {
		t.Fatalf("expected empty non-nil listing, got %v", metas)
	}
}

func TestListUpstreamFailureDegradesToEmptyListing(t *testing.T) {
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		return &tmdb.UpstreamError{Status: 503, Body: "upstream down"}
	}}
	svc := NewService(gw, StrategyLive, 1)

	metas := svc.List(context.Background(), "movies-1990s", ListingQuery{})
	if len(metas) != 0 {
		t.Fatalf("expected empty listing on upstream failure, got %d items", len(metas))
	}
}

func TestLivePaginationConversion(t *testing.T) {
	tests := []struct {
		skip, limit int
		wantPage    string
	}{
		{skip: 0, limit: 50, wantPage: "1"},
		{skip: 50, limit: 50, wantPage: "2"},
		{skip: 120, limit: 40, wantPage: "4"},
		{skip: 0, limit: 0, wantPage: "1"},    // limit defaults to 50
		{skip: 500, limit: 0, wantPage: "11"}, // default limit applies to the conversion
		{skip: 200, limit: 999, wantPage: "3"}, // limit clamps to 100
	}
	for _, tc := range tests {
		gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
			return servePage(dst)
		}}
		svc := NewService(gw, StrategyLive, 1)

		svc.List(context.Background(), "movies-1990s", ListingQuery{Skip: tc.skip, Limit: tc.limit})

		if len(gw.calls) != 1 {
			t.Fatalf("skip=%d limit=%d: expected exactly one upstream page fetch, got %d", tc.skip, tc.limit, len(gw.calls))
		}
		if got := gw.calls[0].params["page"]; got != tc.wantPage {
			t.Fatalf("skip=%d limit=%d: expected page %s, got %s", tc.skip, tc.limit, tc.wantPage, got)
		}
	}
}

func TestLiveDiscoverParams(t *testing.T) {
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		return servePage(dst)
	}}
	svc := NewService(gw, StrategyLive, 1)

	svc.List(context.Background(), "movies-2000s", ListingQuery{Genre: "horror", Sort: "rating"})

	call := gw.calls[0]
	if call.path != "/discover/movie" {
		t.Fatalf("expected discover endpoint, got %s", call.path)
	}
	if call.params["primary_release_date.gte"] != "2000-01-01" || call.params["primary_release_date.lte"] != "2009-12-31" {
		t.Fatalf("unexpected date window params: %v", call.params)
	}
	if call.params["with_genres"] != "27" {
		t.Fatalf("expected horror to map to genre id 27, got %q", call.params["with_genres"])
	}
	if call.params["sort_by"] != "vote_average.desc" {
		t.Fatalf("expected rating sort key, got %q", call.params["sort_by"])
	}
}

func TestLiveUnknownGenreOmitsFilter(t *testing.T) {
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		return servePage(dst)
	}}
	svc := NewService(gw, StrategyLive, 1)

	svc.List(context.Background(), "movies-2000s", ListingQuery{Genre: "noir"})

	if got := gw.calls[0].params["with_genres"]; got != "" {
		t.Fatalf("expected unrecognized genre to be omitted, got %q", got)
	}
	if got := gw.calls[0].params["sort_by"]; got != "popularity.desc" {
		t.Fatalf("expected default popularity sort, got %q", got)
	}
}

func TestSearchFiltersByCatalogWindow(t *testing.T) {
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		if call.path != "/search/movie" {
			t.Fatalf("expected search endpoint for free-text query, got %s", call.path)
		}
		if call.params["query"] != "alien" {
			t.Fatalf("expected search query to be forwarded, got %q", call.params["query"])
		}
		return servePage(dst,
			movie(1, "Alien", "1979-05-25", 8.5),
			movie(2, "Aliens", "1986-07-18", 8.4),
			movie(3, "Alien: Resurrection", "1997-11-26", 6.2),
			tmdb.Movie{ID: 4, Title: "Alien Undated", VoteAverage: 7.0},
		)
	}}
	svc := NewService(gw, StrategyLive, 1)

	metas := svc.List(context.Background(), "movies-1990s", ListingQuery{Search: "alien"})

	if len(metas) != 1 {
		t.Fatalf("expected only the in-window result, got %d", len(metas))
	}
	if metas[0].ID != "tmdb:3" {
		t.Fatalf("expected tmdb:3, got %s", metas[0].ID)
	}
	if metas[0].ReleaseInfo != "1997" {
		t.Fatalf("expected release year 1997, got %q", metas[0].ReleaseInfo)
	}
}

func TestBulkPrefetchMergesAndResorts(t *testing.T) {
	// Three non-empty pages with locally inconsistent ordering, then an
	// empty page; later pages must never be requested.
	pages := map[string][]tmdb.Movie{
		"1": {movie(1, "A", "1991-01-01", 8.1), movie(2, "B", "1992-01-01", 8.9)},
		"2": {movie(3, "C", "1993-01-01", 9.2), tmdb.Movie{ID: 4, Title: "Unrated", ReleaseDate: "1994-01-01"}},
		"3": {movie(5, "E", "1995-01-01", 7.4)},
		"4": {},
	}
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		if call.params["vote_count.gte"] != strconv.Itoa(minVoteCount) {
			t.Fatalf("expected vote count floor %d, got %q", minVoteCount, call.params["vote_count.gte"])
		}
		if call.params["sort_by"] != "vote_average.desc" {
			t.Fatalf("expected bulk fetch to sort by rating upstream, got %q", call.params["sort_by"])
		}
		return servePage(dst, pages[call.params["page"]]...)
	}}
	svc := NewService(gw, StrategyBulk, 1)

	// The caller's cursor is ignored in bulk mode.
	metas := svc.List(context.Background(), "movies-1990s", ListingQuery{Skip: 100, Limit: 10})

	if len(gw.calls) != 4 {
		t.Fatalf("expected fetching to stop at the first empty page (4 calls), got %d", len(gw.calls))
	}
	if len(metas) != 5 {
		t.Fatalf("expected all 5 merged records, got %d", len(metas))
	}

	wantOrder := []string{"tmdb:3", "tmdb:2", "tmdb:1", "tmdb:5", "tmdb:4"}
	for i, want := range wantOrder {
		if metas[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, metas[i].ID)
		}
	}

	// Ratings monotonically non-increasing, unrated last.
	prev := 11.0
	for _, m := range metas {
		rating := 0.0
		if m.IMDBRating != "" {
			rating, _ = strconv.ParseFloat(m.IMDBRating, 64)
		}
		if rating > prev {
			t.Fatalf("ratings not monotonically non-increasing: %v", metas)
		}
		prev = rating
	}
	if metas[len(metas)-1].IMDBRating != "" {
		t.Fatalf("expected the unrated record last, got rating %q", metas[len(metas)-1].IMDBRating)
	}
}

func TestBulkSearchKeepsFetchingPastFullyFilteredPages(t *testing.T) {
	// Page 1 has raw results that all fall outside the 1990s window;
	// that is not upstream exhaustion, so page 2's in-window result must
	// still be fetched. Page 3 is the genuinely empty page.
	pages := map[string][]tmdb.Movie{
		"1": {movie(1, "Alien", "1979-05-25", 8.5), movie(2, "Aliens", "1986-07-18", 8.4)},
		"2": {movie(3, "Alien: Resurrection", "1997-11-26", 6.2)},
		"3": {},
	}
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		if call.path != "/search/movie" {
			t.Fatalf("expected search endpoint, got %s", call.path)
		}
		return servePage(dst, pages[call.params["page"]]...)
	}}
	svc := NewService(gw, StrategyBulk, 1)

	metas := svc.List(context.Background(), "movies-1990s", ListingQuery{Search: "alien"})

	if len(gw.calls) != 3 {
		t.Fatalf("expected fetching to stop at the raw-empty page 3, got %d calls", len(gw.calls))
	}
	if len(metas) != 1 {
		t.Fatalf("expected the in-window page-2 result to survive, got %d metas", len(metas))
	}
	if metas[0].ID != "tmdb:3" {
		t.Fatalf("expected tmdb:3, got %s", metas[0].ID)
	}
}

func TestLiveNegativeSkipClampsToFirstPage(t *testing.T) {
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		return servePage(dst)
	}}
	svc := NewService(gw, StrategyLive, 1)

	svc.List(context.Background(), "movies-1990s", ListingQuery{Skip: -120, Limit: 40})

	if got := gw.calls[0].params["page"]; got != "1" {
		t.Fatalf("expected negative skip to clamp to page 1, got %s", got)
	}
}

func TestBulkPrefetchConcurrentTruncatesAtFirstEmptyPage(t *testing.T) {
	pages := map[string][]tmdb.Movie{
		"1": {movie(1, "A", "1991-01-01", 6.0)},
		"2": {},
		"3": {movie(3, "C", "1993-01-01", 9.0)},
	}
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		return servePage(dst, pages[call.params["page"]]...)
	}}
	svc := NewService(gw, StrategyBulk, 4)

	metas := svc.List(context.Background(), "movies-1990s", ListingQuery{})

	// Page 3 was fetched concurrently, but everything past the first
	// empty page is discarded.
	if len(metas) != 1 {
		t.Fatalf("expected records after the empty page to be discarded, got %d", len(metas))
	}
	if metas[0].ID != "tmdb:1" {
		t.Fatalf("expected tmdb:1, got %s", metas[0].ID)
	}
}

func TestListSkipsRecordsWithoutTitle(t *testing.T) {
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		return servePage(dst,
			movie(1, "Titled", "1995-01-01", 7.0),
			tmdb.Movie{ID: 2, ReleaseDate: "1996-01-01", VoteAverage: 8.0},
		)
	}}
	svc := NewService(gw, StrategyLive, 1)

	metas := svc.List(context.Background(), "movies-1990s", ListingQuery{})
	if len(metas) != 1 || metas[0].ID != "tmdb:1" {
		t.Fatalf("expected only the titled record, got %v", metas)
	}
}

func serveDetail(t *testing.T, withVideos bool, videoErr error) *fakeGateway {
	t.Helper()
	return &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		switch call.path {
		case "/movie/603":
			details := dst.(*tmdb.MovieDetails)
			*details = tmdb.MovieDetails{
				ID:          603,
				Title:       "The Matrix",
				Overview:    "A hacker learns the truth.",
				PosterPath:  "/matrix.jpg",
				ReleaseDate: "1999-03-31",
				Runtime:     136,
				VoteAverage: 8.22,
				VoteCount:   26000,
				Genres:      []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}},
			}
			return nil
		case "/movie/603/videos":
			if videoErr != nil {
				return videoErr
			}
			list := dst.(*tmdb.VideoList)
			if withVideos {
				list.Results = []tmdb.Video{
					{Key: "feat1", Name: "Featurette", Site: "YouTube", Type: "Featurette"},
					{Key: "vim1", Name: "Trailer (Vimeo)", Site: "Vimeo", Type: "Trailer"},
					{Key: "yt1", Name: "Official Trailer", Site: "YouTube", Type: "Trailer"},
					{Key: "yt2", Name: "Second Trailer", Site: "YouTube", Type: "Trailer"},
				}
			}
			return nil
		default:
			return fmt.Errorf("unexpected path %s", call.path)
		}
	}}
}

func TestDetailNormalizesAndPicksFirstYouTubeTrailer(t *testing.T) {
	svc := NewService(serveDetail(t, true, nil), StrategyLive, 1)

	outcome := svc.Detail(context.Background(), "tmdb:603")
	if outcome.Degraded {
		t.Fatal("expected a non-degraded detail")
	}

	meta := outcome.Meta
	if meta.ID != "tmdb:603" {
		t.Fatalf("expected namespaced id, got %s", meta.ID)
	}
	if meta.Name != "The Matrix" {
		t.Fatalf("unexpected name: %s", meta.Name)
	}
	if meta.Runtime != "136 min" {
		t.Fatalf("unexpected runtime: %q", meta.Runtime)
	}
	if meta.IMDBRating != "8.2" {
		t.Fatalf("unexpected rating: %q", meta.IMDBRating)
	}
	if meta.ReleaseInfo != "1999" {
		t.Fatalf("unexpected release info: %q", meta.ReleaseInfo)
	}
	if len(meta.Genres) != 2 || meta.Genres[0] != "Action" {
		t.Fatalf("unexpected genres: %v", meta.Genres)
	}
	if len(meta.Trailers) != 1 {
		t.Fatalf("expected exactly one trailer, got %d", len(meta.Trailers))
	}
	if meta.Trailers[0].Source != "yt1" || meta.Trailers[0].Site != "YouTube" {
		t.Fatalf("expected the first YouTube trailer, got %+v", meta.Trailers[0])
	}
}

func TestDetailVideoFailureMeansNoTrailers(t *testing.T) {
	svc := NewService(serveDetail(t, false, errors.New("videos endpoint down")), StrategyLive, 1)

	outcome := svc.Detail(context.Background(), "tmdb:603")
	if outcome.Degraded {
		t.Fatal("a failed trailer lookup must not degrade the detail")
	}
	if len(outcome.Meta.Trailers) != 0 {
		t.Fatalf("expected no trailers, got %v", outcome.Meta.Trailers)
	}
}

func TestDetailFailureReturnsDegradedPlaceholder(t *testing.T) {
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		return &tmdb.UpstreamError{Status: 404, Body: "not found"}
	}}
	svc := NewService(gw, StrategyLive, 1)

	outcome := svc.Detail(context.Background(), "tmdb:99999999")
	if !outcome.Degraded {
		t.Fatal("expected a degraded outcome")
	}
	if outcome.Meta.ID != "tmdb:99999999" {
		t.Fatalf("expected the original identifier, got %s", outcome.Meta.ID)
	}
	if outcome.Meta.Name != unavailableName {
		t.Fatalf("expected the unavailability sentinel, got %q", outcome.Meta.Name)
	}
	if outcome.Meta.Type != "movie" {
		t.Fatalf("degraded detail must stay structurally valid, got type %q", outcome.Meta.Type)
	}
}

func TestDetailStripsNamespacePrefix(t *testing.T) {
	var requested []string
	gw := &fakeGateway{handler: func(call gatewayCall, dst interface{}) error {
		requested = append(requested, call.path)
		if call.path == "/movie/603" {
			details := dst.(*tmdb.MovieDetails)
			details.ID = 603
			details.Title = "The Matrix"
		}
		return nil
	}}
	svc := NewService(gw, StrategyLive, 1)

	svc.Detail(context.Background(), "tmdb:603")
	if requested[0] != "/movie/603" {
		t.Fatalf("expected the prefix to be stripped before the fetch, got %s", requested[0])
	}

	// Bare upstream identifiers work too.
	requested = nil
	svc.Detail(context.Background(), "603")
	if requested[0] != "/movie/603" {
		t.Fatalf("expected bare id to be used as-is, got %s", requested[0])
	}
}

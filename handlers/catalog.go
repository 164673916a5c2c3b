package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"decadebox/models"
	"decadebox/services/catalog"
)

const (
	addonID      = "community.decadebox"
	addonVersion = "1.0.0"
)

type catalogService interface {
	List(ctx context.Context, catalogID string, q catalog.ListingQuery) []models.MoviePreview
	Detail(ctx context.Context, itemID string) catalog.DetailOutcome
}

var _ catalogService = (*catalog.Service)(nil)

// CatalogHandler serves the addon protocol: manifest, catalog listings and
// item metadata. Listing and detail responses are always 200s; failures
// degrade inside the resolver rather than surfacing as HTTP errors.
type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(s catalogService) *CatalogHandler {
	return &CatalogHandler{Service: s}
}

// Register attaches the addon routes to the router.
func (h *CatalogHandler) Register(r *mux.Router) {
	r.HandleFunc("/manifest.json", h.Manifest).Methods(http.MethodGet)
	r.HandleFunc("/catalog/movie/{id}.json", h.Catalog).Methods(http.MethodGet)
	r.HandleFunc("/catalog/movie/{id}/{extra}.json", h.Catalog).Methods(http.MethodGet)
	r.HandleFunc("/meta/movie/{id}.json", h.Meta).Methods(http.MethodGet)
}

type manifestExtra struct {
	Name       string   `json:"name"`
	IsRequired bool     `json:"isRequired,omitempty"`
	Options    []string `json:"options,omitempty"`
}

type manifestCatalog struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Extra []manifestExtra `json:"extra,omitempty"`
}

type manifest struct {
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Resources   []string          `json:"resources"`
	Types       []string          `json:"types"`
	Catalogs    []manifestCatalog `json:"catalogs"`
	IDPrefixes  []string          `json:"idPrefixes"`
}

// Manifest describes the available catalogs and their filter vocabulary.
func (h *CatalogHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	extra := []manifestExtra{
		{Name: "search"},
		{Name: "genre", Options: catalog.Genres()},
		{Name: "sort", Options: catalog.SortOptions()},
		{Name: "skip"},
	}

	catalogs := make([]manifestCatalog, 0, len(catalog.Catalogs()))
	for _, spec := range catalog.Catalogs() {
		catalogs = append(catalogs, manifestCatalog{
			Type:  "movie",
			ID:    spec.ID,
			Name:  spec.Name,
			Extra: extra,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(manifest{
		ID:          addonID,
		Version:     addonVersion,
		Name:        "Decadebox",
		Description: "Browse TMDB movies by decade",
		Resources:   []string{"catalog", "meta"},
		Types:       []string{"movie"},
		Catalogs:    catalogs,
		IDPrefixes:  []string{"tmdb:"},
	})
}

// CatalogResponse wraps a listing in the addon wire format.
type CatalogResponse struct {
	Metas []models.MoviePreview `json:"metas"`
}

func (h *CatalogHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	catalogID := vars["id"]
	query := parseExtra(vars["extra"])

	metas := h.Service.List(r.Context(), catalogID, query)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CatalogResponse{Metas: metas})
}

// MetaResponse wraps a detail record in the addon wire format.
type MetaResponse struct {
	Meta models.MovieDetail `json:"meta"`
}

func (h *CatalogHandler) Meta(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]

	outcome := h.Service.Detail(r.Context(), itemID)
	if outcome.Degraded {
		log.Printf("[handlers] serving degraded meta for %s", itemID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MetaResponse{Meta: outcome.Meta})
}

// parseExtra decodes the optional extra path segment, a URL-encoded
// property list like "search=alien&skip=50". Unparseable segments and
// malformed numbers degrade to zero values rather than erroring.
func parseExtra(extra string) catalog.ListingQuery {
	var q catalog.ListingQuery
	if extra == "" {
		return q
	}

	values, err := url.ParseQuery(extra)
	if err != nil {
		log.Printf("[handlers] unparseable extra segment %q: %v", extra, err)
		return q
	}

	q.Search = strings.TrimSpace(values.Get("search"))
	q.Genre = strings.ToLower(strings.TrimSpace(values.Get("genre")))
	q.Sort = strings.ToLower(strings.TrimSpace(values.Get("sort")))
	if skip, err := strconv.Atoi(values.Get("skip")); err == nil && skip > 0 {
		q.Skip = skip
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		q.Limit = limit
	}
	return q
}

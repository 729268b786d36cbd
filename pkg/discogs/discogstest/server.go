// Package discogstest runs an in-process fake of the Discogs API for tests.
package discogstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"discogscatalog/pkg/discogs"
	"discogscatalog/pkg/pricing"
)

// Token is the only token the fake accepts
const Token = "test-token"

// Username is the identity behind Token
const Username = "crate-digger"

// Server is a fake Discogs API. Zero-value fields mean empty collections.
// Every handled request is counted by URL path.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	folders  []discogs.Folder
	releases map[int64][]discogs.Release
	details  map[int64]discogs.ReleaseDetails
	prices   map[int64]discogs.PriceSuggestions
	images   map[int64][]byte
	failures map[string]int
	requests map[string]int
	order    []string
}

// NewServer starts a fake closed at test cleanup
func NewServer(t testing.TB) *Server {
	s := &Server{
		releases: make(map[int64][]discogs.Release),
		details:  make(map[int64]discogs.ReleaseDetails),
		prices:   make(map[int64]discogs.PriceSuggestions),
		images:   make(map[int64][]byte),
		failures: make(map[string]int),
		requests: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth/identity", s.authed(s.handleIdentity))
	mux.HandleFunc("GET /users/{username}/collection/folders", s.authed(s.handleFolders))
	mux.HandleFunc("GET /users/{username}/collection/folders/{id}/releases", s.authed(s.handleReleases))
	mux.HandleFunc("GET /releases/{id}", s.authed(s.handleDetails))
	mux.HandleFunc("GET /marketplace/price_suggestions/{id}", s.authed(s.handlePrices))
	mux.HandleFunc("GET /images/{file}", s.handleImage)

	s.Server = httptest.NewServer(s.count(mux))
	t.Cleanup(s.Close)
	return s
}

// AddFolder registers a collection folder
func (s *Server) AddFolder(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = append(s.folders, discogs.Folder{ID: id, Name: name})
}

// AddRelease appends a release to a folder with its details, price
// suggestions and a thumbnail served by the fake itself.
func (s *Server) AddRelease(folderID int64, details discogs.ReleaseDetails, prices map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := details.ID
	s.releases[folderID] = append(s.releases[folderID], discogs.Release{
		ID: id,
		BasicInformation: discogs.BasicInformation{
			ID:    id,
			Title: details.Title,
			Thumb: s.ThumbURL(id),
		},
	})
	for i := range s.folders {
		if s.folders[i].ID == folderID {
			s.folders[i].Count++
		}
	}

	s.details[id] = details
	suggestions := discogs.PriceSuggestions{}
	for condition, value := range prices {
		suggestions[condition] = pricing.Suggestion{Value: value, Currency: "EUR"}
	}
	s.prices[id] = suggestions
	s.images[id] = []byte(fmt.Sprintf("thumbnail-%d", id))
}

// ReportDetailsID makes the details of release id answer with a different
// id, as Discogs does for merged releases
func (s *Server) ReportDetailsID(id, reported int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	details := s.details[id]
	details.ID = reported
	s.details[id] = details
}

// ThumbURL is where the fake serves the thumbnail of release id
func (s *Server) ThumbURL(id int64) string {
	return fmt.Sprintf("%s/images/%d.jpg", s.URL, id)
}

// FailPath makes every request to path answer with status
func (s *Server) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Requests returns how many requests hit path
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// TotalRequests returns the number of requests handled so far
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// RequestLog returns request URIs (path and query) in arrival order
func (s *Server) RequestLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// ResetCounts forgets recorded requests
func (s *Server) ResetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = make(map[string]int)
	s.order = nil
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.order = append(s.order, r.URL.RequestURI())
		status, fail := s.failures[r.URL.Path]
		s.mu.Unlock()

		if fail {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != discogs.AuthorizationHeader(Token) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "You must authenticate to access this resource."})
			return
		}
		h(w, r)
	}
}

func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, discogs.Identity{
		ID:          1,
		Username:    Username,
		ResourceURL: s.URL + "/users/" + Username,
	})
}

func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("username") != Username {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User does not exist or may have been deleted."})
		return
	}

	s.mu.Lock()
	folders := append([]discogs.Folder{}, s.folders...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"folders": folders})
}

func (s *Server) handleReleases(w http.ResponseWriter, r *http.Request) {
	folderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Folder not found."})
		return
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage <= 0 {
		perPage = 50
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}

	s.mu.Lock()
	all := s.releases[folderID]
	s.mu.Unlock()

	pages := (len(all) + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	start := min((page-1)*perPage, len(all))
	end := min(start+perPage, len(all))

	resp := discogs.ReleasesPage{
		Pagination: discogs.Pagination{
			Page:    page,
			Pages:   pages,
			PerPage: perPage,
			Items:   len(all),
		},
		Releases: append([]discogs.Release{}, all[start:end]...),
	}
	if page < pages {
		resp.Pagination.URLs.Next = fmt.Sprintf("%s%s?page=%d&per_page=%d", s.URL, r.URL.Path, page+1, perPage)
		resp.Pagination.URLs.Last = fmt.Sprintf("%s%s?page=%d&per_page=%d", s.URL, r.URL.Path, pages, perPage)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	s.mu.Lock()
	details, ok := s.details[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Release not found."})
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	s.mu.Lock()
	prices, ok := s.prices[id]
	s.mu.Unlock()

	if !ok {
		prices = discogs.PriceSuggestions{}
	}
	writeJSON(w, http.StatusOK, prices)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	var id int64
	if _, err := fmt.Sscanf(r.PathValue("file"), "%d.jpg", &id); err != nil {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	data, ok := s.images[id]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package discogs

import (
	"strings"

	"discogscatalog/pkg/pricing"
)

// Identity is the owner of the access token
type Identity struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	ResourceURL  string `json:"resource_url"`
	ConsumerName string `json:"consumer_name,omitempty"`
}

// Folder is one collection folder
type Folder struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type foldersResponse struct {
	Folders []Folder `json:"folders"`
}

// Release is one entry of a collection folder listing
type Release struct {
	ID               int64            `json:"id"`
	InstanceID       int64            `json:"instance_id,omitempty"`
	Rating           int              `json:"rating"`
	BasicInformation BasicInformation `json:"basic_information"`
}

// BasicInformation is the summary Discogs embeds in listings
type BasicInformation struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Thumb string `json:"thumb"`
	Year  int    `json:"year,omitempty"`
}

// Pagination links the pages of a listing
type Pagination struct {
	Page    int            `json:"page"`
	Pages   int            `json:"pages"`
	PerPage int            `json:"per_page"`
	Items   int            `json:"items"`
	URLs    PaginationURLs `json:"urls"`
}

// PaginationURLs holds absolute URLs of neighbouring pages
type PaginationURLs struct {
	Next string `json:"next,omitempty"`
	Last string `json:"last,omitempty"`
}

// ReleasesPage is one page of a folder listing
type ReleasesPage struct {
	Pagination Pagination `json:"pagination"`
	Releases   []Release  `json:"releases"`
}

// Label is a release's label credit
type Label struct {
	Name  string `json:"name"`
	Catno string `json:"catno"`
}

// ReleaseDetails is the full release record
type ReleaseDetails struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	ArtistsSort string    `json:"artists_sort"`
	Labels      []Label   `json:"labels"`
	Released    string    `json:"released"`
	Genres      []string  `json:"genres"`
	Rating      *float64  `json:"rating,omitempty"`
	URI         string    `json:"uri"`
	LowestPrice *float64  `json:"lowest_price"`
	Community   Community `json:"community"`
}

// Community carries the crowd rating Discogs attaches to releases
type Community struct {
	Rating struct {
		Count   int     `json:"count"`
		Average float64 `json:"average"`
	} `json:"rating"`
}

// FirstLabel returns the first label credit, or a zero Label
func (d *ReleaseDetails) FirstLabel() Label {
	if len(d.Labels) == 0 {
		return Label{}
	}
	return d.Labels[0]
}

// GenreString joins genres with "/"
func (d *ReleaseDetails) GenreString() string {
	return strings.Join(d.Genres, "/")
}

// RatingValue prefers an explicit rating and falls back to the community average
func (d *ReleaseDetails) RatingValue() float64 {
	if d.Rating != nil {
		return *d.Rating
	}
	return d.Community.Rating.Average
}

// PriceSuggestions maps media condition to suggested price
type PriceSuggestions map[string]pricing.Suggestion

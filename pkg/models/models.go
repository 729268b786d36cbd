package models

import "strconv"

// ReportRow is one catalog line and the value stored in the release cache.
// Prices are nil when Discogs had no data for the release.
type ReportRow struct {
	ID                     int64    `json:"id"`
	Artist                 string   `json:"artist"`
	Title                  string   `json:"title"`
	Label                  string   `json:"label"`
	CatNo                  string   `json:"catno"`
	Released               string   `json:"released"`
	Genres                 string   `json:"genres"`
	Rating                 float64  `json:"rating"`
	URI                    string   `json:"uri"`
	Thumb                  string   `json:"thumb,omitempty"`
	AveragePriceSuggestion *float64 `json:"averagePriceSuggestion"`
	LowestPrice            *float64 `json:"lowestPrice"`
}

// Key is the cache key for the row
func (r ReportRow) Key() string {
	return strconv.FormatInt(r.ID, 10)
}

// Price returns a pointer to v, for building rows with known prices
func Price(v float64) *float64 {
	return &v
}

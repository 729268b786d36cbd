package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"discogscatalog/pkg/models"
	"discogscatalog/pkg/report"
)

// Catalog is the machine-readable twin of the HTML report
type Catalog struct {
	Username      string             `json:"username"`
	Folder        string             `json:"folder"`
	FolderID      int64              `json:"folderId"`
	GeneratedAt   time.Time          `json:"generatedAt"`
	Currency      string             `json:"currency"`
	TotalReleases int                `json:"totalReleases"`
	TotalAverage  float64            `json:"totalAveragePriceSuggestion"`
	TotalLowest   float64            `json:"totalLowestPrice"`
	Rows          []models.ReportRow `json:"releases"`
}

// FromResult captures a finished build
func FromResult(result *report.Result, currency string, generatedAt time.Time) *Catalog {
	rows := result.Rows
	if rows == nil {
		rows = []models.ReportRow{}
	}
	return &Catalog{
		Username:      result.Username,
		Folder:        result.Folder.Name,
		FolderID:      result.Folder.ID,
		GeneratedAt:   generatedAt.UTC(),
		Currency:      currency,
		TotalReleases: result.TotalReleases,
		TotalAverage:  result.TotalAverage,
		TotalLowest:   result.TotalLowest,
		Rows:          rows,
	}
}

// Save writes the catalog as indented JSON, replacing path atomically
func (c *Catalog) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}

// Load reads a catalog written by Save
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return &c, nil
}

// Missing returns the ids of rows that have no thumbnail in imagesDir
func (c *Catalog) Missing(imagesDir string) []int64 {
	var ids []int64
	for _, row := range c.Rows {
		if _, err := os.Lstat(filepath.Join(imagesDir, fmt.Sprintf("%d.jpg", row.ID))); err != nil {
			ids = append(ids, row.ID)
		}
	}
	return ids
}

package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discogscatalog/pkg/discogs"
	"discogscatalog/pkg/models"
	"discogscatalog/pkg/report"
)

func TestSaveAndLoad(t *testing.T) {
	result := &report.Result{
		Username:      "crate-digger",
		Folder:        discogs.Folder{ID: 3, Name: "Jazz"},
		TotalReleases: 25,
		TotalAverage:  12.25,
		TotalLowest:   6.75,
		Rows: []models.ReportRow{
			{ID: 1, Artist: "Coltrane, John", Title: "Blue Train", AveragePriceSuggestion: models.Price(12.25)},
			{ID: 2, Artist: "Davis, Miles", Title: "Kind of Blue"},
		},
	}
	generated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	path := filepath.Join(t.TempDir(), "dist", "catalog.json")
	require.NoError(t, FromResult(result, "EUR", generated).Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"totalAveragePriceSuggestion": 12.25`)
	assert.Contains(t, string(raw), `"averagePriceSuggestion": null`)
	assert.NoFileExists(t, path+".tmp")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Jazz", loaded.Folder)
	assert.Equal(t, int64(3), loaded.FolderID)
	assert.True(t, loaded.GeneratedAt.Equal(generated))
	assert.Equal(t, time.UTC, loaded.GeneratedAt.Location())
	assert.Equal(t, result.Rows, loaded.Rows)
}

func TestFromResultEmptyRows(t *testing.T) {
	c := FromResult(&report.Result{}, "EUR", time.Now())
	assert.NotNil(t, c.Rows, "empty folders export [] rather than null")
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.jpg"), []byte("x"), 0644))

	c := &Catalog{Rows: []models.ReportRow{{ID: 1}, {ID: 2}}}
	assert.Equal(t, []int64{2}, c.Missing(dir))
}

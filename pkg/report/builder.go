package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"discogscatalog/pkg/discogs"
	errs "discogscatalog/pkg/errors"
	"discogscatalog/pkg/logger"
	"discogscatalog/pkg/models"
	"discogscatalog/pkg/pricing"
)

// DefaultMaxReleases is how many releases of a folder are processed
const DefaultMaxReleases = 20

// ErrFolderNotFound is returned when no collection folder has the requested name
var ErrFolderNotFound = errors.New("collection folder not found")

// API is the subset of the Discogs client the builder drives
type API interface {
	GetIdentity(ctx context.Context) (*discogs.Identity, error)
	GetCollectionFolders(ctx context.Context, username string) ([]discogs.Folder, error)
	GetFolderReleases(ctx context.Context, username string, folderID int64) ([]discogs.Release, error)
	GetReleaseDetails(ctx context.Context, release discogs.Release) (*discogs.ReleaseDetails, error)
	GetPriceSuggestions(ctx context.Context, release discogs.Release) (discogs.PriceSuggestions, error)
	RetrieveThumbnail(ctx context.Context, release discogs.Release) (bool, error)
}

// RowCache stores finished rows by release id
type RowCache interface {
	Get(id int64) (models.ReportRow, bool)
	Set(row models.ReportRow)
	Save() error
}

// Progress receives per-release updates while Build runs
type Progress interface {
	ReleaseStarted(release discogs.Release, index, total int)
	ReleaseDone(row models.ReportRow, cached bool)
	ReleaseFailed(release discogs.Release, err error)
}

type noProgress struct{}

func (noProgress) ReleaseStarted(discogs.Release, int, int) {}
func (noProgress) ReleaseDone(models.ReportRow, bool)       {}
func (noProgress) ReleaseFailed(discogs.Release, error)     {}

// Options controls which releases are processed and how
type Options struct {
	FolderName        string
	MaxReleases       int
	IncludeConditions []string
	// FlushEach saves the cache after every newly built row
	FlushEach bool
	// Currency is only used for the totals log lines
	Currency string
	// SelectFolder, when set, chooses the folder name from the user's
	// folders instead of FolderName
	SelectFolder func(folders []discogs.Folder) (string, error)
}

// Result is everything the renderer and summary need
type Result struct {
	Username      string
	Folder        discogs.Folder
	Rows          []models.ReportRow
	TotalAverage  float64
	TotalLowest   float64
	CacheHits     int
	Fetched       int
	Thumbnails    int
	TotalReleases int
}

// Builder runs identity → folder → releases → per-release enrichment
type Builder struct {
	api      API
	cache    RowCache
	opts     Options
	logger   logger.Logger
	progress Progress
}

// NewBuilder wires a builder. A zero MaxReleases means DefaultMaxReleases.
func NewBuilder(api API, cache RowCache, opts Options, log logger.Logger) *Builder {
	if opts.MaxReleases <= 0 {
		opts.MaxReleases = DefaultMaxReleases
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Builder{api: api, cache: cache, opts: opts, logger: log, progress: noProgress{}}
}

// SetProgress installs an observer for per-release updates
func (b *Builder) SetProgress(p Progress) {
	if p == nil {
		p = noProgress{}
	}
	b.progress = p
}

// Build produces the catalog rows for the configured folder.
// On failure the cache is still saved so finished rows survive.
func (b *Builder) Build(ctx context.Context) (result *Result, err error) {
	identity, err := b.api.GetIdentity(ctx)
	if err != nil {
		return nil, err
	}

	folders, err := b.api.GetCollectionFolders(ctx, identity.Username)
	if err != nil {
		return nil, err
	}

	name := b.opts.FolderName
	if b.opts.SelectFolder != nil {
		if name, err = b.opts.SelectFolder(folders); err != nil {
			return nil, err
		}
	}

	folder, err := FindFolder(folders, name)
	if err != nil {
		return nil, err
	}

	log := b.logger.WithFields(map[string]interface{}{
		"username": identity.Username,
		"folder":   folder.Name,
	})

	releases, err := b.api.GetFolderReleases(ctx, identity.Username, folder.ID)
	if err != nil {
		return nil, err
	}

	result = &Result{
		Username:      identity.Username,
		Folder:        folder,
		TotalReleases: len(releases),
	}

	selected := releases
	if len(selected) > b.opts.MaxReleases {
		selected = selected[:b.opts.MaxReleases]
		log.WithFields(map[string]interface{}{
			"total":     len(releases),
			"processed": len(selected),
		}).Info("Processing the first releases of the folder")
	}

	defer func() {
		if saveErr := b.cache.Save(); saveErr != nil {
			err = errors.Join(err, fmt.Errorf("saving release cache: %w", saveErr))
		}
	}()

	var totalAverage, totalLowest float64
	for i, release := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b.progress.ReleaseStarted(release, i, len(selected))
		row, cached, err := b.processRelease(ctx, log, release, result)
		if err != nil {
			logger.LogRelease(log, release.ID, release.BasicInformation.Title, false, err)
			b.progress.ReleaseFailed(release, err)
			return nil, err
		}
		logger.LogRelease(log, release.ID, release.BasicInformation.Title, cached, nil)
		b.progress.ReleaseDone(row, cached)

		if row.AveragePriceSuggestion != nil {
			totalAverage += *row.AveragePriceSuggestion
		}
		if row.LowestPrice != nil {
			totalLowest += *row.LowestPrice
		}
		result.Rows = append(result.Rows, row)
		logger.LogProgress(log, folder.Name, i+1, len(selected))
	}

	result.TotalAverage = totalAverage
	result.TotalLowest = totalLowest

	log.Info("Total avg price for folder: " + pricing.Format(result.TotalAverage, b.opts.Currency))
	log.Info("Total lowest for folder: " + pricing.Format(result.TotalLowest, b.opts.Currency))
	return result, nil
}

// processRelease returns the cached row or builds, caches and returns a new one
func (b *Builder) processRelease(ctx context.Context, log logger.Logger, release discogs.Release, result *Result) (models.ReportRow, bool, error) {
	if row, ok := b.cache.Get(release.ID); ok {
		result.CacheHits++
		return row, true, nil
	}

	details, err := b.api.GetReleaseDetails(ctx, release)
	if err != nil {
		return models.ReportRow{}, false, err
	}

	suggestions, err := b.api.GetPriceSuggestions(ctx, release)
	if err != nil {
		return models.ReportRow{}, false, err
	}

	fetched, err := b.api.RetrieveThumbnail(ctx, release)
	if err != nil {
		return models.ReportRow{}, false, err
	}
	if fetched {
		result.Thumbnails++
	}

	row := NewRow(release, details)
	if avg, ok := pricing.Average(suggestions, b.opts.IncludeConditions); ok {
		row.AveragePriceSuggestion = models.Price(avg)
	} else {
		log.WithField("release_id", release.ID).Warn("No price suggestions for release")
	}

	b.cache.Set(row)
	result.Fetched++

	if b.opts.FlushEach {
		if err := b.cache.Save(); err != nil {
			return models.ReportRow{}, false, fmt.Errorf("saving release cache: %w", err)
		}
	}
	return row, false, nil
}

// NewRow flattens a listing entry and its details into a catalog row. The
// row is keyed by the listing id, which also names the thumbnail file.
// Price fields besides LowestPrice are left for the caller.
func NewRow(release discogs.Release, details *discogs.ReleaseDetails) models.ReportRow {
	label := details.FirstLabel()

	var lowest *float64
	if details.LowestPrice != nil {
		lowest = models.Price(*details.LowestPrice)
	}

	return models.ReportRow{
		ID:          release.ID,
		Artist:      details.ArtistsSort,
		Title:       details.Title,
		Label:       label.Name,
		CatNo:       label.Catno,
		Released:    details.Released,
		Genres:      details.GenreString(),
		Rating:      details.RatingValue(),
		URI:         details.URI,
		Thumb:       release.BasicInformation.Thumb,
		LowestPrice: lowest,
	}
}

// FindFolder returns the folder whose name matches exactly
func FindFolder(folders []discogs.Folder, name string) (discogs.Folder, error) {
	names := make([]string, 0, len(folders))
	for _, f := range folders {
		if f.Name == name {
			return f, nil
		}
		names = append(names, fmt.Sprintf("%q", f.Name))
	}

	return discogs.Folder{}, fmt.Errorf("%w: %q (available: %s): %w",
		ErrFolderNotFound, name, strings.Join(names, ", "),
		errs.New(errs.ErrorTypeNotFound, 0, "folder %q", name))
}

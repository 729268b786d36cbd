package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discogscatalog/pkg/auth"
	"discogscatalog/pkg/cache"
	"discogscatalog/pkg/config"
	"discogscatalog/pkg/discogs"
	"discogscatalog/pkg/discogs/discogstest"
	"discogscatalog/pkg/logger"
	"discogscatalog/pkg/metadata"
)

func testConfig(t *testing.T, srv *discogstest.Server) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Discogs.BaseURI = srv.URL
	cfg.Discogs.AuthToken = discogstest.Token
	cfg.Collection.FolderName = "Jazz"
	cfg.Collection.PageSize = 10
	cfg.RateLimit.MinIntervalMs = 0
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Output.Dir = filepath.Join(dir, "dist")
	require.NoError(t, cfg.Validate())
	return cfg
}

func addRelease(srv *discogstest.Server, id int64, artist, title string) {
	srv.AddRelease(3, discogs.ReleaseDetails{
		ID:          id,
		Title:       title,
		ArtistsSort: artist,
		Labels:      []discogs.Label{{Name: "Blue Note", Catno: "BLP"}},
		Released:    "1958",
		Genres:      []string{"Jazz"},
		URI:         "https://www.discogs.com/release/" + title,
	}, map[string]float64{"Mint (M)": 30, "Good (G)": 10})
}

func TestRunPipeline(t *testing.T) {
	srv := discogstest.NewServer(t)
	srv.AddFolder(3, "Jazz")
	addRelease(srv, 1, "Coltrane, John", "Blue Train")
	addRelease(srv, 2, "Davis, Miles", "Kind of Blue")

	cfg := testConfig(t, srv)
	tl := logger.NewTestLogger()

	result, err := runPipeline(context.Background(), cfg, tl, pipelineOptions{})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, discogstest.Username, result.Username)
	// (30) / 2 suggestions
	assert.Equal(t, 15.0, *result.Rows[0].AveragePriceSuggestion)
	assert.Equal(t, 30.0, result.TotalAverage)

	html, err := os.ReadFile(cfg.ReportPath())
	require.NoError(t, err)
	assert.Contains(t, string(html), "Coltrane, John - Blue Train")
	assert.Contains(t, string(html), "images/2.jpg")
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "styles.css"))

	thumb, err := os.ReadFile(filepath.Join(cfg.OutputImagesDir(), "1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "thumbnail-1", string(thumb))

	assert.FileExists(t, filepath.Join(cfg.Cache.Dir, cache.FileName))

	exported, err := metadata.Load(cfg.JSONPath())
	require.NoError(t, err)
	assert.Equal(t, "Jazz", exported.Folder)
	assert.Equal(t, result.Rows, exported.Rows)
	written, ok := tl.Find("Catalog written")
	require.True(t, ok)
	assert.Equal(t, 2, written.Fields["image_cache"])
	assert.True(t, tl.HasMessage("Total avg price for folder: 30.00 €"))
}

func TestRunPipelineRejectedToken(t *testing.T) {
	srv := discogstest.NewServer(t)
	srv.AddFolder(3, "Jazz")

	cfg := testConfig(t, srv)
	cfg.Discogs.AuthToken = "wrong-token"

	_, err := runPipeline(context.Background(), cfg, logger.NewTestLogger(), pipelineOptions{})
	require.Error(t, err)
	assert.Contains(t, failureHint(err), "auth login")
	assert.Empty(t, failureHint(errors.New("disk full")))
}

func TestRunPipelineSecondRunUsesCache(t *testing.T) {
	srv := discogstest.NewServer(t)
	srv.AddFolder(3, "Jazz")
	addRelease(srv, 1, "Coltrane, John", "Blue Train")

	cfg := testConfig(t, srv)
	_, err := runPipeline(context.Background(), cfg, logger.NewTestLogger(), pipelineOptions{})
	require.NoError(t, err)

	srv.ResetCounts()
	result, err := runPipeline(context.Background(), cfg, logger.NewTestLogger(), pipelineOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.CacheHits)
	assert.Zero(t, srv.Requests("/releases/1"))
	// identity, folders, one listing page
	assert.Equal(t, 3, srv.TotalRequests())
}

func TestRunPipelineSelectFolder(t *testing.T) {
	srv := discogstest.NewServer(t)
	srv.AddFolder(0, "All")
	srv.AddFolder(3, "Jazz")
	addRelease(srv, 1, "Coltrane, John", "Blue Train")

	cfg := testConfig(t, srv)
	cfg.Collection.FolderName = ""

	result, err := runPipeline(context.Background(), cfg, logger.NewTestLogger(), pipelineOptions{
		selectFolder: func(folders []discogs.Folder) (string, error) {
			require.Len(t, folders, 2)
			return "Jazz", nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Jazz", result.Folder.Name)
}

func TestRunPipelineCacheLocked(t *testing.T) {
	srv := discogstest.NewServer(t)
	srv.AddFolder(3, "Jazz")
	cfg := testConfig(t, srv)

	held, err := cache.Open(cfg.Cache.Dir, logger.NewTestLogger())
	require.NoError(t, err)
	defer held.Close()

	_, err = runPipeline(context.Background(), cfg, logger.NewTestLogger(), pipelineOptions{})
	assert.ErrorIs(t, err, cache.ErrLocked)
	assert.Zero(t, srv.TotalRequests())
}

func TestResolveToken(t *testing.T) {
	t.Setenv(auth.TokenEnv, "")

	t.Run("configured token wins", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Discogs.AuthToken = "from-config"
		called := false
		err := resolveToken(cfg, func() (*auth.Manager, error) {
			called = true
			return nil, errors.New("unused")
		})
		require.NoError(t, err)
		assert.False(t, called)
		assert.Equal(t, "from-config", cfg.Discogs.AuthToken)
	})

	t.Run("stored token", func(t *testing.T) {
		manager, _ := auth.NewMockManager()
		require.NoError(t, manager.Store(&auth.Account{Username: "crate-digger", Token: "stored-token"}))

		cfg := config.DefaultConfig()
		require.NoError(t, resolveToken(cfg, func() (*auth.Manager, error) { return manager, nil }))
		assert.Equal(t, "stored-token", cfg.Discogs.AuthToken)
	})

	t.Run("nothing stored", func(t *testing.T) {
		manager, _ := auth.NewMockManager()
		cfg := config.DefaultConfig()
		err := resolveToken(cfg, func() (*auth.Manager, error) { return manager, nil })
		assert.ErrorIs(t, err, auth.ErrCredentialsNotFound)
		assert.Contains(t, err.Error(), "auth login")
	})
}

func TestLogin(t *testing.T) {
	srv := discogstest.NewServer(t)
	cfg := testConfig(t, srv)
	manager, store := auth.NewMockManager()

	account, err := login(context.Background(), cfg, manager, discogstest.Token)
	require.NoError(t, err)
	assert.Equal(t, discogstest.Username, account.Username)
	assert.True(t, store.Exists(discogstest.Username))

	_, err = login(context.Background(), cfg, manager, "wrong-token")
	assert.Error(t, err)
	assert.Equal(t, 1, store.Count())
}

func TestLogoutTarget(t *testing.T) {
	manager, _ := auth.NewMockManager()

	_, err := logoutTarget(manager, nil)
	assert.ErrorIs(t, err, auth.ErrCredentialsNotFound)

	require.NoError(t, manager.Store(&auth.Account{Username: "one", Token: "token"}))
	name, err := logoutTarget(manager, nil)
	require.NoError(t, err)
	assert.Equal(t, "one", name)

	require.NoError(t, manager.Store(&auth.Account{Username: "two", Token: "token"}))
	_, err = logoutTarget(manager, nil)
	assert.ErrorContains(t, err, "--all")

	name, err = logoutTarget(manager, []string{"two"})
	require.NoError(t, err)
	assert.Equal(t, "two", name)
}

func TestBuildFlags(t *testing.T) {
	t.Cleanup(func() {
		folderName, limit, rateLimitMs, debug = "", 0, -1, false
	})

	folderName, limit, rateLimitMs, debug = "Jazz", 0, -1, false
	flags := buildFlags()
	assert.Equal(t, "Jazz", flags["folder"])
	assert.NotContains(t, flags, "limit")
	assert.NotContains(t, flags, "rate-limit-ms")

	limit, rateLimitMs, debug = 50, 0, true
	flags = buildFlags()
	assert.Equal(t, 50, flags["limit"])
	assert.Equal(t, 0, flags["rate-limit-ms"])
	assert.Equal(t, true, flags["debug"])
}

func TestParseReleaseIDs(t *testing.T) {
	ids, err := parseReleaseIDs([]string{"12", "7"})
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 7}, ids)

	_, err = parseReleaseIDs([]string{"abc"})
	assert.Error(t, err)
	_, err = parseReleaseIDs([]string{"-1"})
	assert.Error(t, err)
}

func TestCheckConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	dir := t.TempDir()
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Output.Dir = filepath.Join(dir, "out")

	problems, warnings := checkConfig(cfg)
	assert.Empty(t, problems)
	assert.Len(t, warnings, 2, "missing token and folder are warnings")
	assert.Empty(t, cfg.Discogs.AuthToken)
	assert.DirExists(t, cfg.Cache.Dir)

	cfg.Collection.MaxReleases = 0
	problems, _ = checkConfig(cfg)
	assert.NotEmpty(t, problems)
}

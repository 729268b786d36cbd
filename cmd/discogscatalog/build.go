package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"discogscatalog/pkg/auth"
	"discogscatalog/pkg/cache"
	"discogscatalog/pkg/config"
	"discogscatalog/pkg/discogs"
	errs "discogscatalog/pkg/errors"
	"discogscatalog/pkg/logger"
	"discogscatalog/pkg/metadata"
	"discogscatalog/pkg/ratelimit"
	"discogscatalog/pkg/render"
	"discogscatalog/pkg/report"
	"discogscatalog/pkg/retry"
	"discogscatalog/pkg/storage"
	"discogscatalog/pkg/ui"
)

var (
	// Build command flags
	folderName  string
	pickFolder  bool
	limit       int
	outputDir   string
	cacheDir    string
	rateLimitMs int
	token       string
	notify      bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch a collection folder and render the HTML catalog",
	Long: `Fetch the releases of one collection folder, enrich the first releases
(20 by default) with details, price suggestions and thumbnails, and render
them to an HTML page.

The Discogs token is taken from, in order: --token, DISCOGS_AUTH_TOKEN,
discogs.auth_token in the config file, and finally the token stored with
'discogscatalog auth login'.`,
	Example: `  # Render the "Jazz" folder into ./dist
  discogscatalog build --folder Jazz

  # Choose the folder interactively and render 50 releases
  discogscatalog build --pick-folder --limit 50

  # Slow down requests and write somewhere else
  discogscatalog build --folder Jazz --rate-limit-ms 2000 --output ./site`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	addBuildFlags(buildCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&folderName, "folder", "f", "", "collection folder to render (exact name)")
	cmd.Flags().BoolVar(&pickFolder, "pick-folder", false, "choose the folder interactively")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of releases to process (default 20)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default dist)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "cache directory (default .cache)")
	cmd.Flags().IntVar(&rateLimitMs, "rate-limit-ms", -1, "minimum milliseconds between requests (default 1000)")
	cmd.Flags().StringVar(&token, "token", "", "Discogs personal access token")
	cmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when the catalog is ready")
}

// buildFlags collects the flags config.MergeCommandLineFlags understands
func buildFlags() map[string]interface{} {
	flags := globalFlags()
	if folderName != "" {
		flags["folder"] = folderName
	}
	if token != "" {
		flags["token"] = token
	}
	if limit > 0 {
		flags["limit"] = limit
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if cacheDir != "" {
		flags["cache-dir"] = cacheDir
	}
	if rateLimitMs >= 0 {
		flags["rate-limit-ms"] = rateLimitMs
	}
	return flags
}

// newCredentialManager is replaced in tests
var newCredentialManager = func() (*auth.Manager, error) {
	return auth.NewManager("")
}

// resolveToken falls back to the stored credentials when no token came
// from flags, environment or config file
func resolveToken(cfg *config.Config, newManager func() (*auth.Manager, error)) error {
	if cfg.Discogs.AuthToken != "" {
		return nil
	}

	manager, err := newManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		return fmt.Errorf("no Discogs token found, run 'discogscatalog auth login' or set %s: %w", auth.TokenEnv, err)
	}

	cfg.Discogs.AuthToken = account.Token
	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadUnvalidated(configFile, buildFlags())
	if err != nil {
		return err
	}

	if err := resolveToken(cfg, newCredentialManager); err != nil {
		return err
	}
	if cfg.Collection.FolderName == "" && !pickFolder {
		return errors.New("no collection folder given, use --folder, collection.folder_name or --pick-folder")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log, runID := logger.WithRunID(logger.GetLogger())
	logger.SetLogger(log)

	log.WithField("version", version).Info("discogscatalog starting")
	if cfg.Debug {
		log.WithField("config", cfg.Masked()).Debug("Effective configuration")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipelineOptions{}
	var display *ui.ProgressDisplay
	if !quiet {
		display = ui.NewProgressDisplay(os.Stdout, cfg.Collection.FolderName)
		opts.progress = display
	}
	if pickFolder {
		current := cfg.Collection.FolderName
		opts.selectFolder = func(folders []discogs.Folder) (string, error) {
			name, err := ui.PickFolder(folders, current)
			if err == nil && display != nil {
				display.SetFolder(name)
			}
			return name, err
		}
	}

	result, err := runPipeline(ctx, cfg, log, opts)
	if err != nil {
		log.WithError(err).WithField("run_id", runID).Error("Catalog build failed")
		if hint := failureHint(err); hint != "" {
			ui.PrintWarning(hint)
		}
		ui.NewNotifier(notify).Notify("Catalog failed", err.Error())
		return err
	}

	if display != nil {
		display.Complete()
	}
	ui.Println(render.SummaryTable(result, cfg.Discogs.Currency))
	ui.PrintInfo("Catalog", cfg.ReportPath())
	ui.NewNotifier(notify).SendSuccess("Catalog ready",
		fmt.Sprintf("%d releases from %s", len(result.Rows), result.Folder.Name))
	return nil
}

// failureHint suggests a next step for failures the user can fix
func failureHint(err error) string {
	if errs.Is(err, errs.ErrorTypeAuth) {
		return "Discogs rejected the token, run `discogscatalog auth login` to store a new one"
	}
	return ""
}

type pipelineOptions struct {
	progress     report.Progress
	selectFolder func([]discogs.Folder) (string, error)
}

// runPipeline builds the catalog rows, copies thumbnails next to the report
// and renders it
func runPipeline(ctx context.Context, cfg *config.Config, log logger.Logger, opts pipelineOptions) (result *report.Result, err error) {
	limiter, err := ratelimit.New(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	images, err := storage.NewManager(cfg.ImagesCacheDir(),
		storage.WithMaxDimension(cfg.Images.MaxDimension),
		storage.WithLogger(log))
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(cfg.Cache.Dir, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	clientOpts := discogs.OptionsFromConfig(cfg)
	clientOpts.Limiter = limiter
	clientOpts.Retry = retry.FromConfig(cfg.Retry, log)
	clientOpts.Images = images
	clientOpts.Logger = log
	client := discogs.NewClient(clientOpts)

	builder := report.NewBuilder(client, store, report.Options{
		FolderName:        cfg.Collection.FolderName,
		MaxReleases:       cfg.Collection.MaxReleases,
		IncludeConditions: cfg.Collection.IncludeConditions,
		FlushEach:         cfg.Cache.FlushEach,
		Currency:          cfg.Discogs.Currency,
		SelectFolder:      opts.selectFolder,
	}, log)
	if opts.progress != nil {
		builder.SetProgress(opts.progress)
	}

	result, err = builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := images.CopyTo(ctx, cfg.OutputImagesDir())
	if err != nil {
		return nil, fmt.Errorf("copying thumbnails: %w", err)
	}

	err = render.WriteReport(cfg.ReportPath(), result.Rows, render.Options{
		Title:      fmt.Sprintf("%s: %s", result.Username, result.Folder.Name),
		Stylesheet: cfg.Output.Stylesheet,
		ImagesDir:  cfg.Output.ImagesDir,
	})
	if err != nil {
		return nil, err
	}

	if path := cfg.JSONPath(); path != "" {
		catalog := metadata.FromResult(result, cfg.Discogs.Currency, time.Now())
		if err := catalog.Save(path); err != nil {
			return nil, err
		}
		if missing := catalog.Missing(cfg.OutputImagesDir()); len(missing) > 0 {
			log.WithField("release_ids", fmt.Sprint(missing)).Warn("Releases without a thumbnail")
		}
	}

	cachedImages, err := images.Count()
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"report":      cfg.ReportPath(),
		"rows":        len(result.Rows),
		"cache_hits":  result.CacheHits,
		"fetched":     result.Fetched,
		"thumbnails":  stats.Files + stats.Symlinks,
		"image_cache": cachedImages,
		"size":        humanize.Bytes(uint64(stats.Bytes)),
	}).Info("Catalog written")

	return result, nil
}

package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"discogscatalog/pkg/config"
	errs "discogscatalog/pkg/errors"
	"discogscatalog/pkg/logger"
	"discogscatalog/pkg/ratelimit"
	"discogscatalog/pkg/retry"
)

// DefaultUserAgent identifies the tool to Discogs, which rejects anonymous agents
const DefaultUserAgent = "discogscatalog/1.0 +https://github.com/discogscatalog"

// ThumbnailStore is where RetrieveThumbnail keeps images
type ThumbnailStore interface {
	Has(id int64) bool
	Save(id int64, r io.Reader) error
}

// Options configures a Client
type Options struct {
	BaseURL   string
	Token     string
	UserAgent string
	Currency  string
	Timeout   time.Duration
	PageSize  int
	// MaxPages bounds pagination of a single folder listing
	MaxPages int

	Limiter    ratelimit.Limiter
	Retry      *retry.Config
	Images     ThumbnailStore
	HTTPClient *http.Client
	Logger     logger.Logger
}

// OptionsFromConfig maps the configuration file onto client options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:   cfg.Discogs.BaseURI,
		Token:     cfg.Discogs.AuthToken,
		UserAgent: cfg.Discogs.UserAgent,
		Currency:  cfg.Discogs.Currency,
		Timeout:   cfg.Timeout(),
		PageSize:  cfg.Collection.PageSize,
		MaxPages:  cfg.Collection.MaxPages,
	}
}

// Client talks to the Discogs REST API. Every request, thumbnails
// included, goes through the limiter first.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	currency   string
	pageSize   int
	maxPages   int
	limiter    ratelimit.Limiter
	retry      *retry.Config
	images     ThumbnailStore
	logger     logger.Logger
}

// NewClient creates a Discogs client
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewInterval(time.Second)
	}

	policy := opts.Retry
	if policy == nil {
		policy = retry.NoRetry()
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 100
	}

	headers := map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/vnd.discogs.v2.discogs+json",
	}
	if opts.Token != "" {
		headers["Authorization"] = AuthorizationHeader(opts.Token)
	}

	return &Client{
		httpClient: httpClient,
		headers:    headers,
		baseURL:    baseURL,
		currency:   opts.Currency,
		pageSize:   opts.PageSize,
		maxPages:   maxPages,
		limiter:    limiter,
		retry:      policy,
		images:     opts.Images,
		logger:     log,
	}
}

// doRequest waits for the limiter, then sends a GET with the default
// headers overlaid by overrides.
func (c *Client) doRequest(ctx context.Context, url string, overrides map[string]string) (*http.Response, error) {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	if waited := time.Since(waitStart); waited >= time.Millisecond {
		logger.LogRateLimit(c.logger, url, waited.Milliseconds())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			URL:     url,
		}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range overrides {
		req.Header.Set(key, value)
	}

	c.logger.Info(">> GET " + url)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			URL:     url,
		}
	}

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, float64(duration.Microseconds())/1000)
	return resp, nil
}

// checkResponseStatus turns a non-2xx response into a typed error
func (c *Client) checkResponseStatus(resp *http.Response, url string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var message string
	errType := errs.FromStatusCode(resp.StatusCode)
	switch errType {
	case errs.ErrorTypeAuth:
		message = "authentication failed, check the Discogs token"
	case errs.ErrorTypeNotFound:
		message = "resource not found"
	case errs.ErrorTypeRateLimit:
		message = "rate limit exceeded"
	case errs.ErrorTypeServerError:
		message = "server error"
	default:
		message = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	}

	// Discogs puts a human readable reason in {"message": ...}
	var body struct {
		Message string `json:"message"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		if json.Unmarshal(data, &body) == nil && body.Message != "" {
			message = fmt.Sprintf("%s: %s", message, body.Message)
		}
	}

	return &errs.Error{Type: errType, Message: message, Code: resp.StatusCode, URL: url}
}

// getJSON fetches url and decodes the body into target, retrying per policy
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		resp, err := c.doRequest(ctx, url, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(resp, url); err != nil {
			return err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &errs.Error{
				Type:    errs.ErrorTypeNetwork,
				Message: fmt.Sprintf("failed to read response body: %v", err),
				Code:    resp.StatusCode,
				URL:     url,
			}
		}

		if err := json.Unmarshal(body, target); err != nil {
			preview := string(body)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
				"url":          url,
				"status":       resp.StatusCode,
				"error":        err.Error(),
				"body_preview": preview,
			})
			return &errs.Error{
				Type:    errs.ErrorTypeParsing,
				Message: fmt.Sprintf("failed to parse JSON: %v", err),
				Code:    resp.StatusCode,
				URL:     url,
			}
		}
		return nil
	}, c.retry)
}

// GetIdentity resolves the username owning the token
func (c *Client) GetIdentity(ctx context.Context) (*Identity, error) {
	c.logger.Info("Fetching user identity")

	var identity Identity
	if err := c.getJSON(ctx, IdentityURL(c.baseURL), &identity); err != nil {
		return nil, fmt.Errorf("fetching identity: %w", err)
	}
	if identity.Username == "" {
		return nil, errs.New(errs.ErrorTypeParsing, http.StatusOK, "identity response has no username")
	}

	c.logger.WithField("username", identity.Username).Info("User identified")
	return &identity, nil
}

// GetCollectionFolders lists the user's collection folders
func (c *Client) GetCollectionFolders(ctx context.Context, username string) ([]Folder, error) {
	c.logger.WithField("username", username).Info("Fetching collection folders")

	var resp foldersResponse
	if err := c.getJSON(ctx, FoldersURL(c.baseURL, username), &resp); err != nil {
		return nil, fmt.Errorf("fetching folders for %s: %w", username, err)
	}

	c.logger.WithField("count", len(resp.Folders)).Info("Found folders")
	return resp.Folders, nil
}

// GetFolderReleases follows the folder listing's next links until the last
// page and returns every release in page order. A listing of P pages costs
// exactly P requests.
func (c *Client) GetFolderReleases(ctx context.Context, username string, folderID int64) ([]Release, error) {
	log := c.logger.WithFields(map[string]interface{}{
		"username":  username,
		"folder_id": folderID,
	})
	log.Info("Fetching folder releases")

	var releases []Release
	next := FolderReleasesURL(c.baseURL, username, folderID, c.pageSize)

	for fetched := 0; ; {
		if fetched >= c.maxPages {
			return nil, errs.New(errs.ErrorTypePagination, 0,
				"folder %d has more than %d pages", folderID, c.maxPages)
		}

		var page ReleasesPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("fetching releases page %d of folder %d: %w", fetched+1, folderID, err)
		}
		fetched++
		releases = append(releases, page.Releases...)

		log.DebugWithFields("Fetched releases page", map[string]interface{}{
			"page":  page.Pagination.Page,
			"pages": page.Pagination.Pages,
			"items": len(page.Releases),
		})

		if page.Pagination.Page >= page.Pagination.Pages {
			break
		}
		if page.Pagination.URLs.Next == "" {
			return nil, errs.New(errs.ErrorTypePagination, 0,
				"page %d of %d has no next link", page.Pagination.Page, page.Pagination.Pages)
		}
		next = page.Pagination.URLs.Next
	}

	log.WithField("total", len(releases)).Info("Found releases")
	return releases, nil
}

// GetReleaseDetails fetches the full record for a release
func (c *Client) GetReleaseDetails(ctx context.Context, release Release) (*ReleaseDetails, error) {
	c.logger.WithFields(map[string]interface{}{
		"release_id": release.ID,
		"title":      release.BasicInformation.Title,
	}).Info("Fetching release details")

	var details ReleaseDetails
	if err := c.getJSON(ctx, ReleaseURL(c.baseURL, release.ID, c.currency), &details); err != nil {
		return nil, fmt.Errorf("fetching details for release %d: %w", release.ID, err)
	}
	return &details, nil
}

// GetPriceSuggestions fetches suggested prices per media condition
func (c *Client) GetPriceSuggestions(ctx context.Context, release Release) (PriceSuggestions, error) {
	c.logger.WithFields(map[string]interface{}{
		"release_id": release.ID,
		"title":      release.BasicInformation.Title,
	}).Info("Fetching price suggestions")

	suggestions := PriceSuggestions{}
	if err := c.getJSON(ctx, PriceSuggestionsURL(c.baseURL, release.ID), &suggestions); err != nil {
		return nil, fmt.Errorf("fetching price suggestions for release %d: %w", release.ID, err)
	}
	return suggestions, nil
}

// RetrieveThumbnail downloads the release thumbnail into the image store
// unless it is already there. It reports whether a download happened.
func (c *Client) RetrieveThumbnail(ctx context.Context, release Release) (bool, error) {
	if c.images == nil {
		return false, fmt.Errorf("no thumbnail store configured")
	}

	log := c.logger.WithField("release_id", release.ID)
	if c.images.Has(release.ID) {
		log.Debug("Release thumbnail found in image cache")
		return false, nil
	}

	thumb := release.BasicInformation.Thumb
	if thumb == "" {
		log.Debug("Release has no thumbnail")
		return false, nil
	}

	log.WithField("title", release.BasicInformation.Title).Info("Fetching thumbnail")
	err := retry.Do(ctx, func(ctx context.Context) error {
		resp, err := c.doRequest(ctx, thumb, map[string]string{"Accept": "image/*"})
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(resp, thumb); err != nil {
			return err
		}
		return c.images.Save(release.ID, resp.Body)
	}, c.retry)
	if err != nil {
		return false, fmt.Errorf("fetching thumbnail for release %d: %w", release.ID, err)
	}
	return true, nil
}

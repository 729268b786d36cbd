package discogs

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the public Discogs API root
	BaseURL = "https://api.discogs.com"

	// DefaultPageSize is the per_page used for collection listings
	DefaultPageSize = 100

	// MaxPageSize is the largest per_page Discogs accepts
	MaxPageSize = 100
)

func join(base string, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(escaped, "/")
}

// IdentityURL is the endpoint naming the token's owner
func IdentityURL(base string) string {
	return join(base, "oauth", "identity")
}

// FoldersURL lists a user's collection folders
func FoldersURL(base, username string) string {
	return join(base, "users", username, "collection", "folders")
}

// FolderReleasesURL is the first page of a folder's releases
func FolderReleasesURL(base, username string, folderID int64, perPage int) string {
	if perPage <= 0 {
		perPage = DefaultPageSize
	} else if perPage > MaxPageSize {
		perPage = MaxPageSize
	}

	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))

	return fmt.Sprintf("%s?%s",
		join(base, "users", username, "collection", "folders", strconv.FormatInt(folderID, 10), "releases"),
		params.Encode())
}

// ReleaseURL returns release details, with prices in currency when set
func ReleaseURL(base string, releaseID int64, currency string) string {
	u := join(base, "releases", strconv.FormatInt(releaseID, 10))
	if currency == "" {
		return u
	}

	params := url.Values{}
	params.Set("curr_abbr", strings.ToUpper(currency))
	return u + "?" + params.Encode()
}

// PriceSuggestionsURL returns marketplace price suggestions per condition
func PriceSuggestionsURL(base string, releaseID int64) string {
	return join(base, "marketplace", "price_suggestions", strconv.FormatInt(releaseID, 10))
}

// AuthorizationHeader formats a personal access token for the Authorization header
func AuthorizationHeader(token string) string {
	return "Discogs token=" + token
}

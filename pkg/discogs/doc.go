// Package discogs is a small client for the parts of the Discogs API the
// catalog needs: identity, collection folders and their releases, release
// details, marketplace price suggestions, and release thumbnails.
//
// Every request waits on a ratelimit.Limiter before it starts and carries
// the personal access token in the Authorization header. Non-2xx responses
// come back as *errors.Error values typed by status (auth, not_found,
// rate_limit, server_error), so callers can branch with errors.Is/As.
//
//	client := discogs.NewClient(discogs.Options{
//	    BaseURL: cfg.Discogs.BaseURI,
//	    Token:   cfg.Discogs.AuthToken,
//	    Limiter: limiter,
//	    Images:  images,
//	})
//	identity, err := client.GetIdentity(ctx)
//	folders, err := client.GetCollectionFolders(ctx, identity.Username)
package discogs

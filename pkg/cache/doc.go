// Package cache persists finished catalog rows between runs.
//
// The cache is a single JSON document, <cache_dir>/releasesCache, mapping
// release id to the row that was rendered for it. There is no expiry: once
// a release is cached, later runs reuse the row without contacting Discogs
// until it is removed with `discogscatalog cache remove` or the cache is
// cleared.
//
// A Store holds an exclusive advisory lock (gofrs/flock) on
// releasesCache.lock while open, so two runs never write the same cache.
package cache

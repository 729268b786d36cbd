// Package storage keeps release thumbnails on disk.
//
// Thumbnails live at <cache_dir>/images/{release id}.jpg and are written
// atomically through a temporary file. The existence of that file is the
// cache: a present file is never fetched again. Optionally, thumbnails are
// downscaled to a maximum dimension before they are stored.
//
// CopyTo publishes the cache into the report's images directory, keeping
// symlinks as symlinks.
//
//	images, err := storage.NewManager(cfg.ImagesCacheDir(), storage.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	if !images.Has(release.ID) {
//	    err = images.Save(release.ID, body)
//	}
//	stats, err := images.CopyTo(ctx, cfg.OutputImagesDir())
package storage

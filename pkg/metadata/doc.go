// Package metadata writes and reads catalog.json, the JSON export that sits
// beside the rendered HTML catalog.
package metadata

// Package render writes the static HTML catalog and the terminal summary.
//
// The page is a fixed html/template: a stylesheet link and one table row per
// release with its thumbnail, "artist - title", "label (catno)", release
// date, genres and a link back to Discogs. Values are HTML-escaped.
package render

// Package report turns a Discogs collection folder into catalog rows.
//
// Build resolves the token's user, finds the folder by exact name, lists its
// releases and processes the first MaxReleases of them in listing order.
// A release already in the row cache is reused without any request;
// otherwise its details, price suggestions and thumbnail are fetched, a row
// is assembled and written to the cache. Running totals of the average and
// lowest prices are kept over every processed row.
package report

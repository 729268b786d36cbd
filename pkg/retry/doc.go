// Package retry re-runs failed Discogs requests with exponential backoff.
//
// Retries are opt-in: a policy built from a retry section with
// max_attempts of 1 (the default) runs each request exactly once.
// When enabled, only transient typed errors are retried (network,
// rate limit, server), and rate limit failures wait on a longer,
// minute-scale backoff.
//
//	policy := retry.FromConfig(cfg.Retry, log)
//	details, err := retry.DoWithResult(ctx, func(ctx context.Context) (*discogs.ReleaseDetails, error) {
//		return fetch(ctx)
//	}, policy)
package retry

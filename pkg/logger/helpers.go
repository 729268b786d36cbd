package logger

import (
	"fmt"

	"github.com/google/uuid"
)

// WithRunID tags every entry of l with a fresh run identifier
func WithRunID(l Logger) (Logger, string) {
	runID := uuid.NewString()
	return l.WithField("run_id", runID), runID
}

// LogRequest logs HTTP request information
func LogRequest(l Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogRelease logs the outcome of processing one release
func LogRelease(l Logger, releaseID int64, title string, cached bool, err error) {
	entry := l.WithFields(map[string]interface{}{
		"release_id": releaseID,
		"title":      title,
		"cached":     cached,
	})

	switch {
	case err != nil:
		entry.WithError(err).Error("Release processing failed")
	case cached:
		entry.Info("Release found in cache")
	default:
		entry.Info("Release enriched")
	}
}

// LogRateLimit logs time spent waiting on the request limiter
func LogRateLimit(l Logger, endpoint string, waitedMs int64) {
	l.WithFields(map[string]interface{}{
		"endpoint":  endpoint,
		"waited_ms": waitedMs,
		"action":    "rate_limited",
	}).Debug("Waited for rate limiter")
}

// LogProgress logs how far through the capped release list the run is
func LogProgress(l Logger, folder string, processed, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(processed) / float64(total) * 100
	}

	l.WithFields(map[string]interface{}{
		"folder":     folder,
		"processed":  processed,
		"total":      total,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Debug("Catalog progress")
}

// Package pricing turns Discogs marketplace price suggestions into the
// single average shown per release.
package pricing

import (
	"math"
	"strconv"
)

// Suggestion is the suggested price for one media condition
type Suggestion struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// Average sums the suggestions whose condition is in include and divides
// by the number of suggestions returned, not the number included. The
// result is rounded to 2 decimals, half away from zero.
//
// An empty suggestion set has no average and reports false.
func Average(suggestions map[string]Suggestion, include []string) (float64, bool) {
	if len(suggestions) == 0 {
		return 0, false
	}

	wanted := make(map[string]struct{}, len(include))
	for _, c := range include {
		wanted[c] = struct{}{}
	}

	var sum float64
	for condition, s := range suggestions {
		if _, ok := wanted[condition]; ok {
			sum += s.Value
		}
	}

	return Round2(sum / float64(len(suggestions))), true
}

// Round2 rounds to cents
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Symbol returns the display symbol for an ISO currency code
func Symbol(code string) string {
	switch code {
	case "EUR", "":
		return "€"
	case "USD", "CAD", "AUD", "NZD", "MXN":
		return "$"
	case "GBP":
		return "£"
	case "JPY":
		return "¥"
	default:
		return code
	}
}

// Format renders an amount with its currency symbol, "12.50 €"
func Format(amount float64, code string) string {
	return strconv.FormatFloat(Round2(amount), 'f', 2, 64) + " " + Symbol(code)
}

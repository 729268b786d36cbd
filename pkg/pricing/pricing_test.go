package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverage(t *testing.T) {
	include := []string{"Mint (M)", "Near Mint (NM or M-)", "Very Good Plus (VG+)"}

	tests := []struct {
		name        string
		suggestions map[string]Suggestion
		include     []string
		want        float64
		wantOK      bool
	}{
		{
			name:        "divides by total count",
			suggestions: map[string]Suggestion{"A": {Value: 10}, "B": {Value: 20}, "C": {Value: 30}},
			include:     []string{"A", "B"},
			want:        10.0,
			wantOK:      true,
		},
		{
			name:        "empty set has no data",
			suggestions: map[string]Suggestion{},
			include:     include,
			want:        0,
			wantOK:      false,
		},
		{
			name:        "nothing included",
			suggestions: map[string]Suggestion{"Poor (P)": {Value: 2}},
			include:     include,
			want:        0,
			wantOK:      true,
		},
		{
			name: "rounds to cents",
			suggestions: map[string]Suggestion{
				"Mint (M)":             {Value: 31.337, Currency: "EUR"},
				"Near Mint (NM or M-)": {Value: 24.1, Currency: "EUR"},
				"Good (G)":             {Value: 5.0, Currency: "EUR"},
			},
			include: include,
			// (31.337 + 24.1) / 3 = 18.479
			want:   18.48,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Average(tt.suggestions, tt.include)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 12.0, Round2(11.999))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12.50 €", Format(12.5, "EUR"))
	assert.Equal(t, "0.00 €", Format(0, ""))
	assert.Equal(t, "3.14 $", Format(3.14159, "USD"))
	assert.Equal(t, "7.00 SEK", Format(7, "SEK"))
}

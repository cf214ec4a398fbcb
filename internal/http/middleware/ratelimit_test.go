package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowLimit(t *testing.T) {
	testCases := []struct {
		name       string
		userRPS    int
		defaultRPS int
		burst      int
		want       int
	}{
		{"default plus burst", 0, 10, 20, 30},
		{"per-user rps overrides default", 5, 10, 20, 25},
		{"no burst configured", 5, 10, 0, 5},
		{"no base rate disables the limiter", 0, 0, 20, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, windowLimit(tc.userRPS, tc.defaultRPS, tc.burst))
		})
	}
}

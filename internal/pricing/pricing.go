// Package pricing holds the price rules shared by the client renderer and
// the reference server.
package pricing

import "math"

// GrowthRate is the per-unit price multiplier of stackable store items.
const GrowthRate = 1.15

// DynamicCost returns floor(base * growth^owned). It must be evaluated on
// every render: owned changes after each purchase.
func DynamicCost(base int, growth float64, owned int) int {
	if owned < 0 {
		owned = 0
	}
	return int(math.Floor(float64(base) * math.Pow(growth, float64(owned))))
}

// Percent maps cur/limit onto [0,100]. A non-positive limit yields 0.
func Percent(cur, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	p := float64(cur) / float64(limit) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

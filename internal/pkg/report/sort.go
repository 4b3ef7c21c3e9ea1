package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Vodeneev/ticketev/internal/pkg/models"
)

// SortKey names a numeric column results can be ordered by.
type SortKey string

const (
	SortAdjustedRatio    SortKey = "adjusted_ratio"
	SortOriginalRatio    SortKey = "original_ratio"
	SortOriginalEV       SortKey = "original_ev"
	SortAdjustedEV       SortKey = "adjusted_ev"
	SortPrice            SortKey = "price"
	SortPercentChange    SortKey = "percent_change"
	SortTicketsRemaining SortKey = "tickets_remaining"
)

var sortKeys = []SortKey{
	SortAdjustedRatio,
	SortOriginalRatio,
	SortOriginalEV,
	SortAdjustedEV,
	SortPrice,
	SortPercentChange,
	SortTicketsRemaining,
}

// ParseSortKey validates a configured sort key.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range sortKeys {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q (available: %v)", s, sortKeys)
}

// value returns the key's value for r; false when it is undefined.
func (k SortKey) value(r models.GameResult) (float64, bool) {
	res := r.Result
	switch k {
	case SortAdjustedRatio:
		return res.AdjustedRatio, true
	case SortOriginalRatio:
		return res.OriginalRatio, true
	case SortOriginalEV:
		return res.OriginalExpectedValue, true
	case SortAdjustedEV:
		return res.AdjustedExpectedValue, true
	case SortPrice:
		return r.Game.Price, true
	case SortPercentChange:
		if res.PercentChange == nil {
			return 0, false
		}
		return *res.PercentChange, true
	case SortTicketsRemaining:
		return res.EstimatedTicketsRemaining, true
	}
	return 0, false
}

// Successful returns the results that carry an estimate, in input order.
func Successful(results []models.GameResult) []models.GameResult {
	out := make([]models.GameResult, 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the results without an estimate, in input order.
func Failed(results []models.GameResult) []models.GameResult {
	var out []models.GameResult
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Sorted returns the successful results stably ordered by key. Results whose
// key is undefined go last whatever the direction.
func Sorted(results []models.GameResult, key SortKey, ascending bool) []models.GameResult {
	out := Successful(results)
	sort.SliceStable(out, func(i, j int) bool {
		vi, oki := key.value(out[i])
		vj, okj := key.value(out[j])
		if oki != okj {
			return oki
		}
		if ascending {
			return vi < vj
		}
		return vi > vj
	})
	return out
}

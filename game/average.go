package game

import (
	"math"
	"strconv"

	"github.com/pankaj9057/planning-poker/storage"
)

// Average computes the arithmetic mean of the numeric votes in the list,
// rounded to 2 decimals. Special cards, non-numeric labels (t-shirt sizes)
// and missing votes are excluded; sentinel codes parse negative and fall out
// with the same rule. Returns nil when no vote qualifies, which is the
// normal outcome for a purely categorical deck.
func Average(players []*storage.Player) *float64 {
	var sum float64
	var count int

	for _, p := range players {
		if p.Value == nil {
			continue
		}
		val := *p.Value
		if val == CardUnknown || val == CardCoffee {
			continue
		}
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			continue
		}
		if parsed < 0 {
			continue
		}
		sum += parsed
		count++
	}

	if count == 0 {
		return nil
	}

	avg := math.Round(sum/float64(count)*100) / 100
	return &avg
}

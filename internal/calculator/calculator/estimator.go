package calculator

import (
	"fmt"
	"math"

	"github.com/Vodeneev/ticketev/internal/pkg/models"
)

// ComputeOriginalExpectedValue returns the per-ticket payout implied by the printed
// odds: the sum of value/statedOdds over all tiers.
func ComputeOriginalExpectedValue(rows []models.PrizeRow) (float64, error) {
	ev := 0.0
	for i, row := range rows {
		if !(row.StatedOdds > 0) || math.IsInf(row.StatedOdds, 0) {
			return 0, rowError(i, ErrInvalidOdds, "1 in %v", row.StatedOdds)
		}
		ev += row.Value / row.StatedOdds
	}
	return ev, nil
}

// ComputeBaselineTotal returns the printed ticket count implied by the first tier.
// The other tiers are assumed to agree and are not consulted. A first tier with no
// printed prizes yields 0, which the population estimate carries through to
// ErrDepletedGame.
func ComputeBaselineTotal(rows []models.PrizeRow) (float64, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: game has no prize tiers", ErrEmptyPopulation)
	}
	total := rows[0].ImpliedTotal()
	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return 0, rowError(0, ErrMalformedRow, "implied ticket total %v", total)
	}
	return total, nil
}

// EstimateTicketPopulation scales the baseline by the fraction of prizes still
// unclaimed, assuming all tiers deplete uniformly.
func EstimateTicketPopulation(rows []models.PrizeRow, baselineTotal float64) (float64, error) {
	var originalSum, remainingSum int64
	for _, row := range rows {
		originalSum += row.OriginalCount
		remainingSum += row.RemainingCount
	}
	if originalSum == 0 {
		return 0, fmt.Errorf("%w: no prizes were printed", ErrEmptyPopulation)
	}
	depletion := float64(remainingSum) / float64(originalSum)
	return baselineTotal * depletion, nil
}

// ComputeAdjustedExpectedValue re-weights every tier by its remaining prize count
// against the estimated current ticket population. Exhausted tiers contribute 0.
// value*remaining is divided last so an undepleted game with consistent tiers
// reproduces ComputeOriginalExpectedValue exactly.
func ComputeAdjustedExpectedValue(rows []models.PrizeRow, ticketsRemaining float64) (float64, error) {
	if !(ticketsRemaining > 0) || math.IsInf(ticketsRemaining, 0) {
		return 0, fmt.Errorf("%w: estimated %v tickets", ErrDepletedGame, ticketsRemaining)
	}
	ev := 0.0
	for _, row := range rows {
		if row.Exhausted() {
			continue
		}
		ev += row.Value * float64(row.RemainingCount) / ticketsRemaining
	}
	return ev, nil
}

// ValidateGame rejects data that would otherwise be silently clamped.
func ValidateGame(game models.Game) error {
	if !(game.Price > 0) || math.IsInf(game.Price, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, game.Price)
	}
	for i, row := range game.Rows {
		switch {
		case math.IsNaN(row.Value) || math.IsInf(row.Value, 0) || row.Value < 0:
			return rowError(i, ErrMalformedRow, "value %v", row.Value)
		case row.OriginalCount < 0:
			return rowError(i, ErrMalformedRow, "original count %d", row.OriginalCount)
		case row.RemainingCount < 0:
			return rowError(i, ErrMalformedRow, "remaining count %d", row.RemainingCount)
		case row.RemainingCount > row.OriginalCount:
			return rowError(i, ErrMalformedRow, "remaining %d exceeds original %d", row.RemainingCount, row.OriginalCount)
		}
	}
	return nil
}

// CheckTierConsistency lists tiers whose implied ticket total deviates from the
// baseline by more than tolerance (relative). A tolerance <= 0 disables the check.
func CheckTierConsistency(rows []models.PrizeRow, baselineTotal, tolerance float64) []models.TierMismatch {
	if tolerance <= 0 || baselineTotal <= 0 {
		return nil
	}
	var mismatches []models.TierMismatch
	for i := 1; i < len(rows); i++ {
		implied := rows[i].ImpliedTotal()
		deviation := math.Abs(implied-baselineTotal) / baselineTotal
		if deviation > tolerance {
			mismatches = append(mismatches, models.TierMismatch{
				Row:          i,
				ImpliedTotal: implied,
				Deviation:    deviation,
			})
		}
	}
	return mismatches
}

// ComputeResult runs the full estimation for one game. On error no result is
// returned.
func ComputeResult(game models.Game) (*models.EstimationResult, error) {
	return computeResult(game, 0)
}

func computeResult(game models.Game, tolerance float64) (*models.EstimationResult, error) {
	if err := ValidateGame(game); err != nil {
		return nil, err
	}

	originalEV, err := ComputeOriginalExpectedValue(game.Rows)
	if err != nil {
		return nil, err
	}
	baseline, err := ComputeBaselineTotal(game.Rows)
	if err != nil {
		return nil, err
	}
	remaining, err := EstimateTicketPopulation(game.Rows, baseline)
	if err != nil {
		return nil, err
	}
	adjustedEV, err := ComputeAdjustedExpectedValue(game.Rows, remaining)
	if err != nil {
		return nil, err
	}

	result := &models.EstimationResult{
		OriginalExpectedValue:        originalEV,
		OriginalRatio:                originalEV / game.Price,
		EstimatedTotalTicketsPrinted: baseline,
		EstimatedTicketsRemaining:    remaining,
		AdjustedExpectedValue:        adjustedEV,
		AdjustedRatio:                adjustedEV / game.Price,
		TierMismatches:               CheckTierConsistency(game.Rows, baseline, tolerance),
	}
	if originalEV != 0 {
		change := adjustedEV / originalEV
		result.PercentChange = &change
	}
	return result, nil
}

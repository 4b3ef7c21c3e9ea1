package calculator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/Vodeneev/ticketev/internal/pkg/config"
	"github.com/Vodeneev/ticketev/internal/pkg/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEstimateAll_FailuresAreIsolated(t *testing.T) {
	games := []models.Game{
		{Name: "Good 1", Price: 5, Rows: []models.PrizeRow{
			{Value: 500, StatedOdds: 10, OriginalCount: 1000, RemainingCount: 1000},
		}},
		{Name: "Bad odds", Price: 5, Rows: []models.PrizeRow{
			{Value: 500, StatedOdds: 0, OriginalCount: 1000, RemainingCount: 1000},
		}},
		{Name: "Good 2", Price: 1, Rows: []models.PrizeRow{
			{Value: 1000, StatedOdds: 100, OriginalCount: 100, RemainingCount: 0},
			{Value: 10, StatedOdds: 5, OriginalCount: 2000, RemainingCount: 1000},
		}},
		{Name: "Sold out", Price: 1, Rows: []models.PrizeRow{
			{Value: 10, StatedOdds: 5, OriginalCount: 2000, RemainingCount: 0},
		}},
	}

	e := NewEstimator(&config.EstimatorConfig{Workers: 3}, discardLogger())
	results := e.EstimateAll(context.Background(), games)

	if len(results) != len(games) {
		t.Fatalf("got %d results, want %d", len(results), len(games))
	}
	for i, r := range results {
		if r.Game.Name != games[i].Name {
			t.Errorf("result %d: game %q, want %q (order must be preserved)", i, r.Game.Name, games[i].Name)
		}
	}

	if !results[0].OK() || !results[2].OK() {
		t.Fatalf("healthy games failed: %v / %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, ErrInvalidOdds) || results[1].Result != nil {
		t.Errorf("bad odds game: result=%v err=%v", results[1].Result, results[1].Err)
	}
	if !errors.Is(results[3].Err, ErrDepletedGame) || results[3].Result != nil {
		t.Errorf("sold out game: result=%v err=%v", results[3].Result, results[3].Err)
	}

	alone, err := ComputeResult(games[2])
	if err != nil {
		t.Fatal(err)
	}
	if *alone.PercentChange != *results[2].Result.PercentChange ||
		alone.AdjustedExpectedValue != results[2].Result.AdjustedExpectedValue {
		t.Errorf("batch result differs from standalone computation")
	}
}

func TestEstimateAll_ManyGames(t *testing.T) {
	var games []models.Game
	for i := 1; i <= 50; i++ {
		games = append(games, models.Game{
			Name:  fmt.Sprintf("Game %d", i),
			Price: float64(i),
			Rows: []models.PrizeRow{
				{Value: float64(100 * i), StatedOdds: 20, OriginalCount: 500, RemainingCount: int64(5 * i)},
			},
		})
	}
	results := NewEstimator(&config.EstimatorConfig{Workers: 4}, discardLogger()).
		EstimateAll(context.Background(), games)
	for i, r := range results {
		if !r.OK() {
			t.Fatalf("game %d failed: %v", i, r.Err)
		}
		// Single tier: depletion is proportional so the adjusted ratio equals the original one.
		if !approxEqual(r.Result.AdjustedRatio, r.Result.OriginalRatio) {
			t.Errorf("game %d: adjusted ratio %v != original %v", i, r.Result.AdjustedRatio, r.Result.OriginalRatio)
		}
	}
}

func TestEstimateAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	games := []models.Game{
		{Name: "A", Price: 1, Rows: []models.PrizeRow{{Value: 1, StatedOdds: 2, OriginalCount: 10, RemainingCount: 5}}},
		{Name: "B", Price: 1, Rows: []models.PrizeRow{{Value: 1, StatedOdds: 2, OriginalCount: 10, RemainingCount: 5}}},
	}
	results := NewEstimator(nil, discardLogger()).EstimateAll(ctx, games)
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("game %s: error = %v, want context.Canceled", r.Game.Name, r.Err)
		}
		if r.Result != nil {
			t.Errorf("game %s: unexpected result", r.Game.Name)
		}
	}
}

func TestEstimator_ReportsTierMismatch(t *testing.T) {
	game := models.Game{Name: "Mixed", Price: 1, Rows: []models.PrizeRow{
		{Value: 10, StatedOdds: 10, OriginalCount: 100, RemainingCount: 50},
		{Value: 2, StatedOdds: 5, OriginalCount: 300, RemainingCount: 150},
	}}

	plain, err := ComputeResult(game)
	if err != nil {
		t.Fatal(err)
	}
	if len(plain.TierMismatches) != 0 {
		t.Errorf("ComputeResult should not run the consistency check, got %v", plain.TierMismatches)
	}

	checked, err := NewEstimator(&config.EstimatorConfig{TierTolerance: 0.05}, discardLogger()).Compute(game)
	if err != nil {
		t.Fatal(err)
	}
	if len(checked.TierMismatches) != 1 || checked.TierMismatches[0].Row != 1 {
		t.Errorf("tier mismatches = %+v, want row 1", checked.TierMismatches)
	}
	if checked.AdjustedExpectedValue != plain.AdjustedExpectedValue {
		t.Errorf("consistency check must not change the estimate")
	}
}

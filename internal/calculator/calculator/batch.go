package calculator

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Vodeneev/ticketev/internal/pkg/config"
	"github.com/Vodeneev/ticketev/internal/pkg/models"
)

// Estimator computes results for many games on a bounded worker pool.
type Estimator struct {
	config *config.EstimatorConfig
	logger *slog.Logger
}

// NewEstimator creates an estimator. A nil logger falls back to slog.Default().
func NewEstimator(cfg *config.EstimatorConfig, logger *slog.Logger) *Estimator {
	if cfg == nil {
		cfg = &config.EstimatorConfig{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{config: cfg, logger: logger}
}

func (e *Estimator) workers() int {
	if e.config.Workers > 0 {
		return e.config.Workers
	}
	return 1
}

// Compute estimates one game, reporting tier mismatches when a tolerance is set.
func (e *Estimator) Compute(game models.Game) (*models.EstimationResult, error) {
	result, err := computeResult(game, e.config.TierTolerance)
	if err != nil {
		return nil, err
	}
	for _, m := range result.TierMismatches {
		e.logger.Warn("Tier implies a different ticket total than row 0",
			"game", game.Name,
			"row", m.Row,
			"implied_total", m.ImpliedTotal,
			"baseline_total", result.EstimatedTotalTicketsPrinted,
			"deviation", m.Deviation)
	}
	return result, nil
}

// EstimateAll computes every game independently. Results keep input order and a
// failing game never affects the others. Games not started before ctx is done
// carry ctx.Err().
func (e *Estimator) EstimateAll(ctx context.Context, games []models.Game) []models.GameResult {
	results := make([]models.GameResult, len(games))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())

	for i := range games {
		if err := gctx.Err(); err != nil {
			results[i] = models.GameResult{Game: games[i], Err: err}
			continue
		}
		g.Go(func() error {
			game := games[i]
			if err := gctx.Err(); err != nil {
				results[i] = models.GameResult{Game: game, Err: err}
				return nil
			}
			result, err := e.Compute(game)
			results[i] = models.GameResult{Game: game, Result: result, Err: err}
			if err != nil {
				e.logger.Warn("Game skipped", "game", game.Name, "price", game.Price, "error", err)
			} else {
				e.logger.Debug("Game estimated",
					"game", game.Name,
					"original_ev", result.OriginalExpectedValue,
					"adjusted_ev", result.AdjustedExpectedValue,
					"tickets_remaining", result.EstimatedTicketsRemaining)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	e.logger.Info("Estimation finished", "games", len(games), "failed", failed)
	return results
}

package models

// PrizeRow is one prize tier of a game as printed on the odds page.
type PrizeRow struct {
	Value          float64 `json:"value"`           // payout of this tier
	StatedOdds     float64 `json:"stated_odds"`     // "1 in N" denominator
	OriginalCount  int64   `json:"original_count"`  // prizes printed
	RemainingCount int64   `json:"remaining_count"` // prizes still unclaimed
}

// Exhausted reports whether every prize of this tier has been claimed.
func (r PrizeRow) Exhausted() bool {
	return r.RemainingCount == 0
}

// ImpliedTotal is the ticket population implied by this tier alone.
func (r PrizeRow) ImpliedTotal() float64 {
	return float64(r.OriginalCount) * r.StatedOdds
}

// Game is one ticket product parsed from a single page section.
type Game struct {
	Name  string     `json:"name"`
	Price float64    `json:"price"`
	Rows  []PrizeRow `json:"rows"`
}

// TierMismatch flags a tier whose implied ticket total disagrees with the baseline.
type TierMismatch struct {
	Row          int     `json:"row"`
	ImpliedTotal float64 `json:"implied_total"`
	Deviation    float64 `json:"deviation"` // relative to baseline
}

// EstimationResult holds the metrics derived once per game.
type EstimationResult struct {
	OriginalExpectedValue        float64 `json:"original_expected_value"`
	OriginalRatio                float64 `json:"original_ratio"`
	EstimatedTotalTicketsPrinted float64 `json:"estimated_total_tickets_printed"`
	EstimatedTicketsRemaining    float64 `json:"estimated_tickets_remaining"`
	AdjustedExpectedValue        float64 `json:"adjusted_expected_value"`
	AdjustedRatio                float64 `json:"adjusted_ratio"`

	// PercentChange is adjusted/original EV; nil when the original EV is zero.
	PercentChange *float64 `json:"percent_change,omitempty"`

	TierMismatches []TierMismatch `json:"tier_mismatches,omitempty"`
}

// GameResult pairs a game with either its result or the reason it has none.
type GameResult struct {
	Game   Game
	Result *EstimationResult
	Err    error
}

// OK reports whether the estimation succeeded.
func (r GameResult) OK() bool {
	return r.Err == nil && r.Result != nil
}

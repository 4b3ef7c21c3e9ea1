package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/ticketev/internal/pkg/models"
)

// Export is the JSON document written for one run.
type Export struct {
	RunID      string          `json:"run_id"`
	Timestamp  string          `json:"timestamp"`
	Source     string          `json:"source,omitempty"`
	TotalGames int             `json:"total_games"`
	Games      []GameExport    `json:"games"`
	Failures   []FailureExport `json:"failures"`
}

// GameExport is one successfully estimated game.
type GameExport struct {
	Name   string                  `json:"name"`
	Price  float64                 `json:"price"`
	Rows   []models.PrizeRow       `json:"rows"`
	Result models.EstimationResult `json:"result"`
}

// FailureExport is one game without an estimate.
type FailureExport struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Error string  `json:"error"`
}

// Exporter turns a run's results into JSON and CSV files.
type Exporter struct {
	runID  uuid.UUID
	source string
	now    func() time.Time
}

// NewExporter creates an exporter tagging every document with runID.
func NewExporter(runID uuid.UUID, source string) *Exporter {
	return &Exporter{runID: runID, source: source, now: time.Now}
}

// Build converts results to the export format, keeping input order.
func (e *Exporter) Build(results []models.GameResult) *Export {
	export := &Export{
		RunID:      e.runID.String(),
		Timestamp:  e.now().UTC().Format(time.RFC3339),
		Source:     e.source,
		TotalGames: len(results),
		Games:      []GameExport{},
		Failures:   []FailureExport{},
	}
	for _, r := range results {
		if r.OK() {
			export.Games = append(export.Games, GameExport{
				Name:   r.Game.Name,
				Price:  r.Game.Price,
				Rows:   r.Game.Rows,
				Result: *r.Result,
			})
			continue
		}
		msg := "no result"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		export.Failures = append(export.Failures, FailureExport{
			Name:  r.Game.Name,
			Price: r.Game.Price,
			Error: msg,
		})
	}
	return export
}

// ExportToJSON renders the export document.
func (e *Exporter) ExportToJSON(results []models.GameResult) ([]byte, error) {
	return json.MarshalIndent(e.Build(results), "", "  ")
}

// ExportToCSV renders one line per successfully estimated game.
func (e *Exporter) ExportToCSV(results []models.GameResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"run_id", "name", "price",
		"original_expected_value", "original_ratio",
		"estimated_total_tickets_printed", "estimated_tickets_remaining",
		"adjusted_expected_value", "adjusted_ratio", "percent_change",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, r := range Successful(results) {
		res := r.Result
		change := ""
		if res.PercentChange != nil {
			change = f(*res.PercentChange)
		}
		record := []string{
			e.runID.String(), r.Game.Name, f(r.Game.Price),
			f(res.OriginalExpectedValue), f(res.OriginalRatio),
			f(res.EstimatedTotalTicketsPrinted), f(res.EstimatedTicketsRemaining),
			f(res.AdjustedExpectedValue), f(res.AdjustedRatio), change,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFiles writes report_<timestamp>.json and .csv into dir and returns their paths.
func (e *Exporter) WriteFiles(dir string, results []models.GameResult) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create export directory: %w", err)
	}

	stamp := e.now().Format("2006-01-02_15-04-05")
	jsonPath = filepath.Join(dir, fmt.Sprintf("report_%s.json", stamp))
	csvPath = filepath.Join(dir, fmt.Sprintf("report_%s.csv", stamp))

	jsonData, err := e.ExportToJSON(results)
	if err != nil {
		return "", "", fmt.Errorf("failed to export JSON: %w", err)
	}
	if err := os.WriteFile(jsonPath, jsonData, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	csvData, err := e.ExportToCSV(results)
	if err != nil {
		return "", "", fmt.Errorf("failed to export CSV: %w", err)
	}
	if err := os.WriteFile(csvPath, csvData, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return jsonPath, csvPath, nil
}

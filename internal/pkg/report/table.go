package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Vodeneev/ticketev/internal/pkg/models"
)

// Renderer prints result tables with locale-aware number formatting.
type Renderer struct {
	w       io.Writer
	printer *message.Printer
}

// NewRenderer creates a renderer for the given BCP 47 language tag.
func NewRenderer(w io.Writer, lang string) (*Renderer, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("invalid report language %q: %w", lang, err)
	}
	return &Renderer{w: w, printer: message.NewPrinter(tag)}, nil
}

// WriteView prints one sorted view of the results.
func (r *Renderer) WriteView(title string, results []models.GameResult) error {
	fmt.Fprintf(r.w, "---\n%s\n---\n", title)
	if len(results) == 0 {
		fmt.Fprintln(r.w, "(no games)")
		return nil
	}

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tPrice\tOrig. Expected\tOrig. Ratio\tAdj. Expected\tAdj. Ratio\tChange\tTickets Left\t\tName")
	for i, gr := range results {
		res := gr.Result
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\t%s\n",
			i+1,
			r.money(gr.Game.Price),
			r.money(res.OriginalExpectedValue),
			r.ratio(res.OriginalRatio),
			r.money(res.AdjustedExpectedValue),
			r.ratio(res.AdjustedRatio),
			r.change(res.PercentChange),
			r.printer.Sprintf("%.0f", res.EstimatedTicketsRemaining),
			gr.Game.Name,
		)
	}
	return tw.Flush()
}

// WriteDetail prints one game's prize tiers, marking exhausted ones.
func (r *Renderer) WriteDetail(gr models.GameResult) error {
	fmt.Fprintf(r.w, "N: %s, V: %s\n", gr.Game.Name, r.money(gr.Game.Price))
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Value\tOdds\tTotal\tRemaining\t\tNote")
	for i, row := range gr.Game.Rows {
		note := ""
		if row.Exhausted() {
			note = "exhausted"
		}
		if gr.Result != nil {
			for _, m := range gr.Result.TierMismatches {
				if m.Row == i {
					note = strings.TrimSpace(note + r.printer.Sprintf(" implies %.0f tickets", m.ImpliedTotal))
				}
			}
		}
		fmt.Fprintf(tw, "%s\t1 in %s\t%s\t%s\t\t%s\n",
			r.money(row.Value),
			r.printer.Sprintf("%.2f", row.StatedOdds),
			r.printer.Sprintf("%d", row.OriginalCount),
			r.printer.Sprintf("%d", row.RemainingCount),
			note,
		)
	}
	return tw.Flush()
}

// WriteFailures lists games that produced no estimate.
func (r *Renderer) WriteFailures(failed []models.GameResult) error {
	if len(failed) == 0 {
		return nil
	}
	fmt.Fprintf(r.w, "---\nSkipped games (%d)\n---\n", len(failed))
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	for _, gr := range failed {
		fmt.Fprintf(tw, "%s\t%s\t%v\n", gr.Game.Name, r.money(gr.Game.Price), gr.Err)
	}
	return tw.Flush()
}

func (r *Renderer) money(v float64) string {
	return r.printer.Sprintf("$%.2f", v)
}

func (r *Renderer) ratio(v float64) string {
	return r.printer.Sprintf("%.4f", v)
}

func (r *Renderer) change(pc *float64) string {
	if pc == nil {
		return "n/a"
	}
	return r.printer.Sprintf("%.1f%%", *pc*100)
}

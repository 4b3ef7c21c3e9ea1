package lottery

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Vodeneev/ticketev/internal/pkg/models"
	"github.com/Vodeneev/ticketev/internal/pkg/validation"
)

// Game boxes carry "box cloudfx databox price_<N>" in their class list.
var (
	boxClasses      = []string{"box", "cloudfx", "databox"}
	priceClassRegex = regexp.MustCompile(`^price_(\d+(?:\.\d+)?)$`)
)

const gameNameClass = "gamename"

type column int

const (
	colValue column = iota
	colOdds
	colTotal
	colRemaining
	numColumns
)

// Header keywords, matched case-insensitively as substrings.
var headerKeywords = [numColumns][]string{
	colValue:     {"value", "prize", "amount"},
	colOdds:      {"odds"},
	colTotal:     {"total", "original", "printed"},
	colRemaining: {"remaining", "unclaimed", "left"},
}

// Parser extracts prize tables from a saved odds page.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseFile reads and parses a snapshot from disk.
func (p *Parser) ParseFile(path string) ([]models.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse returns every game box found in the document, in document order.
// Table rows that cannot be read are dropped.
func (p *Parser) Parse(r io.Reader) ([]models.Game, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var games []models.Game
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if price, ok := gamePrice(n); ok {
				games = append(games, p.parseGame(n, price, len(games)))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	p.logger.Info("Snapshot parsed", "games", len(games))
	return games, nil
}

func (p *Parser) parseGame(box *html.Node, price float64, index int) models.Game {
	game := models.Game{Price: price}

	if nameNode := findFirst(box, func(n *html.Node) bool { return hasClass(n, gameNameClass) }); nameNode != nil {
		game.Name = validation.SanitizeName(textContent(nameNode))
	}
	if game.Name == "" {
		game.Name = fmt.Sprintf("game #%d", index+1)
	}

	table := findFirst(box, func(n *html.Node) bool { return n.DataAtom == atom.Table })
	if table == nil {
		p.logger.Warn("Game box has no prize table", "game", game.Name)
		return game
	}

	rows := tableRows(table)
	headerIdx := findHeaderRow(rows)
	if headerIdx < 0 {
		p.logger.Warn("Prize table has no header row", "game", game.Name, "rows", len(rows))
		return game
	}
	cols := mapColumns(rows[headerIdx])

	for i, cells := range rows[headerIdx+1:] {
		row, err := parseRow(cells, cols)
		if err != nil {
			p.logger.Debug("Skipping prize row", "game", game.Name, "row", i, "cells", cells, "error", err)
			continue
		}
		game.Rows = append(game.Rows, row)
	}

	p.logger.Debug("Parsed game", "game", game.Name, "price", game.Price, "tiers", len(game.Rows))
	return game
}

func parseRow(cells []string, cols [numColumns]int) (models.PrizeRow, error) {
	cell := func(c column) (string, error) {
		idx := cols[c]
		if idx < 0 || idx >= len(cells) {
			return "", fmt.Errorf("missing column %d", idx)
		}
		return cells[idx], nil
	}

	var row models.PrizeRow
	s, err := cell(colValue)
	if err != nil {
		return row, err
	}
	value, err := ParseCurrency(s)
	if err != nil {
		return row, err
	}
	row.Value = value.InexactFloat64()

	if s, err = cell(colOdds); err != nil {
		return row, err
	}
	odds, err := ParseOdds(s)
	if err != nil {
		return row, err
	}
	row.StatedOdds = odds.InexactFloat64()

	if s, err = cell(colTotal); err != nil {
		return row, err
	}
	if row.OriginalCount, err = ParseCount(s); err != nil {
		return row, err
	}

	if s, err = cell(colRemaining); err != nil {
		return row, err
	}
	if row.RemainingCount, err = ParseCount(s); err != nil {
		return row, err
	}
	return row, nil
}

// gamePrice reports whether n is a game box and returns its ticket price.
func gamePrice(n *html.Node) (float64, bool) {
	classes := classList(n)
	if len(classes) == 0 {
		return 0, false
	}
	set := make(map[string]bool, len(classes))
	for _, c := range classes {
		set[c] = true
	}
	for _, want := range boxClasses {
		if !set[want] {
			return 0, false
		}
	}
	for _, c := range classes {
		if m := priceClassRegex.FindStringSubmatch(c); m != nil {
			price, err := ParseCurrency(m[1])
			if err != nil {
				return 0, false
			}
			return price.InexactFloat64(), true
		}
	}
	return 0, false
}

// findHeaderRow prefers the first multi-cell row naming at least two known columns;
// otherwise the second row, since the first one holds the table title.
func findHeaderRow(rows [][]string) int {
	for i, cells := range rows {
		if len(cells) < 2 {
			continue
		}
		matched := 0
		for c := column(0); c < numColumns; c++ {
			for _, cell := range cells {
				if matchesAny(cell, headerKeywords[c]) {
					matched++
					break
				}
			}
		}
		if matched >= 2 {
			return i
		}
	}
	if len(rows) > 1 {
		return 1
	}
	return -1
}

// mapColumns resolves each column by header name, falling back to position. A
// header cell is claimed by at most one column: cells naming a single column are
// assigned first, so "Prize" beats "Prizes Remaining" for the value column, then
// the rest are matched in keyword order among unclaimed cells.
func mapColumns(header []string) [numColumns]int {
	var cols [numColumns]int
	for c := range cols {
		cols[c] = -1
	}
	claimed := make(map[int]bool, len(header))

	for i, h := range header {
		owner, matches := column(-1), 0
		for c := column(0); c < numColumns; c++ {
			if matchesAny(h, headerKeywords[c]) {
				owner = c
				matches++
			}
		}
		if matches == 1 && cols[owner] < 0 {
			cols[owner] = i
			claimed[i] = true
		}
	}

	for c := column(0); c < numColumns; c++ {
		if cols[c] >= 0 {
			continue
		}
	keywords:
		for _, k := range headerKeywords[c] {
			for i, h := range header {
				if !claimed[i] && strings.Contains(strings.ToLower(h), k) {
					cols[c] = i
					claimed[i] = true
					break keywords
				}
			}
		}
	}

	for c := column(0); c < numColumns; c++ {
		if cols[c] >= 0 {
			continue
		}
		pos := int(c)
		for claimed[pos] {
			pos++
		}
		cols[c] = pos
		claimed[pos] = true
	}
	return cols
}

func matchesAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// tableRows returns the text of every cell of every row, nested tables excluded.
func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				continue
			case atom.Tr:
				var cells []string
				for td := c.FirstChild; td != nil; td = td.NextSibling {
					if td.DataAtom == atom.Td || td.DataAtom == atom.Th {
						cells = append(cells, normalizeSpace(textContent(td)))
					}
				}
				rows = append(rows, cells)
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

func classList(n *html.Node) []string {
	for _, a := range n.Attr {
		if a.Key == "class" {
			return strings.Fields(a.Val)
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range classList(n) {
		if c == class {
			return true
		}
	}
	return false
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

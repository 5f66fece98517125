package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansiRegexp.ReplaceAllString(s, "") }

func visibleWidth(s string) int { return runewidth.StringWidth(stripANSI(s)) }

// ShareBar renders part/total as a bar of the given width. Non-positive
// parts or totals render empty.
func ShareBar(part, total decimal.Decimal, width int) string {
	if width < 5 {
		width = 5
	}
	filled := 0
	if total.IsPositive() && part.IsPositive() {
		filled = int(part.Div(total).Mul(decimal.NewFromInt(int64(width))).Round(0).IntPart())
	}
	if filled > width {
		filled = width
	}
	t := Current()
	return strings.Repeat(t.BarFull, filled) + strings.Repeat(t.BarEmpty, width-filled)
}

// Truncate cuts s to at most width terminal cells, ending in "..." when cut.
func Truncate(s string, width int) string { return runewidth.Truncate(s, width, "...") }

// Panel draws a framed box using the current theme.
func Panel(lines []string) {
	t := Current()
	// compute visible width
	maxw := 0
	for _, ln := range lines {
		if w := visibleWidth(ln); w > maxw {
			maxw = w
		}
	}
	pad := func(s string) string {
		if vis := visibleWidth(s); vis < maxw {
			s = s + strings.Repeat(" ", maxw-vis)
		}
		return s
	}
	leftPad := " "
	fmt.Fprintln(stdout, t.CornerTL+strings.Repeat(t.H, maxw+2)+t.CornerTR)
	for _, ln := range lines {
		fmt.Fprintln(stdout, t.V+leftPad+pad(ln)+" "+t.V)
	}
	fmt.Fprintln(stdout, t.CornerBL+strings.Repeat(t.H, maxw+2)+t.CornerBR)
}

// Money formats an amount with two decimals.
func Money(d decimal.Decimal) string { return "$" + d.StringFixed(2) }

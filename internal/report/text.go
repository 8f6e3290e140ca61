// Package report renders driver results for people and for tools.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"callconv/internal/diag"
	"callconv/internal/driver"
)

// TextOptions control Text.
type TextOptions struct {
	Color bool
	// TypeWidth caps the type column; longer spellings are truncated.
	TypeWidth int
	// Quiet drops the per-function tables and prints diagnostics only.
	Quiet bool
}

const defaultTypeWidth = 32

// Text writes one table per function, the IR listings in lower mode, and
// the diagnostics with a summary line.
func Text(w io.Writer, res *driver.Result, opts TextOptions) error {
	if opts.TypeWidth <= 0 {
		opts.TypeWidth = defaultTypeWidth
	}
	heading := paint(opts.Color, color.Bold)
	faint := paint(opts.Color, color.Faint)
	bad := paint(opts.Color, color.FgRed, color.Bold)
	good := paint(opts.Color, color.FgGreen)

	var sb strings.Builder
	if !opts.Quiet {
		for _, fn := range res.Functions {
			fmt.Fprintf(&sb, "%s %s\n", heading.Sprint("function "+fn.Name), faint.Sprintf("(%s)", res.Target))
			writeTable(&sb, fn, opts.TypeWidth, faint)
			switch {
			case fn.Failed:
				sb.WriteString("  " + bad.Sprint("failed") + ", see diagnostics\n")
			case fn.Check != nil:
				fmt.Fprintf(&sb, "  %s %d operands, %d ops\n", good.Sprint("round trip ok:"), fn.Check.Operands, fn.Check.Ops)
			}
			if fn.Callee != "" {
				sb.WriteString("\n")
				sb.WriteString(indent(fn.Callee))
				sb.WriteString("\n")
				sb.WriteString(indent(fn.Caller))
			}
			sb.WriteString("\n")
		}
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}

	if res.Bag != nil && res.Bag.Len() > 0 {
		if err := diag.Format(w, res.Bag.Items(), opts.Color); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, summary(res, opts.Color)+"\n")
	return err
}

func writeTable(sb *strings.Builder, fn driver.FunctionReport, typeWidth int, faint *color.Color) {
	rows := [][4]string{{"slot", "type", "size", "strategy"}}
	add := func(d driver.Decision) {
		rows = append(rows, [4]string{
			d.Name,
			truncate(d.Type, typeWidth),
			fmt.Sprintf("%d:%d", d.Size, d.Align),
			d.Strategy,
		})
	}
	add(fn.Return)
	for _, p := range fn.Params {
		add(p)
	}

	var widths [3]int
	for _, r := range rows {
		for i := range widths {
			widths[i] = max(widths[i], runewidth.StringWidth(r[i]))
		}
	}
	cells := make([]lipgloss.Style, len(widths))
	for i, wd := range widths {
		cells[i] = lipgloss.NewStyle().Width(wd + 2)
	}
	for n, r := range rows {
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			cells[0].Render(r[0]), cells[1].Render(r[1]), cells[2].Render(r[2]), r[3])
		if n == 0 {
			line = faint.Sprint(line)
		}
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

func summary(res *driver.Result, useColor bool) string {
	parts := []string{fmt.Sprintf("%d functions", len(res.Functions))}
	cached := 0
	for _, f := range res.Functions {
		if f.Cached {
			cached++
		}
	}
	if cached > 0 {
		parts = append(parts, fmt.Sprintf("%d cached", cached))
	}
	if failed := res.Failed(); failed > 0 {
		parts = append(parts, paint(useColor, color.FgRed).Sprintf("%d failed", failed))
	}
	if res.Bag != nil {
		if s := diag.Summary(res.Bag); s != "" {
			parts = append(parts, s)
		}
	}
	return res.Mode.String() + ": " + strings.Join(parts, ", ")
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return "    " + strings.Join(lines, "\n    ") + "\n"
}

func truncate(value string, width int) string {
	if runewidth.StringWidth(value) <= width {
		return value
	}
	return runewidth.Truncate(value, width, "...")
}

func paint(useColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if useColor {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

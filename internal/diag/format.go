package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var severityAttrs = map[Severity][]color.Attribute{
	SevInfo:    {color.FgCyan},
	SevWarning: {color.FgYellow, color.Bold},
	SevError:   {color.FgRed, color.Bold},
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

// FormatLine renders a diagnostic without its notes.
func FormatLine(d Diagnostic, useColor bool) string {
	sev := paint(useColor, severityAttrs[d.Severity]...).Sprint(d.Severity.String())
	id := paint(useColor, color.Faint).Sprint(d.Code.ID())
	subject := d.Subject
	if subject == "" {
		subject = "<input>"
	}
	return fmt.Sprintf("%s %s %s: %s", sev, id, subject, d.Message)
}

// Format writes one line per diagnostic, notes indented below it.
func Format(w io.Writer, items []Diagnostic, useColor bool) error {
	var sb strings.Builder
	for _, d := range items {
		sb.WriteString(FormatLine(d, useColor))
		sb.WriteByte('\n')
		for _, n := range d.Notes {
			if n.Subject != "" {
				fmt.Fprintf(&sb, "  note: %s: %s\n", n.Subject, n.Msg)
			} else {
				fmt.Fprintf(&sb, "  note: %s\n", n.Msg)
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Summary is "2 errors, 1 warning" style text; empty when the bag is empty.
func Summary(b *Bag) string {
	var parts []string
	add := func(n int, word string) {
		switch {
		case n == 1:
			parts = append(parts, "1 "+word)
		case n > 1:
			parts = append(parts, fmt.Sprintf("%d %ss", n, word))
		}
	}
	add(b.Count(SevError), "error")
	add(b.Count(SevWarning), "warning")
	return strings.Join(parts, ", ")
}

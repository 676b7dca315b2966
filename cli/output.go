package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Printer writes human-facing command output.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter honours NO_COLOR and dumb terminals on top of useColors.
func NewPrinter(out, errOut io.Writer, useColors bool) *Printer {
	if _, ok := os.LookupEnv("NO_COLOR"); ok || os.Getenv("TERM") == "dumb" {
		useColors = false
	}
	return &Printer{out: out, err: errOut, useColors: useColors}
}

func (p *Printer) Out() io.Writer {
	return p.out
}

func (p *Printer) Info(format string, args ...any) {
	p.print(p.out, color.FgCyan, "", format, args...)
}

func (p *Printer) Success(format string, args ...any) {
	p.print(p.out, color.FgGreen, "[OK] ", format, args...)
}

func (p *Printer) Warning(format string, args ...any) {
	p.print(p.err, color.FgYellow, "[WARN] ", format, args...)
}

func (p *Printer) Error(format string, args ...any) {
	p.print(p.err, color.FgRed, "[ERROR] ", format, args...)
}

func (p *Printer) print(w io.Writer, attr color.Attribute, prefix, format string, args ...any) {
	if p.useColors {
		c := color.New(attr)
		c.EnableColor()
		c.Fprintf(w, prefix+format+"\n", args...)
		return
	}
	fmt.Fprintf(w, prefix+format+"\n", args...)
}

// Badge renders a coloured marker for a session status or access decision.
func (p *Printer) Badge(text string, good bool) string {
	if !p.useColors {
		return text
	}
	c := color.New(color.FgRed)
	if good {
		c = color.New(color.FgGreen)
	}
	c.EnableColor()
	return c.Sprint(text)
}

// Table renders headers and rows without borders.
func (p *Printer) Table(headers []string, rows [][]string) {
	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	_ = table.Bulk(rows)
	_ = table.Render()
}

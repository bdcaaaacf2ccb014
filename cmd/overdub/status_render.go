package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// statusKind doubles as the bracketed tag shown on each status line.
type statusKind string

const (
	statusInfo  statusKind = "INFO"
	statusOK    statusKind = "OK"
	statusWarn  statusKind = "WARN"
	statusError statusKind = "ERROR"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var statusColors = map[statusKind]string{
	statusInfo:  ansiBlue,
	statusOK:    ansiGreen,
	statusWarn:  ansiYellow,
	statusError: ansiRed,
}

// statusPrinter renders the sectioned report the status command is built
// from: underlined headers and aligned label/status lines, colored when the
// destination is a terminal.
type statusPrinter struct {
	out   io.Writer
	color bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, color: writerIsTerminal(out)}
}

func (p *statusPrinter) paint(text, color string) string {
	if !p.color || color == "" {
		return text
	}
	return color + text + ansiReset
}

func (p *statusPrinter) section(title string) {
	header := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	fmt.Fprintln(p.out, p.paint(header, ansiBlue))
	fmt.Fprintln(p.out, p.paint(strings.Repeat("-", len(header)), ansiBlue))
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	const labelWidth = 20
	text := "[" + string(kind) + "]"
	if message != "" {
		text += " " + message
	}
	row := fmt.Sprintf("  %-*s %s", labelWidth, label+":", text)
	fmt.Fprintln(p.out, p.paint(row, statusColors[kind]))
}

func (p *statusPrinter) blank() {
	fmt.Fprintln(p.out)
}

// passKind maps a boolean check outcome to the kind most lines use.
func passKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}

func writerIsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

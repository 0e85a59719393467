package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dropspool/internal/api"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiBlue  = "\x1b[34m"

	fieldWidth  = 18
	fieldIndent = "  "
)

var sectionCaser = cases.Title(language.Und)

// painter renders the text form of `dropspool status`. Color is applied only
// when enabled.
type painter struct {
	color bool
}

func newPainter(w io.Writer) painter {
	file, ok := w.(*os.File)
	if !ok {
		return painter{}
	}
	fd := file.Fd()
	return painter{color: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)}
}

func (p painter) paint(code, text string) string {
	if !p.color {
		return text
	}
	return code + text + ansiReset
}

// section returns a title-cased heading underlined to the same width.
func (p painter) section(title string) string {
	heading := "== " + sectionCaser.String(strings.TrimSpace(title)) + " =="
	return p.paint(ansiBlue, heading) + "\n" + p.paint(ansiBlue, strings.Repeat("-", len(heading)))
}

func (p painter) field(label, value string) string {
	return fmt.Sprintf("%s%-*s %s", fieldIndent, fieldWidth, label+":", value)
}

// check renders a layout check as a pass or fail line.
func (p painter) check(c api.CheckResult) string {
	mark, code := "ok", ansiGreen
	if !c.Passed {
		mark, code = "FAIL", ansiRed
	}
	value := p.paint(code, mark)
	if c.Detail != "" {
		value += " " + c.Detail
	}
	return p.field(c.Name, value)
}

// Package ui holds box drawing helpers shared by the text outputs.
package ui

import (
	"strings"
	"unicode/utf8"
)

const (
	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxVertical    = "│"
	BoxHorizontal  = "─"
	BoxTeeRight    = "├"
	BoxTeeLeft     = "┤"
)

// BuildBoxHeader creates a box header with the given title and width.
// The width grows to fit the title.
func BuildBoxHeader(title string, width int) string {
	titleLen := utf8.RuneCountInString(title)
	if width < titleLen+4 {
		width = titleLen + 4
	}
	padding := width - 4 - titleLen

	var b strings.Builder
	b.WriteString(BoxTopLeft + repeatString(BoxHorizontal, width-2) + BoxTopRight + "\n")
	b.WriteString(BoxVertical + " " + title + repeatString(" ", padding+1) + BoxVertical + "\n")
	b.WriteString(BoxTeeRight + repeatString(BoxHorizontal, width-2) + BoxTeeLeft + "\n")
	return b.String()
}

// BuildBoxFooter creates a box footer with the given width
func BuildBoxFooter(width int) string {
	return BoxBottomLeft + repeatString(BoxHorizontal, width-2) + BoxBottomRight + "\n"
}

// BuildBoxLine creates a content line within a box, truncating content by
// runes when it does not fit.
func BuildBoxLine(content string, width int) string {
	contentLen := utf8.RuneCountInString(content)
	maxContentLen := width - 4

	if contentLen > maxContentLen {
		runes := []rune(content)
		content = string(runes[:max(maxContentLen-3, 0)]) + "..."
		contentLen = utf8.RuneCountInString(content)
	}

	padding := max(maxContentLen-contentLen, 0)
	return BoxVertical + " " + content + repeatString(" ", padding+1) + BoxVertical + "\n"
}

// BuildBox renders a titled box holding lines. Long lines are truncated.
func BuildBox(title string, lines []string, width int) string {
	var b strings.Builder
	header := BuildBoxHeader(title, width)
	b.WriteString(header)
	// the header may have widened the box
	width = utf8.RuneCountInString(strings.SplitN(header, "\n", 2)[0])
	for _, line := range lines {
		b.WriteString(BuildBoxLine(line, width))
	}
	b.WriteString(BuildBoxFooter(width))
	return b.String()
}

func repeatString(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}

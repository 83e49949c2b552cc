package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// TruncateWithEllipsis truncates a string to fit within maxWidth display cells,
// adding "…" if truncated. Handles wide characters correctly.
func TruncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	width := lipgloss.Width(s)
	if width <= maxWidth {
		return s
	}

	if maxWidth == 1 {
		return "…"
	}

	result := make([]rune, 0, len(s))
	currentWidth := 0
	targetWidth := maxWidth - 1 // Reserve 1 cell for ellipsis

	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > targetWidth {
			break
		}
		result = append(result, r)
		currentWidth += rw
	}

	return string(result) + "…"
}

// PadRight pads a string to the specified display width with spaces on the right.
// If the string is wider than width, it is truncated.
func PadRight(s string, width int) string {
	if width <= 0 {
		return ""
	}

	strWidth := lipgloss.Width(s)
	if strWidth >= width {
		return TruncateWithEllipsis(s, width)
	}

	return s + strings.Repeat(" ", width-strWidth)
}

// PadCenter centers a string within the specified display width.
// If the string is wider than width, it is truncated.
func PadCenter(s string, width int) string {
	if width <= 0 {
		return ""
	}

	strWidth := lipgloss.Width(s)
	if strWidth >= width {
		return TruncateWithEllipsis(s, width)
	}

	totalPadding := width - strWidth
	leftPadding := totalPadding / 2
	rightPadding := totalPadding - leftPadding

	return strings.Repeat(" ", leftPadding) + s + strings.Repeat(" ", rightPadding)
}

// Marquee shows a width-cell window of s scrolled left by offset runes.
// Text that fits is returned padded and never scrolls.
func Marquee(s string, width, offset int) string {
	if runewidth.StringWidth(s) <= width {
		return PadRight(s, width)
	}

	runes := []rune(s + "   ")
	start := offset % len(runes)
	rotated := string(append(runes[start:], runes[:start]...))
	return runewidth.FillRight(runewidth.Truncate(rotated, width, ""), width)
}

// FormatClock renders d as m:ss.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

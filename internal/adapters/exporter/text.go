package exporter

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// padRight добивает строку пробелами до ширины колонки с учетом широких символов.
func padRight(s string, colWidth int) string {
	padding := colWidth - runewidth.StringWidth(s)

	// Некоторые терминалы рисуют CJK-символы шире, чем сообщает runewidth
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hangul, unicode.Hiragana, unicode.Katakana) {
			if padding >= 0 {
				padding++
			}
			break
		}
	}

	if padding > 0 {
		return s + strings.Repeat(" ", padding)
	}
	return s
}

// wrapText разбивает строку на строки не шире width, предпочитая границы слов.
// Слово длиннее width разрезается посередине.
func wrapText(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var current strings.Builder
	currentWidth := 0

	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
			currentWidth = 0
		}
	}

	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)

		if wordWidth > width {
			flush()
			lines = append(lines, breakWord(word, width)...)
			continue
		}

		if currentWidth > 0 && currentWidth+1+wordWidth > width {
			flush()
		}
		if currentWidth > 0 {
			current.WriteByte(' ')
			currentWidth++
		}
		current.WriteString(word)
		currentWidth += wordWidth
	}
	flush()

	return lines
}

// breakWord режет слово на куски шириной не больше width.
func breakWord(word string, width int) []string {
	var parts []string
	var part strings.Builder
	partWidth := 0
	for _, r := range word {
		rw := runewidth.RuneWidth(r)
		if partWidth+rw > width && part.Len() > 0 {
			parts = append(parts, part.String())
			part.Reset()
			partWidth = 0
		}
		part.WriteRune(r)
		partWidth += rw
	}
	if part.Len() > 0 {
		parts = append(parts, part.String())
	}
	return parts
}

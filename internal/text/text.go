// Package text implements the in-memory operations of the text tools.
// Every transform is a pure function of the buffer; nothing here touches
// disk except Decode's caller reading the file and Buffer.Export.
package text

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	xunicode "golang.org/x/text/encoding/unicode"
)

// Stats is the result of Count.
type Stats struct {
	Lines int
	Words int
	Chars int
}

// CharCount is one entry of a character frequency table.
type CharCount struct {
	Char  rune
	Count int
}

// TopChars is the number of entries Frequency returns.
const TopChars = 10

// Decode converts raw file bytes into a string, replacing every invalid
// UTF-8 byte with U+FFFD instead of rejecting the input.
func Decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := xunicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(out)
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeNewlines rewrites \r\n and lone \r as \n.
func NormalizeNewlines(s string) string {
	return newlines.Replace(s)
}

// Lines splits s on \n, \r\n and \r. A trailing line break does not start
// an extra empty line, and the empty string has no lines.
func Lines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			lines = append(lines, s[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// Count returns line, word and character counts. Words are maximal runs of
// non-space runes; characters are code points.
func Count(s string) Stats {
	return Stats{
		Lines: len(Lines(s)),
		Words: len(strings.Fields(s)),
		Chars: utf8.RuneCountInString(s),
	}
}

// Frequency counts letters only, case-sensitively, and returns the TopChars
// most common in descending order. Ties keep first-occurrence order.
func Frequency(s string) []CharCount {
	index := make(map[rune]int)
	var counts []CharCount
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if i, ok := index[r]; ok {
			counts[i].Count++
			continue
		}
		index[r] = len(counts)
		counts = append(counts, CharCount{Char: r, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > TopChars {
		counts = counts[:TopChars]
	}
	return counts
}

// Replace substitutes every literal, case-sensitive occurrence of find.
func Replace(s, find, repl string) string {
	return strings.ReplaceAll(s, find, repl)
}

// Upper converts s to upper case.
func Upper(s string) string {
	return strings.ToUpper(s)
}

// Lower converts s to lower case.
func Lower(s string) string {
	return strings.ToLower(s)
}

// ReverseLines reverses the order of lines; the text of each line is kept.
func ReverseLines(s string) string {
	lines := Lines(s)
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n")
}

// SortLines sorts lines ascending by byte order, which for UTF-8 equals
// code point order.
func SortLines(s string) string {
	lines := Lines(s)
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// RemoveBlankLines drops lines that are empty after trimming whitespace.
func RemoveBlankLines(s string) string {
	lines := Lines(s)
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

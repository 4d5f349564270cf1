package main

import (
	"strings"
	"unicode"
)

type scanState int

const (
	stateCode scanState = iota
	stateDocComment
	stateBlockComment
)

const (
	docCommentOpen   = "/**"
	blockCommentOpen = "/*"
	blockCommentEnd  = "*/"
)

// removeNonDocComments drops line comments and ordinary block comments while
// keeping /** ... */ documentation comments byte for byte. Runs of blank lines
// collapse to one and the result always ends with exactly one newline.
func removeNonDocComments(content string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	state := stateCode

	for _, line := range lines {
		// Markers are matched anywhere on the line, so the whole line is kept
		// or dropped with the span it opens or closes.
		switch state {
		case stateDocComment:
			result = append(result, line)
			if strings.Contains(line, blockCommentEnd) {
				state = stateCode
			}
			continue
		case stateBlockComment:
			if strings.Contains(line, blockCommentEnd) {
				state = stateCode
			}
			continue
		}

		if strings.Contains(line, docCommentOpen) {
			result = append(result, line)
			if !strings.Contains(line, blockCommentEnd) {
				state = stateDocComment
			}
			continue
		}

		if strings.Contains(line, blockCommentOpen) {
			if !strings.Contains(line, blockCommentEnd) {
				state = stateBlockComment
			}
			continue
		}

		if idx := lineCommentIndex(line); idx != -1 {
			if code := strings.TrimRightFunc(line[:idx], isSpace); code != "" {
				result = append(result, code)
			}
			continue
		}

		if isBlank(line) && (len(result) == 0 || isBlank(result[len(result)-1])) {
			continue
		}
		result = append(result, line)
	}

	for len(result) > 0 && isBlank(result[len(result)-1]) {
		result = result[:len(result)-1]
	}

	return strings.Join(result, "\n") + "\n"
}

// lineCommentIndex returns the byte offset of the first "//" outside a quoted
// string, or -1. Strings never carry over to the next line.
func lineCommentIndex(line string) int {
	var quote byte

	for j := 0; j < len(line); j++ {
		ch := line[j]

		if ch == '"' || ch == '\'' {
			// Only the immediately preceding byte counts as an escape
			if j > 0 && line[j-1] == '\\' {
				continue
			}
			if quote == 0 {
				quote = ch
			} else if ch == quote {
				quote = 0
			}
			continue
		}

		if ch == '/' && quote == 0 && j+1 < len(line) && line[j+1] == '/' {
			return j
		}
	}

	return -1
}

func isBlank(line string) bool {
	return strings.TrimFunc(line, isSpace) == ""
}

// isSpace is unicode.IsSpace plus the ASCII information separators
// U+001C..U+001F, so a line holding only separators counts as blank.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

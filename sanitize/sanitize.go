// Package sanitize cleans raw speech-to-text output before it is pasted or
// handed to the assistant.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// [BLANK_AUDIO], (silence), {no speech}, <no audio>, *silence*
	bracketed = regexp.MustCompile(`(?i)[\[\(\{<\*]\s*(?:blank[\s_-]*audio|no[\s_-]*audio|no[\s_-]*speech|silence)\s*[\]\)\}>\*]`)

	// Engine placeholders that show up without brackets.
	bare = regexp.MustCompile(`(?i)\b(?:blank_audio|no_audio|no_speech)\b`)

	// A lone "silence" is only a placeholder when nothing else was said.
	onlySilence = regexp.MustCompile(`(?i)^\W*silence\W*$`)

	// Same set as unicode.IsSpace, so collapsing agrees with CountWords.
	whitespace = regexp.MustCompile(`[\s\v\x{85}\p{Zs}]+`)
)

// Strip removes blank-audio placeholders, collapses whitespace runs and trims.
func Strip(text string) string {
	text = bracketed.ReplaceAllString(text, " ")
	text = bare.ReplaceAllString(text, " ")
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if onlySilence.MatchString(text) {
		return ""
	}
	return text
}

// IsBlankOnly reports whether text holds nothing but placeholders and whitespace.
func IsBlankOnly(text string) bool {
	return Strip(text) == ""
}

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

package rag

import (
	"strings"
	"unicode/utf8"
)

// charsPerToken is the character-per-token heuristic used to convert a
// token budget into a byte budget.
const charsPerToken = 4

// truncatedMarker is appended whenever the context was cut.
const truncatedMarker = "\n\n[Context truncated due to length limits]"

// truncateContext cuts context to approximately maxTokens tokens,
// preferring section boundaries so no section is cut mid-record.
//
// Inputs under the budget are returned unchanged, with no marker. When
// cutting, the last "\n\n---" section boundary past 70% of the budget
// wins; failing that, the last newline past 80%; failing both, a hard cut
// at the budget. The output, marker included, is never longer than the
// input and never splits a rune.
func truncateContext(context string, maxTokens int) string {
	budget := maxTokens * charsPerToken

	if len(context) <= budget {
		return context
	}

	// The marker's length comes out of the cut so the output never
	// exceeds the input, and the cut never lands inside a rune.
	cut := budget
	if m := len(context) - len(truncatedMarker); m < cut {
		cut = m
	}
	if cut <= 0 {
		// Budget too small to even fit the marker. Hard cut, no marker.
		cut = budget
		for cut > 0 && !utf8.RuneStart(context[cut]) {
			cut--
		}
		return context[:cut]
	}
	for cut > 0 && !utf8.RuneStart(context[cut]) {
		cut--
	}

	truncated := context[:cut]

	if i := strings.LastIndex(truncated, "\n\n---"); i > budget*7/10 {
		truncated = truncated[:i]
	} else if i := strings.LastIndexByte(truncated, '\n'); i > budget*8/10 {
		truncated = truncated[:i]
	}

	return truncated + truncatedMarker
}

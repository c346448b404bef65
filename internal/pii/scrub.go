// Package pii redacts personally identifiable information from free text
// before it reaches conversation memory or logs.
//
// Detection is a pipeline of independent category passes, each a compiled
// regexp paired with a placeholder. Adding a new category is a pure
// addition to the pattern list.
package pii

import "regexp"

// Result holds the scrubbed text and the categories that matched.
type Result struct {
	Scrubbed string
	Detected []string
}

// category pairs one PII class with its matcher and replacement.
type category struct {
	label       string
	re          *regexp.Regexp
	replacement string
}

// categories are applied in order; every pass re-scans the whole string so
// all occurrences of a class are replaced, not just the first.
//
// Placeholders contain no digits and no '@', so re-scrubbing already
// scrubbed text is a no-op.
var categories = []category{
	{
		label:       "email",
		re:          regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		replacement: "[EMAIL]",
	},
	{
		// Indian mobile: 10 digits, leading 6-9, optional +91/91/0 prefix.
		// The (^|\D) guard stands in for a lookbehind; RE2 has neither.
		label:       "phone",
		re:          regexp.MustCompile(`(^|\D)((?:\+?91[\s\-]?|0)?[6-9]\d{9})\b`),
		replacement: "${1}[PHONE]",
	},
	{
		// International format: leading '+', grouped digits.
		label:       "phone",
		re:          regexp.MustCompile(`\+\d{1,4}(?:[\s.\-]?\d{2,4}){2,5}`),
		replacement: "[PHONE]",
	},
	{
		label:       "pincode",
		re:          regexp.MustCompile(`(^|\D)([1-9]\d{5})\b`),
		replacement: "${1}[PIN]",
	},
	{
		// Aadhaar: 12 digits, optionally space-grouped in 4s.
		label:       "aadhaar",
		re:          regexp.MustCompile(`(^|\D)(\d{4}\s?\d{4}\s?\d{4})\b`),
		replacement: "${1}[ID]",
	},
	{
		// PAN: 5 letters + 4 digits + 1 letter.
		label:       "pan",
		re:          regexp.MustCompile(`\b[A-Za-z]{5}\d{4}[A-Za-z]\b`),
		replacement: "[PAN]",
	},
}

// Scrub redacts known PII categories from text. It is a total function:
// it never fails, and on any internal failure it returns the input
// unmodified with no detections (fail-open; callers must not be blocked
// by scrubbing errors).
func Scrub(text string) (result Result) {
	result = Result{Scrubbed: text}

	defer func() {
		if r := recover(); r != nil {
			result = Result{Scrubbed: text}
		}
	}()

	scrubbed := text
	var detected []string
	seen := make(map[string]bool, len(categories))

	for _, c := range categories {
		if !c.re.MatchString(scrubbed) {
			continue
		}
		scrubbed = c.re.ReplaceAllString(scrubbed, c.replacement)
		if !seen[c.label] {
			seen[c.label] = true
			detected = append(detected, c.label)
		}
	}

	return Result{Scrubbed: scrubbed, Detected: detected}
}

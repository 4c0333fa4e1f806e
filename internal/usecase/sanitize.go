// File: internal/usecase/sanitize.go
package usecase

import (
	"strings"
	"unicode/utf8"
)

const assistantMarker = "<ASSISTANT>:"

// Markers the fine-tuned model emits around turns; everything from the
// first one onward is discarded.
var stopMarkers = []string{"<USER>", "<END>", "<ASSISTANT>"}

// cleanReply strips prompt echo and model-internal markers from a raw
// completion, collapses whitespace, caps the answer at two sentences and
// makes sure it ends with punctuation. Empty result means the completion
// was unusable and the caller should fall back to a canned reply.
func cleanReply(raw string) string {
	s := raw
	if i := strings.LastIndex(s, assistantMarker); i >= 0 {
		s = s[i+len(assistantMarker):]
	}
	for _, m := range stopMarkers {
		if i := strings.Index(s, m); i >= 0 {
			s = s[:i]
		}
	}
	s = strings.Join(strings.Fields(s), " ")
	s = capSentences(s, 2)
	if s == "" {
		return ""
	}
	if r, _ := utf8.DecodeLastRuneInString(s); !strings.ContainsRune(".!?", r) {
		s += "."
	}
	return s
}

func capSentences(s string, n int) string {
	count := 0
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			count++
			if count == n {
				return strings.TrimSpace(s[:i+utf8.RuneLen(r)])
			}
		}
	}
	return strings.TrimSpace(s)
}

package verification

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/chains"
)

// marker renders the unverified-claim marker for a tag label.
func marker(tag string) string {
	return fmt.Sprintf("[要確認: %s]", tag)
}

// ApplyTags inserts the unverified-claim marker after every sentence
// containing one of the claims. Sentence boundaries are the Japanese
// full stop, a newline, or an English period followed by whitespace.
// Applying the same claims twice adds each marker only once per
// occurrence.
func ApplyTags(text string, claims []chains.UnverifiedClaim) string {
	for _, c := range claims {
		if c.Claim == "" || c.SuggestedTag == "" {
			continue
		}
		text = tagOccurrences(text, c.Claim, marker(c.SuggestedTag))
	}
	return text
}

// tagOccurrences inserts mark after the sentence end of every
// occurrence of claim. Occurrences are processed back to front so
// earlier insert positions stay valid.
func tagOccurrences(text, claim, mark string) string {
	var positions []int
	for from := 0; ; {
		i := strings.Index(text[from:], claim)
		if i < 0 {
			break
		}
		positions = append(positions, from+i)
		from += i + len(claim)
	}

	for i := len(positions) - 1; i >= 0; i-- {
		end := sentenceEnd(text, positions[i]+len(claim))
		if strings.HasPrefix(text[end:], mark) {
			continue
		}
		text = text[:end] + mark + text[end:]
	}
	return text
}

// sentenceEnd returns the byte offset just past the end of the sentence
// containing position from.
func sentenceEnd(text string, from int) int {
	runes := []rune(text[from:])
	offset := from
	for i, r := range runes {
		switch r {
		case '。':
			return offset + len(string(runes[:i+1]))
		case '\n':
			return offset + len(string(runes[:i]))
		case '.':
			atEnd := i == len(runes)-1
			if atEnd || unicode.IsSpace(runes[i+1]) {
				return offset + len(string(runes[:i+1]))
			}
		}
	}
	return len(text)
}

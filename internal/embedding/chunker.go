package embedding

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkSize is the soft upper bound, in characters, of a chunk.
const DefaultChunkSize = 1500

// Chunks splits text into chunks of whole sentences, each at most maxLen
// characters unless a single sentence is longer than that on its own.
// Sentences end after '.', '!' or '?' followed by whitespace, or at the end of
// the input. Empty input yields no chunks.
func Chunks(text string, maxLen int) iter.Seq[string] {
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}

	return func(yield func(string) bool) {
		var current strings.Builder
		currentLen := 0

		for sentence := range sentences(text) {
			n := utf8.RuneCountInString(sentence)
			if currentLen == 0 {
				current.WriteString(sentence)
				currentLen = n
				continue
			}
			if currentLen+1+n <= maxLen {
				current.WriteByte(' ')
				current.WriteString(sentence)
				currentLen += 1 + n
				continue
			}
			if !yield(current.String()) {
				return
			}
			current.Reset()
			current.WriteString(sentence)
			currentLen = n
		}

		if currentLen > 0 {
			yield(current.String())
		}
	}
}

// SplitChunks collects Chunks into a slice.
func SplitChunks(text string, maxLen int) []string {
	var out []string
	for c := range Chunks(text, maxLen) {
		out = append(out, c)
	}
	return out
}

func sentences(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := 0
		for i, r := range text {
			if r != '.' && r != '!' && r != '?' {
				continue
			}
			next := i + utf8.RuneLen(r)
			if next >= len(text) {
				break
			}
			following, _ := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsSpace(following) {
				continue
			}
			if s := strings.TrimSpace(text[start:next]); s != "" {
				if !yield(s) {
					return
				}
			}
			start = next
		}
		if s := strings.TrimSpace(text[start:]); s != "" {
			yield(s)
		}
	}
}

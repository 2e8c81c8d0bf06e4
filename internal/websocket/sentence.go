package websocket

import "strings"

const sentenceTerminators = ".!?"

// sentenceSplitter accumulates generation deltas and yields complete
// sentences: greedy, leftmost, non-overlapping segmentation on '.', '!' and
// '?'. Whatever follows the last terminator stays buffered until the next
// delta or the final flush, so no text is ever dropped.
type sentenceSplitter struct {
	rest string
}

// Push appends a delta and returns every sentence it completed, in order.
func (s *sentenceSplitter) Push(delta string) []string {
	if delta == "" {
		return nil
	}
	s.rest += delta

	var sentences []string
	for {
		idx := strings.IndexAny(s.rest, sentenceTerminators)
		if idx < 0 {
			break
		}
		sentences = append(sentences, s.rest[:idx+1])
		s.rest = s.rest[idx+1:]
	}
	return sentences
}

// Flush returns any unterminated leftover text and resets the buffer.
func (s *sentenceSplitter) Flush() string {
	rest := s.rest
	s.rest = ""
	return rest
}
